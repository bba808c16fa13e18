package dashboard_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/fpl-companion/cache"
	"github.com/jrsteele09/fpl-companion/credentials"
	"github.com/jrsteele09/fpl-companion/credentials/fakestore"
	"github.com/jrsteele09/fpl-companion/dashboard"
	"github.com/jrsteele09/fpl-companion/fpl"
	"github.com/jrsteele09/fpl-companion/gateway"
	"github.com/jrsteele09/fpl-companion/internal/errors"
	"github.com/jrsteele09/fpl-companion/internal/utils"
	"github.com/jrsteele09/fpl-companion/navigation"
	"github.com/jrsteele09/fpl-companion/storage/memory"
	"github.com/stretchr/testify/require"
)

const (
	testFPLID     = 42
	redirectDelay = 10 * time.Millisecond
)

var (
	testTeam      = fpl.Team{FPLID: testFPLID, TeamName: "Kane Train"}
	testDashboard = fpl.Dashboard{Team: testTeam, CurrentGameweek: &fpl.Gameweek{Gameweek: 3, Points: 61}}
	testLeagues   = fpl.Leagues{Classic: []fpl.LeagueInfo{{LeagueID: 7, LeagueName: "Office"}}}

	errNotFound = &gateway.StatusError{Method: http.MethodGet, Path: "/x", StatusCode: http.StatusNotFound, Body: []byte(`{"detail":"No FPL team linked"}`)}
	errServer   = &gateway.StatusError{Method: http.MethodGet, Path: "/x", StatusCode: http.StatusInternalServerError, Body: []byte(`{"detail":"database unavailable"}`)}
)

// fakeAPI answers from its fields and counts calls. A non-nil gate blocks
// every call until it is closed.
type fakeAPI struct {
	lock  sync.Mutex
	calls map[string]int
	gate  chan struct{}

	linkErr      error
	syncErr      error
	unlinkErr    error
	team         *fpl.Team
	teamErr      error
	dashboard    *fpl.Dashboard
	dashboardErr error
	leagues      *fpl.Leagues
	leaguesErr   error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls:     map[string]int{},
		team:      &testTeam,
		dashboard: &testDashboard,
		leagues:   &testLeagues,
	}
}

func (f *fakeAPI) enter(name string) {
	f.lock.Lock()
	f.calls[name]++
	gate := f.gate
	f.lock.Unlock()
	if gate != nil {
		<-gate
	}
}

func (f *fakeAPI) count(name string) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) LinkTeam(_ context.Context, _ int) error {
	f.enter("link")
	return f.linkErr
}

func (f *fakeAPI) SyncTeam(_ context.Context, _ int) error {
	f.enter("sync")
	return f.syncErr
}

func (f *fakeAPI) Dashboard(_ context.Context) (*fpl.Dashboard, error) {
	f.enter("dashboard")
	if f.dashboardErr != nil {
		return nil, f.dashboardErr
	}
	return f.dashboard, nil
}

func (f *fakeAPI) Team(_ context.Context) (*fpl.Team, error) {
	f.enter("team")
	if f.teamErr != nil {
		return nil, f.teamErr
	}
	return f.team, nil
}

func (f *fakeAPI) Leagues(_ context.Context) (*fpl.Leagues, error) {
	f.enter("leagues")
	if f.leaguesErr != nil {
		return nil, f.leaguesErr
	}
	return f.leagues, nil
}

func (f *fakeAPI) LeagueStandings(_ context.Context, leagueID, page int) (*fpl.LeagueStandings, error) {
	f.enter("standings")
	return &fpl.LeagueStandings{
		League:    fpl.LeagueSummary{Name: fmt.Sprintf("league-%d", leagueID)},
		Standings: fpl.StandingsPage{Page: page},
	}, nil
}

func (f *fakeAPI) Unlink(_ context.Context) error {
	f.enter("unlink")
	return f.unlinkErr
}

type testFixture struct {
	api          *fakeAPI
	store        *memory.Store
	cache        *cache.Cache
	creds        *fakestore.FakeStore
	navigator    *navigation.Recorder
	orchestrator *dashboard.Orchestrator
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		api:       newFakeAPI(),
		store:     memory.New(),
		creds:     fakestore.NewFakeStore(&credentials.Session{AccessToken: "token"}),
		navigator: navigation.NewRecorder(),
	}
	f.cache = cache.New(f.store)
	f.orchestrator = dashboard.New(f.api, f.cache,
		dashboard.WithNavigator(f.navigator),
		dashboard.WithRedirectDelay(redirectDelay),
		dashboard.WithCredentials(f.creds),
	)
	return f
}

// seed fills every slot as if a previous session had loaded them.
func (f *testFixture) seed(t *testing.T, linked bool) {
	t.Helper()
	require.NoError(t, f.cache.Linked.Set(utils.Ptr(linked)))
	require.NoError(t, f.cache.Team.Set(&fpl.Team{FPLID: 1, TeamName: "Old Team"}))
	require.NoError(t, f.cache.Dashboard.Set(&fpl.Dashboard{Team: fpl.Team{TeamName: "Old Team"}}))
	require.NoError(t, f.cache.Leagues.Set(&testLeagues))
}

func TestLoadTeam_SuccessIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)

	for i := 0; i < 2; i++ {
		res, err := f.orchestrator.LoadTeam(context.Background())
		require.NoError(t, err)
		require.Equal(t, dashboard.StatusOK, res.Status)
	}

	st := f.cache.Snapshot()
	require.Equal(t, testTeam, *st.Team.Value)
	require.True(t, *st.IsLinked())
	require.False(t, st.Team.Loading)
	require.Empty(t, f.navigator.Intents())
}

func TestLoadTeam_NotFoundMeansNotLinked(t *testing.T) {
	f := setupTestFixture(t)
	f.seed(t, true)
	f.api.teamErr = errNotFound

	res, err := f.orchestrator.LoadTeam(context.Background())
	require.NoError(t, err)
	require.Equal(t, dashboard.StatusNotLinked, res.Status)

	st := f.cache.Snapshot()
	require.False(t, st.Team.HasValue())
	require.Empty(t, st.Team.Error)
	require.False(t, *st.IsLinked())
	require.Empty(t, f.navigator.Intents())

	_, ok, err := f.store.Get("team")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLoadTeam_FailureKeepsStaleValue(t *testing.T) {
	f := setupTestFixture(t)
	f.seed(t, true)
	f.api.teamErr = errServer

	res, err := f.orchestrator.LoadTeam(context.Background())
	require.Error(t, err)
	require.Equal(t, http.StatusInternalServerError, gateway.StatusCode(err))
	require.Equal(t, dashboard.StatusFailed, res.Status)

	st := f.cache.Snapshot()
	require.Equal(t, "Old Team", st.Team.Value.TeamName)
	require.Equal(t, "failed to load team: database unavailable", st.Team.Error)
	require.True(t, *st.IsLinked())
}

func TestLoadDashboard_NotFoundRedirectsToLink(t *testing.T) {
	f := setupTestFixture(t)
	f.seed(t, true)
	f.api.dashboardErr = errNotFound

	res, err := f.orchestrator.LoadDashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, dashboard.StatusNotLinked, res.Status)
	require.Equal(t, navigation.Redirect(navigation.PathLinkFPL), res.Intent)

	require.False(t, f.cache.Snapshot().Dashboard.HasValue())
	require.Equal(t, []navigation.Intent{navigation.Redirect(navigation.PathLinkFPL)}, f.navigator.Intents())
}

func TestLoadDashboard_FailureIsStaleButAvailable(t *testing.T) {
	f := setupTestFixture(t)
	f.seed(t, true)
	f.api.dashboardErr = errServer

	_, err := f.orchestrator.LoadDashboard(context.Background())
	require.Error(t, err)

	st := f.cache.Snapshot().Dashboard
	require.Equal(t, "Old Team", st.Value.Team.TeamName)
	require.Equal(t, "failed to load dashboard: database unavailable", st.Error)
	require.Empty(t, f.navigator.Intents())
}

func TestLoadDashboard_SuccessReplacesValue(t *testing.T) {
	f := setupTestFixture(t)
	f.seed(t, true)

	res, err := f.orchestrator.LoadDashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, dashboard.StatusOK, res.Status)
	require.True(t, res.Intent.IsZero())

	restarted := cache.New(f.store)
	got, ok := restarted.Dashboard.Value()
	require.True(t, ok)
	require.Equal(t, 3, got.CurrentGameweek.Gameweek)
}

func TestLoadLeagues_NotFoundIsEmpty(t *testing.T) {
	f := setupTestFixture(t)
	f.seed(t, true)
	f.api.leaguesErr = errNotFound

	res, err := f.orchestrator.LoadLeagues(context.Background())
	require.NoError(t, err)
	require.Equal(t, dashboard.StatusEmpty, res.Status)
	require.False(t, f.cache.Snapshot().Leagues.HasValue())
	require.Empty(t, f.navigator.Intents())
}

func TestLink_FailureLeavesLinkedFlag(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.cache.Linked.Set(utils.Ptr(false)))
	f.api.linkErr = &gateway.StatusError{StatusCode: http.StatusBadRequest, Body: []byte(`{"detail":"Invalid FPL ID"}`)}

	res, err := f.orchestrator.Link(context.Background(), testFPLID)
	require.Error(t, err)
	require.Equal(t, dashboard.StatusFailed, res.Status)

	st := f.cache.Snapshot()
	require.False(t, *st.IsLinked())
	require.Equal(t, "failed to link FPL team: Invalid FPL ID", st.Activity.MutationError)
	require.Zero(t, f.api.count("sync"))
	require.Empty(t, f.navigator.Intents())
}

func TestLink_SyncFailureStillLinks(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.cache.Team.Set(&fpl.Team{TeamName: "Pre-sync"}))
	f.api.syncErr = errServer

	res, err := f.orchestrator.Link(context.Background(), testFPLID)
	require.NoError(t, err)
	require.Equal(t, dashboard.StatusOK, res.Status)
	require.Equal(t, navigation.RedirectAfter(navigation.PathDashboard, redirectDelay), res.Intent)

	st := f.cache.Snapshot()
	require.True(t, *st.IsLinked())
	require.Equal(t, "Pre-sync", st.Team.Value.TeamName)
	require.Equal(t, "failed to sync FPL data: database unavailable", st.Activity.SyncError)
	require.Empty(t, st.Activity.MutationError)
	require.False(t, st.Activity.Syncing)
	require.Zero(t, f.api.count("dashboard"))
	require.Equal(t, navigation.RedirectAfter(navigation.PathDashboard, redirectDelay), f.navigator.Last())
}

func TestLink_UnrecoverableSyncDoesNotRedirectToDashboard(t *testing.T) {
	f := setupTestFixture(t)
	expired := &gateway.StatusError{Method: http.MethodPost, Path: "/api/user/sync-fpl", StatusCode: http.StatusUnauthorized, Body: []byte(`{"detail":"Invalid token"}`)}
	f.api.syncErr = fmt.Errorf("%w: %w", errors.ErrSessionUnrecoverable, expired)

	res, err := f.orchestrator.Link(context.Background(), testFPLID)
	require.True(t, errors.Is(err, errors.ErrSessionUnrecoverable))
	require.Equal(t, dashboard.StatusUnauthenticated, res.Status)
	require.Equal(t, navigation.Redirect(navigation.PathLogin), res.Intent)

	// the link itself went through
	require.True(t, *f.cache.Snapshot().IsLinked())
	// the gateway already navigated; nothing else may follow it
	require.Empty(t, f.navigator.Intents())
}

func TestLink_SuccessSyncsThenRedirects(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.orchestrator.Link(context.Background(), testFPLID)
	require.NoError(t, err)

	require.Equal(t, 1, f.api.count("link"))
	require.Equal(t, 1, f.api.count("sync"))
	require.Equal(t, 1, f.api.count("dashboard"))

	st := f.cache.Snapshot()
	require.True(t, *st.IsLinked())
	require.Equal(t, testDashboard.Team, st.Dashboard.Value.Team)
	require.Equal(t, []navigation.Intent{navigation.RedirectAfter(navigation.PathDashboard, redirectDelay)}, f.navigator.Intents())
}

func TestUnlink_ClearsEntitiesTogether(t *testing.T) {
	f := setupTestFixture(t)
	f.seed(t, true)

	res, err := f.orchestrator.Unlink(context.Background())
	require.NoError(t, err)
	require.Equal(t, navigation.RedirectAfter(navigation.PathLinkFPL, redirectDelay), res.Intent)

	st := f.cache.Snapshot()
	require.False(t, st.Team.HasValue())
	require.False(t, st.Dashboard.HasValue())
	require.False(t, st.Leagues.HasValue())
	require.Nil(t, st.IsLinked())
	require.Empty(t, f.store.Keys())
	require.Equal(t, 1, f.navigator.Count(navigation.PathLinkFPL))
}

func TestUnlink_FailureClearsNothing(t *testing.T) {
	f := setupTestFixture(t)
	f.seed(t, true)
	f.api.unlinkErr = errServer

	res, err := f.orchestrator.Unlink(context.Background())
	require.Error(t, err)
	require.Equal(t, dashboard.StatusFailed, res.Status)

	st := f.cache.Snapshot()
	require.True(t, st.Team.HasValue())
	require.True(t, st.Dashboard.HasValue())
	require.True(t, *st.IsLinked())
	require.Equal(t, "failed to unlink FPL team: database unavailable", st.Activity.MutationError)
	require.Len(t, f.store.Keys(), 4)
	require.Empty(t, f.navigator.Intents())
}

func TestSynchronize_NotFoundAfterSyncRedirects(t *testing.T) {
	f := setupTestFixture(t)
	f.api.dashboardErr = errNotFound

	res, err := f.orchestrator.Synchronize(context.Background(), testFPLID)
	require.NoError(t, err)
	require.Equal(t, navigation.Redirect(navigation.PathLinkFPL), res.Intent)
	require.False(t, f.cache.Activity().Syncing)
}

func TestSynchronize_SyncingWhileInFlight(t *testing.T) {
	f := setupTestFixture(t)
	f.api.gate = make(chan struct{})

	done := make(chan error)
	go func() {
		_, err := f.orchestrator.Synchronize(context.Background(), testFPLID)
		done <- err
	}()

	require.Eventually(t, func() bool { return f.api.count("sync") == 1 }, time.Second, time.Millisecond)
	st := f.cache.Snapshot()
	require.True(t, st.Activity.Syncing)
	require.False(t, st.Dashboard.Loading)
	require.True(t, st.Loading())

	close(f.api.gate)
	require.NoError(t, <-done)

	st = f.cache.Snapshot()
	require.False(t, st.Activity.Syncing)
	require.False(t, st.Loading())
	require.Equal(t, testDashboard.Team, st.Dashboard.Value.Team)
}

func TestClose_DropsLateResults(t *testing.T) {
	f := setupTestFixture(t)
	f.seed(t, true)
	f.api.gate = make(chan struct{})
	f.api.teamErr = errNotFound

	done := make(chan dashboard.Result)
	go func() {
		res, _ := f.orchestrator.LoadTeam(context.Background())
		done <- res
	}()

	require.Eventually(t, func() bool { return f.api.count("team") == 1 }, time.Second, time.Millisecond)
	f.orchestrator.Close()
	close(f.api.gate)

	res := <-done
	require.Equal(t, dashboard.StatusDetached, res.Status)

	st := f.cache.Snapshot()
	require.Equal(t, "Old Team", st.Team.Value.TeamName)
	require.True(t, *st.IsLinked())
	require.False(t, st.Team.Loading)
	require.False(t, st.Loading())

	res, err := f.orchestrator.Unlink(context.Background())
	require.NoError(t, err)
	require.Equal(t, dashboard.StatusDetached, res.Status)
	require.Zero(t, f.api.count("unlink"))
}

func TestStart_WithoutSessionRedirectsToLogin(t *testing.T) {
	f := setupTestFixture(t)
	f.creds.SetSession(nil)

	res, err := f.orchestrator.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, dashboard.StatusUnauthenticated, res.Status)
	require.Equal(t, []navigation.Intent{navigation.Redirect(navigation.PathLogin)}, f.navigator.Intents())
	require.Zero(t, f.api.count("dashboard")+f.api.count("team")+f.api.count("leagues"))
}

func TestStart_LoadsIndependently(t *testing.T) {
	f := setupTestFixture(t)
	f.api.leaguesErr = errServer

	res, err := f.orchestrator.Start(context.Background())
	require.Error(t, err)
	require.Equal(t, dashboard.StatusOK, res.Status)

	st := f.cache.Snapshot()
	require.True(t, st.Dashboard.HasValue())
	require.True(t, st.Team.HasValue())
	require.True(t, *st.IsLinked())
	require.Equal(t, "failed to load leagues: database unavailable", st.Leagues.Error)
	require.Equal(t, 1, f.api.count("dashboard"))
	require.Equal(t, 1, f.api.count("team"))
	require.Equal(t, 1, f.api.count("leagues"))
}

func TestLogout_ClearsEverything(t *testing.T) {
	f := setupTestFixture(t)
	f.seed(t, true)

	res, err := f.orchestrator.Logout(context.Background())
	require.NoError(t, err)
	require.Equal(t, navigation.Redirect(navigation.PathLogin), res.Intent)
	require.Empty(t, f.store.Keys())
	require.Equal(t, 1, f.creds.SignOuts())

	session, err := f.creds.CurrentSession(context.Background())
	require.NoError(t, err)
	require.Nil(t, session)
}

func TestUnrecoverableSessionIsNotNavigatedTwice(t *testing.T) {
	f := setupTestFixture(t)
	f.api.dashboardErr = fmt.Errorf("%w: %w", errors.ErrSessionUnrecoverable, &gateway.StatusError{StatusCode: http.StatusUnauthorized})

	res, err := f.orchestrator.LoadDashboard(context.Background())
	require.True(t, errors.Is(err, errors.ErrSessionUnrecoverable))
	require.Equal(t, navigation.Redirect(navigation.PathLogin), res.Intent)
	require.Empty(t, f.navigator.Intents())
}

func TestStandings_PassThrough(t *testing.T) {
	f := setupTestFixture(t)

	page, err := f.orchestrator.Standings(context.Background(), 7, 3)
	require.NoError(t, err)
	require.Equal(t, "league-7", page.League.Name)
	require.Equal(t, 3, page.Standings.Page)
	require.False(t, f.cache.Snapshot().Loading())
}
