package fpl_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/fpl-companion/credentials"
	"github.com/jrsteele09/fpl-companion/credentials/fakestore"
	"github.com/jrsteele09/fpl-companion/fpl"
	"github.com/jrsteele09/fpl-companion/gateway"
	"github.com/jrsteele09/fpl-companion/internal/errors"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type callLog struct {
	lock  sync.Mutex
	calls []recordedCall
}

func (l *callLog) all() []recordedCall {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]recordedCall(nil), l.calls...)
}

func setupTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*fpl.Client, *callLog) {
	t.Helper()

	log := &callLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		log.lock.Lock()
		log.calls = append(log.calls, recordedCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})
		log.lock.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	gw, err := gateway.New(srv.URL, fakestore.NewFakeStore(&credentials.Session{AccessToken: "token"}))
	require.NoError(t, err)
	return fpl.NewClient(gw), log
}

func TestClient_LinkAndSyncSendFPLID(t *testing.T) {
	client, calls := setupTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})

	require.NoError(t, client.LinkTeam(context.Background(), 1234))
	require.NoError(t, client.SyncTeam(context.Background(), 1234))

	require.Equal(t, []recordedCall{
		{Method: http.MethodPost, Path: "/api/user/link-fpl", Body: `{"fpl_id":1234}`},
		{Method: http.MethodPost, Path: "/api/user/sync-fpl", Body: `{"fpl_id":1234}`},
	}, calls.all())
}

func TestClient_RejectsInvalidIDs(t *testing.T) {
	client, calls := setupTestClient(t, func(w http.ResponseWriter, _ *http.Request) {})

	require.True(t, errors.Is(client.LinkTeam(context.Background(), 0), errors.ErrInvalidRequest))
	require.True(t, errors.Is(client.SyncTeam(context.Background(), -1), errors.ErrInvalidRequest))
	_, err := client.LeagueStandings(context.Background(), 0, 1)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	require.Empty(t, calls.all())
}

func TestClient_Dashboard(t *testing.T) {
	client, _ := setupTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"team": {"fpl_id": 99, "team_name": "Kane Train", "player_first_name": "Ada", "player_last_name": "Lovelace", "overall_rank": 1200, "overall_points": 1500, "team_value": 101.3, "bank": 0.5},
			"current_gameweek": null,
			"gameweek_history": [{"gameweek": 1, "points": 70}, {"gameweek": 2, "points": 55, "total_points": 125}],
			"transfer_history": [{"element_in": 1}],
			"current_captain": {"player_name": "Haaland"}
		}`))
	})

	d, err := client.Dashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Kane Train", d.Team.TeamName)
	require.Equal(t, "Ada Lovelace", d.Team.PlayerName())
	require.Nil(t, d.CurrentGameweek)
	require.Len(t, d.TransferHistory, 1)
	require.Equal(t, "Haaland", d.CurrentCaptain.PlayerName)

	gw, ok := d.LatestGameweek()
	require.True(t, ok)
	require.Equal(t, 2, gw.Gameweek)
	require.Equal(t, 125, gw.TotalPoints)
}

func TestClient_DashboardNotFound(t *testing.T) {
	client, _ := setupTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"No FPL team linked"}`))
	})

	d, err := client.Dashboard(context.Background())
	require.Nil(t, d)
	require.True(t, gateway.IsNotFound(err))
}

func TestClient_LeaguesAndStandings(t *testing.T) {
	client, calls := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/user/leagues" {
			_, _ = w.Write([]byte(`{"classic":[{"league_id":7,"league_name":"Office","league_type":"x","entry_rank":3,"entry_last_rank":5}],"h2h":[{"league_id":8,"league_name":"Cup"}]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"standings": map[string]any{
				"league":    map[string]any{"name": "Office", "start_event": 1, "scoring": "c"},
				"standings": map[string]any{"has_next": true, "page": 2, "results": []map[string]any{{"entry": 1, "entry_name": "A", "rank": 51}}},
			},
		})
	})

	leagues, err := client.Leagues(context.Background())
	require.NoError(t, err)
	office, ok := leagues.Find(7)
	require.True(t, ok)
	require.Equal(t, 2, office.Movement())
	_, ok = leagues.Find(8)
	require.True(t, ok)
	_, ok = leagues.Find(9)
	require.False(t, ok)

	page, err := client.LeagueStandings(context.Background(), 7, 2)
	require.NoError(t, err)
	require.Equal(t, "Office", page.League.Name)
	require.True(t, page.Standings.HasNext)
	require.Equal(t, 51, page.Standings.Results[0].Rank)

	_, err = client.LeagueStandings(context.Background(), 7, 0)
	require.NoError(t, err)

	require.Equal(t, "/api/user/leagues/7/standings", calls.all()[1].Path)
	require.Equal(t, "page=2", calls.all()[1].Query)
	require.Equal(t, "page=1", calls.all()[2].Query)
}

func TestClient_UnlinkChatHealth(t *testing.T) {
	client, calls := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			_, _ = w.Write([]byte(`{"response":"Captain Salah.","session_id":"s-1"}`))
		case "/health":
			_, _ = w.Write([]byte(`{"status":"healthy"}`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	})

	require.NoError(t, client.Unlink(context.Background()))
	require.Equal(t, http.MethodDelete, calls.all()[0].Method)
	require.Equal(t, "/api/user/unlink-fpl", calls.all()[0].Path)

	reply, err := client.Chat(context.Background(), fpl.ChatRequest{Message: "who to captain?"})
	require.NoError(t, err)
	require.Equal(t, "s-1", reply.SessionID)
	require.JSONEq(t, `{"message":"who to captain?"}`, calls.all()[1].Body)

	health, err := client.Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, "healthy", health.Status)
}
