package dashboard

import (
	"context"

	"github.com/jrsteele09/fpl-companion/fpl"
	"github.com/jrsteele09/fpl-companion/gateway"
	"github.com/jrsteele09/fpl-companion/internal/errors"
	"github.com/jrsteele09/fpl-companion/internal/utils"
	"github.com/jrsteele09/fpl-companion/navigation"
)

const (
	opLoadTeam      = "load_team"
	opLoadDashboard = "load_dashboard"
	opLoadLeagues   = "load_leagues"
)

// LoadTeam fetches the linked team. A 404 means no team is linked: the slot
// is cleared and the linked flag set to false without recording an error.
func (o *Orchestrator) LoadTeam(ctx context.Context) (Result, error) {
	if o.Detached() {
		return o.finish(opLoadTeam, detachedResult(), nil)
	}
	o.cache.Team.Begin()
	team, err := o.api.Team(ctx)
	if o.Detached() {
		o.cache.Team.Abandon()
		return o.finish(opLoadTeam, detachedResult(), nil)
	}

	switch {
	case err == nil:
		o.persist(o.cache.Team.Set(team))
		o.persist(o.cache.Linked.Set(utils.Ptr(true)))
		return o.finish(opLoadTeam, okResult(), nil)
	case gateway.IsNotFound(err):
		o.persist(o.cache.Team.Clear())
		o.persist(o.cache.Linked.Set(utils.Ptr(false)))
		return o.finish(opLoadTeam, Result{Status: StatusNotLinked}, nil)
	default:
		o.cache.Team.Fail("failed to load team: " + describe(err))
		o.logger.Error().Err(err).Msg("[dashboard LoadTeam] failed")
		return o.finish(opLoadTeam, Result{Status: StatusFailed}, errors.Wrapf(err, "[dashboard LoadTeam] loading team"))
	}
}

// LoadDashboard fetches the dashboard aggregate. A 404 clears the slot and
// sends the user to link a team; other failures keep the stale value.
func (o *Orchestrator) LoadDashboard(ctx context.Context) (Result, error) {
	if o.Detached() {
		return o.finish(opLoadDashboard, detachedResult(), nil)
	}
	o.cache.Dashboard.Begin()
	data, err := o.api.Dashboard(ctx)
	if o.Detached() {
		o.cache.Dashboard.Abandon()
		return o.finish(opLoadDashboard, detachedResult(), nil)
	}

	switch {
	case err == nil:
		o.persist(o.cache.Dashboard.Set(data))
		return o.finish(opLoadDashboard, okResult(), nil)
	case gateway.IsNotFound(err):
		o.persist(o.cache.Dashboard.Clear())
		return o.finish(opLoadDashboard, Result{
			Status: StatusNotLinked,
			Intent: navigation.Redirect(navigation.PathLinkFPL),
		}, nil)
	default:
		o.cache.Dashboard.Fail("failed to load dashboard: " + describe(err))
		o.logger.Error().Err(err).Msg("[dashboard LoadDashboard] failed")
		return o.finish(opLoadDashboard, Result{Status: StatusFailed}, errors.Wrapf(err, "[dashboard LoadDashboard] loading dashboard"))
	}
}

// LoadLeagues fetches the user's leagues. A 404 means the entry is in no
// leagues yet.
func (o *Orchestrator) LoadLeagues(ctx context.Context) (Result, error) {
	if o.Detached() {
		return o.finish(opLoadLeagues, detachedResult(), nil)
	}
	o.cache.Leagues.Begin()
	leagues, err := o.api.Leagues(ctx)
	if o.Detached() {
		o.cache.Leagues.Abandon()
		return o.finish(opLoadLeagues, detachedResult(), nil)
	}

	switch {
	case err == nil:
		o.persist(o.cache.Leagues.Set(leagues))
		return o.finish(opLoadLeagues, okResult(), nil)
	case gateway.IsNotFound(err):
		o.persist(o.cache.Leagues.Clear())
		return o.finish(opLoadLeagues, Result{Status: StatusEmpty}, nil)
	default:
		o.cache.Leagues.Fail("failed to load leagues: " + describe(err))
		o.logger.Error().Err(err).Msg("[dashboard LoadLeagues] failed")
		return o.finish(opLoadLeagues, Result{Status: StatusFailed}, errors.Wrapf(err, "[dashboard LoadLeagues] loading leagues"))
	}
}

// Standings reads one page of a league table. Standings are not cached.
func (o *Orchestrator) Standings(ctx context.Context, leagueID, page int) (*fpl.LeagueStandings, error) {
	standings, err := o.api.LeagueStandings(ctx, leagueID, page)
	if err != nil {
		return nil, errors.Wrapf(err, "[dashboard Standings] league %d page %d", leagueID, page)
	}
	return standings, nil
}
