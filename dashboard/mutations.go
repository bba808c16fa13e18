package dashboard

import (
	"context"

	"github.com/jrsteele09/fpl-companion/cache"
	"github.com/jrsteele09/fpl-companion/credentials"
	"github.com/jrsteele09/fpl-companion/internal/errors"
	"github.com/jrsteele09/fpl-companion/internal/utils"
	"github.com/jrsteele09/fpl-companion/navigation"
)

const (
	opLink        = "link"
	opUnlink      = "unlink"
	opSynchronize = "synchronize"
	opLogout      = "logout"
)

// Link associates fplID with the user, then synchronises it. The linked
// flag is only set once the link call succeeded; a failed sync is recorded
// in the activity but does not fail the link, unless the session was lost
// during it.
func (o *Orchestrator) Link(ctx context.Context, fplID int) (Result, error) {
	if o.Detached() {
		return o.finish(opLink, detachedResult(), nil)
	}
	o.cache.SetMutationError("")

	err := o.api.LinkTeam(ctx, fplID)
	if o.Detached() {
		return o.finish(opLink, detachedResult(), nil)
	}
	if err != nil {
		o.cache.SetMutationError("failed to link FPL team: " + describe(err))
		o.logger.Error().Err(err).Int("fpl_id", fplID).Msg("[dashboard Link] link failed")
		return o.finish(opLink, Result{Status: StatusFailed}, errors.Wrapf(err, "[dashboard Link] linking %d", fplID))
	}

	_, syncErr := o.Synchronize(ctx, fplID)
	if syncErr != nil {
		o.logger.Warn().Err(syncErr).Int("fpl_id", fplID).Msg("[dashboard Link] linked but sync failed")
	}
	if o.Detached() {
		return o.finish(opLink, detachedResult(), nil)
	}

	o.persist(o.cache.Linked.Set(utils.Ptr(true)))
	if unrecoverable(syncErr) {
		return o.finish(opLink, Result{Status: StatusUnauthenticated}, syncErr)
	}
	return o.finish(opLink, Result{
		Status: StatusOK,
		Intent: navigation.RedirectAfter(navigation.PathDashboard, o.redirectDelay),
	}, nil)
}

// Unlink removes the association. On success the team, dashboard, leagues
// and linked flag are cleared in one step; on failure nothing changes.
func (o *Orchestrator) Unlink(ctx context.Context) (Result, error) {
	if o.Detached() {
		return o.finish(opUnlink, detachedResult(), nil)
	}
	o.cache.SetMutationError("")

	err := o.api.Unlink(ctx)
	if o.Detached() {
		return o.finish(opUnlink, detachedResult(), nil)
	}
	if err != nil {
		o.cache.SetMutationError("failed to unlink FPL team: " + describe(err))
		o.logger.Error().Err(err).Msg("[dashboard Unlink] unlink failed")
		return o.finish(opUnlink, Result{Status: StatusFailed}, errors.Wrapf(err, "[dashboard Unlink] unlinking"))
	}

	o.persist(o.cache.Clear(cache.EntityTeam, cache.EntityDashboard, cache.EntityLinked, cache.EntityLeagues))
	return o.finish(opUnlink, Result{
		Status: StatusOK,
		Intent: navigation.RedirectAfter(navigation.PathLinkFPL, o.redirectDelay),
	}, nil)
}

// Synchronize asks the backend to refresh the entry from FPL, then reloads
// the dashboard. The returned intent is the dashboard reload's.
func (o *Orchestrator) Synchronize(ctx context.Context, fplID int) (Result, error) {
	if o.Detached() {
		return o.finish(opSynchronize, detachedResult(), nil)
	}
	o.cache.SetSyncing(true)
	defer o.cache.SetSyncing(false)

	err := o.api.SyncTeam(ctx, fplID)
	if o.Detached() {
		return o.finish(opSynchronize, detachedResult(), nil)
	}
	if err != nil {
		o.cache.SetSyncError("failed to sync FPL data: " + describe(err))
		o.logger.Error().Err(err).Int("fpl_id", fplID).Msg("[dashboard Synchronize] sync failed")
		return o.finish(opSynchronize, Result{Status: StatusFailed}, errors.Wrapf(err, "[dashboard Synchronize] syncing %d", fplID))
	}

	res, err := o.LoadDashboard(ctx)
	o.metrics.ObserveOperation(opSynchronize, string(res.Status))
	return res, err
}

// Logout forgets every cached entity and the session, then sends the user
// to sign in.
func (o *Orchestrator) Logout(ctx context.Context) (Result, error) {
	if o.Detached() {
		return o.finish(opLogout, detachedResult(), nil)
	}
	o.persist(o.cache.Clear(cache.AllEntities...))

	var err error
	if signOuter, ok := o.creds.(credentials.SignOuter); ok {
		if err = signOuter.SignOut(ctx); err != nil {
			o.logger.Error().Err(err).Msg("[dashboard Logout] sign out failed")
			err = errors.Wrapf(err, "[dashboard Logout] signing out")
		}
	}
	return o.finish(opLogout, Result{
		Status: StatusOK,
		Intent: navigation.Redirect(navigation.PathLogin),
	}, err)
}
