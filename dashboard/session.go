package dashboard

import (
	"context"

	"github.com/jrsteele09/fpl-companion/navigation"
	"golang.org/x/sync/errgroup"
)

const opStart = "start"

// Start runs when a session becomes available. Without a session the user is
// sent to sign in and nothing is loaded. Otherwise the dashboard, team and
// leagues load concurrently; a failure in one does not cancel the others.
// The dashboard's result is returned together with the first error.
func (o *Orchestrator) Start(ctx context.Context) (Result, error) {
	if o.Detached() {
		return o.finish(opStart, detachedResult(), nil)
	}
	if !o.signedIn(ctx) {
		return o.finish(opStart, Result{
			Status: StatusUnauthenticated,
			Intent: navigation.Redirect(navigation.PathLogin),
		}, nil)
	}

	var (
		g         errgroup.Group
		dashboard Result
	)
	g.Go(func() error {
		var err error
		dashboard, err = o.LoadDashboard(ctx)
		return err
	})
	g.Go(func() error {
		_, err := o.LoadTeam(ctx)
		return err
	})
	g.Go(func() error {
		_, err := o.LoadLeagues(ctx)
		return err
	})
	err := g.Wait()

	o.metrics.ObserveOperation(opStart, string(dashboard.Status))
	return dashboard, err
}

func (o *Orchestrator) signedIn(ctx context.Context) bool {
	if o.creds == nil {
		return true
	}
	session, err := o.creds.CurrentSession(ctx)
	if err != nil {
		o.logger.Warn().Err(err).Msg("[dashboard Start] reading session failed, treating as signed out")
		return false
	}
	return session.Valid()
}
