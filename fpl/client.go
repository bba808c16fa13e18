// Package fpl is the typed client for the companion backend's user, league
// and chat endpoints.
package fpl

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/fpl-companion/gateway"
	"github.com/jrsteele09/fpl-companion/internal/errors"
)

const (
	pathLinkFPL    = "/api/user/link-fpl"
	pathSyncFPL    = "/api/user/sync-fpl"
	pathDashboard  = "/api/user/dashboard"
	pathTeam       = "/api/user/fpl-team"
	pathLeagues    = "/api/user/leagues"
	pathStandings  = "/api/user/leagues/%d/standings"
	pathUnlinkFPL  = "/api/user/unlink-fpl"
	pathChat       = "/api/chat"
	pathHealth     = "/health"
	firstPageIndex = 1
)

// Doer sends JSON requests through the authenticated gateway.
type Doer interface {
	DoJSON(ctx context.Context, method, path string, query url.Values, in, out any) error
}

var _ Doer = (*gateway.Client)(nil)

type Client struct {
	doer Doer
}

func NewClient(doer Doer) *Client {
	return &Client{doer: doer}
}

type fplIDRequest struct {
	FPLID int `json:"fpl_id"`
}

func validID(id int) error {
	if id <= 0 {
		return errors.Wrapf(errors.ErrInvalidRequest, "fpl id must be positive, got %d", id)
	}
	return nil
}

// LinkTeam associates the signed-in user with an FPL entry.
func (c *Client) LinkTeam(ctx context.Context, fplID int) error {
	if err := validID(fplID); err != nil {
		return err
	}
	return c.doer.DoJSON(ctx, http.MethodPost, pathLinkFPL, nil, fplIDRequest{FPLID: fplID}, nil)
}

// SyncTeam asks the backend to pull fresh data for the entry from FPL.
func (c *Client) SyncTeam(ctx context.Context, fplID int) error {
	if err := validID(fplID); err != nil {
		return err
	}
	return c.doer.DoJSON(ctx, http.MethodPost, pathSyncFPL, nil, fplIDRequest{FPLID: fplID}, nil)
}

func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var out Dashboard
	if err := c.doer.DoJSON(ctx, http.MethodGet, pathDashboard, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Team(ctx context.Context) (*Team, error) {
	var out Team
	if err := c.doer.DoJSON(ctx, http.MethodGet, pathTeam, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Leagues(ctx context.Context) (*Leagues, error) {
	var out Leagues
	if err := c.doer.DoJSON(ctx, http.MethodGet, pathLeagues, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LeagueStandings fetches one page of a league table. Pages start at 1.
func (c *Client) LeagueStandings(ctx context.Context, leagueID, page int) (*LeagueStandings, error) {
	if leagueID <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "league id must be positive, got %d", leagueID)
	}
	if page < firstPageIndex {
		page = firstPageIndex
	}
	var out struct {
		Standings LeagueStandings `json:"standings"`
	}
	query := url.Values{"page": {strconv.Itoa(page)}}
	if err := c.doer.DoJSON(ctx, http.MethodGet, fmt.Sprintf(pathStandings, leagueID), query, nil, &out); err != nil {
		return nil, err
	}
	return &out.Standings, nil
}

func (c *Client) Unlink(ctx context.Context) error {
	return c.doer.DoJSON(ctx, http.MethodDelete, pathUnlinkFPL, nil, nil, nil)
}

func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	var out ChatReply
	if err := c.doer.DoJSON(ctx, http.MethodPost, pathChat, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.doer.DoJSON(ctx, http.MethodGet, pathHealth, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
