package fpl

import "encoding/json"

// Team is the linked Fantasy Premier League entry as the backend stores it.
type Team struct {
	FPLID           int     `json:"fpl_id"`
	TeamName        string  `json:"team_name"`
	PlayerFirstName string  `json:"player_first_name"`
	PlayerLastName  string  `json:"player_last_name"`
	OverallRank     int     `json:"overall_rank"`
	OverallPoints   int     `json:"overall_points"`
	CurrentGameweek int     `json:"current_gameweek"`
	TotalTransfers  int     `json:"total_transfers"`
	TeamValue       float64 `json:"team_value"`
	Bank            float64 `json:"bank"`
}

// PlayerName is the manager's display name.
func (t Team) PlayerName() string {
	switch {
	case t.PlayerFirstName == "":
		return t.PlayerLastName
	case t.PlayerLastName == "":
		return t.PlayerFirstName
	}
	return t.PlayerFirstName + " " + t.PlayerLastName
}

type Gameweek struct {
	Gameweek       int `json:"gameweek"`
	Points         int `json:"points"`
	TotalPoints    int `json:"total_points"`
	OverallRank    int `json:"overall_rank"`
	EventTransfers int `json:"event_transfers"`
}

type Captain struct {
	PlayerName string `json:"player_name"`
}

// Dashboard is the aggregate shown on the dashboard page.
type Dashboard struct {
	Team            Team              `json:"team"`
	CurrentGameweek *Gameweek         `json:"current_gameweek"`
	GameweekHistory []Gameweek        `json:"gameweek_history"`
	TransferHistory []json.RawMessage `json:"transfer_history"`
	CurrentCaptain  *Captain          `json:"current_captain"`
}

// LatestGameweek returns the current gameweek, falling back to the last
// entry of the history.
func (d Dashboard) LatestGameweek() (Gameweek, bool) {
	if d.CurrentGameweek != nil {
		return *d.CurrentGameweek, true
	}
	if n := len(d.GameweekHistory); n > 0 {
		return d.GameweekHistory[n-1], true
	}
	return Gameweek{}, false
}

type LeagueInfo struct {
	LeagueID      int    `json:"league_id"`
	LeagueName    string `json:"league_name"`
	LeagueType    string `json:"league_type"`
	EntryRank     int    `json:"entry_rank"`
	EntryLastRank int    `json:"entry_last_rank"`
	StartEvent    int    `json:"start_event"`
}

// Movement is positive when the entry climbed since the last gameweek.
func (l LeagueInfo) Movement() int {
	if l.EntryLastRank == 0 {
		return 0
	}
	return l.EntryLastRank - l.EntryRank
}

type Leagues struct {
	Classic []LeagueInfo `json:"classic"`
	H2H     []LeagueInfo `json:"h2h,omitempty"`
}

// Find looks a league up by id across classic and head-to-head leagues.
func (l Leagues) Find(id int) (LeagueInfo, bool) {
	for _, group := range [][]LeagueInfo{l.Classic, l.H2H} {
		for _, league := range group {
			if league.LeagueID == id {
				return league, true
			}
		}
	}
	return LeagueInfo{}, false
}

type StandingEntry struct {
	ID         int    `json:"id"`
	EventTotal int    `json:"event_total"`
	PlayerName string `json:"player_name"`
	Rank       int    `json:"rank"`
	LastRank   int    `json:"last_rank"`
	RankSort   int    `json:"rank_sort"`
	Total      int    `json:"total"`
	Entry      int    `json:"entry"`
	EntryName  string `json:"entry_name"`
}

type StandingsPage struct {
	HasNext bool            `json:"has_next"`
	Page    int             `json:"page"`
	Results []StandingEntry `json:"results"`
}

type LeagueSummary struct {
	Name       string `json:"name"`
	StartEvent int    `json:"start_event"`
	Scoring    string `json:"scoring"`
}

// LeagueStandings is one page of a league table.
type LeagueStandings struct {
	NewEntries json.RawMessage `json:"new_entries,omitempty"`
	League     LeagueSummary   `json:"league"`
	Standings  StandingsPage   `json:"standings"`
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type ChatReply struct {
	Response  string `json:"response"`
	Reply     string `json:"reply,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Text is the assistant's answer. Older backends send it as "reply".
func (r ChatReply) Text() string {
	if r.Response != "" {
		return r.Response
	}
	return r.Reply
}

type Health struct {
	Status string `json:"status"`
}
