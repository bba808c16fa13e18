package server

// Route path constants
const (
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// Session
	RouteState        = "/api/state"
	RouteLogin        = "/api/login"
	RouteSessionStart = "/api/session/start"
	RouteLogout       = "/api/logout"

	// Entity loads
	RouteTeamRefresh      = "/api/team/refresh"
	RouteDashboardRefresh = "/api/dashboard/refresh"
	RouteLeaguesRefresh   = "/api/leagues/refresh"
	RouteLeagueStandings  = "/api/leagues/{id}/standings"
	RouteBackendHealth    = "/api/backend/health"

	// Mutations
	RouteLink = "/api/link"
	RouteSync = "/api/sync"

	// Assistant
	RouteChat      = "/api/chat"
	RouteChatReset = "/api/chat/reset"
)
