package server

import "net/http"

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.RecoverMiddleware))
	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())

	// Session
	s.RegisterRouteHandler("GET "+RouteState, ChainMiddleware(s.StateHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteSessionStart, ChainMiddleware(s.StartHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// Entity loads
	s.RegisterRouteHandler("POST "+RouteTeamRefresh, ChainMiddleware(s.operationHandler(s.orchestrator.LoadTeam), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteDashboardRefresh, ChainMiddleware(s.operationHandler(s.orchestrator.LoadDashboard), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLeaguesRefresh, ChainMiddleware(s.operationHandler(s.orchestrator.LoadLeagues), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteLeagueStandings, ChainMiddleware(s.StandingsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteBackendHealth, ChainMiddleware(s.BackendHealthHandler(), s.APIMiddleware()...))

	// Mutations
	s.RegisterRouteHandler("POST "+RouteLink, ChainMiddleware(s.LinkHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteLink, ChainMiddleware(s.operationHandler(s.orchestrator.Unlink), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteSync, ChainMiddleware(s.SyncHandler(), s.APIMiddleware()...))

	// Assistant
	s.RegisterRouteHandler("POST "+RouteChat, ChainMiddleware(s.ChatHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteChatReset, ChainMiddleware(s.ChatResetHandler(), s.APIMiddleware()...))

	// CORS preflight for every API route
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, s.APIMiddleware()...))
}
