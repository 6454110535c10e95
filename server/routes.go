package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	s.RegisterRouteHandler("POST "+RouteChat, ChainMiddleware(s.ChatHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteTokenStatus, ChainMiddleware(s.TokenStatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteTokenRefresh, ChainMiddleware(s.TokenRefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteTokenClear, ChainMiddleware(s.TokenClearHandler(), s.APIMiddleware()...))

	// Browser preflight for the widget's cross-origin calls.
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(s.NoContentHandler(), s.APIMiddleware()...))
}
