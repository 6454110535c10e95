package server

// Route path constants
const (
	RouteChat         = "/api/chat"
	RouteTokenStatus  = "/api/token/status"
	RouteTokenRefresh = "/api/token/refresh"
	RouteTokenClear   = "/api/token/clear"
	RouteHealth       = "/healthz"
)
