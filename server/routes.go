package server

import "net/http"

// Routes builds the full handler tree, wrapped in the request-logging
// and CORS middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)

	mux.HandleFunc("GET /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/callback", s.handleCallback)
	mux.HandleFunc("GET /auth/session", s.handleSession)
	mux.HandleFunc("GET /auth/check", s.handleCheck)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("POST /auth/refresh-profile", s.handleRefreshProfile)

	mux.HandleFunc("POST /statuses", s.handlePostStatus)
	mux.HandleFunc("GET /statuses", s.handleListStatuses)
	mux.HandleFunc("POST /statuses/verify", s.handleVerifyStatus)

	return s.withRequestLog(s.withCORS(mux))
}
