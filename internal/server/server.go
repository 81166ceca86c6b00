package server

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/selfmadecero/onevdr/internal/feed"
	"github.com/selfmadecero/onevdr/internal/services"
	goahttp "goa.design/goa/v3/http"
	"goa.design/goa/v3/http/middleware"
)

// Server mounts the API handlers on a goa muxer. The generated transport
// layer is not committed, so routes are registered by hand and payloads go
// through goa's request decoder and response encoder directly.
type Server struct {
	mux       goahttp.ResolverMuxer
	auth      *services.AuthService
	investors *services.InvestorService
	insights  *services.InsightsService
	dataRoom  *services.DataRoomService
	health    *services.HealthService
	hub       *feed.Hub
}

// New creates a new server around the muxer and service set
func New(
	mux goahttp.ResolverMuxer,
	auth *services.AuthService,
	investors *services.InvestorService,
	insights *services.InsightsService,
	dataRoom *services.DataRoomService,
	health *services.HealthService,
	hub *feed.Hub,
) *Server {
	return &Server{
		mux:       mux,
		auth:      auth,
		investors: investors,
		insights:  insights,
		dataRoom:  dataRoom,
		health:    health,
		hub:       hub,
	}
}

// Mount registers every route on the muxer
func (s *Server) Mount() {
	s.mux.Use(middleware.RequestID())
	s.mux.Use(middleware.PopulateRequestContext())

	s.mux.Handle("GET", "/health", s.handleHealth)

	s.mux.Handle("POST", "/api/v1/auth/login", s.handleLogin)
	s.mux.Handle("POST", "/api/v1/auth/logout", s.authenticated(s.handleLogout))
	s.mux.Handle("GET", "/api/v1/auth/me", s.authenticated(s.handleMe))
	s.mux.Handle("POST", "/api/v1/auth/users", s.adminOnly(s.handleCreateUser))
	s.mux.Handle("GET", "/api/v1/auth/users", s.adminOnly(s.handleListUsers))
	s.mux.Handle("GET", "/api/v1/auth/users/{id}", s.adminOnly(s.handleGetUser))
	s.mux.Handle("PUT", "/api/v1/auth/users/{id}", s.adminOnly(s.handleUpdateUser))
	s.mux.Handle("DELETE", "/api/v1/auth/users/{id}", s.adminOnly(s.handleDeleteUser))

	s.mux.Handle("GET", "/api/v1/investors", s.authenticated(s.handleListInvestors))
	s.mux.Handle("POST", "/api/v1/investors", s.authenticated(s.handleCreateInvestor))
	s.mux.Handle("GET", "/api/v1/investors/feed", s.authenticated(s.handleFeed))
	s.mux.Handle("GET", "/api/v1/investors/insights", s.authenticated(s.handlePipelineInsights))
	s.mux.Handle("GET", "/api/v1/investors/{id}", s.authenticated(s.handleGetInvestor))
	s.mux.Handle("PUT", "/api/v1/investors/{id}", s.authenticated(s.handleUpdateInvestor))
	s.mux.Handle("DELETE", "/api/v1/investors/{id}", s.authenticated(s.handleDeleteInvestor))
	s.mux.Handle("POST", "/api/v1/investors/{id}/advance", s.authenticated(s.handleAdvance))
	s.mux.Handle("POST", "/api/v1/investors/{id}/retreat", s.authenticated(s.handleRetreat))
	s.mux.Handle("PATCH", "/api/v1/investors/{id}/status", s.authenticated(s.handleSetStatus))
	s.mux.Handle("POST", "/api/v1/investors/{id}/comments", s.authenticated(s.handleAddComment))
	s.mux.Handle("PUT", "/api/v1/investors/{id}/comments/{commentID}", s.authenticated(s.handleUpdateComment))
	s.mux.Handle("DELETE", "/api/v1/investors/{id}/comments/{commentID}", s.authenticated(s.handleDeleteComment))
	s.mux.Handle("GET", "/api/v1/investors/{id}/data-room", s.authenticated(s.handleDataRoomStats))
	s.mux.Handle("GET", "/api/v1/investors/{id}/insights", s.authenticated(s.handleInvestorInsights))
}

// Handler returns the mounted muxer as an http.Handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	result, err := s.health.Check(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if result.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	s.respond(w, r, status, result)
}

func (s *Server) decode(r *http.Request, v interface{}) error {
	if err := goahttp.RequestDecoder(r).Decode(v); err != nil {
		return services.NewBadRequestError("invalid request body")
	}
	return nil
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	ctx := context.WithValue(r.Context(), goahttp.AcceptTypeKey, r.Header.Get("Accept"))
	enc := goahttp.ResponseEncoder(ctx, w)
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := enc.Encode(body); err != nil {
		log.Printf("[SERVER] Response encoding failed: %v", err)
	}
}

// writeError maps a service error to its HTTP status and a {"message": ...}
// body. Internal causes are logged, never echoed to callers.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		message = svcErr.Message
		switch svcErr.Type {
		case services.ErrTypeBadRequest:
			status = http.StatusBadRequest
		case services.ErrTypeUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrTypeForbidden:
			status = http.StatusForbidden
		case services.ErrTypeNotFound:
			status = http.StatusNotFound
		}
	}

	if status == http.StatusInternalServerError {
		log.Printf("[SERVER] %s %s failed: %v", r.Method, r.URL.Path, err)
	}
	s.respond(w, r, status, &services.MessageResult{Message: message})
}
