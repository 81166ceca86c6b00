package server

import (
	"net/http"
	"strings"

	"github.com/selfmadecero/onevdr/internal/domain"
	"github.com/selfmadecero/onevdr/internal/services"
)

// authenticated wraps a handler with bearer-token authentication. The
// resolved user is stored on the request context for the handler.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		user, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		next(w, r.WithContext(services.WithUser(r.Context(), user)))
	}
}

// adminOnly authenticates and additionally requires the admin flag
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request) {
		user, ok := services.CurrentUser(r.Context())
		if !ok || !user.IsAdmin {
			s.writeError(w, r, services.NewForbiddenError("admin access required"))
			return
		}
		next(w, r)
	})
}

// requireUser fetches the authenticated user from the context, writing the
// error response itself when absent.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := services.CurrentUser(r.Context())
	if !ok {
		s.writeError(w, r, services.NewUnauthorizedError("authentication required"))
	}
	return user, ok
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", services.NewUnauthorizedError("authorization header required")
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", services.NewUnauthorizedError("invalid authorization header format")
	}

	return parts[1], nil
}
