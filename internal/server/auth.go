package server

import (
	"net/http"
	"strconv"

	"github.com/selfmadecero/onevdr/internal/services"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload services.LoginPayload
	if err := s.decode(r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.auth.Login(r.Context(), &payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, result)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	result, err := s.auth.Logout(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, result)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	result, err := s.auth.Me(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, result)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload services.CreateUserPayload
	if err := s.decode(r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.auth.CreateUser(r.Context(), &payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusCreated, result)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	skip, _ := strconv.Atoi(query.Get("skip"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	results, err := s.auth.ListUsers(r.Context(), skip, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, results)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}

	result, err := s.auth.GetUser(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, result)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}

	var payload services.UpdateUserPayload
	if err := s.decode(r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}
	payload.ID = id

	result, err := s.auth.UpdateUser(r.Context(), &payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, result)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}

	if err := s.auth.DeleteUser(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, &services.MessageResult{Message: "user deleted"})
}

func (s *Server) userID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := s.mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		s.writeError(w, r, services.NewBadRequestError("invalid user id"))
		return 0, false
	}
	return uint(id), true
}
