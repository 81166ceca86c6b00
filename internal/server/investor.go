package server

import (
	"net/http"
	"strconv"

	"github.com/selfmadecero/onevdr/internal/services"
)

func (s *Server) handleListInvestors(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	investors, err := s.investors.List(r.Context(), user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, investors)
}

func (s *Server) handleCreateInvestor(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var payload services.CreateInvestorPayload
	if err := s.decode(r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	investor, err := s.investors.Create(r.Context(), user, &payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusCreated, investor)
}

func (s *Server) handleGetInvestor(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	investor, err := s.investors.Get(r.Context(), user, s.mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, investor)
}

func (s *Server) handleUpdateInvestor(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var payload services.UpdateInvestorPayload
	if err := s.decode(r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	investor, err := s.investors.Update(r.Context(), user, s.mux.Vars(r)["id"], &payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, investor)
}

func (s *Server) handleDeleteInvestor(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := s.investors.Delete(r.Context(), user, s.mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, &services.MessageResult{Message: "investor deleted"})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	investor, err := s.investors.Advance(r.Context(), user, s.mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, investor)
}

func (s *Server) handleRetreat(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	investor, err := s.investors.Retreat(r.Context(), user, s.mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, investor)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := s.decode(r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	investor, err := s.investors.SetStatus(r.Context(), user, s.mux.Vars(r)["id"], payload.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, investor)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := s.decode(r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	investor, err := s.investors.AddComment(r.Context(), user, s.mux.Vars(r)["id"], payload.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusCreated, investor)
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	commentID, ok := s.commentID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := s.decode(r, &payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	investor, err := s.investors.UpdateComment(r.Context(), user, s.mux.Vars(r)["id"], commentID, payload.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, investor)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	commentID, ok := s.commentID(w, r)
	if !ok {
		return
	}

	investor, err := s.investors.DeleteComment(r.Context(), user, s.mux.Vars(r)["id"], commentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, investor)
}

func (s *Server) handleDataRoomStats(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	stats, err := s.dataRoom.Stats(r.Context(), user, s.mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, stats)
}

func (s *Server) handleInvestorInsights(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	investor, err := s.investors.Get(r.Context(), user, s.mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.insights.ForInvestor(r.Context(), user, investor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, result)
}

func (s *Server) handlePipelineInsights(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	investors, err := s.investors.List(r.Context(), user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	summary, err := s.insights.Pipeline(r.Context(), user, investors)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, summary)
}

func (s *Server) commentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := s.mux.Vars(r)["commentID"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.writeError(w, r, services.NewBadRequestError("invalid comment id"))
		return 0, false
	}
	return id, true
}
