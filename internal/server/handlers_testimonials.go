package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

type createTestimonialRequest struct {
	Username string `json:"username"`
	Job      string `json:"job"`
	Message  string `json:"message"`
}

// handleTestimonials lists publicly on GET and requires a principal on
// POST, so the gate runs inside the handler rather than on the route.
func (s *Server) handleTestimonials(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		testimonials, err := s.app.Testimonials()
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, testimonials)
	case http.MethodPost:
		principal, err := s.gate.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			s.audit(r, "auth.gate", "fail")
			s.writeServiceError(w, r, err)
			return
		}
		var req createTestimonialRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Job) == "" || strings.TrimSpace(req.Message) == "" {
			writeError(w, http.StatusBadRequest, "username, job and message are required")
			return
		}
		tm, err := s.app.CreateTestimonial(principal, req.Username, req.Job, req.Message)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, tm)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleTestimonialsByUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/api/testimonials/user/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	testimonials, err := s.app.TestimonialsByUser(userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, testimonials)
}
