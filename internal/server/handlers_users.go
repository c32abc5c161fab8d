package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"piringsehat/pkg/domain"
)

type syncUserRequest struct {
	FirebaseUID string `json:"firebase_uid"`
	Email       string `json:"email"`
	Username    string `json:"username"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user, err := s.app.UserByID(p.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/users/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] != "daily-target" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	userID := parts[0]
	switch r.Method {
	case http.MethodGet:
		target, err := s.app.DailyTarget(userID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"target": target})
	case http.MethodPut:
		var req struct {
			Target *int `json:"target"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Target == nil {
			writeError(w, http.StatusBadRequest, "target is required")
			return
		}
		target, err := s.app.SetDailyTarget(userID, *req.Target)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"target": target})
	default:
		methodNotAllowed(w)
	}
}

// handleSyncUser provisions the local record for an identity-provider
// subject. The caller presents the provider UID directly rather than a
// token, so the route is rate limited instead of gated.
func (s *Server) handleSyncUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.syncLimiter, "too many sync attempts, retry later") {
		return
	}
	var req syncUserRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.app.SyncUser(req.FirebaseUID, req.Email, req.Username)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.audit(r, "auth.sync_user", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]any{"id": user.ID})
}
