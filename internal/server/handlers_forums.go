package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"piringsehat/pkg/domain"
)

func (s *Server) handleForums(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	switch r.Method {
	case http.MethodGet:
		forums, err := s.app.Forums()
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": forums})
	case http.MethodPost:
		var req struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
			writeError(w, http.StatusBadRequest, "title and content are required")
			return
		}
		forum, err := s.app.CreateForum(p, req.Title, req.Content)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"data": forum})
	default:
		methodNotAllowed(w)
	}
}

// handleForumSubroutes dispatches /api/forums/{id}, /api/forums/{id}/comments
// and /api/forums/comments/{commentId}.
func (s *Server) handleForumSubroutes(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/forums/")
	if commentID, ok := strings.CutPrefix(rest, "comments/"); ok {
		if commentID == "" || strings.Contains(commentID, "/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		s.handleCommentByID(w, r, p, commentID)
		return
	}
	parts := strings.SplitN(rest, "/", 2)
	forumID := parts[0]
	if forumID == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if len(parts) == 1 {
		s.handleForumByID(w, r, p, forumID)
		return
	}
	if parts[1] != "comments" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.handleForumComments(w, r, p, forumID)
}

func (s *Server) handleForumByID(w http.ResponseWriter, r *http.Request, p domain.Principal, forumID string) {
	switch r.Method {
	case http.MethodGet:
		forum, err := s.app.Forum(forumID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": forum})
	case http.MethodPut:
		var req struct {
			Title   *string `json:"title"`
			Content *string `json:"content"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Title == nil && req.Content == nil {
			writeError(w, http.StatusBadRequest, "title or content is required")
			return
		}
		forum, err := s.app.UpdateForum(p, forumID, req.Title, req.Content)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": forum})
	case http.MethodDelete:
		if err := s.app.DeleteForum(p, forumID); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleForumComments(w http.ResponseWriter, r *http.Request, p domain.Principal, forumID string) {
	switch r.Method {
	case http.MethodGet:
		comments, err := s.app.Comments(forumID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": comments})
	case http.MethodPost:
		var req struct {
			Content         string `json:"content"`
			ParentCommentID string `json:"parentCommentId"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			writeError(w, http.StatusBadRequest, "content is required")
			return
		}
		comment, err := s.app.CreateComment(p, forumID, req.Content, req.ParentCommentID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"data": comment})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCommentByID(w http.ResponseWriter, r *http.Request, p domain.Principal, commentID string) {
	switch r.Method {
	case http.MethodPut:
		var req struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			writeError(w, http.StatusBadRequest, "content is required")
			return
		}
		comment, err := s.app.UpdateComment(p, commentID, req.Content)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": comment})
	case http.MethodDelete:
		if err := s.app.DeleteComment(p, commentID); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}
