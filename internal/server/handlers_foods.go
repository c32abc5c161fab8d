package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"piringsehat/pkg/domain"
)

type createFoodRequest struct {
	Name         string   `json:"name"`
	Calories     *float64 `json:"calories"`
	Proteins     float64  `json:"proteins"`
	Carbohydrate float64  `json:"carbohydrate"`
	Fat          float64  `json:"fat"`
	ImageURL     string   `json:"image_url"`
}

func (s *Server) handleFoodSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	foods, err := s.app.SearchFoods(r.URL.Query().Get("query"), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": foods})
}

func (s *Server) handleFoodFirst(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	food, err := s.app.FirstFood(query)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": food})
}

func (s *Server) handleFoodList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	foods, err := s.app.ListFoods()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": foods, "count": len(foods)})
}

func (s *Server) handleFoods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.foodLimiter, "too many food submissions, retry later") {
		return
	}
	var req createFoodRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Calories == nil {
		writeError(w, http.StatusBadRequest, "calories is required")
		return
	}
	food, err := s.app.CreateFood(domain.Food{
		Name:     req.Name,
		Calories: *req.Calories,
		Protein:  req.Proteins,
		Carbs:    req.Carbohydrate,
		Fat:      req.Fat,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": food})
}

// handleFoodByID serves the /api/foods/{id}/image upload; there is no
// by-id read on the catalog, so anything else under the subtree is a 404.
func (s *Server) handleFoodByID(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/foods/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] != "image" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.handleFoodImageUpload(w, r, parts[0])
}

func (s *Server) handleFoodImageUpload(w http.ResponseWriter, r *http.Request, foodID string) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "image exceeds the upload size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "expected multipart form data")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := s.allowedExtensions[ext]; !ok {
		writeError(w, http.StatusBadRequest, "unsupported image type")
		return
	}
	food, err := s.app.AttachFoodImage(r.Context(), foodID, header.Filename, file, header.Size)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": food})
}
