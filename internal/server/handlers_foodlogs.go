package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"piringsehat/pkg/domain"
)

type createFoodLogRequest struct {
	UserID   string   `json:"userId"`
	Date     string   `json:"date"`
	FoodName string   `json:"foodName"`
	Calories *float64 `json:"calories"`
	FoodID   string   `json:"foodId"`
}

func (s *Server) handleFoodLogs(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	switch r.Method {
	case http.MethodGet:
		userID := r.URL.Query().Get("userId")
		date := r.URL.Query().Get("date")
		if userID == "" || date == "" {
			writeError(w, http.StatusBadRequest, "userId and date are required")
			return
		}
		if !validDate(date) {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		logs, err := s.app.FoodLogs(userID, date)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": logs})
	case http.MethodPost:
		var req createFoodLogRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.UserID == "" || req.Date == "" || strings.TrimSpace(req.FoodName) == "" {
			writeError(w, http.StatusBadRequest, "userId, date and foodName are required")
			return
		}
		if !validDate(req.Date) {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		if req.Calories == nil || *req.Calories < 0 {
			writeError(w, http.StatusBadRequest, "calories must be a non-negative number")
			return
		}
		log, err := s.app.CreateFoodLog(domain.FoodLog{
			UserID:         req.UserID,
			Date:           req.Date,
			FoodNameCustom: req.FoodName,
			Calories:       *req.Calories,
			FoodID:         req.FoodID,
		})
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"data": log})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleFoodLogSubroutes(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/food-logs/")
	switch rest {
	case "summary/month":
		s.handleCalorieSummary(w, r)
	case "summary/nutrition":
		s.handleNutritionSummary(w, r)
	default:
		if strings.Contains(rest, "/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if rest == "" {
			writeError(w, http.StatusBadRequest, "food log id is required")
			return
		}
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		if err := s.app.DeleteFoodLog(rest); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleCalorieSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	userID, start, end := q.Get("userId"), q.Get("startDate"), q.Get("endDate")
	if userID == "" || start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "userId, startDate and endDate are required")
		return
	}
	if !validDate(start) || !validDate(end) {
		writeError(w, http.StatusBadRequest, "dates must be YYYY-MM-DD")
		return
	}
	total, err := s.app.CalorieTotal(userID, start, end)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total})
}

func (s *Server) handleNutritionSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	userID, date := q.Get("userId"), q.Get("date")
	if userID == "" || date == "" {
		writeError(w, http.StatusBadRequest, "userId and date are required")
		return
	}
	if !validDate(date) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	totals, err := s.app.NutritionSummary(userID, date)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": totals})
}
