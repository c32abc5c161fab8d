package server

import (
	"net/http"
	"testing"

	"piringsehat/pkg/domain"
)

func TestFoodLogRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "u1", "sub-1", domain.RoleUser)

	status, body := env.doJSON(t, http.MethodPost, "/api/food-logs", token, map[string]any{
		"userId":   "u1",
		"date":     "2024-05-01",
		"foodName": "Rice",
		"calories": 200,
	})
	if status != http.StatusCreated {
		t.Fatalf("create status = %d %v, want 201", status, body)
	}
	created := dataObject(t, body)
	logID, _ := created["id"].(string)
	if logID == "" {
		t.Fatalf("created log has no id: %v", created)
	}

	status, body = env.doJSON(t, http.MethodGet, "/api/food-logs?userId=u1&date=2024-05-01", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d, want 200", status)
	}
	logs := dataList(t, body)
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}
	entry := logs[0].(map[string]any)
	if entry["food_name_custom"] != "Rice" || entry["calories"] != float64(200) {
		t.Fatalf("unexpected entry: %v", entry)
	}

	// Another date stays empty.
	status, body = env.doJSON(t, http.MethodGet, "/api/food-logs?userId=u1&date=2024-05-02", token, nil)
	if status != http.StatusOK || len(dataList(t, body)) != 0 {
		t.Fatalf("expected empty list for other date, got %d %v", status, body)
	}

	status, _ = env.doJSON(t, http.MethodDelete, "/api/food-logs/"+logID, token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", status)
	}
	// Deleting again is a no-op, not an error.
	status, _ = env.doJSON(t, http.MethodDelete, "/api/food-logs/"+logID, token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("repeat delete status = %d, want 204", status)
	}
}

func TestFoodLogValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "u1", "sub-1", domain.RoleUser)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing foodName", map[string]any{"userId": "u1", "date": "2024-05-01", "calories": 100}},
		{"missing calories", map[string]any{"userId": "u1", "date": "2024-05-01", "foodName": "Rice"}},
		{"negative calories", map[string]any{"userId": "u1", "date": "2024-05-01", "foodName": "Rice", "calories": -1}},
		{"bad date", map[string]any{"userId": "u1", "date": "May 1st", "foodName": "Rice", "calories": 100}},
	}
	for _, tc := range cases {
		status, _ := env.doJSON(t, http.MethodPost, "/api/food-logs", token, tc.body)
		if status != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", tc.name, status)
		}
	}

	status, _ := env.doJSON(t, http.MethodGet, "/api/food-logs?userId=u1", token, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("list without date: status = %d, want 400", status)
	}
}

func TestCalorieAndNutritionSummaries(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "u1", "sub-1", domain.RoleUser)

	// Catalog food carries the macro profile used by the nutrition summary.
	status, body := env.doJSON(t, http.MethodPost, "/api/foods", "", map[string]any{
		"name": "Tempeh", "calories": 190, "proteins": 19, "carbohydrate": 9, "fat": 11,
	})
	if status != http.StatusCreated {
		t.Fatalf("create food status = %d %v", status, body)
	}
	foodID := dataObject(t, body)["id"].(string)

	logs := []map[string]any{
		{"userId": "u1", "date": "2024-05-01", "foodName": "Tempeh", "calories": 190, "foodId": foodID},
		{"userId": "u1", "date": "2024-05-02", "foodName": "Snack", "calories": 110},
		{"userId": "u1", "date": "2024-06-01", "foodName": "Out of range", "calories": 500},
	}
	for _, l := range logs {
		if status, _ := env.doJSON(t, http.MethodPost, "/api/food-logs", token, l); status != http.StatusCreated {
			t.Fatalf("create log %v: status = %d", l, status)
		}
	}

	status, body = env.doJSON(t, http.MethodGet, "/api/food-logs/summary/month?userId=u1&startDate=2024-05-01&endDate=2024-05-31", token, nil)
	if status != http.StatusOK {
		t.Fatalf("month summary status = %d", status)
	}
	if body["total"] != float64(300) {
		t.Fatalf("total = %v, want 300", body["total"])
	}

	status, body = env.doJSON(t, http.MethodGet, "/api/food-logs/summary/nutrition?userId=u1&date=2024-05-01", token, nil)
	if status != http.StatusOK {
		t.Fatalf("nutrition summary status = %d", status)
	}
	totals := dataObject(t, body)
	if totals["protein"] != float64(19) || totals["carbs"] != float64(9) || totals["fat"] != float64(11) {
		t.Fatalf("unexpected totals: %v", totals)
	}

	// Entries without a catalog food contribute nothing to the macros.
	status, body = env.doJSON(t, http.MethodGet, "/api/food-logs/summary/nutrition?userId=u1&date=2024-05-02", token, nil)
	if status != http.StatusOK {
		t.Fatalf("nutrition summary status = %d", status)
	}
	totals = dataObject(t, body)
	if totals["protein"] != float64(0) {
		t.Fatalf("protein = %v, want 0", totals["protein"])
	}
}
