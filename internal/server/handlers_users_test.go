package server

import (
	"net/http"
	"testing"

	"piringsehat/pkg/domain"
)

func TestSyncUserProvisionsOnce(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.doJSON(t, http.MethodPost, "/api/auth/sync-user", "", map[string]any{
		"firebase_uid": "sub-1", "email": "ina@example.com", "username": "ina",
	})
	if status != http.StatusOK {
		t.Fatalf("sync status = %d %v", status, body)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("sync returned no id: %v", body)
	}

	// A repeat sync refreshes the record instead of creating a second one.
	status, body = env.doJSON(t, http.MethodPost, "/api/auth/sync-user", "", map[string]any{
		"firebase_uid": "sub-1", "email": "ina@newmail.com",
	})
	if status != http.StatusOK || body["id"] != id {
		t.Fatalf("repeat sync = %d %v, want same id %s", status, body, id)
	}
	user, found, err := env.store.GetUserBySubject("sub-1")
	if err != nil || !found {
		t.Fatalf("user lookup: found=%v err=%v", found, err)
	}
	if user.Email != "ina@newmail.com" || user.Username != "ina" {
		t.Fatalf("merge result = %+v", user)
	}

	status, _ = env.doJSON(t, http.MethodPost, "/api/auth/sync-user", "", map[string]any{"email": "no-uid@example.com"})
	if status != http.StatusBadRequest {
		t.Fatalf("missing uid status = %d, want 400", status)
	}
}

func TestSyncUserRateLimit(t *testing.T) {
	env := newTestEnv(t, withSyncLimit(1))
	body := map[string]any{"firebase_uid": "sub-1"}
	if status, _ := env.doJSON(t, http.MethodPost, "/api/auth/sync-user", "", body); status != http.StatusOK {
		t.Fatalf("first sync status = %d, want 200", status)
	}
	if status, _ := env.doJSON(t, http.MethodPost, "/api/auth/sync-user", "", body); status != http.StatusTooManyRequests {
		t.Fatalf("second sync status = %d, want 429", status)
	}
}

func TestDailyTargetRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "u1", "sub-1", domain.RoleUser)

	// Unset target reads as zero.
	status, body := env.doJSON(t, http.MethodGet, "/api/users/u1/daily-target", token, nil)
	if status != http.StatusOK || body["target"] != float64(0) {
		t.Fatalf("unset target = %d %v", status, body)
	}

	status, body = env.doJSON(t, http.MethodPut, "/api/users/u1/daily-target", token, map[string]any{"target": 2100})
	if status != http.StatusOK || body["target"] != float64(2100) {
		t.Fatalf("set target = %d %v", status, body)
	}

	status, body = env.doJSON(t, http.MethodGet, "/api/users/u1/daily-target", token, nil)
	if status != http.StatusOK || body["target"] != float64(2100) {
		t.Fatalf("read back = %d %v", status, body)
	}

	status, _ = env.doJSON(t, http.MethodPut, "/api/users/u1/daily-target", token, map[string]any{"target": 0})
	if status != http.StatusBadRequest {
		t.Fatalf("zero target status = %d, want 400", status)
	}
	status, _ = env.doJSON(t, http.MethodPut, "/api/users/u1/daily-target", token, map[string]any{})
	if status != http.StatusBadRequest {
		t.Fatalf("missing target status = %d, want 400", status)
	}

	status, _ = env.doJSON(t, http.MethodPut, "/api/users/missing/daily-target", token, map[string]any{"target": 1800})
	if status != http.StatusNotFound {
		t.Fatalf("unknown user status = %d, want 404", status)
	}
}
