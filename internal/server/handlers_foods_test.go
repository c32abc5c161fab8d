package server

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"piringsehat/pkg/domain"
)

func createFood(t *testing.T, env *testEnv, name string, calories float64) map[string]any {
	t.Helper()
	status, body := env.doJSON(t, http.MethodPost, "/api/foods", "", map[string]any{
		"name": name, "calories": calories, "proteins": 1, "carbohydrate": 2, "fat": 3,
	})
	if status != http.StatusCreated {
		t.Fatalf("create food %q: status = %d %v", name, status, body)
	}
	return dataObject(t, body)
}

func TestFoodSearchAndFirst(t *testing.T) {
	env := newTestEnv(t)
	createFood(t, env, "Nasi Goreng", 450)
	createFood(t, env, "Nasi Uduk", 400)
	createFood(t, env, "Gado-Gado", 350)

	status, body := env.doJSON(t, http.MethodGet, "/api/foods/search?query=nasi", "", nil)
	if status != http.StatusOK {
		t.Fatalf("search status = %d", status)
	}
	foods := dataList(t, body)
	if len(foods) != 2 {
		t.Fatalf("got %d matches, want 2", len(foods))
	}
	// Name-ordered.
	if foods[0].(map[string]any)["name"] != "Nasi Goreng" {
		t.Fatalf("unexpected order: %v", foods)
	}

	// Empty query returns everything, subject to the default limit.
	status, body = env.doJSON(t, http.MethodGet, "/api/foods/search", "", nil)
	if status != http.StatusOK || len(dataList(t, body)) != 3 {
		t.Fatalf("unfiltered search = %d %v", status, body)
	}

	status, body = env.doJSON(t, http.MethodGet, "/api/foods/search?query=nasi&limit=1", "", nil)
	if status != http.StatusOK || len(dataList(t, body)) != 1 {
		t.Fatalf("limited search = %d %v", status, body)
	}

	status, body = env.doJSON(t, http.MethodGet, "/api/foods/first?query=gado", "", nil)
	if status != http.StatusOK {
		t.Fatalf("first status = %d", status)
	}
	if dataObject(t, body)["name"] != "Gado-Gado" {
		t.Fatalf("unexpected first match: %v", body)
	}

	status, _ = env.doJSON(t, http.MethodGet, "/api/foods/first?query=zzz", "", nil)
	if status != http.StatusNotFound {
		t.Fatalf("first miss status = %d, want 404", status)
	}

	status, _ = env.doJSON(t, http.MethodGet, "/api/foods/first", "", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("first without query status = %d, want 400", status)
	}
}

func TestFoodListAll(t *testing.T) {
	env := newTestEnv(t)
	createFood(t, env, "Tahu", 80)
	createFood(t, env, "Tempeh", 190)

	status, body := env.doJSON(t, http.MethodGet, "/api/foods/all", "", nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	if body["count"] != float64(2) || len(dataList(t, body)) != 2 {
		t.Fatalf("unexpected list body: %v", body)
	}
}

func TestFoodCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.doJSON(t, http.MethodPost, "/api/foods", "", map[string]any{"calories": 100})
	if status != http.StatusBadRequest {
		t.Fatalf("missing name: status = %d, want 400", status)
	}
	status, _ = env.doJSON(t, http.MethodPost, "/api/foods", "", map[string]any{"name": "Bad"})
	if status != http.StatusBadRequest {
		t.Fatalf("missing calories: status = %d, want 400", status)
	}
	status, _ = env.doJSON(t, http.MethodPost, "/api/foods", "", map[string]any{"name": "Bad", "calories": -10})
	if status != http.StatusBadRequest {
		t.Fatalf("negative calories: status = %d, want 400", status)
	}
}

func TestFoodCreateRateLimit(t *testing.T) {
	env := newTestEnv(t, withFoodCreateLimit(2))
	createFood(t, env, "One", 1)
	createFood(t, env, "Two", 2)
	status, _ := env.doJSON(t, http.MethodPost, "/api/foods", "", map[string]any{"name": "Three", "calories": 3})
	if status != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", status)
	}
}

// fakeObjects records uploads in memory so the image route can be
// exercised without MinIO.
type fakeObjects struct {
	objects map[string][]byte
}

func (f *fakeObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[key] = data
	return nil
}

func (f *fakeObjects) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.example.com/" + key, nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func TestFoodImageUpload(t *testing.T) {
	env := newTestEnv(t, withObjects(&fakeObjects{}))
	token := env.seedUser(t, "u1", "sub-1", domain.RoleUser)
	food := createFood(t, env, "Sate", 300)
	foodID := food["id"].(string)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "sate.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("jpeg-bytes"))
	_ = mw.Close()

	req, err := http.NewRequest(http.MethodPost, env.ts.URL+"/api/foods/"+foodID+"/image", &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("upload status = %d, body %s", resp.StatusCode, raw)
	}

	stored, found, err := env.store.GetFood(foodID)
	if err != nil || !found {
		t.Fatalf("food lookup after upload: found=%v err=%v", found, err)
	}
	if !strings.HasPrefix(stored.ImageURL, "https://objects.example.com/foods/"+foodID+"/") {
		t.Fatalf("image url = %q", stored.ImageURL)
	}
}

func TestFoodImageUploadRejectsBadExtension(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "u1", "sub-1", domain.RoleUser)
	food := createFood(t, env, "Sate", 300)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("image", "payload.exe")
	_, _ = part.Write([]byte("nope"))
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, env.ts.URL+"/api/foods/"+food["id"].(string)+"/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
