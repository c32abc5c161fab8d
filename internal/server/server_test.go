package server

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	jwt "github.com/golang-jwt/jwt/v5"

	"piringsehat/internal/app"
	"piringsehat/internal/auth"
	"piringsehat/internal/idtoken"
	"piringsehat/internal/storage"
	"piringsehat/internal/store"
	"piringsehat/pkg/domain"
)

const (
	testIssuer   = "identity-provider"
	testAudience = "piring-sehat"
)

type testEnv struct {
	ts    *httptest.Server
	store *store.MemoryStore
	key   *rsa.PrivateKey
}

type envSettings struct {
	foodCreateLimit int
	syncLimit       int
	objects         storage.ObjectStore
}

type envOption func(*envSettings)

func withFoodCreateLimit(n int) envOption {
	return func(s *envSettings) { s.foodCreateLimit = n }
}

func withSyncLimit(n int) envOption {
	return func(s *envSettings) { s.syncLimit = n }
}

func withObjects(o storage.ObjectStore) envOption {
	return func(s *envSettings) { s.objects = o }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	jwksServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jwk := map[string]string{
			"kty": "RSA",
			"kid": "kid-1",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{jwk}})
	}))
	t.Cleanup(jwksServer.Close)

	verifier, err := idtoken.NewVerifier(idtoken.Config{
		JWKSURL:  jwksServer.URL,
		Issuer:   testIssuer,
		Audience: testAudience,
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	settings := envSettings{foodCreateLimit: 1000, syncLimit: 1000}
	for _, opt := range opts {
		opt(&settings)
	}

	mr := miniredis.RunT(t)
	memStore := store.NewMemoryStore()
	appCore, err := app.New(app.Config{Store: memStore, Objects: settings.objects})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	srv, err := New(Config{
		App:                          appCore,
		Gate:                         auth.NewGate(verifier, memStore),
		RedisAddr:                    mr.Addr(),
		SyncRateLimitPerMinute:       settings.syncLimit,
		FoodCreateRateLimitPerMinute: settings.foodCreateLimit,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, store: memStore, key: key}
}

// seedUser provisions a user row directly in the store and returns a
// signed bearer token for its subject.
func (e *testEnv) seedUser(t *testing.T, id, subject string, role domain.UserRole) string {
	t.Helper()
	now := time.Now().UTC()
	_, err := e.store.UpsertUserBySubject(domain.User{
		ID:        id,
		SubjectID: subject,
		Email:     id + "@example.com",
		Username:  id,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return e.token(t, subject)
}

func (e *testEnv) token(t *testing.T, subject string) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    testIssuer,
		Audience:  jwt.ClaimStrings{testAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-time.Second)),
	})
	token.Header["kid"] = "kid-1"
	signed, err := token.SignedString(e.key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// doJSON issues a request and decodes the JSON response body, when any.
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return resp.StatusCode, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// Some endpoints return bare arrays; stash them under "data".
		var list []any
		if err := json.Unmarshal(raw, &list); err != nil {
			t.Fatalf("decode body %q: %v", raw, err)
		}
		decoded = map[string]any{"data": list}
	}
	return resp.StatusCode, decoded
}

func dataObject(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	obj, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("data object missing in %v", body)
	}
	return obj
}

func dataList(t *testing.T, body map[string]any) []any {
	t.Helper()
	list, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("data list missing in %v", body)
	}
	return list
}
