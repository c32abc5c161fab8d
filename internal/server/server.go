package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"piringsehat/internal/app"
	"piringsehat/internal/auth"
	"piringsehat/internal/ratelimit"
	"piringsehat/internal/util"
	"piringsehat/pkg/domain"
)

const dateLayout = "2006-01-02"

// Config wires required dependencies for the HTTP server.
type Config struct {
	App  *app.App
	Gate *auth.Gate

	RedisAddr                    string
	RedisPassword                string
	SyncRateLimitPerMinute       int
	FoodCreateRateLimitPerMinute int

	MaxUploadBytes         int64
	AllowedImageExtensions []string
	TrustedProxies         *util.TrustedProxies
}

// Server exposes the HTTP endpoints of the API.
type Server struct {
	app  *app.App
	gate *auth.Gate
	mux  *http.ServeMux

	maxUploadBytes    int64
	allowedExtensions map[string]struct{}
	trustedProxies    *util.TrustedProxies

	syncLimiter *ratelimit.FixedWindowLimiter
	foodLimiter *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured. The public write
// routes are rate limited through Redis so replicas share one quota.
func New(cfg Config) (*Server, error) {
	syncLimit := cfg.SyncRateLimitPerMinute
	if syncLimit <= 0 {
		syncLimit = 20
	}
	foodLimit := cfg.FoodCreateRateLimitPerMinute
	if foodLimit <= 0 {
		foodLimit = 10
	}
	rateWindow := time.Minute
	newLimiter := func(name string, limit int) (*ratelimit.FixedWindowLimiter, error) {
		prefix := "piringsehat:api:ratelimit:" + name
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, prefix, limit, rateWindow)
		if err != nil {
			return nil, fmt.Errorf("init %s limiter: %w", name, err)
		}
		return limiter, nil
	}
	syncLimiter, err := newLimiter("sync-user", syncLimit)
	if err != nil {
		return nil, err
	}
	foodLimiter, err := newLimiter("food-create", foodLimit)
	if err != nil {
		return nil, err
	}
	s := &Server{
		app:               cfg.App,
		gate:              cfg.Gate,
		mux:               http.NewServeMux(),
		maxUploadBytes:    normalizeMaxBytes(cfg.MaxUploadBytes),
		allowedExtensions: normalizeExtensions(cfg.AllowedImageExtensions),
		trustedProxies:    cfg.TrustedProxies,
		syncLimiter:       syncLimiter,
		foodLimiter:       foodLimiter,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("api", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	// "/" doubles as the process-wide fallback: anything the mux cannot
	// match lands here and still gets a JSON error body.
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/test", s.handleTest)

	// food logs (auth required)
	s.mux.Handle("/api/food-logs", s.authenticated(s.handleFoodLogs))
	s.mux.Handle("/api/food-logs/", s.authenticated(s.handleFoodLogSubroutes))

	// food catalog (public reads and create; image upload needs auth)
	s.mux.HandleFunc("/api/foods/search", s.handleFoodSearch)
	s.mux.HandleFunc("/api/foods/first", s.handleFoodFirst)
	s.mux.HandleFunc("/api/foods/all", s.handleFoodList)
	s.mux.HandleFunc("/api/foods", s.handleFoods)
	s.mux.Handle("/api/foods/", s.authenticated(s.handleFoodByID))

	// users
	s.mux.Handle("/api/users/me", s.authenticated(s.handleMe))
	s.mux.Handle("/api/users/", s.authenticated(s.handleUserByID))
	s.mux.HandleFunc("/api/auth/sync-user", s.handleSyncUser)

	// forums (auth required)
	s.mux.Handle("/api/forums", s.authenticated(s.handleForums))
	s.mux.Handle("/api/forums/", s.authenticated(s.handleForumSubroutes))

	// testimonials (public reads, authenticated create)
	s.mux.HandleFunc("/api/testimonials", s.handleTestimonials)
	s.mux.HandleFunc("/api/testimonials/user/", s.handleTestimonialsByUser)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Piring Sehat API is running"))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTest is the debug endpoint; it is the only place where error
// detail text is included in a response body.
func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	resp := map[string]any{"message": "api is reachable"}
	if err := s.app.Ping(); err != nil {
		resp["message"] = "api is reachable, data store is not"
		resp["details"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// principalHandler receives the principal resolved by the auth gate as an
// explicit parameter; nothing is smuggled through request mutation.
type principalHandler func(http.ResponseWriter, *http.Request, domain.Principal)

func (s *Server) authenticated(next principalHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := s.gate.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			s.audit(r, "auth.gate", "fail")
			s.writeServiceError(w, r, err)
			return
		}
		s.audit(r, "auth.gate", "success", "user_id", principal.UserID)
		next(w, r, principal)
	})
}

// writeServiceError maps the error taxonomy to HTTP status codes in one
// place. Anything unrecognized is logged and reported as a generic 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *app.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Msg)
	case errors.Is(err, auth.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		util.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", s.clientIP(r),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	key := r.URL.Path + "|" + s.clientIP(r)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func (s *Server) clientIP(r *http.Request) string {
	return util.ClientIP(r, s.trustedProxies)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

func normalizeMaxBytes(value int64) int64 {
	if value <= 0 {
		return 5 * 1024 * 1024
	}
	return value
}

func normalizeExtensions(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = []string{".jpg", ".jpeg", ".png", ".webp"}
	}
	out := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out[ext] = struct{}{}
	}
	return out
}
