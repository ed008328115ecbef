// Package http serves the tracker UI: full pages for the four views and
// htmx partials for every table interaction, all gated behind the
// session cookie.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"carlog/internal/auth"
	"carlog/internal/core"
	"carlog/internal/listview"
	"carlog/internal/shell"
	appweb "carlog/web"
)

type Server struct {
	http.Server
	templates    *template.Template
	provider     *auth.Provider
	registry     *shell.Registry
	rateLimiter  *rateLimiter
	secureCookie bool
	shutdownOnce sync.Once
}

// Simple in-memory rate limiter for mutating requests.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]
	if !exists {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now
	return client.requests <= 60
}

var templateFuncs = template.FuncMap{
	"rm": func(m core.Money) string { return core.FormatRM(m.Cents) },
	"pages": func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	},
	"inc":       func(i int) int { return i + 1 },
	"seq":       func(n int) []int { return make([]int, n) },
	"filters":   func() []listview.DateFilter { return listview.Filters },
	"pageSizes": func() []int { return listview.PageSizes },
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(addr string, provider *auth.Provider, registry *shell.Registry, secureCookie bool) *Server {
	r := chi.NewRouter()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: r,
		},
		provider:     provider,
		registry:     registry,
		rateLimiter:  newRateLimiter(),
		secureCookie: secureCookie,
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	r.Use(s.withSecurityHeaders)

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.Handle("/static/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady)

	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Post("/register", s.handleRegister)
	r.Post("/logout", s.handleLogout)
	r.Post("/forgot-password", s.handleForgotPassword)
	r.Get("/reset", s.handleResetPage)
	r.Post("/reset", s.handleResetComplete)

	r.Get("/", s.withApp(s.handleHome))
	r.Get("/fuel", s.withApp(s.handleFuelView))
	r.Get("/maintenance", s.withApp(s.handleMaintenanceView))
	r.Get("/profile", s.withApp(s.handleProfileView))
	r.Post("/profile/password", s.withApp(s.handleUpdatePassword))

	// Fuel table partials
	r.Post("/fuel/add", s.withApp(s.handleFuelAdd))
	r.Post("/fuel/filter", s.withApp(s.handleFuelFilter))
	r.Post("/fuel/sort", s.withApp(s.handleFuelSort))
	r.Post("/fuel/page", s.withApp(s.handleFuelSetPage))
	r.Post("/fuel/pagesize", s.withApp(s.handleFuelSetPageSize))
	r.Post("/fuel/{id}/edit", s.withApp(s.handleFuelEdit))
	r.Post("/fuel/{id}/cancel", s.withApp(s.handleFuelCancel))
	r.Post("/fuel/{id}/save", s.withApp(s.handleFuelSave))
	r.Post("/fuel/{id}/arm", s.withApp(s.handleFuelArm))
	r.Post("/fuel/{id}/disarm", s.withApp(s.handleFuelDisarm))
	r.Post("/fuel/{id}/delete", s.withApp(s.handleFuelDelete))

	// Maintenance table partials
	r.Post("/maintenance/add", s.withApp(s.handleMaintenanceAdd))
	r.Post("/maintenance/sort", s.withApp(s.handleMaintenanceSort))
	r.Post("/maintenance/page", s.withApp(s.handleMaintenanceSetPage))
	r.Post("/maintenance/pagesize", s.withApp(s.handleMaintenanceSetPageSize))
	r.Post("/maintenance/{id}/edit", s.withApp(s.handleMaintenanceEdit))
	r.Post("/maintenance/{id}/cancel", s.withApp(s.handleMaintenanceCancel))
	r.Post("/maintenance/{id}/save", s.withApp(s.handleMaintenanceSave))
	r.Post("/maintenance/{id}/arm", s.withApp(s.handleMaintenanceArm))
	r.Post("/maintenance/{id}/disarm", s.withApp(s.handleMaintenanceDisarm))
	r.Post("/maintenance/{id}/delete", s.withApp(s.handleMaintenanceDelete))

	r.Get("/notifications", s.withApp(s.handleNotifications))
	r.Post("/notifications/{id}/dismiss", s.withApp(s.handleDismissNotification))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutating requests only
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	})
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
