package handlers

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"
	"golang.org/x/time/rate"

	"github.com/pulverlogic/newsboard/internal/app"
	"github.com/pulverlogic/newsboard/internal/auth"
	"github.com/pulverlogic/newsboard/internal/metrics"
	"github.com/pulverlogic/newsboard/internal/models"
	"github.com/pulverlogic/newsboard/internal/scoring"
	"github.com/pulverlogic/newsboard/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"timestamp": models.FormatTimestamp,
	"has": func(list []string, s string) bool {
		for _, v := range list {
			if v == s {
				return true
			}
		}
		return false
	},
	"lines": splitLines,
}

type Handler struct {
	service  *app.Service
	sessions *auth.Sessions
	pages    *template.Template
	logins   *loginLimiter
}

func NewHandler(service *app.Service, sessions *auth.Sessions) (*Handler, error) {
	pages, err := template.New("pages").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{
		service:  service,
		sessions: sessions,
		pages:    pages,
		logins:   newLoginLimiter(service.Config.Server.LoginAttemptsPerMin),
	}, nil
}

func (h *Handler) Register(mux *http.ServeMux) {
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"GET /{$}", h.HandleIndex},
		{"GET /health", h.HandleHealth},

		{"GET /login", h.HandleLoginPage},
		{"POST /login", h.HandleLogin},
		{"POST /logout", h.HandleLogout},

		{"GET /scholar/logs", h.requireLogin(h.HandleScholarLogs)},
		{"POST /scholar/logs", h.requireLogin(h.HandleSubmitLog)},
		{"GET /scholar/logs.csv", h.requireLogin(h.HandleDownloadLogs)},

		{"GET /admin", h.requireAdmin(h.HandleAdmin)},
		{"POST /admin/logs/{row}", h.requireAdmin(h.HandleReview)},
		{"GET /admin/bonus", h.requireAdmin(h.HandleBonusHistory)},
		{"POST /admin/bonus", h.requireAdmin(h.HandleAwardBonus)},
		{"POST /admin/impersonate", h.requireAdmin(h.HandleImpersonate)},

		{"GET /questions", h.HandleQuestions},
		{"POST /questions", h.requireLogin(h.HandleSubmitQuestions)},

		{"GET /charts", h.requireLogin(h.HandleCharts)},
		{"GET /charts/render", h.requireLogin(h.HandleRenderCharts)},

		{"GET /api/v1/summary", h.HandleAPISummary},
		{"GET /api/v1/headlines", h.HandleAPIHeadlines},
		{"POST /api/v1/logs", h.HandleAPISubmitLog},
		{"POST /api/v1/token", h.HandleAPIToken},
		{"POST /api/v1/briefing", h.HandleAPIBriefing},
	}
	for _, route := range routes {
		mux.Handle(route.pattern, instrument(route.pattern, route.handler))
	}
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

type identityHandler func(w http.ResponseWriter, r *http.Request, id auth.Identity)

func (h *Handler) requireLogin(next identityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := h.sessions.Identity(r)
		if !id.LoggedIn() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, id)
	}
}

func (h *Handler) requireAdmin(next identityHandler) http.HandlerFunc {
	return h.requireLogin(func(w http.ResponseWriter, r *http.Request, id auth.Identity) {
		if !id.IsAdmin() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r, id)
	})
}

type page struct {
	Title    string
	Identity auth.Identity
	Flash    string
	Error    string
	Data     any
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	p.Identity = h.sessions.Identity(r)
	if p.Flash == "" {
		p.Flash = r.URL.Query().Get("flash")
	}

	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, name, p); err != nil {
		logger.Error.Printf("Failed to render %s: %v", name, err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func redirect(w http.ResponseWriter, r *http.Request, path, flash string) {
	if flash != "" {
		path += "?flash=" + url.QueryEscape(flash)
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrRowNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrEmptyField),
		errors.Is(err, app.ErrUnknownSubject),
		errors.Is(err, models.ErrInvalidReview),
		errors.Is(err, scoring.ErrUnknownBonusType),
		errors.Is(err, scoring.ErrMinutesOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument labels request durations by route pattern, not raw path.
func instrument(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.APIRequestDuration.WithLabelValues(
			pattern,
			r.Method,
			strconv.Itoa(rec.status),
		).Observe(time.Since(start).Seconds())
	})
}

// loginLimiter allows perMinute login attempts per client address.
// Zero disables the limit.
type loginLimiter struct {
	mu        sync.Mutex
	perMinute int
	clients   map[string]*rate.Limiter
}

func newLoginLimiter(perMinute int) *loginLimiter {
	return &loginLimiter{perMinute: perMinute, clients: make(map[string]*rate.Limiter)}
}

func (l *loginLimiter) Allow(client string) bool {
	if l.perMinute <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.clients[client]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
		l.clients[client] = limiter
	}
	return limiter.Allow()
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
