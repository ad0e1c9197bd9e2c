package handlers

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/pulverlogic/newsboard/internal/aggregate"
	"github.com/pulverlogic/newsboard/internal/auth"
	"github.com/pulverlogic/newsboard/internal/briefing"
	"github.com/pulverlogic/newsboard/internal/models"
	"github.com/pulverlogic/newsboard/internal/scoring"
	"github.com/pulverlogic/newsboard/internal/store/csvfile"
)

type headlineView struct {
	models.Headline
	Questions []string `json:"questions"`
}

func (h *Handler) todayHeadlines(r *http.Request) ([]headlineView, error) {
	var only []string
	for _, s := range r.URL.Query()["subject"] {
		if s = strings.TrimSpace(s); s != "" {
			only = append(only, s)
		}
	}
	headlines, err := h.service.TodayHeadlines(only)
	if err != nil {
		return nil, err
	}
	out := make([]headlineView, 0, len(headlines))
	for _, hl := range headlines {
		out = append(out, headlineView{Headline: hl, Questions: briefing.Questions(hl)})
	}
	return out, nil
}

func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	headlines, err := h.todayHeadlines(r)
	if err != nil {
		logger.Error.Printf("Failed to load headlines: %v", err)
		http.Error(w, "Failed to load headlines", http.StatusInternalServerError)
		return
	}
	h.render(w, r, http.StatusOK, "index", page{
		Title: "Today's headlines",
		Data: struct {
			Subjects  []string
			Selected  string
			Headlines []headlineView
		}{h.service.Tagger.Subjects(), r.URL.Query().Get("subject"), headlines},
	})
}

func (h *Handler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", page{Title: "Log in"})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.logins.Allow(clientAddr(r)) {
		h.render(w, r, http.StatusTooManyRequests, "login", page{
			Title: "Log in",
			Error: "Too many login attempts, try again in a minute.",
		})
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	user, err := h.service.Users.Authenticate(username, r.PostFormValue("password"))
	if err != nil {
		logger.Info.Printf("Failed login for %q from %s", username, clientAddr(r))
		h.render(w, r, http.StatusUnauthorized, "login", page{
			Title: "Log in",
			Error: "Invalid username or password.",
		})
		return
	}

	if err := h.sessions.Login(w, r, user); err != nil {
		logger.Error.Printf("Failed to save session: %v", err)
		http.Error(w, "Failed to log in", http.StatusInternalServerError)
		return
	}
	logger.Info.Printf("%s logged in as %s", user.Username, user.Role)

	if user.IsAdmin() {
		redirect(w, r, "/admin", "")
		return
	}
	redirect(w, r, "/scholar/logs", "")
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		logger.Error.Printf("Failed to clear session: %v", err)
	}
	redirect(w, r, "/", "")
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(aggregate.DayLayout, s, time.Local)
}

// dateFilter reads the from and to query parameters.
func dateFilter(r *http.Request) (aggregate.Filter, error) {
	var f aggregate.Filter
	var err error
	q := r.URL.Query()
	if f.From, err = parseDay(q.Get("from")); err != nil {
		return f, fmt.Errorf("invalid from date: %w", err)
	}
	if f.To, err = parseDay(q.Get("to")); err != nil {
		return f, fmt.Errorf("invalid to date: %w", err)
	}
	return f, nil
}

func (h *Handler) HandleScholarLogs(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	h.renderScholar(w, r, id, http.StatusOK, "")
}

func (h *Handler) renderScholar(w http.ResponseWriter, r *http.Request, id auth.Identity, status int, errMsg string) {
	filter, err := dateFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter.User = id.Scholar()

	logs, err := h.service.Logs(filter)
	if err != nil {
		logger.Error.Printf("Failed to load logs for %s: %v", filter.User, err)
		http.Error(w, "Failed to load logs", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	h.render(w, r, status, "scholar", page{
		Title: "Article logs",
		Error: errMsg,
		Data: struct {
			Scholar  string
			From, To string
			Logs     []models.LogEntry
		}{filter.User, q.Get("from"), q.Get("to"), logs},
	})
}

func (h *Handler) HandleSubmitLog(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	entry, err := h.service.SubmitLog(r.Context(), id.Scholar(),
		r.PostFormValue("title"),
		r.PostFormValue("link"),
		r.PostFormValue("notes"),
	)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.Error.Printf("Failed to submit log for %s: %v", id.Scholar(), err)
		}
		h.renderScholar(w, r, id, status, "Could not save the log: "+err.Error())
		return
	}
	redirect(w, r, "/scholar/logs", fmt.Sprintf("Log saved with %d points, tagged %s.", entry.PointsAwarded, entry.Subject))
}

func (h *Handler) HandleDownloadLogs(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	filter, err := dateFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter.User = id.Scholar()

	logs, err := h.service.Logs(filter)
	if err != nil {
		logger.Error.Printf("Failed to load logs for %s: %v", filter.User, err)
		http.Error(w, "Failed to load logs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filter.User+"_logs.csv"))
	if err := csvfile.WriteLogs(w, logs); err != nil {
		logger.Error.Printf("Failed to write csv download: %v", err)
	}
}

func (h *Handler) HandleAdmin(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	summary, err := h.service.Summary()
	if err != nil {
		logger.Error.Printf("Failed to build summary: %v", err)
		http.Error(w, "Failed to build summary", http.StatusInternalServerError)
		return
	}

	var logs []models.LogEntry
	if r.URL.Query().Get("all") != "" {
		logs, err = h.service.Logs(aggregate.Filter{})
	} else {
		logs, err = h.service.PendingLogs()
	}
	if err != nil {
		logger.Error.Printf("Failed to load logs: %v", err)
		http.Error(w, "Failed to load logs", http.StatusInternalServerError)
		return
	}

	threshold := h.service.Config.Server.LowParticipation
	if threshold <= 0 {
		threshold = aggregate.DefaultLowParticipation
	}
	low := make(map[string]bool)
	for _, u := range aggregate.LowParticipation(summary, threshold) {
		low[u] = true
	}

	h.render(w, r, http.StatusOK, "admin", page{
		Title: "Admin",
		Data: struct {
			Summary    []models.ScholarSummary
			Low        map[string]bool
			Logs       []models.LogEntry
			Subjects   []string
			Statuses   []models.Status
			Scholars   []string
			BonusTypes []scoring.BonusType
		}{
			summary,
			low,
			logs,
			h.service.Subjects(),
			[]models.Status{models.StatusPending, models.StatusApproved, models.StatusRejected},
			h.service.Users.Scholars(),
			scoring.BonusTypes,
		},
	})
}

// reviewUpdate reads the review form. Empty points, subject and status
// are left unchanged; admin_notes is applied whenever it is posted.
func reviewUpdate(r *http.Request) (models.ReviewUpdate, error) {
	var u models.ReviewUpdate
	if v := strings.TrimSpace(r.PostFormValue("points")); v != "" {
		points, err := strconv.Atoi(v)
		if err != nil {
			return u, fmt.Errorf("invalid points %q", v)
		}
		u.PointsAwarded = &points
	}
	if v := strings.TrimSpace(r.PostFormValue("subject")); v != "" {
		u.Subject = &v
	}
	if v := r.PostFormValue("status"); v != "" {
		status, err := models.ParseStatus(v)
		if err != nil {
			return u, err
		}
		u.Status = &status
	}
	if _, ok := r.PostForm["admin_notes"]; ok {
		notes := r.PostFormValue("admin_notes")
		u.AdminNotes = &notes
	}
	return u, nil
}

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	row, err := strconv.Atoi(r.PathValue("row"))
	if err != nil {
		http.Error(w, "Invalid row", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	update, err := reviewUpdate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := h.service.ReviewLog(r.Context(), id.Username, row, update)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.Error.Printf("Failed to review log %d: %v", row, err)
		}
		http.Error(w, err.Error(), status)
		return
	}
	redirect(w, r, "/admin", fmt.Sprintf("Log #%d is %s with %d points.", entry.Row, entry.Status, entry.PointsAwarded))
}

func (h *Handler) HandleBonusHistory(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	bonuses, err := h.service.Bonuses()
	if err != nil {
		logger.Error.Printf("Failed to load bonuses: %v", err)
		http.Error(w, "Failed to load bonuses", http.StatusInternalServerError)
		return
	}
	h.render(w, r, http.StatusOK, "bonus", page{
		Title: "Bonus history",
		Data:  struct{ Bonuses []models.BonusEntry }{bonuses},
	})
}

func (h *Handler) HandleAwardBonus(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	var minutes int
	if v := strings.TrimSpace(r.PostFormValue("minutes")); v != "" {
		var err error
		if minutes, err = strconv.Atoi(v); err != nil {
			http.Error(w, "Invalid minutes", http.StatusBadRequest)
			return
		}
	}

	bonus, err := h.service.AwardBonus(r.Context(), id.Username,
		r.PostFormValue("user"),
		r.PostFormValue("bonus_type"),
		minutes,
		r.PostFormValue("notes"),
	)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.Error.Printf("Failed to award bonus: %v", err)
		}
		http.Error(w, err.Error(), status)
		return
	}
	redirect(w, r, "/admin", fmt.Sprintf("Awarded %d points to %s.", bonus.Points, bonus.User))
}

func (h *Handler) HandleImpersonate(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	scholar := strings.TrimSpace(r.PostFormValue("scholar"))
	if scholar != "" && !slices.Contains(h.service.Users.Scholars(), scholar) {
		http.Error(w, "Unknown scholar", http.StatusBadRequest)
		return
	}

	if err := h.sessions.Impersonate(w, r, scholar); err != nil {
		logger.Error.Printf("Failed to impersonate %q: %v", scholar, err)
		http.Error(w, "Failed to impersonate", http.StatusInternalServerError)
		return
	}
	if scholar == "" {
		redirect(w, r, "/admin", "Stopped impersonating.")
		return
	}
	logger.Info.Printf("%s is viewing the site as %s", id.Username, scholar)
	redirect(w, r, "/scholar/logs", "Viewing as "+scholar+".")
}

func (h *Handler) HandleQuestions(w http.ResponseWriter, r *http.Request) {
	h.renderQuestions(w, r, http.StatusOK, "")
}

func (h *Handler) renderQuestions(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	sets, err := h.service.QuestionSets()
	if err != nil {
		logger.Error.Printf("Failed to load question sets: %v", err)
		http.Error(w, "Failed to load question sets", http.StatusInternalServerError)
		return
	}
	h.render(w, r, status, "questions", page{
		Title: "Question sets",
		Error: errMsg,
		Data:  struct{ Sets []models.BonusEntry }{sets},
	})
}

func (h *Handler) HandleSubmitQuestions(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	if _, err := h.service.SubmitQuestions(r.Context(), id.Scholar(), r.PostFormValue("questions")); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.Error.Printf("Failed to save questions from %s: %v", id.Scholar(), err)
		}
		h.renderQuestions(w, r, status, "Could not save the questions: "+err.Error())
		return
	}
	redirect(w, r, "/questions", "Question set submitted.")
}
