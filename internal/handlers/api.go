package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/pulverlogic/newsboard/internal/auth"
	"github.com/pulverlogic/newsboard/internal/models"
)

// caller resolves the API user from the browser session or, when tokens
// are configured, from an Authorization bearer header.
func (h *Handler) caller(r *http.Request) (string, bool) {
	if id := h.sessions.Identity(r); id.LoggedIn() {
		return id.Scholar(), true
	}

	header := r.Header.Get("Authorization")
	if h.service.Tokens == nil || header == "" {
		return "", false
	}
	info, err := h.service.Tokens.ValidateHeader(r.Context(), header)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidToken) {
			logger.Error.Printf("Token validation failed: %v", err)
		}
		return "", false
	}
	return info.Username, true
}

func (h *Handler) HandleAPISummary(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(r); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	summary, err := h.service.Summary()
	if err != nil {
		logger.Error.Printf("Failed to build summary: %v", err)
		http.Error(w, "Failed to build summary", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"summary": summary,
	})
}

func (h *Handler) HandleAPIHeadlines(w http.ResponseWriter, r *http.Request) {
	headlines, err := h.todayHeadlines(r)
	if err != nil {
		logger.Error.Printf("Failed to load headlines: %v", err)
		http.Error(w, "Failed to load headlines", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"headlines": headlines,
	})
}

type logRequest struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Notes string `json:"notes"`
}

func (h *Handler) HandleAPISubmitLog(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req logRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.service.SubmitLog(r.Context(), user, req.Title, req.Link, req.Notes)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.Error.Printf("Failed to submit log for %s: %v", user, err)
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// HandleAPIToken hands the logged-in user their bearer token, creating it
// on first use.
func (h *Handler) HandleAPIToken(w http.ResponseWriter, r *http.Request) {
	id := h.sessions.Identity(r)
	if !id.LoggedIn() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if h.service.Tokens == nil {
		http.Error(w, "API tokens are not configured", http.StatusServiceUnavailable)
		return
	}
	user, ok := h.service.Users.Lookup(id.Username)
	if !ok {
		http.Error(w, "Unknown user", http.StatusUnauthorized)
		return
	}

	info, created, err := h.service.Tokens.FetchOrCreate(r.Context(), user)
	if err != nil {
		logger.Error.Printf("Failed to issue token for %s: %v", user.Username, err)
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, info)
}

func (h *Handler) HandleAPIBriefing(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(r); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var headline models.Headline
	if err := json.NewDecoder(r.Body).Decode(&headline); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(headline.Title) == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"briefing": h.service.Brief(r.Context(), headline),
	})
}
