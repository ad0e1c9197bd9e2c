package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var ErrInvalidReview = errors.New("invalid review")

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

const (
	MinPoints = 0
	MaxPoints = 5

	// UnspecifiedSubject fills the subject column of rows written before tagging existed.
	UnspecifiedSubject = "Unspecified"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	case "":
		return StatusPending, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// LogEntry is one scholar's article-review submission. Row is its position
// in the backing table and is the only identity a log entry has.
type LogEntry struct {
	Row           int       `json:"row"`
	User          string    `json:"user" validate:"required"`
	Title         string    `json:"title" validate:"required"`
	Link          string    `json:"link"`
	Notes         string    `json:"notes"`
	Timestamp     time.Time `json:"timestamp"`
	PointsAwarded int       `json:"points_awarded" validate:"min=0,max=5"`
	AdminNotes    string    `json:"admin_notes"`
	Subject       string    `json:"subject"`
	Status        Status    `json:"status" validate:"oneof=pending approved rejected"`
}

func (e *LogEntry) Validate() error {
	return validate.Struct(e)
}

func (e LogEntry) String() string {
	return fmt.Sprintf("#%d %s %s: %q (%d pts, %s)",
		e.Row,
		FormatTimestamp(e.Timestamp),
		e.User,
		e.Title,
		e.PointsAwarded,
		e.Status,
	)
}

// ReviewUpdate carries the admin-editable fields of a log entry. Nil fields are left alone.
type ReviewUpdate struct {
	PointsAwarded *int
	Subject       *string
	Status        *Status
	AdminNotes    *string
}

func (u ReviewUpdate) Empty() bool {
	return u.PointsAwarded == nil && u.Subject == nil && u.Status == nil && u.AdminNotes == nil
}

// Validate checks only the fields the update sets. Stored rows may predate
// today's rules and are reviewed as they are.
func (u ReviewUpdate) Validate() error {
	if u.PointsAwarded != nil {
		if err := validate.Var(*u.PointsAwarded, "min=0,max=5"); err != nil {
			return fmt.Errorf("%w: points_awarded %d: %v", ErrInvalidReview, *u.PointsAwarded, err)
		}
	}
	if u.Status != nil {
		if err := validate.Var(string(*u.Status), "oneof=pending approved rejected"); err != nil {
			return fmt.Errorf("%w: status %q: %v", ErrInvalidReview, *u.Status, err)
		}
	}
	if u.Subject != nil {
		if err := validate.Var(*u.Subject, "required"); err != nil {
			return fmt.Errorf("%w: subject is empty", ErrInvalidReview)
		}
	}
	return nil
}

func (e *LogEntry) Apply(u ReviewUpdate) {
	if u.PointsAwarded != nil {
		e.PointsAwarded = *u.PointsAwarded
	}
	if u.Subject != nil {
		e.Subject = *u.Subject
	}
	if u.Status != nil {
		e.Status = *u.Status
	}
	if u.AdminNotes != nil {
		e.AdminNotes = *u.AdminNotes
	}
}

// BonusEntry is a manually awarded bonus. It is never edited after creation.
type BonusEntry struct {
	User      string    `json:"user" validate:"required"`
	BonusType string    `json:"bonus_type" validate:"required"`
	Points    int       `json:"points" validate:"min=0"`
	Notes     string    `json:"notes"`
	Timestamp time.Time `json:"timestamp"`
	Admin     string    `json:"admin"`
}

func (b *BonusEntry) Validate() error {
	return validate.Struct(b)
}

// ScholarSummary is the per-user aggregate. It is derived on every read and never stored.
type ScholarSummary struct {
	User          string `json:"user"`
	LogsSubmitted int    `json:"logs_submitted"`
	RegularPoints int    `json:"regular_points"`
	BonusPoints   int    `json:"bonus_points"`
	TotalPoints   int    `json:"total_points"`
	TopSubject    string `json:"top_subject"`
}
