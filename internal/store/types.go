package store

import (
	"github.com/pulverlogic/newsboard/internal/models"
)

type DatabaseType string

const (
	DBTypeCSV      DatabaseType = "csv"
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

var (
	LogColumns   = []string{"user", "title", "link", "notes", "timestamp", "points_awarded", "admin_notes", "subject", "status"}
	BonusColumns = []string{"user", "bonus_type", "points", "notes", "timestamp", "admin"}
)

type logRow struct {
	ID            int64  `db:"id"`
	Username      string `db:"username"`
	Title         string `db:"title"`
	Link          string `db:"link"`
	Notes         string `db:"notes"`
	CreatedAt     string `db:"created_at"`
	PointsAwarded int    `db:"points_awarded"`
	AdminNotes    string `db:"admin_notes"`
	Subject       string `db:"subject"`
	Status        string `db:"status"`
}

func newLogRow(e models.LogEntry) logRow {
	return logRow{
		Username:      e.User,
		Title:         e.Title,
		Link:          e.Link,
		Notes:         e.Notes,
		CreatedAt:     models.FormatTimestamp(e.Timestamp),
		PointsAwarded: e.PointsAwarded,
		AdminNotes:    e.AdminNotes,
		Subject:       e.Subject,
		Status:        string(e.Status),
	}
}

func (r logRow) entry(pos int) models.LogEntry {
	status, err := models.ParseStatus(r.Status)
	if err != nil {
		status = models.StatusPending
	}
	subject := r.Subject
	if subject == "" {
		subject = models.UnspecifiedSubject
	}
	return models.LogEntry{
		Row:           pos,
		User:          r.Username,
		Title:         r.Title,
		Link:          r.Link,
		Notes:         r.Notes,
		Timestamp:     models.ParseTimestamp(r.CreatedAt),
		PointsAwarded: r.PointsAwarded,
		AdminNotes:    r.AdminNotes,
		Subject:       subject,
		Status:        status,
	}
}

type bonusRow struct {
	ID        int64  `db:"id"`
	Username  string `db:"username"`
	BonusType string `db:"bonus_type"`
	Points    int    `db:"points"`
	Notes     string `db:"notes"`
	CreatedAt string `db:"created_at"`
	Admin     string `db:"admin"`
}

func newBonusRow(b models.BonusEntry) bonusRow {
	return bonusRow{
		Username:  b.User,
		BonusType: b.BonusType,
		Points:    b.Points,
		Notes:     b.Notes,
		CreatedAt: models.FormatTimestamp(b.Timestamp),
		Admin:     b.Admin,
	}
}

func (r bonusRow) entry() models.BonusEntry {
	return models.BonusEntry{
		User:      r.Username,
		BonusType: r.BonusType,
		Points:    r.Points,
		Notes:     r.Notes,
		Timestamp: models.ParseTimestamp(r.CreatedAt),
		Admin:     r.Admin,
	}
}
