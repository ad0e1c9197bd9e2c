package aggregate

import (
	"sort"
	"time"

	"github.com/pulverlogic/newsboard/internal/models"
)

const DayLayout = "2006-01-02"

// Filter narrows a log table. Zero fields match everything. From and To
// are compared by calendar day, both inclusive.
type Filter struct {
	User     string
	Subjects []string
	From     time.Time
	To       time.Time
}

func (f Filter) Match(e models.LogEntry) bool {
	if f.User != "" && e.User != f.User {
		return false
	}
	if len(f.Subjects) > 0 && !contains(f.Subjects, e.Subject) {
		return false
	}
	return f.inRange(e.Timestamp)
}

func (f Filter) inRange(ts time.Time) bool {
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	if ts.IsZero() {
		return false
	}
	day := truncateDay(ts)
	if !f.From.IsZero() && day.Before(truncateDay(f.From)) {
		return false
	}
	if !f.To.IsZero() && day.After(truncateDay(f.To)) {
		return false
	}
	return true
}

func (f Filter) Apply(logs []models.LogEntry) []models.LogEntry {
	out := make([]models.LogEntry, 0, len(logs))
	for _, e := range logs {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Bonuses applies the user and date bounds to a bonus history. Bonuses
// carry no subject.
func (f Filter) Bonuses(bonuses []models.BonusEntry) []models.BonusEntry {
	out := make([]models.BonusEntry, 0, len(bonuses))
	for _, b := range bonuses {
		if f.User != "" && b.User != f.User {
			continue
		}
		if f.inRange(b.Timestamp) {
			out = append(out, b)
		}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// SubjectCounts counts log entries per subject, largest first.
func SubjectCounts(logs []models.LogEntry) []Count {
	counts := make(map[string]int)
	for _, e := range logs {
		subject := e.Subject
		if subject == "" {
			subject = models.UnspecifiedSubject
		}
		counts[subject]++
	}

	out := make([]Count, 0, len(counts))
	for label, n := range counts {
		out = append(out, Count{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// DailySubmissions counts log entries per day in date order. Entries
// without a timestamp are left out.
func DailySubmissions(logs []models.LogEntry) []Count {
	counts := make(map[string]int)
	for _, e := range logs {
		if e.Timestamp.IsZero() {
			continue
		}
		counts[e.Timestamp.Format(DayLayout)]++
	}

	out := make([]Count, 0, len(counts))
	for day, n := range counts {
		out = append(out, Count{Label: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// NewestBonusesFirst orders a bonus history for display.
func NewestBonusesFirst(bonuses []models.BonusEntry) []models.BonusEntry {
	out := make([]models.BonusEntry, len(bonuses))
	copy(out, bonuses)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func BonusesFor(bonuses []models.BonusEntry, user string) []models.BonusEntry {
	var out []models.BonusEntry
	for _, b := range bonuses {
		if b.User == user {
			out = append(out, b)
		}
	}
	return out
}
