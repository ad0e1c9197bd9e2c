package aggregate

import (
	"sort"

	"github.com/pulverlogic/newsboard/internal/models"
)

const NoSubject = "N/A"

// DefaultLowParticipation is the total under which a scholar is flagged on the admin table.
const DefaultLowParticipation = 5

type tally struct {
	logs     int
	regular  int
	bonus    int
	subjects map[string]int
}

// Summarize joins logs and bonuses per user. Rows with an empty user are
// ignored. The result is ordered by total points, highest first, with
// ties broken by user name.
func Summarize(logs []models.LogEntry, bonuses []models.BonusEntry) []models.ScholarSummary {
	tallies := make(map[string]*tally)
	get := func(user string) *tally {
		t, ok := tallies[user]
		if !ok {
			t = &tally{subjects: make(map[string]int)}
			tallies[user] = t
		}
		return t
	}

	for _, l := range logs {
		if l.User == "" {
			continue
		}
		t := get(l.User)
		t.logs++
		t.regular += l.PointsAwarded
		if l.Subject != "" {
			t.subjects[l.Subject]++
		}
	}
	for _, b := range bonuses {
		if b.User == "" {
			continue
		}
		get(b.User).bonus += b.Points
	}

	out := make([]models.ScholarSummary, 0, len(tallies))
	for user, t := range tallies {
		out = append(out, models.ScholarSummary{
			User:          user,
			LogsSubmitted: t.logs,
			RegularPoints: t.regular,
			BonusPoints:   t.bonus,
			TotalPoints:   t.regular + t.bonus,
			TopSubject:    mode(t.subjects),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].User < out[j].User
	})
	return out
}

// mode picks the most frequent subject, the alphabetically first on a tie.
func mode(counts map[string]int) string {
	best, bestCount := NoSubject, 0
	for subject, n := range counts {
		if n > bestCount || (n == bestCount && subject < best) {
			best, bestCount = subject, n
		}
	}
	return best
}

// LowParticipation returns the users whose total is under threshold, in summary order.
func LowParticipation(summary []models.ScholarSummary, threshold int) []string {
	var users []string
	for _, s := range summary {
		if s.TotalPoints < threshold {
			users = append(users, s.User)
		}
	}
	return users
}

func Find(summary []models.ScholarSummary, user string) (models.ScholarSummary, bool) {
	for _, s := range summary {
		if s.User == user {
			return s, true
		}
	}
	return models.ScholarSummary{}, false
}
