package scoring

import (
	"unicode/utf8"

	"github.com/pulverlogic/newsboard/internal/models"
)

// Grader computes the automatic award for a scholar log. Admins may
// override the result later.
type Grader struct {
	BasePoints         int `toml:"base_points"`
	LongNotesBonus     int `toml:"long_notes_bonus"`
	LongNotesThreshold int `toml:"long_notes_threshold"`
}

func DefaultGrader() Grader {
	return Grader{
		BasePoints:         1,
		LongNotesBonus:     2,
		LongNotesThreshold: 100,
	}
}

func (g Grader) AutoScore(notes string) int {
	score := g.BasePoints
	if utf8.RuneCountInString(notes) >= g.LongNotesThreshold {
		score += g.LongNotesBonus
	}
	return ClampPoints(score)
}

func ClampPoints(points int) int {
	if points < models.MinPoints {
		return models.MinPoints
	}
	if points > models.MaxPoints {
		return models.MaxPoints
	}
	return points
}
