package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrader_AutoScore(t *testing.T) {
	testCases := []struct {
		name          string
		notes         string
		expectedScore int
	}{
		{
			name:          "Empty notes still earn the base point",
			notes:         "",
			expectedScore: 1,
		},
		{
			name:          "Short notes",
			notes:         "Interesting take on the budget.",
			expectedScore: 1,
		},
		{
			name:          "99 characters is one short of the bonus",
			notes:         strings.Repeat("a", 99),
			expectedScore: 1,
		},
		{
			name:          "Exactly 100 characters earns the bonus",
			notes:         strings.Repeat("a", 100),
			expectedScore: 3,
		},
		{
			name:          "Length is counted in characters, not bytes",
			notes:         strings.Repeat("é", 60),
			expectedScore: 1,
		},
	}

	grader := DefaultGrader()

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedScore, grader.AutoScore(tc.notes))
		})
	}
}

func TestGrader_AutoScoreIsClamped(t *testing.T) {
	grader := Grader{BasePoints: 4, LongNotesBonus: 4, LongNotesThreshold: 1}
	assert.Equal(t, 5, grader.AutoScore("long enough"))
}

func TestClampPoints(t *testing.T) {
	assert.Equal(t, 0, ClampPoints(-3))
	assert.Equal(t, 3, ClampPoints(3))
	assert.Equal(t, 5, ClampPoints(12))
}

func TestBonusPoints(t *testing.T) {
	t.Run("fixed type by name", func(t *testing.T) {
		bt, points, err := BonusPoints("Give an extemp speech to 30+ people", 0)
		require.NoError(t, err)
		assert.Equal(t, "speech", bt.Key)
		assert.Equal(t, 10, points)
	})

	t.Run("fixed type by key ignores minutes", func(t *testing.T) {
		_, points, err := BonusPoints("MEME", 45)
		require.NoError(t, err)
		assert.Equal(t, 1, points)
	})

	t.Run("per minute", func(t *testing.T) {
		_, points, err := BonusPoints("presentation", 12)
		require.NoError(t, err)
		assert.Equal(t, 12, points)
	})

	t.Run("per minute out of range", func(t *testing.T) {
		_, _, err := BonusPoints("presentation", 0)
		assert.ErrorIs(t, err, ErrMinutesOutOfRange)

		_, _, err = BonusPoints("presentation", 121)
		assert.ErrorIs(t, err, ErrMinutesOutOfRange)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := BonusPoints("interpretive dance", 5)
		assert.ErrorIs(t, err, ErrUnknownBonusType)
	})
}
