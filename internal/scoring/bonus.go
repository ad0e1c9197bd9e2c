package scoring

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownBonusType  = errors.New("unknown bonus type")
	ErrMinutesOutOfRange = errors.New("minutes out of range")
)

const (
	MinMinutes = 1
	MaxMinutes = 120
)

// BonusType is either worth a fixed number of points or, when PerMinute is
// set, Points for every minute of the activity.
type BonusType struct {
	Key       string
	Name      string
	Points    int
	PerMinute bool
}

const QuestionSetBonus = "Submit a set of 10 questions"

var BonusTypes = []BonusType{
	{Key: "meme", Name: "Current events meme", Points: 1},
	{Key: "presentation", Name: "Presentation on a current event (time-based)", Points: 1, PerMinute: true},
	{Key: "questions", Name: QuestionSetBonus, Points: 5},
	{Key: "speech", Name: "Give an extemp speech to 30+ people", Points: 10},
}

func LookupBonusType(nameOrKey string) (BonusType, bool) {
	needle := strings.TrimSpace(nameOrKey)
	for _, bt := range BonusTypes {
		if strings.EqualFold(bt.Key, needle) || strings.EqualFold(bt.Name, needle) {
			return bt, true
		}
	}
	return BonusType{}, false
}

// BonusPoints resolves the points for one award. minutes is ignored for
// fixed-value types.
func BonusPoints(nameOrKey string, minutes int) (BonusType, int, error) {
	bt, ok := LookupBonusType(nameOrKey)
	if !ok {
		return BonusType{}, 0, fmt.Errorf("%w: %q", ErrUnknownBonusType, nameOrKey)
	}

	if !bt.PerMinute {
		return bt, bt.Points, nil
	}

	if minutes < MinMinutes || minutes > MaxMinutes {
		return bt, 0, fmt.Errorf("%w: %d not in %d..%d", ErrMinutesOutOfRange, minutes, MinMinutes, MaxMinutes)
	}
	return bt, bt.Points * minutes, nil
}
