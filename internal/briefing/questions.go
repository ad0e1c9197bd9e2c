package briefing

import (
	"fmt"
	"strings"

	"github.com/pulverlogic/newsboard/internal/models"
)

var subjectQuestions = map[string]string{
	"The Executive Branch":    "Is this within the constitutional powers of the executive?",
	"The Legislative Branch":  "What would it take for this to pass both chambers?",
	"The Judicial Branch":     "What precedent is most likely to decide this?",
	"Education":               "How would this change what happens in a classroom?",
	"Technology":              "Who should regulate this technology, and how?",
	"Business & the Economy":  "What does this mean for household budgets?",
	"World Leaders":           "How does this change the balance between the major powers?",
	"International Conflicts": "What would a realistic path to de-escalation look like?",
	"Business & Commerce":     "Who are the winners and losers among companies and workers?",
	"The Global Economy":      "Does this help or hurt global trade in the long run?",
	"Human Rights":            "What obligations does the international community have here?",
}

// Questions builds a handful of extemp prompts from a headline without
// calling any external service.
func Questions(h models.Headline) []string {
	topic := strings.TrimRight(strings.TrimSpace(h.Title), ".!?")
	if topic == "" {
		return nil
	}

	qs := []string{
		fmt.Sprintf("What is the significance of %q?", topic),
		fmt.Sprintf("Who benefits and who is harmed by %q?", topic),
		fmt.Sprintf("Why is %q happening now?", topic),
	}
	if q, ok := subjectQuestions[h.Subject]; ok {
		qs = append(qs, q)
	}
	return qs
}
