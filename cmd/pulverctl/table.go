package main

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/pulverlogic/newsboard/internal/aggregate"
	"github.com/pulverlogic/newsboard/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#20B9B4"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	lowStyle    = cellStyle.Foreground(lipgloss.Color("#E74C3C"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2C4A54"))
)

var summaryColumns = []string{"#", "Scholar", "Logs", "Regular", "Bonus", "Total", "Top subject"}

// renderSummary lays the leaderboard out in aligned columns and marks
// scholars below the low-participation threshold.
func renderSummary(summary []models.ScholarSummary, low int) string {
	if len(summary) == 0 {
		return mutedStyle.Render("No participation yet")
	}

	rows := [][]string{summaryColumns}
	lowUsers := make(map[string]bool)
	for _, u := range aggregate.LowParticipation(summary, low) {
		lowUsers[u] = true
	}
	for i, s := range summary {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			s.User,
			strconv.Itoa(s.LogsSubmitted),
			strconv.Itoa(s.RegularPoints),
			strconv.Itoa(s.BonusPoints),
			strconv.Itoa(s.TotalPoints),
			s.TopSubject,
		})
	}

	widths := make([]int, len(summaryColumns))
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows))
	for r, row := range rows {
		style := cellStyle
		switch {
		case r == 0:
			style = headerStyle.PaddingRight(2)
		case lowUsers[row[1]]:
			style = lowStyle
		}
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = style.Width(widths[i] + 2).Render(cell)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
