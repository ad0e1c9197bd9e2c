package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/pulverlogic/newsboard/internal/models"
	"github.com/pulverlogic/newsboard/internal/scoring"
)

const (
	publicHelp = `Available commands:
/leaderboard - Participation leaderboard
/help - Show this message`

	adminHelp = `Available commands:
/leaderboard - Participation leaderboard
/pending - Logs waiting for review
/review <row> points <n> status <status> [subject <subject>] [notes <notes>] - Review a log
/bonus <user> <type> [minutes] - Award a bonus
/refresh - Archive today's RSS headlines
/help - Show this message

Bonus types: meme, presentation (per minute), questions, speech

Examples:
/review 3 points 4 status approved subject The Judicial Branch
/review 3 status rejected notes needs more points and a source
/bonus gabe presentation 12`
)

type commandHandler func(*tgbotapi.Message) error

func (b *Bot) routePublicCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"start":       b.handleStart,
		"leaderboard": b.handleLeaderboard,
		"help":        b.handleHelp,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) routeAdminCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"pending": b.handlePending,
		"review":  b.handleReview,
		"bonus":   b.handleBonus,
		"refresh": b.handleRefresh,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendHelp(msg.Chat.ID)
		return
	}

	cmd := msg.Command()

	if handler, ok := b.routePublicCommands(cmd); ok {
		b.run(msg, handler)
		return
	}

	if b.isAdmin(msg) {
		if handler, ok := b.routeAdminCommands(cmd); ok {
			b.run(msg, handler)
			return
		}
	}

	b.sendHelp(msg.Chat.ID)
}

func (b *Bot) run(msg *tgbotapi.Message, handler commandHandler) {
	if err := handler(msg); err != nil {
		logger.Error.Printf("Command error: %v", err)
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
	}
}

func (b *Bot) isAdmin(msg *tgbotapi.Message) bool {
	return msg.From != nil && b.admins[msg.From.ID]
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	if b.isAdmin(msg) {
		return b.sendMessage(msg.Chat.ID, adminHelp)
	}
	return b.sendMessage(msg.Chat.ID, publicHelp)
}

func (b *Bot) sendHelp(chatID int64) error {
	return b.sendMessage(chatID, "Use commands to talk to the bot. Send /help for the list.")
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	text := "Hi! I keep track of PulverLogic participation.\n\n"
	if b.isAdmin(msg) {
		text += "You are an admin. Use /help for the list of commands."
	} else {
		text += "Use /leaderboard to see the standings."
	}
	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) handleLeaderboard(msg *tgbotapi.Message) error {
	summary, err := b.service.Summary()
	if err != nil {
		return fmt.Errorf("failed to build leaderboard: %w", err)
	}
	return b.sendMessage(msg.Chat.ID, formatLeaderboard(summary))
}

func (b *Bot) handlePending(msg *tgbotapi.Message) error {
	pending, err := b.service.PendingLogs()
	if err != nil {
		return fmt.Errorf("failed to load pending logs: %w", err)
	}
	return b.sendMessage(msg.Chat.ID, formatPending(pending))
}

func (b *Bot) handleReview(msg *tgbotapi.Message) error {
	row, update, err := parseReview(strings.Fields(msg.CommandArguments()))
	if err != nil {
		return err
	}

	entry, err := b.service.ReviewLog(context.Background(), b.config.Bot.AdminName, row, update)
	if err != nil {
		return err
	}
	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ Log #%d by %s is %s with %d points (%s)",
		entry.Row,
		entry.User,
		entry.Status,
		entry.PointsAwarded,
		entry.Subject,
	))
}

func (b *Bot) handleBonus(msg *tgbotapi.Message) error {
	user, bonusType, minutes, err := parseBonus(strings.Fields(msg.CommandArguments()))
	if err != nil {
		return err
	}

	bonus, err := b.service.AwardBonus(context.Background(), b.config.Bot.AdminName, user, bonusType, minutes, "")
	if err != nil {
		return err
	}
	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("🏅 %s gets %d points for %q", bonus.User, bonus.Points, bonus.BonusType))
}

func (b *Bot) handleRefresh(msg *tgbotapi.Message) error {
	added, err := b.service.RefreshHeadlines(context.Background())
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("📰 %d new headlines archived", added))
}

var reviewKeys = map[string]bool{
	"points":  true,
	"status":  true,
	"subject": true,
}

// parseReview reads "<row> key value..." where a value runs until the
// next key, so subjects may contain spaces. notes is always the last key
// and takes the rest of the line.
func parseReview(args []string) (int, models.ReviewUpdate, error) {
	var update models.ReviewUpdate
	if len(args) < 3 {
		return 0, update, fmt.Errorf("usage: /review <row> points <n> status <status> [subject <subject>] [notes <notes>]")
	}

	row, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, update, fmt.Errorf("invalid row %q", args[0])
	}

	values := make(map[string][]string)
	key := ""
	for i, arg := range args[1:] {
		if strings.EqualFold(arg, "notes") {
			values["notes"] = args[i+2:]
			break
		}
		if reviewKeys[strings.ToLower(arg)] {
			key = strings.ToLower(arg)
			values[key] = []string{}
			continue
		}
		if key == "" {
			return 0, update, fmt.Errorf("unknown parameter %q", arg)
		}
		values[key] = append(values[key], arg)
	}

	for key, words := range values {
		value := strings.Join(words, " ")
		if value == "" && key != "notes" {
			return 0, update, fmt.Errorf("missing value for %s", key)
		}
		switch key {
		case "points":
			points, err := strconv.Atoi(value)
			if err != nil {
				return 0, update, fmt.Errorf("invalid points %q", value)
			}
			update.PointsAwarded = &points
		case "status":
			status, err := models.ParseStatus(value)
			if err != nil {
				return 0, update, err
			}
			update.Status = &status
		case "subject":
			update.Subject = &value
		case "notes":
			update.AdminNotes = &value
		}
	}
	return row, update, nil
}

func parseBonus(args []string) (string, string, int, error) {
	if len(args) < 2 || len(args) > 3 {
		return "", "", 0, fmt.Errorf("usage: /bonus <user> <type> [minutes]")
	}
	if _, ok := scoring.LookupBonusType(args[1]); !ok {
		return "", "", 0, fmt.Errorf("%w: %s", scoring.ErrUnknownBonusType, args[1])
	}

	var minutes int
	if len(args) == 3 {
		var err error
		if minutes, err = strconv.Atoi(args[2]); err != nil {
			return "", "", 0, fmt.Errorf("invalid minutes %q", args[2])
		}
	}
	return args[0], args[1], minutes, nil
}

func formatLeaderboard(summary []models.ScholarSummary) string {
	if len(summary) == 0 {
		return "No participation yet"
	}

	var msg strings.Builder
	msg.WriteString("🏆 Leaderboard\n\n")
	for i, s := range summary {
		msg.WriteString(fmt.Sprintf("%d. %s: %d pts (%d logs, %d bonus, top: %s)\n",
			i+1,
			s.User,
			s.TotalPoints,
			s.LogsSubmitted,
			s.BonusPoints,
			s.TopSubject,
		))
	}
	return msg.String()
}

func formatPending(logs []models.LogEntry) string {
	if len(logs) == 0 {
		return "Nothing to review"
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("%d logs waiting for review:\n\n", len(logs)))
	for _, l := range logs {
		msg.WriteString(fmt.Sprintf("#%d %s (%s)\n📰 %s\n🏷 %s, %d pts\n\n",
			l.Row,
			l.User,
			models.FormatTimestamp(l.Timestamp),
			l.Title,
			l.Subject,
			l.PointsAwarded,
		))
	}
	return msg.String()
}

func (b *Bot) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}
