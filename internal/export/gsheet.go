package export

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shrimpsizemoose/trekker/logger"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/pulverlogic/newsboard/internal/app"
	"github.com/pulverlogic/newsboard/internal/models"
)

const defaultStartCell = "A1"

var updateEmoji = []string{"📰", "🗞", "🏛", "🗳", "🎙"}

var leaderboardHeader = []interface{}{"Rank", "Scholar", "Logs", "Regular points", "Bonus points", "Total points", "Top subject"}

type Summarizer interface {
	Summary() ([]models.ScholarSummary, error)
}

type sheetWriter interface {
	Update(sheetID, cellRange string, values [][]interface{}) error
}

type sheetsWriter struct {
	svc *sheets.Service
}

func (w sheetsWriter) Update(sheetID, cellRange string, values [][]interface{}) error {
	_, err := w.svc.Spreadsheets.Values.Update(sheetID, cellRange,
		&sheets.ValueRange{Values: values}).ValueInputOption("RAW").Do()
	return err
}

type GSheetExporter struct {
	source    Summarizer
	scheduler *gocron.Scheduler
	now       func() time.Time
}

// NewGSheetExporter schedules one leaderboard export per [[export]] entry.
func NewGSheetExporter(config *app.Config, source Summarizer) (*GSheetExporter, error) {
	ctx := context.Background()
	e := &GSheetExporter{
		source:    source,
		scheduler: gocron.NewScheduler(time.Local),
		now:       time.Now,
	}

	for _, cfg := range config.Export {
		svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath))
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets service: %w", err)
		}
		writer := sheetsWriter{svc: svc}

		_, err = e.scheduler.Cron(cfg.Schedule).Do(func() {
			if err := e.Export(cfg, writer); err != nil {
				logger.Error.Printf("Export to %s failed: %v", cfg.SheetID, err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to schedule export: %w", err)
		}
	}

	return e, nil
}

func (e *GSheetExporter) Start() {
	e.scheduler.StartAsync()
}

func (e *GSheetExporter) Stop() {
	e.scheduler.Stop()
}

// Export writes the current leaderboard at the configured start cell and
// stamps the update time.
func (e *GSheetExporter) Export(cfg app.ExportConfig, w sheetWriter) error {
	summary, err := e.source.Summary()
	if err != nil {
		return fmt.Errorf("failed to build leaderboard: %w", err)
	}

	start := cfg.StartCell
	if start == "" {
		start = defaultStartCell
	}
	if err := w.Update(cfg.SheetID, cellRange(cfg.SheetName, start), leaderboardValues(summary)); err != nil {
		return fmt.Errorf("failed to write leaderboard: %w", err)
	}

	if cfg.TimestampCell != "" {
		emoji := updateEmoji[rand.Intn(len(updateEmoji))]
		stamp := fmt.Sprintf("UPD: %s %s", e.now().Format("2 January 15:04"), emoji)
		if err := w.Update(cfg.SheetID, cellRange(cfg.SheetName, cfg.TimestampCell), [][]interface{}{{stamp}}); err != nil {
			return fmt.Errorf("failed to write timestamp: %w", err)
		}
	}

	logger.Info.Printf("Exported %d scholars to sheet %s", len(summary), cfg.SheetID)
	return nil
}

func cellRange(sheet, cell string) string {
	if sheet == "" {
		return cell
	}
	return fmt.Sprintf("%s!%s", sheet, cell)
}

func leaderboardValues(summary []models.ScholarSummary) [][]interface{} {
	values := make([][]interface{}, 0, len(summary)+1)
	values = append(values, leaderboardHeader)
	for i, s := range summary {
		values = append(values, []interface{}{
			i + 1,
			s.User,
			s.LogsSubmitted,
			s.RegularPoints,
			s.BonusPoints,
			s.TotalPoints,
			s.TopSubject,
		})
	}
	return values
}
