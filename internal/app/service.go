package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/pulverlogic/newsboard/internal/aggregate"
	"github.com/pulverlogic/newsboard/internal/auth"
	"github.com/pulverlogic/newsboard/internal/briefing"
	"github.com/pulverlogic/newsboard/internal/feeds"
	"github.com/pulverlogic/newsboard/internal/gitsync"
	"github.com/pulverlogic/newsboard/internal/metrics"
	"github.com/pulverlogic/newsboard/internal/models"
	"github.com/pulverlogic/newsboard/internal/scoring"
	"github.com/pulverlogic/newsboard/internal/store"
	"github.com/pulverlogic/newsboard/internal/store/csvfile"
	"github.com/pulverlogic/newsboard/internal/subjects"
)

var (
	ErrEmptyField     = errors.New("required field is empty")
	ErrUnknownSubject = errors.New("unknown subject")
)

type Service struct {
	Config   *Config
	Store    store.Backend
	Users    *auth.Registry
	Tokens   *auth.TokenManager
	Tagger   *subjects.Tagger
	Grader   scoring.Grader
	Archive  *csvfile.Archive
	Syncer   *gitsync.Syncer
	Briefer  *briefing.Client
	Feeds    *feeds.Refresher
	Batcher  *gitsync.Batcher
	sync     feeds.SyncRequester
	schedule *gocron.Scheduler
	now      func() time.Time
}

// NewService loads the config file and wires every component.
func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	backend, err := NewStore(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	users, err := auth.LoadRegistry(config.Auth.UsersFile)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	var tokens *auth.TokenManager
	if config.Auth.RedisURL != "" {
		tokens, err = auth.ConnectTokenManager(context.Background(), config.Auth.RedisURL)
		if err != nil {
			backend.Close()
			return nil, fmt.Errorf("failed to init auth: %w", err)
		}
	}

	s, err := New(config, backend, users, tokens, nil)
	if err != nil {
		backend.Close()
		if tokens != nil {
			tokens.Close()
		}
		return nil, err
	}
	return s, nil
}

// New wires a service around already opened dependencies. A nil runner
// means the git binary.
func New(config *Config, backend store.Backend, users *auth.Registry, tokens *auth.TokenManager, runner gitsync.Runner) (*Service, error) {
	tagger, err := newTagger(config)
	if err != nil {
		return nil, err
	}

	catalog := feeds.DefaultCatalog()
	if config.Feeds.Catalog != "" {
		if catalog, err = feeds.LoadCatalog(config.Feeds.Catalog); err != nil {
			return nil, err
		}
	}

	archive := csvfile.NewArchive(config.Data.ArchiveFile)

	syncCfg := config.Sync
	if len(syncCfg.Paths) == 0 {
		if csv, ok := backend.(*csvfile.Backend); ok {
			syncCfg.Paths = append(csv.Paths(), archive.Path())
		}
	}
	syncer, err := gitsync.New(syncCfg, runner)
	if err != nil {
		return nil, err
	}

	s := &Service{
		Config:  config,
		Store:   backend,
		Users:   users,
		Tokens:  tokens,
		Tagger:  tagger,
		Grader:  config.Scoring,
		Archive: archive,
		Syncer:  syncer,
		Briefer: briefing.New(config.Briefing),
		sync:    syncer,
		now:     time.Now,
	}

	if config.Sync.Interval != "" && syncer.Enabled() {
		s.Batcher, err = gitsync.NewBatcher(syncer, duration(config.Sync.Interval, gitsync.DefaultBatchInterval))
		if err != nil {
			return nil, err
		}
		s.sync = s.Batcher
	}

	fetcher := feeds.NewFetcher(duration(config.Feeds.Timeout, feeds.DefaultTimeout))
	fetcher.Excluded = catalog.ExcludedDomains
	if config.Feeds.Limit > 0 {
		fetcher.Limit = config.Feeds.Limit
	}
	if config.Feeds.Concurrency > 0 {
		fetcher.Concurrency = config.Feeds.Concurrency
	}
	s.Feeds = &feeds.Refresher{
		Fetcher: fetcher,
		Sources: catalog.Sources,
		Tagger:  tagger,
		Archive: archive,
		Sync:    s.sync,
		Now:     func() time.Time { return s.now() },
	}

	return s, nil
}

func newTagger(config *Config) (*subjects.Tagger, error) {
	categories := subjects.DefaultCategories
	if config.Subjects.Catalog != "" {
		loaded, err := subjects.LoadCatalog(config.Subjects.Catalog)
		if err != nil {
			return nil, err
		}
		categories = loaded
	}
	tagger, err := subjects.New(categories, config.Subjects.Policy)
	if err != nil {
		return nil, fmt.Errorf("failed to build subject tagger: %w", err)
	}
	return tagger, nil
}

// Subjects lists the subjects a log may carry: every tag plus the
// placeholder of rows that were never tagged.
func (s *Service) Subjects() []string {
	return append(s.Tagger.Subjects(), models.UnspecifiedSubject)
}

// SetClock replaces the wall clock, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) requestSync(message string) {
	if s.sync != nil {
		s.sync.RequestSync(message)
	}
}

// SubmitLog records a scholar's article review with an automatic score
// and subject and leaves it pending for an admin.
func (s *Service) SubmitLog(ctx context.Context, user, title, link, notes string) (models.LogEntry, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.LogEntry{}, fmt.Errorf("%w: title", ErrEmptyField)
	}

	entry := models.LogEntry{
		User:          user,
		Title:         title,
		Link:          strings.TrimSpace(link),
		Notes:         notes,
		Timestamp:     s.now().Truncate(time.Minute),
		PointsAwarded: s.Grader.AutoScore(notes),
		Subject:       s.Tagger.Tag(title),
		Status:        models.StatusPending,
	}
	if err := entry.Validate(); err != nil {
		return models.LogEntry{}, fmt.Errorf("invalid log: %w", err)
	}

	entries, err := s.Store.Logs().Append(entry)
	if err != nil {
		return models.LogEntry{}, fmt.Errorf("failed to save log: %w", err)
	}
	entry.Row = len(entries) - 1

	metrics.LogsSubmittedTotal.WithLabelValues(entry.Subject).Inc()
	metrics.LogPointsHistogram.Observe(float64(entry.PointsAwarded))
	logger.Info.Printf("Log submitted: %s", entry)

	s.requestSync(fmt.Sprintf("New log from %s", user))
	return entry, nil
}

// ReviewLog applies an admin's edits to one log. Points are clamped to 0..5.
func (s *Service) ReviewLog(ctx context.Context, admin string, row int, update models.ReviewUpdate) (*models.LogEntry, error) {
	if update.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrEmptyField)
	}
	if update.PointsAwarded != nil {
		p := scoring.ClampPoints(*update.PointsAwarded)
		update.PointsAwarded = &p
	}
	if update.Subject != nil && !slices.Contains(s.Subjects(), *update.Subject) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSubject, *update.Subject)
	}

	entry, err := s.Store.Logs().Review(row, update)
	if err != nil {
		return nil, err
	}

	metrics.ReviewsTotal.WithLabelValues(string(entry.Status)).Inc()
	logger.Info.Printf("Log reviewed by %s: %s", admin, entry)

	s.requestSync(fmt.Sprintf("Review of log %d by %s", row, admin))
	return entry, nil
}

// AwardBonus records a bonus from the catalog. minutes only matters for
// per-minute types.
func (s *Service) AwardBonus(ctx context.Context, admin, user, bonusType string, minutes int, notes string) (models.BonusEntry, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return models.BonusEntry{}, fmt.Errorf("%w: user", ErrEmptyField)
	}

	bt, points, err := scoring.BonusPoints(bonusType, minutes)
	if err != nil {
		return models.BonusEntry{}, err
	}

	entry := models.BonusEntry{
		User:      user,
		BonusType: bt.Name,
		Points:    points,
		Notes:     notes,
		Timestamp: s.now().Truncate(time.Minute),
		Admin:     admin,
	}
	if err := entry.Validate(); err != nil {
		return models.BonusEntry{}, fmt.Errorf("invalid bonus: %w", err)
	}
	if _, err := s.Store.Bonuses().Append(entry); err != nil {
		return models.BonusEntry{}, fmt.Errorf("failed to save bonus: %w", err)
	}

	metrics.BonusPointsAwarded.WithLabelValues(bt.Key).Add(float64(points))
	logger.Info.Printf("Bonus %q (%d pts) for %s by %s", bt.Name, points, user, admin)

	s.requestSync(fmt.Sprintf("Bonus for %s by %s", user, admin))
	return entry, nil
}

// SubmitQuestions stores a peer question set as a zero-point bonus row
// with no admin; an admin awards the points separately.
func (s *Service) SubmitQuestions(ctx context.Context, user, questions string) (models.BonusEntry, error) {
	questions = strings.TrimSpace(questions)
	if strings.TrimSpace(user) == "" || questions == "" {
		return models.BonusEntry{}, fmt.Errorf("%w: user and questions", ErrEmptyField)
	}

	entry := models.BonusEntry{
		User:      user,
		BonusType: scoring.QuestionSetBonus,
		Notes:     questions,
		Timestamp: s.now().Truncate(time.Minute),
	}
	if _, err := s.Store.Bonuses().Append(entry); err != nil {
		return models.BonusEntry{}, fmt.Errorf("failed to save questions: %w", err)
	}
	logger.Info.Printf("Question set submitted by %s", user)

	s.requestSync(fmt.Sprintf("Question set from %s", user))
	return entry, nil
}

// QuestionSets returns submitted question sets, newest first.
func (s *Service) QuestionSets() ([]models.BonusEntry, error) {
	bonuses, err := s.Store.Bonuses().Load()
	if err != nil {
		return nil, err
	}
	var sets []models.BonusEntry
	for _, b := range bonuses {
		if b.BonusType == scoring.QuestionSetBonus && b.Admin == "" {
			sets = append(sets, b)
		}
	}
	return aggregate.NewestBonusesFirst(sets), nil
}

func (s *Service) Summary() ([]models.ScholarSummary, error) {
	logs, err := s.Store.Logs().Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}
	bonuses, err := s.Store.Bonuses().Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load bonuses: %w", err)
	}
	return aggregate.Summarize(logs, bonuses), nil
}

// Logs returns the filtered log table, newest first.
func (s *Service) Logs(filter aggregate.Filter) ([]models.LogEntry, error) {
	logs, err := s.Store.Logs().Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}
	out := filter.Apply(logs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *Service) PendingLogs() ([]models.LogEntry, error) {
	logs, err := s.Store.Logs().Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}
	var pending []models.LogEntry
	for _, l := range logs {
		if l.Status == models.StatusPending {
			pending = append(pending, l)
		}
	}
	return pending, nil
}

func (s *Service) Bonuses() ([]models.BonusEntry, error) {
	bonuses, err := s.Store.Bonuses().Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load bonuses: %w", err)
	}
	return aggregate.NewestBonusesFirst(bonuses), nil
}

func (s *Service) RefreshHeadlines(ctx context.Context) (int, error) {
	added, err := s.Feeds.Refresh(ctx)
	if err != nil {
		return 0, err
	}
	metrics.HeadlinesArchived.Add(float64(added))
	return added, nil
}

// TodayHeadlines reads today's archived headlines, optionally by subject.
func (s *Service) TodayHeadlines(only []string) ([]models.Headline, error) {
	all, err := s.Archive.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load archive: %w", err)
	}
	return feeds.Today(all, s.now(), only), nil
}

func (s *Service) Brief(ctx context.Context, h models.Headline) string {
	return s.Briefer.Brief(ctx, h)
}

// StartBackground starts the sync batcher, the registry watcher and the
// scheduled RSS refresh. They stop when ctx is done or on Close.
func (s *Service) StartBackground(ctx context.Context) error {
	if s.Batcher != nil {
		s.Batcher.Start()
	}
	if s.Config.Auth.Watch && s.Users != nil {
		if err := s.Users.Watch(ctx); err != nil {
			return err
		}
	}

	if spec := s.Config.Feeds.RefreshSchedule; spec != "" {
		s.schedule = gocron.NewScheduler(time.Local)
		_, err := s.schedule.Cron(spec).Do(func() {
			if _, err := s.RefreshHeadlines(ctx); err != nil {
				logger.Error.Printf("Scheduled RSS refresh failed: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule RSS refresh: %w", err)
		}
		s.schedule.StartAsync()
	}
	return nil
}

func (s *Service) Close() error {
	var errs []error

	if s.schedule != nil {
		s.schedule.Stop()
	}
	if s.Batcher != nil {
		s.Batcher.Stop()
	}
	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if s.Tokens != nil {
		if err := s.Tokens.Close(); err != nil {
			errs = append(errs, fmt.Errorf("auth: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
