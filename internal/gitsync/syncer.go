// Package gitsync pushes data file changes to a git remote. Sync is best
// effort: a failed run leaves a note in the pending directory that Resync
// replays later.
package gitsync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/pulverlogic/newsboard/internal/metrics"
)

const (
	DefaultPendingDir = "pending_logs"
	bufferPrefix      = "git_buffer_"
	bufferTimeLayout  = "20060102_150405"
)

type Config struct {
	Enabled    bool     `toml:"enabled"`
	RepoDir    string   `toml:"repo_dir"`
	PendingDir string   `toml:"pending_dir"`
	Paths      []string `toml:"paths"`
	Remote     string   `toml:"remote"`
	Branch     string   `toml:"branch"`
	Timeout    string   `toml:"timeout"`
	Interval   string   `toml:"batch_interval"`
}

type Syncer struct {
	runner     Runner
	dir        string
	pendingDir string
	paths      []string
	remote     string
	branch     string
	enabled    bool
	timeout    time.Duration
	now        func() time.Time

	mu sync.Mutex
}

func New(cfg Config, runner Runner) (*Syncer, error) {
	if runner == nil {
		runner = ExecRunner{}
	}
	dir := cfg.RepoDir
	if dir == "" {
		dir = "."
	}
	pending := cfg.PendingDir
	if pending == "" {
		pending = filepath.Join(dir, DefaultPendingDir)
	}
	paths := cfg.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}

	timeout := time.Minute
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid sync timeout %q: %w", cfg.Timeout, err)
		}
		timeout = d
	}

	return &Syncer{
		runner:     runner,
		dir:        dir,
		pendingDir: pending,
		paths:      paths,
		remote:     cfg.Remote,
		branch:     cfg.Branch,
		enabled:    cfg.Enabled,
		timeout:    timeout,
		now:        time.Now,
	}, nil
}

func (s *Syncer) Enabled() bool {
	return s != nil && s.enabled
}

// Sync commits and pushes the tracked paths. It is a no-op when disabled
// or when the working tree is clean. On failure the change is buffered
// and the error returned.
func (s *Syncer) Sync(ctx context.Context, message string) error {
	if !s.Enabled() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	committed, err := s.commit(ctx, message)
	if err == nil && committed {
		err = s.push(ctx)
	}
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues("failed").Inc()
		if note, bufErr := s.buffer(message); bufErr != nil {
			logger.Error.Printf("Failed to buffer sync note: %v", bufErr)
		} else {
			logger.Info.Printf("Sync failed, change buffered to %s", note)
		}
		return err
	}

	if committed {
		metrics.SyncRunsTotal.WithLabelValues("pushed").Inc()
	} else {
		metrics.SyncRunsTotal.WithLabelValues("clean").Inc()
	}
	return nil
}

// RequestSync runs Sync in the caller's goroutine and only logs failures.
func (s *Syncer) RequestSync(message string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeoutOrDefault())
	defer cancel()
	if err := s.Sync(ctx, message); err != nil {
		logger.Error.Printf("Sync %q failed: %v", message, err)
	}
}

func (s *Syncer) timeoutOrDefault() time.Duration {
	if s == nil || s.timeout <= 0 {
		return time.Minute
	}
	return s.timeout
}

// commit reports false when there was nothing to commit.
func (s *Syncer) commit(ctx context.Context, message string) (bool, error) {
	dirty, err := s.dirty(ctx)
	if err != nil {
		return false, err
	}
	if !dirty {
		logger.Debug.Printf("Nothing to commit for %q", message)
		return false, nil
	}

	if _, err := s.runner.Run(ctx, s.dir, append([]string{"add", "--"}, s.paths...)...); err != nil {
		return false, err
	}
	if _, err := s.runner.Run(ctx, s.dir, "commit", "-m", message); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Syncer) dirty(ctx context.Context) (bool, error) {
	out, err := s.runner.Run(ctx, s.dir, append([]string{"status", "--porcelain", "--"}, s.paths...)...)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

func (s *Syncer) push(ctx context.Context) error {
	args := []string{"push"}
	if s.remote != "" {
		args = append(args, s.remote)
		if s.branch != "" {
			args = append(args, s.branch)
		}
	}
	_, err := s.runner.Run(ctx, s.dir, args...)
	return err
}

func (s *Syncer) buffer(message string) (string, error) {
	if err := os.MkdirAll(s.pendingDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", s.pendingDir, err)
	}

	now := s.now()
	name := fmt.Sprintf("%s%s_%s.txt", bufferPrefix, now.Format(bufferTimeLayout), uuid.NewString()[:8])
	path := filepath.Join(s.pendingDir, name)
	body := fmt.Sprintf("FAILED GIT OPERATION\nMessage: %s\nTime: %s\n", message, now.Format(time.RFC3339))

	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Pending lists buffered notes in replay order.
func (s *Syncer) Pending() ([]string, error) {
	entries, err := os.ReadDir(s.pendingDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.pendingDir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), bufferPrefix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Resync replays every buffered note and removes the ones that went
// through. It works even when sync is disabled for the web process, and
// returns how many notes were cleared.
func (s *Syncer) Resync(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.Pending()
	if err != nil {
		return 0, err
	}
	if len(names) == 0 {
		logger.Info.Println("No pending logs to resync")
		return 0, nil
	}

	var errs []error
	done := 0
	for _, name := range names {
		// a note may stand for a commit that landed locally but never got pushed
		_, err := s.commit(ctx, "Resync: "+name)
		if err == nil {
			err = s.push(ctx)
		}
		if err != nil {
			logger.Error.Printf("Failed to resync %s: %v", name, err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if err := os.Remove(filepath.Join(s.pendingDir, name)); err != nil {
			errs = append(errs, err)
			continue
		}
		logger.Info.Printf("Resynced and removed %s", name)
		done++
	}
	return done, errors.Join(errs...)
}
