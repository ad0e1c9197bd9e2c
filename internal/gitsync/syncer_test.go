package gitsync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	called := m.Called(strings.Join(args, " "))
	return called.String(0), called.Error(1)
}

func newSyncer(t *testing.T, runner Runner, enabled bool) *Syncer {
	t.Helper()
	dir := t.TempDir()
	s, err := New(Config{
		Enabled:    enabled,
		RepoDir:    dir,
		PendingDir: filepath.Join(dir, "pending_logs"),
		Paths:      []string{"scholar_logs.csv", "bonus_logs.csv"},
	}, runner)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC) }
	return s
}

const (
	statusCmd = "status --porcelain -- scholar_logs.csv bonus_logs.csv"
	addCmd    = "add -- scholar_logs.csv bonus_logs.csv"
)

func TestSync_Success(t *testing.T) {
	r := new(MockRunner)
	r.On("Run", statusCmd).Return(" M scholar_logs.csv\n", nil).Once()
	r.On("Run", addCmd).Return("", nil).Once()
	r.On("Run", "commit -m New log from gabe").Return("", nil).Once()
	r.On("Run", "push").Return("", nil).Once()

	s := newSyncer(t, r, true)
	require.NoError(t, s.Sync(context.Background(), "New log from gabe"))
	r.AssertExpectations(t)

	pending, err := s.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSync_CleanTreeSkips(t *testing.T) {
	r := new(MockRunner)
	r.On("Run", statusCmd).Return("", nil).Once()

	s := newSyncer(t, r, true)
	require.NoError(t, s.Sync(context.Background(), "noop"))
	r.AssertExpectations(t)
	r.AssertNotCalled(t, "Run", "push")
}

func TestSync_Disabled(t *testing.T) {
	r := new(MockRunner)
	s := newSyncer(t, r, false)

	require.NoError(t, s.Sync(context.Background(), "ignored"))
	r.AssertNotCalled(t, "Run", mock.Anything)

	var nilSyncer *Syncer
	assert.False(t, nilSyncer.Enabled())
	assert.NoError(t, nilSyncer.Sync(context.Background(), "x"))
}

func TestSync_FailureBuffersNote(t *testing.T) {
	r := new(MockRunner)
	r.On("Run", statusCmd).Return(" M bonus_logs.csv\n", nil)
	r.On("Run", addCmd).Return("", nil)
	r.On("Run", "commit -m Bonus for ana").Return("", nil)
	r.On("Run", "push").Return("", errors.New("no network")).Once()

	s := newSyncer(t, r, true)
	err := s.Sync(context.Background(), "Bonus for ana")
	require.Error(t, err)

	pending, err := s.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, strings.HasPrefix(pending[0], "git_buffer_20240305_143000_"))

	body, err := os.ReadFile(filepath.Join(s.pendingDir, pending[0]))
	require.NoError(t, err)
	assert.Equal(t, "FAILED GIT OPERATION\nMessage: Bonus for ana\nTime: 2024-03-05T14:30:00Z\n", string(body))
}

func TestResync(t *testing.T) {
	r := new(MockRunner)
	s := newSyncer(t, r, false)

	require.NoError(t, os.MkdirAll(s.pendingDir, 0o755))
	for _, name := range []string{"git_buffer_20240305_100000_aaaaaaaa.txt", "git_buffer_20240306_100000_bbbbbbbb.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(s.pendingDir, name), []byte("FAILED GIT OPERATION\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.pendingDir, "README"), []byte("keep"), 0o644))

	r.On("Run", statusCmd).Return(" M scholar_logs.csv\n", nil).Once()
	r.On("Run", addCmd).Return("", nil).Once()
	r.On("Run", "commit -m Resync: git_buffer_20240305_100000_aaaaaaaa.txt").Return("", nil).Once()
	r.On("Run", "push").Return("", nil).Once()
	// second note: already committed, push fails again
	r.On("Run", statusCmd).Return("", nil).Once()
	r.On("Run", "push").Return("", errors.New("rejected")).Once()

	done, err := s.Resync(context.Background())
	assert.Equal(t, 1, done)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git_buffer_20240306_100000_bbbbbbbb.txt")
	r.AssertExpectations(t)

	pending, err := s.Pending()
	require.NoError(t, err)
	assert.Equal(t, []string{"git_buffer_20240306_100000_bbbbbbbb.txt"}, pending)
	_, err = os.Stat(filepath.Join(s.pendingDir, "README"))
	assert.NoError(t, err)
}

func TestResync_NothingPending(t *testing.T) {
	s := newSyncer(t, new(MockRunner), true)
	done, err := s.Resync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, done)
}

func TestPushWithRemoteAndBranch(t *testing.T) {
	r := new(MockRunner)
	r.On("Run", "status --porcelain -- .").Return("?? x\n", nil)
	r.On("Run", "add -- .").Return("", nil)
	r.On("Run", "commit -m m").Return("", nil)
	r.On("Run", "push origin main").Return("", nil).Once()

	s, err := New(Config{Enabled: true, RepoDir: t.TempDir(), Remote: "origin", Branch: "main"}, r)
	require.NoError(t, err)
	require.NoError(t, s.Sync(context.Background(), "m"))
	r.AssertExpectations(t)
}

func TestNew_InvalidTimeout(t *testing.T) {
	_, err := New(Config{Timeout: "soon"}, nil)
	assert.Error(t, err)
}

func TestBatcher_CoalescesRequests(t *testing.T) {
	r := new(MockRunner)
	r.On("Run", statusCmd).Return(" M scholar_logs.csv\n", nil).Once()
	r.On("Run", addCmd).Return("", nil).Once()
	r.On("Run", mock.MatchedBy(func(cmd string) bool {
		return strings.HasPrefix(cmd, "commit -m Batch sync (2 changes)")
	})).Return("", nil).Once()
	r.On("Run", "push").Return("", nil).Once()

	s := newSyncer(t, r, true)
	b, err := NewBatcher(s, time.Hour)
	require.NoError(t, err)

	b.RequestSync("New log from gabe")
	b.RequestSync("New log from ana")
	assert.Equal(t, 2, b.Queued())

	b.Flush()
	assert.Equal(t, 0, b.Queued())
	b.Flush()
	r.AssertExpectations(t)
}

func TestBatcher_DisabledDropsRequests(t *testing.T) {
	s := newSyncer(t, new(MockRunner), false)
	b, err := NewBatcher(s, 0)
	require.NoError(t, err)

	b.RequestSync("ignored")
	assert.Equal(t, 0, b.Queued())
}
