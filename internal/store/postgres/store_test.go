package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pulverlogic/newsboard/internal/models"
	"github.com/pulverlogic/newsboard/internal/store"
)

// setupTestDB starts a throwaway Postgres container and applies the migrations
func setupTestDB(t *testing.T) (*PostgresStore, func()) {
	if testing.Short() {
		t.Skip("postgres container tests are skipped in -short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("docker is not available: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgresStore(dsn, "../../../migrations")
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		s.Close()
		container.Terminate(ctx)
	}

	return s, cleanup
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "WHERE a = $1 AND b = $2", rebind("WHERE a = ? AND b = ?"))
}

func TestPostgresLogs(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local)

	_, err := s.Logs().Append(models.LogEntry{User: "gabe", Title: "Senate passes bill", PointsAwarded: 3, Timestamp: now, Status: models.StatusPending})
	require.NoError(t, err)
	entries, err := s.Logs().Append(models.LogEntry{User: "gabe", Title: "Court strikes law", PointsAwarded: 1, Timestamp: now, Status: models.StatusPending})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[1].Row)

	t.Run("review", func(t *testing.T) {
		points := 4
		subject := "The Judicial Branch"
		got, err := s.Logs().Review(1, models.ReviewUpdate{PointsAwarded: &points, Subject: &subject})
		require.NoError(t, err)
		assert.Equal(t, 4, got.PointsAwarded)
		assert.Equal(t, subject, got.Subject)
	})

	t.Run("review missing row", func(t *testing.T) {
		points := 4
		_, err := s.Logs().Review(2, models.ReviewUpdate{PointsAwarded: &points})
		assert.ErrorIs(t, err, store.ErrRowNotFound)
	})
}

func TestPostgresBonuses(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	bonus := models.BonusEntry{User: "ana", BonusType: "Current events meme", Points: 1, Admin: "pulver"}
	entries, err := s.Bonuses().Append(bonus)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ana", entries[0].User)
	assert.Equal(t, 1, entries[0].Points)
}
