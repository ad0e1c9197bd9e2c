package app

import (
	"fmt"
	"strings"

	"github.com/pulverlogic/newsboard/internal/store"
	"github.com/pulverlogic/newsboard/internal/store/csvfile"
	"github.com/pulverlogic/newsboard/internal/store/postgres"
	"github.com/pulverlogic/newsboard/internal/store/sqlite"
)

func DatabaseTypeFor(dsn string) store.DatabaseType {
	switch {
	case dsn == "":
		return store.DBTypeCSV
	case strings.HasPrefix(dsn, "postgres"):
		return store.DBTypePostgres
	default:
		return store.DBTypeSQLite
	}
}

// NewStore picks the backend from the DSN: none means the CSV files.
func NewStore(config *Config) (store.Backend, error) {
	dsn := config.Data.DSN

	switch DatabaseTypeFor(dsn) {
	case store.DBTypeCSV:
		return csvfile.New(config.Data.LogsFile, config.Data.BonusFile), nil
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(dsn, config.Data.MigrationsDir)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(dsn, config.Data.MigrationsDir)
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", dsn)
	}
}
