// Package migrations holds the embedded SQL schema for the document tables.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var fs embed.FS

// Run applies all pending migrations against db.
func Run(db *sql.DB) error {
	return RunWithLogger(db, nil)
}

// RunWithLogger is Run with goose progress routed to logger. A nil logger
// silences goose.
func RunWithLogger(db *sql.DB, logger *slog.Logger) error {
	goose.SetBaseFS(fs)
	if logger == nil {
		goose.SetLogger(goose.NopLogger())
	} else {
		goose.SetLogger(slogAdapter{logger})
	}

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Version reports the schema version currently applied to db.
func Version(db *sql.DB) (int64, error) {
	goose.SetBaseFS(fs)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, fmt.Errorf("setting dialect: %w", err)
	}
	return goose.GetDBVersion(db)
}

type slogAdapter struct{ logger *slog.Logger }

func (a slogAdapter) Printf(format string, v ...any) {
	a.logger.Info("migrate", "msg", fmt.Sprintf(format, v...))
}

func (a slogAdapter) Fatalf(format string, v ...any) {
	a.logger.Error("migrate", "msg", fmt.Sprintf(format, v...))
	os.Exit(1)
}
