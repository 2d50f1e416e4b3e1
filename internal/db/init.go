package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/RezaEskandarii/gohire/internal/constants"
	"github.com/RezaEskandarii/gohire/internal/lock"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, postgresURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURL)
	if err != nil {
		return nil, err
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Init opens a connection, runs the migrations and closes it again.
func Init(ctx context.Context, postgresURL string, distributedLock lock.DistributedLockManager, log logrus.FieldLogger) error {
	db, err := Open(ctx, postgresURL)
	if err != nil {
		return err
	}
	defer db.Close()

	return Migrate(ctx, db, distributedLock, log)
}

// Migrate creates the schema and applies every embedded script in file-name order.
// Scripts are idempotent; the migration lock keeps concurrent instances from racing on DDL.
func Migrate(ctx context.Context, db *sql.DB, distributedLock lock.DistributedLockManager, log logrus.FieldLogger) error {
	if err := distributedLock.Acquire(ctx, constants.MigrationLock); err != nil {
		return err
	}
	defer distributedLock.Release(ctx, constants.MigrationLock)

	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", constants.Schema)); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	scripts, err := readSQLScripts()
	if err != nil {
		return err
	}
	for _, script := range scripts {
		log.WithField("script", script.name).Debug("applying migration")
		if _, err := db.ExecContext(ctx, script.body); err != nil {
			return fmt.Errorf("migration %s: %w", script.name, err)
		}
	}
	return nil
}

type sqlScript struct {
	name string
	body string
}

func readSQLScripts() ([]sqlScript, error) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	scripts := make([]sqlScript, 0, len(names))
	for _, name := range names {
		content, err := migrations.ReadFile(name)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, sqlScript{name: name, body: string(content)})
	}
	return scripts, nil
}
