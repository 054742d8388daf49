package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	pingAttempts = 30
	pingInterval = 500 * time.Millisecond
)

// MigrateUp applies every pending migration. It is a no-op when the schema
// is current.
func MigrateUp(ctx context.Context, dsn string) error {
	return withMigrator(ctx, dsn, func(m *migrate.Migrate) error {
		return m.Up()
	})
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, dsn string) error {
	return withMigrator(ctx, dsn, func(m *migrate.Migrate) error {
		return m.Steps(-1)
	})
}

// SchemaVersion returns the applied migration version and whether the last
// migration failed half way.
func SchemaVersion(ctx context.Context, dsn string) (version uint, dirty bool, err error) {
	err = withMigrator(ctx, dsn, func(m *migrate.Migrate) error {
		var verr error
		version, dirty, verr = m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return nil
		}

		return verr
	})

	return version, dirty, err
}

func withMigrator(ctx context.Context, dsn string, run func(*migrate.Migrate) error) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	sqldb, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening sql db: %w", err)
	}
	defer sqldb.Close()

	if err := waitForDB(ctx, sqldb); err != nil {
		return err
	}

	driver, err := migratepgx.WithInstance(sqldb, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("migration init: %w", err)
	}
	defer m.Close()

	if err := run(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating: %w", err)
	}

	return nil
}

// waitForDB retries the first ping; a freshly started container may not
// accept connections yet.
func waitForDB(ctx context.Context, db *sql.DB) error {
	var err error
	for range pingAttempts {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("pinging database: %w", ctx.Err())
		case <-time.After(pingInterval):
		}
	}

	return fmt.Errorf("pinging database: %w", err)
}
