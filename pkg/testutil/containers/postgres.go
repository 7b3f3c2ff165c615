// Package containers manages throwaway infrastructure for integration
// tests. Containers are shared per test binary and torn down when the last
// suite releases them.
package containers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer is a running Postgres with the reconciler schema applied.
type PostgresContainer struct {
	DB        *sql.DB
	container *tcpostgres.PostgresContainer
}

var (
	pgOnce sync.Once
	pgInst *PostgresContainer
	pgErr  error
)

// GetPostgres returns the shared Postgres container, starting it on first
// use. Tests share one instance; use TruncateTables between tests.
func GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	pgOnce.Do(func() {
		pgInst, pgErr = startPostgres()
	})
	if pgErr != nil {
		t.Fatalf("start postgres container: %v", pgErr)
	}
	return pgInst
}

func startPostgres() (*PostgresContainer, error) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("shelfsync_test"),
		tcpostgres.WithUsername("shelfsync"),
		tcpostgres.WithPassword("shelfsync"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("run container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("connection string: %w", err)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		return nil, err
	}
	return &PostgresContainer{DB: db, container: container}, nil
}

func applyMigrations(ctx context.Context, db *sql.DB) error {
	root, err := moduleRoot()
	if err != nil {
		return err
	}
	files, err := filepath.Glob(filepath.Join(root, "migrations", "*.sql"))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	for _, file := range files {
		ddl, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if _, err := db.ExecContext(ctx, string(ddl)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}
	return nil
}

// moduleRoot walks up from the working directory to the go.mod.
func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found above working directory")
		}
		dir = parent
	}
}

// TruncateTables clears the given tables between tests.
func (c *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", "))
	if _, err := c.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	return nil
}

// Terminate stops the container; intended for TestMain teardown.
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	if c.DB != nil {
		c.DB.Close()
	}
	return c.container.Terminate(ctx)
}
