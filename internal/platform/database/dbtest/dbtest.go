// Package dbtest provides a migrated PostgreSQL database for integration tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"equip-manager/internal/platform/database"
)

const postgresImage = "postgres:16-alpine"

var (
	sharedOnce sync.Once
	sharedDB   *sql.DB
	sharedErr  error
)

// DB returns a shared database with migrations applied. PG_DSN selects an
// existing server; otherwise a container is started once per test binary.
//
// go test runs package binaries concurrently, so against PG_DSN every
// package migrates and truncates its own schema (see packageSchema). Run
// with -p 1 when the role cannot create schemas.
func DB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("PG_DSN")
	if dsn == "" && testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedOnce.Do(func() {
		sharedDB, sharedErr = setup(dsn)
	})
	if sharedErr != nil {
		t.Skipf("postgres unavailable: %v", sharedErr)
	}
	Truncate(t, sharedDB)
	return sharedDB
}

// Truncate empties every table in the search path's schema. It never
// reaches another package's schema.
func Truncate(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `TRUNCATE audit_logs, certificates, measurement_points, equipment,
		acceptance_criteria, uncertainty_services, statuses, test_natures, point_classifications, units,
		installations, sites, equipment_types, equipment_models, manufacturers RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func setup(dsn string) (*sql.DB, error) {
	ctx := context.Background()
	if dsn == "" {
		var err error
		dsn, err = startContainer(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		dsn, err = isolate(ctx, dsn, packageSchema())
		if err != nil {
			return nil, err
		}
	}
	db, err := database.Open(ctx, dsn, database.Options{MaxOpenConns: 5})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, zap.NewNop()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// packageSchema names a schema after the package directory the test binary
// runs in.
func packageSchema() string {
	wd, _ := os.Getwd()
	h := fnv.New32a()
	_, _ = h.Write([]byte(wd))
	return fmt.Sprintf("test_%08x", h.Sum32())
}

// isolate creates schema and returns dsn with its search path pinned there.
func isolate(ctx context.Context, dsn, schema string) (string, error) {
	db, err := database.Open(ctx, dsn, database.Options{MaxOpenConns: 1})
	if err != nil {
		return "", err
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
		return "", fmt.Errorf("create schema %s: %w", schema, err)
	}
	return withSearchPath(dsn, schema)
}

func withSearchPath(dsn, schema string) (string, error) {
	if !strings.Contains(dsn, "://") {
		return dsn + " search_path=" + schema, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse PG_DSN: %w", err)
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func startContainer(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "equipment_test",
			"POSTGRES_USER":     "equipment",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start test container: %w", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("failed to get container port: %w", err)
	}
	return fmt.Sprintf("postgres://equipment:test_password@%s:%s/equipment_test?sslmode=disable", host, port.Port()), nil
}
