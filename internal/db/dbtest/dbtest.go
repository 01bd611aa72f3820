// Package dbtest starts a disposable PostgreSQL container for integration
// tests of the Postgres repositories.
package dbtest

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/onnwee/venuefinder/internal/db"
)

// Image is the PostgreSQL image used by integration tests.
const Image = "postgres:16-alpine"

// Open returns a connection to a database with the schema applied.
//
// If DATABASE_URL is set it is used directly; otherwise a container is started
// and terminated when the test finishes. The test is skipped when neither is
// available.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		ctr, err := postgres.Run(ctx, Image,
			postgres.WithDatabase("venuefinder"),
			postgres.WithUsername("venuefinder"),
			postgres.WithPassword("venuefinder"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			t.Skipf("postgres container unavailable: %v", err)
		}
		t.Cleanup(func() {
			if err := testcontainers.TerminateContainer(ctr); err != nil {
				t.Logf("failed to terminate container: %v", err)
			}
		})

		dsn, err = ctr.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("failed to get connection string: %v", err)
		}
	}

	conn, err := db.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.EnsureSchema(ctx, conn); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	for _, table := range []string{"user_feature_prefs", "profiles", "venue_features", "features", "venues", "feedback"} {
		if _, err := conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("failed to reset %s: %v", table, err)
		}
	}
	return conn
}
