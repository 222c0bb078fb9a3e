//go:build integration

package uritemplate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgresContainer starts an ephemeral PostgreSQL and returns its DSN.
func setupPostgresContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15",
		postgres.WithDatabase("uritemplate_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")
	return connStr
}

func TestPostgresStorage_E2E(t *testing.T) {
	connStr := setupPostgresContainer(t)

	// each subtest gets its own tables so the shared contract starts empty
	var counter int
	runStorageContract(t, func(t *testing.T) TemplateStorage {
		counter++
		storage, err := NewPostgresStorage(PostgresConfig{
			ConnectionString: connStr,
			TablePrefix:      "t" + string(rune('a'+counter)) + "_",
			AutoMigrate:      true,
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = storage.Close() })
		return storage
	})
}

func TestPostgresStorage_Migrations(t *testing.T) {
	connStr := setupPostgresContainer(t)
	ctx := context.Background()

	storage, err := NewPostgresStorage(PostgresConfig{ConnectionString: connStr, AutoMigrate: true})
	require.NoError(t, err)
	defer storage.Close()

	version, err := storage.CurrentSchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(storage.migrations()), version)

	// re-running is a no-op
	require.NoError(t, storage.RunMigrations(ctx))
	again, err := storage.CurrentSchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, version, again)
}

func TestPostgresStorage_DriverAndCatalog(t *testing.T) {
	connStr := setupPostgresContainer(t)
	ctx := context.Background()

	storage, err := OpenStorage(StorageDriverNamePostgres, connStr)
	require.NoError(t, err)
	defer storage.Close()

	catalog := NewCatalog(MustNew(), storage)
	_, err = catalog.Publish(ctx, "repos.issues", "/repos/{owner}/{repo}/issues{?state,labels}")
	require.NoError(t, err)

	uri, err := catalog.Expand(ctx, "repos.issues", map[string]any{
		"owner":  "octo",
		"repo":   "hello world",
		"state":  "open",
		"labels": []string{"bug", "ui"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/repos/octo/hello%20world/issues?state=open&labels=bug,ui", uri)
}

func TestPostgresStorage_CloseTwice(t *testing.T) {
	connStr := setupPostgresContainer(t)

	storage, err := NewPostgresStorage(PostgresConfig{ConnectionString: connStr, AutoMigrate: true})
	require.NoError(t, err)

	require.NoError(t, storage.Close())
	err = storage.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgPostgresAlreadyClosed)
}
