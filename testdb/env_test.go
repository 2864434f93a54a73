package testdb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/pgfixture/internal/testutils"
)

// fixtureEnvVars are the variables NewFromEnv can read, directly or through
// project root detection.
var fixtureEnvVars = []string{
	"PGFIXTURE_DATABASE_ADMIN_URL",
	"PGFIXTURE_DATABASE_ADMIN_DATABASE",
	"PGFIXTURE_DATABASE_MAX_CONNS",
	"PGFIXTURE_DATABASE_CONNECT_ATTEMPTS",
	"PGFIXTURE_FIXTURE_MIGRATIONS_DIR",
	"PGFIXTURE_FIXTURE_NAME_PREFIX",
	"PGFIXTURE_FIXTURE_MIGRATION_TABLE",
	"PGFIXTURE_FIXTURE_DROP_ON_FAILURE",
	"PGFIXTURE_FIXTURE_TEARDOWN_POLICY",
	"PGFIXTURE_FIXTURE_TIMEOUT",
	"PGFIXTURE_LOG_LEVEL",
	"PGFIXTURE_ADMIN_URL",
	"PGFIXTURE_CONFIG",
	"PGFIXTURE_PROJECT_ROOT",
	"DATABASE_URL",
	"CI",
	"GITHUB_ACTIONS",
	"GITHUB_WORKSPACE",
	"GITLAB_CI",
	"CI_PROJECT_DIR",
}

func setupFixtureEnv(t *testing.T, envVars map[string]string) {
	t.Helper()
	for _, name := range fixtureEnvVars {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
	for name, value := range envVars {
		t.Setenv(name, value)
	}
}

func TestNewFromEnv(t *testing.T) {
	setupFixtureEnv(t, map[string]string{
		"PGFIXTURE_DATABASE_ADMIN_URL":     fakeBase,
		"PGFIXTURE_FIXTURE_MIGRATIONS_DIR": "testdata/migrations",
		"PGFIXTURE_FIXTURE_NAME_PREFIX":    "env_",
		"PGFIXTURE_FIXTURE_TIMEOUT":        "3s",
	})

	srv := newFakeServer()
	f, err := NewFromEnv(withBackend(srv.backend()))
	require.NoError(t, err)
	require.NotNil(t, f)

	assert.Regexp(t, `^env_[0-9a-f_]{36}$`, f.Name())
	assert.Equal(t, 3*time.Second, f.settings.timeout)
	assert.Equal(t, []string{fakeBase + "/postgres"}, srv.adminURLs)

	var migrateCall string
	for _, call := range srv.rec.list() {
		if strings.HasPrefix(call, "migrate ") {
			migrateCall = call
		}
	}
	fields := strings.Fields(migrateCall)
	require.Len(t, fields, 3)
	assert.True(t, filepath.IsAbs(fields[1]), "migrations dir %q should be absolute", fields[1])
	assert.True(t, strings.HasSuffix(fields[1], filepath.Join("testdata", "migrations")))
}

func TestNewFromEnv_MissingMigrationsDir(t *testing.T) {
	setupFixtureEnv(t, map[string]string{
		"PGFIXTURE_DATABASE_ADMIN_URL":     fakeBase,
		"PGFIXTURE_FIXTURE_MIGRATIONS_DIR": "testdata/does-not-exist",
	})

	srv := newFakeServer()
	f, err := NewFromEnv(withBackend(srv.backend()))
	require.Error(t, err)
	assert.Nil(t, f)
	assert.Contains(t, err.Error(), "migrations directory not found")
	assert.Empty(t, srv.rec.list())
}

func TestNewFromEnv_MissingAdminURL(t *testing.T) {
	setupFixtureEnv(t, map[string]string{
		"PGFIXTURE_FIXTURE_MIGRATIONS_DIR": "testdata/migrations",
	})

	srv := newFakeServer()
	f, err := NewFromEnv(withBackend(srv.backend()))
	require.Error(t, err)
	assert.Nil(t, f)
	assert.Empty(t, srv.rec.list())
}

func TestNewFromEnv_UsesConfiguredLogger(t *testing.T) {
	// Relative to the module root, so it only resolves through project root detection.
	setupFixtureEnv(t, map[string]string{
		"PGFIXTURE_DATABASE_ADMIN_URL":     fakeBase,
		"PGFIXTURE_FIXTURE_MIGRATIONS_DIR": filepath.Join("testdb", "testdata", "migrations"),
	})

	log, handler := testutils.NewTestLogger()
	srv := newFakeServer()
	f, err := NewFromEnv(withBackend(srv.backend()), WithLogger(log))
	require.NoError(t, err)
	require.NotNil(t, f)

	entry, ok := handler.Find("Resolved migrations directory path")
	require.True(t, ok, "logged: %v", handler.Messages())
	path, ok := entry["migrations_path"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(path, filepath.Join("testdb", "testdata", "migrations")))
}
