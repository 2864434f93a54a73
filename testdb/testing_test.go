package testdb

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/pgfixture/internal/platform/postgres"
)

// fakeTB captures the parts of testing.TB that Setup uses.
type fakeTB struct {
	testing.TB
	cleanups []func()
	errors   []string
	fatals   []string
}

func (f *fakeTB) Helper() {}

func (f *fakeTB) Cleanup(fn func()) { f.cleanups = append(f.cleanups, fn) }

func (f *fakeTB) Errorf(format string, args ...any) {
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
}

func (f *fakeTB) Fatalf(format string, args ...any) {
	f.fatals = append(f.fatals, fmt.Sprintf(format, args...))
}

// runCleanups runs registered cleanups last-in first-out, like testing does.
func (f *fakeTB) runCleanups() {
	for i := len(f.cleanups) - 1; i >= 0; i-- {
		f.cleanups[i]()
	}
}

func TestSetup_RegistersTeardown(t *testing.T) {
	srv := newFakeServer()
	var name string

	t.Run("scope", func(t *testing.T) {
		f := Setup(t, fakeBase, "migrations", withBackend(srv.backend()))
		name = f.Name()
		assert.True(t, srv.databases[name])
	})

	assert.False(t, srv.databases[name], "database should be dropped when the test ends")
	assert.Equal(t, 1, srv.rec.count("drop "+name))
}

func TestSetup_LogPolicyFailsTest(t *testing.T) {
	srv := newFakeServer()
	tb := &fakeTB{}

	f := Setup(tb, fakeBase, "migrations", withBackend(srv.backend()), WithTeardownPolicy(TeardownLog))
	require.NotNil(t, f)
	require.Len(t, tb.cleanups, 1)

	srv.dropErr = postgres.ErrDatabaseInUse
	assert.NotPanics(t, tb.runCleanups)
	require.Len(t, tb.errors, 1)
	assert.Contains(t, tb.errors[0], f.Name())
}

func TestSetup_PanicPolicy(t *testing.T) {
	srv := newFakeServer()
	tb := &fakeTB{}

	Setup(tb, fakeBase, "migrations", withBackend(srv.backend()))
	srv.terminateErr = postgres.ErrUnreachable

	assert.Panics(t, tb.runCleanups)
	assert.Empty(t, tb.errors)
}

func TestSetup_ConstructionFailureIsFatal(t *testing.T) {
	srv := newFakeServer()
	srv.createErr = postgres.ErrPermissionDenied
	tb := &fakeTB{}

	f := Setup(tb, fakeBase, "migrations", withBackend(srv.backend()))

	require.Len(t, tb.fatals, 1)
	assert.Contains(t, tb.fatals[0], "failed to create test database")
	assert.Nil(t, f)
	assert.Empty(t, tb.cleanups)
}
