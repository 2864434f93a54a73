// Package testutils provides shared helpers for this module's tests.
//
// TestSlogHandler records slog output in memory so tests can assert on the
// lifecycle events a fixture logs:
//
//	logger, handler := testutils.NewTestLogger()
//	f, err := testdb.New(url, dir, testdb.WithLogger(logger))
//	entry, ok := handler.Find("fixture database ready")
package testutils
