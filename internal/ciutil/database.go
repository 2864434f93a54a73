package ciutil

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

const (
	// StandardAdminDatabase is the system database used for administrative connections.
	StandardAdminDatabase = "postgres"

	// StandardCIOptions contains standard connection options for CI environments
	StandardCIOptions = "sslmode=disable"
)

// ErrUnsupportedScheme is returned when a database URL is not a PostgreSQL URL.
var ErrUnsupportedScheme = errors.New("unsupported database URL scheme")

// GetAdminDatabaseURL returns the administrative base endpoint for fixtures.
// It checks the following environment variables in order:
// 1. PGFIXTURE_ADMIN_URL (preferred, already a base endpoint)
// 2. DATABASE_URL (any database path is stripped)
//
// In CI the standard connection options are added when the URL carries none.
// If no environment variable is set, it returns an empty string.
func GetAdminDatabaseURL(logger *slog.Logger) string {
	envVars := []string{EnvAdminURL, EnvDatabaseURL}
	dbURL := GetEnvWithFallbacks(envVars, "", logger)
	if dbURL == "" {
		if logger != nil {
			logger.Info("No admin database URL environment variables found")
		}
		return ""
	}

	base, err := AdminBaseURL(dbURL)
	if err != nil {
		if logger != nil {
			logger.Error("Failed to derive admin base URL",
				"error", err,
				"original_url", MaskSensitiveValue(dbURL),
			)
		}
		return dbURL
	}

	if IsCI() {
		base = standardizeForCI(base)
	}

	if base != dbURL && logger != nil {
		logger.Debug("Derived admin base URL",
			"original", MaskSensitiveValue(dbURL),
			"base", MaskSensitiveValue(base),
		)
	}

	return base
}

// AdminBaseURL strips the database name from a PostgreSQL URL so that it can be
// used as a server base endpoint. Query parameters are preserved.
func AdminBaseURL(dbURL string) (string, error) {
	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}

	if parsedURL.Scheme != "postgres" && parsedURL.Scheme != "postgresql" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, parsedURL.Scheme)
	}

	if strings.Trim(parsedURL.Path, "/") == "" && !strings.HasSuffix(parsedURL.Path, "/") {
		return dbURL, nil
	}

	parsedURL.Path = ""
	parsedURL.RawPath = ""
	return parsedURL.String(), nil
}

// standardizeForCI appends the standard CI options when the URL has none.
func standardizeForCI(base string) string {
	if strings.Contains(base, "?") {
		return base
	}
	return base + "?" + StandardCIOptions
}

// JoinDatabase selects database name on a base endpoint: base + "/" + name.
// A trailing slash on base is not doubled and any query string is kept after the path.
func JoinDatabase(base, name string) string {
	query := ""
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base, query = base[:i], base[i:]
	}
	return strings.TrimSuffix(base, "/") + "/" + name + query
}
