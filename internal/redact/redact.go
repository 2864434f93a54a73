// Package redact provides utilities for redacting sensitive information from strings
// before they are logged or embedded in error messages. Connection URLs handed to the
// fixture manager carry credentials, and driver errors can echo them back, so every
// diagnostic that leaves the fixture passes through this package.
package redact

import (
	"regexp"
)

// Constants for redaction placeholders
const (
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedHostPlaceholder       = "[REDACTED_HOST]"
)

// replacement pairs a compiled pattern with its replacement template.
type replacement struct {
	pattern *regexp.Regexp
	with    string
}

var (
	// userinfo in connection URLs: keep scheme and user, drop the password
	dbURLPasswordRegex = regexp.MustCompile(`(?i)\b(postgres(?:ql)?|mysql|mongodb)://([^:/@\s]+):[^@\s]+@`)

	// keyword/value DSN parameters and prose forms
	passwordRegex = regexp.MustCompile(`(?i)\b(password|passwd|pwd)(\s*[=:]\s*['"]?)[^'"&\s]{1,}`)
	apiKeyRegex   = regexp.MustCompile(
		`(?i)\b(api[_-]?key|token|secret)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	// File paths
	unixPathRegex = regexp.MustCompile(`(/[\w.-]+){2,}`)

	// host:port pairs
	hostPortRegex = regexp.MustCompile(
		`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`,
	)

	credentialReplacements = []replacement{
		{dbURLPasswordRegex, "${1}://${2}:" + RedactedCredentialPlaceholder + "@"},
		{passwordRegex, "${1}${2}" + RedactedCredentialPlaceholder},
		{apiKeyRegex, "${1}${2}" + RedactedKeyPlaceholder},
	}

	fullReplacements = append(append([]replacement{}, credentialReplacements...),
		replacement{unixPathRegex, RedactedPathPlaceholder},
		replacement{hostPortRegex, RedactedHostPlaceholder},
	)
)

// Credentials removes passwords, keys and tokens from input while keeping
// hosts, paths and database names intact for diagnostics.
func Credentials(input string) string {
	return apply(input, credentialReplacements)
}

// String redacts credentials, file paths and host names from input.
func String(input string) string {
	return apply(input, fullReplacements)
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}

func apply(input string, replacements []replacement) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range replacements {
		result = r.pattern.ReplaceAllString(result, r.with)
	}
	return result
}
