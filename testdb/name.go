package testdb

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/phrazzld/pgfixture/internal/ciutil"
)

// DefaultNamePrefix starts every generated fixture database name.
const DefaultNamePrefix = "test_db_"

const (
	// maxIdentifierLength is PostgreSQL's NAMEDATALEN-1; longer names are truncated by the server.
	maxIdentifierLength = 63
	nameTokenLength     = 36

	// MaxNamePrefixLength is the longest prefix whose generated names the server keeps intact.
	MaxNamePrefixLength = maxIdentifierLength - nameTokenLength
)

// ErrNamePrefixTooLong is returned when a prefix would push generated names past
// the server's identifier limit.
var ErrNamePrefixTooLong = fmt.Errorf("name prefix longer than %d bytes", MaxNamePrefixLength)

func validatePrefix(prefix string) error {
	if len(prefix) > MaxNamePrefixLength {
		return fmt.Errorf("%w: %q is %d bytes", ErrNamePrefixTooLong, prefix, len(prefix))
	}
	return nil
}

// NewName returns prefix followed by a random UUID with hyphens replaced by
// underscores, which keeps the result a legal unquoted identifier.
func NewName(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.New().String(), "-", "_")
}

// databaseURL selects database on the base endpoint.
func databaseURL(base, database string) string {
	return ciutil.JoinDatabase(base, database)
}
