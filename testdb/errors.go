package testdb

import (
	"errors"
	"fmt"

	"github.com/phrazzld/pgfixture/internal/redact"
)

// Error categories. Every *Error wraps exactly one of them.
var (
	// ErrConnectivity means the administrative or target endpoint could not be reached.
	ErrConnectivity = errors.New("connectivity failure")

	// ErrProvisioning means the server rejected CREATE DATABASE.
	ErrProvisioning = errors.New("provisioning failure")

	// ErrMigration means the migration set could not be loaded or applied.
	ErrMigration = errors.New("migration failure")

	// ErrTeardown means terminating sessions or dropping the database failed.
	ErrTeardown = errors.New("teardown failure")
)

// Lifecycle phases reported in Error.Phase.
const (
	PhaseConstruct = "construct"
	PhaseTeardown  = "teardown"
	PhaseConnect   = "connect"
	PhaseSweep     = "sweep"
)

var errNoEndpoint = errors.New("admin endpoint is empty")

// Error describes a failed lifecycle step for one fixture database.
// errors.Is matches both the category (Kind) and the underlying cause.
type Error struct {
	Phase    string // construct, teardown, connect or sweep
	Step     string // the step that failed, e.g. "create_database"
	Database string // fixture database name
	Kind     error  // one of ErrConnectivity, ErrProvisioning, ErrMigration, ErrTeardown
	Err      error  // underlying error
}

// Error implements the error interface. Credentials echoed by the driver are redacted.
func (e *Error) Error() string {
	msg := fmt.Sprintf("testdb: %s of %s failed at %s (%v)", e.Phase, e.Database, e.Step, e.Kind)
	if e.Err != nil {
		msg += ": " + redact.Credentials(e.Err.Error())
	}
	return msg
}

// Unwrap exposes both the category and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Hint returns troubleshooting guidance for the error's category.
func (e *Error) Hint() string {
	return hintFor(e.Kind)
}

func hintFor(kind error) string {
	switch kind {
	case ErrConnectivity:
		return "check that PostgreSQL is running, the admin endpoint and credentials are correct, " +
			"and the server accepts connections from this host"
	case ErrProvisioning:
		return "check that the role has CREATEDB and that the server has free disk space"
	case ErrMigration:
		return "check the migrations directory path and run the failing migration by hand for details"
	case ErrTeardown:
		return "the database may be left behind; run `fixturectl sweep` to remove orphaned fixture databases"
	default:
		return ""
	}
}
