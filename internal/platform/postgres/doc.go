// Package postgres provides the PostgreSQL administrative operations the fixture
// manager relies on: connecting to a server's system database, creating and
// dropping databases, terminating the backend sessions attached to a database,
// and listing databases. It also classifies driver errors into the small set of
// sentinel errors the lifecycle code reasons about.
package postgres
