// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional config file. It provides type-safe
// access to the settings the fixture manager and the fixturectl command need,
// keeping configuration details separate from the lifecycle code.
package config
