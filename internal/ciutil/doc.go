// Package ciutil provides utilities for CI and environment-specific functionality.
//
// This package contains the environment variable names the fixture tooling reads,
// CI detection, lookup of the administrative database URL with fallbacks, masking of
// credentials for logs, and project root detection used to resolve relative
// migration directories when tests run from a package subdirectory.
package ciutil
