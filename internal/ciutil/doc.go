// Package ciutil provides utilities for CI and environment-specific functionality.
//
// It detects whether the harness runs under a CI provider, resolves settings
// that may arrive under legacy environment variable names, masks credentials
// before values are logged and locates the project root so an optional
// usersqa.yaml can be discovered from any package directory.
package ciutil
