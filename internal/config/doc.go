// Package config handles configuration loading, parsing, and validation
// from defaults, an optional usersqa.yaml file and environment variables.
// The resulting Config is built once at process start and passed by pointer
// to the components that need it.
package config
