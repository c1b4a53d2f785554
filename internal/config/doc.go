// Package config defines the application's configuration structure and
// loading logic. Configuration comes from environment variables with the
// WEBTAROT_ prefix, optionally layered over a config.yaml file, and is
// validated before the application starts.
package config
