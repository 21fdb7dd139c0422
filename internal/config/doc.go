// Package config resolves service settings (port, default group target,
// catalog and selection storage locations, ingestion columns, timeouts, rate
// limits) from YAML files, environment variables and CLI flags, with
// precedence: CLI flags > YAML config > Environment variables > Defaults.
package config
