// Package config handles YAML configuration loading with environment
// variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable
// interpolation. The PORT environment variable, when set, overrides
// server.port regardless of the file contents.
package config
