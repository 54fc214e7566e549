// Package config loads the server configuration from defaults, an optional
// YAML file, an optional .env file and MASTERY_* environment variables, and
// validates it before any component is built.
package config
