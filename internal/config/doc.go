// Package config defines the application configuration structure and the
// logic for loading it from config files and environment variables.
package config
