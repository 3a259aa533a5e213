// Package utils exposes the configuration and logging plumbing shared by every
// pipegate command.
//
// ConfigurationLoader layers the embedded defaults, an optional YAML file, and
// PIPEGATE_* environment variables through Viper. LoggerFactory builds zap
// loggers writing to standard error so that standard output stays reserved for
// machine-readable command results.
package utils
