// Package logging constructs the application's slog loggers.
//
// Output format (console or json) and level come from configuration;
// NewFromConfig mirrors everything to a log file under the configured log
// directory. NewNop supplies the silent logger used by tests and by
// components that receive no logger.
package logging
