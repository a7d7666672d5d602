// Package logger provides structured logging for prscraper built on zerolog.
//
// The Logger interface wraps zerolog with field-based structured logging and
// per-call field maps. A process-wide default is available through GetLogger
// and is configured once at startup via Initialize with the logging section
// of the application config.
//
// Tests use NewTestLogger, which records every message for assertions
// instead of writing output.
package logger
