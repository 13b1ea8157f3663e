// Package errors provides type-safe error primitives used across patternpipe.
//
// Key features:
//   - ErrorCategory: the build core taxonomy (config, source_unavailable, transform, compile, external_build, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - RetryStrategy: informational only, the core never retries
//   - ClassifiedError: structured error with category, severity, and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit codes and user-facing formatting
//
// Example usage:
//
//	err := errors.SourceUnavailableError("source directory unreadable").
//		WithContext("task", "pl-copy:img").
//		WithContext("dir", dir).
//		WithCause(statErr).
//		Build()
package errors
