// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides centralized zerolog-based structured logging for Feedcast.
//
// This package implements a unified logging layer using zerolog, providing
// zero-allocation structured JSON logging for production and human-readable
// console output for development.
//
// # Overview
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output format for production (machine-parseable)
//   - Console output format for development (human-readable)
//   - Global logger configuration via environment variables
//   - Context-aware logging with correlation ID and request ID propagation
//
// # Quick Start
//
//	import "github.com/feedcast/feedcast/internal/logging"
//
//	// Initialize at application startup
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Caller: false,
//	})
//
//	// Log messages with structured fields
//	logging.Info().Str("tenant_id", tenantID).Msg("feed request received")
//	logging.Error().Err(err).Int("status", 500).Msg("request failed")
//
//	// Context-aware logging
//	logging.Ctx(ctx).Info().Str("request_id", reqID).Msg("processing")
//
// # Configuration
//
// Environment Variables:
//
//	LOG_LEVEL   - Minimum log level: trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - Output format: json, console (default: json)
//	LOG_CALLER  - Include caller file:line: true, false (default: false)
//
// Programmatic Configuration:
//
//	logging.Init(logging.Config{
//	    Level:     "debug",    // trace, debug, info, warn, error, fatal
//	    Format:    "console",  // json or console
//	    Caller:    true,       // Include caller info
//	    Timestamp: true,       // Include timestamps
//	    Output:    os.Stderr,  // Output writer
//	})
//
// # Log Levels
//
// Supported log levels (from most to least verbose):
//
//	trace  - Very detailed diagnostic information
//	debug  - Detailed diagnostic information
//	info   - General operational information (default)
//	warn   - Warning conditions that should be addressed
//	error  - Error conditions requiring attention
//	fatal  - Fatal errors that terminate the program
//	panic  - Panic conditions that crash the program
//
// # Structured Logging Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
//
// Use structured fields instead of string formatting:
//
//	// Good - structured, searchable, efficient
//	logging.Info().
//	    Str("tenant_id", tenantID).
//	    Int("candidate_count", n).
//	    Dur("elapsed", duration).
//	    Msg("candidates fetched")
//
//	// Avoid - unstructured, harder to parse
//	logging.Info().Msgf("tenant %s fetched %d candidates in %v", tenantID, n, duration)
//
// # Component Loggers
//
// Create component-specific loggers with default fields:
//
//	rankingLogger := logging.With().Str("component", "ranking").Logger()
//	rankingLogger.Info().Msg("ranking started")
//	rankingLogger.Error().Err(err).Msg("ranking failed")
//
// # Context-Aware Logging
//
// Propagate request context through logging so every log line in a request's
// lifetime carries the same correlation_id and request_id:
//
//	logger := logging.Ctx(ctx)
//	logger.Info().Msg("processing feed request")
//
// # Output Formats
//
// JSON Format (Production):
//
//	{"level":"info","time":"2026-08-06T10:30:00Z","message":"feed request received","tenant_id":"tenant_sports"}
//
// Console Format (Development):
//
//	10:30:00 INF feed request received tenant_id=tenant_sports
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger
// is protected by sync.RWMutex for configuration changes.
//
// # Testing
//
// Create test loggers that capture output:
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
//	logger.Info().Msg("test message")
//	output := buf.String()
//
// # See Also
//
//   - github.com/rs/zerolog: Underlying logging library
//   - internal/api: HTTP middleware attaching request/correlation IDs
package logging
