// Package services defines shared utilities consumed by the launch
// orchestrator and the external service clients.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (validation, rate limit, unavailable, transient,
//     generic upstream) consistent across layers.
//   - The StatusError type that carries an upstream HTTP status through
//     error chains so callers can branch on 429/503 without string
//     matching.
//   - Context helpers that stamp correlation identifiers for logging.
//
// Use these helpers when wiring new upstream calls so error handling and
// observability stay uniform.
package services
