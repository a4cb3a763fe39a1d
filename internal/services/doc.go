// Package services defines shared utilities consumed by the write pipeline and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, processing modes, and record
//     paths for logging.
//   - Structured error markers plus the Wrap helper that keep the failure
//     taxonomy (fatal preconditions vs per-record failures) uniform.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays consistent.
package services
