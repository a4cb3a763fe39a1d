// Package writer applies catalog metadata to media files through exiftool.
//
// Each record goes through one protocol: a missing file or an empty directive
// plan is skipped; otherwise every directive is sent in one batch invocation,
// and if the tool does not confirm the update each directive is retried on its
// own. The outcome (success, partial, error, skipped) is persisted before the
// next record is taken, then reported to the observer, then the run context is
// checked. A cancelled run finishes the record in hand and stops; a tool
// invocation is never interrupted.
//
// Nothing a single record does escapes its step: failures and panics become
// an error outcome. Only an unreachable catalog aborts the run.
package writer
