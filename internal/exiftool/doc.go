// Package exiftool mediates access to the exiftool CLI used to write metadata
// into media files.
//
// It owns the fixed argument layout for batch and single-directive
// invocations, captures exit status and output, and isolates the stdout
// confirmation check that decides whether a batch write landed. Command
// execution sits behind the Executor interface so callers can be tested
// without the real tool.
//
// Prefer this package over ad-hoc exec.Command usage so every invocation uses
// the same flags and success semantics.
package exiftool
