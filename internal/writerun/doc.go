// Package writerun wires one metadata write run: logger and run id, the run
// lock, exiftool lookup, record selection, and signal-driven cancellation
// around the writer orchestrator.
package writerun
