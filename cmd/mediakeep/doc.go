// Command mediakeep writes catalog metadata back into media files with
// exiftool and reports the per-file outcome of each run.
//
// Typical use: `mediakeep import records.jsonl` to seed the catalog, then
// `mediakeep write` (new_only by default), `mediakeep write --mode
// retry_errors` to revisit partial and failed files, and `mediakeep status`
// to check readiness and stored outcome counts.
package main
