// Package catalog persists media file records in SQLite and records the
// outcome of metadata write runs against them.
//
// Records are keyed by absolute path, the durable join key between the catalog
// and the filesystem. RecordsForWrite selects candidates for a processing mode
// and MarkWriteStatus stores one outcome per call as its own committed
// statement, so a killed run never loses an outcome it already decided.
//
// Schema changes bump schemaVersion in schema.go; users rebuild the catalog to
// adopt a new schema.
package catalog
