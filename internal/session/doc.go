// Package session tallies the outcomes of one write run and keeps a bounded
// log of the most recent ones for the run summary. Nothing here is persisted;
// the catalog's stored statuses are the durable record.
package session
