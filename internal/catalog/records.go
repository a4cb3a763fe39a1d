package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mediakeep/internal/config"
)

const recordColumns = "id, path, metadata_json, write_status, write_detail, written_at, created_at, updated_at"

// eligibleClause restricts selection to rows the writer can act on.
const eligibleClause = "path <> '' AND metadata_json IS NOT NULL AND json_valid(metadata_json)"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id         int64
		path       string
		metadata   sql.NullString
		status     sql.NullString
		detail     sql.NullString
		writtenRaw sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &path, &metadata, &status, &detail, &writtenRaw, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	rec := &Record{
		ID:           id,
		Path:         path,
		MetadataJSON: metadata.String,
		WriteStatus:  WriteStatus(status.String),
		WriteDetail:  detail.String,
	}
	if created, err := parseTime(createdRaw.String); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTime(updatedRaw.String); err == nil {
		rec.UpdatedAt = updated
	}
	if writtenRaw.Valid {
		if written, err := parseTime(writtenRaw.String); err == nil {
			rec.WrittenAt = &written
		}
	}
	return rec, nil
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty time")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// Upsert inserts a record or refreshes its metadata. Changed metadata resets
// the write status to pending so the next new_only run picks it up again.
// The returned bool reports whether a new row was created.
func (s *Store) Upsert(ctx context.Context, path, metadataJSON string) (bool, error) {
	ctx = ensureContext(ctx)
	path = strings.TrimSpace(path)
	if path == "" {
		return false, errors.New("upsert: path required")
	}
	var created bool
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var existing sql.NullString
		err = tx.QueryRowContext(ctx, "SELECT metadata_json FROM media_files WHERE path = ?", path).Scan(&existing)
		now := nowString()
		switch {
		case errors.Is(err, sql.ErrNoRows):
			created = true
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO media_files (path, metadata_json, created_at, updated_at) VALUES (?, ?, ?, ?)`,
				path, nullableString(metadataJSON), now, now,
			); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			created = false
			if existing.String == metadataJSON {
				return tx.Commit()
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE media_files SET metadata_json = ?, write_status = CASE WHEN write_status IS NULL THEN NULL ELSE ? END, updated_at = ? WHERE path = ?`,
				nullableString(metadataJSON), StatusPending, now, path,
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return false, classify("upsert record", err)
	}
	return created, nil
}

// Get returns the record stored for path, or ErrRecordNotFound.
func (s *Store) Get(ctx context.Context, path string) (*Record, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT "+recordColumns+" FROM media_files WHERE path = ?", path)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, path)
	}
	if err != nil {
		return nil, classify("get record", err)
	}
	return rec, nil
}

// RecordsForWrite returns the candidates for a processing mode, ordered by
// path. Rows with an empty path or metadata that is not valid JSON are never
// selected.
//
//   - new_only: never attempted or left pending
//   - retry_errors: previously error or partial
//   - force_refresh: every eligible row
func (s *Store) RecordsForWrite(ctx context.Context, mode string) ([]*Record, error) {
	var filter string
	var args []any
	switch config.NormalizeMode(mode) {
	case config.ModeNewOnly:
		filter = " AND (write_status IS NULL OR write_status = ?)"
		args = append(args, StatusPending)
	case config.ModeRetryErrors:
		filter = " AND write_status IN (?, ?)"
		args = append(args, StatusError, StatusPartial)
	case config.ModeForceRefresh:
	default:
		return nil, fmt.Errorf("unknown processing mode %q", mode)
	}

	query := "SELECT " + recordColumns + " FROM media_files WHERE " + eligibleClause + filter + " ORDER BY path"
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, classify("select records", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, classify("scan record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate records", err)
	}
	return records, nil
}

// MarkWriteStatus stores the outcome for path as one committed statement.
// Repeating a call with the same status and detail changes nothing, including
// written_at. An unknown path yields ErrRecordNotFound.
func (s *Store) MarkWriteStatus(ctx context.Context, path string, status WriteStatus, detail string) error {
	if _, err := ParseWriteStatus(string(status)); err != nil {
		return err
	}
	now := nowString()
	res, err := s.execWithRetry(ctx,
		`UPDATE media_files
		 SET write_status = ?, write_detail = ?, written_at = ?, updated_at = ?
		 WHERE path = ? AND (write_status IS NOT ? OR write_detail IS NOT ?)`,
		status, nullableString(detail), now, now, path, status, nullableString(detail),
	)
	if err != nil {
		return classify("mark write status", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return classify("mark write status", err)
	}
	if affected > 0 {
		return nil
	}

	var exists int
	if err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT COUNT(1) FROM media_files WHERE path = ?", path).Scan(&exists); err != nil {
		return classify("check record", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, path)
	}
	return nil
}

// WriteStatusCounts tallies records by write status. Never-attempted rows are
// counted under StatusNone.
func (s *Store) WriteStatusCounts(ctx context.Context) (map[WriteStatus]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT COALESCE(write_status, ''), COUNT(1) FROM media_files GROUP BY 1")
	if err != nil {
		return nil, classify("count statuses", err)
	}
	defer rows.Close()

	counts := make(map[WriteStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, classify("scan status count", err)
		}
		counts[WriteStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate status counts", err)
	}
	return counts, nil
}

// ResetWriteStatus returns rows in the given statuses to pending and clears
// their detail. It returns the number of rows changed.
func (s *Store) ResetWriteStatus(ctx context.Context, statuses ...WriteStatus) (int64, error) {
	if len(statuses) == 0 {
		return 0, errors.New("reset: at least one status required")
	}
	placeholders := make([]string, 0, len(statuses))
	args := []any{StatusPending, nowString()}
	for _, status := range statuses {
		if _, err := ParseWriteStatus(string(status)); err != nil {
			return 0, err
		}
		placeholders = append(placeholders, "?")
		args = append(args, status)
	}
	res, err := s.execWithRetry(ctx,
		"UPDATE media_files SET write_status = ?, write_detail = NULL, updated_at = ? WHERE write_status IN ("+strings.Join(placeholders, ", ")+")",
		args...,
	)
	if err != nil {
		return 0, classify("reset write status", err)
	}
	return res.RowsAffected()
}
