package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrToolNotFound marks a missing metadata tool; fatal before any record is touched.
	ErrToolNotFound = errors.New("metadata tool not found")
	// ErrInvalidMetadata marks a record whose metadata could not be decoded.
	ErrInvalidMetadata = errors.New("invalid metadata")
	// ErrFileMissing marks a record whose target file is absent on disk.
	ErrFileMissing = errors.New("file missing")
	// ErrBatchInvocation marks a failed all-directives invocation.
	ErrBatchInvocation = errors.New("batch invocation failed")
	// ErrDirectiveInvocation marks a failed single-directive fallback invocation.
	ErrDirectiveInvocation = errors.New("directive invocation failed")
	// ErrPersistence marks a failed status write to the catalog.
	ErrPersistence = errors.New("persistence failure")
	// ErrConfiguration marks unusable settings or run preconditions.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes pipeline context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrConfiguration
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must abort a whole run rather than a single record.
func IsFatal(err error) bool {
	return errors.Is(err, ErrToolNotFound) || errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
