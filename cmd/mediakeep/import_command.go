package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mediakeep/internal/catalog"
	"mediakeep/internal/config"
)

const maxImportLine = 4 * 1024 * 1024

type importLine struct {
	Path     string          `json:"path"`
	Metadata json.RawMessage `json:"metadata"`
}

type importStats struct {
	Created   int
	Refreshed int
	Rejected  int
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <records.jsonl>",
		Short: "Seed or refresh catalog records from a JSON Lines file",
		Long: `Seed or refresh catalog records from a JSON Lines file.

Each line holds {"path": "...", "metadata": {...}}. Relative paths are
resolved against the working directory. Changed metadata resets the record
to pending so the next new_only run writes it again. Use "-" to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var in io.Reader
			if args[0] == "-" {
				in = cmd.InOrStdin()
			} else {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open import file: %w", err)
				}
				defer file.Close()
				in = file
			}

			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()

			stats, err := importRecords(cmd, store, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d new, %d refreshed, %d rejected\n",
				stats.Created, stats.Refreshed, stats.Rejected)
			return nil
		},
	}
}

func importRecords(cmd *cobra.Command, store *catalog.Store, in io.Reader) (importStats, error) {
	var stats importStats
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		path, metadata, err := parseImportLine(raw)
		if err != nil {
			stats.Rejected++
			fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %v\n", lineNo, err)
			continue
		}
		created, err := store.Upsert(cmd.Context(), path, metadata)
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if created {
			stats.Created++
		} else {
			stats.Refreshed++
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read import file: %w", err)
	}
	return stats, nil
}

// parseImportLine validates one line and returns the absolute path and the
// compacted metadata object.
func parseImportLine(raw []byte) (string, string, error) {
	var line importLine
	if err := json.Unmarshal(raw, &line); err != nil {
		return "", "", fmt.Errorf("decode: %w", err)
	}
	if strings.TrimSpace(line.Path) == "" {
		return "", "", fmt.Errorf("path is required")
	}
	path, err := config.ExpandPath(strings.TrimSpace(line.Path))
	if err != nil {
		return "", "", err
	}
	metadata := bytes.TrimSpace(line.Metadata)
	if len(metadata) == 0 || metadata[0] != '{' {
		return "", "", fmt.Errorf("%s: metadata must be a JSON object", path)
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, metadata); err != nil {
		return "", "", fmt.Errorf("%s: metadata: %w", path, err)
	}
	return path, compact.String(), nil
}
