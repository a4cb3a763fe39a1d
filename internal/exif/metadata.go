package exif

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Metadata is the structured record stored in the catalog's metadata_json column.
type Metadata struct {
	DateTime    Timestamp       `json:"datetime,omitempty"`
	Camera      string          `json:"camera,omitempty"`
	People      []string        `json:"people,omitempty"`
	Albums      []string        `json:"albums,omitempty"`
	GPS         *Coordinates    `json:"gps,omitempty"`
	Location    string          `json:"location,omitempty"`
	Description string          `json:"description,omitempty"`
	Extra       json.RawMessage `json:"exif,omitempty"`
}

// Coordinates holds decimal degrees. Negative latitude is south, negative
// longitude is west.
type Coordinates struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Timestamp keeps the raw capture time as found in the metadata. Strings and
// epoch-second numbers are the accepted forms; any other JSON value is kept
// as its compact text so the date directives can be dropped with a warning
// while the rest of the record is still written.
type Timestamp string

// UnmarshalJSON never fails on a well-formed JSON value.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Timestamp(strings.TrimSpace(s))
	default:
		var compact bytes.Buffer
		if err := json.Compact(&compact, data); err != nil {
			return err
		}
		*t = Timestamp(compact.String())
	}
	return nil
}

// ErrEmptyMetadata is returned by Parse for blank input.
var ErrEmptyMetadata = errors.New("metadata is empty")

// Parse decodes catalog metadata JSON. A JSON null or empty object yields a
// zero Metadata without error.
func Parse(raw string) (Metadata, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Metadata{}, ErrEmptyMetadata
	}
	var meta Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return Metadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, nil
}
