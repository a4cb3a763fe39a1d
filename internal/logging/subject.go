package logging

import (
	"path/filepath"
	"strings"
)

// FormatSubject builds the component/file/worker subject string used in console output.
func FormatSubject(component, path, worker string) string {
	component = strings.TrimSpace(component)
	path = strings.TrimSpace(path)
	worker = strings.TrimSpace(worker)
	parts := make([]string, 0, 3)
	if component != "" {
		parts = append(parts, component)
	}
	if worker != "" && worker != "0" {
		parts = append(parts, "w"+worker)
	}
	if path != "" {
		parts = append(parts, filepath.Base(path))
	}
	return strings.Join(parts, " · ")
}
