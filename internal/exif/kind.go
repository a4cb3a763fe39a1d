package exif

import (
	"path/filepath"
	"strings"
)

// FileKind distinguishes targets with an original-capture date (images) from
// those without (videos).
type FileKind int

const (
	KindImage FileKind = iota
	KindVideo
)

func (k FileKind) String() string {
	if k == KindVideo {
		return "video"
	}
	return "image"
}

var videoExtensions = map[string]struct{}{
	".3gp":  {},
	".avi":  {},
	".m2ts": {},
	".m4v":  {},
	".mkv":  {},
	".mov":  {},
	".mp4":  {},
	".mpg":  {},
	".mts":  {},
	".webm": {},
	".wmv":  {},
}

// KindForPath classifies a file by extension. Anything that is not a known
// video container is written as an image.
func KindForPath(path string) FileKind {
	if _, ok := videoExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return KindVideo
	}
	return KindImage
}
