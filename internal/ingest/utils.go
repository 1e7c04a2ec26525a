package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docverify/constants"
)

// AllowedExt checks if a file extension maps to an accepted content type.
func AllowedExt(ext string) bool {
	return constants.ContentTypeForExt(ext) != ""
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return base != "." && strings.HasPrefix(base, ".")
}
