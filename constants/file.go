package constants

import (
	"mime"
	"strings"
)

// Kind classifies an accepted upload.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypePNG  = "image/png"
	ContentTypeJPEG = "image/jpeg"
)

// AllowedContentTypes maps each accepted media type to its kind and scratch extension.
var AllowedContentTypes = map[string]struct {
	Kind Kind
	Ext  string
}{
	ContentTypePDF:  {KindPDF, "pdf"},
	ContentTypePNG:  {KindImage, "png"},
	ContentTypeJPEG: {KindImage, "jpg"},
}

// extToContentType is used when a file comes from disk rather than an upload.
var extToContentType = map[string]string{
	"pdf":  ContentTypePDF,
	"png":  ContentTypePNG,
	"jpg":  ContentTypeJPEG,
	"jpeg": ContentTypeJPEG,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// NormalizeContentType drops parameters and lowercases a media type.
func NormalizeContentType(ct string) string {
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// ContentTypeForExt returns the media type for a known extension, or "".
func ContentTypeForExt(ext string) string {
	return extToContentType[NormalizeExt(ext)]
}
