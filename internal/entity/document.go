package entity

import (
	"github.com/joseph-ayodele/docverify/constants"
)

// UploadedDocument is an accepted upload written to scratch storage.
type UploadedDocument struct {
	Path        string         `json:"path"`
	ContentType string         `json:"content_type"`
	Kind        constants.Kind `json:"kind"`
}

// PageImage is one rendered page. Ordinal is 1-based and follows source order.
type PageImage struct {
	Ordinal int    `json:"ordinal"`
	Path    string `json:"path"`
}
