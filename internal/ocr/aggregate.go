package ocr

import "strings"

// PageSeparator goes between page texts.
const PageSeparator = "\n\n"

// Aggregate joins page texts in the order given and trims the result.
func Aggregate(texts []string) string {
	return strings.TrimSpace(strings.Join(texts, PageSeparator))
}
