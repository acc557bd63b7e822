package validation

import (
	"regexp"
	"strings"
)

// Allowed MIME types (images + documents).
var allowedMimeTypes = map[string]bool{
	"image/jpeg":               true,
	"image/jpg":                true, // some clients still send this
	"image/png":                true,
	"image/gif":                true,
	"image/webp":               true,
	"image/svg+xml":            true,
	"image/bmp":                true,
	"image/tiff":               true,
	"application/pdf":          true,
	"text/csv":                 true,
	"application/vnd.ms-excel": true, // .xls
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true, // .xlsx
	"application/octet-stream": true, // fallback for some clients
}

var allowedExtPattern = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp|svg|bmp|tiff?|pdf|csv|xlsx?)$`)

// AllowedMimeType checks the declared MIME type against the allow-list.
func AllowedMimeType(mime string) bool {
	return allowedMimeTypes[strings.ToLower(strings.TrimSpace(mime))]
}

// AllowedExtension checks the filename extension against the allow-list.
func AllowedExtension(filename string) bool {
	return allowedExtPattern.MatchString(filename)
}

// AllowedFileType accepts a file when either the declared MIME type or the
// filename extension passes. Clients routinely mis-report MIME types, so the
// permissive OR is intentional.
func AllowedFileType(filename, mime string) bool {
	return AllowedMimeType(mime) || AllowedExtension(filename)
}

// SanitizeString removes potentially harmful characters
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")
	return input
}
