package storage

import (
	"fmt"
	"sort"
	"strings"
)

// AllowedContentTypes defines the MIME types accepted for lead documents.
var AllowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// UploadPolicy holds the server-side upload limits.
type UploadPolicy struct {
	MaxFileSize         int64
	EnforceContentTypes bool
}

// ValidateContentType checks if the content type is allowed. Always passes
// when enforcement is disabled.
func (p UploadPolicy) ValidateContentType(contentType string) error {
	if !p.EnforceContentTypes {
		return nil
	}
	if !AllowedContentTypes[NormalizeContentType(contentType)] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// ValidateFileSize checks if the file size is within limits.
func (p UploadPolicy) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("file size must be greater than 0")
	}
	if p.MaxFileSize > 0 && sizeBytes > p.MaxFileSize {
		return fmt.Errorf("file size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, p.MaxFileSize)
	}
	return nil
}

// NormalizeContentType lower-cases a MIME type and drops its parameters.
func NormalizeContentType(contentType string) string {
	normalized := strings.Split(contentType, ";")[0]
	return strings.TrimSpace(strings.ToLower(normalized))
}

// GetAllowedContentTypes returns the allowed content types, sorted.
func GetAllowedContentTypes() []string {
	types := make([]string, 0, len(AllowedContentTypes))
	for ct := range AllowedContentTypes {
		types = append(types, ct)
	}
	sort.Strings(types)
	return types
}
