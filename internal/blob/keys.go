package blob

import (
	"fmt"
	"time"
)

// Content types used across the object store.
const (
	ContentTypeZip  = "application/zip"
	ContentTypeJSON = "application/json"
	ContentTypePDF  = "application/pdf"
)

// ClientFolder builds the per-client folder segment from a sanitized client
// name and a short identifier suffix.
func ClientFolder(sanitizedName, shortID string) string {
	return fmt.Sprintf("%s_%s", sanitizedName, shortID)
}

// DocumentKey constructs the object key for an uploaded document.
func DocumentKey(profile, clientFolder, uploadID, filename string) string {
	return fmt.Sprintf("clients/%s/%s/%s_%s", profile, clientFolder, uploadID, filename)
}

// ExportKey constructs the object key for an export bundle.
func ExportKey(clientID, exportID, bundleName string) string {
	return fmt.Sprintf("exports/%s/%s/%s.zip", clientID, exportID, bundleName)
}

// ReportKey constructs the object key for a synchronizer run report.
func ReportKey(prefix string, ranAt time.Time) string {
	return fmt.Sprintf("%s/sync_%s.json", prefix, ranAt.UTC().Format(time.RFC3339))
}
