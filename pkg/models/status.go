package models

// ImageStatus represents the processing status of an image in the database
type ImageStatus string

const (
	ImageStatusUnset    ImageStatus = ""          // Zero value = unset/unknown
	ImageStatusSuccess  ImageStatus = "success"   // Image downloaded successfully
	ImageStatusFailure  ImageStatus = "failure"   // Image download failed (both URLs)
	ImageStatusNotFound ImageStatus = "not_found" // Image not in database
	ImageStatusDBError  ImageStatus = "db_error"  // Database error occurred
)

// String implements fmt.Stringer for logging
func (s ImageStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is a known operational value
func (s ImageStatus) IsValid() bool {
	switch s {
	case ImageStatusSuccess, ImageStatusFailure:
		return true
	}
	return false
}
