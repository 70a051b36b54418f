package storage

import (
	"context"
	"time"

	"squad-scraper/pkg/models"
)

// ResponseCache retains fetched page bodies, content-addressed by normalized
// request URL, with a freshness window enforced by the implementation.
type ResponseCache interface {
	// GetResponse looks up a cached body for a normalized URL.
	// Returns the entry and true on a fresh hit, (nil, false) on a miss
	GetResponse(normalizedURL string) (*models.CachedResponse, bool, error)

	// PutResponse stores a fetched body for a normalized URL
	PutResponse(normalizedURL string, body []byte) error
}

// ImageStore tracks image download outcomes across a run
type ImageStore interface {
	// CheckImageStatus retrieves the status and details of an image URL.
	// Returns status (ImageStatusSuccess, ImageStatusFailure, ImageStatusNotFound,
	// ImageStatusDBError), the ImageDBEntry if found and parsed, and any error
	CheckImageStatus(normalizedImgURL string) (status models.ImageStatus, entry *models.ImageDBEntry, err error)

	// UpdateImageStatus updates the status and details for an image URL
	UpdateImageStatus(normalizedImgURL string, entry *models.ImageDBEntry) error
}

// StoreAdmin handles lifecycle and administrative operations
type StoreAdmin interface {
	// RunGC runs periodic garbage collection. Should be run in a goroutine
	RunGC(ctx context.Context, interval time.Duration)

	// Close cleanly closes the database connection
	Close() error
}

// Store combines all store interfaces for components that need full access
type Store interface {
	ResponseCache
	ImageStore
	StoreAdmin
}
