package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"squad-scraper/pkg/log"
	"squad-scraper/pkg/models"
	"squad-scraper/pkg/utils"
)

const (
	responseKeyPrefix = "resp:"      // Prefix for cached page response keys in DB
	imageKeyPrefix    = "img:"       // Prefix for image URL keys in DB
	cacheDBDir        = "crawl_cache" // Subdirectory name within stateDir for Badger DB files
)

// BadgerStore implements the Store interface using BadgerDB.
// Cached responses carry the configured TTL so stale entries expire without a
// separate sweep; Badger drops them on read and during value log GC.
type BadgerStore struct {
	db       *badger.DB
	cacheTTL time.Duration
	log      *logrus.Entry
}

// NewBadgerStore initializes and returns a new BadgerStore.
// When noCache is set, any existing cache directory is removed first so the
// run starts from a cold cache.
func NewBadgerStore(stateDir, siteKey string, cacheTTL time.Duration, noCache bool, logger *logrus.Entry) (*BadgerStore, error) {
	store := &BadgerStore{
		cacheTTL: cacheTTL,
		log:      logger,
	}

	// Create a unique directory path for this site's DB within the base state directory
	dbDirName := utils.SanitizeFilename(siteKey) + "_" + cacheDBDir
	dbPath := filepath.Join(stateDir, dbDirName)

	if noCache {
		logger.Warnf("Cache disabled. REMOVING existing state directory: %s", dbPath)
		if err := os.RemoveAll(dbPath); err != nil {
			// Log error but attempt to continue; Badger might recover or create new files
			logger.Errorf("Failed to remove existing state directory %s: %v", dbPath, err)
		}
	}

	logger.Infof("Initializing response cache database at: %s (TTL: %v)", dbPath, cacheTTL)

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("cannot create state directory %s: %w", dbPath, err)
	}

	// Configure Badger options
	badgerLogger := log.NewBadgerLogrusAdapter(logger.WithField("component", "badgerdb"))
	opts := badger.DefaultOptions(dbPath).
		WithLogger(badgerLogger). // Use custom logrus adapter
		WithNumVersionsToKeep(1)  // Only keep the latest cached response

	// Open the database
	var err error
	store.db, err = badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", dbPath, err)
	}

	return store, nil
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction conflicts.
// Concurrent MVCC transactions on overlapping keys can return badger.ErrConflict;
// these resolve in microseconds, so a tight retry loop is sufficient.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := 0; i < maxConflictRetries; i++ {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// GetResponse implements the ResponseCache interface.
// Expired entries are handled by Badger's TTL: the key simply is not found.
func (s *BadgerStore) GetResponse(normalizedURL string) (*models.CachedResponse, bool, error) {
	if s.db == nil {
		return nil, false, errors.New("cache DB not initialized")
	}
	key := []byte(responseKeyPrefix + normalizedURL)

	var entry *models.CachedResponse
	errView := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil // Miss (or expired) - not an error
		}
		if errGet != nil {
			return fmt.Errorf("%w: failed getting response key '%s': %w", utils.ErrDatabase, string(key), errGet)
		}

		return item.Value(func(val []byte) error {
			var decoded models.CachedResponse
			if errJson := json.Unmarshal(val, &decoded); errJson != nil {
				s.log.Warnf("Failed to unmarshal CachedResponse for key '%s': %v. Treating as miss.", string(key), errJson)
				return nil // Corrupt entry behaves like a miss; it will be overwritten
			}
			entry = &decoded
			return nil
		})
	})

	if errView != nil {
		s.log.Errorf("DB View error in GetResponse for key '%s': %v", string(key), errView)
		return nil, false, errView
	}
	if entry == nil {
		return nil, false, nil
	}

	s.log.WithField("key", string(key)).Debug("Response cache hit")
	return entry, true, nil
}

// PutResponse implements the ResponseCache interface.
// The entry is stored with the configured TTL so Badger expires it after the
// freshness window.
func (s *BadgerStore) PutResponse(normalizedURL string, body []byte) error {
	if s.db == nil {
		return errors.New("cache DB not initialized")
	}
	key := []byte(responseKeyPrefix + normalizedURL)

	entryBytes, errJson := json.Marshal(&models.CachedResponse{
		Body:      body,
		FetchedAt: time.Now().UTC(),
	})
	if errJson != nil {
		wrappedErr := fmt.Errorf("%w: failed to marshal CachedResponse for key '%s': %w", utils.ErrParsing, string(key), errJson)
		s.log.Error(wrappedErr)
		return wrappedErr
	}

	err := s.dbUpdate(func(txn *badger.Txn) error {
		e := badger.NewEntry(key, entryBytes)
		if s.cacheTTL > 0 {
			e = e.WithTTL(s.cacheTTL)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB Update error in PutResponse: %v", err)
		return fmt.Errorf("%w: failed setting response for key '%s': %w", utils.ErrDatabase, string(key), err)
	}

	s.log.Debugf("Cached response for key '%s' (%d bytes)", string(key), len(body))
	return nil
}

// CheckImageStatus implements the ImageStore interface
func (s *BadgerStore) CheckImageStatus(normalizedImgURL string) (models.ImageStatus, *models.ImageDBEntry, error) {
	status := models.ImageStatusNotFound
	var entry *models.ImageDBEntry
	key := []byte(imageKeyPrefix + normalizedImgURL)

	errView := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			status = models.ImageStatusNotFound
			return nil // Key not found is not an error for this function's purpose
		}
		if errGet != nil {
			return fmt.Errorf("%w: failed getting image key '%s': %w", utils.ErrDatabase, string(key), errGet)
		}

		return item.Value(func(val []byte) error {
			var decoded models.ImageDBEntry
			if errJson := json.Unmarshal(val, &decoded); errJson != nil {
				s.log.Warnf("Failed to unmarshal ImageDBEntry for key '%s': %v. Treating as 'not_found'.", string(key), errJson)
				status = models.ImageStatusNotFound
				return nil
			}

			entry = &decoded
			status = models.ImageStatus(decoded.Status)
			s.log.Debugf("Image key '%s' found, decoded status: %s", string(key), status)
			return nil
		})
	})

	if errView != nil {
		s.log.Errorf("DB View error in CheckImageStatus for key '%s': %v", string(key), errView)
		return models.ImageStatusDBError, nil, errView
	}

	return status, entry, nil
}

// UpdateImageStatus implements the ImageStore interface
func (s *BadgerStore) UpdateImageStatus(normalizedImgURL string, entry *models.ImageDBEntry) error {
	if s.db == nil {
		return errors.New("cache DB not initialized")
	}
	key := []byte(imageKeyPrefix + normalizedImgURL)

	entryBytes, errJson := json.Marshal(entry)
	if errJson != nil {
		wrappedErr := fmt.Errorf("%w: failed to marshal ImageDBEntry for key '%s': %w", utils.ErrParsing, string(key), errJson)
		s.log.Error(wrappedErr)
		return wrappedErr
	}

	err := s.dbUpdate(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, entryBytes))
	})
	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB Update error in UpdateImageStatus: %v", err)
		return fmt.Errorf("%w: failed setting image status for key '%s': %w", utils.ErrDatabase, string(key), err)
	}

	s.log.Debugf("Successfully updated image status for key '%s' to '%s'", string(key), entry.Status)
	return nil
}

// RunGC runs periodic value log garbage collection until the context ends
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute // Default interval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("BadgerDB GC goroutine started.")

	for {
		select {
		case <-ticker.C:
			// Check if DB is valid before running GC
			if s.db == nil || s.db.IsClosed() {
				s.log.Info("DB GC: Database is nil or closed, skipping GC cycle.")
				continue
			}

			s.log.Info("Running BadgerDB value log garbage collection...")
			var err error
			// Loop GC until it returns ErrNoRewrite or another error
			for {
				// Run GC if log is at least 50% reclaimable space
				err = s.db.RunValueLogGC(0.5)
				if err != nil {
					break // GC finished (ErrNoRewrite) or encountered an error
				}
			}

			if errors.Is(err, badger.ErrNoRewrite) {
				s.log.Info("BadgerDB GC finished (no rewrite needed).")
			} else {
				s.log.Errorf("BadgerDB GC error: %v", err)
			}

		case <-ctx.Done():
			s.log.Infof("Stopping BadgerDB garbage collection goroutine due to context cancellation: %v", ctx.Err())
			return
		}
	}
}

// Close cleanly closes the database connection
func (s *BadgerStore) Close() error {
	if s.db != nil && !s.db.IsClosed() {
		s.log.Info("Closing cache DB...")
		err := s.db.Close()
		if err != nil {
			s.log.Errorf("Error closing cache DB: %v", err)
			return err
		}
		s.log.Info("Cache DB closed.")
		return nil
	}
	s.log.Info("Cache DB already closed or was not initialized.")
	return nil
}
