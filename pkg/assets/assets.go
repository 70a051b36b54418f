// Package assets downloads player portrait images, verifies them and records
// their outcome in the image store so re-runs skip completed work.
package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"squad-scraper/pkg/fetch"
	"squad-scraper/pkg/models"
	"squad-scraper/pkg/storage"
	"squad-scraper/pkg/utils"
)

// Downloader fetches portrait images with browser-like headers and persists
// them under <outputDir>/<teamSlug>/<playerID>.jpg.
type Downloader struct {
	fetcher     *fetch.Fetcher
	rateLimiter *fetch.RateLimiter
	store       storage.ImageStore
	outputDir   string
	referer     string
	userAgent   string
	minSize     int64
	hostDelay   time.Duration
	log         *logrus.Entry
}

func NewDownloader(fetcher *fetch.Fetcher, rateLimiter *fetch.RateLimiter, store storage.ImageStore,
	outputDir, referer, userAgent string, minSize int64, hostDelay time.Duration, logger *logrus.Entry) *Downloader {
	return &Downloader{
		fetcher:     fetcher,
		rateLimiter: rateLimiter,
		store:       store,
		outputDir:   outputDir,
		referer:     referer,
		userAgent:   userAgent,
		minSize:     minSize,
		hostDelay:   hostDelay,
		log:         logger,
	}
}

// Download fetches the image for player and stores it on disk, returning the
// path relative to the output directory. Previously succeeded downloads are
// answered from the image store without touching the network. The image host
// sometimes serves a "-1" suffixed variant when the plain URL is stale, so
// one alternate attempt is made before giving up.
func (d *Downloader) Download(ctx context.Context, imageURL, teamSlug, playerID string) (string, error) {
	if d.store != nil {
		status, entry, err := d.store.CheckImageStatus(imageURL)
		if err == nil && status == models.ImageStatusSuccess && entry != nil {
			if _, statErr := os.Stat(filepath.Join(d.outputDir, entry.LocalPath)); statErr == nil {
				d.log.WithField("player_id", playerID).Debug("Image already downloaded, skipping")
				return entry.LocalPath, nil
			}
		}
	}

	relPath := filepath.Join(utils.SanitizeFilename(teamSlug), playerID+".jpg")

	body, err := d.fetchImage(ctx, imageURL)
	if err != nil {
		if alt := alternateURL(imageURL); alt != "" {
			d.log.WithFields(logrus.Fields{
				"player_id": playerID,
				"alt_url":   alt,
			}).Debug("Primary image URL failed, trying alternate")
			body, err = d.fetchImage(ctx, alt)
		}
	}
	if err != nil {
		d.recordFailure(imageURL, err)
		return "", err
	}

	absPath := filepath.Join(d.outputDir, relPath)
	if mkErr := os.MkdirAll(filepath.Dir(absPath), 0o755); mkErr != nil {
		err = utils.WrapErrorf(utils.ErrFilesystem, "creating image directory: %v", mkErr)
		d.recordFailure(imageURL, err)
		return "", err
	}
	if writeErr := os.WriteFile(absPath, body, 0o644); writeErr != nil {
		err = utils.WrapErrorf(utils.ErrFilesystem, "writing image file %s: %v", absPath, writeErr)
		d.recordFailure(imageURL, err)
		return "", err
	}

	if d.store != nil {
		dbErr := d.store.UpdateImageStatus(imageURL, &models.ImageDBEntry{
			Status:      string(models.ImageStatusSuccess),
			LocalPath:   relPath,
			LastAttempt: time.Now().UTC(),
		})
		if dbErr != nil {
			d.log.WithError(dbErr).Warn("Failed to record image success in store")
		}
	}

	return relPath, nil
}

func (d *Downloader) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrRequestCreation, "image request for %s: %v", imageURL, err)
	}
	// The image host rejects non-browser clients, so the request has to look
	// like it came from the site itself
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Referer", d.referer)

	if d.rateLimiter != nil {
		d.rateLimiter.ApplyDelay(ctx, req.URL.Host, d.hostDelay)
	}

	resp, err := d.fetcher.FetchWithRetry(req, ctx)
	if d.rateLimiter != nil {
		d.rateLimiter.UpdateLastRequestTime(req.URL.Host)
	}
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrResponseBodyRead, "reading image body from %s: %v", imageURL, err)
	}

	if int64(len(body)) < d.minSize {
		// Placeholder images are tiny; treat them as missing
		return nil, utils.WrapErrorf(utils.ErrImageTooSmall, "image from %s is %d bytes, minimum %d", imageURL, len(body), d.minSize)
	}
	return body, nil
}

func (d *Downloader) recordFailure(imageURL string, cause error) {
	if d.store == nil {
		return
	}
	status := models.ImageStatusFailure
	if strings.Contains(utils.CategorizeError(cause), "404") {
		status = models.ImageStatusNotFound
	}
	dbErr := d.store.UpdateImageStatus(imageURL, &models.ImageDBEntry{
		Status:      string(status),
		ErrorType:   utils.CategorizeError(cause),
		LastAttempt: time.Now().UTC(),
	})
	if dbErr != nil {
		d.log.WithError(dbErr).Warn("Failed to record image failure in store")
	}
}

// alternateURL inserts "-1" before the extension, the variant the host uses
// for refreshed portraits. Returns "" when no extension is present.
func alternateURL(imageURL string) string {
	ext := filepath.Ext(imageURL)
	if ext == "" || strings.Contains(ext, "/") {
		return ""
	}
	base := strings.TrimSuffix(imageURL, ext)
	if strings.HasSuffix(base, "-1") {
		return ""
	}
	return base + "-1" + ext
}

// Job pairs a player with the team slug its image files under.
type Job struct {
	Player   *models.Player
	TeamSlug string
}

// Pool runs image downloads over a bounded number of workers. Page fetching
// stays serial elsewhere; images are static assets on a separate host, so a
// small amount of parallelism is tolerable.
type Pool struct {
	downloader *Downloader
	workers    int64
	log        *logrus.Entry
}

func NewPool(downloader *Downloader, workers int, logger *logrus.Entry) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{downloader: downloader, workers: int64(workers), log: logger}
}

// ProcessAll downloads images for every job with a non-nil ImageURL, setting
// LocalImagePath on success. Failures are soft: the player record keeps a
// null image path and the crawl continues. Returns the number downloaded and
// the number missing.
func (p *Pool) ProcessAll(ctx context.Context, jobs []Job) (downloaded, missing int) {
	sem := semaphore.NewWeighted(p.workers)
	results := make(chan bool, len(jobs))
	launched := 0

	for _, job := range jobs {
		if job.Player.ImageURL == nil {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break // Context cancelled; drain what already launched
		}
		launched++
		go func(job Job) {
			defer sem.Release(1)
			relPath, err := p.downloader.Download(ctx, *job.Player.ImageURL, job.TeamSlug, job.Player.ID)
			if err != nil {
				p.log.WithFields(logrus.Fields{
					"player_id": job.Player.ID,
					"category":  utils.CategorizeError(err),
				}).Debug(fmt.Sprintf("Image download failed: %v", err))
				results <- false
				return
			}
			job.Player.LocalImagePath = &relPath
			results <- true
		}(job)
	}

	for i := 0; i < launched; i++ {
		if <-results {
			downloaded++
		} else {
			missing++
		}
	}
	return downloaded, missing
}
