package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"squad-scraper/pkg/parse"
	"squad-scraper/pkg/storage"
	"squad-scraper/pkg/utils"
)

// PageLoader is the single entry point for page fetches. It consults the
// response cache first, enforces robots.txt and per-host politeness on a miss,
// and stores fresh bodies back into the cache.
type PageLoader struct {
	fetcher     *Fetcher
	rateLimiter *RateLimiter
	robots      *RobotsHandler
	cache       storage.ResponseCache // nil disables caching
	userAgent   string
	hostDelay   time.Duration // Minimum delay between requests to the same host
	log         *logrus.Entry
}

// NewPageLoader creates a PageLoader. Passing a nil cache disables caching;
// passing a nil robots handler disables robots checks.
func NewPageLoader(
	fetcher *Fetcher,
	rateLimiter *RateLimiter,
	robots *RobotsHandler,
	cache storage.ResponseCache,
	userAgent string,
	hostDelay time.Duration,
	log *logrus.Entry,
) *PageLoader {
	return &PageLoader{
		fetcher:     fetcher,
		rateLimiter: rateLimiter,
		robots:      robots,
		cache:       cache,
		userAgent:   userAgent,
		hostDelay:   hostDelay,
		log:         log,
	}
}

// LoadBytes returns the body of pageURL, either from the response cache or by
// fetching. The second return value reports whether the body came from cache.
func (pl *PageLoader) LoadBytes(ctx context.Context, pageURL string) ([]byte, bool, error) {
	normURL, parsedURL, err := parse.ParseAndNormalize(pageURL)
	if err != nil {
		return nil, false, utils.WrapErrorf(utils.ErrParsing, "invalid page URL '%s': %v", pageURL, err)
	}
	pageLog := pl.log.WithField("url", normURL)

	// 1. Cache lookup
	if pl.cache != nil {
		entry, hit, cacheErr := pl.cache.GetResponse(normURL)
		if cacheErr != nil {
			// A broken cache must not break the crawl; fall through to fetching
			pageLog.Warnf("Response cache lookup failed, fetching instead: %v", cacheErr)
		} else if hit {
			pageLog.WithField("fetched_at", entry.FetchedAt).Debug("Serving page from response cache")
			return entry.Body, true, nil
		}
	}

	// 2. Robots check
	if pl.robots != nil && !pl.robots.TestAgent(ctx, parsedURL) {
		return nil, false, utils.WrapErrorf(utils.ErrRobotsDisallowed, "%s", normURL)
	}

	// 3. Per-host politeness delay
	host := parsedURL.Hostname()
	pl.rateLimiter.ApplyDelay(ctx, host, pl.hostDelay)

	// 4. Fetch
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", utils.ErrRequestCreation, err)
	}
	req.Header.Set("User-Agent", pl.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, fetchErr := pl.fetcher.FetchWithRetry(req, ctx)
	pl.rateLimiter.UpdateLastRequestTime(host)
	if fetchErr != nil {
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		return nil, false, fetchErr
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, false, fmt.Errorf("%w: %w", utils.ErrResponseBodyRead, readErr)
	}

	// 5. Store in cache (best effort)
	if pl.cache != nil {
		if putErr := pl.cache.PutResponse(normURL, body); putErr != nil {
			pageLog.Warnf("Failed to cache response: %v", putErr)
		}
	}

	return body, false, nil
}

// LoadDocument fetches (or reads from cache) pageURL and parses it into a
// goquery document.
func (pl *PageLoader) LoadDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, _, err := pl.LoadBytes(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, parseErr := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if parseErr != nil {
		return nil, utils.WrapErrorf(utils.ErrParsing, "HTML parse of '%s': %v", pageURL, parseErr)
	}
	return doc, nil
}
