package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// RobotsHandler manages fetching, parsing, caching, and checking robots.txt
// data for the hosts the crawl touches.
type RobotsHandler struct {
	fetcher       *Fetcher
	rateLimiter   *RateLimiter
	userAgent     string                           // Agent used for robots.txt fetches and rule checks
	robotsCache   map[string]*robotstxt.RobotsData // hostname -> parsed data (or nil on failure)
	robotsCacheMu sync.Mutex
	log           *logrus.Entry
}

// NewRobotsHandler creates a RobotsHandler
func NewRobotsHandler(fetcher *Fetcher, rateLimiter *RateLimiter, userAgent string, log *logrus.Entry) *RobotsHandler {
	return &RobotsHandler{
		fetcher:     fetcher,
		rateLimiter: rateLimiter,
		userAgent:   userAgent,
		robotsCache: make(map[string]*robotstxt.RobotsData),
		log:         log,
	}
}

// cacheResult stores a fetch/parse outcome (possibly nil) for a host
func (rh *RobotsHandler) cacheResult(host string, data *robotstxt.RobotsData) {
	rh.robotsCacheMu.Lock()
	rh.robotsCache[host] = data
	rh.robotsCacheMu.Unlock()
}

// getRobotsData retrieves robots.txt data for the targetURL's host, using the
// cache or fetching on a miss. Returns nil on any error/4xx/missing file,
// which callers treat as "allowed".
func (rh *RobotsHandler) getRobotsData(ctx context.Context, targetURL *url.URL) *robotstxt.RobotsData {
	host := targetURL.Hostname()
	hostLog := rh.log.WithField("host", host)

	// 1. Check Cache
	rh.robotsCacheMu.Lock()
	robotsData, found := rh.robotsCache[host]
	rh.robotsCacheMu.Unlock()
	if found {
		return robotsData // Return cached data (could be nil)
	}

	// 2. Prepare Fetch URL
	robotsURL := &url.URL{Scheme: targetURL.Scheme, Host: targetURL.Host, Path: "/robots.txt"}
	if targetURL.Scheme != "http" && targetURL.Scheme != "https" {
		hostLog.Warnf("Invalid scheme '%s', defaulting to https for robots.txt", targetURL.Scheme)
		robotsURL.Scheme = "https"
	}
	robotsURLStr := robotsURL.String()
	robotsLog := hostLog.WithField("robots_url", robotsURLStr)
	robotsLog.Info("Fetching robots.txt...") // Log only on cache miss

	// 3. Apply Rate Limit (using default delay)
	rh.rateLimiter.ApplyDelay(ctx, host, 0)

	// 4. Fetch Request (with retries via Fetcher)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURLStr, nil)
	if err != nil {
		robotsLog.Errorf("Error creating request: %v", err)
		rh.cacheResult(host, nil)
		return nil
	}
	req.Header.Set("User-Agent", rh.userAgent)

	resp, fetchErr := rh.fetcher.FetchWithRetry(req, ctx)
	rh.rateLimiter.UpdateLastRequestTime(host) // Update time after attempt

	if fetchErr != nil {
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		// A missing or inaccessible robots.txt means no restrictions
		robotsLog.Warnf("Fetching robots.txt failed, assuming allowed: %v", fetchErr)
		rh.cacheResult(host, nil)
		return nil
	}
	defer resp.Body.Close()

	// 5. Read and Parse Body
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		robotsLog.Errorf("Error reading body: %v", err)
		rh.cacheResult(host, nil)
		return nil
	}

	data, err := robotstxt.FromBytes(bodyBytes)
	if err != nil {
		robotsLog.Errorf("Error parsing content: %v", err)
		rh.cacheResult(host, nil)
		return nil
	}

	// 6. Cache Success
	robotsLog.Info("Successfully fetched and parsed robots.txt")
	rh.cacheResult(host, data)
	return data
}

// TestAgent checks if the configured user agent is allowed to access targetURL.
// Returns true if allowed (or if robots data could not be obtained), false otherwise.
func (rh *RobotsHandler) TestAgent(ctx context.Context, targetURL *url.URL) bool {
	robotsData := rh.getRobotsData(ctx, targetURL)

	// Assume allowed if robots data could not be obtained (4xx, 5xx, network error, parse error)
	if robotsData == nil {
		return true
	}

	return robotsData.TestAgent(targetURL.RequestURI(), rh.userAgent)
}
