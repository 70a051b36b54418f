package models

import "time"

// Team represents one club discovered from the competition listing page.
// Identity is the numeric ID extracted from the club URL path. Immutable
// after discovery; scope is a single crawl run.
type Team struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	CanonicalURL string `json:"canonicalUrl"`
}

// PlayerReference is the lightweight handle produced by squad-page discovery.
// It is upgraded into a full Player record by profile resolution.
type PlayerReference struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ProfileURL string `json:"profileUrl"`
}

// Player is a fully resolved roster record.
// All metadata fields are independently optional; absence is expected and is
// serialized as an explicit null (pointer fields) rather than an omitted key,
// so the JSON shape stays identical across records.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ProfileURL string `json:"profileUrl"`

	ImageURL       *string `json:"imageUrl"`
	LocalImagePath *string `json:"localImagePath"` // Set only after the file was written and size-verified

	Team     string `json:"team"`
	TeamSlug string `json:"teamSlug"`

	DateOfBirth  *string  `json:"dateOfBirth"`
	Age          *int     `json:"age"`
	PlaceOfBirth *string  `json:"placeOfBirth"`
	Citizenship  []string `json:"citizenship"`

	Height       *string `json:"height"`
	Position     *string `json:"position"`
	DominantFoot *string `json:"dominantFoot"` // "left", "right" or "both"

	CurrentClub    *string `json:"currentClub"`
	JoinedDate     *string `json:"joinedDate"`
	ContractExpiry *string `json:"contractExpiry"`
	MarketValue    *string `json:"marketValue"` // Currency-formatted, e.g. "€75.00m"
	ShirtNumber    *string `json:"shirtNumber"`
	Agent          *string `json:"agent"`

	InternationalTeam  *string `json:"internationalTeam"`
	InternationalCaps  *int    `json:"internationalCaps"`
	InternationalGoals *int    `json:"internationalGoals"`
}

// ImageDBEntry stores the result of processing an image URL in the database
type ImageDBEntry struct {
	Status      string    `json:"status"`               // "success" or "failure"
	LocalPath   string    `json:"local_path,omitempty"` // Relative path from output dir (on success)
	ErrorType   string    `json:"error_type,omitempty"` // Error category (on failure)
	LastAttempt time.Time `json:"last_attempt"`         // Timestamp of the last download attempt
}

// CachedResponse is a fetched page body retained in the response cache
type CachedResponse struct {
	Body      []byte    `json:"body"`
	FetchedAt time.Time `json:"fetched_at"`
}

// CrawlSummary holds the end-of-run counters reported to the console and
// written next to the JSON artifacts.
type CrawlSummary struct {
	RunID             string        `json:"runId"`
	Competition       string        `json:"competition"`
	StartedAt         time.Time     `json:"startedAt"`
	FinishedAt        time.Time     `json:"finishedAt"`
	Duration          time.Duration `json:"-"`
	TeamsDiscovered   int           `json:"teamsDiscovered"`
	TeamsFailed       int           `json:"teamsFailed"`
	PlayersDiscovered int           `json:"playersDiscovered"`
	PlayersProfiled   int           `json:"playersProfiled"`
	PlayersFailed     int           `json:"playersFailed"`
	ImagesDownloaded  int           `json:"imagesDownloaded"`
	ImagesMissing     int           `json:"imagesMissing"`

	// Error category -> count, populated from utils.CategorizeError
	ErrorCounts map[string]int `json:"errorCounts,omitempty"`
}
