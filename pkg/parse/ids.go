package parse

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// UnknownID is the sentinel returned when an href carries no recognizable
// entity id. Discovery treats it as a non-identity: entries resolving to it
// are excluded rather than deduplicated against each other.
const UnknownID = "unknown"

// Entity kind markers as they appear in the site's URL paths:
// /<slug>/startseite/verein/<id> for clubs, /<slug>/profil/spieler/<id> for players.
const (
	KindTeam   = "verein"
	KindPlayer = "spieler"
)

var (
	idPatternCache   = make(map[string]*regexp.Regexp)
	idPatternCacheMu sync.Mutex
)

// idPattern returns the compiled `/<kind>/(digits)` matcher for an entity kind.
// Patterns are cached; kinds come from a small fixed set.
func idPattern(kind string) *regexp.Regexp {
	idPatternCacheMu.Lock()
	defer idPatternCacheMu.Unlock()

	re, ok := idPatternCache[kind]
	if !ok {
		re = regexp.MustCompile(fmt.Sprintf(`/%s/(\d+)`, regexp.QuoteMeta(kind)))
		idPatternCache[kind] = re
	}
	return re
}

// ExtractEntityID pulls the numeric id that follows the entity-kind marker in
// an href path, e.g. "/fc-example/startseite/verein/123?saison_id=2024" with
// kind "verein" yields "123". Returns UnknownID when there is no match.
func ExtractEntityID(href, kind string) string {
	m := idPattern(kind).FindStringSubmatch(href)
	if m == nil {
		return UnknownID
	}
	return m[1]
}

// ExtractSlug returns the first path segment of an href, which the site uses
// as the entity's URL slug. Absolute URLs are handled by skipping the
// scheme and host. Returns UnknownID when the path has no segment.
func ExtractSlug(href string) string {
	if i := strings.Index(href, "://"); i >= 0 {
		rest := href[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			href = rest[j:]
		} else {
			return UnknownID
		}
	}
	trimmed := strings.TrimPrefix(href, "/")
	// Cut at query string first so "/?foo" doesn't leak query text into the slug
	if idx := strings.IndexAny(trimmed, "?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	segment, _, _ := strings.Cut(trimmed, "/")
	if segment == "" {
		return UnknownID
	}
	return segment
}

// SquadURL rewrites a team's canonical overview URL into its squad sub-page by
// URL-segment substitution ("/startseite/" -> "/kader/").
func SquadURL(teamURL string) string {
	return strings.Replace(teamURL, "/startseite/", "/kader/", 1)
}
