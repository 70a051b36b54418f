// Package discover walks listing pages and turns their anchors into
// deduplicated entity references in document order.
package discover

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"squad-scraper/pkg/models"
	"squad-scraper/pkg/parse"
)

var numericOnly = regexp.MustCompile(`^\d+$`)

// Discoverer extracts team and player references from parsed listing pages.
type Discoverer struct {
	baseURL             string
	teamLimit           int
	minTeamNameLength   int
	minPlayerNameLength int
	log                 *logrus.Entry
}

func NewDiscoverer(baseURL string, teamLimit, minTeamNameLength, minPlayerNameLength int, logger *logrus.Entry) *Discoverer {
	return &Discoverer{
		baseURL:             strings.TrimRight(baseURL, "/"),
		teamLimit:           teamLimit,
		minTeamNameLength:   minTeamNameLength,
		minPlayerNameLength: minPlayerNameLength,
		log:                 logger,
	}
}

// Teams walks the competition page's anchors in document order and returns
// the distinct teams, first occurrence winning, truncated to the configured
// limit. Anchors without a recognizable ID, with names shorter than the
// minimum, or with purely numeric names are skipped.
func (d *Discoverer) Teams(doc *goquery.Document) []models.Team {
	seen := make(map[string]bool)
	var teams []models.Team

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.Contains(href, "/startseite/verein/") {
			return
		}

		id := parse.ExtractEntityID(href, parse.KindTeam)
		if id == parse.UnknownID || seen[id] {
			return
		}

		name := parse.CleanText(s.Text())
		if !d.acceptName(name, d.minTeamNameLength) {
			return
		}

		seen[id] = true
		teams = append(teams, models.Team{
			ID:           id,
			Name:         name,
			Slug:         parse.ExtractSlug(href),
			CanonicalURL: d.absolute(href),
		})
	})

	if d.teamLimit > 0 && len(teams) > d.teamLimit {
		d.log.WithFields(logrus.Fields{
			"discovered": len(teams),
			"limit":      d.teamLimit,
		}).Debug("Truncating team list to limit")
		teams = teams[:d.teamLimit]
	}
	return teams
}

// Players walks a squad page's anchors in document order and returns the
// distinct player references, first occurrence winning. Squad pages list
// each player several times (photo cell, name cell, position cell), so
// dedup by ID is what keeps the roster honest.
func (d *Discoverer) Players(doc *goquery.Document) []models.PlayerReference {
	seen := make(map[string]bool)
	var players []models.PlayerReference

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.Contains(href, "/profil/spieler/") {
			return
		}

		id := parse.ExtractEntityID(href, parse.KindPlayer)
		if id == parse.UnknownID || seen[id] {
			return
		}

		name := parse.CleanText(s.Text())
		if !d.acceptName(name, d.minPlayerNameLength) {
			return
		}

		seen[id] = true
		players = append(players, models.PlayerReference{
			ID:         id,
			Name:       name,
			ProfileURL: d.absolute(href),
		})
	})

	return players
}

// SquadURL derives the roster page URL from a team's canonical URL.
func (d *Discoverer) SquadURL(team models.Team) string {
	return parse.SquadURL(team.CanonicalURL)
}

func (d *Discoverer) acceptName(name string, minLength int) bool {
	if len(name) < minLength {
		return false
	}
	return !numericOnly.MatchString(name)
}

func (d *Discoverer) absolute(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return d.baseURL + href
}
