package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	sizeToken     = regexp.MustCompile(`/(small|medium|big)/`)
	marketValueRe = regexp.MustCompile(`€[\d.,]+\s*(?:bn|m|k|Th\.)?`)
)

// ExtractImageURL finds the player's portrait image in the document and
// rewrites its size token to the full-resolution variant. Lazy-loaded images
// carry the real URL in data-src, so that attribute wins over src. Returns
// "" when no portrait image is present.
func ExtractImageURL(doc *goquery.Document) string {
	var found string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, ok := s.Attr("data-src")
		if !ok || src == "" {
			src, _ = s.Attr("src")
		}
		if !strings.Contains(src, "portrait") {
			return true
		}
		found = sizeToken.ReplaceAllString(src, "/header/")
		return false
	})
	return found
}

// PortraitURL builds the templated portrait URL for a player ID when the
// profile page itself is not fetched (skip_profiles mode).
func PortraitURL(imageHost, playerID string) string {
	return fmt.Sprintf("https://%s/portrait/header/%s.jpg", imageHost, playerID)
}

// ExtractMarketValue returns the market value string from the first anchor
// whose text contains a euro amount, e.g. "€75.00m". Returns "" when the
// page shows no valuation.
func ExtractMarketValue(doc *goquery.Document) string {
	var found string
	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "€") {
			return true
		}
		if m := marketValueRe.FindString(text); m != "" {
			found = strings.TrimSpace(m)
			return false
		}
		return true
	})
	return found
}
