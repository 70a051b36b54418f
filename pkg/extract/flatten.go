package extract

import (
	"regexp"
	"strings"
)

var (
	newlineRun = regexp.MustCompile(`[ \t]*[\r\n]+[ \t]*`)
	tabRun     = regexp.MustCompile(`\t+`)
	wideSpaces = regexp.MustCompile(` {3,}`)
	nbsp       = strings.NewReplacer(" ", " ") // goquery decodes &nbsp; to U+00A0
)

// Flatten converts a document's text content into the single-line form the
// field rules match against. Line breaks and tab runs become double spaces,
// which act as the de facto field separator; existing double spaces are
// preserved because citizenship lists rely on them.
func Flatten(text string) string {
	t := nbsp.Replace(text)
	t = newlineRun.ReplaceAllString(t, "  ")
	t = tabRun.ReplaceAllString(t, "  ")
	t = wideSpaces.ReplaceAllString(t, "  ")
	return strings.TrimSpace(t)
}
