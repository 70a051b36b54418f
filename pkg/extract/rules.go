package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Profile holds the metadata recovered from a player page's flattened body
// text. Every field is independently optional; a nil pointer (or empty slice)
// means no rule matched, which is normal and never an error.
type Profile struct {
	DateOfBirth  *string
	Age          *int
	PlaceOfBirth *string
	Citizenship  []string

	Height       *string
	Position     *string
	DominantFoot *string

	CurrentClub    *string
	JoinedDate     *string
	ContractExpiry *string
	ShirtNumber    *string
	Agent          *string

	InternationalTeam  *string
	InternationalCaps  *int
	InternationalGoals *int
}

// FieldRule binds one semantic field (or a composite of fields) to a ranked
// list of patterns. Patterns are tried in order against the flattened body
// text; the first one that matches wins and its submatches are handed to
// Apply. If none match, the field simply stays unset.
type FieldRule struct {
	Field    string
	Patterns []*regexp.Regexp
	Apply    func(m []string, p *Profile)
}

// Labels the source renders next to each metadata value. Values are captured
// lazily and terminated on the next label or a double space, the de facto
// separator in flattened text (RE2 has no lookahead, so terminators are
// consumed by a non-capturing group instead).
const labelTerminator = `(?:\s{2}|$)`

// Dates appear either as "Aug 15, 1998" or "15/08/1998" depending on locale
const datePattern = `[A-Z][a-z]{2}\s\d{1,2},\s\d{4}|\d{1,2}/\d{1,2}/\d{4}`

// Words that leak into position/agent captures from the following label when
// the separator is missing in the rendered text
var trailingContamination = regexp.MustCompile(`\s*(?:National\b|Player\b|agent\b).*$`)

var doubleSpaceSplit = regexp.MustCompile(`\s{2,}`)

// Rules returns the ordered field rule table. The table is data: adding a
// field means adding a row, not touching the evaluation loop.
func Rules() []FieldRule {
	return []FieldRule{
		{
			Field: "dateOfBirthAge",
			Patterns: []*regexp.Regexp{
				// Composite "date (age)" decomposes in one match
				regexp.MustCompile(`Date of birth/Age:\s*(` + datePattern + `)\s*\((\d+)\)`),
				regexp.MustCompile(`Date of birth/Age:\s*(.+?)\s*\((\d+)\)`),
				regexp.MustCompile(`Date of birth:\s*(` + datePattern + `)`),
			},
			Apply: func(m []string, p *Profile) {
				p.DateOfBirth = strptr(m[1])
				if len(m) > 2 && m[2] != "" {
					p.Age = intptr(m[2])
				}
			},
		},
		{
			Field: "age",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\bAge:\s*(\d+)`),
			},
			Apply: func(m []string, p *Profile) {
				if p.Age == nil { // Composite rule above may have filled it already
					p.Age = intptr(m[1])
				}
			},
		},
		{
			Field: "placeOfBirth",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`Place of birth:\s*(.+?)` + labelTerminator),
			},
			Apply: func(m []string, p *Profile) {
				p.PlaceOfBirth = strptr(m[1])
			},
		},
		{
			Field: "citizenship",
			Patterns: []*regexp.Regexp{
				// Citizenship values are themselves double-space separated, so
				// this capture terminates on the next label instead
				regexp.MustCompile(`Citizenship:\s*(.+?)\s*(?:Date of birth|Place of birth|Height:|Position:|Foot:|Current club|Player agent|Agent:|$)`),
			},
			Apply: func(m []string, p *Profile) {
				for _, token := range doubleSpaceSplit.Split(m[1], -1) {
					token = strings.TrimSpace(token)
					if len(token) <= 1 { // Flag glyphs and stray separators
						continue
					}
					p.Citizenship = append(p.Citizenship, token)
				}
			},
		},
		{
			Field: "height",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`Height:\s*(\d[\d,.]*\s*m)`),
			},
			Apply: func(m []string, p *Profile) {
				p.Height = strptr(m[1])
			},
		},
		{
			Field: "position",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`Main position:\s*(.+?)` + labelTerminator),
				regexp.MustCompile(`Position:\s*(.+?)` + labelTerminator),
			},
			Apply: func(m []string, p *Profile) {
				p.Position = strptr(stripContamination(m[1]))
			},
		},
		{
			Field: "dominantFoot",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`Foot:\s*(left|right|both)`),
			},
			Apply: func(m []string, p *Profile) {
				p.DominantFoot = strptr(m[1])
			},
		},
		{
			Field: "currentClub",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`Current club:\s*(.+?)\s*(?:\s{2}|Joined:|Contract expires|$)`),
			},
			Apply: func(m []string, p *Profile) {
				p.CurrentClub = strptr(m[1])
			},
		},
		{
			Field: "joinedDate",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`Joined:\s*(` + datePattern + `)`),
			},
			Apply: func(m []string, p *Profile) {
				p.JoinedDate = strptr(m[1])
			},
		},
		{
			Field: "contractExpiry",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`Contract expires:\s*(` + datePattern + `)`),
				regexp.MustCompile(`Contract until:\s*(` + datePattern + `)`),
			},
			Apply: func(m []string, p *Profile) {
				p.ContractExpiry = strptr(m[1])
			},
		},
		{
			Field: "shirtNumber",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`Shirt number:\s*#?(\d+)`),
			},
			Apply: func(m []string, p *Profile) {
				p.ShirtNumber = strptr(m[1])
			},
		},
		{
			Field: "agent",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`Player agent:\s*(.+?)` + labelTerminator),
				regexp.MustCompile(`Agent:\s*(.+?)` + labelTerminator),
			},
			Apply: func(m []string, p *Profile) {
				p.Agent = strptr(stripContamination(m[1]))
			},
		},
		{
			Field: "internationalTeam",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`Current international:\s*(.+?)\s*(?:\s{2}|Caps|$)`),
				regexp.MustCompile(`Former International:\s*(.+?)\s*(?:\s{2}|Caps|$)`),
			},
			Apply: func(m []string, p *Profile) {
				p.InternationalTeam = strptr(m[1])
			},
		},
		{
			Field: "capsGoals",
			Patterns: []*regexp.Regexp{
				// Composite "caps / goals" decomposes in one match
				regexp.MustCompile(`Caps/Goals:\s*(\d+)\s*/\s*(\d+)`),
				regexp.MustCompile(`Caps:\s*(\d+)\s{2,}Goals:\s*(\d+)`),
			},
			Apply: func(m []string, p *Profile) {
				p.InternationalCaps = intptr(m[1])
				p.InternationalGoals = intptr(m[2])
			},
		},
	}
}

// ExtractProfile runs the rule table over flattened body text. Missing fields
// are normal: no rule match means the field stays nil. The engine itself
// never fails.
func ExtractProfile(bodyText string) Profile {
	var p Profile
	for _, rule := range Rules() {
		for _, pattern := range rule.Patterns {
			if m := pattern.FindStringSubmatch(bodyText); m != nil {
				rule.Apply(m, &p)
				break // First matching pattern wins
			}
		}
	}
	return p
}

// stripContamination removes label text that bleeds into a capture when the
// double-space separator is missing
func stripContamination(s string) string {
	return strings.TrimSpace(trailingContamination.ReplaceAllString(s, ""))
}

func strptr(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func intptr(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}
