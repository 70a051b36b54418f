package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"NewlinesBecomeDoubleSpace", "Height:\n1,88 m", "Height:  1,88 m"},
		{"TabsBecomeDoubleSpace", "Foot:\tright", "Foot:  right"},
		{"WideRunsCollapseToDouble", "A      B", "A  B"},
		{"DoubleSpacePreserved", "Sweden  Finland", "Sweden  Finland"},
		{"NbspBecomesSpace", "Caps/Goals: 30 / 15", "Caps/Goals: 30 / 15"},
		{"TrimsEdges", "  \n Position: Striker \n ", "Position: Striker"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Flatten(tt.input))
		})
	}
}

func TestExtractProfile_DateOfBirthAndAge(t *testing.T) {
	p := ExtractProfile("Date of birth/Age: 15/08/1998 (27)  Place of birth: Malmö")

	require.NotNil(t, p.DateOfBirth)
	assert.Equal(t, "15/08/1998", *p.DateOfBirth)
	require.NotNil(t, p.Age)
	assert.Equal(t, 27, *p.Age)
	require.NotNil(t, p.PlaceOfBirth)
	assert.Equal(t, "Malmö", *p.PlaceOfBirth)
}

func TestExtractProfile_LocaleDateFormat(t *testing.T) {
	p := ExtractProfile("Date of birth/Age: Aug 15, 1998 (27)")

	require.NotNil(t, p.DateOfBirth)
	assert.Equal(t, "Aug 15, 1998", *p.DateOfBirth)
	require.NotNil(t, p.Age)
	assert.Equal(t, 27, *p.Age)
}

func TestExtractProfile_StandaloneAgeDoesNotOverwrite(t *testing.T) {
	p := ExtractProfile("Date of birth/Age: 15/08/1998 (27)  Age: 26")

	require.NotNil(t, p.Age)
	assert.Equal(t, 27, *p.Age, "composite rule fills age first")
}

func TestExtractProfile_Citizenship(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			"SingleCountry",
			"Citizenship: Sweden  Height: 1,88 m",
			[]string{"Sweden"},
		},
		{
			"DualCitizenship",
			"Citizenship: Sweden  Bosnia-Herzegovina  Height: 1,88 m",
			[]string{"Sweden", "Bosnia-Herzegovina"},
		},
		{
			"StrayGlyphsFiltered",
			"Citizenship: Sweden  x  Finland  Position: Striker",
			[]string{"Sweden", "Finland"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ExtractProfile(tt.input)
			assert.Equal(t, tt.expected, p.Citizenship)
		})
	}
}

func TestExtractProfile_PhysicalAndClub(t *testing.T) {
	text := strings.Join([]string{
		"Height: 1,88 m",
		"Main position: Centre-Forward",
		"Foot: right",
		"Current club: AC Milan",
		"Joined: Jul 1, 2020",
		"Contract expires: Jun 30, 2026",
		"Shirt number: #9",
		"Player agent: Example Sports Group",
	}, "  ")

	p := ExtractProfile(text)

	require.NotNil(t, p.Height)
	assert.Equal(t, "1,88 m", *p.Height)
	require.NotNil(t, p.Position)
	assert.Equal(t, "Centre-Forward", *p.Position)
	require.NotNil(t, p.DominantFoot)
	assert.Equal(t, "right", *p.DominantFoot)
	require.NotNil(t, p.CurrentClub)
	assert.Equal(t, "AC Milan", *p.CurrentClub)
	require.NotNil(t, p.JoinedDate)
	assert.Equal(t, "Jul 1, 2020", *p.JoinedDate)
	require.NotNil(t, p.ContractExpiry)
	assert.Equal(t, "Jun 30, 2026", *p.ContractExpiry)
	require.NotNil(t, p.ShirtNumber)
	assert.Equal(t, "9", *p.ShirtNumber)
	require.NotNil(t, p.Agent)
	assert.Equal(t, "Example Sports Group", *p.Agent)
}

func TestExtractProfile_PositionContaminationStripped(t *testing.T) {
	// Missing separator bleeds the next label into the capture
	p := ExtractProfile("Main position: Centre-Forward National team: Sweden")

	require.NotNil(t, p.Position)
	assert.Equal(t, "Centre-Forward", *p.Position)
}

func TestExtractProfile_International(t *testing.T) {
	p := ExtractProfile("Current international: Sweden  Caps/Goals: 30 / 15")

	require.NotNil(t, p.InternationalTeam)
	assert.Equal(t, "Sweden", *p.InternationalTeam)
	require.NotNil(t, p.InternationalCaps)
	assert.Equal(t, 30, *p.InternationalCaps)
	require.NotNil(t, p.InternationalGoals)
	assert.Equal(t, 15, *p.InternationalGoals)
}

func TestExtractProfile_MissingFieldsStayNil(t *testing.T) {
	p := ExtractProfile("nothing useful here")

	assert.Nil(t, p.DateOfBirth)
	assert.Nil(t, p.Age)
	assert.Nil(t, p.PlaceOfBirth)
	assert.Nil(t, p.Citizenship)
	assert.Nil(t, p.Height)
	assert.Nil(t, p.Position)
	assert.Nil(t, p.DominantFoot)
	assert.Nil(t, p.CurrentClub)
	assert.Nil(t, p.InternationalTeam)
	assert.Nil(t, p.InternationalCaps)
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractImageURL(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			"SrcWithSizeToken",
			`<img src="https://img.example.com/portrait/medium/12345.jpg">`,
			"https://img.example.com/portrait/header/12345.jpg",
		},
		{
			"DataSrcWinsOverPlaceholder",
			`<img src="placeholder.gif" data-src="https://img.example.com/portrait/small/99.png">`,
			"https://img.example.com/portrait/header/99.png",
		},
		{
			"BigToken",
			`<img src="https://img.example.com/portrait/big/7.jpg">`,
			"https://img.example.com/portrait/header/7.jpg",
		},
		{
			"NonPortraitIgnored",
			`<img src="https://img.example.com/logo/medium/1.png">`,
			"",
		},
		{
			"FirstPortraitWins",
			`<img src="https://img.example.com/portrait/small/1.jpg"><img src="https://img.example.com/portrait/small/2.jpg">`,
			"https://img.example.com/portrait/header/1.jpg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDoc(t, "<html><body>"+tt.html+"</body></html>")
			assert.Equal(t, tt.expected, ExtractImageURL(doc))
		})
	}
}

func TestPortraitURL(t *testing.T) {
	assert.Equal(t,
		"https://img.example.com/portrait/header/12345.jpg",
		PortraitURL("img.example.com", "12345"))
}

func TestExtractMarketValue(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			"MillionSuffix",
			`<a href="/mv">€75.00m market value</a>`,
			"€75.00m",
		},
		{
			"ThousandSuffix",
			`<a>€500Th.</a>`,
			"€500Th.",
		},
		{
			"FirstEuroAnchorWins",
			`<a>no value</a><a>€1.20bn</a><a>€5.00m</a>`,
			"€1.20bn",
		},
		{
			"NoAnchorWithEuro",
			`<a>free transfer</a>`,
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDoc(t, "<html><body>"+tt.html+"</body></html>")
			assert.Equal(t, tt.expected, ExtractMarketValue(doc))
		})
	}
}
