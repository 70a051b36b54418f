package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEntityID(t *testing.T) {
	tests := []struct {
		name     string
		href     string
		kind     string
		expected string
	}{
		{"TeamHref", "/fc-example/startseite/verein/123", KindTeam, "123"},
		{"TeamHrefWithQuery", "/fc-example/startseite/verein/123?saison_id=2024", KindTeam, "123"},
		{"PlayerHref", "/erling-haaland/profil/spieler/418560", KindPlayer, "418560"},
		{"WrongKind", "/fc-example/startseite/verein/123", KindPlayer, UnknownID},
		{"NoDigits", "/fc-example/startseite/verein/abc", KindTeam, UnknownID},
		{"EmptyHref", "", KindTeam, UnknownID},
		{"MarkerOnly", "/verein/", KindTeam, UnknownID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractEntityID(tt.href, tt.kind))
		})
	}
}

func TestExtractSlug(t *testing.T) {
	tests := []struct {
		name     string
		href     string
		expected string
	}{
		{"TeamHref", "/fc-example/startseite/verein/123", "fc-example"},
		{"PlayerHref", "/erling-haaland/profil/spieler/418560", "erling-haaland"},
		{"NoLeadingSlash", "fc-example/startseite/verein/123", "fc-example"},
		{"AbsoluteURL", "https://example.com/fc-example/startseite/verein/123", "fc-example"},
		{"AbsoluteURLNoPath", "https://example.com", UnknownID},
		{"QueryOnlyPath", "/?foo=bar", UnknownID},
		{"Empty", "", UnknownID},
		{"Root", "/", UnknownID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractSlug(tt.href))
		})
	}
}

func TestSquadURL(t *testing.T) {
	assert.Equal(t,
		"https://example.com/fc-example/kader/verein/123",
		SquadURL("https://example.com/fc-example/startseite/verein/123"))

	// URLs without the overview segment pass through unchanged
	assert.Equal(t,
		"https://example.com/fc-example/spielplan/verein/123",
		SquadURL("https://example.com/fc-example/spielplan/verein/123"))
}
