package profile

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squad-scraper/pkg/config"
	"squad-scraper/pkg/fetch"
	"squad-scraper/pkg/models"
	"squad-scraper/pkg/utils"
)

const profilePage = `<html><body>
<div class="header">
	<img data-src="https://img.example.com/portrait/medium/101.jpg" src="placeholder.gif">
	<a href="/marktwert">€75.00m market value</a>
</div>
<div class="facts">
	Date of birth/Age: 15/08/1998 (27)
	Place of birth: Malmö
	Citizenship: Sweden
	Height: 1,88 m
	Main position: Centre-Forward
	Foot: right
	Current club: AC Milan
	Joined: Jul 1, 2020
	Contract expires: Jun 30, 2026
	Current international: Sweden
	Caps/Goals: 30 / 15
</div>
</body></html>`

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	entry := logger.WithField("component", "profile")

	cfg := &config.AppConfig{
		MaxRetries:        1,
		InitialRetryDelay: 10 * time.Millisecond,
		MaxRetryDelay:     50 * time.Millisecond,
	}
	fetcher := fetch.NewFetcher(&http.Client{Timeout: 30 * time.Second}, cfg, logger)
	rl := fetch.NewRateLimiter(0, entry)
	loader := fetch.NewPageLoader(fetcher, rl, nil, nil, "test-agent/1.0", 0, entry)
	return NewResolver(loader, entry)
}

func testTeam() models.Team {
	return models.Team{ID: "11", Name: "AC Milan", Slug: "ac-milan", CanonicalURL: "https://site.example.com/ac-milan/startseite/verein/11"}
}

func TestResolve_FullProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, profilePage)
	}))
	t.Cleanup(server.Close)

	ref := models.PlayerReference{ID: "101", Name: "Erik Larsson", ProfileURL: server.URL + "/erik-larsson/profil/spieler/101"}
	player, err := testResolver(t).Resolve(context.Background(), ref, testTeam())
	require.NoError(t, err)

	assert.Equal(t, "101", player.ID)
	assert.Equal(t, "Erik Larsson", player.Name)
	assert.Equal(t, "AC Milan", player.Team)
	assert.Equal(t, "ac-milan", player.TeamSlug)

	require.NotNil(t, player.ImageURL)
	assert.Equal(t, "https://img.example.com/portrait/header/101.jpg", *player.ImageURL)
	require.NotNil(t, player.MarketValue)
	assert.Equal(t, "€75.00m", *player.MarketValue)

	require.NotNil(t, player.DateOfBirth)
	assert.Equal(t, "15/08/1998", *player.DateOfBirth)
	require.NotNil(t, player.Age)
	assert.Equal(t, 27, *player.Age)
	require.NotNil(t, player.PlaceOfBirth)
	assert.Equal(t, "Malmö", *player.PlaceOfBirth)
	assert.Equal(t, []string{"Sweden"}, player.Citizenship)
	require.NotNil(t, player.Height)
	assert.Equal(t, "1,88 m", *player.Height)
	require.NotNil(t, player.Position)
	assert.Equal(t, "Centre-Forward", *player.Position)
	require.NotNil(t, player.DominantFoot)
	assert.Equal(t, "right", *player.DominantFoot)
	require.NotNil(t, player.CurrentClub)
	assert.Equal(t, "AC Milan", *player.CurrentClub)
	require.NotNil(t, player.InternationalTeam)
	assert.Equal(t, "Sweden", *player.InternationalTeam)
	require.NotNil(t, player.InternationalCaps)
	assert.Equal(t, 30, *player.InternationalCaps)
	require.NotNil(t, player.InternationalGoals)
	assert.Equal(t, 15, *player.InternationalGoals)
}

func TestResolve_SparsePageKeepsIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><h1>Player</h1></body></html>`)
	}))
	t.Cleanup(server.Close)

	ref := models.PlayerReference{ID: "5", Name: "No Data", ProfileURL: server.URL + "/x/profil/spieler/5"}
	player, err := testResolver(t).Resolve(context.Background(), ref, testTeam())
	require.NoError(t, err)

	assert.Equal(t, "5", player.ID)
	assert.Nil(t, player.DateOfBirth)
	assert.Nil(t, player.ImageURL)
	assert.Nil(t, player.MarketValue)
}

func TestResolve_FetchFailureIsRecoverable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	ref := models.PlayerReference{ID: "404", Name: "Gone Player", ProfileURL: server.URL + "/x/profil/spieler/404"}
	_, err := testResolver(t).Resolve(context.Background(), ref, testTeam())
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrProfileFetch)
}

func TestFromReference(t *testing.T) {
	ref := models.PlayerReference{ID: "7", Name: "Skip Mode", ProfileURL: "https://site.example.com/x/profil/spieler/7"}
	player := FromReference(ref, testTeam())

	assert.Equal(t, "7", player.ID)
	assert.Equal(t, "AC Milan", player.Team)
	assert.Nil(t, player.Age)
}
