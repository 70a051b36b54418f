package output

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squad-scraper/pkg/models"
)

func testWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	dir := t.TempDir()
	return NewWriter(dir, logger.WithField("component", "output")), dir
}

func strp(s string) *string { return &s }

func sampleData() ([]models.Team, []*models.Player) {
	teams := []models.Team{
		{ID: "11", Name: "AC Milan", Slug: "ac-milan"},
		{ID: "12", Name: "FC Example", Slug: "fc-example"},
	}
	players := []*models.Player{
		{ID: "101", Name: "Erik Larsson", TeamSlug: "ac-milan", Team: "AC Milan", Position: strp("Centre-Forward")},
		{ID: "102", Name: "Jan Novak", TeamSlug: "ac-milan", Team: "AC Milan"},
		{ID: "201", Name: "Luis Costa", TeamSlug: "fc-example", Team: "FC Example"},
	}
	return teams, players
}

func TestWritePlayers_CombinedAndPerTeam(t *testing.T) {
	w, dir := testWriter(t)
	teams, players := sampleData()

	require.NoError(t, w.WritePlayers(teams, players))

	var combined []models.Player
	data, err := os.ReadFile(filepath.Join(dir, "players.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &combined))
	require.Len(t, combined, 3)
	assert.Equal(t, "101", combined[0].ID)
	assert.Equal(t, "201", combined[2].ID)

	var milan []models.Player
	data, err = os.ReadFile(filepath.Join(dir, "teams", "ac-milan.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &milan))
	require.Len(t, milan, 2)
	assert.Equal(t, "Erik Larsson", milan[0].Name)
}

func TestWritePlayers_NullsAreExplicit(t *testing.T) {
	w, dir := testWriter(t)
	teams, players := sampleData()

	require.NoError(t, w.WritePlayers(teams, players))

	data, err := os.ReadFile(filepath.Join(dir, "players.json"))
	require.NoError(t, err)

	var raw []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	// Missing metadata serializes as null, not as an omitted key
	require.Contains(t, raw[1], "position")
	assert.Equal(t, "null", string(raw[1]["position"]))
	require.Contains(t, raw[1], "imageUrl")
	assert.Equal(t, "null", string(raw[1]["imageUrl"]))
}

func TestWritePlayers_EmptyRosterStillWritesTeamFile(t *testing.T) {
	w, dir := testWriter(t)
	teams, _ := sampleData()

	// Second team's squad fetch failed; no players carry its slug
	players := []*models.Player{
		{ID: "101", Name: "Erik Larsson", TeamSlug: "ac-milan", Team: "AC Milan"},
	}
	require.NoError(t, w.WritePlayers(teams, players))

	data, err := os.ReadFile(filepath.Join(dir, "teams", "fc-example.json"))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestWritePlayers_OverwritesPreviousRun(t *testing.T) {
	w, dir := testWriter(t)
	teams, players := sampleData()

	require.NoError(t, w.WritePlayers(teams, players))
	require.NoError(t, w.WritePlayers(teams, players[:1]))

	var combined []models.Player
	data, err := os.ReadFile(filepath.Join(dir, "players.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &combined))
	assert.Len(t, combined, 1)
}

func TestWriteSummary(t *testing.T) {
	w, dir := testWriter(t)
	summary := &models.CrawlSummary{
		RunID:             uuid.NewString(),
		Competition:       "https://site.example.com/liga/startseite/wettbewerb/L1",
		StartedAt:         time.Now().Add(-time.Minute).UTC(),
		FinishedAt:        time.Now().UTC(),
		TeamsDiscovered:   20,
		PlayersDiscovered: 540,
		PlayersProfiled:   530,
		ImagesDownloaded:  500,
		ImagesMissing:     30,
		ErrorCounts:       map[string]int{"Fetch_Profile": 10},
	}

	require.NoError(t, w.WriteSummary(summary))

	var got models.CrawlSummary
	data, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, summary.RunID, got.RunID)
	assert.Equal(t, 20, got.TeamsDiscovered)
	assert.Equal(t, 10, got.ErrorCounts["Fetch_Profile"])
}
