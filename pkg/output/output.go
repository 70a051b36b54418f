// Package output writes the crawl's JSON artifacts: the combined roster,
// one file per team, and the run summary.
package output

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"squad-scraper/pkg/models"
	"squad-scraper/pkg/utils"
)

const (
	combinedFilename = "players.json"
	summaryFilename  = "summary.json"
	teamsSubdir      = "teams"
)

// Writer persists crawl results under a single output directory. Writes are
// wholesale: an existing file from a previous run is overwritten, never
// merged.
type Writer struct {
	outputDir string
	log       *logrus.Entry
}

func NewWriter(outputDir string, logger *logrus.Entry) *Writer {
	return &Writer{outputDir: outputDir, log: logger}
}

// WritePlayers writes the combined players.json plus one teams/<slug>.json
// per team. Players are grouped by team slug preserving both the team
// discovery order and each roster's internal order.
func (w *Writer) WritePlayers(teams []models.Team, players []*models.Player) error {
	if err := os.MkdirAll(filepath.Join(w.outputDir, teamsSubdir), 0o755); err != nil {
		return utils.WrapErrorf(utils.ErrFilesystem, "creating output directory: %v", err)
	}

	if err := w.writeJSON(filepath.Join(w.outputDir, combinedFilename), players); err != nil {
		return err
	}

	bySlug := make(map[string][]*models.Player)
	for _, p := range players {
		bySlug[p.TeamSlug] = append(bySlug[p.TeamSlug], p)
	}

	for _, team := range teams {
		roster := bySlug[team.Slug]
		if roster == nil {
			// A team whose squad fetch failed still gets an empty roster
			// file so downstream consumers see a complete set
			roster = []*models.Player{}
		}
		filename := utils.SanitizeFilename(team.Slug) + ".json"
		if err := w.writeJSON(filepath.Join(w.outputDir, teamsSubdir, filename), roster); err != nil {
			return err
		}
	}

	w.log.WithFields(logrus.Fields{
		"players": len(players),
		"teams":   len(teams),
		"dir":     w.outputDir,
	}).Info("Roster files written")
	return nil
}

// WriteSummary persists the end-of-run counters next to the roster files.
func (w *Writer) WriteSummary(summary *models.CrawlSummary) error {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return utils.WrapErrorf(utils.ErrFilesystem, "creating output directory: %v", err)
	}
	return w.writeJSON(filepath.Join(w.outputDir, summaryFilename), summary)
}

func (w *Writer) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return utils.WrapErrorf(utils.ErrParsing, "marshaling JSON for %s: %v", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return utils.WrapErrorf(utils.ErrFilesystem, "writing %s: %v", path, err)
	}
	return nil
}
