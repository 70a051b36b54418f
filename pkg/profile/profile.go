// Package profile upgrades player references into full roster records by
// fetching each profile page and running the field extraction rules over its
// flattened text.
package profile

import (
	"context"

	"github.com/sirupsen/logrus"

	"squad-scraper/pkg/extract"
	"squad-scraper/pkg/fetch"
	"squad-scraper/pkg/models"
	"squad-scraper/pkg/utils"
)

// Resolver fetches profile pages and assembles Player records.
type Resolver struct {
	loader *fetch.PageLoader
	log    *logrus.Entry
}

func NewResolver(loader *fetch.PageLoader, logger *logrus.Entry) *Resolver {
	return &Resolver{loader: loader, log: logger}
}

// Resolve fetches ref's profile page and returns the full Player record for
// it. A fetch failure is recoverable at the caller's level and comes back
// wrapped in ErrProfileFetch; extraction itself never fails, missing fields
// stay nil.
func (r *Resolver) Resolve(ctx context.Context, ref models.PlayerReference, team models.Team) (*models.Player, error) {
	doc, err := r.loader.LoadDocument(ctx, ref.ProfileURL)
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrProfileFetch, "profile page for %s (%s): %v", ref.Name, ref.ID, err)
	}

	player := FromReference(ref, team)

	body := extract.Flatten(doc.Find("body").Text())
	applyProfile(player, extract.ExtractProfile(body))

	if img := extract.ExtractImageURL(doc); img != "" {
		player.ImageURL = &img
	}
	if mv := extract.ExtractMarketValue(doc); mv != "" {
		player.MarketValue = &mv
	}

	r.log.WithFields(logrus.Fields{
		"player_id": ref.ID,
		"name":      ref.Name,
		"has_image": player.ImageURL != nil,
	}).Debug("Profile resolved")

	return player, nil
}

// FromReference builds the minimal Player record used when profile fetching
// is skipped or fails recoverably. Identity and team attribution are always
// present; everything else stays null.
func FromReference(ref models.PlayerReference, team models.Team) *models.Player {
	return &models.Player{
		ID:         ref.ID,
		Name:       ref.Name,
		ProfileURL: ref.ProfileURL,
		Team:       team.Name,
		TeamSlug:   team.Slug,
	}
}

func applyProfile(player *models.Player, p extract.Profile) {
	player.DateOfBirth = p.DateOfBirth
	player.Age = p.Age
	player.PlaceOfBirth = p.PlaceOfBirth
	player.Citizenship = p.Citizenship
	player.Height = p.Height
	player.Position = p.Position
	player.DominantFoot = p.DominantFoot
	player.CurrentClub = p.CurrentClub
	player.JoinedDate = p.JoinedDate
	player.ContractExpiry = p.ContractExpiry
	player.ShirtNumber = p.ShirtNumber
	player.Agent = p.Agent
	player.InternationalTeam = p.InternationalTeam
	player.InternationalCaps = p.InternationalCaps
	player.InternationalGoals = p.InternationalGoals
}
