// Package crawler orchestrates a full roster crawl: competition listing to
// teams, teams to squad pages, squad pages to player profiles, profiles to
// portrait downloads.
package crawler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"squad-scraper/pkg/assets"
	"squad-scraper/pkg/config"
	"squad-scraper/pkg/discover"
	"squad-scraper/pkg/extract"
	"squad-scraper/pkg/fetch"
	"squad-scraper/pkg/models"
	"squad-scraper/pkg/profile"
	"squad-scraper/pkg/utils"
)

// Components bundles the collaborators a Crawler runs on. ImagePool may be
// nil when image downloading is disabled.
type Components struct {
	Loader     *fetch.PageLoader
	Discoverer *discover.Discoverer
	Resolver   *profile.Resolver
	ImagePool  *assets.Pool
}

// Crawler drives one crawl run for one configured site. Page fetches are
// strictly serial with a politeness pause between entities; only the final
// image stage fans out, and that is bounded by the pool.
type Crawler struct {
	siteCfg      config.SiteConfig
	comps        Components
	entityDelay  time.Duration
	skipProfiles bool
	skipImages   bool
	log          *logrus.Entry

	summary *models.CrawlSummary
}

func New(appCfg *config.AppConfig, siteCfg config.SiteConfig, comps Components, logger *logrus.Entry) *Crawler {
	return &Crawler{
		siteCfg:      siteCfg,
		comps:        comps,
		entityDelay:  siteCfg.EntityDelay,
		skipProfiles: config.GetEffectiveSkipProfiles(siteCfg),
		skipImages:   config.GetEffectiveSkipImages(siteCfg, *appCfg) || comps.ImagePool == nil,
		log:          logger,
		summary: &models.CrawlSummary{
			RunID:       uuid.NewString(),
			Competition: siteCfg.CompetitionURL,
			ErrorCounts: make(map[string]int),
		},
	}
}

// Run executes the crawl. A listing fetch failure is fatal and returns an
// error wrapping ErrListingFetch; every failure below the listing is
// recoverable and only shows up in the summary counters. On context
// cancellation the crawl stops early and returns what it collected.
func (c *Crawler) Run(ctx context.Context) ([]models.Team, []*models.Player, *models.CrawlSummary, error) {
	c.summary.StartedAt = time.Now().UTC()
	defer func() {
		c.summary.FinishedAt = time.Now().UTC()
		c.summary.Duration = c.summary.FinishedAt.Sub(c.summary.StartedAt)
	}()

	c.log.WithFields(logrus.Fields{
		"run_id":      c.summary.RunID,
		"competition": c.siteCfg.CompetitionURL,
	}).Info("Starting crawl")

	listingDoc, err := c.comps.Loader.LoadDocument(ctx, c.siteCfg.CompetitionURL)
	if err != nil {
		wrapped := utils.WrapErrorf(utils.ErrListingFetch, "%s: %v", c.siteCfg.CompetitionURL, err)
		c.countError(wrapped)
		return nil, nil, c.summary, wrapped
	}

	teams := c.comps.Discoverer.Teams(listingDoc)
	c.summary.TeamsDiscovered = len(teams)
	c.log.WithField("teams", len(teams)).Info("Teams discovered")

	var players []*models.Player
	for _, team := range teams {
		if ctx.Err() != nil {
			c.log.Warn("Crawl interrupted, keeping partial results")
			break
		}
		roster, rosterErr := c.crawlTeam(ctx, team)
		if rosterErr != nil {
			c.summary.TeamsFailed++
			c.countError(rosterErr)
			c.log.WithFields(logrus.Fields{
				"team":     team.Name,
				"team_id":  team.ID,
				"category": utils.CategorizeError(rosterErr),
			}).Warnf("Skipping team: %v", rosterErr)
			continue
		}
		players = append(players, roster...)
	}

	if !c.skipImages && len(players) > 0 {
		jobs := make([]assets.Job, 0, len(players))
		for _, p := range players {
			jobs = append(jobs, assets.Job{Player: p, TeamSlug: p.TeamSlug})
		}
		downloaded, missing := c.comps.ImagePool.ProcessAll(ctx, jobs)
		c.summary.ImagesDownloaded = downloaded
		c.summary.ImagesMissing = missing
	}

	return teams, players, c.summary, nil
}

// crawlTeam loads a team's squad page and resolves every player on it. The
// returned error means the squad page itself was unreachable; individual
// profile failures are absorbed into the summary and the player keeps a
// reference-only record.
func (c *Crawler) crawlTeam(ctx context.Context, team models.Team) ([]*models.Player, error) {
	c.pause(ctx)

	squadURL := c.comps.Discoverer.SquadURL(team)
	teamLog := c.log.WithFields(logrus.Fields{"team": team.Name, "team_id": team.ID})

	squadDoc, err := c.comps.Loader.LoadDocument(ctx, squadURL)
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrSquadFetch, "%s: %v", squadURL, err)
	}

	refs := c.comps.Discoverer.Players(squadDoc)
	c.summary.PlayersDiscovered += len(refs)
	teamLog.WithField("players", len(refs)).Info("Squad discovered")

	roster := make([]*models.Player, 0, len(refs))
	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		roster = append(roster, c.resolvePlayer(ctx, ref, team))
	}
	return roster, nil
}

func (c *Crawler) resolvePlayer(ctx context.Context, ref models.PlayerReference, team models.Team) *models.Player {
	if c.skipProfiles {
		player := profile.FromReference(ref, team)
		if c.siteCfg.ImageHost != "" {
			img := extract.PortraitURL(c.siteCfg.ImageHost, ref.ID)
			player.ImageURL = &img
		}
		return player
	}

	c.pause(ctx)

	player, err := c.comps.Resolver.Resolve(ctx, ref, team)
	if err != nil {
		c.summary.PlayersFailed++
		c.countError(err)
		c.log.WithFields(logrus.Fields{
			"player":    ref.Name,
			"player_id": ref.ID,
			"category":  utils.CategorizeError(err),
		}).Warnf("Profile unavailable, keeping reference record: %v", err)
		return profile.FromReference(ref, team)
	}

	c.summary.PlayersProfiled++
	if player.ImageURL == nil && c.siteCfg.ImageHost != "" {
		// Profile page had no usable portrait tag; fall back to the template
		img := extract.PortraitURL(c.siteCfg.ImageHost, ref.ID)
		player.ImageURL = &img
	}
	return player
}

// pause applies the between-entity politeness delay, returning early on
// context cancellation.
func (c *Crawler) pause(ctx context.Context) {
	if c.entityDelay <= 0 {
		return
	}
	timer := time.NewTimer(c.entityDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (c *Crawler) countError(err error) {
	c.summary.ErrorCounts[utils.CategorizeError(err)]++
}
