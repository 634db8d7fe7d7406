package epg

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/teamarr/teamarr/internal/models"
	"github.com/teamarr/teamarr/internal/providers"
	"github.com/teamarr/teamarr/internal/services"
	"github.com/teamarr/teamarr/internal/templates"
)

const (
	// maxWorkers bounds the per-team fan-out.
	maxWorkers = 100
	// extendedWindowDays is how far the context schedule reaches either
	// side of now.
	extendedWindowDays = 30
	// scoreEnrichmentDays is how far back past events get score backfill.
	scoreEnrichmentDays = 7
	// defaultLookbackHours pulls in games that started shortly before the
	// cycle so in-progress programmes are not cut off.
	defaultLookbackHours = 6
)

// GenerateOptions parameterize one generation cycle.
type GenerateOptions struct {
	DaysAhead     int
	StartDatetime *time.Time
	Progress      func(done, total int, teamName string)
}

// GenerationStats summarizes a completed cycle.
type GenerationStats struct {
	Channels     int                          `json:"channels"`
	Programmes   int                          `json:"programmes"`
	FillerCounts map[models.FillerType]int    `json:"filler_counts"`
	TeamErrors   map[string]string            `json:"team_errors,omitempty"`
	Providers    map[string]providers.RateLimitStats `json:"providers,omitempty"`
	Duration     time.Duration                `json:"duration"`
	StartedAt    time.Time                    `json:"started_at"`
	WindowStart  time.Time                    `json:"window_start"`
	WindowEnd    time.Time                    `json:"window_end"`
}

// GenerationResult is the cycle output: per-channel listings plus stats.
type GenerationResult struct {
	Listings []ChannelListing
	Stats    GenerationStats
}

// Orchestrator drives the per-team EPG pipeline across all active teams.
type Orchestrator struct {
	db        *gorm.DB
	sports    *services.SportsDataService
	teamCache *services.TeamCacheService
	leagues   *providers.StaticLeagueMap
	resolver  *templates.Resolver

	// Cycle-scoped scoreboard cache: one fetch per (league, date) across
	// all workers, double-checked under mu.
	mu          sync.Mutex
	scoreboards map[string][]models.EnrichedEvent
	inflight    map[string]chan struct{}
}

func NewOrchestrator(db *gorm.DB, sports *services.SportsDataService, teamCache *services.TeamCacheService, leagues *providers.StaticLeagueMap) *Orchestrator {
	return &Orchestrator{
		db:        db,
		sports:    sports,
		teamCache: teamCache,
		leagues:   leagues,
		resolver:  templates.NewResolver(),
	}
}

// Generate runs one full cycle: load teams, compute the window, process
// every team concurrently with error isolation, aggregate listings.
func (o *Orchestrator) Generate(ctx context.Context, opts GenerateOptions) (*GenerationResult, error) {
	started := time.Now()
	o.resetCycleCaches()
	o.sports.ResetProviderStats()

	var settings models.Settings
	if err := o.db.WithContext(ctx).FirstOrCreate(&settings, models.Settings{ID: 1}).Error; err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	loc, err := time.LoadLocation(settings.EPGTimezone)
	if err != nil {
		logrus.Warnf("[EPG] Bad timezone %q, using UTC: %v", settings.EPGTimezone, err)
		loc = time.UTC
	}

	var teams []models.TeamConfig
	if err := o.db.WithContext(ctx).Preload("Template").
		Where("enabled = ?", true).Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("loading teams: %w", err)
	}

	daysAhead := opts.DaysAhead
	if daysAhead <= 0 {
		daysAhead = settings.EPGOutputDaysAhead
	}
	windowStart := o.windowStart(ctx, teams, &settings, opts.StartDatetime)
	windowEnd := windowStart.AddDate(0, 0, daysAhead)
	logrus.Infof("[EPG] Cycle start: %d teams, window %s → %s",
		len(teams), windowStart.Format(time.RFC3339), windowEnd.Format(time.RFC3339))

	type teamResult struct {
		listing ChannelListing
		err     error
		name    string
	}
	results := make([]teamResult, len(teams))
	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup
	var done int32
	var progressMu sync.Mutex
	for i := range teams {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			team := &teams[i]
			listing, err := o.processTeam(ctx, team, &settings, loc, windowStart, windowEnd)
			results[i] = teamResult{name: team.TeamName, err: err}
			if err == nil {
				results[i].listing = *listing
			}
			if opts.Progress != nil {
				progressMu.Lock()
				done++
				opts.Progress(int(done), len(teams), team.TeamName)
				progressMu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	stats := GenerationStats{
		FillerCounts: make(map[models.FillerType]int),
		TeamErrors:   make(map[string]string),
		StartedAt:    started,
		WindowStart:  windowStart,
		WindowEnd:    windowEnd,
	}
	var listings []ChannelListing
	for _, r := range results {
		if r.err != nil {
			logrus.Errorf("[EPG] Team %s failed: %v", r.name, r.err)
			stats.TeamErrors[r.name] = r.err.Error()
			continue
		}
		listings = append(listings, r.listing)
		stats.Channels++
		stats.Programmes += len(r.listing.Programmes)
		for _, p := range r.listing.Programmes {
			if p.IsFiller {
				stats.FillerCounts[p.FillerType]++
			}
		}
	}
	stats.Providers = o.sports.ProviderStats()
	stats.Duration = time.Since(started)
	logrus.Infof("[EPG] Cycle done: %d channels, %d programmes in %s",
		stats.Channels, stats.Programmes, stats.Duration.Round(time.Millisecond))
	return &GenerationResult{Listings: listings, Stats: stats}, nil
}

// windowStart picks the cycle start: explicit, else the earliest game
// within the lookback window, else the previous whole hour.
func (o *Orchestrator) windowStart(ctx context.Context, teams []models.TeamConfig, settings *models.Settings, explicit *time.Time) time.Time {
	if explicit != nil {
		return explicit.UTC()
	}
	now := time.Now().UTC()
	lookback := time.Duration(settings.EPGLookbackHours) * time.Hour
	if lookback <= 0 {
		lookback = defaultLookbackHours * time.Hour
	}
	earliest := now.Truncate(time.Hour)
	for i := range teams {
		team := &teams[i]
		schedule, err := o.sports.GetTeamSchedule(ctx, team.TeamID, team.League, extendedWindowDays)
		if err != nil {
			continue
		}
		for _, ev := range schedule {
			if ev.StartTime.After(now.Add(-lookback)) && ev.StartTime.Before(earliest) {
				earliest = ev.StartTime
			}
		}
	}
	return earliest
}

// processTeam runs the per-team pipeline and returns its channel listing.
func (o *Orchestrator) processTeam(ctx context.Context, team *models.TeamConfig, settings *models.Settings, loc *time.Location, windowStart, windowEnd time.Time) (*ChannelListing, error) {
	sport, _, ok := o.leagues.APIPath(team.League)
	if !ok {
		return nil, fmt.Errorf("unknown league %q", team.League)
	}

	identity, err := o.sports.GetTeam(ctx, team.TeamID, team.League)
	if err != nil {
		return nil, fmt.Errorf("team lookup: %w", err)
	}
	if team.LogoURL == "" && identity.LogoURL != "" {
		team.LogoURL = identity.LogoURL
	}
	stats, err := o.sports.GetTeamStats(ctx, team.TeamID, team.League)
	if err != nil {
		logrus.Warnf("[EPG] Stats for %s unavailable: %v", team.TeamName, err)
	}
	coach, _ := o.sports.GetHeadCoach(ctx, team.TeamID, team.League)

	extended, err := o.fetchSchedule(ctx, team, sport)
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	now := time.Now().UTC()
	extended = filterByRange(extended,
		now.AddDate(0, 0, -extendedWindowDays), now.AddDate(0, 0, extendedWindowDays))

	extended = o.enrichFromScoreboards(ctx, team, extended, loc, windowStart, windowEnd)
	o.enrichPastScores(ctx, team, extended, loc, now)

	windowEvents := filterByRange(extended, windowStart, windowEnd)
	builder := NewContextBuilder(team.TeamID, team.TeamName, sport, extended)
	tmpl := team.EffectiveTemplate()
	tf := settings.TimeFormatSettings()

	var programmes []models.ProcessedProgramme
	var intervals []Interval
	for i := range windowEvents {
		ev := &windowEvents[i]
		if !settings.IncludeFinalEvents && ev.Status.IsFinal() {
			continue
		}
		prog := o.renderGame(ctx, team, stats, coach, builder, tmpl, settings, ev, tf)
		programmes = append(programmes, prog)
		intervals = append(intervals, Interval{Start: prog.StartDatetime, End: prog.EndDatetime})
	}

	renderer := &FillerRenderer{
		Resolver:   o.resolver,
		Template:   tmpl,
		TeamConfig: team,
		TeamStats:  stats,
		Contexts:   builder,
		Timezone:   settings.EPGTimezone,
		TimeFormat: tf,
	}
	chunks := ChunkGaps(intervals, windowStart, windowEnd, loc, settings.MidnightCrossoverMode)
	programmes = append(programmes, renderer.Render(chunks)...)
	sort.Slice(programmes, func(i, j int) bool {
		return programmes[i].StartDatetime.Before(programmes[j].StartDatetime)
	})

	tvgID := team.TvgID
	if tvgID == "" {
		tvgID = templates.PascalCase(team.TeamName) + ".teamarr"
	}
	return &ChannelListing{
		TvgID:      tvgID,
		Name:       team.TeamName,
		LogoURL:    team.LogoURL,
		Category:   templates.GracenoteCategory(team.League, sport),
		Programmes: programmes,
	}, nil
}

// fetchSchedule returns the extended schedule. Soccer clubs merge every
// competition they play in, first writer wins per event id, with the
// originating competition recorded on each event.
func (o *Orchestrator) fetchSchedule(ctx context.Context, team *models.TeamConfig, sport string) ([]models.EnrichedEvent, error) {
	if sport != "soccer" {
		return o.sports.GetTeamSchedule(ctx, team.TeamID, team.League, extendedWindowDays)
	}

	leagues := []string(team.Leagues)
	if len(leagues) == 0 {
		cached, err := o.teamCache.LeaguesForTeam(ctx, "espn", team.TeamID)
		if err == nil && len(cached) > 0 {
			leagues = cached
		}
	}
	if len(leagues) == 0 {
		leagues = []string{team.League}
	}

	seen := make(map[string]bool)
	var merged []models.EnrichedEvent
	var lastErr error
	for _, league := range leagues {
		schedule, err := o.sports.GetTeamSchedule(ctx, team.TeamID, league, extendedWindowDays)
		if err != nil {
			logrus.Debugf("[EPG] %s schedule in %s failed: %v", team.TeamName, league, err)
			lastErr = err
			continue
		}
		for _, ev := range schedule {
			if seen[ev.ID] {
				continue
			}
			seen[ev.ID] = true
			if ev.SourceLeague == "" {
				ev.SourceLeague = league
			}
			merged = append(merged, ev)
		}
	}
	if len(merged) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return merged, nil
}

// enrichFromScoreboards merges each window day's scoreboard into the
// schedule: existing events gain live data, unseen events are discovered.
// Odds only attach for today's games.
func (o *Orchestrator) enrichFromScoreboards(ctx context.Context, team *models.TeamConfig, extended []models.EnrichedEvent, loc *time.Location, windowStart, windowEnd time.Time) []models.EnrichedEvent {
	today := time.Now().In(loc).Format("2006-01-02")
	index := make(map[string]int, len(extended))
	for i := range extended {
		index[extended[i].ID] = i
	}

	for day := windowStart.In(loc); day.Before(windowEnd.In(loc)); day = day.AddDate(0, 0, 1) {
		board, err := o.cycleScoreboard(ctx, team.League, day)
		if err != nil {
			logrus.Debugf("[EPG] Scoreboard %s %s unavailable: %v",
				team.League, day.Format("2006-01-02"), err)
			continue
		}
		isToday := day.Format("2006-01-02") == today
		for _, sb := range board {
			if !sb.Involves(team.TeamID) {
				continue
			}
			if !isToday {
				sb.HasOdds = false
			}
			if i, ok := index[sb.ID]; ok {
				mergeScoreboardEvent(&extended[i], &sb)
			} else {
				index[sb.ID] = len(extended)
				extended = append(extended, sb)
			}
		}
	}
	return extended
}

// enrichPastScores backfills final scores for recent events the schedule
// fetch left unresolved.
func (o *Orchestrator) enrichPastScores(ctx context.Context, team *models.TeamConfig, extended []models.EnrichedEvent, loc *time.Location, now time.Time) {
	cutoff := now.AddDate(0, 0, -scoreEnrichmentDays)
	for i := range extended {
		ev := &extended[i]
		if ev.StartTime.After(now) || ev.StartTime.Before(cutoff) {
			continue
		}
		if ev.Status.IsFinal() && ev.HomeScore != nil {
			continue
		}
		board, err := o.cycleScoreboard(ctx, ev.League, ev.StartTime.In(loc))
		if err != nil {
			continue
		}
		for j := range board {
			if board[j].ID == ev.ID {
				mergeScoreboardEvent(ev, &board[j])
				break
			}
		}
	}
}

// cycleScoreboard fetches a scoreboard once per (league, date) per cycle.
// Concurrent workers wanting the same key wait for the first fetch.
func (o *Orchestrator) cycleScoreboard(ctx context.Context, league string, day time.Time) ([]models.EnrichedEvent, error) {
	key := league + ":" + day.Format("2006-01-02")

	o.mu.Lock()
	if board, ok := o.scoreboards[key]; ok {
		o.mu.Unlock()
		return board, nil
	}
	if ch, ok := o.inflight[key]; ok {
		o.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		o.mu.Lock()
		board, ok := o.scoreboards[key]
		o.mu.Unlock()
		if ok {
			return board, nil
		}
		return nil, fmt.Errorf("scoreboard fetch for %s failed", key)
	}
	ch := make(chan struct{})
	o.inflight[key] = ch
	o.mu.Unlock()

	board, err := o.sports.GetEvents(ctx, league, day)
	o.mu.Lock()
	delete(o.inflight, key)
	if err == nil {
		o.scoreboards[key] = board
	}
	o.mu.Unlock()
	close(ch)
	return board, err
}

func (o *Orchestrator) resetCycleCaches() {
	o.mu.Lock()
	o.scoreboards = make(map[string][]models.EnrichedEvent)
	o.inflight = make(map[string]chan struct{})
	o.mu.Unlock()
}

// renderGame resolves one event's programme entry.
func (o *Orchestrator) renderGame(ctx context.Context, team *models.TeamConfig, stats *models.TeamStats, coach string, builder *ContextBuilder, tmpl *models.EPGTemplate, settings *models.Settings, ev *models.EnrichedEvent, tf models.TimeFormatSettings) models.ProcessedProgramme {
	current, next, last := builder.Contexts(ev)
	current.TeamStats = stats
	current.HeadCoach = coach
	if current.OpponentSide.ID != "" {
		league := ev.League
		if ev.SourceLeague != "" {
			league = ev.SourceLeague
		}
		if oppStats, err := o.sports.GetTeamStats(ctx, current.OpponentSide.ID, league); err == nil {
			current.OpponentStats = oppStats
		}
	}

	tctx := &models.TemplateContext{
		TeamConfig:      team,
		TeamStats:       stats,
		Current:         current,
		NextGame:        next,
		LastGame:        last,
		EPGTimezone:     settings.EPGTimezone,
		ProgramDatetime: ev.StartTime,
		TimeFormat:      tf,
	}
	vars := o.resolver.BuildVariables(tctx)

	description := tmpl.GameDescription
	if len(tmpl.DescriptionOptions) > 0 {
		if picked := templates.SelectDescription(tmpl.DescriptionOptions, tctx, rand.New(rand.NewSource(time.Now().UnixNano()))); picked != "" {
			description = picked
		}
	}

	duration := settings.GameDurationFor(ev.Sport, tmpl.GameDurationMode, tmpl.GameDurationOverride)
	status := models.ProgrammeScheduled
	switch ev.Status.State {
	case models.StateLive:
		status = models.ProgrammeInProgress
	case models.StateFinal:
		status = models.ProgrammeFinal
	}

	return models.ProcessedProgramme{
		StartDatetime: ev.StartTime,
		EndDatetime:   ev.StartTime.Add(time.Duration(duration * float64(time.Hour))),
		Title:         o.resolver.Resolve(tmpl.GameTitle, vars),
		Subtitle:      o.resolver.Resolve(tmpl.GameSubtitle, vars),
		Description:   o.resolver.Resolve(description, vars),
		ProgramArtURL: o.resolver.Resolve(tmpl.GameArtURL, vars),
		Status:        status,
		EventID:       ev.ID,
		Variables:     vars,
	}
}

func filterByRange(events []models.EnrichedEvent, start, end time.Time) []models.EnrichedEvent {
	var out []models.EnrichedEvent
	for _, ev := range events {
		if !ev.StartTime.Before(start) && ev.StartTime.Before(end) {
			out = append(out, ev)
		}
	}
	return out
}

// mergeScoreboardEvent folds late-binding scoreboard data into a schedule
// event in place.
func mergeScoreboardEvent(dst, src *models.EnrichedEvent) {
	dst.Status = src.Status
	if src.HomeScore != nil {
		dst.HomeScore = src.HomeScore
	}
	if src.AwayScore != nil {
		dst.AwayScore = src.AwayScore
	}
	if len(src.Broadcasts) > 0 {
		dst.Broadcasts = src.Broadcasts
	}
	if len(src.Leaders) > 0 {
		dst.Leaders = src.Leaders
	}
	if src.Venue != nil {
		dst.Venue = src.Venue
	}
	if src.HasOdds {
		dst.HasOdds = true
		dst.OddsFavorite = src.OddsFavorite
		dst.OddsSpread = src.OddsSpread
		dst.OddsOverUnder = src.OddsOverUnder
		dst.OddsDetails = src.OddsDetails
		dst.HomeMoneyline = src.HomeMoneyline
		dst.AwayMoneyline = src.AwayMoneyline
	}
}
