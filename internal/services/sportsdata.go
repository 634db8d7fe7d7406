package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/teamarr/teamarr/internal/cache"
	"github.com/teamarr/teamarr/internal/models"
	"github.com/teamarr/teamarr/internal/providers"
)

// SportsDataService is the cache-first façade over the provider registry.
// Every read checks the persistent cache, falls through the providers in
// priority order, and writes back on success.
type SportsDataService struct {
	registry *providers.Registry
	cache    *cache.Cache
	loc      *time.Location
}

func NewSportsDataService(registry *providers.Registry, c *cache.Cache, loc *time.Location) *SportsDataService {
	if loc == nil {
		loc = time.UTC
	}
	return &SportsDataService{registry: registry, cache: c, loc: loc}
}

// GetEvents returns the scoreboard for a league and date.
func (s *SportsDataService) GetEvents(ctx context.Context, league string, date time.Time) ([]models.EnrichedEvent, error) {
	key := cache.Key("events", league, date.Format("2006-01-02"))
	var cached []models.EnrichedEvent
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	events, provider, err := s.fetchEvents(ctx, league, date)
	if err != nil {
		return nil, err
	}
	// Empty scoreboards are never cached: the league may simply not have
	// published yet, and a cached empty would mask it for the full TTL.
	if len(events) > 0 {
		ttl := cache.EventsTTL(date, s.loc)
		if err := s.cache.Set(ctx, key, events, ttl); err != nil {
			logrus.Warnf("[SPORTS] Caching events for %s failed: %v", league, err)
		}
	}
	logrus.Debugf("[SPORTS] %d events for %s on %s via %s",
		len(events), league, date.Format("2006-01-02"), provider)
	return events, nil
}

// GetTeamSchedule returns upcoming and recent events for a team.
func (s *SportsDataService) GetTeamSchedule(ctx context.Context, teamID, league string, daysAhead int) ([]models.EnrichedEvent, error) {
	key := cache.Key("schedule", league, teamID)
	var cached []models.EnrichedEvent
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	var lastErr error
	for _, p := range s.candidates(league) {
		schedule, err := p.GetTeamSchedule(ctx, teamID, league, daysAhead)
		if err != nil {
			logrus.Warnf("[SPORTS] %s schedule via %s failed: %v", teamID, p.Name(), err)
			lastErr = err
			continue
		}
		// An empty schedule falls through to the next provider and is
		// never cached.
		if len(schedule) == 0 {
			continue
		}
		if err := s.cache.Set(ctx, key, schedule, cache.TTLSchedule); err != nil {
			logrus.Warnf("[SPORTS] Caching schedule for %s failed: %v", teamID, err)
		}
		return schedule, nil
	}
	if lastErr == nil {
		return nil, nil
	}
	return nil, s.exhausted(league, lastErr)
}

// GetEvent fetches a single event, used for near-start refreshes where the
// scoreboard TTL is too coarse.
func (s *SportsDataService) GetEvent(ctx context.Context, eventID, league string) (*models.EnrichedEvent, error) {
	key := cache.Key("event", league, eventID)
	var cached models.EnrichedEvent
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	var lastErr error
	for _, p := range s.candidates(league) {
		ev, err := p.GetEvent(ctx, eventID, league)
		if err != nil {
			lastErr = err
			continue
		}
		if ev == nil {
			continue
		}
		if err := s.cache.Set(ctx, key, ev, cache.TTLSingleEvent); err != nil {
			logrus.Warnf("[SPORTS] Caching event %s failed: %v", eventID, err)
		}
		return ev, nil
	}
	return nil, s.exhausted(league, lastErr)
}

// GetTeam returns team metadata (name, abbreviation, logo).
func (s *SportsDataService) GetTeam(ctx context.Context, teamID, league string) (*models.Team, error) {
	key := cache.Key("team", league, teamID)
	var cached models.Team
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	var lastErr error
	for _, p := range s.candidates(league) {
		team, err := p.GetTeam(ctx, teamID, league)
		if err != nil {
			lastErr = err
			continue
		}
		if team == nil {
			continue
		}
		if err := s.cache.Set(ctx, key, team, cache.TTLTeamInfo); err != nil {
			logrus.Warnf("[SPORTS] Caching team %s failed: %v", teamID, err)
		}
		return team, nil
	}
	return nil, s.exhausted(league, lastErr)
}

// GetTeamStats returns season record, streaks, and standings position.
// A nil result without error means no provider carries stats for the league.
func (s *SportsDataService) GetTeamStats(ctx context.Context, teamID, league string) (*models.TeamStats, error) {
	key := cache.Key("stats", league, teamID)
	var cached models.TeamStats
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	var lastErr error
	for _, p := range s.candidates(league) {
		stats, err := p.GetTeamStats(ctx, teamID, league)
		if err != nil {
			lastErr = err
			continue
		}
		if stats == nil {
			continue
		}
		if err := s.cache.Set(ctx, key, stats, cache.TTLTeamStats); err != nil {
			logrus.Warnf("[SPORTS] Caching stats for %s failed: %v", teamID, err)
		}
		return stats, nil
	}
	if lastErr != nil {
		return nil, s.exhausted(league, lastErr)
	}
	return nil, nil
}

// GetHeadCoach returns the head coach name, empty if unavailable.
func (s *SportsDataService) GetHeadCoach(ctx context.Context, teamID, league string) (string, error) {
	key := cache.Key("coach", league, teamID)
	var cached string
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}
	for _, p := range s.candidates(league) {
		coach, err := p.GetHeadCoach(ctx, teamID, league)
		if err != nil {
			logrus.Debugf("[SPORTS] Coach lookup for %s via %s failed: %v", teamID, p.Name(), err)
			continue
		}
		if coach == "" {
			continue
		}
		if err := s.cache.Set(ctx, key, coach, cache.TTLTeamInfo); err != nil {
			logrus.Warnf("[SPORTS] Caching coach for %s failed: %v", teamID, err)
		}
		return coach, nil
	}
	return "", nil
}

// InvalidateTeam drops the cached schedule, stats, team info, and coach for
// a team so the next cycle refetches.
func (s *SportsDataService) InvalidateTeam(ctx context.Context, teamID, league string) error {
	return s.cache.Delete(ctx,
		cache.Key("schedule", league, teamID),
		cache.Key("stats", league, teamID),
		cache.Key("team", league, teamID),
		cache.Key("coach", league, teamID),
	)
}

// ProviderStats snapshots rate limiter counters per provider.
func (s *SportsDataService) ProviderStats() map[string]providers.RateLimitStats {
	out := make(map[string]providers.RateLimitStats)
	for _, p := range s.registry.GetAll() {
		if l, ok := p.(interface{ Limiter() *providers.RateLimiter }); ok {
			out[p.Name()] = l.Limiter().Stats()
		}
	}
	return out
}

// ResetProviderStats clears rate limiter counters; called at cycle start.
func (s *SportsDataService) ResetProviderStats() {
	for _, p := range s.registry.GetAll() {
		if l, ok := p.(interface{ Limiter() *providers.RateLimiter }); ok {
			l.Limiter().Reset()
		}
	}
}

// IsProviderPremium proxies the registry capability check.
func (s *SportsDataService) IsProviderPremium(name string) bool {
	return s.registry.IsProviderPremium(name)
}

// fetchEvents walks providers in priority order. The first that returns a
// non-empty result wins; empty results fall through so the fallback gets
// its chance before the day is declared gameless.
func (s *SportsDataService) fetchEvents(ctx context.Context, league string, date time.Time) ([]models.EnrichedEvent, string, error) {
	var lastErr error
	for _, p := range s.candidates(league) {
		events, err := p.GetEvents(ctx, league, date)
		if err != nil {
			logrus.Warnf("[SPORTS] Events for %s via %s failed: %v", league, p.Name(), err)
			lastErr = err
			continue
		}
		if len(events) == 0 {
			continue
		}
		return events, p.Name(), nil
	}
	if lastErr == nil {
		return nil, "", nil
	}
	return nil, "", s.exhausted(league, lastErr)
}

// candidates returns enabled providers supporting the league in priority
// order.
func (s *SportsDataService) candidates(league string) []providers.SportsProvider {
	var out []providers.SportsProvider
	for _, p := range s.registry.GetAll() {
		if p.SupportsLeague(league) {
			out = append(out, p)
		}
	}
	return out
}

var errNoProvider = errors.New("no provider available")

func (s *SportsDataService) exhausted(league string, lastErr error) error {
	if lastErr != nil {
		return fmt.Errorf("all providers failed for league %s: %w", league, lastErr)
	}
	return fmt.Errorf("%w for league %s", errNoProvider, league)
}
