package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/teamarr/teamarr/internal/models"
	"github.com/teamarr/teamarr/internal/providers"
)

// teamCacheStaleAfter marks the reverse index stale once the newest row is
// older than this.
const teamCacheStaleAfter = 7 * 24 * time.Hour

// RefreshProgress is one progress event emitted during a cache refresh.
// The websocket endpoint forwards these verbatim.
type RefreshProgress struct {
	Stage   string `json:"stage"` // "start", "league", "done", "error"
	League  string `json:"league,omitempty"`
	Index   int    `json:"index"`
	Total   int    `json:"total"`
	Teams   int    `json:"teams"`
	Message string `json:"message,omitempty"`
}

// TeamCacheService maintains the team-league reverse index used for league
// scoping during stream matching, and feeds discovered soccer leagues back
// into the league map.
type TeamCacheService struct {
	db       *gorm.DB
	registry *providers.Registry
	leagues  *providers.StaticLeagueMap
}

func NewTeamCacheService(db *gorm.DB, registry *providers.Registry, leagues *providers.StaticLeagueMap) *TeamCacheService {
	return &TeamCacheService{db: db, registry: registry, leagues: leagues}
}

// LeaguesForTeam returns every league a team is known to play in, across
// providers. Soccer clubs commonly map to several competitions.
func (s *TeamCacheService) LeaguesForTeam(ctx context.Context, provider, teamID string) ([]string, error) {
	var rows []models.CachedTeamLeague
	err := s.db.WithContext(ctx).
		Where("provider = ? AND team_id = ?", provider, teamID).
		Order("league").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.League)
	}
	return out, nil
}

// TeamsInLeague returns the cached roster of a league.
func (s *TeamCacheService) TeamsInLeague(ctx context.Context, league string) ([]models.CachedTeamLeague, error) {
	var rows []models.CachedTeamLeague
	err := s.db.WithContext(ctx).
		Where("league = ?", league).
		Order("team_name").
		Find(&rows).Error
	return rows, err
}

// IsStale reports whether the index is empty or past its freshness window.
func (s *TeamCacheService) IsStale(ctx context.Context) bool {
	var newest models.CachedTeamLeague
	err := s.db.WithContext(ctx).Order("updated_at DESC").First(&newest).Error
	if err != nil {
		return true
	}
	return time.Since(newest.UpdatedAt) > teamCacheStaleAfter
}

// Count returns the number of index rows.
func (s *TeamCacheService) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.CachedTeamLeague{}).Count(&n).Error
	return n, err
}

// Refresh rebuilds the index for the given league patterns. Each league is
// replaced transactionally so a mid-refresh failure never leaves a league
// half-indexed. progress may be nil.
func (s *TeamCacheService) Refresh(ctx context.Context, patterns []string, progress func(RefreshProgress)) error {
	emit := func(p RefreshProgress) {
		if progress != nil {
			progress(p)
		}
	}

	seen := make(map[string]bool)
	var leagues []string
	for _, pattern := range patterns {
		for _, league := range s.leagues.ExpandLeagues(pattern) {
			if !seen[league] {
				seen[league] = true
				leagues = append(leagues, league)
			}
		}
	}
	if len(leagues) == 0 {
		emit(RefreshProgress{Stage: "done", Total: 0})
		return nil
	}

	emit(RefreshProgress{Stage: "start", Total: len(leagues)})
	logrus.Infof("[TEAMCACHE] Refreshing %d leagues", len(leagues))

	var refreshed, failed int
	for i, league := range leagues {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := s.refreshLeague(ctx, league)
		if err != nil {
			failed++
			logrus.Warnf("[TEAMCACHE] Refresh of %s failed: %v", league, err)
			emit(RefreshProgress{Stage: "error", League: league, Index: i + 1, Total: len(leagues), Message: err.Error()})
			continue
		}
		refreshed++
		emit(RefreshProgress{Stage: "league", League: league, Index: i + 1, Total: len(leagues), Teams: n})
	}

	emit(RefreshProgress{Stage: "done", Total: len(leagues)})
	logrus.Infof("[TEAMCACHE] Refresh complete: %d leagues updated, %d failed", refreshed, failed)
	if refreshed == 0 && failed > 0 {
		return fmt.Errorf("team cache refresh failed for all %d leagues", failed)
	}
	return nil
}

// refreshLeague replaces one league's rows from the first enumerating
// provider that supports it.
func (s *TeamCacheService) refreshLeague(ctx context.Context, league string) (int, error) {
	var teams []models.Team
	var providerName string
	for _, p := range s.registry.GetAll() {
		if !p.SupportsLeague(league) {
			continue
		}
		enum, ok := p.(providers.LeagueEnumerator)
		if !ok {
			continue
		}
		got, err := enum.ListTeams(ctx, league)
		if err != nil {
			logrus.Debugf("[TEAMCACHE] ListTeams %s via %s: %v", league, p.Name(), err)
			continue
		}
		teams = got
		providerName = p.Name()
		break
	}
	if providerName == "" {
		return 0, fmt.Errorf("no enumerating provider for league %s", league)
	}

	now := time.Now()
	rows := make([]models.CachedTeamLeague, 0, len(teams))
	for _, t := range teams {
		rows = append(rows, models.CachedTeamLeague{
			Provider:  providerName,
			TeamID:    t.ID,
			League:    league,
			Sport:     t.Sport,
			TeamName:  t.Name,
			Abbrev:    t.Abbreviation,
			UpdatedAt: now,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("provider = ? AND league = ?", providerName, league).
			Delete(&models.CachedTeamLeague{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "team_id"}, {Name: "league"}},
			UpdateAll: true,
		}).CreateInBatches(rows, 100).Error
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// LeaguesForSport returns every distinct league cached for a sport.
func (s *TeamCacheService) LeaguesForSport(ctx context.Context, sport string) ([]string, error) {
	var leagues []string
	err := s.db.WithContext(ctx).
		Model(&models.CachedTeamLeague{}).
		Distinct("league").
		Where("sport = ?", sport).
		Order("league").
		Pluck("league", &leagues).Error
	return leagues, err
}

// CandidateLeagues returns leagues in which both team names appear.
// Name matching is a case-insensitive substring in either direction, so
// "Arsenal" matches "Arsenal FC" and vice versa.
func (s *TeamCacheService) CandidateLeagues(ctx context.Context, nameA, nameB string) ([]string, error) {
	leaguesA, err := s.leaguesForName(ctx, nameA)
	if err != nil {
		return nil, err
	}
	leaguesB, err := s.leaguesForName(ctx, nameB)
	if err != nil {
		return nil, err
	}
	var out []string
	for league := range leaguesA {
		if leaguesB[league] {
			out = append(out, league)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *TeamCacheService) leaguesForName(ctx context.Context, name string) (map[string]bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return map[string]bool{}, nil
	}
	var rows []models.CachedTeamLeague
	pattern := "%" + strings.ToLower(name) + "%"
	err := s.db.WithContext(ctx).
		Where("LOWER(team_name) LIKE ? OR ? LIKE '%' || LOWER(team_name) || '%'", pattern, strings.ToLower(name)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(rows))
	for _, r := range rows {
		out[r.League] = true
	}
	return out, nil
}

// SyncLeagueMap feeds cached soccer leagues back into the league map so
// APIPath resolves competitions discovered at refresh time.
func (s *TeamCacheService) SyncLeagueMap(ctx context.Context) error {
	var rows []models.CachedTeamLeague
	err := s.db.WithContext(ctx).
		Model(&models.CachedTeamLeague{}).
		Select("DISTINCT league, sport").
		Where("sport = ?", "soccer").
		Find(&rows).Error
	if err != nil {
		return err
	}
	for _, r := range rows {
		s.leagues.AddLeague(r.League, r.Sport, "soccer/"+r.League)
	}
	return nil
}
