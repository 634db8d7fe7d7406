package providers

import (
	"context"
	"time"

	"github.com/teamarr/teamarr/internal/models"
)

// SportsProvider is the uniform contract over third-party sports APIs.
// All methods return canonical values; provider wire types never cross
// this boundary. supports checks are O(1).
type SportsProvider interface {
	Name() string
	SupportsLeague(league string) bool

	GetEvents(ctx context.Context, league string, date time.Time) ([]models.EnrichedEvent, error)
	GetTeamSchedule(ctx context.Context, teamID, league string, daysAhead int) ([]models.EnrichedEvent, error)
	GetTeam(ctx context.Context, teamID, league string) (*models.Team, error)
	GetEvent(ctx context.Context, eventID, league string) (*models.EnrichedEvent, error)
	GetTeamStats(ctx context.Context, teamID, league string) (*models.TeamStats, error)
	GetHeadCoach(ctx context.Context, teamID, league string) (string, error)

	// IsPremium reports whether the provider has full capabilities.
	// Limited providers (free-tier quotas) are preferred only as fallbacks.
	IsPremium() bool
}

// LeagueEnumerator is an optional bulk capability for the team-league
// cache refresher.
type LeagueEnumerator interface {
	ListLeagues(ctx context.Context, sport string) ([]string, error)
	ListTeams(ctx context.Context, league string) ([]models.Team, error)
}

// LeagueMappingSource resolves league codes to provider API coordinates.
// Injected into the registry at startup.
type LeagueMappingSource interface {
	// APIPath returns the provider path ("basketball/nba") for a league code.
	APIPath(league string) (sport string, path string, ok bool)
	// ExpandLeagues expands patterns like "soccer_all" into concrete codes.
	ExpandLeagues(pattern string) []string
}
