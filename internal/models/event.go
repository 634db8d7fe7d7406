package models

import (
	"strings"
	"time"
)

// EventState is the canonical lifecycle state of a sporting event.
type EventState string

const (
	StateScheduled EventState = "scheduled"
	StateLive      EventState = "live"
	StateFinal     EventState = "final"
	StatePostponed EventState = "postponed"
	StateCancelled EventState = "cancelled"
)

// EventStatus carries the state plus the provider's human-readable detail.
type EventStatus struct {
	State  EventState `json:"state"`
	Detail string     `json:"detail,omitempty"`
	Period int        `json:"period,omitempty"`
	Clock  string     `json:"clock,omitempty"`
}

// IsFinal reports whether the event has completed.
func (s EventStatus) IsFinal() bool {
	return s.State == StateFinal
}

// Team is a provider-scoped team identity. (ID, Provider) is globally unique.
type Team struct {
	ID           string `json:"id"`
	Provider     string `json:"provider"`
	Name         string `json:"name"`
	ShortName    string `json:"short_name,omitempty"`
	Abbreviation string `json:"abbreviation,omitempty"`
	League       string `json:"league,omitempty"`
	Sport        string `json:"sport,omitempty"`
	LogoURL      string `json:"logo_url,omitempty"`
	Color        string `json:"color,omitempty"`
}

// Slug returns a normalized lowercase identifier used for name-fallback
// comparisons when provider IDs are absent.
func (t Team) Slug() string {
	s := strings.ToLower(strings.TrimSpace(t.Name))
	s = strings.ReplaceAll(s, " ", "-")
	return s
}

// Venue is where an event takes place.
type Venue struct {
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// Broadcast is a single broadcast entry attached to an event.
type Broadcast struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`   // "TV", "Streaming", "Radio"
	Market   string `json:"market,omitempty"` // "national", "home", "away"
	Language string `json:"language,omitempty"`
}

// Event is the central canonical value. (ID, Provider) is unique. StartTime
// is UTC. For tournament-style sports (racing, golf, IOC events) HomeTeam
// and AwayTeam are the same placeholder representing the event itself.
type Event struct {
	ID            string      `json:"id"`
	Provider      string      `json:"provider"`
	Name          string      `json:"name"`
	ShortName     string      `json:"short_name,omitempty"`
	StartTime     time.Time   `json:"start_time"`
	HomeTeam      Team        `json:"home_team"`
	AwayTeam      Team        `json:"away_team"`
	Status        EventStatus `json:"status"`
	League        string      `json:"league"`
	Sport         string      `json:"sport"`
	HomeScore     *int        `json:"home_score,omitempty"`
	AwayScore     *int        `json:"away_score,omitempty"`
	Venue         *Venue      `json:"venue,omitempty"`
	Broadcasts    []Broadcast `json:"broadcasts,omitempty"`
	SeasonYear    int         `json:"season_year,omitempty"`
	SeasonType    int         `json:"season_type,omitempty"` // 1=pre, 2=regular, 3=post
	MainCardStart *time.Time  `json:"main_card_start,omitempty"`

	// Player leader payloads keyed by team ID, populated by scoreboard
	// enrichment for completed games.
	Leaders map[string][]LeaderCategory `json:"leaders,omitempty"`
}

// IsTournament reports whether the event is a tournament-day placeholder
// rather than a team-vs-team contest.
func (e Event) IsTournament() bool {
	return e.HomeTeam.ID != "" && e.HomeTeam.ID == e.AwayTeam.ID
}

// Involves reports whether the given team ID appears on either side.
func (e Event) Involves(teamID string) bool {
	return e.HomeTeam.ID == teamID || e.AwayTeam.ID == teamID
}

// OpponentOf returns the other side relative to teamID. Falls back to the
// home team for tournament placeholders.
func (e Event) OpponentOf(teamID string) Team {
	if e.HomeTeam.ID == teamID {
		return e.AwayTeam
	}
	return e.HomeTeam
}

// SideOf returns the Team view matching teamID, with a name-slug fallback
// when IDs are absent from the provider payload.
func (e Event) SideOf(teamID, teamName string) (team Team, isHome bool) {
	if e.HomeTeam.ID != "" && e.HomeTeam.ID == teamID {
		return e.HomeTeam, true
	}
	if e.AwayTeam.ID != "" && e.AwayTeam.ID == teamID {
		return e.AwayTeam, false
	}
	slug := Team{Name: teamName}.Slug()
	if e.HomeTeam.Slug() == slug {
		return e.HomeTeam, true
	}
	return e.AwayTeam, false
}

// LeaderCategory is a provider leaders bucket ("points", "passingLeader")
// holding ranked player entries.
type LeaderCategory struct {
	Name    string        `json:"name"`
	Leaders []LeaderEntry `json:"leaders"`
}

// LeaderEntry is a single player's statistical line within a category.
type LeaderEntry struct {
	AthleteName     string  `json:"athlete_name"`
	Position        string  `json:"position,omitempty"`
	Value           float64 `json:"value"`
	DisplayValue    string  `json:"display_value,omitempty"`
}

// EnrichedEvent is an Event plus late-binding odds discovered from the
// scoreboard. Odds are only attached for events dated today.
type EnrichedEvent struct {
	Event
	HasOdds       bool    `json:"has_odds"`
	OddsFavorite  string  `json:"odds_favorite,omitempty"`
	OddsSpread    string  `json:"odds_spread,omitempty"`
	OddsOverUnder string  `json:"odds_over_under,omitempty"`
	OddsDetails   string  `json:"odds_details,omitempty"`
	HomeMoneyline string  `json:"home_moneyline,omitempty"`
	AwayMoneyline string  `json:"away_moneyline,omitempty"`
	SourceLeague  string  `json:"source_league,omitempty"` // soccer multi-league origin
}
