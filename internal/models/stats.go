package models

import "fmt"

// TeamStats holds season aggregates for one team.
type TeamStats struct {
	Record      string `json:"record"` // "10-2" or "8-3-1" (soccer W-D-L)
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Ties        int    `json:"ties,omitempty"`
	HomeRecord  string `json:"home_record,omitempty"`
	AwayRecord  string `json:"away_record,omitempty"`
	// Streak is signed: positive = consecutive wins, negative = losses.
	Streak      int    `json:"streak"`
	Rank        *int   `json:"rank,omitempty"` // college poll rank, nil if unranked
	PlayoffSeed *int   `json:"playoff_seed,omitempty"`
	GamesBack   string `json:"games_back,omitempty"`

	Conference       string  `json:"conference,omitempty"`
	ConferenceAbbrev string  `json:"conference_abbrev,omitempty"`
	Division         string  `json:"division,omitempty"`
	DivisionAbbrev   string  `json:"division_abbrev,omitempty"`
	PPG              float64 `json:"ppg,omitempty"`
	PAPG             float64 `json:"papg,omitempty"`
}

// StreakText renders the signed streak as "W3" / "L2" / "".
func (s TeamStats) StreakText() string {
	switch {
	case s.Streak > 0:
		return fmt.Sprintf("W%d", s.Streak)
	case s.Streak < 0:
		return fmt.Sprintf("L%d", -s.Streak)
	default:
		return ""
	}
}

// HeadToHead summarizes the season series against one opponent.
type HeadToHead struct {
	TeamWins     int `json:"team_wins"`
	OpponentWins int `json:"opponent_wins"`

	// Facts about the most recent completed meeting.
	PreviousResult string `json:"previous_result,omitempty"` // "Win", "Loss", "Tie"
	PreviousScore  string `json:"previous_score,omitempty"`  // "110-98"
	PreviousAbbrev string `json:"previous_abbrev,omitempty"` // "DET 110 vs CHI 98"
	PreviousWinner string `json:"previous_winner,omitempty"`
	PreviousLoser  string `json:"previous_loser,omitempty"`
	PreviousDate   string `json:"previous_date,omitempty"`
	PreviousVenue  string `json:"previous_venue,omitempty"`
	DaysSince      int    `json:"days_since,omitempty"`
}

// HasMeetings reports whether any completed head-to-head games exist.
func (h HeadToHead) HasMeetings() bool {
	return h.TeamWins+h.OpponentWins > 0
}

// Streaks are location splits and trailing records computed from the
// completed schedule. Draws break streaks and never extend them.
type Streaks struct {
	HomeStreak   string `json:"home_streak,omitempty"` // "W3" / "L2" / ""
	AwayStreak   string `json:"away_streak,omitempty"`
	Last5Record  string `json:"last_5_record,omitempty"`  // "" until 5 games played
	Last10Record string `json:"last_10_record,omitempty"` // "" until 10 games played
}

// PlayerLeaders holds sport-dispatched leader lines. Only the fields for the
// event's sport are populated, and only for completed games (basketball,
// football) or as season aggregates (hockey).
type PlayerLeaders struct {
	BasketballScoringLeaderName   string `json:"basketball_scoring_leader_name,omitempty"`
	BasketballScoringLeaderPoints string `json:"basketball_scoring_leader_points,omitempty"`

	FootballPassingLeaderName    string `json:"football_passing_leader_name,omitempty"`
	FootballPassingLeaderStats   string `json:"football_passing_leader_stats,omitempty"`
	FootballRushingLeaderName    string `json:"football_rushing_leader_name,omitempty"`
	FootballRushingLeaderStats   string `json:"football_rushing_leader_stats,omitempty"`
	FootballReceivingLeaderName  string `json:"football_receiving_leader_name,omitempty"`
	FootballReceivingLeaderStats string `json:"football_receiving_leader_stats,omitempty"`

	HockeyTopScorerName        string `json:"hockey_top_scorer_name,omitempty"`
	HockeyTopScorerPosition    string `json:"hockey_top_scorer_position,omitempty"`
	HockeyTopScorerGoals       string `json:"hockey_top_scorer_goals,omitempty"`
	HockeyTopScorerGPG         string `json:"hockey_top_scorer_gpg,omitempty"`
	HockeyTopPlaymakerName     string `json:"hockey_top_playmaker_name,omitempty"`
	HockeyTopPlaymakerPosition string `json:"hockey_top_playmaker_position,omitempty"`
	HockeyTopPlaymakerAssists  string `json:"hockey_top_playmaker_assists,omitempty"`
	HockeyTopPlaymakerAPG      string `json:"hockey_top_playmaker_apg,omitempty"`
}

// IsEmpty reports whether no leader line was extracted.
func (p PlayerLeaders) IsEmpty() bool {
	return p == PlayerLeaders{}
}
