package models

import "time"

// GameContext bundles everything the template resolver needs about one game
// slot: the event itself plus team/opponent views, stats and derived facts.
// Three of these (current/next/last) surround every rendered programme.
type GameContext struct {
	Event  *EnrichedEvent `json:"event,omitempty"`
	IsHome bool           `json:"is_home"`

	TeamSide     Team `json:"team_side"`
	OpponentSide Team `json:"opponent_side"`

	TeamStats     *TeamStats `json:"team_stats,omitempty"`
	OpponentStats *TeamStats `json:"opponent_stats,omitempty"`

	H2H           HeadToHead    `json:"h2h"`
	Streaks       Streaks       `json:"streaks"`
	HeadCoach     string        `json:"head_coach,omitempty"`
	PlayerLeaders PlayerLeaders `json:"player_leaders"`
}

// HasEvent reports whether this context carries a game at all.
func (g *GameContext) HasEvent() bool {
	return g != nil && g.Event != nil
}

// TimeFormatSettings are user display preferences for rendered dates/times.
type TimeFormatSettings struct {
	Use24Hour      bool `json:"use_24_hour"`
	ShowTimezone   bool `json:"show_timezone"`
	LowercaseAMPM  bool `json:"lowercase_ampm"`
}

// TemplateContext is the top-level rendering input. Current may be nil for
// idle filler; NextGame/LastGame may be nil at season boundaries.
type TemplateContext struct {
	TeamConfig *TeamConfig  `json:"team_config"`
	TeamStats  *TeamStats   `json:"team_stats,omitempty"`
	Current    *GameContext `json:"current,omitempty"`
	NextGame   *GameContext `json:"next_game,omitempty"`
	LastGame   *GameContext `json:"last_game,omitempty"`

	EPGTimezone     string             `json:"epg_timezone"`
	ProgramDatetime time.Time          `json:"program_datetime"`
	TimeFormat      TimeFormatSettings `json:"time_format"`
}

// FillerType classifies synthesized programmes.
type FillerType string

const (
	FillerPregame  FillerType = "pregame"
	FillerPostgame FillerType = "postgame"
	FillerIdle     FillerType = "idle"
)

// ProgrammeStatus is the rendered programme's status bucket.
type ProgrammeStatus string

const (
	ProgrammeScheduled  ProgrammeStatus = "scheduled"
	ProgrammeInProgress ProgrammeStatus = "in_progress"
	ProgrammeFinal      ProgrammeStatus = "final"
	ProgrammeFiller     ProgrammeStatus = "filler"
)

// ProcessedProgramme is one rendered EPG entry.
type ProcessedProgramme struct {
	StartDatetime time.Time       `json:"start_datetime"`
	EndDatetime   time.Time       `json:"end_datetime"`
	Title         string          `json:"title"`
	Subtitle      string          `json:"subtitle,omitempty"`
	Description   string          `json:"description"`
	ProgramArtURL string          `json:"program_art_url,omitempty"`
	Status        ProgrammeStatus `json:"status"`
	IsFiller      bool            `json:"is_filler,omitempty"`
	FillerType    FillerType      `json:"filler_type,omitempty"`
	EventID       string          `json:"event_id,omitempty"`

	// Snapshot of resolved variables for late category resolution
	// downstream (channel naming, EPG grouping).
	Variables map[string]string `json:"variables,omitempty"`
}
