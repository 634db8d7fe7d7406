package models

import (
	"time"

	"gorm.io/datatypes"
)

// CreateTiming values for channel lifecycle.
const (
	CreateStreamAvailable = "stream_available"
	CreateSameDay         = "same_day"
	CreateDayBefore       = "day_before"
	Create2DaysBefore     = "2_days_before"
	Create3DaysBefore     = "3_days_before"
	Create1WeekBefore     = "1_week_before"
)

// DeleteTiming values for channel lifecycle.
const (
	DeleteStreamRemoved = "stream_removed"
	Delete6HoursAfter   = "6_hours_after"
	DeleteSameDay       = "same_day"
	DeleteDayAfter      = "day_after"
	Delete2DaysAfter    = "2_days_after"
	Delete3DaysAfter    = "3_days_after"
	Delete1WeekAfter    = "1_week_after"
)

// Numbering modes.
const (
	NumberingStrictBlock   = "strict_block"
	NumberingRationalBlock = "rational_block"
	NumberingStrictCompact = "strict_compact"
)

// Settings is the single runtime-mutable settings row (id = 1).
type Settings struct {
	ID uint `gorm:"primaryKey" json:"id"`

	EPGTimezone        string `gorm:"default:America/Detroit" json:"epg_timezone"`
	EPGOutputDaysAhead int    `gorm:"default:3" json:"epg_output_days_ahead"`
	EPGLookbackHours   int    `gorm:"default:6" json:"epg_lookback_hours"`
	IncludeFinalEvents bool   `gorm:"default:true" json:"include_final_events"`

	// "postgame" renders post-midnight crossover hours as postgame filler;
	// "idle" renders them as idle.
	MidnightCrossoverMode string `gorm:"default:idle" json:"midnight_crossover_mode"`

	Use24HourTime   bool `json:"use_24_hour_time"`
	ShowTimezone    bool `json:"show_timezone"`

	ChannelCreateTiming            string `gorm:"default:same_day" json:"channel_create_timing"`
	ChannelDeleteTiming            string `gorm:"default:day_after" json:"channel_delete_timing"`
	DefaultDuplicateEventHandling  string `gorm:"default:consolidate" json:"default_duplicate_event_handling"`

	ChannelRangeStart    int    `gorm:"default:100" json:"channel_range_start"`
	ChannelRangeEnd      int    `gorm:"default:9999" json:"channel_range_end"`
	ChannelNumberingMode string `gorm:"default:strict_block" json:"channel_numbering_mode"`
	ChannelSortingScope  string `gorm:"default:per_group" json:"channel_sorting_scope"`
	SortBy               string `gorm:"default:sport_league_time" json:"sort_by"`

	GameDurationDefault    float64 `gorm:"default:4" json:"game_duration_default"`
	GameDurationBasketball float64 `gorm:"default:3" json:"game_duration_basketball"`
	GameDurationFootball   float64 `gorm:"default:4" json:"game_duration_football"`
	GameDurationHockey     float64 `gorm:"default:3.5" json:"game_duration_hockey"`
	GameDurationBaseball   float64 `gorm:"default:4" json:"game_duration_baseball"`
	GameDurationSoccer     float64 `gorm:"default:3" json:"game_duration_soccer"`

	DispatcharrEnabled  bool   `json:"dispatcharr_enabled"`
	DispatcharrURL      string `json:"dispatcharr_url"`
	DispatcharrUsername string `json:"dispatcharr_username"`
	DispatcharrPassword string `json:"dispatcharr_password"`
	DispatcharrEPGID    *int   `json:"dispatcharr_epg_id,omitempty"`

	SchedulerEnabled         bool   `gorm:"default:true" json:"scheduler_enabled"`
	SchedulerIntervalMinutes int    `gorm:"default:60" json:"scheduler_interval_minutes"`
	ChannelResetEnabled      bool   `json:"channel_reset_enabled"`
	ChannelResetCron         string `gorm:"default:0 4 * * *" json:"channel_reset_cron"`

	GoldZoneEnabled           bool    `json:"gold_zone_enabled"`
	GoldZoneChannelNumber     int     `gorm:"default:999" json:"gold_zone_channel_number"`
	GoldZoneChannelGroupID    *int    `json:"gold_zone_channel_group_id,omitempty"`
	GoldZoneStreamProfileID   *int    `json:"gold_zone_stream_profile_id,omitempty"`
	GoldZoneChannelProfileIDs IntList `gorm:"type:json" json:"gold_zone_channel_profile_ids,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (Settings) TableName() string {
	return "settings"
}

// GameDurationFor returns the configured duration in hours for a template's
// duration mode.
func (s *Settings) GameDurationFor(sport, mode string, override float64) float64 {
	switch mode {
	case "custom":
		if override > 0 {
			return override
		}
		return s.GameDurationDefault
	case "default":
		return s.GameDurationDefault
	default: // "sport"
		switch sport {
		case "basketball":
			return s.GameDurationBasketball
		case "football":
			return s.GameDurationFootball
		case "hockey":
			return s.GameDurationHockey
		case "baseball":
			return s.GameDurationBaseball
		case "soccer":
			return s.GameDurationSoccer
		default:
			return s.GameDurationDefault
		}
	}
}

// TimeFormatSettings projects the display-relevant fields.
func (s *Settings) TimeFormatSettings() TimeFormatSettings {
	return TimeFormatSettings{
		Use24Hour:    s.Use24HourTime,
		ShowTimezone: s.ShowTimezone,
	}
}

// DetectionKeyword is a user-supplied detection pattern row.
type DetectionKeyword struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Category    string    `gorm:"not null;index" json:"category"`
	Keyword     string    `gorm:"not null" json:"keyword"`
	IsRegex     bool      `json:"is_regex"`
	TargetValue string    `json:"target_value,omitempty"`
	Enabled     bool      `gorm:"default:true" json:"enabled"`
	Priority    int       `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (DetectionKeyword) TableName() string {
	return "detection_keywords"
}

// CachedTeamLeague is one row of the team-league reverse index.
type CachedTeamLeague struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Provider  string    `gorm:"not null;index:idx_tlc,unique" json:"provider"`
	TeamID    string    `gorm:"not null;index:idx_tlc,unique" json:"team_id"`
	League    string    `gorm:"not null;index:idx_tlc,unique" json:"league"`
	Sport     string    `gorm:"index" json:"sport"`
	TeamName  string    `gorm:"index" json:"team_name"`
	Abbrev    string    `json:"abbrev,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CachedTeamLeague) TableName() string {
	return "team_league_cache"
}

// GenerationRun records one EPG generation cycle for the run history UI.
// Stats holds the full per-run breakdown as JSON.
type GenerationRun struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	Channels   int            `json:"channels"`
	Programmes int            `json:"programmes"`
	Stats      datatypes.JSON `json:"stats,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	DurationMS int64          `json:"duration_ms"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (GenerationRun) TableName() string {
	return "generation_runs"
}

// CacheEntry backs the persistent TTL cache.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     []byte    `gorm:"not null" json:"value"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (CacheEntry) TableName() string {
	return "cache_entries"
}
