package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList is a JSON-encoded []string column.
type StringList []string

// Scan implements sql.Scanner for JSON columns.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("cannot scan %T into StringList", value)
		}
	}
	var result []string
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*l = result
	return nil
}

// Value implements driver.Valuer for JSON columns.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal([]string(l))
}

// IntList is a JSON-encoded []int column (channel profile IDs).
type IntList []int

func (l *IntList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("cannot scan %T into IntList", value)
		}
	}
	var result []int
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*l = result
	return nil
}

func (l IntList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal([]int(l))
}

// DescriptionOption is one entry of a template's conditional description
// list. Priority 1..99 is conditional, 100 is the unconditional fallback.
type DescriptionOption struct {
	Template       string `json:"template"`
	Priority       int    `json:"priority"`
	Condition      string `json:"condition,omitempty"`
	ConditionValue string `json:"condition_value,omitempty"`
}

// DescriptionOptions is the JSON column type for a list of options.
type DescriptionOptions []DescriptionOption

func (o *DescriptionOptions) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("cannot scan %T into DescriptionOptions", value)
		}
	}
	var result []DescriptionOption
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*o = result
	return nil
}

func (o DescriptionOptions) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	return json.Marshal([]DescriptionOption(o))
}

// EPGTemplate holds the user-authored template strings a team renders with.
// Teams reference a template row; the orchestrator merges the two at load.
type EPGTemplate struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null;uniqueIndex" json:"name"`

	GameTitle          string             `json:"game_title"`
	GameSubtitle       string             `json:"game_subtitle"`
	GameDescription    string             `json:"game_description"`
	GameArtURL         string             `json:"game_art_url"`
	DescriptionOptions DescriptionOptions `gorm:"type:json" json:"description_options"`

	PregameEnabled     bool   `gorm:"default:true" json:"pregame_enabled"`
	PregameTitle       string `json:"pregame_title"`
	PregameSubtitle    string `json:"pregame_subtitle"`
	PregameDescription string `json:"pregame_description"`
	PregameArtURL      string `json:"pregame_art_url"`

	PostgameEnabled               bool   `gorm:"default:true" json:"postgame_enabled"`
	PostgameTitle                 string `json:"postgame_title"`
	PostgameSubtitle              string `json:"postgame_subtitle"`
	PostgameDescription           string `json:"postgame_description"`
	PostgameArtURL                string `json:"postgame_art_url"`
	PostgameConditionalEnabled    bool   `json:"postgame_conditional_enabled"`
	PostgameDescriptionFinal      string `json:"postgame_description_final"`
	PostgameDescriptionNotFinal   string `json:"postgame_description_not_final"`

	IdleEnabled                 bool   `gorm:"default:true" json:"idle_enabled"`
	IdleTitle                   string `json:"idle_title"`
	IdleSubtitle                string `json:"idle_subtitle"`
	IdleDescription             string `json:"idle_description"`
	IdleArtURL                  string `json:"idle_art_url"`
	IdleConditionalEnabled      bool   `json:"idle_conditional_enabled"`
	IdleDescriptionFinal        string `json:"idle_description_final"`
	IdleDescriptionNotFinal     string `json:"idle_description_not_final"`
	IdleOffseasonEnabled        bool   `json:"idle_offseason_enabled"`
	IdleDescriptionOffseason    string `json:"idle_description_offseason"`
	IdleTitleOffseasonEnabled   bool   `json:"idle_title_offseason_enabled"`
	IdleTitleOffseason          string `json:"idle_title_offseason"`
	IdleSubtitleOffseasonEnabled bool  `json:"idle_subtitle_offseason_enabled"`
	IdleSubtitleOffseason       string `json:"idle_subtitle_offseason"`

	// Game duration: "sport" (per-sport default), "default" (global), "custom".
	GameDurationMode     string  `gorm:"default:sport" json:"game_duration_mode"`
	GameDurationOverride float64 `gorm:"default:4" json:"game_duration_override"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (EPGTemplate) TableName() string {
	return "epg_templates"
}

// TeamConfig is a user-configured team row.
type TeamConfig struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	TeamID     string `gorm:"not null;index:idx_team_league,unique" json:"team_id"`
	League     string `gorm:"not null;index:idx_team_league,unique" json:"league"`
	Sport      string `gorm:"not null" json:"sport"`
	TeamName   string `gorm:"not null" json:"team_name"`
	TeamAbbrev string `json:"team_abbrev"`
	LogoURL    string `json:"logo_url"`
	Enabled    bool   `gorm:"default:true" json:"enabled"`

	ChannelNumber *int   `json:"channel_number,omitempty"`
	TvgID         string `json:"tvg_id,omitempty"`

	// Soccer clubs play in several competitions; the primary league anchors
	// stats and standings lookups.
	SoccerPrimaryLeague   string     `json:"soccer_primary_league,omitempty"`
	SoccerPrimaryLeagueID string     `json:"soccer_primary_league_id,omitempty"`
	Leagues               StringList `gorm:"type:json" json:"leagues,omitempty"`

	TemplateID *uint        `json:"template_id,omitempty"`
	Template   *EPGTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TeamConfig) TableName() string {
	return "teams"
}

// EffectiveTemplate returns the attached template or an empty one.
func (t *TeamConfig) EffectiveTemplate() *EPGTemplate {
	if t.Template != nil {
		return t.Template
	}
	return &EPGTemplate{PregameEnabled: true, PostgameEnabled: true, IdleEnabled: true}
}
