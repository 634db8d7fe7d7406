package models

import "time"

// EventGroup is a user-configured bundle of IPTV streams scoped to one or
// more leagues, rendered as auto-created channels.
type EventGroup struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"not null" json:"name"`
	Enabled bool   `gorm:"default:true" json:"enabled"`

	// League scoping: "single" restricts matching to League; "multi"
	// searches everything and filters by IncludeLeagues.
	LeagueMode     string     `gorm:"default:single" json:"league_mode"`
	League         string     `json:"league,omitempty"`
	IncludeLeagues StringList `gorm:"type:json" json:"include_leagues,omitempty"`

	// Inherited-scope child groups receive resolved leagues from a parent.
	ParentGroupID   *uint      `json:"parent_group_id,omitempty"`
	ResolvedLeagues StringList `gorm:"type:json" json:"resolved_leagues,omitempty"`

	M3UGroupID *int `gorm:"index" json:"m3u_group_id,omitempty"`

	ChannelStartNumber int    `json:"channel_start_number"`
	ChannelGroupID     *int   `json:"channel_group_id,omitempty"`
	StreamProfileID    *int   `json:"stream_profile_id,omitempty"`
	ChannelProfileIDs  IntList `gorm:"type:json" json:"channel_profile_ids,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (EventGroup) TableName() string {
	return "event_groups"
}

// ManagedChannel is the persistent record of a downstream channel the
// system created and owns. At most one active row per downstream channel
// ID, and one per (group, event, exception keyword) tuple.
type ManagedChannel struct {
	ID uint `gorm:"primaryKey" json:"id"`

	EventEPGGroupID uint   `gorm:"not null;index" json:"event_epg_group_id"`
	EventID         string `gorm:"not null;index" json:"event_id"`
	EventProvider   string `json:"event_provider"`
	EventName       string `json:"event_name"`
	League          string `json:"league"`
	Sport           string `json:"sport"`

	TvgID       string `gorm:"index" json:"tvg_id"`
	ChannelName string `json:"channel_name"`
	LogoURL     string `json:"logo_url,omitempty"`

	DispatcharrChannelID *int `gorm:"index" json:"dispatcharr_channel_id,omitempty"`
	ChannelNumber        *int `json:"channel_number,omitempty"`
	ChannelGroupID       *int `json:"channel_group_id,omitempty"`
	StreamProfileID      *int `json:"stream_profile_id,omitempty"`
	ChannelProfileIDs    IntList `gorm:"type:json" json:"channel_profile_ids,omitempty"`

	// Variant channels (Spanish/French feeds) carry the matching keyword;
	// the main channel leaves it empty.
	ExceptionKeyword string `json:"exception_keyword,omitempty"`

	EventStartTime    *time.Time `json:"event_start_time,omitempty"`
	ScheduledCreateAt *time.Time `json:"scheduled_create_at,omitempty"`
	ScheduledDeleteAt *time.Time `json:"scheduled_delete_at,omitempty"`
	DeletedAt         *time.Time `gorm:"index" json:"deleted_at,omitempty"`

	SyncStatus string `gorm:"default:pending" json:"sync_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ManagedChannel) TableName() string {
	return "managed_channels"
}

// IsActive reports whether the channel row has not been soft-deleted.
func (c *ManagedChannel) IsActive() bool {
	return c.DeletedAt == nil
}

// IsMain reports whether this is the primary (non-variant) channel.
func (c *ManagedChannel) IsMain() bool {
	return c.ExceptionKeyword == ""
}

// ManagedChannelStream is one stream attached to a managed channel, in
// priority order.
type ManagedChannelStream struct {
	ID                  uint   `gorm:"primaryKey" json:"id"`
	ManagedChannelID    uint   `gorm:"not null;index" json:"managed_channel_id"`
	DispatcharrStreamID int    `gorm:"not null" json:"dispatcharr_stream_id"`
	StreamName          string `json:"stream_name"`
	Priority            int    `json:"priority"`
	SourceGroupID       *uint  `json:"source_group_id,omitempty"`
	M3UAccountID        *int   `json:"m3u_account_id,omitempty"`
	M3UAccountName      string `json:"m3u_account_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (ManagedChannelStream) TableName() string {
	return "managed_channel_streams"
}

// ChannelHistory is an append-only audit row for channel mutations.
type ChannelHistory struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ManagedChannelID uint      `gorm:"not null;index" json:"managed_channel_id"`
	ChangeType       string    `gorm:"not null" json:"change_type"`
	ChangeSource     string    `json:"change_source"`
	FieldName        string    `json:"field_name,omitempty"`
	OldValue         string    `json:"old_value,omitempty"`
	NewValue         string    `json:"new_value,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func (ChannelHistory) TableName() string {
	return "channel_history"
}

// TeamAlias rewrites noisy stream names before matching.
type TeamAlias struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Alias     string    `gorm:"not null;index" json:"alias"`
	TeamName  string    `gorm:"not null" json:"team_name"`
	League    string    `json:"league,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (TeamAlias) TableName() string {
	return "team_aliases"
}
