package goldzone

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/teamarr/teamarr/internal/dispatcharr"
	"github.com/teamarr/teamarr/internal/models"
)

// TvgID is the fixed guide identity of the Gold Zone channel.
const TvgID = "GoldZone.us"

// ChannelName is the display name used downstream.
const ChannelName = "Gold Zone"

// rolloverHourUTC is when the broadcast day flips. Overnight whip-around
// coverage belongs to the previous day until 05:00 UTC.
const rolloverHourUTC = 5

// dayNBase anchors "Day N" stream names: day 1 is the opening day.
var dayNBase = time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC)

var namePattern = regexp.MustCompile(`(?i)\bgold[ -]?zone\b`)

// IsGoldZoneStream reports whether a stream name is whip-around coverage.
func IsGoldZoneStream(name string) bool {
	return namePattern.MatchString(name)
}

// ActiveDay returns the broadcast day a moment belongs to, applying the
// 05:00 UTC rollover.
func ActiveDay(now time.Time) time.Time {
	utc := now.UTC()
	if utc.Hour() < rolloverHourUTC {
		utc = utc.AddDate(0, 0, -1)
	}
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

// DayNDate maps an event "Day N" label to its calendar date.
func DayNDate(n int) time.Time {
	return dayNBase.AddDate(0, 0, n-1)
}

// externalTV is the subset of an upstream XMLTV document we consume.
type externalTV struct {
	Programmes []externalProgramme `xml:"programme"`
}

type externalProgramme struct {
	Start   string `xml:"start,attr"`
	Stop    string `xml:"stop,attr"`
	Channel string `xml:"channel,attr"`
	Title   string `xml:"title"`
	Desc    string `xml:"desc"`
}

const externalTimeLayout = "20060102150405 -0700"

// ParseExternalGuide extracts programmes for one channel id from an
// upstream XMLTV feed, keeping only those inside [start, end).
func ParseExternalGuide(r io.Reader, channelID string, start, end time.Time) ([]models.ProcessedProgramme, error) {
	var doc externalTV
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing external guide: %w", err)
	}
	var out []models.ProcessedProgramme
	for _, p := range doc.Programmes {
		if p.Channel != channelID {
			continue
		}
		ps, err := time.Parse(externalTimeLayout, p.Start)
		if err != nil {
			continue
		}
		pe, err := time.Parse(externalTimeLayout, p.Stop)
		if err != nil {
			continue
		}
		if !pe.After(start) || !ps.Before(end) {
			continue
		}
		out = append(out, models.ProcessedProgramme{
			StartDatetime: ps.UTC(),
			EndDatetime:   pe.UTC(),
			Title:         p.Title,
			Description:   p.Desc,
			Status:        models.ProgrammeScheduled,
		})
	}
	return out, nil
}

// Service keeps the Gold Zone channel alive while matching streams exist
// and tears it down when they disappear.
type Service struct {
	db     *gorm.DB
	client *dispatcharr.Client
	http   *http.Client
}

func NewService(db *gorm.DB, client *dispatcharr.Client) *Service {
	return &Service{db: db, client: client, http: &http.Client{Timeout: 30 * time.Second}}
}

// Sync reconciles the channel against the currently visible streams.
func (s *Service) Sync(ctx context.Context, settings *models.Settings, streams []dispatcharr.Stream) error {
	if !settings.GoldZoneEnabled {
		return nil
	}
	var matched []dispatcharr.Stream
	for _, st := range streams {
		if IsGoldZoneStream(st.Name) {
			matched = append(matched, st)
		}
	}

	var existing models.ManagedChannel
	err := s.db.WithContext(ctx).
		Where("tvg_id = ? AND deleted_at IS NULL", TvgID).
		First(&existing).Error
	hasChannel := err == nil

	switch {
	case len(matched) == 0 && hasChannel:
		return s.teardown(ctx, &existing)
	case len(matched) > 0 && !hasChannel:
		return s.create(ctx, settings, matched)
	case len(matched) > 0:
		return s.attachStreams(ctx, &existing, matched)
	default:
		return nil
	}
}

func (s *Service) create(ctx context.Context, settings *models.Settings, streams []dispatcharr.Stream) error {
	payload := dispatcharr.Channel{
		Name:            ChannelName,
		TvgID:           TvgID,
		ChannelNumber:   float64(settings.GoldZoneChannelNumber),
		ChannelGroupID:  settings.GoldZoneChannelGroupID,
		StreamProfileID: settings.GoldZoneStreamProfileID,
	}
	var downstreamID *int
	if s.client != nil {
		created, err := s.client.CreateChannel(ctx, payload)
		if err != nil {
			return fmt.Errorf("creating gold zone channel: %w", err)
		}
		downstreamID = &created.ID
	}

	number := settings.GoldZoneChannelNumber
	row := models.ManagedChannel{
		EventID:              "goldzone",
		EventName:            ChannelName,
		TvgID:                TvgID,
		ChannelName:          ChannelName,
		ChannelNumber:        &number,
		DispatcharrChannelID: downstreamID,
		SyncStatus:           "synced",
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	logrus.Infof("[GOLDZONE] Channel created with %d streams", len(streams))
	return s.attachStreams(ctx, &row, streams)
}

func (s *Service) attachStreams(ctx context.Context, ch *models.ManagedChannel, streams []dispatcharr.Stream) error {
	if s.client == nil || ch.DispatcharrChannelID == nil {
		return nil
	}
	ids := make([]int, 0, len(streams))
	for _, st := range streams {
		ids = append(ids, st.ID)
	}
	return s.client.SetChannelStreams(ctx, *ch.DispatcharrChannelID, ids)
}

func (s *Service) teardown(ctx context.Context, ch *models.ManagedChannel) error {
	if s.client != nil && ch.DispatcharrChannelID != nil {
		if err := s.client.DeleteChannel(ctx, *ch.DispatcharrChannelID); err != nil {
			return err
		}
	}
	logrus.Info("[GOLDZONE] No streams remain, channel removed")
	return s.db.WithContext(ctx).Model(ch).Update("deleted_at", time.Now()).Error
}

// Guide fetches and filters the external guide for the channel's window.
func (s *Service) Guide(ctx context.Context, feedURL string, daysAhead int) ([]models.ProcessedProgramme, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching external guide: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching external guide: status %d", resp.StatusCode)
	}
	start := ActiveDay(time.Now()).Add(rolloverHourUTC * time.Hour)
	end := start.AddDate(0, 0, daysAhead)
	return ParseExternalGuide(resp.Body, TvgID, start, end)
}
