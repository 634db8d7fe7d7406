package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/teamarr/teamarr/internal/dispatcharr"
	"github.com/teamarr/teamarr/internal/models"
)

// Manager drives scheduled channel creation and teardown against the
// downstream instance.
type Manager struct {
	db     *gorm.DB
	client *dispatcharr.Client
}

func NewManager(db *gorm.DB, client *dispatcharr.Client) *Manager {
	return &Manager{db: db, client: client}
}

// Schedule stamps a managed channel with its create/delete deadlines per
// the global timing settings.
func (m *Manager) Schedule(ch *models.ManagedChannel, settings *models.Settings, loc *time.Location, eventEnd time.Time) {
	if ch.EventStartTime != nil {
		ch.ScheduledCreateAt = CreateAt(*ch.EventStartTime, settings.ChannelCreateTiming, loc)
	}
	ch.ScheduledDeleteAt = DeleteAt(eventEnd, settings.ChannelDeleteTiming, loc)
}

// Sweep creates channels whose create time has arrived and removes ones
// past their delete time. Failures on one channel never block the rest.
func (m *Manager) Sweep(ctx context.Context, now time.Time) (created, deleted int, err error) {
	var due []models.ManagedChannel
	if err := m.db.WithContext(ctx).
		Where("deleted_at IS NULL AND dispatcharr_channel_id IS NULL").
		Where("scheduled_create_at IS NOT NULL AND scheduled_create_at <= ?", now).
		Find(&due).Error; err != nil {
		return 0, 0, fmt.Errorf("loading due creations: %w", err)
	}
	for i := range due {
		if err := m.createChannel(ctx, &due[i]); err != nil {
			logrus.Errorf("[LIFECYCLE] Creating %s failed: %v", due[i].ChannelName, err)
			continue
		}
		created++
	}

	var expired []models.ManagedChannel
	if err := m.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Where("scheduled_delete_at IS NOT NULL AND scheduled_delete_at <= ?", now).
		Find(&expired).Error; err != nil {
		return created, 0, fmt.Errorf("loading due deletions: %w", err)
	}
	for i := range expired {
		if err := m.deleteChannel(ctx, &expired[i], "scheduled"); err != nil {
			logrus.Errorf("[LIFECYCLE] Deleting %s failed: %v", expired[i].ChannelName, err)
			continue
		}
		deleted++
	}
	return created, deleted, nil
}

func (m *Manager) createChannel(ctx context.Context, ch *models.ManagedChannel) error {
	payload := dispatcharr.Channel{
		Name:            ch.ChannelName,
		TvgID:           ch.TvgID,
		ChannelGroupID:  ch.ChannelGroupID,
		StreamProfileID: ch.StreamProfileID,
	}
	if ch.ChannelNumber != nil {
		payload.ChannelNumber = float64(*ch.ChannelNumber)
	}
	if m.client != nil && ch.LogoURL != "" {
		if logo, err := m.client.UploadLogo(ctx, ch.ChannelName, ch.LogoURL); err == nil {
			payload.LogoID = &logo.ID
		}
	}

	var downstreamID *int
	if m.client != nil {
		createdCh, err := m.client.CreateChannel(ctx, payload)
		if err != nil {
			return err
		}
		downstreamID = &createdCh.ID
		if ids := m.streamIDs(ctx, ch.ID); len(ids) > 0 {
			if err := m.client.SetChannelStreams(ctx, createdCh.ID, ids); err != nil {
				logrus.Warnf("[LIFECYCLE] Attaching streams to %s failed: %v", ch.ChannelName, err)
			}
		}
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"sync_status": "synced"}
		if downstreamID != nil {
			updates["dispatcharr_channel_id"] = *downstreamID
		}
		if err := tx.Model(ch).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Create(&models.ChannelHistory{
			ManagedChannelID: ch.ID,
			ChangeType:       "created",
			ChangeSource:     "lifecycle",
			Notes:            ch.EventName,
		}).Error
	})
}

// streamIDs returns the channel's tracked streams in priority order.
func (m *Manager) streamIDs(ctx context.Context, channelID uint) []int {
	var rows []models.ManagedChannelStream
	if err := m.db.WithContext(ctx).
		Where("managed_channel_id = ?", channelID).
		Order("priority asc").Find(&rows).Error; err != nil {
		return nil
	}
	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.DispatcharrStreamID)
	}
	return ids
}

func (m *Manager) deleteChannel(ctx context.Context, ch *models.ManagedChannel, source string) error {
	if m.client != nil && ch.DispatcharrChannelID != nil {
		if err := m.client.DeleteChannel(ctx, *ch.DispatcharrChannelID); err != nil {
			return err
		}
	}
	now := time.Now()
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(ch).Update("deleted_at", now).Error; err != nil {
			return err
		}
		return tx.Create(&models.ChannelHistory{
			ManagedChannelID: ch.ID,
			ChangeType:       "deleted",
			ChangeSource:     source,
		}).Error
	})
}

// RemoveForStream tears down a channel when its last stream disappeared
// and the delete timing is stream_removed.
func (m *Manager) RemoveForStream(ctx context.Context, ch *models.ManagedChannel) error {
	return m.deleteChannel(ctx, ch, "stream_removed")
}
