package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/teamarr/teamarr/internal/dispatcharr"
	"github.com/teamarr/teamarr/internal/models"
	"github.com/teamarr/teamarr/internal/services"
)

// ExceptionChecker reports the configured exception keyword present in a
// stream name and its behavior ("split" or "ignore").
type ExceptionChecker interface {
	CheckException(text string) (keyword, behavior string)
}

// OrderingEnforcer keeps keyword-variant channels numbered above their main
// channel and streams attached to the channel matching their keyword. All
// swaps happen inside one critical section so concurrent sweeps never
// interleave half-applied number exchanges.
type OrderingEnforcer struct {
	db         *gorm.DB
	client     *dispatcharr.Client
	exceptions ExceptionChecker
	mu         sync.Mutex
}

func NewOrderingEnforcer(db *gorm.DB, client *dispatcharr.Client, exceptions ExceptionChecker) *OrderingEnforcer {
	return &OrderingEnforcer{db: db, client: client, exceptions: exceptions}
}

// EnforceOrdering scans each event's channel family and swaps numbers so
// the main channel sits below every keyword variant. Returns the swap count.
func (e *OrderingEnforcer) EnforceOrdering(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var channels []models.ManagedChannel
	if err := e.db.WithContext(ctx).
		Where("deleted_at IS NULL AND channel_number IS NOT NULL").
		Find(&channels).Error; err != nil {
		return 0, fmt.Errorf("loading channels: %w", err)
	}

	families := make(map[string][]*models.ManagedChannel)
	for i := range channels {
		ch := &channels[i]
		key := fmt.Sprintf("%d|%s", ch.EventEPGGroupID, ch.EventID)
		families[key] = append(families[key], ch)
	}

	swaps := 0
	for _, family := range families {
		var main *models.ManagedChannel
		for _, ch := range family {
			if ch.IsMain() {
				main = ch
				break
			}
		}
		if main == nil {
			continue
		}
		for _, variant := range family {
			if variant.IsMain() {
				continue
			}
			if *variant.ChannelNumber > *main.ChannelNumber {
				continue
			}
			if err := e.swapNumbers(ctx, main, variant); err != nil {
				logrus.Errorf("[KEYWORDS] Swap %s/%s failed: %v", main.ChannelName, variant.ChannelName, err)
				continue
			}
			swaps++
		}
	}
	return swaps, nil
}

// swapNumbers exchanges channel numbers in persistence and downstream,
// recording history on both rows.
func (e *OrderingEnforcer) swapNumbers(ctx context.Context, main, variant *models.ManagedChannel) error {
	oldMain, oldVariant := *main.ChannelNumber, *variant.ChannelNumber
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(main).Update("channel_number", oldVariant).Error; err != nil {
			return err
		}
		if err := tx.Model(variant).Update("channel_number", oldMain).Error; err != nil {
			return err
		}
		for _, h := range []models.ChannelHistory{
			historyRow(main.ID, oldMain, oldVariant, variant.ChannelName),
			historyRow(variant.ID, oldVariant, oldMain, main.ChannelName),
		} {
			if err := tx.Create(&h).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	main.ChannelNumber, variant.ChannelNumber = &oldVariant, &oldMain

	if e.client != nil {
		if main.DispatcharrChannelID != nil {
			if err := e.client.SetChannelNumber(ctx, *main.DispatcharrChannelID, oldVariant); err != nil {
				return err
			}
		}
		if variant.DispatcharrChannelID != nil {
			if err := e.client.SetChannelNumber(ctx, *variant.DispatcharrChannelID, oldMain); err != nil {
				return err
			}
		}
	}
	logrus.Infof("[KEYWORDS] Swapped %s (%d→%d) with %s (%d→%d)",
		main.ChannelName, oldMain, oldVariant, variant.ChannelName, oldVariant, oldMain)
	return nil
}

func historyRow(channelID uint, oldNum, newNum int, counterpart string) models.ChannelHistory {
	return models.ChannelHistory{
		ManagedChannelID: channelID,
		ChangeType:       "number_swap",
		ChangeSource:     "keyword_ordering",
		FieldName:        "channel_number",
		OldValue:         fmt.Sprintf("%d", oldNum),
		NewValue:         fmt.Sprintf("%d", newNum),
		Notes:            "swapped with " + counterpart,
	}
}

// EnforceStreamPlacement verifies each stream sits on the channel whose
// exception keyword matches the stream name (the main channel when none
// does). Streams whose keyword is configured with the ignore behavior are
// detached outright. Returns the number of streams moved or removed.
func (e *OrderingEnforcer) EnforceStreamPlacement(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var channels []models.ManagedChannel
	if err := e.db.WithContext(ctx).Where("deleted_at IS NULL").Find(&channels).Error; err != nil {
		return 0, err
	}
	families := make(map[string][]*models.ManagedChannel)
	byID := make(map[uint]*models.ManagedChannel, len(channels))
	for i := range channels {
		ch := &channels[i]
		byID[ch.ID] = ch
		key := fmt.Sprintf("%d|%s", ch.EventEPGGroupID, ch.EventID)
		families[key] = append(families[key], ch)
	}

	var streams []models.ManagedChannelStream
	if err := e.db.WithContext(ctx).Find(&streams).Error; err != nil {
		return 0, err
	}

	moved := 0
	for i := range streams {
		stream := &streams[i]
		current, ok := byID[stream.ManagedChannelID]
		if !ok {
			continue
		}
		var keyword, behavior string
		if e.exceptions != nil {
			keyword, behavior = e.exceptions.CheckException(stream.StreamName)
		}
		if behavior == services.ExceptionIgnore {
			if err := e.db.WithContext(ctx).Delete(stream).Error; err != nil {
				return moved, err
			}
			if err := e.syncChannelStreams(ctx, current, stream.ID); err != nil {
				logrus.Warnf("[KEYWORDS] Downstream detach failed: %v", err)
			}
			moved++
			continue
		}
		key := fmt.Sprintf("%d|%s", current.EventEPGGroupID, current.EventID)
		target := targetChannel(families[key], keyword)
		if target == nil || target.ID == current.ID {
			continue
		}
		if err := e.moveStream(ctx, stream, current, target); err != nil {
			logrus.Errorf("[KEYWORDS] Moving stream %q failed: %v", stream.StreamName, err)
			continue
		}
		moved++
	}
	return moved, nil
}

// targetChannel picks the variant whose exception keyword equals the
// stream's detected keyword, defaulting to the main channel.
func targetChannel(family []*models.ManagedChannel, keyword string) *models.ManagedChannel {
	var main *models.ManagedChannel
	for _, ch := range family {
		if ch.IsMain() {
			main = ch
			continue
		}
		if keyword != "" && strings.EqualFold(ch.ExceptionKeyword, keyword) {
			return ch
		}
	}
	return main
}

func (e *OrderingEnforcer) moveStream(ctx context.Context, stream *models.ManagedChannelStream, from, to *models.ManagedChannel) error {
	var maxPriority int
	e.db.WithContext(ctx).Model(&models.ManagedChannelStream{}).
		Where("managed_channel_id = ?", to.ID).
		Select("COALESCE(MAX(priority), 0)").Scan(&maxPriority)

	err := e.db.WithContext(ctx).Model(stream).Updates(map[string]interface{}{
		"managed_channel_id": to.ID,
		"priority":           maxPriority + 1,
	}).Error
	if err != nil {
		return err
	}
	if err := e.syncChannelStreams(ctx, from, 0); err != nil {
		return err
	}
	return e.syncChannelStreams(ctx, to, 0)
}

// syncChannelStreams pushes a channel's current stream list downstream,
// excluding one stream row when detaching.
func (e *OrderingEnforcer) syncChannelStreams(ctx context.Context, ch *models.ManagedChannel, excludeRowID uint) error {
	if e.client == nil || ch.DispatcharrChannelID == nil {
		return nil
	}
	var rows []models.ManagedChannelStream
	if err := e.db.WithContext(ctx).
		Where("managed_channel_id = ?", ch.ID).
		Order("priority asc").Find(&rows).Error; err != nil {
		return err
	}
	var ids []int
	for _, r := range rows {
		if r.ID == excludeRowID {
			continue
		}
		ids = append(ids, r.DispatcharrStreamID)
	}
	return e.client.SetChannelStreams(ctx, *ch.DispatcharrChannelID, ids)
}
