package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/teamarr/teamarr/internal/cache"
	"github.com/teamarr/teamarr/internal/dispatcharr"
	"github.com/teamarr/teamarr/internal/goldzone"
	"github.com/teamarr/teamarr/internal/lifecycle"
	"github.com/teamarr/teamarr/internal/models"
)

const (
	sweepInterval = 5 * time.Minute
	purgeSpec     = "13 */6 * * *"
)

// Scheduler drives the periodic work: EPG regeneration on the configured
// interval, lifecycle sweeps, keyword enforcement, Gold Zone sync, cache
// purges and the nightly channel reset.
type Scheduler struct {
	db       *gorm.DB
	cron     *cron.Cron
	cache    *cache.Cache
	generate func(ctx context.Context) error
	manager  *lifecycle.Manager
	enforcer *lifecycle.OrderingEnforcer
	sync     *lifecycle.GroupSync
	goldZone *goldzone.Service
	client   *dispatcharr.Client

	mu      sync.Mutex
	resetID cron.EntryID
	genID   cron.EntryID
	genMins int
}

func New(db *gorm.DB, c *cache.Cache, generate func(ctx context.Context) error,
	manager *lifecycle.Manager, enforcer *lifecycle.OrderingEnforcer,
	sync *lifecycle.GroupSync, gz *goldzone.Service, client *dispatcharr.Client) *Scheduler {
	return &Scheduler{
		db:       db,
		cron:     cron.New(),
		cache:    c,
		generate: generate,
		manager:  manager,
		enforcer: enforcer,
		sync:     sync,
		goldZone: gz,
		client:   client,
	}
}

// Start registers the recurring jobs and launches the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(purgeSpec, s.purgeCache); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@every 5m", s.sweep); err != nil {
		return err
	}
	settings := s.loadSettings()
	s.applyGenerationInterval(settings)
	s.applyResetCron(settings)
	s.cron.Start()
	logrus.Info("[SCHEDULER] Started")
	return nil
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logrus.Info("[SCHEDULER] Stopped")
}

// Reload re-reads settings and reschedules the interval-driven jobs.
// Called after settings changes.
func (s *Scheduler) Reload() {
	settings := s.loadSettings()
	s.applyGenerationInterval(settings)
	s.applyResetCron(settings)
}

func (s *Scheduler) loadSettings() *models.Settings {
	var settings models.Settings
	if err := s.db.FirstOrCreate(&settings, models.Settings{ID: 1}).Error; err != nil {
		logrus.Errorf("[SCHEDULER] Could not load settings: %v", err)
		settings = models.Settings{ID: 1, SchedulerEnabled: true, SchedulerIntervalMinutes: 60}
	}
	return &settings
}

func (s *Scheduler) applyGenerationInterval(settings *models.Settings) {
	mins := settings.SchedulerIntervalMinutes
	if mins < 5 {
		mins = 60
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !settings.SchedulerEnabled {
		if s.genID != 0 {
			s.cron.Remove(s.genID)
			s.genID = 0
		}
		return
	}
	if s.genID != 0 && mins == s.genMins {
		return
	}
	if s.genID != 0 {
		s.cron.Remove(s.genID)
	}
	id, err := s.cron.AddFunc("@every "+(time.Duration(mins)*time.Minute).String(), s.runGeneration)
	if err != nil {
		logrus.Errorf("[SCHEDULER] Bad generation interval: %v", err)
		return
	}
	s.genID = id
	s.genMins = mins
	logrus.Infof("[SCHEDULER] EPG generation every %dm", mins)
}

func (s *Scheduler) applyResetCron(settings *models.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetID != 0 {
		s.cron.Remove(s.resetID)
		s.resetID = 0
	}
	if !settings.ChannelResetEnabled || settings.ChannelResetCron == "" {
		return
	}
	id, err := s.cron.AddFunc(settings.ChannelResetCron, s.channelReset)
	if err != nil {
		logrus.Errorf("[SCHEDULER] Bad channel reset cron %q: %v", settings.ChannelResetCron, err)
		return
	}
	s.resetID = id
	logrus.Infof("[SCHEDULER] Channel reset at %q", settings.ChannelResetCron)
}

func (s *Scheduler) runGeneration() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	if err := s.generate(ctx); err != nil {
		logrus.Errorf("[SCHEDULER] Scheduled generation failed: %v", err)
	}
}

// sweep runs the frequent reconciliation pass: due channel creations and
// deletions, keyword ordering, stream placement and Gold Zone.
func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if s.client != nil && s.sync != nil {
		stats, err := s.sync.Sync(ctx, time.Now())
		if err != nil {
			logrus.Errorf("[SCHEDULER] Group sync failed: %v", err)
		} else if stats.ChannelsCreated+stats.ChannelsRemoved > 0 {
			logrus.Infof("[SCHEDULER] Group sync: %d matched, %d queued, %d removed",
				stats.Matched, stats.ChannelsCreated, stats.ChannelsRemoved)
		}
	}

	created, deleted, err := s.manager.Sweep(ctx, time.Now())
	if err != nil {
		logrus.Errorf("[SCHEDULER] Lifecycle sweep failed: %v", err)
	} else if created+deleted > 0 {
		logrus.Infof("[SCHEDULER] Lifecycle sweep: %d created, %d deleted", created, deleted)
	}

	if s.client == nil {
		return
	}
	if _, err := s.enforcer.EnforceOrdering(ctx); err != nil {
		logrus.Warnf("[SCHEDULER] Keyword ordering failed: %v", err)
	}
	if _, err := s.enforcer.EnforceStreamPlacement(ctx); err != nil {
		logrus.Warnf("[SCHEDULER] Stream placement failed: %v", err)
	}
	s.syncGoldZone(ctx)
}

func (s *Scheduler) syncGoldZone(ctx context.Context) {
	settings := s.loadSettings()
	if !settings.GoldZoneEnabled {
		return
	}
	streams, err := s.client.ListStreams(ctx, "")
	if err != nil {
		logrus.Warnf("[SCHEDULER] Stream listing for gold zone failed: %v", err)
		return
	}
	if err := s.goldZone.Sync(ctx, settings, streams); err != nil {
		logrus.Warnf("[SCHEDULER] Gold zone sync failed: %v", err)
	}
}

func (s *Scheduler) purgeCache() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	removed, err := s.cache.Purge(ctx)
	if err != nil {
		logrus.Warnf("[SCHEDULER] Cache purge failed: %v", err)
		return
	}
	if removed > 0 {
		logrus.Debugf("[SCHEDULER] Purged %d expired cache entries", removed)
	}
}

// channelReset renumbers all active channels from scratch per the
// configured numbering mode.
func (s *Scheduler) channelReset() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	settings := s.loadSettings()

	var groups []models.EventGroup
	if err := s.db.WithContext(ctx).Where("enabled = ?", true).
		Order("channel_start_number asc, id asc").Find(&groups).Error; err != nil {
		logrus.Errorf("[SCHEDULER] Channel reset: loading groups failed: %v", err)
		return
	}

	external := map[int]bool{}
	if s.client != nil {
		var managed []*models.ManagedChannel
		s.db.WithContext(ctx).Where("deleted_at IS NULL").Find(&managed)
		downstream, err := s.client.OccupiedNumbers(ctx)
		if err != nil {
			logrus.Warnf("[SCHEDULER] Channel reset: downstream numbers unavailable: %v", err)
		} else {
			external = lifecycle.ExternalOccupied(downstream, managed)
		}
	}

	var bundles []lifecycle.GroupChannels
	for i := range groups {
		g := &groups[i]
		var channels []*models.ManagedChannel
		if err := s.db.WithContext(ctx).
			Where("event_epg_group_id = ? AND deleted_at IS NULL", g.ID).
			Find(&channels).Error; err != nil {
			continue
		}
		if len(channels) == 0 {
			continue
		}
		lifecycle.SortForReassignment(channels, nil, nil)
		bundles = append(bundles, lifecycle.GroupChannels{Group: g, Channels: channels})
	}

	assigned := lifecycle.AssignNumbers(settings.ChannelNumberingMode, bundles, settings.ChannelRangeStart, external)
	changed := 0
	for _, b := range bundles {
		for _, ch := range b.Channels {
			num, ok := assigned[ch.ID]
			if !ok || (ch.ChannelNumber != nil && *ch.ChannelNumber == num) {
				continue
			}
			if err := s.db.WithContext(ctx).Model(ch).Update("channel_number", num).Error; err != nil {
				continue
			}
			if s.client != nil && ch.DispatcharrChannelID != nil {
				if err := s.client.SetChannelNumber(ctx, *ch.DispatcharrChannelID, num); err != nil {
					logrus.Warnf("[SCHEDULER] Channel reset: downstream renumber failed for %d: %v", *ch.DispatcharrChannelID, err)
				}
			}
			changed++
		}
	}
	logrus.Infof("[SCHEDULER] Channel reset renumbered %d channels", changed)
}
