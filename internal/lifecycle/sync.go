package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/teamarr/teamarr/internal/dispatcharr"
	"github.com/teamarr/teamarr/internal/matching"
	"github.com/teamarr/teamarr/internal/models"
	"github.com/teamarr/teamarr/internal/services"
)

// GroupSync reconciles event groups against the downstream stream lists:
// every stream that matches a scheduled event gets a managed channel, and
// channels whose streams disappeared are torn down when the delete timing
// is stream_removed.
type GroupSync struct {
	db        *gorm.DB
	client    *dispatcharr.Client
	sports    *services.SportsDataService
	detection *services.DetectionService
	teams     *services.TeamCacheService
	manager   *Manager

	// dayNBase anchors "Day N" stream names for multi-day events.
	dayNBase time.Time
}

func NewGroupSync(db *gorm.DB, client *dispatcharr.Client, sports *services.SportsDataService, detection *services.DetectionService, teams *services.TeamCacheService, manager *Manager, dayNBase time.Time) *GroupSync {
	return &GroupSync{
		db:        db,
		client:    client,
		sports:    sports,
		detection: detection,
		teams:     teams,
		manager:   manager,
		dayNBase:  dayNBase,
	}
}

// SyncStats summarizes one reconciliation pass.
type SyncStats struct {
	Groups          int               `json:"groups"`
	StreamsSeen     int               `json:"streams_seen"`
	Matched         int               `json:"matched"`
	ChannelsCreated int               `json:"channels_created"`
	ChannelsRemoved int               `json:"channels_removed"`
	GroupErrors     map[string]string `json:"group_errors,omitempty"`
}

// Sync runs one pass over all enabled groups. A failing group is recorded
// and skipped; the rest still sync.
func (s *GroupSync) Sync(ctx context.Context, now time.Time) (*SyncStats, error) {
	if s.client == nil {
		return &SyncStats{}, nil
	}
	var settings models.Settings
	if err := s.db.WithContext(ctx).FirstOrCreate(&settings, models.Settings{ID: 1}).Error; err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	loc, err := time.LoadLocation(settings.EPGTimezone)
	if err != nil {
		loc = time.UTC
	}

	var groups []models.EventGroup
	if err := s.db.WithContext(ctx).Where("enabled = ?", true).Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("loading groups: %w", err)
	}

	matcher := matching.NewMatcher(s.detection)
	matcher.SetDayNBase(s.dayNBase)
	matcher.SetAliases(s.loadAliases(ctx))

	activeDay := time.Date(now.In(loc).Year(), now.In(loc).Month(), now.In(loc).Day(), 0, 0, 0, 0, time.UTC)
	stats := &SyncStats{Groups: len(groups), GroupErrors: map[string]string{}}

	// seen spans the whole pass so consolidate handling dedupes an event
	// across groups, not just within one.
	seen := map[string]bool{}
	for i := range groups {
		g := &groups[i]
		if err := s.syncGroup(ctx, g, &settings, loc, matcher, activeDay, seen, stats); err != nil {
			logrus.Errorf("[SYNC] Group %s failed: %v", g.Name, err)
			stats.GroupErrors[g.Name] = err.Error()
		}
	}

	s.assignMissingNumbers(ctx, &settings, groups)
	return stats, nil
}

func (s *GroupSync) loadAliases(ctx context.Context) map[string]string {
	var rows []models.TeamAlias
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		logrus.Warnf("[SYNC] Could not load team aliases: %v", err)
		return nil
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Alias] = r.TeamName
	}
	return out
}

// searchLeagues resolves the candidate leagues for a group.
func searchLeagues(g *models.EventGroup) []string {
	switch {
	case g.ParentGroupID != nil && len(g.ResolvedLeagues) > 0:
		return g.ResolvedLeagues
	case g.LeagueMode == "single" && g.League != "":
		return []string{g.League}
	default:
		return g.IncludeLeagues
	}
}

func (s *GroupSync) syncGroup(ctx context.Context, g *models.EventGroup, settings *models.Settings, loc *time.Location, matcher *matching.Matcher, activeDay time.Time, seen map[string]bool, stats *SyncStats) error {
	multi := g.LeagueMode == "multi"
	leagues := searchLeagues(g)
	if len(leagues) == 0 && !multi {
		logrus.Debugf("[SYNC] Group %s has no resolved leagues, skipping", g.Name)
		return nil
	}

	streams, err := s.client.ListStreams(ctx, g.Name)
	if err != nil {
		return fmt.Errorf("listing streams: %w", err)
	}
	stats.StreamsSeen += len(streams)

	// Scoreboards are fetched lazily per league and shared across streams.
	byLeague := map[string][]models.EnrichedEvent{}
	eventsFor := func(searchSet []string) []models.EnrichedEvent {
		var out []models.EnrichedEvent
		for _, league := range searchSet {
			evs, ok := byLeague[league]
			if !ok {
				var err error
				evs, err = s.sports.GetEvents(ctx, league, activeDay)
				if err != nil {
					logrus.Warnf("[SYNC] Scoreboard for %s unavailable: %v", league, err)
					evs = nil
				}
				byLeague[league] = evs
			}
			out = append(out, evs...)
		}
		return out
	}

	for _, st := range streams {
		if g.M3UGroupID != nil && (st.ChannelGroup == nil || *st.ChannelGroup != *g.M3UGroupID) {
			continue
		}
		// Multi-league groups narrow the search set per stream before
		// fetching; include_leagues still filters the final match.
		streamLeagues := leagues
		if multi {
			if narrowed := s.narrowLeagues(ctx, st.Name); len(narrowed) > 0 {
				streamLeagues = narrowed
			}
		}
		if len(streamLeagues) == 0 {
			continue
		}
		scope := matching.Scope{SearchLeagues: streamLeagues}
		if multi {
			scope.IncludeLeagues = g.IncludeLeagues
		}
		result := matcher.Match(st.Name, eventsFor(streamLeagues), activeDay, scope)
		if result == nil {
			continue
		}
		stats.Matched++
		keyword, behavior := s.detection.CheckException(st.Name)
		if behavior == services.ExceptionIgnore {
			logrus.Debugf("[SYNC] Stream %q ignored by exception keyword %q", st.Name, keyword)
			continue
		}
		key := DuplicateKey(settings.DefaultDuplicateEventHandling, g.ID, result.Event.ID, keyword)
		if seen[key] {
			s.attachStream(ctx, g, result.Event, keyword, st)
			continue
		}
		seen[key] = true
		created, err := s.ensureChannel(ctx, g, settings, loc, result, keyword, st)
		if err != nil {
			logrus.Warnf("[SYNC] Channel for %q failed: %v", st.Name, err)
			continue
		}
		if created {
			stats.ChannelsCreated++
		}
	}

	removed, err := s.removeOrphans(ctx, g, settings, streams)
	if err != nil {
		return err
	}
	stats.ChannelsRemoved += removed
	return nil
}

// narrowLeagues narrows a multi-league group's search set for one stream:
// an explicit league hint wins, then the team-league reverse index looked
// up with the two names around the separator, then a sport hint. Combat
// streams skip the team lookup since fighter names are not teams. Nil
// means no narrowing.
func (s *GroupSync) narrowLeagues(ctx context.Context, streamName string) []string {
	if hinted := s.detection.DetectLeagues(streamName); len(hinted) > 0 {
		return hinted
	}
	if s.teams == nil {
		return nil
	}
	if !s.detection.IsCombatSport(streamName) {
		if candidates := s.candidateLeagues(ctx, streamName); len(candidates) > 0 {
			return candidates
		}
	}
	if sport := s.detection.DetectSport(streamName); sport != "" {
		leagues, err := s.teams.LeaguesForSport(ctx, sport)
		if err == nil && len(leagues) > 0 {
			return leagues
		}
	}
	return nil
}

func (s *GroupSync) candidateLeagues(ctx context.Context, streamName string) []string {
	sep, pos := s.detection.FindSeparator(streamName)
	if pos < 0 {
		return nil
	}
	left := matching.Normalize(streamName[:pos])
	right := matching.Normalize(streamName[pos+len(sep):])
	if left == "" || right == "" {
		return nil
	}
	candidates, err := s.teams.CandidateLeagues(ctx, left, right)
	if err != nil {
		logrus.Debugf("[SYNC] Candidate league lookup for %q failed: %v", streamName, err)
		return nil
	}
	return candidates
}

// channelStart picks the instant a channel's schedule anchors on. A stream
// carrying only the main card starts at the main card, not the prelims.
func channelStart(ev *models.EnrichedEvent, metadata map[string]string) time.Time {
	if metadata["card_segment"] == "main_card" && ev.MainCardStart != nil {
		return *ev.MainCardStart
	}
	return ev.StartTime
}

// ensureChannel creates the managed row for a matched event if absent,
// and records the stream either way. A non-empty exception keyword creates
// a variant row alongside the main channel. Reports whether a row was
// created.
func (s *GroupSync) ensureChannel(ctx context.Context, g *models.EventGroup, settings *models.Settings, loc *time.Location, result *matching.Result, keyword string, st dispatcharr.Stream) (bool, error) {
	ev := result.Event
	var existing models.ManagedChannel
	err := s.db.WithContext(ctx).
		Where("event_epg_group_id = ? AND event_id = ? AND exception_keyword = ? AND deleted_at IS NULL", g.ID, ev.ID, keyword).
		First(&existing).Error
	if err == nil {
		s.recordStream(ctx, &existing, g, st)
		return false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return false, err
	}

	name := ev.Name
	if name == "" {
		name = fmt.Sprintf("%s @ %s", ev.AwayTeam.Name, ev.HomeTeam.Name)
	}
	tvgID := "teamarr-event-" + ev.ID
	if ev.ID == "" {
		tvgID = "teamarr-event-" + uuid.NewString()
	}
	if keyword != "" {
		name = fmt.Sprintf("%s (%s)", name, strings.ToUpper(keyword[:1])+keyword[1:])
		tvgID += "-" + strings.ReplaceAll(keyword, " ", "-")
	}
	start := channelStart(ev, result.Metadata)
	row := models.ManagedChannel{
		EventEPGGroupID:   g.ID,
		EventID:           ev.ID,
		EventProvider:     ev.Provider,
		EventName:         name,
		League:            ev.League,
		Sport:             ev.Sport,
		TvgID:             tvgID,
		ChannelName:       name,
		ExceptionKeyword:  keyword,
		LogoURL:           ev.HomeTeam.LogoURL,
		ChannelGroupID:    g.ChannelGroupID,
		StreamProfileID:   g.StreamProfileID,
		ChannelProfileIDs: g.ChannelProfileIDs,
		EventStartTime:    &start,
	}
	duration := settings.GameDurationFor(ev.Sport, "sport", 0)
	eventEnd := start.Add(time.Duration(duration * float64(time.Hour)))
	s.manager.Schedule(&row, settings, loc, eventEnd)

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return false, err
	}
	s.recordStream(ctx, &row, g, st)
	logrus.Infof("[SYNC] Channel queued for %s (%s)", name, ev.League)
	return true, nil
}

func (s *GroupSync) attachStream(ctx context.Context, g *models.EventGroup, ev *models.EnrichedEvent, keyword string, st dispatcharr.Stream) {
	var ch models.ManagedChannel
	err := s.db.WithContext(ctx).
		Where("event_epg_group_id = ? AND event_id = ? AND exception_keyword = ? AND deleted_at IS NULL", g.ID, ev.ID, keyword).
		First(&ch).Error
	if err != nil {
		return
	}
	s.recordStream(ctx, &ch, g, st)
}

// recordStream appends the stream to the channel if not already tracked.
func (s *GroupSync) recordStream(ctx context.Context, ch *models.ManagedChannel, g *models.EventGroup, st dispatcharr.Stream) {
	var count int64
	s.db.WithContext(ctx).Model(&models.ManagedChannelStream{}).
		Where("managed_channel_id = ? AND dispatcharr_stream_id = ?", ch.ID, st.ID).
		Count(&count)
	if count > 0 {
		return
	}
	var maxPriority int
	s.db.WithContext(ctx).Model(&models.ManagedChannelStream{}).
		Where("managed_channel_id = ?", ch.ID).
		Select("COALESCE(MAX(priority), 0)").Scan(&maxPriority)
	groupID := g.ID
	row := models.ManagedChannelStream{
		ManagedChannelID:    ch.ID,
		DispatcharrStreamID: st.ID,
		StreamName:          st.Name,
		Priority:            maxPriority + 1,
		SourceGroupID:       &groupID,
		M3UAccountID:        st.M3UAccount,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		logrus.Warnf("[SYNC] Recording stream %q failed: %v", st.Name, err)
	}
}

// removeOrphans tears down channels whose streams all vanished, when the
// delete timing is stream_removed.
func (s *GroupSync) removeOrphans(ctx context.Context, g *models.EventGroup, settings *models.Settings, streams []dispatcharr.Stream) (int, error) {
	if settings.ChannelDeleteTiming != models.DeleteStreamRemoved {
		return 0, nil
	}
	present := make(map[int]bool, len(streams))
	for _, st := range streams {
		present[st.ID] = true
	}

	var channels []models.ManagedChannel
	if err := s.db.WithContext(ctx).
		Where("event_epg_group_id = ? AND deleted_at IS NULL", g.ID).
		Find(&channels).Error; err != nil {
		return 0, err
	}

	removed := 0
	for i := range channels {
		ch := &channels[i]
		var rows []models.ManagedChannelStream
		if err := s.db.WithContext(ctx).
			Where("managed_channel_id = ?", ch.ID).Find(&rows).Error; err != nil {
			continue
		}
		if len(rows) == 0 {
			continue
		}
		alive := false
		for _, r := range rows {
			if present[r.DispatcharrStreamID] {
				alive = true
				break
			}
		}
		if alive {
			continue
		}
		if err := s.manager.RemoveForStream(ctx, ch); err != nil {
			logrus.Warnf("[SYNC] Removing %s failed: %v", ch.ChannelName, err)
			continue
		}
		removed++
	}
	return removed, nil
}

// assignMissingNumbers numbers any channels created this pass.
func (s *GroupSync) assignMissingNumbers(ctx context.Context, settings *models.Settings, groups []models.EventGroup) {
	external := map[int]bool{}
	var allManaged []*models.ManagedChannel
	s.db.WithContext(ctx).Where("deleted_at IS NULL").Find(&allManaged)
	if downstream, err := s.client.OccupiedNumbers(ctx); err == nil {
		external = ExternalOccupied(downstream, allManaged)
	}

	var bundles []GroupChannels
	needsNumber := false
	for i := range groups {
		g := &groups[i]
		var channels []*models.ManagedChannel
		if err := s.db.WithContext(ctx).
			Where("event_epg_group_id = ? AND deleted_at IS NULL", g.ID).
			Find(&channels).Error; err != nil || len(channels) == 0 {
			continue
		}
		SortForReassignment(channels, nil, nil)
		bundles = append(bundles, GroupChannels{Group: g, Channels: channels})
		for _, ch := range channels {
			if ch.ChannelNumber == nil {
				needsNumber = true
			}
		}
	}
	if !needsNumber {
		return
	}

	assigned := AssignNumbers(settings.ChannelNumberingMode, bundles, settings.ChannelRangeStart, external)
	for _, b := range bundles {
		for _, ch := range b.Channels {
			if ch.ChannelNumber != nil {
				continue
			}
			num, ok := assigned[ch.ID]
			if !ok {
				continue
			}
			if err := s.db.WithContext(ctx).Model(ch).Update("channel_number", num).Error; err != nil {
				logrus.Warnf("[SYNC] Numbering %s failed: %v", ch.ChannelName, err)
			}
		}
	}
}
