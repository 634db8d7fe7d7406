package lifecycle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/teamarr/teamarr/internal/cache"
	"github.com/teamarr/teamarr/internal/dispatcharr"
	"github.com/teamarr/teamarr/internal/models"
	"github.com/teamarr/teamarr/internal/providers"
	"github.com/teamarr/teamarr/internal/services"
)

func syncDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Settings{},
		&models.EventGroup{},
		&models.ManagedChannel{},
		&models.ManagedChannelStream{},
		&models.ChannelHistory{},
		&models.TeamAlias{},
		&models.DetectionKeyword{},
		&models.CacheEntry{},
	))
	return db
}

// scoreboardProvider serves one fixed scoreboard for every league.
type scoreboardProvider struct {
	events []models.EnrichedEvent
}

func (p *scoreboardProvider) Name() string { return "scoreboard" }

func (p *scoreboardProvider) SupportsLeague(string) bool { return true }

func (p *scoreboardProvider) IsPremium() bool { return true }

func (p *scoreboardProvider) GetEvents(context.Context, string, time.Time) ([]models.EnrichedEvent, error) {
	return p.events, nil
}

func (p *scoreboardProvider) GetTeamSchedule(context.Context, string, string, int) ([]models.EnrichedEvent, error) {
	return nil, nil
}

func (p *scoreboardProvider) GetTeam(context.Context, string, string) (*models.Team, error) {
	return nil, nil
}

func (p *scoreboardProvider) GetEvent(context.Context, string, string) (*models.EnrichedEvent, error) {
	return nil, nil
}

func (p *scoreboardProvider) GetTeamStats(context.Context, string, string) (*models.TeamStats, error) {
	return nil, nil
}

func (p *scoreboardProvider) GetHeadCoach(context.Context, string, string) (string, error) {
	return "", nil
}

func scoreboardService(t *testing.T, db *gorm.DB, events []models.EnrichedEvent) *services.SportsDataService {
	t.Helper()
	registry := providers.NewRegistry()
	registry.Register(providers.ProviderConfig{
		Name: "scoreboard", Priority: 1, Enabled: true,
		Factory: func(providers.LeagueMappingSource) providers.SportsProvider {
			return &scoreboardProvider{events: events}
		},
	})
	return services.NewSportsDataService(registry, cache.New(db, nil), time.UTC)
}

// stubDownstream answers the auth and stream-list endpoints the sync pass
// touches.
func stubDownstream(t *testing.T, streamsByGroup map[string][]dispatcharr.Stream) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/accounts/token/", func(w http.ResponseWriter, r *http.Request) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte("sync-test"))
		require.NoError(t, err)
		json.NewEncoder(w).Encode(map[string]string{"access": signed, "refresh": "r"})
	})
	mux.HandleFunc("/api/channels/streams/", func(w http.ResponseWriter, r *http.Request) {
		streams := streamsByGroup[r.URL.Query().Get("channel_group")]
		if streams == nil {
			streams = []dispatcharr.Stream{}
		}
		json.NewEncoder(w).Encode(streams)
	})
	mux.HandleFunc("/api/channels/channels/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]dispatcharr.Channel{})
	})
	return httptest.NewServer(mux)
}

func syncSettings(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&models.Settings{
		ID:                            1,
		EPGTimezone:                   "UTC",
		DefaultDuplicateEventHandling: "consolidate",
		ChannelDeleteTiming:           "day_after",
		ChannelNumberingMode:          "strict_block",
		ChannelRangeStart:             100,
	}).Error)
}

func wingsGame(day time.Time) models.EnrichedEvent {
	return models.EnrichedEvent{Event: models.Event{
		ID:        "401559000",
		Name:      "Chicago Blackhawks at Detroit Red Wings",
		StartTime: day.Add(19 * time.Hour),
		League:    "nhl",
		Sport:     "hockey",
		HomeTeam:  models.Team{ID: "17", Name: "Detroit Red Wings", Abbreviation: "DET"},
		AwayTeam:  models.Team{ID: "4", Name: "Chicago Blackhawks", Abbreviation: "CHI"},
	}}
}

func TestNarrowLeagues(t *testing.T) {
	db := syncDB(t)
	require.NoError(t, db.AutoMigrate(&models.CachedTeamLeague{}))
	for _, row := range []models.CachedTeamLeague{
		{Provider: "espn", TeamID: "359", League: "eng.1", Sport: "soccer", TeamName: "Arsenal"},
		{Provider: "espn", TeamID: "363", League: "eng.1", Sport: "soccer", TeamName: "Chelsea"},
		{Provider: "espn", TeamID: "359", League: "uefa.champions", Sport: "soccer", TeamName: "Arsenal"},
		{Provider: "espn", TeamID: "17", League: "nhl", Sport: "hockey", TeamName: "Detroit Red Wings"},
	} {
		require.NoError(t, db.Create(&row).Error)
	}

	sync := NewGroupSync(db, nil, nil, services.NewDetectionService(db),
		services.NewTeamCacheService(db, nil, nil), nil, time.Time{})
	ctx := context.Background()

	// An explicit league hint short-circuits everything else.
	assert.Equal(t, []string{"eng.1"}, sync.narrowLeagues(ctx, "EPL: Arsenal vs Chelsea"))

	// Without a hint the team-league index narrows to shared leagues.
	assert.Equal(t, []string{"eng.1"}, sync.narrowLeagues(ctx, "Arsenal vs Chelsea"))

	// A sport hint alone narrows to that sport's known leagues.
	assert.Equal(t, []string{"nhl"}, sync.narrowLeagues(ctx, "Hockey Night: Game 1"))

	// Nothing recognizable means no narrowing.
	assert.Nil(t, sync.narrowLeagues(ctx, "Channel One"))
}

func TestSyncConsolidatesAcrossGroups(t *testing.T) {
	db := syncDB(t)
	syncSettings(t, db)
	require.NoError(t, db.Create(&models.EventGroup{Name: "NHL East", Enabled: true, LeagueMode: "single", League: "nhl"}).Error)
	require.NoError(t, db.Create(&models.EventGroup{Name: "NHL West", Enabled: true, LeagueMode: "single", League: "nhl"}).Error)

	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	server := stubDownstream(t, map[string][]dispatcharr.Stream{
		"NHL East": {{ID: 1, Name: "Detroit Red Wings vs Chicago Blackhawks"}},
		"NHL West": {{ID: 2, Name: "Detroit Red Wings vs Chicago Blackhawks HD"}},
	})
	defer server.Close()

	client := dispatcharr.NewClient(server.URL, "u", "p", 5*time.Second)
	sports := scoreboardService(t, db, []models.EnrichedEvent{wingsGame(day)})
	detection := services.NewDetectionService(db)
	manager := NewManager(db, nil)

	sync := NewGroupSync(db, client, sports, detection, nil, manager, day)
	stats, err := sync.Sync(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Matched)
	assert.Equal(t, 1, stats.ChannelsCreated)

	// Consolidate dedupes the event across groups: one channel total.
	var count int64
	db.Model(&models.ManagedChannel{}).Where("deleted_at IS NULL").Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestSyncCreatesKeywordVariants(t *testing.T) {
	db := syncDB(t)
	syncSettings(t, db)
	require.NoError(t, db.Create(&models.EventGroup{Name: "NHL", Enabled: true, LeagueMode: "single", League: "nhl"}).Error)
	require.NoError(t, db.Create(&models.DetectionKeyword{
		Category: services.CategoryExceptions, Keyword: "spanish", TargetValue: services.ExceptionSplit, Enabled: true,
	}).Error)
	require.NoError(t, db.Create(&models.DetectionKeyword{
		Category: services.CategoryExceptions, Keyword: "backup feed", TargetValue: services.ExceptionIgnore, Enabled: true,
	}).Error)

	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	server := stubDownstream(t, map[string][]dispatcharr.Stream{
		"NHL": {
			{ID: 1, Name: "Detroit Red Wings vs Chicago Blackhawks"},
			{ID: 2, Name: "Detroit Red Wings vs Chicago Blackhawks (Spanish)"},
			{ID: 3, Name: "Detroit Red Wings vs Chicago Blackhawks backup feed"},
		},
	})
	defer server.Close()

	client := dispatcharr.NewClient(server.URL, "u", "p", 5*time.Second)
	sports := scoreboardService(t, db, []models.EnrichedEvent{wingsGame(day)})
	detection := services.NewDetectionService(db)
	manager := NewManager(db, nil)

	sync := NewGroupSync(db, client, sports, detection, nil, manager, day)
	_, err := sync.Sync(context.Background(), now)
	require.NoError(t, err)

	var channels []models.ManagedChannel
	require.NoError(t, db.Where("deleted_at IS NULL").Order("exception_keyword").Find(&channels).Error)
	require.Len(t, channels, 2)
	assert.Equal(t, "", channels[0].ExceptionKeyword)
	assert.Equal(t, "spanish", channels[1].ExceptionKeyword)
	assert.Contains(t, channels[1].ChannelName, "(Spanish)")
	assert.NotEqual(t, channels[0].TvgID, channels[1].TvgID)

	// The ignore-keyword stream never produced a channel or a stream row.
	var rows []models.ManagedChannelStream
	require.NoError(t, db.Find(&rows).Error)
	for _, r := range rows {
		assert.NotEqual(t, 3, r.DispatcharrStreamID)
	}
}
