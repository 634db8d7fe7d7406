package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/teamarr/teamarr/internal/cache"
	"github.com/teamarr/teamarr/internal/models"
	"github.com/teamarr/teamarr/internal/providers"
)

// fakeProvider returns canned payloads and counts calls.
type fakeProvider struct {
	name          string
	events        []models.EnrichedEvent
	schedule      []models.EnrichedEvent
	err           error
	eventCalls    int
	scheduleCalls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) SupportsLeague(league string) bool { return true }

func (f *fakeProvider) IsPremium() bool { return true }

func (f *fakeProvider) GetEvents(ctx context.Context, league string, date time.Time) ([]models.EnrichedEvent, error) {
	f.eventCalls++
	return f.events, f.err
}

func (f *fakeProvider) GetTeamSchedule(ctx context.Context, teamID, league string, daysAhead int) ([]models.EnrichedEvent, error) {
	f.scheduleCalls++
	return f.schedule, f.err
}

func (f *fakeProvider) GetTeam(ctx context.Context, teamID, league string) (*models.Team, error) {
	return nil, nil
}

func (f *fakeProvider) GetEvent(ctx context.Context, eventID, league string) (*models.EnrichedEvent, error) {
	return nil, nil
}

func (f *fakeProvider) GetTeamStats(ctx context.Context, teamID, league string) (*models.TeamStats, error) {
	return nil, nil
}

func (f *fakeProvider) GetHeadCoach(ctx context.Context, teamID, league string) (string, error) {
	return "", nil
}

func testCache(t *testing.T) *cache.Cache {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CacheEntry{}))
	return cache.New(db, nil)
}

func sportsFixture(t *testing.T, primary, fallback *fakeProvider) *SportsDataService {
	t.Helper()
	registry := providers.NewRegistry()
	registry.Register(providers.ProviderConfig{
		Name: primary.name, Priority: 1, Enabled: true,
		Factory: func(providers.LeagueMappingSource) providers.SportsProvider { return primary },
	})
	registry.Register(providers.ProviderConfig{
		Name: fallback.name, Priority: 2, Enabled: true,
		Factory: func(providers.LeagueMappingSource) providers.SportsProvider { return fallback },
	})
	return NewSportsDataService(registry, testCache(t), time.UTC)
}

func nhlGame(id string) models.EnrichedEvent {
	return models.EnrichedEvent{Event: models.Event{ID: id, League: "nhl", Sport: "hockey"}}
}

func TestGetEventsFallsThroughEmptyProvider(t *testing.T) {
	primary := &fakeProvider{name: "primary"}
	fallback := &fakeProvider{name: "fallback", events: []models.EnrichedEvent{nhlGame("401")}}
	svc := sportsFixture(t, primary, fallback)

	events, err := svc.GetEvents(context.Background(), "nhl", time.Now())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "401", events[0].ID)
	assert.Equal(t, 1, primary.eventCalls)
	assert.Equal(t, 1, fallback.eventCalls)

	// Non-empty results are cached, so a second read skips providers.
	events, err = svc.GetEvents(context.Background(), "nhl", time.Now())
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 1, primary.eventCalls)
	assert.Equal(t, 1, fallback.eventCalls)
}

func TestGetEventsEmptyDayNotCached(t *testing.T) {
	primary := &fakeProvider{name: "primary"}
	fallback := &fakeProvider{name: "fallback"}
	svc := sportsFixture(t, primary, fallback)

	events, err := svc.GetEvents(context.Background(), "nhl", time.Now())
	require.NoError(t, err)
	assert.Empty(t, events)

	// The empty day was not cached, so the next read asks again.
	_, err = svc.GetEvents(context.Background(), "nhl", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, primary.eventCalls)
	assert.Equal(t, 2, fallback.eventCalls)
}

func TestGetTeamScheduleFallsThroughEmptyProvider(t *testing.T) {
	primary := &fakeProvider{name: "primary"}
	fallback := &fakeProvider{name: "fallback", schedule: []models.EnrichedEvent{nhlGame("402")}}
	svc := sportsFixture(t, primary, fallback)

	schedule, err := svc.GetTeamSchedule(context.Background(), "17", "nhl", 14)
	require.NoError(t, err)
	require.Len(t, schedule, 1)
	assert.Equal(t, "402", schedule[0].ID)
	assert.Equal(t, 1, primary.scheduleCalls)
	assert.Equal(t, 1, fallback.scheduleCalls)
}
