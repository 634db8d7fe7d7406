package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamarr/teamarr/internal/models"
)

func chRow(id uint, keyword string, number int) *models.ManagedChannel {
	n := number
	return &models.ManagedChannel{ID: id, ExceptionKeyword: keyword, ChannelNumber: &n}
}

func TestAssignStrictBlock(t *testing.T) {
	groups := []GroupChannels{
		{
			Group:    &models.EventGroup{ID: 1, ChannelStartNumber: 100},
			Channels: []*models.ManagedChannel{{ID: 1}, {ID: 2}, {ID: 3}},
		},
		{
			Group:    &models.EventGroup{ID: 2, ChannelStartNumber: 200},
			Channels: []*models.ManagedChannel{{ID: 4}},
		},
	}
	external := map[int]bool{101: true}

	got := AssignNumbers(models.NumberingStrictBlock, groups, 0, external)
	assert.Equal(t, 100, got[1])
	// 101 is externally occupied and must be skipped.
	assert.Equal(t, 102, got[2])
	assert.Equal(t, 103, got[3])
	assert.Equal(t, 200, got[4])
}

func TestAssignStrictCompact(t *testing.T) {
	groups := []GroupChannels{
		{Group: &models.EventGroup{ID: 1}, Channels: []*models.ManagedChannel{{ID: 1}, {ID: 2}}},
		{Group: &models.EventGroup{ID: 2}, Channels: []*models.ManagedChannel{{ID: 3}}},
	}
	got := AssignNumbers(models.NumberingStrictCompact, groups, 500, map[int]bool{501: true})
	assert.Equal(t, 500, got[1])
	assert.Equal(t, 502, got[2])
	assert.Equal(t, 503, got[3])
}

func TestAssignRationalBlockAutoStart(t *testing.T) {
	groups := []GroupChannels{
		{
			Group:    &models.EventGroup{ID: 1, ChannelStartNumber: 100},
			Channels: []*models.ManagedChannel{{ID: 1}, {ID: 2}},
		},
		{
			// No configured start: next gap-aligned block after 101.
			Group:    &models.EventGroup{ID: 2},
			Channels: []*models.ManagedChannel{{ID: 3}},
		},
	}
	got := AssignNumbers(models.NumberingRationalBlock, groups, 0, nil)
	assert.Equal(t, 100, got[1])
	assert.Equal(t, 101, got[2])
	assert.Equal(t, 110, got[3])
}

func TestExternalOccupied(t *testing.T) {
	downstream := map[int]bool{100: true, 101: true, 500: true}
	managed := []*models.ManagedChannel{chRow(1, "", 100), chRow(2, "spanish", 101)}

	external := ExternalOccupied(downstream, managed)
	assert.False(t, external[100])
	assert.False(t, external[101])
	assert.True(t, external[500])

	// Without integration data the set is empty and assignment is unchanged.
	assert.Empty(t, ExternalOccupied(nil, managed))
}

func TestCreateAtTimings(t *testing.T) {
	start := time.Date(2026, 2, 10, 19, 0, 0, 0, time.UTC)

	assert.Nil(t, CreateAt(start, models.CreateStreamAvailable, time.UTC))

	sameDay := CreateAt(start, models.CreateSameDay, time.UTC)
	require.NotNil(t, sameDay)
	assert.Equal(t, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), *sameDay)

	weekBefore := CreateAt(start, models.Create1WeekBefore, time.UTC)
	require.NotNil(t, weekBefore)
	assert.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), *weekBefore)
}

func TestDeleteAtTimings(t *testing.T) {
	end := time.Date(2026, 2, 10, 22, 0, 0, 0, time.UTC)

	assert.Nil(t, DeleteAt(end, models.DeleteStreamRemoved, time.UTC))

	sixAfter := DeleteAt(end, models.Delete6HoursAfter, time.UTC)
	require.NotNil(t, sixAfter)
	assert.Equal(t, time.Date(2026, 2, 11, 4, 0, 0, 0, time.UTC), *sixAfter)

	dayAfter := DeleteAt(end, models.DeleteDayAfter, time.UTC)
	require.NotNil(t, dayAfter)
	assert.Equal(t, time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC), *dayAfter)
}

func TestDuplicateKey(t *testing.T) {
	consolidated := DuplicateKey("consolidate", 1, "401", "")
	alsoConsolidated := DuplicateKey("consolidate", 2, "401", "")
	assert.Equal(t, consolidated, alsoConsolidated)

	split := DuplicateKey("split", 1, "401", "")
	otherSplit := DuplicateKey("split", 2, "401", "")
	assert.NotEqual(t, split, otherSplit)
}

func TestSearchLeagues(t *testing.T) {
	single := &models.EventGroup{LeagueMode: "single", League: "nhl"}
	assert.Equal(t, []string{"nhl"}, searchLeagues(single))

	multi := &models.EventGroup{LeagueMode: "multi", IncludeLeagues: models.StringList{"nhl", "ahl"}}
	assert.Equal(t, []string{"nhl", "ahl"}, searchLeagues(multi))

	parent := uint(7)
	inherited := &models.EventGroup{
		LeagueMode:      "single",
		League:          "nhl",
		ParentGroupID:   &parent,
		ResolvedLeagues: models.StringList{"epl", "laliga"},
	}
	// Resolved leagues from the parent win over the group's own scope.
	assert.Equal(t, []string{"epl", "laliga"}, searchLeagues(inherited))

	assert.Empty(t, searchLeagues(&models.EventGroup{LeagueMode: "single"}))
}

func TestTargetChannel(t *testing.T) {
	main := chRow(1, "", 100)
	spanish := chRow(2, "spanish", 101)
	french := chRow(3, "french", 102)
	family := []*models.ManagedChannel{main, spanish, french}

	assert.Equal(t, spanish, targetChannel(family, "spanish"))
	assert.Equal(t, french, targetChannel(family, "French"))
	// No keyword, or a keyword with no variant channel, lands on main.
	assert.Equal(t, main, targetChannel(family, ""))
	assert.Equal(t, main, targetChannel(family, "german"))
}

func TestChannelStartUsesMainCard(t *testing.T) {
	prelims := time.Date(2026, 6, 13, 22, 0, 0, 0, time.UTC)
	mainCard := time.Date(2026, 6, 14, 2, 0, 0, 0, time.UTC)
	ev := &models.EnrichedEvent{Event: models.Event{StartTime: prelims, MainCardStart: &mainCard}}

	assert.Equal(t, mainCard, channelStart(ev, map[string]string{"card_segment": "main_card"}))
	assert.Equal(t, prelims, channelStart(ev, map[string]string{"card_segment": "prelims"}))
	assert.Equal(t, prelims, channelStart(ev, nil))

	// No published main card start falls back to the event start.
	ev.MainCardStart = nil
	assert.Equal(t, prelims, channelStart(ev, map[string]string{"card_segment": "main_card"}))
}
