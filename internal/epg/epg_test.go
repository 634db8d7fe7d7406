package epg

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamarr/teamarr/internal/models"
)

func intPtr(n int) *int { return &n }

func utc(day, hour int) time.Time {
	return time.Date(2026, 2, day, hour, 0, 0, 0, time.UTC)
}

func TestChunkGapsSingleGameDay(t *testing.T) {
	games := []Interval{{Start: utc(10, 19), End: utc(10, 22)}}
	chunks := ChunkGaps(games, utc(10, 0), utc(11, 0), time.UTC, "idle")

	require.Len(t, chunks, 5)
	// 00-06, 06-12, 12-18, 18-19 lead up to the game.
	for _, c := range chunks[:4] {
		assert.Equal(t, models.FillerPregame, c.Type)
	}
	assert.Equal(t, utc(10, 18), chunks[3].Start)
	assert.Equal(t, utc(10, 19), chunks[3].End)
	// 22-24 follows it.
	assert.Equal(t, models.FillerPostgame, chunks[4].Type)
	assert.Equal(t, utc(10, 22), chunks[4].Start)
	assert.Equal(t, utc(11, 0), chunks[4].End)
}

func TestChunkGapsIdleDay(t *testing.T) {
	chunks := ChunkGaps(nil, utc(10, 0), utc(11, 0), time.UTC, "idle")
	require.Len(t, chunks, 4)
	for _, c := range chunks {
		assert.Equal(t, models.FillerIdle, c.Type)
		assert.Equal(t, 6*time.Hour, c.End.Sub(c.Start))
	}
}

func TestChunkGapsMidnightCrossover(t *testing.T) {
	games := []Interval{{
		Start: utc(10, 22),
		End:   time.Date(2026, 2, 11, 1, 30, 0, 0, time.UTC),
	}}

	chunks := ChunkGaps(games, utc(10, 0), utc(12, 0), time.UTC, "postgame")
	var afterGame []FillerChunk
	for _, c := range chunks {
		if !c.Start.Before(games[0].End) && c.Start.Day() == 11 {
			afterGame = append(afterGame, c)
		}
	}
	require.NotEmpty(t, afterGame)
	assert.Equal(t, models.FillerPostgame, afterGame[0].Type)

	chunks = ChunkGaps(games, utc(10, 0), utc(12, 0), time.UTC, "idle")
	for _, c := range chunks {
		if c.Start.Equal(games[0].End) {
			assert.Equal(t, models.FillerIdle, c.Type)
		}
	}
}

func gameAt(id string, start time.Time, home, away models.Team, homeScore, awayScore *int, final bool) models.EnrichedEvent {
	status := models.EventStatus{State: models.StateScheduled}
	if final {
		status.State = models.StateFinal
	}
	return models.EnrichedEvent{Event: models.Event{
		ID: id, Name: away.Name + " at " + home.Name,
		StartTime: start, HomeTeam: home, AwayTeam: away,
		HomeScore: homeScore, AwayScore: awayScore, Status: status,
		Venue: &models.Venue{Name: "Test Arena"},
	}}
}

func TestContextBuilder(t *testing.T) {
	det := models.Team{ID: "5", Name: "Detroit Red Wings", Abbreviation: "DET"}
	bos := models.Team{ID: "1", Name: "Boston Bruins", Abbreviation: "BOS"}
	chi := models.Team{ID: "4", Name: "Chicago Blackhawks", Abbreviation: "CHI"}

	extended := []models.EnrichedEvent{
		gameAt("1", time.Date(2026, 1, 20, 19, 0, 0, 0, time.UTC), det, bos, intPtr(4), intPtr(2), true),
		gameAt("2", time.Date(2026, 2, 1, 19, 0, 0, 0, time.UTC), chi, det, intPtr(3), intPtr(1), true),
		gameAt("3", time.Date(2026, 2, 10, 19, 0, 0, 0, time.UTC), det, bos, nil, nil, false),
	}
	b := NewContextBuilder("5", "Detroit Red Wings", "hockey", extended)

	current, next, last := b.Contexts(&extended[2])
	require.NotNil(t, current)
	assert.True(t, current.IsHome)
	assert.Equal(t, "Boston Bruins", current.OpponentSide.Name)
	assert.Nil(t, next)
	require.NotNil(t, last)
	assert.Equal(t, "2", last.Event.ID)

	// One prior meeting with Boston, a win.
	assert.Equal(t, 1, current.H2H.TeamWins)
	assert.Equal(t, 0, current.H2H.OpponentWins)
	assert.Equal(t, "Win", current.H2H.PreviousResult)
	assert.Equal(t, "4-2", current.H2H.PreviousScore)
	assert.Equal(t, "Jan 20", current.H2H.PreviousDate)
	assert.True(t, current.H2H.HasMeetings())

	// No prior meetings with Chicago at the time of game 2.
	mid, _, _ := b.Contexts(&extended[1])
	assert.False(t, mid.H2H.HasMeetings())

	assert.Equal(t, "W1", current.Streaks.HomeStreak)
	assert.Equal(t, "L1", current.Streaks.AwayStreak)
	assert.Equal(t, "", current.Streaks.Last5Record)
}

func TestSoccerRecordIncludesDraws(t *testing.T) {
	ars := models.Team{ID: "359", Name: "Arsenal", Abbreviation: "ARS"}
	che := models.Team{ID: "363", Name: "Chelsea", Abbreviation: "CHE"}

	extended := []models.EnrichedEvent{
		gameAt("1", time.Date(2026, 1, 3, 15, 0, 0, 0, time.UTC), ars, che, intPtr(2), intPtr(0), true),
		gameAt("2", time.Date(2026, 1, 10, 15, 0, 0, 0, time.UTC), ars, che, intPtr(3), intPtr(1), true),
		gameAt("3", time.Date(2026, 1, 17, 15, 0, 0, 0, time.UTC), ars, che, intPtr(1), intPtr(1), true),
		gameAt("4", time.Date(2026, 1, 24, 15, 0, 0, 0, time.UTC), che, ars, intPtr(2), intPtr(0), true),
		gameAt("5", time.Date(2026, 1, 31, 15, 0, 0, 0, time.UTC), che, ars, intPtr(3), intPtr(1), true),
		gameAt("6", time.Date(2026, 2, 7, 15, 0, 0, 0, time.UTC), ars, che, nil, nil, false),
	}

	soccer := NewContextBuilder("359", "Arsenal", "soccer", extended)
	current, _, _ := soccer.Contexts(&extended[5])
	require.NotNil(t, current)
	assert.Equal(t, "2-1-2", current.Streaks.Last5Record)

	// Sports without draws keep the two-part form.
	hockey := NewContextBuilder("359", "Arsenal", "hockey", extended)
	current, _, _ = hockey.Contexts(&extended[5])
	require.NotNil(t, current)
	assert.Equal(t, "2-2", current.Streaks.Last5Record)
}

func TestFillerContextsPicksStartedGameAsLast(t *testing.T) {
	det := models.Team{ID: "5", Name: "Detroit Red Wings", Abbreviation: "DET"}
	bos := models.Team{ID: "1", Name: "Boston Bruins", Abbreviation: "BOS"}

	// Started but not marked final: still the "last" game.
	inProgress := gameAt("1", utc(10, 19), det, bos, nil, nil, false)
	upcoming := gameAt("2", utc(12, 19), bos, det, nil, nil, false)
	b := NewContextBuilder("5", "Detroit Red Wings", "hockey",
		[]models.EnrichedEvent{inProgress, upcoming})

	next, last := b.FillerContexts(utc(10, 23))
	require.NotNil(t, last)
	assert.Equal(t, "1", last.Event.ID)
	require.NotNil(t, next)
	assert.Equal(t, "2", next.Event.ID)
	assert.False(t, next.IsHome)
}

func TestFilterWindowClamps(t *testing.T) {
	programmes := []models.ProcessedProgramme{
		{StartDatetime: utc(9, 22), EndDatetime: utc(10, 2), Title: "straddles start"},
		{StartDatetime: utc(10, 12), EndDatetime: utc(10, 15), Title: "inside"},
		{StartDatetime: utc(12, 1), EndDatetime: utc(12, 4), Title: "outside"},
	}
	out := FilterWindow(programmes, utc(10, 0), utc(11, 0))
	require.Len(t, out, 2)
	assert.Equal(t, utc(10, 0), out[0].StartDatetime)
	assert.Equal(t, "inside", out[1].Title)
}

func TestWriteXMLTV(t *testing.T) {
	listings := []ChannelListing{{
		TvgID:   "DetroitRedWings.teamarr",
		Name:    "Detroit Red Wings",
		LogoURL: "https://example.com/logo.png",
		Programmes: []models.ProcessedProgramme{{
			StartDatetime: utc(10, 19),
			EndDatetime:   utc(10, 22),
			Title:         "Red Wings vs Bruins",
			Description:   "Hockey night",
			Variables:     map[string]string{"gracenote_category": "NHL Hockey"},
		}},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteXMLTV(&buf, listings))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, xmlHeaderPrefix))
	assert.Contains(t, out, `<channel id="DetroitRedWings.teamarr">`)
	assert.Contains(t, out, `start="20260210190000 +0000"`)
	assert.Contains(t, out, `stop="20260210220000 +0000"`)
	assert.Contains(t, out, "<title>Red Wings vs Bruins</title>")
	assert.Contains(t, out, "<category>NHL Hockey</category>")
	assert.Contains(t, out, `src="https://example.com/logo.png"`)
}

const xmlHeaderPrefix = `<?xml version="1.0" encoding="UTF-8"?>`
