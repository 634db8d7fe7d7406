package goldzone

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGoldZoneStream(t *testing.T) {
	assert.True(t, IsGoldZoneStream("NBC Gold Zone HD"))
	assert.True(t, IsGoldZoneStream("GOLDZONE Feed 1"))
	assert.True(t, IsGoldZoneStream("Peacock Gold-Zone"))
	assert.False(t, IsGoldZoneStream("Golden State Warriors"))
	assert.False(t, IsGoldZoneStream("Zone Coverage Podcast"))
}

func TestActiveDayRollover(t *testing.T) {
	// 04:59 UTC still belongs to the previous broadcast day.
	early := time.Date(2026, 2, 11, 4, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), ActiveDay(early))

	after := time.Date(2026, 2, 11, 5, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC), ActiveDay(after))
}

func TestDayNDate(t *testing.T) {
	assert.Equal(t, time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC), DayNDate(1))
	assert.Equal(t, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), DayNDate(4))
}

func TestParseExternalGuide(t *testing.T) {
	feed := `<?xml version="1.0"?>
<tv>
  <programme start="20260210120000 +0000" stop="20260210180000 +0000" channel="GoldZone.us">
    <title>Gold Zone Day 4</title>
    <desc>Whip-around coverage</desc>
  </programme>
  <programme start="20260215120000 +0000" stop="20260215180000 +0000" channel="GoldZone.us">
    <title>Out of window</title>
  </programme>
  <programme start="20260210120000 +0000" stop="20260210180000 +0000" channel="SomeOther.us">
    <title>Wrong channel</title>
  </programme>
</tv>`

	start := time.Date(2026, 2, 10, 5, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)
	got, err := ParseExternalGuide(strings.NewReader(feed), TvgID, start, end)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Gold Zone Day 4", got[0].Title)
	assert.Equal(t, "Whip-around coverage", got[0].Description)
	assert.Equal(t, time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC), got[0].StartDatetime)
}
