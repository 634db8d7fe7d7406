package providers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProvider() *ESPNProvider {
	return NewESPNProvider(NewStaticLeagueMap(), 10, 5*time.Second, 1)
}

func TestConvertEventVenueAndSides(t *testing.T) {
	var comp espnCompetition
	require.NoError(t, json.Unmarshal([]byte(`{
		"venue": {
			"fullName": "Little Caesars Arena",
			"address": {"city": "Detroit", "state": "MI", "country": "USA"}
		},
		"competitors": [
			{"homeAway": "home", "team": {"id": "17", "displayName": "Detroit Red Wings", "abbreviation": "DET"}, "score": "4"},
			{"homeAway": "away", "team": {"id": "4", "displayName": "Chicago Blackhawks", "abbreviation": "CHI"}, "score": "2"}
		]
	}`), &comp))

	raw := espnEvent{
		ID:           "401559000",
		Date:         "2026-02-11T00:00Z",
		Name:         "Chicago Blackhawks at Detroit Red Wings",
		ShortName:    "CHI @ DET",
		Competitions: []espnCompetition{comp},
	}

	ev, err := testProvider().convertEvent(raw, "nhl", "hockey")
	require.NoError(t, err)

	require.NotNil(t, ev.Venue)
	assert.Equal(t, "Little Caesars Arena", ev.Venue.Name)
	assert.Equal(t, "Detroit", ev.Venue.City)
	assert.Equal(t, "MI", ev.Venue.State)
	assert.Equal(t, "USA", ev.Venue.Country)

	assert.Equal(t, "DET", ev.HomeTeam.Abbreviation)
	assert.Equal(t, "CHI", ev.AwayTeam.Abbreviation)
	require.NotNil(t, ev.HomeScore)
	assert.Equal(t, 4, *ev.HomeScore)
}

func TestConvertEventVenueOmittedWhenUnnamed(t *testing.T) {
	raw := espnEvent{
		ID:           "401559001",
		Date:         "2026-02-11T00:00Z",
		Name:         "TBD at TBD",
		Competitions: []espnCompetition{{}},
	}
	ev, err := testProvider().convertEvent(raw, "nhl", "hockey")
	require.NoError(t, err)
	assert.Nil(t, ev.Venue)
}
