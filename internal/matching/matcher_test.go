package matching

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamarr/teamarr/internal/models"
)

type fakeDetector struct{}

func (fakeDetector) EventType(text string) string {
	for _, kw := range []string{"ufc", "main card", "prelims"} {
		if strings.Contains(text, kw) {
			return "EVENT_CARD"
		}
	}
	return ""
}

func (fakeDetector) IsPlaceholder(text string) bool {
	return strings.Contains(text, "tbd") || strings.Contains(text, "placeholder")
}

func (fakeDetector) IsExcluded(text string) bool {
	return strings.Contains(text, "weigh-in") || strings.Contains(text, "weigh in")
}

func (fakeDetector) DetectCardSegment(text string) string {
	switch {
	case strings.Contains(text, "early prelims"):
		return "early_prelims"
	case strings.Contains(text, "prelims"):
		return "prelims"
	case strings.Contains(text, "main card"):
		return "main_card"
	}
	return ""
}

func (fakeDetector) FindSeparator(text string) (string, int) {
	for _, sep := range []string{" vs ", " @ ", " at "} {
		if pos := strings.Index(text, sep); pos != -1 {
			return sep, pos
		}
	}
	return "", -1
}

func team(name, abbrev string) models.Team {
	return models.Team{ID: name, Name: name, Abbreviation: abbrev}
}

func gameEvent(id string, home, away models.Team, league string) models.EnrichedEvent {
	return models.EnrichedEvent{Event: models.Event{
		ID:        id,
		Name:      away.Name + " at " + home.Name,
		League:    league,
		HomeTeam:  home,
		AwayTeam:  away,
		StartTime: time.Date(2026, 2, 10, 19, 0, 0, 0, time.UTC),
	}}
}

func TestMatchAbbreviationTokens(t *testing.T) {
	m := NewMatcher(fakeDetector{})
	events := []models.EnrichedEvent{
		gameEvent("401", team("Sweden", "SWE"), team("Italy", "ITA"), "mens-hockey"),
		gameEvent("402", team("Canada", "CAN"), team("Finland", "FIN"), "mens-hockey"),
	}
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	r := m.Match("SWE vs ITA - Hockey", events, day, Scope{})
	require.NotNil(t, r)
	assert.Equal(t, "401", r.Event.ID)
	assert.Equal(t, MethodAbbreviation, r.Method)
	assert.Equal(t, 100, r.Score)

	// Reversed order still matches the same event.
	r = m.Match("ITA vs SWE", events, day, Scope{})
	require.NotNil(t, r)
	assert.Equal(t, "401", r.Event.ID)
	assert.Equal(t, "true", r.Metadata["reversed"])
}

func TestMatchSkipsTwoLetterAbbreviations(t *testing.T) {
	m := NewMatcher(fakeDetector{})
	events := []models.EnrichedEvent{
		gameEvent("500", team("Los Angeles Lakers", "LA"), team("New York Knicks", "NY"), "nba"),
	}
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	r := m.Match("LA vs NY", events, day, Scope{})
	assert.Nil(t, r)
}

func TestMatchNoCandidateTeams(t *testing.T) {
	m := NewMatcher(fakeDetector{})
	events := []models.EnrichedEvent{
		gameEvent("401", team("Sweden", "SWE"), team("Italy", "ITA"), "mens-hockey"),
	}
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	assert.Nil(t, m.Match("DEN vs PHI", events, day, Scope{}))
}

func TestMatchFuzzyTeamNames(t *testing.T) {
	m := NewMatcher(fakeDetector{})
	events := []models.EnrichedEvent{
		gameEvent("600", team("Boston Celtics", "BOS"), team("Los Angeles Lakers", "LAL"), "nba"),
	}
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	r := m.Match("Los Angeles Lakers at Boston Celtics", events, day, Scope{})
	require.NotNil(t, r)
	assert.Equal(t, "600", r.Event.ID)
	assert.GreaterOrEqual(t, r.Score, BothTeamsThreshold)
}

func TestMatchAliasRewrite(t *testing.T) {
	m := NewMatcher(fakeDetector{})
	m.SetAliases(map[string]string{"Man U": "Manchester United"})
	events := []models.EnrichedEvent{
		gameEvent("700", team("Manchester United", "MUFC"), team("Chelsea", "CHE"), "eng.1"),
	}
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	r := m.Match("Man U vs Chelsea", events, day, Scope{})
	require.NotNil(t, r)
	assert.Equal(t, "700", r.Event.ID)
}

func TestMatchDiscardsPlaceholdersAndExclusions(t *testing.T) {
	m := NewMatcher(fakeDetector{})
	events := []models.EnrichedEvent{
		gameEvent("401", team("Sweden", "SWE"), team("Italy", "ITA"), "mens-hockey"),
	}
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	assert.Nil(t, m.Match("TBD placeholder channel", events, day, Scope{}))
	assert.Nil(t, m.Match("UFC 312 Weigh-In SWE vs ITA", events, day, Scope{}))
}

func TestMatchRejectsWrongDate(t *testing.T) {
	m := NewMatcher(fakeDetector{})
	events := []models.EnrichedEvent{
		gameEvent("401", team("Sweden", "SWE"), team("Italy", "ITA"), "mens-hockey"),
	}
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	assert.Nil(t, m.Match("SWE vs ITA 02/11", events, day, Scope{}))

	r := m.Match("SWE vs ITA 02/10", events, day, Scope{})
	require.NotNil(t, r)
	assert.Equal(t, "401", r.Event.ID)
}

func TestMatchDayNumberMapping(t *testing.T) {
	m := NewMatcher(fakeDetector{})
	m.SetDayNBase(time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC))
	events := []models.EnrichedEvent{
		gameEvent("401", team("Sweden", "SWE"), team("Italy", "ITA"), "mens-hockey"),
	}
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	// Day 4 = Feb 10.
	r := m.Match("Day 4 SWE vs ITA", events, day, Scope{})
	require.NotNil(t, r)
	assert.Equal(t, "401", r.Event.ID)

	assert.Nil(t, m.Match("Day 5 SWE vs ITA", events, day, Scope{}))
}

func TestMatchLeagueScoping(t *testing.T) {
	m := NewMatcher(fakeDetector{})
	nhl := gameEvent("800", team("Dallas Stars", "DAL"), team("Boston Bruins", "BOS"), "nhl")
	nba := gameEvent("801", team("Dallas Mavericks", "DAL"), team("Boston Celtics", "BOS"), "nba")
	events := []models.EnrichedEvent{nhl, nba}
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	// Single-mode scope restricts the search set.
	r := m.Match("DAL vs BOS", events, day, Scope{SearchLeagues: []string{"nba"}})
	require.NotNil(t, r)
	assert.Equal(t, "801", r.Event.ID)

	// Multi-mode include filter rejects out-of-scope final matches.
	r = m.Match("Dallas Stars vs Boston Bruins", events, day, Scope{IncludeLeagues: []string{"nba"}})
	assert.Nil(t, r)
}

func TestMatchEventCardSegments(t *testing.T) {
	m := NewMatcher(fakeDetector{})
	card := models.EnrichedEvent{Event: models.Event{
		ID:        "900",
		Name:      "UFC 312: Jones vs Miocic",
		ShortName: "UFC 312",
		League:    "ufc",
		StartTime: time.Date(2026, 2, 10, 23, 0, 0, 0, time.UTC),
	}}
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	r := m.Match("UFC 312 Main Card", []models.EnrichedEvent{card}, day, Scope{})
	require.NotNil(t, r)
	assert.Equal(t, MethodEventCard, r.Method)
	assert.Equal(t, "main_card", r.Metadata["card_segment"])

	r = m.Match("UFC 312 Early Prelims", []models.EnrichedEvent{card}, day, Scope{})
	require.NotNil(t, r)
	assert.Equal(t, "early_prelims", r.Metadata["card_segment"])
}

func TestNormalizeAndDates(t *testing.T) {
	assert.Equal(t, "swe vs ita", Normalize("  SWE   vs  ITA!! "))

	d, ok := ExtractDate("lakers vs celtics 2026-02-10")
	require.True(t, ok)
	assert.True(t, d.Matches(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)))
	assert.False(t, d.Matches(time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC)))

	d, ok = ExtractDate("ufc fight night feb 10")
	require.True(t, ok)
	assert.Equal(t, time.February, d.Month)
	assert.Equal(t, 10, d.Day)

	d, ok = ExtractDate("olympics day 4 coverage")
	require.True(t, ok)
	assert.Equal(t, 4, d.DayNumber)

	assert.Equal(t, "lakers vs celtics", MaskDates("lakers vs celtics 02/10"))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 100, Similarity("lakers", "lakers"))
	assert.Equal(t, 100, PartialSimilarity("arsenal", "arsenal fc"))
	assert.Less(t, Similarity("lakers", "celtics"), BothTeamsThreshold)
}
