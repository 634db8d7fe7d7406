package templates

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamarr/teamarr/internal/models"
)

func intPtr(n int) *int { return &n }

func testContext() *models.TemplateContext {
	det := models.Team{ID: "5", Name: "Detroit Red Wings", Abbreviation: "DET"}
	chi := models.Team{ID: "4", Name: "Chicago Blackhawks", Abbreviation: "CHI"}
	bos := models.Team{ID: "1", Name: "Boston Bruins", Abbreviation: "BOS"}

	current := &models.GameContext{
		Event: &models.EnrichedEvent{Event: models.Event{
			ID:        "100",
			Name:      "Chicago Blackhawks at Detroit Red Wings",
			StartTime: time.Date(2026, 2, 10, 18, 0, 0, 0, time.UTC),
			HomeTeam:  det,
			AwayTeam:  chi,
			League:    "nhl",
			Sport:     "hockey",
			Venue:     &models.Venue{Name: "Little Caesars Arena", City: "Detroit", State: "MI"},
			Broadcasts: []models.Broadcast{
				{Name: "ESPN", Type: "TV", Market: "national"},
			},
			SeasonType: 2,
		}},
		IsHome:       true,
		TeamSide:     det,
		OpponentSide: chi,
		OpponentStats: &models.TeamStats{
			Record: "22-28", Wins: 22, Losses: 28, Rank: intPtr(12),
		},
		Streaks: models.Streaks{HomeStreak: "W4", Last5Record: "4-1"},
	}

	next := &models.GameContext{
		Event: &models.EnrichedEvent{
			Event: models.Event{
				ID:        "101",
				StartTime: time.Date(2026, 2, 12, 23, 30, 0, 0, time.UTC),
				HomeTeam:  bos,
				AwayTeam:  det,
				League:    "nhl",
				Sport:     "hockey",
			},
			HasOdds:     true,
			OddsDetails: "BOS -150",
		},
		IsHome:       false,
		TeamSide:     det,
		OpponentSide: bos,
	}

	last := &models.GameContext{
		Event: &models.EnrichedEvent{Event: models.Event{
			ID:        "99",
			StartTime: time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC),
			HomeTeam:  det,
			AwayTeam:  bos,
			HomeScore: intPtr(4),
			AwayScore: intPtr(2),
			Status:    models.EventStatus{State: models.StateFinal, Period: 3},
			League:    "nhl",
			Sport:     "hockey",
		}},
		IsHome:       true,
		TeamSide:     det,
		OpponentSide: bos,
	}

	return &models.TemplateContext{
		TeamConfig: &models.TeamConfig{
			TeamName: "Detroit Red Wings", TeamAbbrev: "DET",
			Sport: "hockey", League: "nhl",
		},
		TeamStats: &models.TeamStats{
			Record: "30-20", Wins: 30, Losses: 20, Streak: 3,
			Conference: "Eastern", Division: "Atlantic",
		},
		Current:         current,
		NextGame:        next,
		LastGame:        last,
		EPGTimezone:     "UTC",
		ProgramDatetime: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestResolveBaseVariables(t *testing.T) {
	r := NewResolver()
	tctx := testContext()

	got := r.ResolveContext("{team_name} {vs_@} {opponent} - {game_time} {today_tonight}", tctx)
	assert.Equal(t, "Detroit Red Wings vs Chicago Blackhawks - 6:00 PM tonight", got)

	assert.Equal(t, "NHL Hockey", r.ResolveContext("{gracenote_category}", tctx))
	assert.Equal(t, "Little Caesars Arena, Detroit, MI", r.ResolveContext("{venue_full}", tctx))
	assert.Equal(t, "30-20", r.ResolveContext("{team_record}", tctx))
	assert.Equal(t, "#12", r.ResolveContext("{opponent_rank}", tctx))
	assert.Equal(t, "ESPN", r.ResolveContext("{broadcast_network}", tctx))
	assert.Equal(t, "true", r.ResolveContext("{is_national_broadcast}", tctx))
}

func TestResolveSuffixDiscipline(t *testing.T) {
	r := NewResolver()
	vars := r.BuildVariables(testContext())

	// Result variables exist only for the completed game.
	assert.NotContains(t, vars, "result")
	assert.Equal(t, "win", vars["result.last"])
	assert.Equal(t, "defeated", vars["result_text.last"])
	assert.Equal(t, "4-2", vars["final_score.last"])

	// Odds never apply to a finished game.
	assert.NotContains(t, vars, "odds_details.last")
	assert.Equal(t, "BOS -150", vars["odds_details.next"])

	// Team-level facts carry no suffixed copies.
	assert.NotContains(t, vars, "team_name.next")
	assert.NotContains(t, vars, "team_record.last")

	// Slot-varying facts do.
	assert.Equal(t, "Boston Bruins", vars["opponent.next"])
	assert.Equal(t, "at", vars["vs_at.next"])
}

// Every variable the resolver can produce must be documented in the
// served catalog.
func TestCatalogCoversResolvedVariables(t *testing.T) {
	names := map[string]bool{}
	for _, cat := range Catalog() {
		for _, v := range cat.Variables {
			names[v.Name] = true
		}
	}
	require.NotEmpty(t, names)

	r := NewResolver()
	for name := range r.BuildVariables(testContext()) {
		base := name
		if i := strings.Index(name, "."); i >= 0 {
			base = name[:i]
		}
		assert.True(t, names[base], "variable %s not in catalog", base)
	}
}

func TestResolveUnknownVariableBlanks(t *testing.T) {
	r := NewResolver()
	got := r.ResolveContext("A{made_up_variable}B", testContext())
	assert.Equal(t, "AB", got)
}

func TestResolveCaseInsensitive(t *testing.T) {
	r := NewResolver()
	assert.Equal(t, "Detroit Red Wings", r.ResolveContext("{Team_Name}", testContext()))
}

func TestResolveNilContext(t *testing.T) {
	r := NewResolver()
	assert.Equal(t, "", r.Resolve("{team_name}", r.BuildVariables(nil)))
}

func TestPregameFallsBackToNextGame(t *testing.T) {
	r := NewResolver()
	tctx := testContext()
	tctx.Current = nil

	vars := r.BuildVariables(tctx)
	assert.Equal(t, "Boston Bruins", vars["opponent"])
	assert.Equal(t, "false", vars["is_home"])
}

func TestEvaluateConditions(t *testing.T) {
	tctx := testContext()

	assert.True(t, EvaluateCondition("win_streak", "3", tctx))
	assert.False(t, EvaluateCondition("win_streak", "4", tctx))
	assert.False(t, EvaluateCondition("loss_streak", "2", tctx))
	assert.True(t, EvaluateCondition("is_ranked_opponent", "", tctx))
	assert.False(t, EvaluateCondition("is_top_ten_matchup", "", tctx))
	assert.True(t, EvaluateCondition("is_home", "", tctx))
	assert.False(t, EvaluateCondition("is_away", "", tctx))
	assert.True(t, EvaluateCondition("home_win_streak", "3", tctx))
	assert.False(t, EvaluateCondition("home_win_streak", "5", tctx))
	assert.True(t, EvaluateCondition("is_national_broadcast", "", tctx))
	assert.True(t, EvaluateCondition("opponent_name_contains", "blackhawks", tctx))
	assert.False(t, EvaluateCondition("opponent_name_contains", "bruins", tctx))
	assert.False(t, EvaluateCondition("is_playoff", "", tctx))
	assert.False(t, EvaluateCondition("has_odds", "", tctx))
	assert.False(t, EvaluateCondition("not_a_condition", "", tctx))

	// Rematch requires completed meetings.
	assert.False(t, EvaluateCondition("is_rematch", "", tctx))
	tctx.Current.H2H = models.HeadToHead{TeamWins: 1, OpponentWins: 1}
	assert.True(t, EvaluateCondition("is_rematch", "", tctx))
}

func TestSelectDescriptionPriorityBuckets(t *testing.T) {
	tctx := testContext()
	rng := rand.New(rand.NewSource(42))

	options := []models.DescriptionOption{
		{Template: "fallback", Priority: 100},
		{Template: "streaking", Priority: 10, Condition: "win_streak", ConditionValue: "2"},
		{Template: "ranked foe", Priority: 20, Condition: "is_ranked_opponent"},
	}
	assert.Equal(t, "streaking", SelectDescription(options, tctx, rng))

	// Failing conditions fall through to the next bucket.
	options[1].ConditionValue = "10"
	assert.Equal(t, "ranked foe", SelectDescription(options, tctx, rng))

	// Fallback catches everything.
	options[1].ConditionValue = "10"
	options[2].Condition = "is_away"
	assert.Equal(t, "fallback", SelectDescription(options, tctx, rng))

	assert.Equal(t, "", SelectDescription(nil, tctx, rng))
}

func TestSelectDescriptionRandomWithinBucket(t *testing.T) {
	tctx := testContext()
	options := []models.DescriptionOption{
		{Template: "a", Priority: 100},
		{Template: "b", Priority: 100},
	}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		got := SelectDescription(options, tctx, rng)
		assert.Contains(t, []string{"a", "b"}, got)
	}
}

func TestBroadcastPriority(t *testing.T) {
	broadcasts := []models.Broadcast{
		{Name: "WXYT-FM", Type: "Radio", Market: "home"},
		{Name: "NHL.TV", Type: "Streaming", Market: "national"},
		{Name: "FanDuel SN DET", Type: "TV", Market: "home"},
		{Name: "ESPN+", Type: "Streaming", Market: "national"},
		{Name: "TNT", Type: "TV", Market: "national"},
	}

	assert.Equal(t, "TNT", BroadcastNetwork(broadcasts, true))
	assert.Equal(t, "TNT, FanDuel SN DET, ESPN+", BroadcastSimple(broadcasts, true))
	assert.Equal(t, "TNT, ESPN+", BroadcastNationalNetwork(broadcasts))
	assert.True(t, IsNationalBroadcast(broadcasts))

	// Away team ignores the home regional feed for the single-network pick.
	assert.Equal(t, "TNT", BroadcastNetwork(broadcasts, false))
	assert.Equal(t, "", BroadcastNetwork(nil, true))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "1st", Ordinal(1))
	assert.Equal(t, "2nd", Ordinal(2))
	assert.Equal(t, "3rd", Ordinal(3))
	assert.Equal(t, "4th", Ordinal(4))
	assert.Equal(t, "11th", Ordinal(11))
	assert.Equal(t, "13th", Ordinal(13))
	assert.Equal(t, "21st", Ordinal(21))
	assert.Equal(t, "", Ordinal(0))

	assert.Equal(t, "#7", RankText(intPtr(7)))
	assert.Equal(t, "", RankText(intPtr(40)))
	assert.Equal(t, "", RankText(nil))

	assert.Equal(t, "DetroitRedWings", PascalCase("Detroit Red Wings"))
	assert.Equal(t, "StLouisBlues", PascalCase("St. Louis Blues"))

	assert.Equal(t, ".750", WinPct(3, 1, 0))
	assert.Equal(t, ".500", WinPct(1, 1, 0))
	assert.Equal(t, ".000", WinPct(0, 0, 0))
	assert.Equal(t, ".625", WinPctFromRecord("5-3"))
	assert.Equal(t, ".500", WinPctFromRecord("1-2-1"))

	assert.Equal(t, "College Basketball", GracenoteCategory("mens-college-basketball", "basketball"))
	assert.Equal(t, "NFL Football", GracenoteCategory("nfl", "football"))

	tf := models.TimeFormatSettings{Use24Hour: true}
	assert.Equal(t, "18:00", FormatTime(time.Date(2026, 2, 10, 18, 0, 0, 0, time.UTC), tf))
	tf = models.TimeFormatSettings{LowercaseAMPM: true}
	assert.Equal(t, "6:00 pm", FormatTime(time.Date(2026, 2, 10, 18, 0, 0, 0, time.UTC), tf))
}
