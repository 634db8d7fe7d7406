package templates

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teamarr/teamarr/internal/models"
)

// buildGameVariables produces every variable for one game slot. It is
// called three times per resolution: for the current, next, and last game
// contexts. Missing data renders as empty strings, never errors.
func buildGameVariables(tctx *models.TemplateContext, g *models.GameContext) map[string]string {
	v := make(map[string]string, 200)

	cfg := tctx.TeamConfig
	teamStats := tctx.TeamStats
	if teamStats == nil {
		teamStats = &models.TeamStats{}
	}
	oppStats := &models.TeamStats{}
	var h2h models.HeadToHead
	var streaks models.Streaks
	var leaders models.PlayerLeaders
	headCoach := ""
	var ev *models.EnrichedEvent
	isHome := false
	teamSide, oppSide := models.Team{}, models.Team{}
	if g != nil {
		ev = g.Event
		isHome = g.IsHome
		teamSide = g.TeamSide
		oppSide = g.OpponentSide
		if g.OpponentStats != nil {
			oppStats = g.OpponentStats
		}
		h2h = g.H2H
		streaks = g.Streaks
		leaders = g.PlayerLeaders
		headCoach = g.HeadCoach
	}

	// Identity. Team config fills in when the slot has no game.
	teamName := teamSide.Name
	if teamName == "" {
		teamName = cfg.TeamName
	}
	teamAbbrev := teamSide.Abbreviation
	if teamAbbrev == "" {
		teamAbbrev = cfg.TeamAbbrev
	}
	v["team_name"] = teamName
	v["team_abbrev"] = teamAbbrev
	v["team_abbrev_lower"] = strings.ToLower(teamAbbrev)
	v["team_name_pascal"] = PascalCase(teamName)
	v["opponent"] = oppSide.Name
	v["opponent_abbrev"] = oppSide.Abbreviation
	v["opponent_abbrev_lower"] = strings.ToLower(oppSide.Abbreviation)

	var homeTeam, awayTeam models.Team
	if ev != nil {
		homeTeam, awayTeam = ev.HomeTeam, ev.AwayTeam
	}
	v["matchup"] = joinMatchup(awayTeam.Name, homeTeam.Name)
	v["matchup_abbrev"] = joinMatchup(awayTeam.Abbreviation, homeTeam.Abbreviation)
	v["home_team"] = homeTeam.Name
	v["away_team"] = awayTeam.Name
	v["home_team_pascal"] = PascalCase(homeTeam.Name)
	v["away_team_pascal"] = PascalCase(awayTeam.Name)
	v["home_team_abbrev"] = homeTeam.Abbreviation
	v["home_team_abbrev_lower"] = strings.ToLower(homeTeam.Abbreviation)
	v["away_team_abbrev"] = awayTeam.Abbreviation
	v["away_team_abbrev_lower"] = strings.ToLower(awayTeam.Abbreviation)

	// Rankings (college polls, top 25).
	v["team_rank"] = RankText(teamStats.Rank)
	v["is_ranked"] = boolVar(v["team_rank"] != "")
	v["opponent_rank"] = RankText(oppStats.Rank)
	v["opponent_is_ranked"] = boolVar(v["opponent_rank"] != "")
	v["is_ranked_matchup"] = boolVar(v["team_rank"] != "" && v["opponent_rank"] != "")

	// Sport and league.
	v["sport"] = SportDisplayName(cfg.Sport)
	v["sport_lower"] = strings.ToLower(v["sport"])
	v["league"] = LeagueDisplayName(cfg.League)
	v["league_name"] = LeagueDisplayName(cfg.League)
	v["league_slug"] = cfg.League
	v["league_id"] = LeagueAlias(cfg.League)
	v["gracenote_category"] = GracenoteCategory(cfg.League, cfg.Sport)

	// Soccer: which competition this particular game belongs to, vs the
	// club's primary league.
	matchLeague := cfg.League
	if ev != nil && ev.SourceLeague != "" {
		matchLeague = ev.SourceLeague
	}
	v["soccer_match_league"] = LeagueDisplayName(matchLeague)
	v["soccer_match_league_id"] = LeagueAlias(matchLeague)
	primary := cfg.SoccerPrimaryLeague
	if primary == "" {
		primary = LeagueDisplayName(cfg.League)
	}
	v["soccer_primary_league"] = primary
	primaryID := cfg.SoccerPrimaryLeagueID
	if primaryID == "" {
		primaryID = LeagueAlias(cfg.League)
	}
	v["soccer_primary_league_id"] = primaryID

	// Conference / division, split by college vs pro.
	isCollege := strings.Contains(strings.ToLower(cfg.League), "college")
	setConference(v, "", teamStats, isCollege)
	setConference(v, "opponent_", oppStats, isCollege)
	homeStats, awayStats := teamStats, oppStats
	if !isHome {
		homeStats, awayStats = oppStats, teamStats
	}
	setConference(v, "home_team_", homeStats, isCollege)
	setConference(v, "away_team_", awayStats, isCollege)

	v["home_team_rank"] = RankText(homeStats.Rank)
	v["away_team_rank"] = RankText(awayStats.Rank)
	v["home_team_seed"] = seedOrdinal(homeStats.PlayoffSeed)
	v["away_team_seed"] = seedOrdinal(awayStats.PlayoffSeed)
	v["home_team_streak"] = homeStats.StreakText()
	v["away_team_streak"] = awayStats.StreakText()

	// Date and time in the EPG timezone.
	if ev != nil {
		loc := epgLocation(tctx.EPGTimezone)
		local := ev.StartTime.In(loc)
		v["game_date"] = local.Format("Monday, January 2, 2006")
		v["game_date_short"] = local.Format("Jan 2")
		v["game_day"] = local.Format("Monday")
		v["game_day_short"] = local.Format("Mon")
		v["game_time"] = FormatTime(local, tctx.TimeFormat)
		v["game_time_short"] = FormatTime(local, models.TimeFormatSettings{
			Use24Hour:     tctx.TimeFormat.Use24Hour,
			LowercaseAMPM: tctx.TimeFormat.LowercaseAMPM,
		})
		if local.Hour() >= 17 {
			v["today_tonight"] = "tonight"
			v["today_tonight_title"] = "Tonight"
		} else {
			v["today_tonight"] = "today"
			v["today_tonight_title"] = "Today"
		}
		now := tctx.ProgramDatetime
		if now.IsZero() {
			now = time.Now()
		}
		nowLocal := now.In(loc)
		days := int(local.Sub(nowLocal).Hours() / 24)
		hours := int(local.Sub(nowLocal).Hours())
		v["days_until"] = strconv.Itoa(maxInt(0, days))
		v["hours_until"] = strconv.Itoa(maxInt(0, hours))
	}

	// Venue.
	if ev != nil && ev.Venue != nil {
		v["venue"] = ev.Venue.Name
		v["venue_city"] = ev.Venue.City
		v["venue_state"] = ev.Venue.State
		switch {
		case ev.Venue.Name != "" && ev.Venue.City != "" && ev.Venue.State != "":
			v["venue_full"] = fmt.Sprintf("%s, %s, %s", ev.Venue.Name, ev.Venue.City, ev.Venue.State)
		case ev.Venue.Name != "" && ev.Venue.City != "":
			v["venue_full"] = fmt.Sprintf("%s, %s", ev.Venue.Name, ev.Venue.City)
		default:
			v["venue_full"] = ev.Venue.Name
		}
	}

	// Home/away context.
	v["is_home"] = boolVar(isHome)
	v["is_away"] = boolVar(!isHome)
	if isHome {
		v["home_away_text"] = "at home"
		v["vs_at"] = "vs"
		v["vs_@"] = "vs"
	} else {
		v["home_away_text"] = "on the road"
		v["vs_at"] = "at"
		v["vs_@"] = "@"
	}

	// Records.
	v["team_record"] = recordOrBuild(teamStats)
	v["team_wins"] = strconv.Itoa(teamStats.Wins)
	v["team_losses"] = strconv.Itoa(teamStats.Losses)
	v["team_ties"] = strconv.Itoa(teamStats.Ties)
	v["team_win_pct"] = WinPct(teamStats.Wins, teamStats.Losses, teamStats.Ties)
	v["opponent_record"] = recordOrBuild(oppStats)
	v["opponent_wins"] = strconv.Itoa(oppStats.Wins)
	v["opponent_losses"] = strconv.Itoa(oppStats.Losses)
	v["opponent_ties"] = strconv.Itoa(oppStats.Ties)
	v["opponent_win_pct"] = WinPct(oppStats.Wins, oppStats.Losses, oppStats.Ties)
	v["home_record"] = teamStats.HomeRecord
	v["away_record"] = teamStats.AwayRecord
	v["home_win_pct"] = WinPctFromRecord(teamStats.HomeRecord)
	v["away_win_pct"] = WinPctFromRecord(teamStats.AwayRecord)
	if isHome {
		v["home_team_record"] = v["team_record"]
		v["away_team_record"] = v["opponent_record"]
	} else {
		v["away_team_record"] = v["team_record"]
		v["home_team_record"] = v["opponent_record"]
	}

	// Streaks.
	v["streak"] = strconv.Itoa(absInt(teamStats.Streak))
	v["streak_raw"] = strconv.Itoa(teamStats.Streak)
	v["home_streak"] = streaks.HomeStreak
	v["away_streak"] = streaks.AwayStreak
	v["last_5_record"] = streaks.Last5Record
	v["last_10_record"] = streaks.Last10Record

	// Head-to-head season series.
	v["season_series"] = fmt.Sprintf("%d-%d", h2h.TeamWins, h2h.OpponentWins)
	v["season_series_team_wins"] = strconv.Itoa(h2h.TeamWins)
	v["season_series_opponent_wins"] = strconv.Itoa(h2h.OpponentWins)
	switch {
	case h2h.TeamWins > h2h.OpponentWins:
		v["season_series_leader"] = teamName
	case h2h.OpponentWins > h2h.TeamWins:
		v["season_series_leader"] = oppSide.Name
	default:
		v["season_series_leader"] = "tied"
	}
	v["rematch_date"] = h2h.PreviousDate
	v["rematch_result"] = h2h.PreviousResult
	v["rematch_score"] = h2h.PreviousScore
	v["rematch_score_abbrev"] = h2h.PreviousAbbrev
	v["rematch_venue"] = h2h.PreviousVenue
	v["rematch_days_since"] = strconv.Itoa(h2h.DaysSince)
	v["rematch_season_series"] = v["season_series"]

	// Season type.
	seasonType := 0
	if ev != nil {
		seasonType = ev.SeasonType
	}
	v["season_type"] = strconv.Itoa(seasonType)
	v["is_playoff"] = boolVar(seasonType == 3)
	v["is_regular_season"] = boolVar(seasonType != 3)
	v["is_preseason"] = boolVar(seasonType == 1)

	// Standings.
	v["playoff_seed"] = seedOrdinal(teamStats.PlayoffSeed)
	if teamStats.GamesBack != "" {
		v["games_back"] = teamStats.GamesBack
	} else {
		v["games_back"] = "0.0"
	}

	// Scoring statistics.
	v["team_ppg"] = fmt.Sprintf("%.1f", teamStats.PPG)
	v["team_papg"] = fmt.Sprintf("%.1f", teamStats.PAPG)
	v["opponent_ppg"] = fmt.Sprintf("%.1f", oppStats.PPG)
	v["opponent_papg"] = fmt.Sprintf("%.1f", oppStats.PAPG)

	// Coaching and player leaders.
	v["head_coach"] = headCoach
	v["basketball_scoring_leader_name"] = leaders.BasketballScoringLeaderName
	v["basketball_scoring_leader_points"] = leaders.BasketballScoringLeaderPoints
	v["football_passing_leader_name"] = leaders.FootballPassingLeaderName
	v["football_passing_leader_stats"] = leaders.FootballPassingLeaderStats
	v["football_rushing_leader_name"] = leaders.FootballRushingLeaderName
	v["football_rushing_leader_stats"] = leaders.FootballRushingLeaderStats
	v["football_receiving_leader_name"] = leaders.FootballReceivingLeaderName
	v["football_receiving_leader_stats"] = leaders.FootballReceivingLeaderStats
	v["hockey_top_scorer_name"] = leaders.HockeyTopScorerName
	v["hockey_top_scorer_position"] = leaders.HockeyTopScorerPosition
	v["hockey_top_scorer_goals"] = leaders.HockeyTopScorerGoals
	v["hockey_top_scorer_gpg"] = leaders.HockeyTopScorerGPG
	v["hockey_top_playmaker_name"] = leaders.HockeyTopPlaymakerName
	v["hockey_top_playmaker_position"] = leaders.HockeyTopPlaymakerPosition
	v["hockey_top_playmaker_assists"] = leaders.HockeyTopPlaymakerAssists
	v["hockey_top_playmaker_apg"] = leaders.HockeyTopPlaymakerAPG

	// Scores and outcome.
	buildScoreVariables(v, cfg, ev, isHome)

	// Odds.
	buildOddsVariables(v, ev, isHome)

	// Broadcasts.
	var broadcasts []models.Broadcast
	if ev != nil {
		broadcasts = ev.Broadcasts
	}
	v["broadcast_simple"] = BroadcastSimple(broadcasts, isHome)
	v["broadcast_network"] = BroadcastNetwork(broadcasts, isHome)
	v["broadcast_national_network"] = BroadcastNationalNetwork(broadcasts)
	v["is_national_broadcast"] = boolVar(IsNationalBroadcast(broadcasts))

	return v
}

func buildScoreVariables(v map[string]string, cfg *models.TeamConfig, ev *models.EnrichedEvent, isHome bool) {
	ourScore, oppScore := 0, 0
	isFinal := false
	if ev != nil {
		isFinal = ev.Status.IsFinal()
		if ev.HomeScore != nil && ev.AwayScore != nil {
			if isHome {
				ourScore, oppScore = *ev.HomeScore, *ev.AwayScore
			} else {
				ourScore, oppScore = *ev.AwayScore, *ev.HomeScore
			}
		}
	}
	v["team_score"] = strconv.Itoa(ourScore)
	v["opponent_score"] = strconv.Itoa(oppScore)
	v["score"] = fmt.Sprintf("%d-%d", ourScore, oppScore)
	diff := ourScore - oppScore
	if diff > 0 {
		v["score_diff"] = "+" + strconv.Itoa(diff)
	} else {
		v["score_diff"] = strconv.Itoa(diff)
	}

	hasScore := isFinal && (ourScore > 0 || oppScore > 0)
	if !hasScore {
		v["final_score"] = ""
		v["score_differential"] = "0"
		v["score_differential_text"] = ""
		v["result"] = ""
		v["result_text"] = ""
		v["result_verb"] = ""
		v["overtime_text"] = ""
		return
	}

	v["final_score"] = v["score"]
	absDiff := absInt(diff)
	v["score_differential"] = strconv.Itoa(absDiff)
	unit := "points"
	if absDiff == 1 {
		unit = "point"
	}
	v["score_differential_text"] = fmt.Sprintf("by %d %s", absDiff, unit)
	switch {
	case ourScore > oppScore:
		v["result"] = "win"
		v["result_text"] = "defeated"
		v["result_verb"] = "beat"
	case ourScore < oppScore:
		v["result"] = "loss"
		v["result_text"] = "lost to"
		v["result_verb"] = "fell to"
	default:
		v["result"] = "draw"
		v["result_text"] = "drew with"
		v["result_verb"] = "drew with"
	}

	// Regulation period counts per sport; anything beyond is overtime.
	regulation := map[string]int{
		"basketball": 4,
		"hockey":     3,
		"football":   4,
		"baseball":   9,
	}
	threshold, ok := regulation[cfg.Sport]
	if !ok {
		threshold = 4
	}
	if ev.Status.Period > threshold {
		v["overtime_text"] = "in overtime"
	} else {
		v["overtime_text"] = ""
	}
}

func buildOddsVariables(v map[string]string, ev *models.EnrichedEvent, isHome bool) {
	if ev == nil || !ev.HasOdds {
		for _, key := range []string{"odds_details", "odds_spread", "odds_over_under",
			"odds_favorite", "odds_moneyline", "odds_opponent_moneyline"} {
			v[key] = ""
		}
		return
	}
	v["odds_details"] = ev.OddsDetails
	v["odds_spread"] = ev.OddsSpread
	v["odds_over_under"] = ev.OddsOverUnder
	v["odds_favorite"] = ev.OddsFavorite
	if isHome {
		v["odds_moneyline"] = ev.HomeMoneyline
		v["odds_opponent_moneyline"] = ev.AwayMoneyline
	} else {
		v["odds_moneyline"] = ev.AwayMoneyline
		v["odds_opponent_moneyline"] = ev.HomeMoneyline
	}
}

func setConference(v map[string]string, prefix string, stats *models.TeamStats, isCollege bool) {
	if isCollege {
		v[prefix+"college_conference"] = stats.Conference
		v[prefix+"college_conference_abbrev"] = stats.ConferenceAbbrev
		v[prefix+"pro_conference"] = ""
		v[prefix+"pro_conference_abbrev"] = ""
	} else {
		v[prefix+"college_conference"] = ""
		v[prefix+"college_conference_abbrev"] = ""
		v[prefix+"pro_conference"] = stats.Conference
		v[prefix+"pro_conference_abbrev"] = stats.ConferenceAbbrev
	}
	v[prefix+"pro_division"] = stats.Division
}

func recordOrBuild(stats *models.TeamStats) string {
	if stats.Record != "" && stats.Record != "0-0" {
		return stats.Record
	}
	if stats.Ties > 0 {
		return fmt.Sprintf("%d-%d-%d", stats.Wins, stats.Losses, stats.Ties)
	}
	return fmt.Sprintf("%d-%d", stats.Wins, stats.Losses)
}

func joinMatchup(away, home string) string {
	if away == "" && home == "" {
		return ""
	}
	return away + " @ " + home
}

func seedOrdinal(seed *int) string {
	if seed == nil || *seed <= 0 {
		return ""
	}
	return Ordinal(*seed)
}

func epgLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func boolVar(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
