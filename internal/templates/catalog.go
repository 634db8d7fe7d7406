package templates

// VariableInfo describes one template variable for the editor UI.
type VariableInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Suffixes    []string `json:"suffixes"`
	Example     string   `json:"example,omitempty"`
}

// VariableCategory groups variables for the editor's palette.
type VariableCategory struct {
	Key       string         `json:"key"`
	Label     string         `json:"label"`
	Icon      string         `json:"icon"`
	Variables []VariableInfo `json:"variables"`
}

type catalogEntry struct {
	name, category, description, example string
}

var catalogCategories = []struct {
	key, label, icon string
}{
	{"identity", "Team & Matchup", "shield"},
	{"league", "League & Sport", "trophy"},
	{"datetime", "Date & Time", "clock"},
	{"venue", "Venue", "map-pin"},
	{"records", "Records & Standings", "bar-chart"},
	{"streaks", "Streaks & Form", "trending-up"},
	{"h2h", "Head to Head", "swords"},
	{"scores", "Scores & Results", "target"},
	{"odds", "Betting Odds", "dollar-sign"},
	{"broadcast", "Broadcasts", "tv"},
	{"leaders", "Coaches & Leaders", "star"},
}

var catalogEntries = []catalogEntry{
	{"team_name", "identity", "Full team name", "Detroit Red Wings"},
	{"team_name_pascal", "identity", "Team name without spaces", "DetroitRedWings"},
	{"team_abbrev", "identity", "Team abbreviation", "DET"},
	{"team_abbrev_lower", "identity", "Lowercase team abbreviation", "det"},
	{"opponent", "identity", "Opponent full name", "Chicago Blackhawks"},
	{"opponent_abbrev", "identity", "Opponent abbreviation", "CHI"},
	{"opponent_abbrev_lower", "identity", "Lowercase opponent abbreviation", "chi"},
	{"matchup", "identity", "Away @ Home matchup line", "Chicago Blackhawks @ Detroit Red Wings"},
	{"matchup_abbrev", "identity", "Abbreviated matchup line", "CHI @ DET"},
	{"home_team", "identity", "Home side full name", ""},
	{"away_team", "identity", "Away side full name", ""},
	{"home_team_abbrev", "identity", "Home side abbreviation", ""},
	{"away_team_abbrev", "identity", "Away side abbreviation", ""},
	{"home_team_abbrev_lower", "identity", "Lowercase home abbreviation", ""},
	{"away_team_abbrev_lower", "identity", "Lowercase away abbreviation", ""},
	{"home_team_pascal", "identity", "Home side name without spaces", ""},
	{"away_team_pascal", "identity", "Away side name without spaces", ""},
	{"is_home", "identity", "\"true\" when the team hosts", "true"},
	{"is_away", "identity", "\"true\" when the team travels", "false"},
	{"home_away_text", "identity", "\"at home\" or \"on the road\"", "at home"},
	{"vs_at", "identity", "\"vs\" at home, \"at\" away", "vs"},
	{"vs_@", "identity", "\"vs\" at home, \"@\" away", "@"},
	{"team_rank", "identity", "Poll rank as #N, empty if unranked", "#7"},
	{"opponent_rank", "identity", "Opponent poll rank as #N", "#12"},
	{"home_team_rank", "identity", "Home side poll rank as #N", ""},
	{"away_team_rank", "identity", "Away side poll rank as #N", ""},
	{"is_ranked", "identity", "\"true\" when the team is ranked", ""},
	{"opponent_is_ranked", "identity", "\"true\" when the opponent is ranked", ""},
	{"is_ranked_matchup", "identity", "\"true\" when both sides are ranked", ""},

	{"sport", "league", "Sport display name", "Hockey"},
	{"sport_lower", "league", "Lowercase sport name", "hockey"},
	{"league", "league", "League display name", "NHL"},
	{"league_id", "league", "Short league code", "nhl"},
	{"league_name", "league", "League display name from the league code", "NHL"},
	{"league_slug", "league", "Raw configured league code", "nhl"},
	{"gracenote_category", "league", "Guide category string", "NHL Hockey"},
	{"season_type", "league", "Season type code (1 pre, 2 regular, 3 post)", "2"},
	{"is_playoff", "league", "\"true\" in the postseason", "false"},
	{"is_regular_season", "league", "\"true\" in the regular season", "true"},
	{"is_preseason", "league", "\"true\" in the preseason", "false"},
	{"soccer_match_league", "league", "Competition this game belongs to", "Champions League"},
	{"soccer_match_league_id", "league", "Competition league code", "uefa.champions"},
	{"soccer_primary_league", "league", "Club's primary league", "Premier League"},
	{"soccer_primary_league_id", "league", "Primary league code", "eng.1"},
	{"college_conference", "league", "College conference name", "Big Ten"},
	{"college_conference_abbrev", "league", "College conference abbreviation", "B1G"},
	{"pro_conference", "league", "Pro conference name", "Eastern"},
	{"pro_conference_abbrev", "league", "Pro conference abbreviation", "East"},
	{"pro_division", "league", "Pro division name", "Atlantic"},
	{"opponent_college_conference", "league", "Opponent college conference", ""},
	{"opponent_college_conference_abbrev", "league", "Opponent college conference abbreviation", ""},
	{"opponent_pro_conference", "league", "Opponent pro conference", ""},
	{"opponent_pro_conference_abbrev", "league", "Opponent pro conference abbreviation", ""},
	{"opponent_pro_division", "league", "Opponent pro division", ""},
	{"home_team_college_conference", "league", "Home side college conference", ""},
	{"home_team_college_conference_abbrev", "league", "Home side college conference abbreviation", ""},
	{"home_team_pro_conference", "league", "Home side pro conference", ""},
	{"home_team_pro_conference_abbrev", "league", "Home side pro conference abbreviation", ""},
	{"home_team_pro_division", "league", "Home side pro division", ""},
	{"away_team_college_conference", "league", "Away side college conference", ""},
	{"away_team_college_conference_abbrev", "league", "Away side college conference abbreviation", ""},
	{"away_team_pro_conference", "league", "Away side pro conference", ""},
	{"away_team_pro_conference_abbrev", "league", "Away side pro conference abbreviation", ""},
	{"away_team_pro_division", "league", "Away side pro division", ""},

	{"game_date", "datetime", "Long game date", "Saturday, February 7, 2026"},
	{"game_date_short", "datetime", "Short game date", "Feb 7"},
	{"game_day", "datetime", "Weekday name", "Saturday"},
	{"game_day_short", "datetime", "Abbreviated weekday", "Sat"},
	{"game_time", "datetime", "Local start time", "7:00 PM"},
	{"game_time_short", "datetime", "Compact start time", "7PM"},
	{"today_tonight", "datetime", "\"today\" before 5pm, \"tonight\" after", "tonight"},
	{"today_tonight_title", "datetime", "Capitalized today/tonight", "Tonight"},
	{"days_until", "datetime", "Whole days until the game", "2"},
	{"hours_until", "datetime", "Whole hours until the game", "5"},

	{"venue", "venue", "Venue name", "Little Caesars Arena"},
	{"venue_city", "venue", "Venue city", "Detroit"},
	{"venue_state", "venue", "Venue state", "MI"},
	{"venue_full", "venue", "Venue, city, state", "Little Caesars Arena, Detroit, MI"},

	{"team_record", "records", "Season record", "30-20-5"},
	{"team_wins", "records", "Season wins", "30"},
	{"team_losses", "records", "Season losses", "20"},
	{"team_ties", "records", "Season ties/draws", "0"},
	{"team_win_pct", "records", "Winning percentage", ".600"},
	{"opponent_record", "records", "Opponent season record", ""},
	{"opponent_wins", "records", "Opponent season wins", ""},
	{"opponent_losses", "records", "Opponent season losses", ""},
	{"opponent_ties", "records", "Opponent season ties/draws", ""},
	{"opponent_win_pct", "records", "Opponent winning percentage", ""},
	{"home_record", "records", "Home record split", "18-7"},
	{"away_record", "records", "Road record split", "12-13"},
	{"home_win_pct", "records", "Home winning percentage", ""},
	{"away_win_pct", "records", "Road winning percentage", ""},
	{"home_team_record", "records", "Home side season record", ""},
	{"away_team_record", "records", "Away side season record", ""},
	{"playoff_seed", "records", "Playoff seed as ordinal", "3rd"},
	{"home_team_seed", "records", "Home side playoff seed", ""},
	{"away_team_seed", "records", "Away side playoff seed", ""},
	{"games_back", "records", "Games behind the leader", "2.5"},
	{"team_ppg", "records", "Points per game", "112.4"},
	{"team_papg", "records", "Points allowed per game", "108.1"},
	{"opponent_ppg", "records", "Opponent points per game", ""},
	{"opponent_papg", "records", "Opponent points allowed per game", ""},

	{"streak", "streaks", "Current streak length", "3"},
	{"streak_raw", "streaks", "Signed streak (negative = losses)", "-2"},
	{"home_streak", "streaks", "Streak in home games", "W4"},
	{"away_streak", "streaks", "Streak in road games", "L1"},
	{"home_team_streak", "streaks", "Home side streak length", ""},
	{"away_team_streak", "streaks", "Away side streak length", ""},
	{"last_5_record", "streaks", "Record over last 5 games", "4-1"},
	{"last_10_record", "streaks", "Record over last 10 games", "7-3"},

	{"season_series", "h2h", "Season series record vs opponent", "2-1"},
	{"season_series_leader", "h2h", "Series leader name or \"tied\"", ""},
	{"season_series_team_wins", "h2h", "Our wins in the season series", "2"},
	{"season_series_opponent_wins", "h2h", "Opponent wins in the season series", "1"},
	{"rematch_date", "h2h", "Date of the previous meeting", ""},
	{"rematch_result", "h2h", "Result of the previous meeting", "Win"},
	{"rematch_score", "h2h", "Score of the previous meeting", "4-2"},
	{"rematch_score_abbrev", "h2h", "Previous score with abbreviations", "DET 4 vs CHI 2"},
	{"rematch_venue", "h2h", "Venue of the previous meeting", ""},
	{"rematch_days_since", "h2h", "Days since the previous meeting", "12"},
	{"rematch_season_series", "h2h", "Season series at the rematch", "2-1"},

	{"team_score", "scores", "Our final score", "4"},
	{"opponent_score", "scores", "Opponent final score", "2"},
	{"score", "scores", "Score pair", "4-2"},
	{"final_score", "scores", "Score pair, final games only", "4-2"},
	{"score_diff", "scores", "Signed margin from our side", "+2"},
	{"score_differential", "scores", "Absolute margin", "2"},
	{"score_differential_text", "scores", "Margin phrase", "by 2 points"},
	{"result", "scores", "win / loss / draw", "win"},
	{"result_text", "scores", "defeated / lost to / drew with", "defeated"},
	{"result_verb", "scores", "beat / fell to / drew with", "beat"},
	{"overtime_text", "scores", "\"in overtime\" when applicable", ""},

	{"odds_details", "odds", "Full odds line", "DET -150"},
	{"odds_favorite", "odds", "Favored team abbreviation", "DET"},
	{"odds_spread", "odds", "Point spread", "-3.5"},
	{"odds_over_under", "odds", "Over/under total", "6.5"},
	{"odds_moneyline", "odds", "Our moneyline", "-150"},
	{"odds_opponent_moneyline", "odds", "Opponent moneyline", "+130"},

	{"broadcast_simple", "broadcast", "All watchable networks", "ESPN, FanDuel SN DET"},
	{"broadcast_network", "broadcast", "Single most relevant network", "ESPN"},
	{"broadcast_national_network", "broadcast", "National networks only", "ESPN"},
	{"is_national_broadcast", "broadcast", "\"true\" on national TV", "true"},

	{"head_coach", "leaders", "Head coach name", ""},
	{"basketball_scoring_leader_name", "leaders", "Game scoring leader", ""},
	{"basketball_scoring_leader_points", "leaders", "Scoring leader points", ""},
	{"football_passing_leader_name", "leaders", "Passing leader", ""},
	{"football_passing_leader_stats", "leaders", "Passing leader stat line", ""},
	{"football_rushing_leader_name", "leaders", "Rushing leader", ""},
	{"football_rushing_leader_stats", "leaders", "Rushing leader stat line", ""},
	{"football_receiving_leader_name", "leaders", "Receiving leader", ""},
	{"football_receiving_leader_stats", "leaders", "Receiving leader stat line", ""},
	{"hockey_top_scorer_name", "leaders", "Season goals leader", ""},
	{"hockey_top_scorer_goals", "leaders", "Goals leader total", ""},
	{"hockey_top_scorer_position", "leaders", "Goals leader position", ""},
	{"hockey_top_scorer_gpg", "leaders", "Goals leader per-game rate", ""},
	{"hockey_top_playmaker_name", "leaders", "Season assists leader", ""},
	{"hockey_top_playmaker_assists", "leaders", "Assists leader total", ""},
	{"hockey_top_playmaker_position", "leaders", "Assists leader position", ""},
	{"hockey_top_playmaker_apg", "leaders", "Assists leader per-game rate", ""},
}

// suffixesFor derives suffix availability from the exclusion sets that
// govern variable construction.
func suffixesFor(name string) []string {
	var out []string
	if !lastOnlyVars[name] {
		out = append(out, "")
	}
	if !baseOnlyVars[name] && !lastOnlyVars[name] {
		out = append(out, ".next")
	}
	if !baseOnlyVars[name] && !baseNextOnlyVars[name] {
		out = append(out, ".last")
	}
	return out
}

// Catalog returns the grouped variable reference served to the template
// editor.
func Catalog() []VariableCategory {
	byKey := make(map[string]*VariableCategory, len(catalogCategories))
	ordered := make([]*VariableCategory, 0, len(catalogCategories))
	for _, c := range catalogCategories {
		cat := &VariableCategory{Key: c.key, Label: c.label, Icon: c.icon}
		byKey[c.key] = cat
		ordered = append(ordered, cat)
	}
	for _, e := range catalogEntries {
		cat, ok := byKey[e.category]
		if !ok {
			continue
		}
		cat.Variables = append(cat.Variables, VariableInfo{
			Name:        e.name,
			Description: e.description,
			Suffixes:    suffixesFor(e.name),
			Example:     e.example,
		})
	}
	out := make([]VariableCategory, 0, len(ordered))
	for _, cat := range ordered {
		out = append(out, *cat)
	}
	return out
}
