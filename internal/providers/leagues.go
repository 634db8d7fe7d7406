package providers

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// leagueInfo maps a canonical league code to its provider coordinates.
type leagueInfo struct {
	Sport string
	Path  string
}

// Built-in league table. The team-league cache can extend soccer coverage
// at runtime; these are the always-known leagues.
var builtinLeagues = map[string]leagueInfo{
	"nba":            {"basketball", "basketball/nba"},
	"wnba":           {"basketball", "basketball/wnba"},
	"mens-college-basketball":   {"basketball", "basketball/mens-college-basketball"},
	"womens-college-basketball": {"basketball", "basketball/womens-college-basketball"},
	"nfl":            {"football", "football/nfl"},
	"college-football": {"football", "football/college-football"},
	"mlb":            {"baseball", "baseball/mlb"},
	"college-baseball": {"baseball", "baseball/college-baseball"},
	"nhl":            {"hockey", "hockey/nhl"},
	"mens-college-hockey": {"hockey", "hockey/mens-college-hockey"},
	"mls":            {"soccer", "soccer/usa.1"},
	"eng.1":          {"soccer", "soccer/eng.1"},
	"eng.2":          {"soccer", "soccer/eng.2"},
	"esp.1":          {"soccer", "soccer/esp.1"},
	"ger.1":          {"soccer", "soccer/ger.1"},
	"ita.1":          {"soccer", "soccer/ita.1"},
	"fra.1":          {"soccer", "soccer/fra.1"},
	"usa.1":          {"soccer", "soccer/usa.1"},
	"mex.1":          {"soccer", "soccer/mex.1"},
	"uefa.champions": {"soccer", "soccer/uefa.champions"},
	"uefa.europa":    {"soccer", "soccer/uefa.europa"},
	"ufc":            {"mma", "mma/ufc"},
	"pfl":            {"mma", "mma/pfl"},
	"boxing":         {"boxing", "boxing/boxing"},
	"pga":            {"golf", "golf/pga"},
	"f1":             {"racing", "racing/f1"},
	"nascar":         {"racing", "racing/nascar-premier"},
	"atp":            {"tennis", "tennis/atp"},
	"wta":            {"tennis", "tennis/wta"},
}

// StaticLeagueMap is the config-backed LeagueMappingSource. The team-league
// cache wraps it with database-discovered soccer leagues.
type StaticLeagueMap struct {
	extra map[string]leagueInfo
}

func NewStaticLeagueMap() *StaticLeagueMap {
	return &StaticLeagueMap{extra: make(map[string]leagueInfo)}
}

// AddLeague registers a discovered league (soccer expansion).
func (m *StaticLeagueMap) AddLeague(league, sport, path string) {
	m.extra[league] = leagueInfo{Sport: sport, Path: path}
}

func (m *StaticLeagueMap) APIPath(league string) (string, string, bool) {
	if info, ok := builtinLeagues[league]; ok {
		return info.Sport, info.Path, true
	}
	if info, ok := m.extra[league]; ok {
		return info.Sport, info.Path, true
	}
	// Soccer codes follow the "{country}.{tier}" convention; map them
	// directly so newly-followed competitions work without a table edit.
	if strings.Contains(league, ".") {
		return "soccer", "soccer/" + league, true
	}
	return "", "", false
}

// ExpandLeagues expands a pattern like "soccer_all" into concrete codes.
// Unknown patterns expand to an empty slice.
func (m *StaticLeagueMap) ExpandLeagues(pattern string) []string {
	switch pattern {
	case "soccer_all":
		var out []string
		for code, info := range builtinLeagues {
			if info.Sport == "soccer" {
				out = append(out, code)
			}
		}
		for code, info := range m.extra {
			if info.Sport == "soccer" {
				out = append(out, code)
			}
		}
		return out
	default:
		if _, ok := builtinLeagues[pattern]; ok {
			return []string{pattern}
		}
		logrus.Debugf("[LEAGUES] Unknown expansion pattern %q, expanding to nothing", pattern)
		return nil
	}
}

// SportForLeague is a convenience over APIPath.
func (m *StaticLeagueMap) SportForLeague(league string) string {
	sport, _, _ := m.APIPath(league)
	return sport
}
