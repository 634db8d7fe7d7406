package templates

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teamarr/teamarr/internal/models"
)

// FormatTime renders a local time per user preferences: 12/24 hour and an
// optional timezone abbreviation.
func FormatTime(local time.Time, tf models.TimeFormatSettings) string {
	var s string
	if tf.Use24Hour {
		s = local.Format("15:04")
	} else {
		s = local.Format("3:04 PM")
		if tf.LowercaseAMPM {
			s = strings.ToLower(s)
		}
	}
	if tf.ShowTimezone {
		s += " " + local.Format("MST")
	}
	return s
}

// Ordinal renders 1 → "1st", 2 → "2nd", 11 → "11th". Zero renders empty.
func Ordinal(n int) string {
	if n == 0 {
		return ""
	}
	suffix := "th"
	if n%100 < 10 || n%100 > 20 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// RankText renders "#N" for ranked teams (top 25), empty otherwise.
func RankText(rank *int) string {
	if rank == nil || *rank <= 0 || *rank > 25 {
		return ""
	}
	return "#" + strconv.Itoa(*rank)
}

// PascalCase strips spaces and punctuation, capitalizing each word:
// "Detroit Red Wings" → "DetroitRedWings".
func PascalCase(s string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range s {
		switch {
		case r == ' ' || r == '-' || r == '.' || r == '\'' || r == '&':
			upperNext = true
		case upperNext:
			b.WriteRune(toUpper(r))
			upperNext = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 32
	}
	return r
}

// WinPct renders a winning percentage like ".750" with ties as half-wins.
func WinPct(wins, losses, ties int) string {
	total := wins + losses + ties
	if total == 0 {
		return ".000"
	}
	pct := (float64(wins) + float64(ties)*0.5) / float64(total)
	return fmt.Sprintf(".%03d", int(pct*1000))
}

// WinPctFromRecord parses "5-2" or "3-1-1" and renders the percentage.
// Three-part records are W-T-L (soccer W-D-L ordering).
func WinPctFromRecord(record string) string {
	if record == "" || record == "0-0" {
		return ".000"
	}
	parts := strings.Split(record, "-")
	toInt := func(s string) int {
		n, _ := strconv.Atoi(strings.TrimSpace(s))
		return n
	}
	switch len(parts) {
	case 2:
		return WinPct(toInt(parts[0]), toInt(parts[1]), 0)
	case 3:
		return WinPct(toInt(parts[0]), toInt(parts[2]), toInt(parts[1]))
	default:
		return ".000"
	}
}

var sportDisplayNames = map[string]string{
	"basketball": "Basketball",
	"football":   "Football",
	"hockey":     "Hockey",
	"baseball":   "Baseball",
	"soccer":     "Soccer",
	"mma":        "MMA",
	"boxing":     "Boxing",
	"golf":       "Golf",
	"tennis":     "Tennis",
	"racing":     "Racing",
}

// SportDisplayName maps an API sport code to its display form.
func SportDisplayName(code string) string {
	if name, ok := sportDisplayNames[code]; ok {
		return name
	}
	if code == "" {
		return ""
	}
	return strings.ToUpper(code[:1]) + code[1:]
}

var leagueDisplayNames = map[string]string{
	"nba":                       "NBA",
	"wnba":                      "WNBA",
	"nfl":                       "NFL",
	"mlb":                       "MLB",
	"nhl":                       "NHL",
	"mls":                       "MLS",
	"mens-college-basketball":   "NCAA Basketball",
	"womens-college-basketball": "NCAA Women's Basketball",
	"college-football":          "NCAA Football",
	"eng.1":                     "Premier League",
	"esp.1":                     "La Liga",
	"ger.1":                     "Bundesliga",
	"ita.1":                     "Serie A",
	"fra.1":                     "Ligue 1",
	"mex.1":                     "Liga MX",
	"uefa.champions":            "Champions League",
	"uefa.europa":               "Europa League",
	"ufc":                       "UFC",
	"pga":                       "PGA Tour",
}

// LeagueDisplayName maps a league code to its display form; unknown codes
// are uppercased.
func LeagueDisplayName(code string) string {
	if name, ok := leagueDisplayNames[code]; ok {
		return name
	}
	return strings.ToUpper(code)
}

// leagueAliases are short display codes for leagues whose slugs are long.
var leagueAliases = map[string]string{
	"mens-college-basketball":   "ncaam",
	"womens-college-basketball": "ncaaw",
	"college-football":          "ncaaf",
	"college-baseball":          "ncaabb",
	"mens-college-hockey":       "ncaah",
}

// LeagueAlias returns the friendly short code for a league slug.
func LeagueAlias(code string) string {
	if alias, ok := leagueAliases[code]; ok {
		return alias
	}
	return code
}

// GracenoteCategory renders the downstream guide category, e.g.
// "NFL Football" or "College Basketball".
func GracenoteCategory(league, sport string) string {
	switch league {
	case "mens-college-basketball", "womens-college-basketball":
		return "College Basketball"
	case "college-football":
		return "College Football"
	case "college-baseball":
		return "College Baseball"
	}
	name := LeagueDisplayName(league)
	sportName := SportDisplayName(sport)
	if name == "" {
		return sportName
	}
	if sportName == "" {
		return name
	}
	return name + " " + sportName
}
