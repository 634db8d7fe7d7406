package matching

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/teamarr/teamarr/internal/models"
)

// BothTeamsThreshold is the minimum per-side fuzzy similarity for a
// team-vs-team match.
const BothTeamsThreshold = 60

// minAbbrevLen skips 2-letter abbreviations, which collide constantly
// ("LA", "NY").
const minAbbrevLen = 3

// Match methods reported in results.
const (
	MethodAbbreviation = "abbreviation"
	MethodFuzzy        = "fuzzy"
	MethodEventCard    = "event_card"
)

// Detector is the slice of the detection service the matcher consumes.
type Detector interface {
	EventType(text string) string
	IsPlaceholder(text string) bool
	IsExcluded(text string) bool
	DetectCardSegment(text string) string
	FindSeparator(text string) (string, int)
}

// Scope bounds the candidate search.
type Scope struct {
	// SearchLeagues restricts which candidate events are considered at
	// all. Single-mode groups put their one league here; child groups put
	// their parent-resolved leagues here.
	SearchLeagues []string
	// IncludeLeagues filters final matches in multi-mode groups. Empty
	// means no filter.
	IncludeLeagues []string
}

// Result is a successful stream→event match.
type Result struct {
	Event    *models.EnrichedEvent
	Method   string
	Score    int
	Metadata map[string]string
}

// Matcher decides whether an IPTV stream name refers to a scheduled event.
type Matcher struct {
	detector Detector
	// aliases rewrites normalized stream-side names pre-match.
	aliases map[string]string
	// dayNBase anchors "Day N" stream names to a calendar; nil disables.
	dayNBase *time.Time
}

func NewMatcher(detector Detector) *Matcher {
	return &Matcher{detector: detector, aliases: map[string]string{}}
}

// SetAliases replaces the alias table. Keys and values are normalized.
func (m *Matcher) SetAliases(aliases map[string]string) {
	normalized := make(map[string]string, len(aliases))
	for k, v := range aliases {
		normalized[Normalize(k)] = Normalize(v)
	}
	m.aliases = normalized
}

// SetDayNBase anchors "Day N" names: day 1 is the base date.
func (m *Matcher) SetDayNBase(base time.Time) {
	b := base
	m.dayNBase = &b
}

// Match evaluates a stream name against candidate events for the active
// day. Returns nil when nothing matches; borderline scores never surface.
func (m *Matcher) Match(streamName string, events []models.EnrichedEvent, activeDay time.Time, scope Scope) *Result {
	norm := Normalize(streamName)
	if norm == "" {
		return nil
	}
	if m.detector.IsPlaceholder(norm) {
		return nil
	}
	if m.detector.IsExcluded(norm) {
		return nil
	}

	// A stream carrying a date for a different day is someone else's event.
	if d, ok := ExtractDate(norm); ok {
		if d.HasCalendar() {
			if !d.Matches(activeDay) {
				return nil
			}
		} else if d.DayNumber > 0 && m.dayNBase != nil {
			mapped := m.dayNBase.AddDate(0, 0, d.DayNumber-1)
			if mapped.Month() != activeDay.Month() || mapped.Day() != activeDay.Day() {
				return nil
			}
		}
	}
	masked := MaskDates(norm)

	candidates := filterByLeague(events, scope.SearchLeagues)
	if len(candidates) == 0 {
		return nil
	}

	var result *Result
	if m.detector.EventType(norm) == "EVENT_CARD" {
		result = m.matchEventCard(norm, masked, candidates)
	} else {
		result = m.matchTeamVsTeam(masked, candidates)
	}
	if result == nil {
		return nil
	}
	if len(scope.IncludeLeagues) > 0 && !leagueAllowed(result.Event, scope.IncludeLeagues) {
		logrus.Debugf("[MATCH] %q matched %s but league %s outside group scope",
			streamName, result.Event.ID, result.Event.League)
		return nil
	}
	return result
}

// matchTeamVsTeam handles "A <sep> B" streams: exact abbreviation tokens
// first, fuzzy names second. The first successful step wins.
func (m *Matcher) matchTeamVsTeam(masked string, events []models.EnrichedEvent) *Result {
	sep, pos := m.detector.FindSeparator(masked)
	if sep == "" {
		return nil
	}
	sideA := m.applyAlias(strings.TrimSpace(masked[:pos]))
	sideB := m.applyAlias(strings.TrimSpace(masked[pos+len(sep):]))
	if sideA == "" || sideB == "" {
		return nil
	}

	if r := matchByAbbreviation(sideA, sideB, events); r != nil {
		return r
	}
	return matchByFuzzy(sideA, sideB, events)
}

func matchByAbbreviation(sideA, sideB string, events []models.EnrichedEvent) *Result {
	tokensA := tokenSet(sideA)
	tokensB := tokenSet(sideB)
	for i := range events {
		ev := &events[i]
		home := abbrevTokens(ev.HomeTeam)
		away := abbrevTokens(ev.AwayTeam)
		if len(home) == 0 || len(away) == 0 {
			continue
		}
		straight := hasAny(tokensA, home) && hasAny(tokensB, away)
		reversed := hasAny(tokensA, away) && hasAny(tokensB, home)
		if straight || reversed {
			return &Result{
				Event:  ev,
				Method: MethodAbbreviation,
				Score:  100,
				Metadata: map[string]string{
					"reversed": boolStr(reversed && !straight),
				},
			}
		}
	}
	return nil
}

func matchByFuzzy(sideA, sideB string, events []models.EnrichedEvent) *Result {
	var best *Result
	for i := range events {
		ev := &events[i]
		if ev.IsTournament() {
			continue
		}
		homeA := teamSimilarity(sideA, ev.HomeTeam)
		awayB := teamSimilarity(sideB, ev.AwayTeam)
		homeB := teamSimilarity(sideB, ev.HomeTeam)
		awayA := teamSimilarity(sideA, ev.AwayTeam)

		score, reversed := 0, false
		if homeA >= BothTeamsThreshold && awayB >= BothTeamsThreshold {
			score = (homeA + awayB) / 2
		}
		if awayA >= BothTeamsThreshold && homeB >= BothTeamsThreshold {
			if rev := (awayA + homeB) / 2; rev > score {
				score, reversed = rev, true
			}
		}
		if score == 0 {
			continue
		}
		if best == nil || score > best.Score {
			best = &Result{
				Event:  ev,
				Method: MethodFuzzy,
				Score:  score,
				Metadata: map[string]string{
					"reversed": boolStr(reversed),
				},
			}
		}
	}
	return best
}

// matchEventCard aligns combat-sport streams to tournament events by
// fuzzy event name, tagging the card segment for start-time alignment.
func (m *Matcher) matchEventCard(norm, masked string, events []models.EnrichedEvent) *Result {
	var best *Result
	for i := range events {
		ev := &events[i]
		score := PartialSimilarity(masked, Normalize(ev.Name))
		if ev.ShortName != "" {
			if s := PartialSimilarity(masked, Normalize(ev.ShortName)); s > score {
				score = s
			}
		}
		if score < BothTeamsThreshold {
			continue
		}
		if best == nil || score > best.Score {
			segment := m.detector.DetectCardSegment(norm)
			if segment == "" {
				segment = "combined"
			}
			best = &Result{
				Event:    ev,
				Method:   MethodEventCard,
				Score:    score,
				Metadata: map[string]string{"card_segment": segment},
			}
		}
	}
	return best
}

func (m *Matcher) applyAlias(side string) string {
	if canonical, ok := m.aliases[side]; ok {
		return canonical
	}
	return side
}

func teamSimilarity(side string, team models.Team) int {
	best := PartialSimilarity(side, Normalize(team.Name))
	if team.ShortName != "" {
		if s := PartialSimilarity(side, Normalize(team.ShortName)); s > best {
			best = s
		}
	}
	return best
}

func abbrevTokens(team models.Team) map[string]bool {
	out := make(map[string]bool, 1)
	abbrev := strings.ToLower(strings.TrimSpace(team.Abbreviation))
	if len(abbrev) >= minAbbrevLen {
		out[abbrev] = true
	}
	return out
}

func tokenSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		if len(tok) >= minAbbrevLen {
			out[tok] = true
		}
	}
	return out
}

func hasAny(tokens, wanted map[string]bool) bool {
	for tok := range tokens {
		if wanted[tok] {
			return true
		}
	}
	return false
}

func filterByLeague(events []models.EnrichedEvent, leagues []string) []models.EnrichedEvent {
	if len(leagues) == 0 {
		return events
	}
	allowed := make(map[string]bool, len(leagues))
	for _, l := range leagues {
		allowed[l] = true
	}
	var out []models.EnrichedEvent
	for _, ev := range events {
		if allowed[ev.League] || (ev.SourceLeague != "" && allowed[ev.SourceLeague]) {
			out = append(out, ev)
		}
	}
	return out
}

func leagueAllowed(ev *models.EnrichedEvent, leagues []string) bool {
	for _, l := range leagues {
		if ev.League == l || ev.SourceLeague == l {
			return true
		}
	}
	return false
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
