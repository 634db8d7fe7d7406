package services

import (
	"encoding/json"
	"regexp"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/teamarr/teamarr/internal/models"
)

// Keyword categories stored in detection_keywords.
const (
	CategoryEventType    = "event_type_keywords"
	CategoryLeagueHints  = "league_hints"
	CategorySportHints   = "sport_hints"
	CategoryPlaceholders = "placeholders"
	CategoryCardSegments = "card_segments"
	CategoryExclusions   = "exclusions"
	CategorySeparators   = "separators"
	CategoryExceptions   = "exception_keywords"
)

// Exception-keyword behaviors. "split" routes the stream to a keyword
// variant channel; "ignore" drops the stream entirely.
const (
	ExceptionSplit  = "split"
	ExceptionIgnore = "ignore"
)

// Stream event types produced by classification. TeamVsTeam is detected
// via separators rather than keywords.
const (
	EventTypeCard       = "EVENT_CARD"
	EventTypeField      = "FIELD_EVENT"
	EventTypeTeamVsTeam = "TEAM_VS_TEAM"
)

// Built-in defaults. User rows extend and take precedence over these.

var builtinEventTypeKeywords = map[string][]string{
	EventTypeCard: {
		"ufc", "bellator", "pfl", "one championship", "boxing",
		"fight night", "main card", "prelims", "early prelims",
		"main event", "title fight", "ppv",
	},
	EventTypeField: {
		"pga", "golf", "masters", "open championship",
		"f1", "formula 1", "grand prix", "nascar",
		"atp", "wta", "tennis",
	},
}

type leagueHint struct {
	pattern string
	// One code, or several for umbrella brands spanning leagues.
	leagues []string
}

var builtinLeagueHints = []leagueHint{
	{`\bnba\b`, []string{"nba"}},
	{`\bwnba\b`, []string{"wnba"}},
	{`\bnfl\b`, []string{"nfl"}},
	{`\bmlb\b`, []string{"mlb"}},
	{`\bnhl\b`, []string{"nhl"}},
	{`\bmls\b`, []string{"mls"}},
	{`\bufc\b`, []string{"ufc"}},
	{`\bpfl\b`, []string{"pfl"}},
	{`\bpga\b`, []string{"pga"}},
	{`premier league`, []string{"eng.1"}},
	{`\bepl\b`, []string{"eng.1"}},
	{`la liga`, []string{"esp.1"}},
	{`bundesliga`, []string{"ger.1"}},
	{`serie a`, []string{"ita.1"}},
	{`ligue 1`, []string{"fra.1"}},
	{`liga mx`, []string{"mex.1"}},
	{`champions league`, []string{"uefa.champions"}},
	{`europa league`, []string{"uefa.europa"}},
	{`college football|\bncaaf\b`, []string{"college-football"}},
	{`college basketball|\bncaab\b`, []string{"mens-college-basketball", "womens-college-basketball"}},
	{`monday night football|sunday night football|thursday night football`, []string{"nfl"}},
}

var builtinSportHints = []struct {
	pattern string
	sport   string
}{
	{`basketball`, "basketball"},
	{`football`, "football"},
	{`baseball`, "baseball"},
	{`hockey`, "hockey"},
	{`soccer|futbol`, "soccer"},
	{`\bmma\b|fight`, "mma"},
	{`boxing`, "boxing"},
	{`golf`, "golf"},
	{`tennis`, "tennis"},
	{`racing|motorsport`, "racing"},
}

var builtinPlaceholderPatterns = []string{
	`\btbd\b`,
	`\btba\b`,
	`to be (announced|determined)`,
	`coming soon`,
	`no event`,
	`off ?air`,
	`placeholder`,
	`channel \d+$`,
}

var builtinCardSegmentPatterns = []struct {
	pattern string
	segment string
}{
	{`early prelims`, "early_prelims"},
	{`prelims`, "prelims"},
	{`main card`, "main_card"},
	{`full (card|event)`, "combined"},
}

var builtinExclusionPatterns = []string{
	`weigh[- ]?ins?`,
	`press conference`,
	`post[- ]?fight`,
	`embedded`,
	`countdown`,
	`face[- ]?offs?`,
}

var builtinSeparators = []string{" vs ", " vs. ", " v ", " @ ", " at ", " x "}

type compiledHint struct {
	re      *regexp.Regexp
	targets []string
}

// exceptionRule pairs a user exception keyword with its behavior.
type exceptionRule struct {
	re       *regexp.Regexp
	keyword  string
	behavior string
}

// compiledPatterns is one immutable snapshot of every compiled category.
type compiledPatterns struct {
	eventType    map[string][]*regexp.Regexp
	leagueHints  []compiledHint
	sportHints   []compiledHint
	placeholders []*regexp.Regexp
	cardSegments []compiledHint
	exclusions   []*regexp.Regexp
	separators   []string
	exceptions   []exceptionRule
}

// DetectionService loads detection patterns from built-ins merged with
// user rows. Compiled patterns are cached; Invalidate drops the snapshot
// after keyword edits and the next call recompiles.
type DetectionService struct {
	db *gorm.DB

	mu       sync.RWMutex
	compiled *compiledPatterns
}

func NewDetectionService(db *gorm.DB) *DetectionService {
	return &DetectionService{db: db}
}

// Invalidate drops the compiled snapshot.
func (s *DetectionService) Invalidate() {
	s.mu.Lock()
	s.compiled = nil
	s.mu.Unlock()
	logrus.Info("[DETECT] Pattern cache invalidated")
}

// Warm compiles all categories and returns per-category counts.
func (s *DetectionService) Warm() map[string]int {
	c := s.patterns()
	total := 0
	for _, res := range c.eventType {
		total += len(res)
	}
	return map[string]int{
		"event_type_keywords": total,
		"league_hints":        len(c.leagueHints),
		"sport_hints":         len(c.sportHints),
		"placeholders":        len(c.placeholders),
		"card_segments":       len(c.cardSegments),
		"exclusions":          len(c.exclusions),
		"separators":          len(c.separators),
		"exception_keywords":  len(c.exceptions),
	}
}

// EventType classifies a stream name by keyword. TEAM_VS_TEAM is never
// returned here; callers detect it via FindSeparator.
func (s *DetectionService) EventType(text string) string {
	for eventType, patterns := range s.patterns().eventType {
		if eventType == EventTypeTeamVsTeam {
			continue
		}
		for _, re := range patterns {
			if re.MatchString(text) {
				return eventType
			}
		}
	}
	return ""
}

// IsCombatSport reports whether the text carries an event-card keyword.
func (s *DetectionService) IsCombatSport(text string) bool {
	return s.EventType(text) == EventTypeCard
}

// DetectLeagues returns the league codes hinted by the text; umbrella
// brands may hint several. Nil when nothing matches.
func (s *DetectionService) DetectLeagues(text string) []string {
	for _, h := range s.patterns().leagueHints {
		if h.re.MatchString(text) {
			return h.targets
		}
	}
	return nil
}

// DetectSport returns the sport hinted by the text, empty when unknown.
func (s *DetectionService) DetectSport(text string) string {
	for _, h := range s.patterns().sportHints {
		if h.re.MatchString(text) {
			return h.targets[0]
		}
	}
	return ""
}

// IsPlaceholder reports whether the stream is a filler/placeholder entry.
func (s *DetectionService) IsPlaceholder(text string) bool {
	for _, re := range s.patterns().placeholders {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// DetectCardSegment returns the card segment for a combat stream name,
// empty when none is named.
func (s *DetectionService) DetectCardSegment(text string) string {
	for _, h := range s.patterns().cardSegments {
		if h.re.MatchString(text) {
			return h.targets[0]
		}
	}
	return ""
}

// IsExcluded reports whether the stream is ancillary content (weigh-ins,
// press conferences) that must never match an event.
func (s *DetectionService) IsExcluded(text string) bool {
	for _, re := range s.patterns().exclusions {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// CheckException returns the first user exception keyword present in the
// stream name and its behavior. ("", "") when no keyword matches. Rules
// are ordered by priority, so the highest-priority match wins.
func (s *DetectionService) CheckException(text string) (keyword, behavior string) {
	for _, rule := range s.patterns().exceptions {
		if rule.re.MatchString(text) {
			return rule.keyword, rule.behavior
		}
	}
	return "", ""
}

// FindSeparator locates the first game separator in the text. Returns the
// separator and its byte position, or ("", -1).
func (s *DetectionService) FindSeparator(text string) (string, int) {
	lower := strings.ToLower(text)
	for _, sep := range s.patterns().separators {
		if pos := strings.Index(lower, strings.ToLower(sep)); pos != -1 {
			return sep, pos
		}
	}
	return "", -1
}

// Separators returns the active separator list, user entries first.
func (s *DetectionService) Separators() []string {
	return s.patterns().separators
}

func (s *DetectionService) patterns() *compiledPatterns {
	s.mu.RLock()
	c := s.compiled
	s.mu.RUnlock()
	if c != nil {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.compiled == nil {
		s.compiled = s.compile()
	}
	return s.compiled
}

func (s *DetectionService) userKeywords(category string) []models.DetectionKeyword {
	if s.db == nil {
		return nil
	}
	var rows []models.DetectionKeyword
	err := s.db.
		Where("category = ? AND enabled = ?", category, true).
		Order("priority DESC, keyword").
		Find(&rows).Error
	if err != nil {
		logrus.Debugf("[DETECT] Could not load user keywords for %s: %v", category, err)
		return nil
	}
	return rows
}

// compileKeyword turns a row into a case-insensitive regexp; plain text is
// quoted as a literal. Invalid patterns return nil.
func compileKeyword(kw models.DetectionKeyword) *regexp.Regexp {
	expr := kw.Keyword
	if !kw.IsRegex {
		expr = regexp.QuoteMeta(expr)
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		logrus.Warnf("[DETECT] Invalid %s pattern %q: %v", kw.Category, kw.Keyword, err)
		return nil
	}
	return re
}

func compileBuiltin(expr string) *regexp.Regexp {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		logrus.Warnf("[DETECT] Invalid built-in pattern %q: %v", expr, err)
		return nil
	}
	return re
}

func (s *DetectionService) compile() *compiledPatterns {
	c := &compiledPatterns{eventType: make(map[string][]*regexp.Regexp)}

	// Event type keywords use word boundaries so "wbo" never matches
	// inside "Cowboys". User rows come first within each type.
	userByType := make(map[string][]string)
	for _, kw := range s.userKeywords(CategoryEventType) {
		eventType := kw.TargetValue
		if eventType == "" {
			eventType = EventTypeCard
		}
		userByType[eventType] = append(userByType[eventType], strings.ToLower(kw.Keyword))
	}
	for eventType, userList := range userByType {
		seen := make(map[string]bool, len(userList))
		for _, word := range userList {
			seen[word] = true
			if re := compileBuiltin(`\b` + regexp.QuoteMeta(word) + `\b`); re != nil {
				c.eventType[eventType] = append(c.eventType[eventType], re)
			}
		}
		for _, word := range builtinEventTypeKeywords[eventType] {
			if !seen[word] {
				if re := compileBuiltin(`\b` + regexp.QuoteMeta(word) + `\b`); re != nil {
					c.eventType[eventType] = append(c.eventType[eventType], re)
				}
			}
		}
	}
	for eventType, words := range builtinEventTypeKeywords {
		if _, done := userByType[eventType]; done {
			continue
		}
		for _, word := range words {
			if re := compileBuiltin(`\b` + regexp.QuoteMeta(word) + `\b`); re != nil {
				c.eventType[eventType] = append(c.eventType[eventType], re)
			}
		}
	}

	// League hints; target_value may be a JSON array for umbrella brands.
	for _, kw := range s.userKeywords(CategoryLeagueHints) {
		re := compileKeyword(kw)
		if re == nil {
			continue
		}
		var targets []string
		if err := json.Unmarshal([]byte(kw.TargetValue), &targets); err != nil || len(targets) == 0 {
			targets = []string{kw.TargetValue}
		}
		c.leagueHints = append(c.leagueHints, compiledHint{re: re, targets: targets})
	}
	for _, h := range builtinLeagueHints {
		if re := compileBuiltin(h.pattern); re != nil {
			c.leagueHints = append(c.leagueHints, compiledHint{re: re, targets: h.leagues})
		}
	}

	for _, kw := range s.userKeywords(CategorySportHints) {
		if re := compileKeyword(kw); re != nil {
			c.sportHints = append(c.sportHints, compiledHint{re: re, targets: []string{kw.TargetValue}})
		}
	}
	for _, h := range builtinSportHints {
		if re := compileBuiltin(h.pattern); re != nil {
			c.sportHints = append(c.sportHints, compiledHint{re: re, targets: []string{h.sport}})
		}
	}

	for _, kw := range s.userKeywords(CategoryPlaceholders) {
		if re := compileKeyword(kw); re != nil {
			c.placeholders = append(c.placeholders, re)
		}
	}
	for _, expr := range builtinPlaceholderPatterns {
		if re := compileBuiltin(expr); re != nil {
			c.placeholders = append(c.placeholders, re)
		}
	}

	for _, kw := range s.userKeywords(CategoryCardSegments) {
		segment := kw.TargetValue
		if segment == "" {
			segment = "combined"
		}
		if re := compileKeyword(kw); re != nil {
			c.cardSegments = append(c.cardSegments, compiledHint{re: re, targets: []string{segment}})
		}
	}
	for _, p := range builtinCardSegmentPatterns {
		if re := compileBuiltin(p.pattern); re != nil {
			c.cardSegments = append(c.cardSegments, compiledHint{re: re, targets: []string{p.segment}})
		}
	}

	for _, kw := range s.userKeywords(CategoryExclusions) {
		if re := compileKeyword(kw); re != nil {
			c.exclusions = append(c.exclusions, re)
		}
	}
	for _, expr := range builtinExclusionPatterns {
		if re := compileBuiltin(expr); re != nil {
			c.exclusions = append(c.exclusions, re)
		}
	}

	// Exception keywords are purely user-configured; target_value carries
	// the behavior and defaults to split.
	for _, kw := range s.userKeywords(CategoryExceptions) {
		behavior := kw.TargetValue
		if behavior != ExceptionIgnore {
			behavior = ExceptionSplit
		}
		if re := compileKeyword(kw); re != nil {
			c.exceptions = append(c.exceptions, exceptionRule{
				re:       re,
				keyword:  strings.ToLower(kw.Keyword),
				behavior: behavior,
			})
		}
	}

	userSeps := s.userKeywords(CategorySeparators)
	seenSep := make(map[string]bool, len(userSeps))
	for _, kw := range userSeps {
		c.separators = append(c.separators, kw.Keyword)
		seenSep[strings.ToLower(kw.Keyword)] = true
	}
	for _, sep := range builtinSeparators {
		if !seenSep[strings.ToLower(sep)] {
			c.separators = append(c.separators, sep)
		}
	}

	logrus.Debugf("[DETECT] Compiled patterns: %d league hints, %d sport hints, %d placeholders, %d exclusions",
		len(c.leagueHints), len(c.sportHints), len(c.placeholders), len(c.exclusions))
	return c
}
