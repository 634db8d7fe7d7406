package providers

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/teamarr/teamarr/internal/models"
)

const espnBaseURL = "https://site.api.espn.com/apis/site/v2/sports"

// ESPNProvider is the primary sports data provider.
type ESPNProvider struct {
	mu         sync.Mutex
	httpClient *http.Client
	leagues    LeagueMappingSource
	limiter    *RateLimiter
	breaker    *gobreaker.CircuitBreaker
	timeout    time.Duration
	retryCount int
}

// NewESPNProvider builds the provider with a bounded connection pool, a
// shared token-bucket limiter and a circuit breaker around HTTP calls.
func NewESPNProvider(leagues LeagueMappingSource, ratePerSecond float64, timeout time.Duration, retryCount int) *ESPNProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if retryCount <= 0 {
		retryCount = 3
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "espn",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.Warnf("[ESPN] Circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return &ESPNProvider{
		httpClient: newESPNHTTPClient(timeout),
		leagues:    leagues,
		limiter:    NewRateLimiter(ratePerSecond, int(math.Max(ratePerSecond, 1))),
		breaker:    breaker,
		timeout:    timeout,
		retryCount: retryCount,
	}
}

func newESPNHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func (p *ESPNProvider) Name() string    { return "espn" }
func (p *ESPNProvider) IsPremium() bool { return true }

func (p *ESPNProvider) SupportsLeague(league string) bool {
	_, _, ok := p.leagues.APIPath(league)
	return ok
}

// Limiter exposes the shared rate limiter for stats reporting.
func (p *ESPNProvider) Limiter() *RateLimiter { return p.limiter }

// ============================================================================
// ESPN wire types
// ============================================================================

type espnScoreboardResponse struct {
	Events []espnEvent `json:"events"`
}

type espnScheduleResponse struct {
	Events []espnEvent `json:"events"`
}

type espnSummaryResponse struct {
	Header struct {
		ID           string            `json:"id"`
		Season       espnSeason        `json:"season"`
		Competitions []espnCompetition `json:"competitions"`
	} `json:"header"`
}

type espnSeason struct {
	Year int `json:"year"`
	Type int `json:"type"`
}

type espnEvent struct {
	ID           string            `json:"id"`
	Date         string            `json:"date"`
	Name         string            `json:"name"`
	ShortName    string            `json:"shortName"`
	Season       espnSeason        `json:"season"`
	Competitions []espnCompetition `json:"competitions"`
	Status       espnStatus        `json:"status"`
}

type espnVenue struct {
	FullName string `json:"fullName"`
	Address  struct {
		City    string `json:"city"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

type espnCompetition struct {
	ID            string             `json:"id"`
	Date          string             `json:"date"`
	Venue         espnVenue          `json:"venue"`
	Competitors   []espnCompetitor   `json:"competitors"`
	Odds          []espnOdds         `json:"odds"`
	Broadcasts    []espnBroadcast    `json:"broadcasts"`
	GeoBroadcasts []espnGeoBroadcast `json:"geoBroadcasts"`
	Status        espnStatus         `json:"status"`
}

type espnCompetitor struct {
	ID          string               `json:"id"`
	HomeAway    string               `json:"homeAway"`
	Winner      bool                 `json:"winner"`
	Team        espnTeam             `json:"team"`
	Score       json.RawMessage      `json:"score"`
	Records     []espnRecord         `json:"records"`
	CuratedRank struct{ Current int `json:"current"` } `json:"curatedRank"`
	Leaders     []espnLeaderCategory `json:"leaders"`
}

type espnTeam struct {
	ID               string `json:"id"`
	Location         string `json:"location"`
	Name             string `json:"name"`
	Abbreviation     string `json:"abbreviation"`
	DisplayName      string `json:"displayName"`
	ShortDisplayName string `json:"shortDisplayName"`
	Color            string `json:"color"`
	Logo             string `json:"logo"`
	Logos            []struct {
		Href string `json:"href"`
	} `json:"logos"`
}

type espnRecord struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Summary string `json:"summary"`
}

type espnStatus struct {
	Type struct {
		Name      string `json:"name"`
		State     string `json:"state"`
		Completed bool   `json:"completed"`
		Detail    string `json:"detail"`
	} `json:"type"`
	Period       int    `json:"period"`
	DisplayClock string `json:"displayClock"`
}

type espnOdds struct {
	Details      string  `json:"details"`
	OverUnder    float64 `json:"overUnder"`
	Spread       float64 `json:"spread"`
	HomeTeamOdds espnTeamOdds `json:"homeTeamOdds"`
	AwayTeamOdds espnTeamOdds `json:"awayTeamOdds"`
}

type espnTeamOdds struct {
	Favorite  bool `json:"favorite"`
	MoneyLine int  `json:"moneyLine"`
	Team      struct {
		Abbreviation string `json:"abbreviation"`
	} `json:"team"`
}

type espnBroadcast struct {
	Market string   `json:"market"`
	Names  []string `json:"names"`
}

type espnGeoBroadcast struct {
	Type struct {
		ShortName string `json:"shortName"`
	} `json:"type"`
	Market struct {
		Type string `json:"type"`
	} `json:"market"`
	Media struct {
		ShortName string `json:"shortName"`
	} `json:"media"`
	Lang string `json:"lang"`
}

type espnLeaderCategory struct {
	Name    string `json:"name"`
	Leaders []struct {
		Value        float64 `json:"value"`
		DisplayValue string  `json:"displayValue"`
		Athlete      struct {
			DisplayName string `json:"displayName"`
			Position    struct {
				Abbreviation string `json:"abbreviation"`
			} `json:"position"`
		} `json:"athlete"`
	} `json:"leaders"`
}

type espnTeamResponse struct {
	Team struct {
		ID               string `json:"id"`
		DisplayName      string `json:"displayName"`
		ShortDisplayName string `json:"shortDisplayName"`
		Abbreviation     string `json:"abbreviation"`
		Color            string `json:"color"`
		Rank             int    `json:"rank"`
		StandingSummary  string `json:"standingSummary"`
		Logos            []struct {
			Href string `json:"href"`
		} `json:"logos"`
		Record struct {
			Items []struct {
				Type    string `json:"type"`
				Summary string `json:"summary"`
				Stats   []struct {
					Name  string  `json:"name"`
					Value float64 `json:"value"`
				} `json:"stats"`
			} `json:"items"`
		} `json:"record"`
		Groups struct {
			Parent struct {
				Name         string `json:"name"`
				Abbreviation string `json:"abbreviation"`
			} `json:"parent"`
			Name         string `json:"name"`
			Abbreviation string `json:"abbreviation"`
			IsConference bool   `json:"isConference"`
		} `json:"groups"`
		Coaches []struct {
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
		} `json:"coaches"`
	} `json:"team"`
}

// ============================================================================
// Provider operations
// ============================================================================

func (p *ESPNProvider) GetEvents(ctx context.Context, league string, date time.Time) ([]models.EnrichedEvent, error) {
	_, path, ok := p.leagues.APIPath(league)
	if !ok {
		return nil, fmt.Errorf("league %q not supported", league)
	}
	sport, _, _ := p.leagues.APIPath(league)

	url := fmt.Sprintf("%s/%s/scoreboard?dates=%s", espnBaseURL, path, date.Format("20060102"))
	var resp espnScoreboardResponse
	if err := p.makeRequest(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("scoreboard fetch for %s: %w", league, err)
	}

	events := make([]models.EnrichedEvent, 0, len(resp.Events))
	for _, raw := range resp.Events {
		ev, err := p.convertEvent(raw, league, sport)
		if err != nil {
			logrus.Warnf("[ESPN] Dropping malformed event %s in %s: %v", raw.ID, league, err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (p *ESPNProvider) GetTeamSchedule(ctx context.Context, teamID, league string, daysAhead int) ([]models.EnrichedEvent, error) {
	sport, path, ok := p.leagues.APIPath(league)
	if !ok {
		return nil, fmt.Errorf("league %q not supported", league)
	}

	url := fmt.Sprintf("%s/%s/teams/%s/schedule", espnBaseURL, path, teamID)
	var resp espnScheduleResponse
	if err := p.makeRequest(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("schedule fetch for %s/%s: %w", league, teamID, err)
	}

	events := make([]models.EnrichedEvent, 0, len(resp.Events))
	for _, raw := range resp.Events {
		ev, err := p.convertEvent(raw, league, sport)
		if err != nil {
			logrus.Warnf("[ESPN] Dropping malformed schedule event %s: %v", raw.ID, err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (p *ESPNProvider) GetEvent(ctx context.Context, eventID, league string) (*models.EnrichedEvent, error) {
	sport, path, ok := p.leagues.APIPath(league)
	if !ok {
		return nil, fmt.Errorf("league %q not supported", league)
	}

	url := fmt.Sprintf("%s/%s/summary?event=%s", espnBaseURL, path, eventID)
	var resp espnSummaryResponse
	if err := p.makeRequest(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("event fetch %s/%s: %w", league, eventID, err)
	}
	if len(resp.Header.Competitions) == 0 {
		return nil, fmt.Errorf("event %s has no competitions", eventID)
	}

	raw := espnEvent{
		ID:           resp.Header.ID,
		Date:         resp.Header.Competitions[0].Date,
		Season:       resp.Header.Season,
		Competitions: resp.Header.Competitions,
		Status:       resp.Header.Competitions[0].Status,
	}
	ev, err := p.convertEvent(raw, league, sport)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (p *ESPNProvider) GetTeam(ctx context.Context, teamID, league string) (*models.Team, error) {
	sport, path, ok := p.leagues.APIPath(league)
	if !ok {
		return nil, fmt.Errorf("league %q not supported", league)
	}

	url := fmt.Sprintf("%s/%s/teams/%s", espnBaseURL, path, teamID)
	var resp espnTeamResponse
	if err := p.makeRequest(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("team fetch %s/%s: %w", league, teamID, err)
	}

	logo := ""
	if len(resp.Team.Logos) > 0 {
		logo = resp.Team.Logos[0].Href
	}
	return &models.Team{
		ID:           resp.Team.ID,
		Provider:     p.Name(),
		Name:         resp.Team.DisplayName,
		ShortName:    resp.Team.ShortDisplayName,
		Abbreviation: resp.Team.Abbreviation,
		League:       league,
		Sport:        sport,
		LogoURL:      logo,
		Color:        resp.Team.Color,
	}, nil
}

func (p *ESPNProvider) GetTeamStats(ctx context.Context, teamID, league string) (*models.TeamStats, error) {
	_, path, ok := p.leagues.APIPath(league)
	if !ok {
		return nil, fmt.Errorf("league %q not supported", league)
	}

	url := fmt.Sprintf("%s/%s/teams/%s", espnBaseURL, path, teamID)
	var resp espnTeamResponse
	if err := p.makeRequest(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("team stats fetch %s/%s: %w", league, teamID, err)
	}

	stats := &models.TeamStats{}
	for _, item := range resp.Team.Record.Items {
		switch item.Type {
		case "total":
			stats.Record = item.Summary
			for _, s := range item.Stats {
				switch s.Name {
				case "wins":
					stats.Wins = int(s.Value)
				case "losses":
					stats.Losses = int(s.Value)
				case "ties", "draws":
					stats.Ties = int(s.Value)
				case "streak":
					stats.Streak = int(s.Value)
				case "playoffSeed":
					seed := int(s.Value)
					if seed > 0 {
						stats.PlayoffSeed = &seed
					}
				case "gamesBehind":
					if s.Value > 0 {
						stats.GamesBack = strconv.FormatFloat(s.Value, 'f', -1, 64)
					}
				case "avgPointsFor":
					stats.PPG = s.Value
				case "avgPointsAgainst":
					stats.PAPG = s.Value
				}
			}
		case "home":
			stats.HomeRecord = item.Summary
		case "road", "away":
			stats.AwayRecord = item.Summary
		}
	}
	if resp.Team.Rank > 0 {
		rank := resp.Team.Rank
		stats.Rank = &rank
	}
	if resp.Team.Groups.IsConference {
		stats.Conference = resp.Team.Groups.Name
		stats.ConferenceAbbrev = resp.Team.Groups.Abbreviation
	} else {
		stats.Conference = resp.Team.Groups.Parent.Name
		stats.ConferenceAbbrev = resp.Team.Groups.Parent.Abbreviation
		stats.Division = resp.Team.Groups.Name
		stats.DivisionAbbrev = resp.Team.Groups.Abbreviation
	}
	return stats, nil
}

func (p *ESPNProvider) GetHeadCoach(ctx context.Context, teamID, league string) (string, error) {
	_, path, ok := p.leagues.APIPath(league)
	if !ok {
		return "", fmt.Errorf("league %q not supported", league)
	}

	url := fmt.Sprintf("%s/%s/teams/%s?enable=coaches", espnBaseURL, path, teamID)
	var resp espnTeamResponse
	if err := p.makeRequest(ctx, url, &resp); err != nil {
		return "", fmt.Errorf("coach fetch %s/%s: %w", league, teamID, err)
	}
	if len(resp.Team.Coaches) == 0 {
		return "", nil
	}
	c := resp.Team.Coaches[0]
	return strings.TrimSpace(c.FirstName + " " + c.LastName), nil
}

// ListLeagues enumerates league slugs for a sport from the core API. Used
// by the team-league cache refresher to discover soccer competitions.
func (p *ESPNProvider) ListLeagues(ctx context.Context, sport string) ([]string, error) {
	url := fmt.Sprintf("https://sports.core.api.espn.com/v2/sports/%s/leagues?limit=200", sport)
	var resp struct {
		Items []struct {
			Ref string `json:"$ref"`
		} `json:"items"`
	}
	if err := p.makeRequest(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("league list fetch for %s: %w", sport, err)
	}
	slugs := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		ref := item.Ref
		if i := strings.IndexByte(ref, '?'); i >= 0 {
			ref = ref[:i]
		}
		ref = strings.TrimSuffix(ref, "/")
		if i := strings.LastIndexByte(ref, '/'); i >= 0 {
			ref = ref[i+1:]
		}
		if ref != "" {
			slugs = append(slugs, ref)
		}
	}
	return slugs, nil
}

// ListTeams enumerates every team in a league.
func (p *ESPNProvider) ListTeams(ctx context.Context, league string) ([]models.Team, error) {
	sport, path, ok := p.leagues.APIPath(league)
	if !ok {
		return nil, fmt.Errorf("league %q not supported", league)
	}

	url := fmt.Sprintf("%s/%s/teams?limit=500", espnBaseURL, path)
	var resp struct {
		Sports []struct {
			Leagues []struct {
				Teams []struct {
					Team espnTeam `json:"team"`
				} `json:"teams"`
			} `json:"leagues"`
		} `json:"sports"`
	}
	if err := p.makeRequest(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("team list fetch for %s: %w", league, err)
	}

	var out []models.Team
	for _, s := range resp.Sports {
		for _, l := range s.Leagues {
			for _, entry := range l.Teams {
				t := entry.Team
				logo := ""
				if len(t.Logos) > 0 {
					logo = t.Logos[0].Href
				}
				out = append(out, models.Team{
					ID:           t.ID,
					Provider:     p.Name(),
					Name:         t.DisplayName,
					ShortName:    t.ShortDisplayName,
					Abbreviation: t.Abbreviation,
					League:       league,
					Sport:        sport,
					LogoURL:      logo,
					Color:        t.Color,
				})
			}
		}
	}
	return out, nil
}

// ============================================================================
// Conversion
// ============================================================================

func (p *ESPNProvider) convertEvent(raw espnEvent, league, sport string) (models.EnrichedEvent, error) {
	start, err := parseESPNDate(raw.Date)
	if err != nil {
		return models.EnrichedEvent{}, fmt.Errorf("bad date %q: %w", raw.Date, err)
	}
	if len(raw.Competitions) == 0 {
		return models.EnrichedEvent{}, fmt.Errorf("no competitions")
	}
	comp := raw.Competitions[0]

	ev := models.Event{
		ID:         raw.ID,
		Provider:   p.Name(),
		Name:       raw.Name,
		ShortName:  raw.ShortName,
		StartTime:  start,
		League:     league,
		Sport:      sport,
		SeasonYear: raw.Season.Year,
		SeasonType: raw.Season.Type,
		Status:     convertStatus(raw.Status, comp.Status),
	}

	if comp.Venue.FullName != "" {
		ev.Venue = &models.Venue{
			Name:    comp.Venue.FullName,
			City:    comp.Venue.Address.City,
			State:   comp.Venue.Address.State,
			Country: comp.Venue.Address.Country,
		}
	}

	for _, c := range comp.Competitors {
		team := models.Team{
			ID:           c.Team.ID,
			Provider:     p.Name(),
			Name:         c.Team.DisplayName,
			ShortName:    c.Team.ShortDisplayName,
			Abbreviation: c.Team.Abbreviation,
			League:       league,
			Sport:        sport,
			LogoURL:      c.Team.Logo,
			Color:        c.Team.Color,
		}
		score := parseESPNScore(c.Score)
		switch c.HomeAway {
		case "home":
			ev.HomeTeam = team
			ev.HomeScore = score
		case "away":
			ev.AwayTeam = team
			ev.AwayScore = score
		default:
			// Tournament-style entries: the event stands for itself.
			if ev.HomeTeam.ID == "" {
				ev.HomeTeam = team
				ev.AwayTeam = team
			}
		}
		if len(c.Leaders) > 0 {
			if ev.Leaders == nil {
				ev.Leaders = make(map[string][]models.LeaderCategory)
			}
			ev.Leaders[c.Team.ID] = convertLeaders(c.Leaders)
		}
	}
	// Tournament placeholders: no home/away sides at all.
	if ev.HomeTeam.ID == "" && ev.AwayTeam.ID == "" {
		placeholder := models.Team{
			ID:       raw.ID,
			Provider: p.Name(),
			Name:     raw.Name,
			League:   league,
			Sport:    sport,
		}
		ev.HomeTeam = placeholder
		ev.AwayTeam = placeholder
	}

	ev.Broadcasts = convertBroadcasts(comp)

	// Combat sports: prelims start at the event time, the main card is the
	// later competition when present.
	if (sport == "mma" || sport == "boxing") && len(raw.Competitions) > 1 {
		latest := start
		for _, c := range raw.Competitions[1:] {
			if t, err := parseESPNDate(c.Date); err == nil && t.After(latest) {
				latest = t
			}
		}
		if latest.After(start) {
			ev.MainCardStart = &latest
		}
	}

	enriched := models.EnrichedEvent{Event: ev}
	applyOdds(&enriched, comp.Odds)
	return enriched, nil
}

func convertStatus(eventStatus, compStatus espnStatus) models.EventStatus {
	st := eventStatus
	if st.Type.Name == "" {
		st = compStatus
	}
	out := models.EventStatus{
		Detail: st.Type.Detail,
		Period: st.Period,
		Clock:  st.DisplayClock,
	}
	switch {
	case strings.Contains(st.Type.Name, "POSTPONED"):
		out.State = models.StatePostponed
	case strings.Contains(st.Type.Name, "CANCELED"), strings.Contains(st.Type.Name, "CANCELLED"):
		out.State = models.StateCancelled
	case st.Type.Completed || st.Type.State == "post":
		out.State = models.StateFinal
	case st.Type.State == "in":
		out.State = models.StateLive
	default:
		out.State = models.StateScheduled
	}
	return out
}

func convertBroadcasts(comp espnCompetition) []models.Broadcast {
	var out []models.Broadcast
	seen := make(map[string]bool)
	for _, gb := range comp.GeoBroadcasts {
		name := gb.Media.ShortName
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		btype := gb.Type.ShortName
		if btype == "Web" {
			btype = "Streaming"
		}
		out = append(out, models.Broadcast{
			Name:     name,
			Type:     btype,
			Market:   strings.ToLower(gb.Market.Type),
			Language: gb.Lang,
		})
	}
	for _, b := range comp.Broadcasts {
		for _, name := range b.Names {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, models.Broadcast{
				Name:   name,
				Type:   "TV",
				Market: strings.ToLower(b.Market),
			})
		}
	}
	return out
}

func convertLeaders(raw []espnLeaderCategory) []models.LeaderCategory {
	out := make([]models.LeaderCategory, 0, len(raw))
	for _, cat := range raw {
		converted := models.LeaderCategory{Name: cat.Name}
		for _, l := range cat.Leaders {
			converted.Leaders = append(converted.Leaders, models.LeaderEntry{
				AthleteName:  l.Athlete.DisplayName,
				Position:     l.Athlete.Position.Abbreviation,
				Value:        l.Value,
				DisplayValue: l.DisplayValue,
			})
		}
		out = append(out, converted)
	}
	return out
}

func applyOdds(ev *models.EnrichedEvent, odds []espnOdds) {
	if len(odds) == 0 {
		return
	}
	o := odds[0]
	if o.Details == "" && o.OverUnder == 0 {
		return
	}
	ev.HasOdds = true
	ev.OddsDetails = o.Details
	if o.OverUnder > 0 {
		ev.OddsOverUnder = strconv.FormatFloat(o.OverUnder, 'f', -1, 64)
	}
	if o.Spread != 0 {
		ev.OddsSpread = strconv.FormatFloat(math.Abs(o.Spread), 'f', -1, 64)
	}
	switch {
	case o.HomeTeamOdds.Favorite:
		ev.OddsFavorite = o.HomeTeamOdds.Team.Abbreviation
	case o.AwayTeamOdds.Favorite:
		ev.OddsFavorite = o.AwayTeamOdds.Team.Abbreviation
	}
	if o.HomeTeamOdds.MoneyLine != 0 {
		ev.HomeMoneyline = formatMoneyline(o.HomeTeamOdds.MoneyLine)
	}
	if o.AwayTeamOdds.MoneyLine != 0 {
		ev.AwayMoneyline = formatMoneyline(o.AwayTeamOdds.MoneyLine)
	}
}

func formatMoneyline(ml int) string {
	if ml > 0 {
		return fmt.Sprintf("+%d", ml)
	}
	return strconv.Itoa(ml)
}

// parseESPNScore handles score arriving as a string, number or object.
func parseESPNScore(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return &n
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		n := int(f)
		return &n
	}
	var obj struct {
		Value        float64 `json:"value"`
		DisplayValue string  `json:"displayValue"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Value != 0 {
			n := int(obj.Value)
			return &n
		}
		if n, err := strconv.Atoi(obj.DisplayValue); err == nil {
			return &n
		}
	}
	return nil
}

// parseESPNDate accepts both "2026-02-11T19:00Z" and RFC3339 forms.
func parseESPNDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range []string{"2006-01-02T15:04Z07:00", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}

// ============================================================================
// HTTP plumbing
// ============================================================================

// makeRequest performs a rate-limited GET with retry and linear backoff,
// wrapped in the circuit breaker. TLS errors reset the connection pool
// before the next attempt.
func (p *ESPNProvider) makeRequest(ctx context.Context, url string, target interface{}) error {
	if err := p.limiter.Acquire(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	_, err := p.breaker.Execute(func() (interface{}, error) {
		var lastErr error
		for attempt := 0; attempt < p.retryCount; attempt++ {
			if attempt > 0 {
				wait := time.Duration(attempt) * time.Second
				logrus.Warnf("[ESPN] Request failed (attempt %d/%d), waiting %v: %v",
					attempt, p.retryCount, wait, lastErr)
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}
			resp, err := p.client().Do(req)
			if err != nil {
				if isTLSError(err) {
					logrus.Warnf("[ESPN] TLS error, resetting connection pool: %v", err)
					p.resetClient()
				}
				lastErr = err
				continue
			}
			if resp.StatusCode != http.StatusOK {
				resp.Body.Close()
				lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
				continue
			}
			err = json.NewDecoder(resp.Body).Decode(target)
			resp.Body.Close()
			if err != nil {
				lastErr = fmt.Errorf("decode response: %w", err)
				continue
			}
			return nil, nil
		}
		return nil, fmt.Errorf("request failed after %d attempts: %w", p.retryCount, lastErr)
	})
	return err
}

func (p *ESPNProvider) client() *http.Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.httpClient
}

func (p *ESPNProvider) resetClient() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.httpClient.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
	p.httpClient = newESPNHTTPClient(p.timeout)
}

func isTLSError(err error) bool {
	if err == nil {
		return false
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "tls:") || strings.Contains(msg, "TLS handshake")
}
