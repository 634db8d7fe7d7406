package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/teamarr/teamarr/internal/models"
)

const tsdbBaseURL = "https://www.thesportsdb.com/api/v1/json"

// tsdbLeagueNames maps canonical league codes to TheSportsDB league names.
// Coverage is intentionally partial; the registry falls back here only when
// the primary provider has nothing.
var tsdbLeagueNames = map[string]string{
	"nba":   "NBA",
	"nfl":   "NFL",
	"mlb":   "MLB",
	"nhl":   "NHL",
	"mls":   "American Major League Soccer",
	"eng.1": "English Premier League",
	"esp.1": "Spanish La Liga",
	"ger.1": "German Bundesliga",
	"ita.1": "Italian Serie A",
	"fra.1": "French Ligue 1",
}

// TSDBProvider is the TheSportsDB fallback provider. The free tier is
// schedule-limited, so it reports itself as non-premium.
type TSDBProvider struct {
	httpClient *http.Client
	apiKey     string
	limiter    *RateLimiter
	retryCount int
}

func NewTSDBProvider(apiKey string, timeout time.Duration) *TSDBProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if apiKey == "" {
		apiKey = "3" // shared free tier key
	}
	return &TSDBProvider{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		// Free tier allows 30 requests/minute.
		limiter:    NewRateLimiter(0.5, 2),
		retryCount: 3,
	}
}

func (p *TSDBProvider) Name() string    { return "tsdb" }
func (p *TSDBProvider) IsPremium() bool { return false }

func (p *TSDBProvider) SupportsLeague(league string) bool {
	_, ok := tsdbLeagueNames[league]
	return ok
}

func (p *TSDBProvider) Limiter() *RateLimiter { return p.limiter }

type tsdbEventsResponse struct {
	Events []tsdbEvent `json:"events"`
}

type tsdbEvent struct {
	IDEvent        string `json:"idEvent"`
	StrEvent       string `json:"strEvent"`
	StrHomeTeam    string `json:"strHomeTeam"`
	StrAwayTeam    string `json:"strAwayTeam"`
	IDHomeTeam     string `json:"idHomeTeam"`
	IDAwayTeam     string `json:"idAwayTeam"`
	IntHomeScore   string `json:"intHomeScore"`
	IntAwayScore   string `json:"intAwayScore"`
	StrTimestamp   string `json:"strTimestamp"`
	StrStatus      string `json:"strStatus"`
	StrVenue       string `json:"strVenue"`
	StrLeague      string `json:"strLeague"`
	StrSport       string `json:"strSport"`
	IntRound       string `json:"intRound"`
	StrSeason      string `json:"strSeason"`
}

type tsdbTeamsResponse struct {
	Teams []struct {
		IDTeam           string `json:"idTeam"`
		StrTeam          string `json:"strTeam"`
		StrTeamShort     string `json:"strTeamShort"`
		StrTeamBadge     string `json:"strTeamBadge"`
		StrLeague        string `json:"strLeague"`
		StrSport         string `json:"strSport"`
	} `json:"teams"`
}

func (p *TSDBProvider) GetEvents(ctx context.Context, league string, date time.Time) ([]models.EnrichedEvent, error) {
	leagueName, ok := tsdbLeagueNames[league]
	if !ok {
		return nil, fmt.Errorf("league %q not supported", league)
	}
	u := fmt.Sprintf("%s/%s/eventsday.php?d=%s&l=%s",
		tsdbBaseURL, p.apiKey, date.Format("2006-01-02"), url.QueryEscape(leagueName))

	var resp tsdbEventsResponse
	if err := p.makeRequest(ctx, u, &resp); err != nil {
		return nil, err
	}
	events := make([]models.EnrichedEvent, 0, len(resp.Events))
	for _, raw := range resp.Events {
		ev, err := p.convertEvent(raw, league)
		if err != nil {
			logrus.Warnf("[TSDB] Dropping malformed event %s: %v", raw.IDEvent, err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (p *TSDBProvider) GetTeamSchedule(ctx context.Context, teamID, league string, daysAhead int) ([]models.EnrichedEvent, error) {
	// Free tier exposes next/last 5 events only.
	var out []models.EnrichedEvent
	for _, endpoint := range []string{"eventsnext.php", "eventslast.php"} {
		u := fmt.Sprintf("%s/%s/%s?id=%s", tsdbBaseURL, p.apiKey, endpoint, teamID)
		var resp struct {
			Events  []tsdbEvent `json:"events"`
			Results []tsdbEvent `json:"results"`
		}
		if err := p.makeRequest(ctx, u, &resp); err != nil {
			logrus.Debugf("[TSDB] %s failed for team %s: %v", endpoint, teamID, err)
			continue
		}
		raws := resp.Events
		if len(raws) == 0 {
			raws = resp.Results
		}
		for _, raw := range raws {
			ev, err := p.convertEvent(raw, league)
			if err != nil {
				continue
			}
			out = append(out, ev)
		}
	}
	return out, nil
}

func (p *TSDBProvider) GetTeam(ctx context.Context, teamID, league string) (*models.Team, error) {
	u := fmt.Sprintf("%s/%s/lookupteam.php?id=%s", tsdbBaseURL, p.apiKey, teamID)
	var resp tsdbTeamsResponse
	if err := p.makeRequest(ctx, u, &resp); err != nil {
		return nil, err
	}
	if len(resp.Teams) == 0 {
		return nil, nil
	}
	t := resp.Teams[0]
	return &models.Team{
		ID:           t.IDTeam,
		Provider:     p.Name(),
		Name:         t.StrTeam,
		Abbreviation: t.StrTeamShort,
		League:       league,
		Sport:        t.StrSport,
		LogoURL:      t.StrTeamBadge,
	}, nil
}

func (p *TSDBProvider) GetEvent(ctx context.Context, eventID, league string) (*models.EnrichedEvent, error) {
	u := fmt.Sprintf("%s/%s/lookupevent.php?id=%s", tsdbBaseURL, p.apiKey, eventID)
	var resp tsdbEventsResponse
	if err := p.makeRequest(ctx, u, &resp); err != nil {
		return nil, err
	}
	if len(resp.Events) == 0 {
		return nil, nil
	}
	ev, err := p.convertEvent(resp.Events[0], league)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (p *TSDBProvider) GetTeamStats(ctx context.Context, teamID, league string) (*models.TeamStats, error) {
	// Not available on the free tier.
	return nil, nil
}

func (p *TSDBProvider) GetHeadCoach(ctx context.Context, teamID, league string) (string, error) {
	return "", nil
}

func (p *TSDBProvider) convertEvent(raw tsdbEvent, league string) (models.EnrichedEvent, error) {
	if raw.StrTimestamp == "" {
		return models.EnrichedEvent{}, fmt.Errorf("event %s has no timestamp", raw.IDEvent)
	}
	start, err := time.Parse("2006-01-02T15:04:05", raw.StrTimestamp)
	if err != nil {
		return models.EnrichedEvent{}, fmt.Errorf("bad timestamp %q: %w", raw.StrTimestamp, err)
	}

	ev := models.Event{
		ID:        raw.IDEvent,
		Provider:  p.Name(),
		Name:      raw.StrEvent,
		StartTime: start.UTC(),
		League:    league,
		Sport:     raw.StrSport,
		HomeTeam: models.Team{
			ID: raw.IDHomeTeam, Provider: p.Name(), Name: raw.StrHomeTeam, League: league,
		},
		AwayTeam: models.Team{
			ID: raw.IDAwayTeam, Provider: p.Name(), Name: raw.StrAwayTeam, League: league,
		},
	}
	if raw.StrVenue != "" {
		ev.Venue = &models.Venue{Name: raw.StrVenue}
	}
	if n, err := strconv.Atoi(raw.IntHomeScore); err == nil {
		ev.HomeScore = &n
	}
	if n, err := strconv.Atoi(raw.IntAwayScore); err == nil {
		ev.AwayScore = &n
	}
	switch raw.StrStatus {
	case "Match Finished", "FT", "Final":
		ev.Status = models.EventStatus{State: models.StateFinal, Detail: raw.StrStatus}
	case "Not Started", "NS", "":
		ev.Status = models.EventStatus{State: models.StateScheduled}
	case "Postponed":
		ev.Status = models.EventStatus{State: models.StatePostponed, Detail: raw.StrStatus}
	case "Cancelled", "Canceled":
		ev.Status = models.EventStatus{State: models.StateCancelled, Detail: raw.StrStatus}
	default:
		ev.Status = models.EventStatus{State: models.StateLive, Detail: raw.StrStatus}
	}
	return models.EnrichedEvent{Event: ev}, nil
}

func (p *TSDBProvider) makeRequest(ctx context.Context, url string, target interface{}) error {
	if err := p.limiter.Acquire(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	var lastErr error
	for attempt := 0; attempt < p.retryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := p.httpClient.Do(req)
		if err != nil {
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
		return nil
	}
	return fmt.Errorf("request failed after %d attempts: %w", p.retryCount, lastErr)
}
