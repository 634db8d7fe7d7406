package epg

import (
	"fmt"
	"sort"
	"time"

	"github.com/teamarr/teamarr/internal/models"
)

// ContextBuilder derives current/next/last game contexts for one team from
// its extended schedule. The schedule is sorted ascending by start time once
// at construction; all lookups are positional from there.
type ContextBuilder struct {
	teamID   string
	teamName string
	sport    string
	extended []models.EnrichedEvent
}

func NewContextBuilder(teamID, teamName, sport string, extended []models.EnrichedEvent) *ContextBuilder {
	sorted := make([]models.EnrichedEvent, len(extended))
	copy(sorted, extended)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})
	return &ContextBuilder{teamID: teamID, teamName: teamName, sport: sport, extended: sorted}
}

// Contexts builds the three game contexts surrounding one event. Next and
// last are relative to the event's own date, not the wall clock, so a
// programme three days out still shows its correct neighbors.
func (b *ContextBuilder) Contexts(ev *models.EnrichedEvent) (current, next, last *models.GameContext) {
	current = b.gameContext(ev)
	if n := b.eventAfter(ev.StartTime); n != nil {
		next = b.gameContext(n)
	}
	if l := b.eventBefore(ev.StartTime); l != nil {
		last = b.gameContext(l)
	}
	return current, next, last
}

// FillerContexts builds next/last contexts for a filler chunk at a point in
// time. The last game is the most recent whose start has passed, whether or
// not it completed; the resolver decides which variables surface.
func (b *ContextBuilder) FillerContexts(at time.Time) (next, last *models.GameContext) {
	if n := b.eventAtOrAfter(at); n != nil {
		next = b.gameContext(n)
	}
	if l := b.eventBefore(at); l != nil {
		last = b.gameContext(l)
	}
	return next, last
}

// gameContext projects one event into the team's point of view.
func (b *ContextBuilder) gameContext(ev *models.EnrichedEvent) *models.GameContext {
	side, isHome := ev.SideOf(b.teamID, b.teamName)
	opp := ev.OpponentOf(side.ID)
	return &models.GameContext{
		Event:         ev,
		IsHome:        isHome,
		TeamSide:      side,
		OpponentSide:  opp,
		H2H:           b.headToHead(opp, ev.StartTime),
		Streaks:       b.streaks(),
		PlayerLeaders: extractLeaders(ev, side.ID, b.sport),
	}
}

func (b *ContextBuilder) eventAfter(t time.Time) *models.EnrichedEvent {
	for i := range b.extended {
		if b.extended[i].StartTime.After(t) {
			return &b.extended[i]
		}
	}
	return nil
}

func (b *ContextBuilder) eventAtOrAfter(t time.Time) *models.EnrichedEvent {
	for i := range b.extended {
		if !b.extended[i].StartTime.Before(t) {
			return &b.extended[i]
		}
	}
	return nil
}

func (b *ContextBuilder) eventBefore(t time.Time) *models.EnrichedEvent {
	for i := len(b.extended) - 1; i >= 0; i-- {
		if b.extended[i].StartTime.Before(t) {
			return &b.extended[i]
		}
	}
	return nil
}

// headToHead summarizes completed meetings against one opponent before the
// given date.
func (b *ContextBuilder) headToHead(opp models.Team, before time.Time) models.HeadToHead {
	var h models.HeadToHead
	for i := range b.extended {
		ev := &b.extended[i]
		if !ev.StartTime.Before(before) {
			break
		}
		if !ev.Status.IsFinal() || ev.HomeScore == nil || ev.AwayScore == nil {
			continue
		}
		evOpp := ev.OpponentOf(b.teamID)
		if opp.ID == "" || evOpp.ID != opp.ID {
			continue
		}
		ourScore, theirScore := b.scoresFor(ev)
		switch {
		case ourScore > theirScore:
			h.TeamWins++
			h.PreviousResult = "Win"
			h.PreviousWinner, h.PreviousLoser = b.teamName, opp.Name
		case theirScore > ourScore:
			h.OpponentWins++
			h.PreviousResult = "Loss"
			h.PreviousWinner, h.PreviousLoser = opp.Name, b.teamName
		default:
			h.PreviousResult = "Tie"
		}
		h.PreviousScore = fmt.Sprintf("%d-%d", ourScore, theirScore)
		side, _ := ev.SideOf(b.teamID, b.teamName)
		h.PreviousAbbrev = fmt.Sprintf("%s %d vs %s %d",
			side.Abbreviation, ourScore, evOpp.Abbreviation, theirScore)
		h.PreviousDate = ev.StartTime.Format("Jan 2")
		if ev.Venue != nil {
			h.PreviousVenue = ev.Venue.Name
		}
		h.DaysSince = int(before.Sub(ev.StartTime).Hours() / 24)
	}
	return h
}

type gameOutcome struct {
	won, drew, home bool
}

// streaks computes location splits and trailing records over completed
// games. Draws break streaks without extending them.
func (b *ContextBuilder) streaks() models.Streaks {
	var completed []gameOutcome
	for i := range b.extended {
		ev := &b.extended[i]
		if !ev.Status.IsFinal() || ev.HomeScore == nil || ev.AwayScore == nil {
			continue
		}
		_, isHome := ev.SideOf(b.teamID, b.teamName)
		our, their := b.scoresFor(ev)
		completed = append(completed, gameOutcome{won: our > their, drew: our == their, home: isHome})
	}

	var s models.Streaks
	s.HomeStreak = locationStreak(completed, func(o gameOutcome) bool { return o.home })
	s.AwayStreak = locationStreak(completed, func(o gameOutcome) bool { return !o.home })

	record := func(n int) string {
		if len(completed) < n {
			return ""
		}
		w, d, l := 0, 0, 0
		for _, o := range completed[len(completed)-n:] {
			switch {
			case o.drew:
				d++
			case o.won:
				w++
			default:
				l++
			}
		}
		// Soccer renders W-D-L; sports without draws render W-L.
		if b.sport == "soccer" {
			return fmt.Sprintf("%d-%d-%d", w, d, l)
		}
		return fmt.Sprintf("%d-%d", w, l)
	}
	s.Last5Record = record(5)
	s.Last10Record = record(10)
	return s
}

func locationStreak(completed []gameOutcome, match func(gameOutcome) bool) string {
	count := 0
	won := false
	for i := len(completed) - 1; i >= 0; i-- {
		o := completed[i]
		if !match(o) {
			continue
		}
		if o.drew {
			break
		}
		if count == 0 {
			won = o.won
			count = 1
			continue
		}
		if o.won != won {
			break
		}
		count++
	}
	if count == 0 {
		return ""
	}
	if won {
		return fmt.Sprintf("W%d", count)
	}
	return fmt.Sprintf("L%d", count)
}

func (b *ContextBuilder) scoresFor(ev *models.EnrichedEvent) (our, their int) {
	_, isHome := ev.SideOf(b.teamID, b.teamName)
	if isHome {
		return *ev.HomeScore, *ev.AwayScore
	}
	return *ev.AwayScore, *ev.HomeScore
}

// extractLeaders pulls sport-specific player leader lines from scoreboard
// enrichment. Only the team's own bucket is consulted.
func extractLeaders(ev *models.EnrichedEvent, teamID, sport string) models.PlayerLeaders {
	var out models.PlayerLeaders
	if ev == nil || len(ev.Leaders) == 0 {
		return out
	}
	cats, ok := ev.Leaders[teamID]
	if !ok {
		return out
	}
	top := func(name string) *models.LeaderEntry {
		for i := range cats {
			if cats[i].Name == name && len(cats[i].Leaders) > 0 {
				return &cats[i].Leaders[0]
			}
		}
		return nil
	}
	switch sport {
	case "basketball":
		if e := top("points"); e != nil {
			out.BasketballScoringLeaderName = e.AthleteName
			out.BasketballScoringLeaderPoints = e.DisplayValue
		}
	case "football":
		if e := top("passingLeader"); e != nil {
			out.FootballPassingLeaderName = e.AthleteName
			out.FootballPassingLeaderStats = e.DisplayValue
		}
		if e := top("rushingLeader"); e != nil {
			out.FootballRushingLeaderName = e.AthleteName
			out.FootballRushingLeaderStats = e.DisplayValue
		}
		if e := top("receivingLeader"); e != nil {
			out.FootballReceivingLeaderName = e.AthleteName
			out.FootballReceivingLeaderStats = e.DisplayValue
		}
	case "hockey":
		if e := top("goals"); e != nil {
			out.HockeyTopScorerName = e.AthleteName
			out.HockeyTopScorerPosition = e.Position
			out.HockeyTopScorerGoals = e.DisplayValue
		}
		if e := top("assists"); e != nil {
			out.HockeyTopPlaymakerName = e.AthleteName
			out.HockeyTopPlaymakerPosition = e.Position
			out.HockeyTopPlaymakerAssists = e.DisplayValue
		}
	}
	return out
}
