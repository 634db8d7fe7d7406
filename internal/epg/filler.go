package epg

import (
	"sort"
	"time"

	"github.com/teamarr/teamarr/internal/models"
	"github.com/teamarr/teamarr/internal/templates"
)

// fillerBlockHours aligns filler chunks to 6-hour local boundaries
// (00, 06, 12, 18).
const fillerBlockHours = 6

// offseasonLookahead is how far ahead a next game must exist before idle
// filler switches to its offseason variant.
const offseasonLookahead = 30 * 24 * time.Hour

// Interval is an occupied span of the timeline (a rendered game).
type Interval struct {
	Start time.Time
	End   time.Time
}

// FillerChunk is one block-aligned gap segment with its resolved type.
type FillerChunk struct {
	Start time.Time
	End   time.Time
	Type  models.FillerType
}

// ChunkGaps splits the unoccupied parts of [windowStart, windowEnd) into
// block-aligned chunks and classifies each as pregame, postgame, or idle.
// crossoverMode decides how post-midnight hours of an overnight game render
// when the new day has no games of its own.
func ChunkGaps(games []Interval, windowStart, windowEnd time.Time, loc *time.Location, crossoverMode string) []FillerChunk {
	sorted := make([]Interval, len(games))
	copy(sorted, games)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var chunks []FillerChunk
	cursor := windowStart
	for _, g := range sorted {
		if g.Start.After(cursor) {
			chunks = append(chunks, splitGap(cursor, minTime(g.Start, windowEnd), sorted, loc, crossoverMode)...)
		}
		if g.End.After(cursor) {
			cursor = g.End
		}
		if !cursor.Before(windowEnd) {
			return chunks
		}
	}
	if cursor.Before(windowEnd) {
		chunks = append(chunks, splitGap(cursor, windowEnd, sorted, loc, crossoverMode)...)
	}
	return chunks
}

// splitGap slices one gap at 6-hour local boundaries and types each piece.
func splitGap(gapStart, gapEnd time.Time, games []Interval, loc *time.Location, crossoverMode string) []FillerChunk {
	var out []FillerChunk
	cursor := gapStart
	for cursor.Before(gapEnd) {
		end := minTime(nextBlockBoundary(cursor, loc), gapEnd)
		out = append(out, FillerChunk{
			Start: cursor,
			End:   end,
			Type:  classifyChunk(cursor, games, loc, crossoverMode),
		})
		cursor = end
	}
	return out
}

func classifyChunk(at time.Time, games []Interval, loc *time.Location, crossoverMode string) models.FillerType {
	local := at.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	gameLaterToday := false
	gameEarlierToday := false
	crossedMidnight := false
	for _, g := range games {
		gs, ge := g.Start.In(loc), g.End.In(loc)
		if !gs.Before(dayStart) && gs.Before(dayEnd) {
			if gs.After(local) {
				gameLaterToday = true
			} else {
				gameEarlierToday = true
			}
		}
		// A game that started yesterday and ended today occupies the early
		// hours; what follows it is the crossover zone.
		if gs.Before(dayStart) && ge.After(dayStart) && !ge.After(local.Add(time.Nanosecond)) {
			crossedMidnight = true
		}
	}

	switch {
	case gameLaterToday:
		return models.FillerPregame
	case gameEarlierToday:
		return models.FillerPostgame
	case crossedMidnight && crossoverMode == "postgame":
		return models.FillerPostgame
	default:
		return models.FillerIdle
	}
}

func nextBlockBoundary(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	nextHour := ((local.Hour() / fillerBlockHours) + 1) * fillerBlockHours
	boundary := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).
		Add(time.Duration(nextHour) * time.Hour)
	return boundary
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// FillerRenderer turns typed chunks into rendered filler programmes.
type FillerRenderer struct {
	Resolver   *templates.Resolver
	Template   *models.EPGTemplate
	TeamConfig *models.TeamConfig
	TeamStats  *models.TeamStats
	Contexts   *ContextBuilder
	Timezone   string
	TimeFormat models.TimeFormatSettings
}

// Render resolves one programme per chunk. Chunks whose filler type is
// disabled on the template are skipped.
func (r *FillerRenderer) Render(chunks []FillerChunk) []models.ProcessedProgramme {
	var out []models.ProcessedProgramme
	for _, chunk := range chunks {
		next, last := r.Contexts.FillerContexts(chunk.Start)
		tctx := &models.TemplateContext{
			TeamConfig:      r.TeamConfig,
			TeamStats:       r.TeamStats,
			NextGame:        next,
			LastGame:        last,
			EPGTimezone:     r.Timezone,
			ProgramDatetime: chunk.Start,
			TimeFormat:      r.TimeFormat,
		}
		title, subtitle, description, art, ok := r.templatesFor(chunk, tctx)
		if !ok {
			continue
		}
		vars := r.Resolver.BuildVariables(tctx)
		out = append(out, models.ProcessedProgramme{
			StartDatetime: chunk.Start,
			EndDatetime:   chunk.End,
			Title:         r.Resolver.Resolve(title, vars),
			Subtitle:      r.Resolver.Resolve(subtitle, vars),
			Description:   r.Resolver.Resolve(description, vars),
			ProgramArtURL: r.Resolver.Resolve(art, vars),
			Status:        models.ProgrammeFiller,
			IsFiller:      true,
			FillerType:    chunk.Type,
			Variables:     vars,
		})
	}
	return out
}

func (r *FillerRenderer) templatesFor(chunk FillerChunk, tctx *models.TemplateContext) (title, subtitle, description, art string, ok bool) {
	t := r.Template
	switch chunk.Type {
	case models.FillerPregame:
		if !t.PregameEnabled {
			return "", "", "", "", false
		}
		return t.PregameTitle, t.PregameSubtitle, r.postgameStyleDescription(
			t.PregameDescription, "", "", false, tctx), t.PregameArtURL, true
	case models.FillerPostgame:
		if !t.PostgameEnabled {
			return "", "", "", "", false
		}
		desc := r.postgameStyleDescription(t.PostgameDescription,
			t.PostgameDescriptionFinal, t.PostgameDescriptionNotFinal,
			t.PostgameConditionalEnabled, tctx)
		return t.PostgameTitle, t.PostgameSubtitle, desc, t.PostgameArtURL, true
	default:
		if !t.IdleEnabled {
			return "", "", "", "", false
		}
		title, subtitle = t.IdleTitle, t.IdleSubtitle
		desc := r.postgameStyleDescription(t.IdleDescription,
			t.IdleDescriptionFinal, t.IdleDescriptionNotFinal,
			t.IdleConditionalEnabled, tctx)
		if t.IdleOffseasonEnabled && r.isOffseason(tctx, chunk.Start) {
			if t.IdleDescriptionOffseason != "" {
				desc = t.IdleDescriptionOffseason
			}
			if t.IdleTitleOffseasonEnabled && t.IdleTitleOffseason != "" {
				title = t.IdleTitleOffseason
			}
			if t.IdleSubtitleOffseasonEnabled && t.IdleSubtitleOffseason != "" {
				subtitle = t.IdleSubtitleOffseason
			}
		}
		return title, subtitle, desc, t.IdleArtURL, true
	}
}

// postgameStyleDescription applies the final/not-final override when
// enabled, based on whether the last game completed.
func (r *FillerRenderer) postgameStyleDescription(base, finalDesc, notFinalDesc string, conditional bool, tctx *models.TemplateContext) string {
	if !conditional {
		return base
	}
	lastFinal := tctx.LastGame.HasEvent() && tctx.LastGame.Event.Status.IsFinal()
	if lastFinal && finalDesc != "" {
		return finalDesc
	}
	if !lastFinal && notFinalDesc != "" {
		return notFinalDesc
	}
	return base
}

// isOffseason reports no upcoming game within the lookahead window.
func (r *FillerRenderer) isOffseason(tctx *models.TemplateContext, at time.Time) bool {
	if !tctx.NextGame.HasEvent() {
		return true
	}
	return tctx.NextGame.Event.StartTime.After(at.Add(offseasonLookahead))
}
