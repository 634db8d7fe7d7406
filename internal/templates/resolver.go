package templates

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/teamarr/teamarr/internal/models"
)

// varPattern matches {variable} and {variable.suffix} placeholders.
// The @ covers {vs_@}.
var varPattern = regexp.MustCompile(`(?i)\{([a-z_][a-z0-9_@]*(?:\.[a-z]+)?)\}`)

// lastOnlyVars only make sense for a completed game. They are stripped
// from the base and .next variable sets.
var lastOnlyVars = map[string]bool{
	"final_score":             true,
	"opponent_score":          true,
	"overtime_text":           true,
	"result":                  true,
	"result_text":             true,
	"result_verb":             true,
	"score":                   true,
	"score_diff":              true,
	"score_differential":      true,
	"score_differential_text": true,
	"team_score":              true,
}

// baseNextOnlyVars are forward-looking (betting lines); they are stripped
// from the .last set.
var baseNextOnlyVars = map[string]bool{
	"odds_details":            true,
	"odds_favorite":           true,
	"odds_moneyline":          true,
	"odds_opponent_moneyline": true,
	"odds_over_under":         true,
	"odds_spread":             true,
}

// baseOnlyVars are team-level facts that do not vary per game slot, so the
// suffixed sets omit them.
var baseOnlyVars = map[string]bool{
	"away_record":               true,
	"away_streak":               true,
	"away_win_pct":              true,
	"games_back":                true,
	"gracenote_category":        true,
	"head_coach":                true,
	"home_record":               true,
	"home_streak":               true,
	"home_win_pct":              true,
	"is_national_broadcast":     true,
	"is_playoff":                true,
	"is_preseason":              true,
	"is_ranked":                 true,
	"is_ranked_matchup":         true,
	"is_regular_season":         true,
	"last_10_record":            true,
	"last_5_record":             true,
	"league":                    true,
	"league_id":                 true,
	"league_name":               true,
	"opponent_is_ranked":        true,
	"playoff_seed":              true,
	"pro_conference":            true,
	"pro_conference_abbrev":     true,
	"pro_division":              true,
	"soccer_primary_league":     true,
	"soccer_primary_league_id":  true,
	"sport":                     true,
	"streak":                    true,
	"team_abbrev":               true,
	"team_losses":               true,
	"team_name":                 true,
	"team_name_pascal":          true,
	"team_papg":                 true,
	"team_ppg":                  true,
	"team_rank":                 true,
	"team_record":               true,
	"team_ties":                 true,
	"team_win_pct":              true,
	"team_wins":                 true,
}

// Resolver renders template strings against a flat variable map.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// BuildVariables flattens a template context into the full variable map:
// base variables from the primary game plus .next and .last suffixed sets.
func (r *Resolver) BuildVariables(tctx *models.TemplateContext) map[string]string {
	out := make(map[string]string, 600)
	if tctx == nil {
		return out
	}

	primary := tctx.Current
	if !primary.HasEvent() && tctx.NextGame.HasEvent() {
		primary = tctx.NextGame
	}
	for name, val := range buildGameVariables(tctx, primary) {
		if lastOnlyVars[name] {
			continue
		}
		out[name] = val
	}
	if tctx.NextGame.HasEvent() {
		for name, val := range buildGameVariables(tctx, tctx.NextGame) {
			if baseOnlyVars[name] || lastOnlyVars[name] {
				continue
			}
			out[name+".next"] = val
		}
	}
	if tctx.LastGame.HasEvent() {
		for name, val := range buildGameVariables(tctx, tctx.LastGame) {
			if baseOnlyVars[name] || baseNextOnlyVars[name] {
				continue
			}
			out[name+".last"] = val
		}
	}
	return out
}

// Resolve substitutes {variable} placeholders. Unknown variables render as
// empty strings rather than leaking braces into the guide.
func (r *Resolver) Resolve(template string, vars map[string]string) string {
	if template == "" {
		return ""
	}
	return varPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.ToLower(match[1 : len(match)-1])
		if val, ok := vars[name]; ok {
			return val
		}
		logrus.Debugf("[TEMPLATE] unknown variable %q", name)
		return ""
	})
}

// ResolveContext is the common path: build variables once, render one string.
func (r *Resolver) ResolveContext(template string, tctx *models.TemplateContext) string {
	return r.Resolve(template, r.BuildVariables(tctx))
}
