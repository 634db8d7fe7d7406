package templates

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/teamarr/teamarr/internal/models"
)

// FallbackPriority marks an unconditional description option. Options at
// priorities 1..99 only apply when their condition holds.
const FallbackPriority = 100

// SelectDescription picks one description template: the lowest-priority
// bucket whose conditions hold, chosen at random within the bucket. The rng
// is injectable for deterministic tests.
func SelectDescription(options []models.DescriptionOption, tctx *models.TemplateContext, rng *rand.Rand) string {
	if len(options) == 0 {
		return ""
	}

	buckets := make(map[int][]string)
	minPriority := FallbackPriority + 1
	for _, opt := range options {
		if opt.Template == "" {
			continue
		}
		if opt.Priority != FallbackPriority && !EvaluateCondition(opt.Condition, opt.ConditionValue, tctx) {
			continue
		}
		buckets[opt.Priority] = append(buckets[opt.Priority], opt.Template)
		if opt.Priority < minPriority {
			minPriority = opt.Priority
		}
	}
	matched := buckets[minPriority]
	if len(matched) == 0 {
		return ""
	}
	if len(matched) == 1 {
		return matched[0]
	}
	if rng == nil {
		return matched[rand.Intn(len(matched))]
	}
	return matched[rng.Intn(len(matched))]
}

// EvaluateCondition tests one named condition against the context. Unknown
// conditions fail closed so a typo never promotes a conditional template.
func EvaluateCondition(condition, value string, tctx *models.TemplateContext) bool {
	if condition == "" || tctx == nil {
		return false
	}
	g := tctx.Current
	if !g.HasEvent() {
		g = tctx.NextGame
	}
	if !g.HasEvent() {
		return false
	}
	teamStats := tctx.TeamStats
	if teamStats == nil {
		teamStats = &models.TeamStats{}
	}
	oppStats := g.OpponentStats
	if oppStats == nil {
		oppStats = &models.TeamStats{}
	}

	switch condition {
	case "win_streak":
		return teamStats.Streak >= atoiDefault(value, 2)
	case "loss_streak":
		return teamStats.Streak <= -atoiDefault(value, 2)
	case "home_win_streak":
		return streakAtLeast(g.Streaks.HomeStreak, "W", atoiDefault(value, 2))
	case "home_loss_streak":
		return streakAtLeast(g.Streaks.HomeStreak, "L", atoiDefault(value, 2))
	case "away_win_streak":
		return streakAtLeast(g.Streaks.AwayStreak, "W", atoiDefault(value, 2))
	case "away_loss_streak":
		return streakAtLeast(g.Streaks.AwayStreak, "L", atoiDefault(value, 2))
	case "is_top_ten_matchup":
		return rankAtMost(teamStats.Rank, 10) && rankAtMost(oppStats.Rank, 10)
	case "is_ranked_opponent":
		return rankAtMost(oppStats.Rank, 25)
	case "is_rematch":
		return g.H2H.HasMeetings()
	case "is_home":
		return g.IsHome
	case "is_away":
		return !g.IsHome
	case "is_conference_game":
		if tctx.TeamConfig == nil || !strings.Contains(strings.ToLower(tctx.TeamConfig.League), "college") {
			return false
		}
		return teamStats.Conference != "" && teamStats.Conference == oppStats.Conference
	case "has_odds":
		return g.Event.HasOdds
	case "is_playoff":
		return g.Event.SeasonType == 3
	case "is_preseason":
		return g.Event.SeasonType == 1
	case "is_national_broadcast":
		return IsNationalBroadcast(g.Event.Broadcasts)
	case "opponent_name_contains":
		if value == "" {
			return false
		}
		return strings.Contains(strings.ToLower(g.OpponentSide.Name), strings.ToLower(value))
	default:
		logrus.Warnf("[TEMPLATE] unknown description condition %q", condition)
		return false
	}
}

// streakAtLeast parses "W3"/"L2" and tests direction plus length.
func streakAtLeast(streak, direction string, n int) bool {
	if len(streak) < 2 || !strings.HasPrefix(streak, direction) {
		return false
	}
	count, err := strconv.Atoi(streak[1:])
	if err != nil {
		return false
	}
	return count >= n
}

func rankAtMost(rank *int, limit int) bool {
	return rank != nil && *rank > 0 && *rank <= limit
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
