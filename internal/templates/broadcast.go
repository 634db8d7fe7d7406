package templates

import (
	"strings"

	"github.com/teamarr/teamarr/internal/models"
)

// Subscription packages that add noise rather than telling a viewer where
// to watch.
var skipPackages = map[string]bool{
	"NBA League Pass":  true,
	"NHL.TV":           true,
	"MLB.TV":           true,
	"MLS Season Pass":  true,
}

func usableBroadcasts(broadcasts []models.Broadcast) []models.Broadcast {
	var out []models.Broadcast
	for _, b := range broadcasts {
		if b.Name == "" {
			continue
		}
		if strings.EqualFold(b.Type, "Radio") {
			continue
		}
		if skipPackages[b.Name] {
			continue
		}
		out = append(out, b)
	}
	return out
}

func isTV(b models.Broadcast) bool {
	return b.Type == "" || strings.EqualFold(b.Type, "TV")
}

func marketMatches(b models.Broadcast, market string) bool {
	return strings.EqualFold(b.Market, market)
}

// BroadcastSimple lists every watchable network, comma separated, in
// priority order: national TV, team TV, national streaming, team
// streaming, then other TV and streaming.
func BroadcastSimple(broadcasts []models.Broadcast, teamIsHome bool) string {
	usable := usableBroadcasts(broadcasts)
	if len(usable) == 0 {
		return ""
	}
	teamMarket := "away"
	if teamIsHome {
		teamMarket = "home"
	}

	var natTV, teamTV, natStream, teamStream, otherTV, otherStream []string
	for _, b := range usable {
		switch {
		case marketMatches(b, "national") && isTV(b):
			natTV = append(natTV, b.Name)
		case marketMatches(b, "national"):
			natStream = append(natStream, b.Name)
		case marketMatches(b, teamMarket) && isTV(b):
			teamTV = append(teamTV, b.Name)
		case marketMatches(b, teamMarket):
			teamStream = append(teamStream, b.Name)
		case isTV(b):
			otherTV = append(otherTV, b.Name)
		default:
			otherStream = append(otherStream, b.Name)
		}
	}

	seen := make(map[string]bool)
	var ordered []string
	for _, group := range [][]string{natTV, teamTV, natStream, teamStream, otherTV, otherStream} {
		for _, name := range group {
			if !seen[name] {
				seen[name] = true
				ordered = append(ordered, name)
			}
		}
	}
	return strings.Join(ordered, ", ")
}

// BroadcastNetwork returns the single most relevant network.
func BroadcastNetwork(broadcasts []models.Broadcast, teamIsHome bool) string {
	usable := usableBroadcasts(broadcasts)
	if len(usable) == 0 {
		return ""
	}
	teamMarket := "away"
	if teamIsHome {
		teamMarket = "home"
	}

	checks := []func(models.Broadcast) bool{
		func(b models.Broadcast) bool { return marketMatches(b, "national") && isTV(b) },
		func(b models.Broadcast) bool { return marketMatches(b, teamMarket) && isTV(b) },
		func(b models.Broadcast) bool { return marketMatches(b, "national") && !isTV(b) },
		func(b models.Broadcast) bool { return marketMatches(b, teamMarket) && !isTV(b) },
		isTV,
		func(b models.Broadcast) bool { return !isTV(b) },
	}
	for _, check := range checks {
		for _, b := range usable {
			if check(b) {
				return b.Name
			}
		}
	}
	return ""
}

// BroadcastNationalNetwork lists national-market networks only.
func BroadcastNationalNetwork(broadcasts []models.Broadcast) string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range usableBroadcasts(broadcasts) {
		if marketMatches(b, "national") && !seen[b.Name] {
			seen[b.Name] = true
			out = append(out, b.Name)
		}
	}
	return strings.Join(out, ", ")
}

// IsNationalBroadcast reports whether any broadcast is national-market.
func IsNationalBroadcast(broadcasts []models.Broadcast) bool {
	for _, b := range broadcasts {
		if marketMatches(b, "national") {
			return true
		}
	}
	return false
}
