package lifecycle

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/teamarr/teamarr/internal/models"
)

// rationalBlockGap spaces auto-placed blocks on boundaries of this size.
const rationalBlockGap = 10

// GroupChannels is one event group's channels in desired order.
type GroupChannels struct {
	Group    *models.EventGroup
	Channels []*models.ManagedChannel
}

// AssignNumbers computes channel numbers for every managed channel under
// the given mode. Numbers in external are never assigned: they belong to
// channels some other system manages. The result maps managed channel row
// id to its number; callers persist and push downstream.
func AssignNumbers(mode string, groups []GroupChannels, rangeStart int, external map[int]bool) map[uint]int {
	switch mode {
	case models.NumberingStrictCompact:
		return assignCompact(groups, rangeStart, external)
	case models.NumberingRationalBlock:
		return assignBlocks(groups, external, true)
	default:
		if mode != models.NumberingStrictBlock {
			logrus.Warnf("[NUMBERING] Unknown mode %q, using strict_block", mode)
		}
		return assignBlocks(groups, external, false)
	}
}

// assignBlocks reserves a block per group starting at the group's
// configured start number. In rational mode a group without a configured
// start gets the next gap-aligned block after the previous group.
func assignBlocks(groups []GroupChannels, external map[int]bool, rational bool) map[uint]int {
	out := make(map[uint]int)
	used := make(map[int]bool)
	highWater := 0
	for _, g := range groups {
		start := g.Group.ChannelStartNumber
		if start <= 0 {
			if rational {
				start = roundUpTo(highWater+1, rationalBlockGap)
			} else {
				start = highWater + 1
			}
		}
		n := start
		for _, ch := range g.Channels {
			n = nextFree(n, used, external)
			out[ch.ID] = n
			used[n] = true
			if n > highWater {
				highWater = n
			}
			n++
		}
	}
	return out
}

// assignCompact packs every channel into one dense global sequence.
func assignCompact(groups []GroupChannels, rangeStart int, external map[int]bool) map[uint]int {
	out := make(map[uint]int)
	used := make(map[int]bool)
	n := rangeStart
	for _, g := range groups {
		for _, ch := range g.Channels {
			n = nextFree(n, used, external)
			out[ch.ID] = n
			used[n] = true
			n++
		}
	}
	return out
}

func nextFree(n int, used, external map[int]bool) int {
	for used[n] || external[n] {
		n++
	}
	return n
}

func roundUpTo(n, multiple int) int {
	if n%multiple == 0 {
		return n
	}
	return ((n / multiple) + 1) * multiple
}

// ExternalOccupied computes the numbers owned by channels outside our
// management: everything downstream minus what we created. An empty result
// means assignment behaves exactly as without the integration.
func ExternalOccupied(downstream map[int]bool, managed []*models.ManagedChannel) map[int]bool {
	ours := make(map[int]bool, len(managed))
	for _, ch := range managed {
		if ch.ChannelNumber != nil {
			ours[*ch.ChannelNumber] = true
		}
	}
	out := make(map[int]bool)
	for n := range downstream {
		if !ours[n] {
			out[n] = true
		}
	}
	return out
}

// SortForReassignment orders channels by user sport/league priority then
// start time, the order global reassignment numbers them in.
func SortForReassignment(channels []*models.ManagedChannel, sportPriority map[string]int, leaguePriority map[string]int) {
	sort.SliceStable(channels, func(i, j int) bool {
		a, b := channels[i], channels[j]
		if pa, pb := priorityOf(a.Sport, sportPriority), priorityOf(b.Sport, sportPriority); pa != pb {
			return pa < pb
		}
		if pa, pb := priorityOf(a.League, leaguePriority), priorityOf(b.League, leaguePriority); pa != pb {
			return pa < pb
		}
		if a.EventStartTime != nil && b.EventStartTime != nil && !a.EventStartTime.Equal(*b.EventStartTime) {
			return a.EventStartTime.Before(*b.EventStartTime)
		}
		return a.ID < b.ID
	})
}

func priorityOf(key string, priorities map[string]int) int {
	if p, ok := priorities[key]; ok {
		return p
	}
	return 1 << 30
}
