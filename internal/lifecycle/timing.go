package lifecycle

import (
	"fmt"
	"time"

	"github.com/teamarr/teamarr/internal/models"
)

// CreateAt computes when a channel for an event should come into
// existence. Nil means "as soon as a stream is available".
func CreateAt(eventStart time.Time, timing string, loc *time.Location) *time.Time {
	local := eventStart.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	var at time.Time
	switch timing {
	case models.CreateSameDay:
		at = midnight
	case models.CreateDayBefore:
		at = midnight.AddDate(0, 0, -1)
	case models.Create2DaysBefore:
		at = midnight.AddDate(0, 0, -2)
	case models.Create3DaysBefore:
		at = midnight.AddDate(0, 0, -3)
	case models.Create1WeekBefore:
		at = midnight.AddDate(0, 0, -7)
	default: // stream_available
		return nil
	}
	return &at
}

// DeleteAt computes when a channel should be torn down after its event
// ends. Nil means "when the stream disappears".
func DeleteAt(eventEnd time.Time, timing string, loc *time.Location) *time.Time {
	local := eventEnd.In(loc)
	nextMidnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	var at time.Time
	switch timing {
	case models.Delete6HoursAfter:
		at = eventEnd.Add(6 * time.Hour)
	case models.DeleteSameDay:
		at = nextMidnight
	case models.DeleteDayAfter:
		at = nextMidnight.AddDate(0, 0, 1)
	case models.Delete2DaysAfter:
		at = nextMidnight.AddDate(0, 0, 2)
	case models.Delete3DaysAfter:
		at = nextMidnight.AddDate(0, 0, 3)
	case models.Delete1WeekAfter:
		at = nextMidnight.AddDate(0, 0, 7)
	default: // stream_removed
		return nil
	}
	return &at
}

// DuplicateKey identifies an event instance for consolidation: under
// "consolidate" handling, one channel serves the event per keyword across
// groups; under "split" every group gets its own.
func DuplicateKey(handling string, groupID uint, eventID, keyword string) string {
	if handling == "split" {
		return fmt.Sprintf("%d|%s|%s", groupID, eventID, keyword)
	}
	return eventID + "|" + keyword
}
