package aggregate

import (
	"sort"
	"time"

	"github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"
)

// DefaultBoardSize is the number of rows shown on each leaderboard.
const DefaultBoardSize = 5

// TopFunding returns active leads ordered by requested amount, largest first.
func TopFunding(leads []model.Lead, n int) []model.Lead {
	active := make([]model.Lead, 0, len(leads))
	for _, lead := range leads {
		if !lead.Status.Terminal() {
			active = append(active, lead)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].AmountLookingFor > active[j].AmountLookingFor
	})
	return truncate(active, n)
}

// AtRisk returns active leads with a default history in input order.
func AtRisk(leads []model.Lead, n int) []model.Lead {
	risky := make([]model.Lead, 0)
	for _, lead := range leads {
		if lead.HasDefaults && !lead.Status.Terminal() {
			risky = append(risky, lead)
		}
	}
	return truncate(risky, n)
}

// Callback is a scheduled follow-up on the callbacks board.
type Callback struct {
	Lead    model.Lead
	At      time.Time
	Overdue bool
}

// UpcomingCallbacks returns scheduled callbacks ordered soonest first. A
// callback is overdue when it is strictly before now and the lead is still
// active. A callback without a time of day counts as due at the end of its
// day.
func UpcomingCallbacks(leads []model.Lead, n int, now time.Time, loc *time.Location) []Callback {
	if loc == nil {
		loc = time.UTC
	}
	callbacks := make([]Callback, 0)
	for _, lead := range leads {
		at, ok := lead.CallbackAt(loc)
		if !ok {
			continue
		}
		callbacks = append(callbacks, Callback{
			Lead:    lead,
			At:      at,
			Overdue: isOverdue(lead, at, now),
		})
	}
	sort.SliceStable(callbacks, func(i, j int) bool {
		return callbacks[i].At.Before(callbacks[j].At)
	})
	return truncate(callbacks, n)
}

func isOverdue(lead model.Lead, at, now time.Time) bool {
	if lead.Status.Terminal() {
		return false
	}
	if lead.CallbackTime == nil {
		return !now.Before(at.AddDate(0, 0, 1))
	}
	return at.Before(now)
}

// Stats are the headline numbers of the dashboard.
type Stats struct {
	Total          int
	InPipeline     int
	FollowUpsDue   int
	ClosedFunded   int
	PipelineAmount float64
}

// Summarize computes dashboard stats. Follow-ups due counts active leads whose
// callback falls on or before today.
func Summarize(leads []model.Lead, now time.Time, loc *time.Location) Stats {
	if loc == nil {
		loc = time.UTC
	}
	today := model.DateOf(now.In(loc))

	var stats Stats
	for _, lead := range leads {
		stats.Total++
		if lead.Status == model.StatusClosedFunded {
			stats.ClosedFunded++
		}
		if lead.Status.Terminal() {
			continue
		}
		stats.InPipeline++
		stats.PipelineAmount += lead.AmountLookingFor
		if lead.CallbackDate != nil && !lead.CallbackDate.IsZero() && !lead.CallbackDate.After(today) {
			stats.FollowUpsDue++
		}
	}
	return stats
}

// truncate keeps the first n items; a negative n keeps everything.
func truncate[T any](items []T, n int) []T {
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}
