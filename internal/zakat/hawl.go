package zakat

import (
	"time"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// Window is the state of the holding period of one class.
// The zero value means no window is open.
type Window struct {
	AboveNow  bool
	StartedAt *time.Time
	Completed bool
	NextDueAt *time.Time
	DaysLeft  *int
}

// floorDays counts whole days in d, rounding towards negative infinity.
func floorDays(d time.Duration) int {
	days := d / day
	if d < 0 && d%day != 0 {
		days--
	}

	return int(days)
}

// OpenWindow walks the timeline and reports the window still open at its end.
// Any point below nisab discards the start; the next crossing starts again.
func OpenWindow(tl Timeline, nisab decimal.Decimal, p Params, now time.Time) Window {
	var start *time.Time

	for _, pt := range tl.Points {
		if pt.ValueUSD.LessThan(nisab) {
			start = nil
			continue
		}

		if start == nil {
			at := pt.At
			start = &at
		}
	}

	if start == nil {
		return Window{}
	}

	return windowFrom(*start, true, p, now)
}

func windowFrom(start time.Time, aboveNow bool, p Params, now time.Time) Window {
	nextDue := start.Add(p.hawl())
	completed := floorDays(now.Sub(start)) >= p.HawlDays

	daysLeft := 0
	if !completed {
		daysLeft = floorDays(nextDue.Sub(now))
	}

	return Window{
		AboveNow:  aboveNow,
		StartedAt: &start,
		Completed: completed,
		NextDueAt: &nextDue,
		DaysLeft:  &daysLeft,
	}
}
