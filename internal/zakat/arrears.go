package zakat

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	"github.com/MrJamesThe3rd/zakati/internal/valuation"
)

// Cycle is one completed hawl inside an open window.
type Cycle struct {
	DueAt        time.Time
	BaseUSD      decimal.Decimal
	RequiredUSD  decimal.Decimal
	RemainingUSD decimal.Decimal
}

// Allocation is the result of applying payments to cycles oldest first.
type Allocation struct {
	Cycles     []Cycle
	Paid       decimal.Decimal
	Unapplied  decimal.Decimal
	TotalDue   decimal.Decimal
	NextUnpaid *Cycle
}

// EnumerateCycles lists every due date start+k*hawl up to now. Enumeration
// stops at the first due date where the class was below nisab.
func EnumerateCycles(tl Timeline, start time.Time, nisab decimal.Decimal, p Params, now time.Time) []Cycle {
	var cycles []Cycle

	for due := start.Add(p.hawl()); !due.After(now); due = due.Add(p.hawl()) {
		base := tl.ValueAt(due)
		if base.LessThan(nisab) {
			break
		}

		required := valuation.Round(base.Mul(p.Rate))
		cycles = append(cycles, Cycle{
			DueAt:        due,
			BaseUSD:      base,
			RequiredUSD:  required,
			RemainingUSD: required,
		})
	}

	return cycles
}

// PaidSince sums the base value of ZAKAT_OUT transfers at or after since.
func PaidSince(transfers []*ledger.Transfer, since time.Time) decimal.Decimal {
	paid := decimal.Zero

	for _, t := range transfers {
		if t.Type != ledger.TypeZakatOut || t.OccurredAt.Before(since) {
			continue
		}

		paid = paid.Add(valuation.ToBase(t.Quantity, t.Asset))
	}

	return valuation.Round(paid)
}

// Allocate applies paid to cycles oldest first. The input is not modified.
func Allocate(cycles []Cycle, paid decimal.Decimal) Allocation {
	alloc := Allocation{
		Cycles:   make([]Cycle, len(cycles)),
		Paid:     paid,
		TotalDue: decimal.Zero,
	}

	left := paid

	for i, c := range cycles {
		applied := decimal.Min(left, c.RequiredUSD)
		if applied.IsNegative() {
			applied = decimal.Zero
		}

		left = left.Sub(applied)
		c.RemainingUSD = valuation.Round(c.RequiredUSD.Sub(applied))
		alloc.Cycles[i] = c
		alloc.TotalDue = alloc.TotalDue.Add(c.RemainingUSD)

		if alloc.NextUnpaid == nil && c.RemainingUSD.IsPositive() {
			alloc.NextUnpaid = &alloc.Cycles[i]
		}
	}

	alloc.TotalDue = valuation.Round(alloc.TotalDue)
	alloc.Unapplied = valuation.Round(decimal.Max(left, decimal.Zero))

	return alloc
}

// Settle resolves a completed window against the payments made since its first
// due date. When every cycle is paid the window restarts at the last due date.
func Settle(w Window, tl Timeline, transfers []*ledger.Transfer, nisab decimal.Decimal, p Params, now time.Time) (Window, Allocation) {
	if !w.Completed || w.StartedAt == nil {
		return w, Allocation{}
	}

	cycles := EnumerateCycles(tl, *w.StartedAt, nisab, p, now)
	if len(cycles) == 0 {
		return w, Allocation{}
	}

	alloc := Allocate(cycles, PaidSince(transfers, cycles[0].DueAt))

	if alloc.TotalDue.IsZero() {
		return restartAt(cycles[len(cycles)-1].DueAt, !tl.Total.LessThan(nisab), p, now), alloc
	}

	settled := w
	nextDue := alloc.NextUnpaid.DueAt
	zero := 0
	settled.NextDueAt = &nextDue
	settled.DaysLeft = &zero

	return settled, alloc
}

func restartAt(lastDue time.Time, aboveNow bool, p Params, now time.Time) Window {
	nextDue := lastDue.Add(p.hawl())
	daysLeft := floorDays(nextDue.Sub(now))

	return Window{
		AboveNow:  aboveNow,
		StartedAt: &lastDue,
		NextDueAt: &nextDue,
		DaysLeft:  &daysLeft,
	}
}
