package zakat

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	"github.com/MrJamesThe3rd/zakati/internal/valuation"
)

// Point is the cumulative base value of a class right after one transfer.
type Point struct {
	At       time.Time
	ValueUSD decimal.Decimal
}

// Timeline is the replay of a class's transfers in chronological order.
type Timeline struct {
	Total  decimal.Decimal
	Points []Point
}

// Chronological returns a copy of transfers ordered by (OccurredAt, ID).
func Chronological(transfers []*ledger.Transfer) []*ledger.Transfer {
	sorted := slices.Clone(transfers)
	slices.SortStableFunc(sorted, func(a, b *ledger.Transfer) int {
		if c := a.OccurredAt.Compare(b.OccurredAt); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})

	return sorted
}

func sign(t ledger.TransferType) int64 {
	if t == ledger.TypeAdd {
		return 1
	}

	return -1
}

// NetQuantities sums ADD minus WITHDRAW and ZAKAT_OUT per asset id.
func NetQuantities(transfers []*ledger.Transfer) map[int64]decimal.Decimal {
	net := make(map[int64]decimal.Decimal)

	for _, t := range transfers {
		net[t.AssetID] = net[t.AssetID].Add(t.Quantity.Mul(decimal.NewFromInt(sign(t.Type))))
	}

	for id, q := range net {
		net[id] = valuation.Round(q)
	}

	return net
}

// BuildTimeline replays transfers at the current price of their asset.
// Transfers without a loaded asset contribute nothing.
func BuildTimeline(transfers []*ledger.Transfer) Timeline {
	sorted := Chronological(transfers)

	tl := Timeline{Points: make([]Point, 0, len(sorted))}
	running := decimal.Zero

	for _, t := range sorted {
		delta := valuation.ToBase(t.Quantity, t.Asset)
		if t.Type == ledger.TypeAdd {
			running = running.Add(delta)
		} else {
			running = running.Sub(delta)
		}

		running = valuation.Round(running)
		tl.Points = append(tl.Points, Point{At: t.OccurredAt, ValueUSD: running})
	}

	tl.Total = running

	return tl
}

// ValueAt is the value of the last point at or before instant, zero if none.
func (tl Timeline) ValueAt(instant time.Time) decimal.Decimal {
	last := decimal.Zero

	for _, p := range tl.Points {
		if p.At.After(instant) {
			break
		}

		last = p.ValueUSD
	}

	return last
}
