package zakat

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	"github.com/MrJamesThe3rd/zakati/internal/valuation"
)

// ClassCombined pools gold, silver and money into one timeline.
const ClassCombined ledger.Class = "Combined"

// Item is one asset held in a class.
type Item struct {
	Asset        *ledger.Asset
	Quantity     decimal.Decimal
	ValueUSD     decimal.Decimal
	ValueDisplay decimal.Decimal
}

type ClassSnapshot struct {
	Class           ledger.Class
	Items           []Item
	TotalUSD        decimal.Decimal
	TotalDisplay    decimal.Decimal
	NisabUSD        decimal.Decimal
	Window          Window
	Allocation      Allocation
	ZakatDueUSD     decimal.Decimal
	ZakatDueDisplay decimal.Decimal
}

// Notification asks the user to prepare a payment DaysLeft days before DueAt.
type Notification struct {
	Class    ledger.Class
	DaysLeft int
	DueAt    time.Time
}

type Snapshot struct {
	DisplayCode   string
	Display       *ledger.Asset
	Rate          decimal.Decimal
	TotalUSD      decimal.Decimal
	TotalDisplay  decimal.Decimal
	Gold          ClassSnapshot
	Silver        ClassSnapshot
	Money         ClassSnapshot
	Combined      ClassSnapshot
	Notifications []Notification
	// Transfers lists each class's transfers newest first.
	Transfers  map[ledger.Class][]*ledger.Transfer
	ComputedAt time.Time
}

// Classes returns the per-class snapshots in display order.
func (s *Snapshot) Classes() []ClassSnapshot {
	return []ClassSnapshot{s.Gold, s.Silver, s.Money}
}

// Input is everything a snapshot is computed from.
type Input struct {
	Assets        []*ledger.Asset
	Transfers     []*ledger.Transfer
	Display       *ledger.Asset
	Params        Params
	Now           time.Time
	TransferLimit int
}

// ComposeClass computes holdings, window and dues for the given assets.
// Transfers on other assets are ignored.
func ComposeClass(class ledger.Class, assets []*ledger.Asset, transfers []*ledger.Transfer, nisab decimal.Decimal, display *ledger.Asset, p Params, now time.Time) ClassSnapshot {
	byID := make(map[int64]*ledger.Asset, len(assets))
	for _, a := range assets {
		byID[a.ID] = a
	}

	own := make([]*ledger.Transfer, 0, len(transfers))

	for _, t := range transfers {
		a, ok := byID[t.AssetID]
		if !ok {
			continue
		}

		priced := *t
		priced.Asset = a
		own = append(own, &priced)
	}

	cs := ClassSnapshot{Class: class, NisabUSD: nisab, TotalUSD: decimal.Zero}

	net := NetQuantities(own)

	for _, a := range assets {
		q, ok := net[a.ID]
		if !ok || q.IsZero() {
			continue
		}

		value := valuation.ToBase(q, a)
		cs.Items = append(cs.Items, Item{
			Asset:        a,
			Quantity:     q,
			ValueUSD:     value,
			ValueDisplay: valuation.ToDisplay(value, display),
		})
		cs.TotalUSD = cs.TotalUSD.Add(value)
	}

	cs.TotalUSD = valuation.Round(cs.TotalUSD)
	cs.TotalDisplay = valuation.ToDisplay(cs.TotalUSD, display)

	tl := BuildTimeline(own)
	cs.Window, cs.Allocation = Settle(OpenWindow(tl, nisab, p, now), tl, own, nisab, p, now)
	cs.ZakatDueUSD = cs.Allocation.TotalDue
	cs.ZakatDueDisplay = valuation.ToDisplay(cs.ZakatDueUSD, display)

	return cs
}

func classAssets(assets []*ledger.Asset, classes ...ledger.Class) []*ledger.Asset {
	var out []*ledger.Asset

	for _, a := range assets {
		for _, c := range classes {
			if a.InClass(c) {
				out = append(out, a)
				break
			}
		}
	}

	return out
}

// Compose builds the full snapshot. The amount owed is taken from the pooled
// timeline and reported under money; gold and silver report nothing due.
func Compose(in Input) Snapshot {
	p := in.Params
	nisab := ResolveNisab(in.Assets, p)

	compose := func(c ledger.Class, classes ...ledger.Class) ClassSnapshot {
		return ComposeClass(c, classAssets(in.Assets, classes...), in.Transfers, nisab.For(c), in.Display, p, in.Now)
	}

	s := Snapshot{
		DisplayCode: valuation.DisplayCode(in.Display, p.BaseCode),
		Display:     in.Display,
		Rate:        p.Rate,
		Gold:        compose(ledger.ClassGold, ledger.ClassGold),
		Silver:      compose(ledger.ClassSilver, ledger.ClassSilver),
		Money:       compose(ledger.ClassMoney, ledger.ClassMoney),
		Combined:    compose(ClassCombined, ledger.Classes...),
		ComputedAt:  in.Now,
	}

	s.Gold.ZakatDueUSD, s.Gold.ZakatDueDisplay = decimal.Zero, decimal.Zero
	s.Silver.ZakatDueUSD, s.Silver.ZakatDueDisplay = decimal.Zero, decimal.Zero
	s.Money.ZakatDueUSD = s.Combined.ZakatDueUSD
	s.Money.ZakatDueDisplay = s.Combined.ZakatDueDisplay

	s.TotalUSD = valuation.Round(s.Gold.TotalUSD.Add(s.Silver.TotalUSD).Add(s.Money.TotalUSD))
	s.TotalDisplay = valuation.ToDisplay(s.TotalUSD, in.Display)

	offsets := p.ReminderOffsets()
	for _, cs := range s.Classes() {
		if n, ok := reminder(cs, offsets, in.Now); ok {
			s.Notifications = append(s.Notifications, n)
		}
	}

	s.Transfers = groupTransfers(in.Assets, in.Transfers, in.TransferLimit)

	return s
}

// reminder fires when the days until the next due date match an offset. A
// completed window counts from its unpaid due date, so overdue cycles never fire.
func reminder(cs ClassSnapshot, offsets []int, now time.Time) (Notification, bool) {
	w := cs.Window
	if !w.AboveNow || w.DaysLeft == nil || w.NextDueAt == nil {
		return Notification{}, false
	}

	left := *w.DaysLeft
	if w.Completed {
		left = floorDays(w.NextDueAt.Sub(now))
	}

	if left < 0 || !slices.Contains(offsets, left) {
		return Notification{}, false
	}

	return Notification{Class: cs.Class, DaysLeft: left, DueAt: *w.NextDueAt}, true
}

func groupTransfers(assets []*ledger.Asset, transfers []*ledger.Transfer, limit int) map[ledger.Class][]*ledger.Transfer {
	classOf := make(map[int64]ledger.Class, len(assets))

	for _, a := range assets {
		for _, c := range ledger.Classes {
			if a.InClass(c) {
				classOf[a.ID] = c
			}
		}
	}

	sorted := Chronological(transfers)
	slices.Reverse(sorted)

	grouped := make(map[ledger.Class][]*ledger.Transfer, len(ledger.Classes))
	for _, c := range ledger.Classes {
		grouped[c] = []*ledger.Transfer{}
	}

	for _, t := range sorted {
		c, ok := classOf[t.AssetID]
		if !ok {
			continue
		}

		if limit > 0 && len(grouped[c]) >= limit {
			continue
		}

		grouped[c] = append(grouped[c], t)
	}

	return grouped
}
