package zakat

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	"github.com/MrJamesThe3rd/zakati/internal/valuation"
)

// Range bounds a report on the effective timestamp. Both ends are inclusive
// and either may be open.
type Range struct {
	Start *time.Time
	End   *time.Time
}

func (r Range) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}

	if r.End != nil && t.After(*r.End) {
		return false
	}

	return true
}

func (r Range) Enabled() bool {
	return r.Start != nil || r.End != nil
}

// Amount is a total for one class. QuantityGrams is nil for money.
type Amount struct {
	QuantityGrams *decimal.Decimal
	ValueUSD      decimal.Decimal
	ValueDisplay  decimal.Decimal
}

type Bucket struct {
	Gold   Amount
	Silver Amount
	Money  Amount
}

func (b *Bucket) amount(c ledger.Class) *Amount {
	switch c {
	case ledger.ClassGold:
		return &b.Gold
	case ledger.ClassSilver:
		return &b.Silver
	case ledger.ClassMoney:
		return &b.Money
	}

	return nil
}

type Report struct {
	UserID      int64
	DisplayCode string
	PerBase     decimal.Decimal
	FXLine      string
	Range       Range
	Added       Bucket
	Withdrawn   Bucket
	ZakatOut    Bucket
}

func newBucket() Bucket {
	zero := func() *decimal.Decimal { z := decimal.Zero; return &z }

	return Bucket{
		Gold:   Amount{QuantityGrams: zero()},
		Silver: Amount{QuantityGrams: zero()},
	}
}

// BuildReport totals the transfers inside rng by type and class. Transfers on
// inactive or unloaded assets are skipped.
func BuildReport(userID int64, transfers []*ledger.Transfer, display *ledger.Asset, baseCode string, rng Range) Report {
	r := Report{
		UserID:      userID,
		DisplayCode: valuation.DisplayCode(display, baseCode),
		PerBase:     valuation.PerBase(display),
		Range:       rng,
		Added:       newBucket(),
		Withdrawn:   newBucket(),
		ZakatOut:    newBucket(),
	}

	r.FXLine = fmt.Sprintf("1 %s = %s %s", baseCode, r.PerBase.StringFixed(valuation.Places), r.DisplayCode)

	buckets := map[ledger.TransferType]*Bucket{
		ledger.TypeAdd:      &r.Added,
		ledger.TypeWithdraw: &r.Withdrawn,
		ledger.TypeZakatOut: &r.ZakatOut,
	}

	for _, t := range transfers {
		a := t.Asset
		if a == nil || !a.Active || !rng.Contains(t.OccurredAt) {
			continue
		}

		b, ok := buckets[t.Type]
		if !ok {
			continue
		}

		amt := b.amount(a.Class)
		if amt == nil {
			continue
		}

		if amt.QuantityGrams != nil {
			q := amt.QuantityGrams.Add(t.Quantity)
			amt.QuantityGrams = &q
		}

		amt.ValueUSD = amt.ValueUSD.Add(t.Quantity.Mul(a.UnitPriceUSD))
	}

	for _, b := range buckets {
		for _, amt := range []*Amount{&b.Gold, &b.Silver, &b.Money} {
			if amt.QuantityGrams != nil {
				q := valuation.Round(*amt.QuantityGrams)
				amt.QuantityGrams = &q
			}

			amt.ValueUSD = valuation.Round(amt.ValueUSD)
			amt.ValueDisplay = valuation.ToDisplay(amt.ValueUSD, display)
		}
	}

	return r
}
