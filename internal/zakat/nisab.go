package zakat

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	"github.com/MrJamesThe3rd/zakati/internal/valuation"
)

// Nisab holds the thresholds of each class in base currency.
type Nisab struct {
	Gold   decimal.Decimal
	Silver decimal.Decimal
	Money  decimal.Decimal
}

// ResolveNisab prices the reference weights from assets, falling back to the
// configured prices when the reference asset is missing or inactive.
func ResolveNisab(assets []*ledger.Asset, p Params) Nisab {
	goldPrice := p.GoldFallbackPrice
	silverPrice := p.SilverFallbackPrice

	var silverFound bool

	for _, a := range assets {
		if !a.Active {
			continue
		}

		if a.Code == p.GoldReferenceCode {
			goldPrice = a.UnitPriceUSD
		}

		if !silverFound && a.InClass(ledger.ClassSilver) {
			silverPrice = a.UnitPriceUSD
			silverFound = true
		}
	}

	n := Nisab{
		Gold:   valuation.Round(p.GoldNisabGrams.Mul(goldPrice)),
		Silver: valuation.Round(p.SilverNisabGrams.Mul(silverPrice)),
	}

	n.Money = n.Gold
	if p.MoneyBenchmark == ledger.ClassSilver {
		n.Money = n.Silver
	}

	return n
}

// For returns the threshold a class's window is measured against. Pooled
// wealth uses the money threshold.
func (n Nisab) For(c ledger.Class) decimal.Decimal {
	switch c {
	case ledger.ClassGold:
		return n.Gold
	case ledger.ClassSilver:
		return n.Silver
	}

	return n.Money
}
