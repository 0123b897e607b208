// Package valuation converts asset quantities into the base currency (USD) and
// from there into a user's display currency.
//
// Every value that leaves this package is rounded to Places decimal places,
// half away from zero. Quantities and prices are never negative, so this is
// the half-up rounding the ledger is kept in.
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

// Places is the number of decimal places stored and reported.
const Places = 6

// Round applies the ledger rounding.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// ToBase values quantity units of asset in the base currency.
func ToBase(quantity decimal.Decimal, asset *ledger.Asset) decimal.Decimal {
	if asset == nil {
		return decimal.Zero
	}

	return Round(quantity.Mul(asset.UnitPriceUSD))
}

// ToDisplay converts a base value into units of the display asset. A missing
// or zero-priced display asset leaves the value in base currency.
func ToDisplay(valueUSD decimal.Decimal, display *ledger.Asset) decimal.Decimal {
	if display == nil || !display.UnitPriceUSD.IsPositive() {
		return Round(valueUSD)
	}

	return valueUSD.DivRound(display.UnitPriceUSD, Places)
}

// PerBase is the number of display units one base unit buys.
func PerBase(display *ledger.Asset) decimal.Decimal {
	return ToDisplay(decimal.NewFromInt(1), display)
}

// DisplayCode is the code values are reported in: the display asset's code,
// or base when the display asset cannot be used.
func DisplayCode(display *ledger.Asset, base string) string {
	if display == nil || !display.UnitPriceUSD.IsPositive() {
		return base
	}

	return display.Code
}
