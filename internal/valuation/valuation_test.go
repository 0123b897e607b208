package valuation_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	"github.com/MrJamesThe3rd/zakati/internal/valuation"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestToBase(t *testing.T) {
	tests := []struct {
		name     string
		quantity decimal.Decimal
		asset    *ledger.Asset
		want     string
	}{
		{"Gold", d("100"), &ledger.Asset{UnitPriceUSD: d("75")}, "7500"},
		{"RoundsHalfUp", d("1"), &ledger.Asset{UnitPriceUSD: d("0.0000005")}, "0.000001"},
		{"RoundsDown", d("3"), &ledger.Asset{UnitPriceUSD: d("0.0000001")}, "0"},
		{"Yen", d("150000"), &ledger.Asset{UnitPriceUSD: d("0.0067")}, "1005"},
		{"NilAsset", d("10"), nil, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := valuation.ToBase(tt.quantity, tt.asset)
			assert.True(t, got.Equal(d(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestToDisplay(t *testing.T) {
	eur := &ledger.Asset{Code: "EUR", UnitPriceUSD: d("1.08")}

	tests := []struct {
		name    string
		value   decimal.Decimal
		display *ledger.Asset
		want    string
	}{
		{"NoDisplay", d("187.5"), nil, "187.5"},
		{"ZeroPrice", d("187.5"), &ledger.Asset{Code: "XXX"}, "187.5"},
		{"Euro", d("108"), eur, "100"},
		{"EuroRounded", d("100"), eur, "92.592593"},
		{"SingleRounding", d("1"), &ledger.Asset{Code: "EUR", UnitPriceUSD: d("1.015596")}, "0.984643"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := valuation.ToDisplay(tt.value, tt.display)
			assert.True(t, got.Equal(d(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestPerBaseAndDisplayCode(t *testing.T) {
	kwd := &ledger.Asset{Code: "KWD", UnitPriceUSD: d("3.25")}

	assert.True(t, valuation.PerBase(kwd).Equal(d("0.307692")))
	assert.True(t, valuation.PerBase(nil).Equal(decimal.NewFromInt(1)))
	assert.True(t, valuation.PerBase(&ledger.Asset{Code: "EUR", UnitPriceUSD: d("1.015596")}).Equal(d("0.984643")))
	assert.Equal(t, "KWD", valuation.DisplayCode(kwd, "USD"))
	assert.Equal(t, "USD", valuation.DisplayCode(&ledger.Asset{Code: "KWD"}, "USD"))
}
