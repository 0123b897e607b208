package view

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	"github.com/MrJamesThe3rd/zakati/internal/notify"
	"github.com/MrJamesThe3rd/zakati/internal/zakat"
)

func grams(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestReportSummary(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	r := &zakat.Report{
		DisplayCode: "EUR",
		FXLine:      "1 USD = 0.925926 EUR",
		Range:       zakat.Range{Start: &start},
		Added: zakat.Bucket{
			Gold:   zakat.Amount{QuantityGrams: grams("10"), ValueDisplay: decimal.RequireFromString("694.44")},
			Silver: zakat.Amount{QuantityGrams: grams("0")},
			Money:  zakat.Amount{ValueDisplay: decimal.RequireFromString("1000")},
		},
		Withdrawn: zakat.Bucket{Gold: zakat.Amount{QuantityGrams: grams("0")}, Silver: zakat.Amount{QuantityGrams: grams("0")}},
		ZakatOut:  zakat.Bucket{Gold: zakat.Amount{QuantityGrams: grams("0")}, Silver: zakat.Amount{QuantityGrams: grams("0")}},
	}

	out := reportSummary(r, notify.NewLocalizer("en"))

	assert.Contains(t, out, "Period: 2026-01-01 to ...")
	assert.Contains(t, out, "1 USD = 0.925926 EUR")
	assert.Contains(t, out, "Gold     10.000 g  (694.44 EUR)")
	assert.Contains(t, out, "Money    1000.00 EUR")
	assert.Contains(t, out, "Zakat paid")
}

func TestPeriodLabel(t *testing.T) {
	assert.Equal(t, "all time", periodLabel(zakat.Range{}))

	end := time.Date(2026, time.February, 28, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "... to 2026-02-28", periodLabel(zakat.Range{End: &end}))
}

func TestParseFormQuantity(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "12.5", want: "12.5"},
		{in: " 3 ", want: "3"},
		{in: "0", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseFormQuantity(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, errQuantity)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFormatQuantity(t *testing.T) {
	gold := &ledger.Asset{Code: "GOLD_21", Unit: ledger.UnitGram}
	usd := &ledger.Asset{Code: "USD", Unit: ledger.UnitAmount}

	assert.Equal(t, "2.500 g", FormatQuantity(decimal.RequireFromString("2.5"), gold))
	assert.Equal(t, "100.00 USD", FormatQuantity(decimal.NewFromInt(100), usd))
	assert.Equal(t, "7.00", FormatQuantity(decimal.NewFromInt(7), nil))
}
