package zakat

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

// Params are the rules every computation runs under. A Params value is never
// modified after construction; callers build a new one to change the rules.
type Params struct {
	Rate                decimal.Decimal
	HawlDays            int
	GoldNisabGrams      decimal.Decimal
	SilverNisabGrams    decimal.Decimal
	GoldFallbackPrice   decimal.Decimal
	SilverFallbackPrice decimal.Decimal
	MoneyBenchmark      ledger.Class
	BaseCode            string
	GoldReferenceCode   string
	reminderOffsets     []int
}

func DefaultParams() Params {
	return Params{
		Rate:                decimal.RequireFromString("0.025"),
		HawlDays:            354,
		GoldNisabGrams:      decimal.NewFromInt(85),
		SilverNisabGrams:    decimal.NewFromInt(595),
		GoldFallbackPrice:   decimal.RequireFromString("75.0"),
		SilverFallbackPrice: decimal.RequireFromString("1.0"),
		MoneyBenchmark:      ledger.ClassGold,
		BaseCode:            "USD",
		GoldReferenceCode:   "GOLD_24",
		reminderOffsets:     []int{30, 15, 7, 0},
	}
}

// WithReminderOffsets returns a copy of p reminding at the given days before due.
func (p Params) WithReminderOffsets(days ...int) Params {
	p.reminderOffsets = slices.Clone(days)
	return p
}

func (p Params) ReminderOffsets() []int {
	return slices.Clone(p.reminderOffsets)
}

func (p Params) Validate() error {
	var errs []error

	if !p.Rate.IsPositive() || p.Rate.GreaterThan(decimal.NewFromInt(1)) {
		errs = append(errs, fmt.Errorf("rate must be in (0, 1], got %s", p.Rate))
	}

	if p.HawlDays <= 0 {
		errs = append(errs, fmt.Errorf("hawl days must be positive, got %d", p.HawlDays))
	}

	if !p.GoldNisabGrams.IsPositive() || !p.SilverNisabGrams.IsPositive() {
		errs = append(errs, errors.New("nisab grams must be positive"))
	}

	if p.GoldFallbackPrice.IsNegative() || p.SilverFallbackPrice.IsNegative() {
		errs = append(errs, errors.New("fallback prices must not be negative"))
	}

	if p.MoneyBenchmark != ledger.ClassGold && p.MoneyBenchmark != ledger.ClassSilver {
		errs = append(errs, fmt.Errorf("money benchmark must be Gold or Silver, got %q", p.MoneyBenchmark))
	}

	if p.BaseCode == "" || p.GoldReferenceCode == "" {
		errs = append(errs, errors.New("base and gold reference codes are required"))
	}

	for _, d := range p.reminderOffsets {
		if d < 0 {
			errs = append(errs, fmt.Errorf("reminder offset must not be negative, got %d", d))
		}
	}

	return errors.Join(errs...)
}

func (p Params) hawl() time.Duration {
	return time.Duration(p.HawlDays) * day
}
