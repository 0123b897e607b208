package view

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

const dbTimeout = 5 * time.Second

// FormatQuantity renders a quantity with its unit: grams for metals, the
// currency code for money.
func FormatQuantity(q decimal.Decimal, a *ledger.Asset) string {
	if a == nil {
		return q.StringFixed(2)
	}

	if a.Unit == ledger.UnitGram {
		return fmt.Sprintf("%s g", q.StringFixed(3))
	}

	return fmt.Sprintf("%s %s", q.StringFixed(2), a.Code)
}

// FormatValue formats a value in the given currency code.
func FormatValue(v decimal.Decimal, code string) string {
	return fmt.Sprintf("%s %s", v.StringFixed(2), code)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
