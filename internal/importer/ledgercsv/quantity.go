package ledgercsv

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var errEmptyQuantity = errors.New("empty quantity")

// digits rewrites Arabic-Indic and Persian digits and separators to ASCII.
var digits = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٫", ".", "٬", ",", " ", "", " ", "",
)

// parseQuantity accepts "1234.5", "1,234.5", "1.234,5" and "12,5". When both
// separators appear the last one is the decimal point; a lone comma is a
// decimal comma unless it repeats.
func parseQuantity(s string) (decimal.Decimal, error) {
	clean := digits.Replace(strings.TrimSpace(s))
	if clean == "" {
		return decimal.Zero, errEmptyQuantity
	}

	dot := strings.LastIndex(clean, ".")
	comma := strings.LastIndex(clean, ",")

	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		clean = strings.ReplaceAll(clean, ",", "")
	case comma >= 0 && strings.Count(clean, ",") == 1:
		clean = strings.Replace(clean, ",", ".", 1)
	case comma >= 0:
		clean = strings.ReplaceAll(clean, ",", "")
	}

	return decimal.NewFromString(clean)
}
