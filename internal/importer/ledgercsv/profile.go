package ledgercsv

import "github.com/MrJamesThe3rd/zakati/internal/ledger"

// quantityMode determines how direction and quantity are read from a row.
type quantityMode int

const (
	// quantityTyped means a type column plus an unsigned quantity column.
	quantityTyped quantityMode = iota
	// quantitySplit means separate in and out columns; in is ADD, out is WITHDRAW.
	quantitySplit
)

// Profile describes the column layout of a ledger export.
type Profile struct {
	Name         string
	DateCol      string
	AssetCol     string
	NoteCol      string // optional
	QuantityMode quantityMode
	TypeCol      string // used when QuantityMode == quantityTyped
	QuantityCol  string // used when QuantityMode == quantityTyped
	InCol        string // used when QuantityMode == quantitySplit
	OutCol       string // used when QuantityMode == quantitySplit
}

func (p Profile) requiredCols() []string {
	cols := []string{p.DateCol, p.AssetCol}

	switch p.QuantityMode {
	case quantityTyped:
		cols = append(cols, p.TypeCol, p.QuantityCol)
	case quantitySplit:
		cols = append(cols, p.InCol, p.OutCol)
	}

	return cols
}

// profiles is tried in order; header names are compared case-insensitively.
var profiles = []Profile{
	{
		Name:         "english",
		DateCol:      "date",
		AssetCol:     "asset",
		NoteCol:      "note",
		QuantityMode: quantityTyped,
		TypeCol:      "type",
		QuantityCol:  "quantity",
	},
	{
		Name:         "arabic",
		DateCol:      "التاريخ",
		AssetCol:     "الأصل",
		NoteCol:      "ملاحظة",
		QuantityMode: quantityTyped,
		TypeCol:      "النوع",
		QuantityCol:  "الكمية",
	},
	{
		Name:         "english-split",
		DateCol:      "date",
		AssetCol:     "asset",
		NoteCol:      "note",
		QuantityMode: quantitySplit,
		InCol:        "in",
		OutCol:       "out",
	},
	{
		Name:         "arabic-split",
		DateCol:      "التاريخ",
		AssetCol:     "الأصل",
		NoteCol:      "ملاحظة",
		QuantityMode: quantitySplit,
		InCol:        "وارد",
		OutCol:       "صادر",
	},
}

// typeNames maps the type spellings found in exports to transfer types.
var typeNames = map[string]ledger.TransferType{
	"add":       ledger.TypeAdd,
	"deposit":   ledger.TypeAdd,
	"withdraw":  ledger.TypeWithdraw,
	"zakat_out": ledger.TypeZakatOut,
	"zakat":     ledger.TypeZakatOut,
	"إضافة":     ledger.TypeAdd,
	"ايداع":     ledger.TypeAdd,
	"إيداع":     ledger.TypeAdd,
	"سحب":       ledger.TypeWithdraw,
	"زكاة":      ledger.TypeZakatOut,
}
