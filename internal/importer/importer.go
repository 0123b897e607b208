package importer

import (
	"io"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

type Format string

const (
	FormatLedgerCSV Format = "ledger-csv"
)

type Importer interface {
	Parse(r io.Reader, charsetHint string) ([]ledger.Draft, error)
}
