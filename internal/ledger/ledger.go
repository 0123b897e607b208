package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Class is the wealth class an asset is counted under.
type Class string

const (
	ClassGold   Class = "Gold"
	ClassSilver Class = "Silver"
	ClassMoney  Class = "Money"
)

// Classes lists the wealth classes in display order.
var Classes = []Class{ClassGold, ClassSilver, ClassMoney}

// Unit returns the measurement unit assets of the class are priced in.
func (c Class) Unit() Unit {
	if c == ClassMoney {
		return UnitAmount
	}

	return UnitGram
}

// Key is the lowercase name used in payloads and reports.
func (c Class) Key() string {
	return strings.ToLower(string(c))
}

// Unit is the measurement unit of an asset quantity.
type Unit string

const (
	UnitGram   Unit = "gram"
	UnitAmount Unit = "amount"
)

// TransferType represents the direction of a ledger entry.
type TransferType string

const (
	TypeAdd      TransferType = "ADD"
	TypeWithdraw TransferType = "WITHDRAW"
	TypeZakatOut TransferType = "ZAKAT_OUT"
)

func (t TransferType) Valid() bool {
	switch t {
	case TypeAdd, TypeWithdraw, TypeZakatOut:
		return true
	}

	return false
}

// Asset is a priceable unit: a currency (unit amount) or a precious metal (unit gram).
type Asset struct {
	ID           int64
	Code         string
	Class        Class
	Kind         string // karat for gold, currency name for money
	Unit         Unit
	Country      string
	UnitPriceUSD decimal.Decimal
	Active       bool
}

// InClass reports whether the asset counts towards the given wealth class.
func (a *Asset) InClass(c Class) bool {
	return a.Active && a.Class == c && a.Unit == c.Unit()
}

// User is the owner of a ledger.
type User struct {
	ID                int64
	Email             string
	FullName          string
	Staff             bool
	Active            bool
	DisplayCurrencyID *int64
	DisplayCurrency   *Asset // Loaded via JOIN
}

// Transfer is a single ledger entry. OccurredAt is the effective timestamp and
// may be backdated; CreatedAt is when the row was recorded.
type Transfer struct {
	ID           int64
	UserID       int64
	AssetID      int64
	Asset        *Asset // Loaded via JOIN
	Type         TransferType
	Quantity     decimal.Decimal
	OccurredAt   time.Time
	Note         string
	AttachmentID *uuid.UUID
	Attachment   *Attachment // Loaded via JOIN
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Attachment references a receipt or bill stored outside the ledger.
type Attachment struct {
	ID  uuid.UUID
	URL string
}

// Caller identifies who is acting on the ledger.
type Caller struct {
	UserID int64
	Staff  bool
}

// CanActFor reports whether the caller may read or write the given user's ledger.
func (c Caller) CanActFor(userID int64) bool {
	return c.Staff || c.UserID == userID
}

// Draft is a transfer read from an import file whose asset is still a free-text label.
type Draft struct {
	Line       int
	OccurredAt time.Time
	AssetLabel string
	Type       TransferType
	Quantity   decimal.Decimal
	Note       string
}
