package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const maxNoteLength = 240

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]*User, error)
	SetDisplayCurrency(ctx context.Context, userID, assetID int64) error

	GetAsset(ctx context.Context, id int64) (*Asset, error)
	GetAssetByCode(ctx context.Context, code string) (*Asset, error)
	ListAssets(ctx context.Context, filter AssetFilter) ([]*Asset, error)

	CreateTransfer(ctx context.Context, t *Transfer) error
	GetTransfer(ctx context.Context, id int64) (*Transfer, error)
	ListTransfers(ctx context.Context, filter TransferFilter) ([]*Transfer, error)
	// EditTransfer locks the row for the duration of edit and persists the result.
	EditTransfer(ctx context.Context, id int64, edit func(t *Transfer) error) (*Transfer, error)

	// BeginImport serialises imports per user for the life of the returned tx.
	BeginImport(ctx context.Context, userID int64) (ImportTx, error)
	BeginPriceUpdate(ctx context.Context) (PriceTx, error)
}

type ImportTx interface {
	FindDuplicates(ctx context.Context, params []CreateParams) ([]*Transfer, error)
	CreateTransfers(ctx context.Context, transfers []*Transfer) error
	Commit() error
	Rollback() error
}

// PriceTx applies a set of price changes atomically over row-locked assets.
type PriceTx interface {
	LockAssets(ctx context.Context, filter AssetFilter) ([]*Asset, error)
	SetPrice(ctx context.Context, assetID int64, price decimal.Decimal) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo     Repository
	receipts ReceiptStore
	now      func() time.Time
}

// NewService creates a ledger service. Attachment URLs outside receipts are rejected.
func NewService(repo Repository, receipts ReceiptStore) *Service {
	return &Service{repo: repo, receipts: receipts, now: time.Now}
}

type CreateParams struct {
	UserID        int64
	AssetID       int64
	Type          TransferType
	Quantity      decimal.Decimal
	OccurredAt    time.Time // defaults to now
	Note          string
	AttachmentURL string
}

// Patch holds the editable fields of a transfer; nil fields are left untouched.
type Patch struct {
	AssetID         *int64
	Type            *TransferType
	Quantity        *decimal.Decimal
	Note            *string
	AttachmentURL   *string
	ClearAttachment bool
}

type TransferFilter struct {
	UserID int64
	// AssetIDs restricts the listing; nil means every asset, empty means none.
	AssetIDs []int64
	Start    *time.Time
	End      *time.Time
	Desc     bool
	Limit    int
}

type AssetFilter struct {
	Codes      []string
	Class      *Class
	Unit       *Unit
	ActiveOnly bool
}

type UserFilter struct {
	ActiveOnly bool
}

func (s *Service) Create(ctx context.Context, caller Caller, params CreateParams) (*Transfer, error) {
	if err := s.validateCreate(ctx, caller, params); err != nil {
		return nil, err
	}

	t := s.paramsToTransfer(params)
	if err := s.repo.CreateTransfer(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

func (s *Service) validateCreate(ctx context.Context, caller Caller, params CreateParams) error {
	if !caller.CanActFor(params.UserID) {
		return ErrForbidden
	}

	if !params.Type.Valid() {
		return ErrInvalidType
	}

	if !params.Quantity.IsPositive() {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidQuantity)
	}

	if utf8.RuneCountInString(params.Note) > maxNoteLength {
		return ErrNoteTooLong
	}

	if err := s.checkAttachment(params.AttachmentURL); err != nil {
		return err
	}

	user, err := s.repo.GetUser(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUserInactive
		}

		return fmt.Errorf("get user: %w", err)
	}

	if !user.Active {
		return ErrUserInactive
	}

	return s.requireActiveAsset(ctx, params.AssetID)
}

func (s *Service) checkAttachment(raw string) error {
	if raw == "" || s.receipts.Contains(raw) {
		return nil
	}

	if s.receipts.String() == "" {
		return fmt.Errorf("%w: no receipt store configured", ErrInvalidAttachment)
	}

	return fmt.Errorf("%w %s", ErrInvalidAttachment, s.receipts)
}

func (s *Service) requireActiveAsset(ctx context.Context, id int64) error {
	asset, err := s.repo.GetAsset(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAssetInactive
		}

		return fmt.Errorf("get asset: %w", err)
	}

	if !asset.Active {
		return ErrAssetInactive
	}

	return nil
}

// Update amends a transfer under a row lock. Transfers owned by someone the
// caller cannot act for are reported as not found.
func (s *Service) Update(ctx context.Context, caller Caller, id int64, patch Patch) (*Transfer, error) {
	if patch.Type != nil && !patch.Type.Valid() {
		return nil, ErrInvalidType
	}

	if patch.Quantity != nil && patch.Quantity.IsNegative() {
		return nil, fmt.Errorf("%w: must be >= 0", ErrInvalidQuantity)
	}

	if patch.Note != nil && utf8.RuneCountInString(*patch.Note) > maxNoteLength {
		return nil, ErrNoteTooLong
	}

	if patch.AttachmentURL != nil && !patch.ClearAttachment {
		if err := s.checkAttachment(*patch.AttachmentURL); err != nil {
			return nil, err
		}
	}

	if patch.AssetID != nil {
		if err := s.requireActiveAsset(ctx, *patch.AssetID); err != nil {
			return nil, err
		}
	}

	return s.repo.EditTransfer(ctx, id, func(t *Transfer) error {
		if !caller.CanActFor(t.UserID) {
			return ErrNotFound
		}

		applyPatch(t, patch)

		return nil
	})
}

func applyPatch(t *Transfer, patch Patch) {
	if patch.AssetID != nil {
		t.AssetID = *patch.AssetID
		t.Asset = nil
	}

	if patch.Type != nil {
		t.Type = *patch.Type
	}

	if patch.Quantity != nil {
		t.Quantity = *patch.Quantity
	}

	if patch.Note != nil {
		t.Note = *patch.Note
	}

	switch {
	case patch.ClearAttachment:
		t.AttachmentID = nil
		t.Attachment = nil
	case patch.AttachmentURL != nil && *patch.AttachmentURL != "":
		t.AttachmentID = nil
		t.Attachment = &Attachment{URL: *patch.AttachmentURL}
	}
}

func (s *Service) Get(ctx context.Context, caller Caller, id int64) (*Transfer, error) {
	t, err := s.repo.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}

	if !caller.CanActFor(t.UserID) {
		return nil, ErrNotFound
	}

	return t, nil
}

func (s *Service) List(ctx context.Context, caller Caller, filter TransferFilter) ([]*Transfer, error) {
	if !caller.CanActFor(filter.UserID) {
		return nil, ErrForbidden
	}

	return s.repo.ListTransfers(ctx, filter)
}

// Assets lists the active assets a transfer can reference.
func (s *Service) Assets(ctx context.Context) ([]*Asset, error) {
	return s.repo.ListAssets(ctx, AssetFilter{ActiveOnly: true})
}

func (s *Service) User(ctx context.Context, caller Caller, id int64) (*User, error) {
	if !caller.CanActFor(id) {
		return nil, ErrForbidden
	}

	return s.repo.GetUser(ctx, id)
}

func (s *Service) SetDisplayCurrency(ctx context.Context, caller Caller, assetID int64) (*Asset, error) {
	asset, err := s.repo.GetAsset(ctx, assetID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidDisplayCurrency
		}

		return nil, fmt.Errorf("get asset: %w", err)
	}

	if !asset.Active || asset.Unit != UnitAmount {
		return nil, ErrInvalidDisplayCurrency
	}

	if err := s.repo.SetDisplayCurrency(ctx, caller.UserID, asset.ID); err != nil {
		return nil, err
	}

	return asset, nil
}

type ImportResult struct {
	Imported  []*Transfer
	New       []CreateParams
	Conflicts []Conflict
}

type Conflict struct {
	Incoming CreateParams
	Existing *Transfer
}

// ImportBatch stores the given transfers for one user unless some of them look
// like transfers already in the ledger, in which case nothing is written and the
// conflicts are returned for confirmation.
func (s *Service) ImportBatch(ctx context.Context, caller Caller, params []CreateParams) (*ImportResult, error) {
	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	if err := s.validateBatch(ctx, caller, params); err != nil {
		return nil, err
	}

	itx, err := s.repo.BeginImport(ctx, params[0].UserID)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	duplicates, err := itx.FindDuplicates(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}

	lookup := make(map[dupKey]*Transfer, len(duplicates))

	for _, d := range duplicates {
		lookup[newDupKey(d.OccurredAt, d.AssetID, d.Type, d.Quantity)] = d
	}

	var newParams []CreateParams

	var conflicts []Conflict

	for _, p := range params {
		existing, found := lookup[newDupKey(p.OccurredAt, p.AssetID, p.Type, p.Quantity)]
		if found {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: existing})
			continue
		}

		newParams = append(newParams, p)
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: newParams, Conflicts: conflicts}, nil
	}

	transfers := s.paramsToTransfers(newParams)
	if err := itx.CreateTransfers(ctx, transfers); err != nil {
		return nil, fmt.Errorf("create transfers: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return &ImportResult{Imported: transfers}, nil
}

// CreateBatch stores the given transfers without duplicate detection.
func (s *Service) CreateBatch(ctx context.Context, caller Caller, params []CreateParams) ([]*Transfer, error) {
	if len(params) == 0 {
		return nil, nil
	}

	if err := s.validateBatch(ctx, caller, params); err != nil {
		return nil, err
	}

	itx, err := s.repo.BeginImport(ctx, params[0].UserID)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	transfers := s.paramsToTransfers(params)
	if err := itx.CreateTransfers(ctx, transfers); err != nil {
		return nil, fmt.Errorf("create transfers: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return transfers, nil
}

// validateBatch checks every row before anything is written. A batch belongs to a single user.
func (s *Service) validateBatch(ctx context.Context, caller Caller, params []CreateParams) error {
	userID := params[0].UserID

	for i, p := range params {
		if p.UserID != userID {
			return fmt.Errorf("row %d: %w", i+1, ErrForbidden)
		}

		if err := s.validateCreate(ctx, caller, p); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	return nil
}

type dupKey struct {
	Date     string
	AssetID  int64
	Type     TransferType
	Quantity string
}

func newDupKey(date time.Time, assetID int64, typ TransferType, qty decimal.Decimal) dupKey {
	return dupKey{
		Date:     date.Format(time.DateOnly),
		AssetID:  assetID,
		Type:     typ,
		Quantity: qty.StringFixed(6),
	}
}

func (s *Service) paramsToTransfer(p CreateParams) *Transfer {
	occurredAt := p.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}

	t := &Transfer{
		UserID:     p.UserID,
		AssetID:    p.AssetID,
		Type:       p.Type,
		Quantity:   p.Quantity,
		OccurredAt: occurredAt,
		Note:       p.Note,
	}

	if p.AttachmentURL != "" {
		t.Attachment = &Attachment{URL: p.AttachmentURL}
	}

	return t
}

func (s *Service) paramsToTransfers(params []CreateParams) []*Transfer {
	transfers := make([]*Transfer, len(params))
	for i, p := range params {
		transfers[i] = s.paramsToTransfer(p)
	}

	return transfers
}
