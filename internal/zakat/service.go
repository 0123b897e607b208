package zakat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

// Reader is the read side of the ledger a snapshot needs.
//
//go:generate mockgen -source=service.go -destination=reader_mock.go -package=zakat
type Reader interface {
	GetUser(ctx context.Context, id int64) (*ledger.User, error)
	ListAssets(ctx context.Context, filter ledger.AssetFilter) ([]*ledger.Asset, error)
	ListTransfers(ctx context.Context, filter ledger.TransferFilter) ([]*ledger.Transfer, error)
}

type Service struct {
	reader Reader
	params Params
	now    func() time.Time
}

type Option func(*Service)

// WithClock replaces the wall clock, for tests and replays.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(reader Reader, params Params, opts ...Option) *Service {
	s := &Service{reader: reader, params: params, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) Params() Params {
	return s.params
}

// Snapshot recomputes the user's position from the full ledger history.
// transferLimit caps each class's transfer listing; zero means no cap.
func (s *Service) Snapshot(ctx context.Context, userID int64, transferLimit int) (*Snapshot, error) {
	user, err := s.reader.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	assets, transfers, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	snap := Compose(Input{
		Assets:        assets,
		Transfers:     transfers,
		Display:       s.display(user, assets),
		Params:        s.params,
		Now:           s.now(),
		TransferLimit: transferLimit,
	})

	return &snap, nil
}

func (s *Service) load(ctx context.Context, userID int64) ([]*ledger.Asset, []*ledger.Transfer, error) {
	assets, err := s.reader.ListAssets(ctx, ledger.AssetFilter{ActiveOnly: true})
	if err != nil {
		return nil, nil, fmt.Errorf("list assets: %w", err)
	}

	ids := make([]int64, 0, len(assets))
	for _, a := range assets {
		ids = append(ids, a.ID)
	}

	transfers, err := s.reader.ListTransfers(ctx, ledger.TransferFilter{UserID: userID, AssetIDs: ids})
	if err != nil {
		return nil, nil, fmt.Errorf("list transfers: %w", err)
	}

	return assets, transfers, nil
}

// display picks the user's display currency, or the base currency asset.
func (s *Service) display(user *ledger.User, assets []*ledger.Asset) *ledger.Asset {
	if user.DisplayCurrency != nil && user.DisplayCurrency.Unit == ledger.UnitAmount {
		return user.DisplayCurrency
	}

	for _, a := range assets {
		if a.Code == s.params.BaseCode && a.Active {
			return a
		}
	}

	return nil
}

// Report totals the user's transfers by type. Only the owner or staff may read it.
func (s *Service) Report(ctx context.Context, caller ledger.Caller, userID int64, rng Range) (*Report, error) {
	if !caller.CanActFor(userID) {
		return nil, ledger.ErrForbidden
	}

	user, err := s.reader.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("get user: %w", err)
	}

	assets, err := s.reader.ListAssets(ctx, ledger.AssetFilter{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	transfers, err := s.reader.ListTransfers(ctx, ledger.TransferFilter{
		UserID: userID,
		Start:  rng.Start,
		End:    rng.End,
	})
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}

	r := BuildReport(userID, transfers, s.display(user, assets), s.params.BaseCode, rng)

	return &r, nil
}

// Reference summarises the rules in force and today's thresholds.
type Reference struct {
	Rate             decimal.Decimal
	HawlDays         int
	GoldNisabGrams   decimal.Decimal
	SilverNisabGrams decimal.Decimal
	MoneyBenchmark   ledger.Class
	ReminderOffsets  []int
	Nisab            Nisab
	BaseCode         string
}

func (s *Service) Reference(ctx context.Context) (*Reference, error) {
	assets, err := s.reader.ListAssets(ctx, ledger.AssetFilter{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	p := s.params

	return &Reference{
		Rate:             p.Rate,
		HawlDays:         p.HawlDays,
		GoldNisabGrams:   p.GoldNisabGrams,
		SilverNisabGrams: p.SilverNisabGrams,
		MoneyBenchmark:   p.MoneyBenchmark,
		ReminderOffsets:  p.ReminderOffsets(),
		Nisab:            ResolveNisab(assets, p),
		BaseCode:         p.BaseCode,
	}, nil
}
