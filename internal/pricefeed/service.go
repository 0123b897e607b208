package pricefeed

//go:generate mockgen -source=service.go -destination=service_mock.go -package=pricefeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

type Repository interface {
	BeginPriceUpdate(ctx context.Context) (ledger.PriceTx, error)
}

// Seeder creates or updates assets by code, reporting whether a row was inserted.
type Seeder interface {
	UpsertAsset(ctx context.Context, a *ledger.Asset) (bool, error)
}

const (
	ReasonNotInResponse  = "code_not_in_response"
	ReasonNonPositive    = "non_positive_rate"
	ReasonNoChange       = "no_change"
	ReasonUnexpectedUnit = "unexpected_unit"
)

type Change struct {
	AssetID int64
	Code    string
	Old     decimal.Decimal
	New     decimal.Decimal
}

type Skip struct {
	AssetID int64
	Code    string
	Reason  string
}

// Result summarises one feed run. Missing lists assets without a code.
type Result struct {
	Feed      string
	Processed int
	Updated   []Change
	Skipped   []Skip
	Missing   []int64
	AsOf      time.Time
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Refresh fetches feed and applies its prices inside one transaction over the
// locked target assets. A fetch failure leaves every price untouched.
func (s *Service) Refresh(ctx context.Context, feed Feed) (*Result, error) {
	rates, err := feed.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s rates: %w", feed.Name(), err)
	}

	tx, err := s.repo.BeginPriceUpdate(ctx)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = tx.Rollback()
	}()

	assets, err := tx.LockAssets(ctx, feed.Targets())
	if err != nil {
		return nil, fmt.Errorf("locking assets: %w", err)
	}

	res := &Result{Feed: feed.Name(), Processed: len(assets), AsOf: rates.AsOf}

	for _, a := range assets {
		code := strings.ToUpper(strings.TrimSpace(a.Code))
		if code == "" {
			res.Missing = append(res.Missing, a.ID)
			continue
		}

		price, ok := rates.Prices[code]

		switch {
		case !ok:
			res.Skipped = append(res.Skipped, Skip{AssetID: a.ID, Code: code, Reason: ReasonNotInResponse})
			continue
		case !price.IsPositive():
			res.Skipped = append(res.Skipped, Skip{AssetID: a.ID, Code: code, Reason: ReasonNonPositive})
			continue
		case a.Unit != feed.Unit():
			res.Skipped = append(res.Skipped, Skip{AssetID: a.ID, Code: code, Reason: ReasonUnexpectedUnit + ":" + string(a.Unit)})
			continue
		case a.UnitPriceUSD.Equal(price):
			res.Skipped = append(res.Skipped, Skip{AssetID: a.ID, Code: code, Reason: ReasonNoChange})
			continue
		}

		if err := tx.SetPrice(ctx, a.ID, price); err != nil {
			return nil, fmt.Errorf("setting %s price: %w", code, err)
		}

		res.Updated = append(res.Updated, Change{AssetID: a.ID, Code: code, Old: a.UnitPriceUSD, New: price})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing %s rates: %w", feed.Name(), err)
	}

	slog.Info("price feed applied",
		"feed", res.Feed,
		"processed", res.Processed,
		"updated", len(res.Updated),
		"skipped", len(res.Skipped),
	)

	return res, nil
}

// RefreshAll runs every feed independently; one failing feed does not stop the others.
func (s *Service) RefreshAll(ctx context.Context, feeds ...Feed) ([]*Result, error) {
	var (
		results []*Result
		errs    []error
	)

	for _, f := range feeds {
		res, err := s.Refresh(ctx, f)
		if err != nil {
			slog.Error("price feed failed", "feed", f.Name(), "error", err)
			errs = append(errs, err)

			continue
		}

		results = append(results, res)
	}

	return results, errors.Join(errs...)
}
