package alias

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

var ErrEmptyLabel = errors.New("label and asset code are required")

// Repository stores learned labels. FindMatch returns "" when nothing matches.
//
//go:generate mockgen -source=service.go -destination=repository_mock.go -package=alias
type Repository interface {
	FindMatch(ctx context.Context, label string) (string, error)
	CreateAlias(ctx context.Context, label, assetCode string) error
}

// AssetLookup resolves asset codes against the ledger.
type AssetLookup interface {
	GetAssetByCode(ctx context.Context, code string) (*ledger.Asset, error)
}

// Service maps the free-text asset labels found in imported files ("ذهب عيار 21",
// "Gold 21k", "US Dollar") to asset codes.
type Service struct {
	repo   Repository
	assets AssetLookup
}

func NewService(repo Repository, assets AssetLookup) *Service {
	return &Service{repo: repo, assets: assets}
}

func normalize(label string) string {
	return strings.Join(strings.Fields(label), " ")
}

// Resolve returns the active asset a label refers to. A label that is itself an
// asset code wins over learned aliases. Unknown labels yield ledger.ErrNotFound.
func (s *Service) Resolve(ctx context.Context, label string) (*ledger.Asset, error) {
	label = normalize(label)
	if label == "" {
		return nil, ErrEmptyLabel
	}

	asset, err := s.assets.GetAssetByCode(ctx, strings.ToUpper(label))
	if err == nil && asset.Active {
		return asset, nil
	}

	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		return nil, fmt.Errorf("get asset: %w", err)
	}

	code, err := s.repo.FindMatch(ctx, label)
	if err != nil {
		return nil, err
	}

	if code == "" {
		return nil, fmt.Errorf("label %q: %w", label, ledger.ErrNotFound)
	}

	asset, err = s.assets.GetAssetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("label %q: %w", label, err)
	}

	if !asset.Active {
		return nil, fmt.Errorf("label %q: %w", label, ledger.ErrAssetInactive)
	}

	return asset, nil
}

// Learn remembers that label refers to the asset with the given code.
func (s *Service) Learn(ctx context.Context, label, assetCode string) error {
	label = normalize(label)
	assetCode = strings.ToUpper(strings.TrimSpace(assetCode))

	if label == "" || assetCode == "" {
		return ErrEmptyLabel
	}

	asset, err := s.assets.GetAssetByCode(ctx, assetCode)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return ledger.ErrAssetInactive
		}

		return fmt.Errorf("get asset: %w", err)
	}

	if !asset.Active {
		return ledger.ErrAssetInactive
	}

	return s.repo.CreateAlias(ctx, label, asset.Code)
}
