package importer

//go:generate mockgen -source=service.go -destination=resolver_mock.go -package=importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/zakati/internal/importer/ledgercsv"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

// Resolver turns a free-text asset label into a known asset.
type Resolver interface {
	Resolve(ctx context.Context, label string) (*ledger.Asset, error)
}

// ErrInvalidFile marks input that could not be read as the requested format.
var ErrInvalidFile = errors.New("invalid import file")

// UnresolvedError lists labels that matched no asset or alias.
type UnresolvedError struct {
	Labels []string
}

func (e *UnresolvedError) Error() string {
	return "unknown assets: " + strings.Join(e.Labels, ", ")
}

// Unwrap lets callers treat the error as a validation failure.
func (e *UnresolvedError) Unwrap() error { return ledger.ErrNotFound }

type Options struct {
	UserID  int64
	Charset string
}

type Service struct {
	resolver  Resolver
	importers map[Format]Importer
}

func NewService(resolver Resolver, loc *time.Location) *Service {
	return &Service{
		resolver: resolver,
		importers: map[Format]Importer{
			FormatLedgerCSV: ledgercsv.NewParser(loc),
		},
	}
}

// Import parses r and resolves every asset label. Nothing is written; the
// returned params are meant for ledger.Service.ImportBatch.
func (s *Service) Import(ctx context.Context, format Format, r io.Reader, opts Options) ([]ledger.CreateParams, error) {
	imp, ok := s.importers[format]
	if !ok {
		return nil, fmt.Errorf("%w: unknown format %s", ErrInvalidFile, format)
	}

	drafts, err := imp.Parse(r, opts.Charset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	cache := make(map[string]*ledger.Asset)
	missing := make(map[string]struct{})
	params := make([]ledger.CreateParams, 0, len(drafts))

	for _, d := range drafts {
		key := strings.ToLower(d.AssetLabel)

		asset, seen := cache[key]
		if !seen {
			asset, err = s.resolver.Resolve(ctx, d.AssetLabel)

			switch {
			case errors.Is(err, ledger.ErrNotFound):
				missing[d.AssetLabel] = struct{}{}
			case err != nil:
				return nil, fmt.Errorf("line %d: %w", d.Line, err)
			}

			cache[key] = asset
		}

		if asset == nil {
			continue
		}

		params = append(params, ledger.CreateParams{
			UserID:     opts.UserID,
			AssetID:    asset.ID,
			Type:       d.Type,
			Quantity:   d.Quantity,
			OccurredAt: d.OccurredAt,
			Note:       d.Note,
		})
	}

	if len(missing) > 0 {
		labels := make([]string, 0, len(missing))
		for l := range missing {
			labels = append(labels, l)
		}

		sort.Strings(labels)

		return nil, &UnresolvedError{Labels: labels}
	}

	return params, nil
}
