package importer_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/zakati/internal/importer"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

const ledgerFile = `Date,Asset,Type,Quantity,Note
2025-01-10,dollars,ADD,100,
2025-01-11,Dollars,WITHDRAW,40,
2025-01-12,GOLD_24,ADD,5,ring
`

func TestService_Import(t *testing.T) {
	ctx := context.Background()
	usd := &ledger.Asset{ID: 1, Code: "USD"}
	gold := &ledger.Asset{ID: 2, Code: "GOLD_24"}

	t.Run("resolves labels once each", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		resolver := importer.NewMockResolver(ctrl)

		resolver.EXPECT().Resolve(ctx, "dollars").Return(usd, nil).Times(1)
		resolver.EXPECT().Resolve(ctx, "GOLD_24").Return(gold, nil).Times(1)

		svc := importer.NewService(resolver, time.UTC)

		got, err := svc.Import(ctx, importer.FormatLedgerCSV, strings.NewReader(ledgerFile), importer.Options{UserID: 7})
		require.NoError(t, err)
		require.Len(t, got, 3)

		assert.Equal(t, int64(7), got[0].UserID)
		assert.Equal(t, int64(1), got[0].AssetID)
		assert.Equal(t, int64(1), got[1].AssetID)
		assert.Equal(t, ledger.TypeWithdraw, got[1].Type)
		assert.Equal(t, int64(2), got[2].AssetID)
		assert.Equal(t, "ring", got[2].Note)
		assert.True(t, decimal.NewFromInt(5).Equal(got[2].Quantity))
	})

	t.Run("reports every unknown label", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		resolver := importer.NewMockResolver(ctrl)

		resolver.EXPECT().Resolve(ctx, "dollars").Return(nil, ledger.ErrNotFound)
		resolver.EXPECT().Resolve(ctx, "GOLD_24").Return(nil, ledger.ErrNotFound)

		svc := importer.NewService(resolver, time.UTC)

		_, err := svc.Import(ctx, importer.FormatLedgerCSV, strings.NewReader(ledgerFile), importer.Options{})

		var unresolved *importer.UnresolvedError
		require.ErrorAs(t, err, &unresolved)
		assert.Equal(t, []string{"GOLD_24", "dollars"}, unresolved.Labels)
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("propagates resolver failures", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		resolver := importer.NewMockResolver(ctrl)

		boom := errors.New("db down")
		resolver.EXPECT().Resolve(ctx, "dollars").Return(nil, boom)

		svc := importer.NewService(resolver, time.UTC)

		_, err := svc.Import(ctx, importer.FormatLedgerCSV, strings.NewReader(ledgerFile), importer.Options{})
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, importer.ErrInvalidFile)
	})

	t.Run("malformed file", func(t *testing.T) {
		svc := importer.NewService(importer.NewMockResolver(gomock.NewController(t)), time.UTC)

		_, err := svc.Import(ctx, importer.FormatLedgerCSV, strings.NewReader("When,What\n1,2\n"), importer.Options{})
		assert.ErrorIs(t, err, importer.ErrInvalidFile)
	})

	t.Run("unknown format", func(t *testing.T) {
		svc := importer.NewService(importer.NewMockResolver(gomock.NewController(t)), time.UTC)

		_, err := svc.Import(ctx, "ofx", strings.NewReader(ledgerFile), importer.Options{})
		assert.ErrorIs(t, err, importer.ErrInvalidFile)
	})
}
