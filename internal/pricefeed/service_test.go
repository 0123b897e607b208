package pricefeed_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	"github.com/MrJamesThe3rd/zakati/internal/pricefeed"
)

type stubFeed struct {
	rates pricefeed.Rates
	err   error
	unit  ledger.Unit
}

func (f stubFeed) Name() string { return "stub" }

func (f stubFeed) Unit() ledger.Unit { return f.unit }

func (f stubFeed) Targets() ledger.AssetFilter { return ledger.AssetFilter{ActiveOnly: true} }

func (f stubFeed) Fetch(context.Context) (pricefeed.Rates, error) { return f.rates, f.err }

func TestService_Refresh(t *testing.T) {
	ctx := context.Background()

	feed := stubFeed{
		unit: ledger.UnitAmount,
		rates: pricefeed.Rates{Prices: map[string]decimal.Decimal{
			"USD": price("1"),
			"EUR": price("1.08"),
			"SAR": decimal.Zero,
			"GBP": price("1.27"),
			"G24": price("70"),
		}},
	}

	t.Run("applies changes and classifies the rest", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := pricefeed.NewMockRepository(ctrl)
		tx := ledger.NewMockPriceTx(ctrl)

		assets := []*ledger.Asset{
			{ID: 1, Code: "USD", Unit: ledger.UnitAmount, UnitPriceUSD: price("1.0")},
			{ID: 2, Code: "eur", Unit: ledger.UnitAmount, UnitPriceUSD: price("1.05")},
			{ID: 3, Code: "SAR", Unit: ledger.UnitAmount, UnitPriceUSD: price("0.27")},
			{ID: 4, Code: "KWD", Unit: ledger.UnitAmount, UnitPriceUSD: price("3.25")},
			{ID: 5, Code: " ", Unit: ledger.UnitAmount},
			{ID: 6, Code: "G24", Unit: ledger.UnitGram, UnitPriceUSD: price("75")},
			{ID: 7, Code: "GBP", Unit: ledger.UnitAmount, UnitPriceUSD: price("1.2")},
		}

		gomock.InOrder(
			repo.EXPECT().BeginPriceUpdate(ctx).Return(tx, nil),
			tx.EXPECT().LockAssets(ctx, feed.Targets()).Return(assets, nil),
		)
		tx.EXPECT().SetPrice(ctx, int64(2), price("1.08")).Return(nil)
		tx.EXPECT().SetPrice(ctx, int64(7), price("1.27")).Return(nil)
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		res, err := pricefeed.NewService(repo).Refresh(ctx, feed)
		require.NoError(t, err)

		assert.Equal(t, 7, res.Processed)
		require.Len(t, res.Updated, 2)
		assert.Equal(t, "EUR", res.Updated[0].Code)
		assert.True(t, price("1.05").Equal(res.Updated[0].Old))
		assert.Equal(t, "GBP", res.Updated[1].Code)

		reasons := map[string]string{}
		for _, s := range res.Skipped {
			reasons[s.Code] = s.Reason
		}

		assert.Equal(t, map[string]string{
			"USD": pricefeed.ReasonNoChange,
			"SAR": pricefeed.ReasonNonPositive,
			"KWD": pricefeed.ReasonNotInResponse,
			"G24": pricefeed.ReasonUnexpectedUnit + ":gram",
		}, reasons)

		assert.Equal(t, []int64{5}, res.Missing)
	})

	t.Run("write failure aborts without commit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := pricefeed.NewMockRepository(ctrl)
		tx := ledger.NewMockPriceTx(ctrl)

		repo.EXPECT().BeginPriceUpdate(ctx).Return(tx, nil)
		tx.EXPECT().LockAssets(ctx, feed.Targets()).Return([]*ledger.Asset{
			{ID: 2, Code: "EUR", Unit: ledger.UnitAmount, UnitPriceUSD: price("1.05")},
			{ID: 7, Code: "GBP", Unit: ledger.UnitAmount, UnitPriceUSD: price("1.2")},
		}, nil)
		tx.EXPECT().SetPrice(ctx, int64(2), price("1.08")).Return(errors.New("deadlock"))
		tx.EXPECT().Rollback().Return(nil)

		res, err := pricefeed.NewService(repo).Refresh(ctx, feed)
		require.ErrorContains(t, err, "setting EUR price")
		assert.Nil(t, res)
	})

	t.Run("fetch failure touches nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := pricefeed.NewMockRepository(ctrl)

		_, err := pricefeed.NewService(repo).Refresh(ctx, stubFeed{err: errors.New("timeout")})
		assert.Error(t, err)
	})

	t.Run("lock failure rolls back", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := pricefeed.NewMockRepository(ctrl)
		tx := ledger.NewMockPriceTx(ctrl)

		repo.EXPECT().BeginPriceUpdate(ctx).Return(tx, nil)
		tx.EXPECT().LockAssets(ctx, gomock.Any()).Return(nil, errors.New("lock timeout"))
		tx.EXPECT().Rollback().Return(nil)

		_, err := pricefeed.NewService(repo).Refresh(ctx, feed)
		assert.Error(t, err)
	})
}

func TestService_RefreshAll(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := pricefeed.NewMockRepository(ctrl)
	tx := ledger.NewMockPriceTx(ctrl)

	repo.EXPECT().BeginPriceUpdate(ctx).Return(tx, nil)
	tx.EXPECT().LockAssets(ctx, gomock.Any()).Return(nil, nil)
	tx.EXPECT().Commit().Return(nil)
	tx.EXPECT().Rollback().Return(nil)

	results, err := pricefeed.NewService(repo).RefreshAll(ctx,
		stubFeed{err: errors.New("down")},
		stubFeed{unit: ledger.UnitAmount},
	)

	assert.Error(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Processed)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	seeder := pricefeed.NewMockSeeder(ctrl)

	seen := map[string]*ledger.Asset{}

	seeder.EXPECT().UpsertAsset(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, a *ledger.Asset) (bool, error) {
		seen[a.Code] = a
		return a.Class != ledger.ClassMoney, nil
	}).Times(len(pricefeed.BaselineAssets()))

	created, updated, err := pricefeed.Seed(ctx, seeder)
	require.NoError(t, err)

	assert.Equal(t, 4, created)
	assert.Equal(t, 22, updated)
	assert.Equal(t, ledger.UnitGram, seen["GOLD_21"].Unit)
	assert.True(t, price("65.625").Equal(seen["GOLD_21"].UnitPriceUSD))
	assert.Equal(t, ledger.UnitAmount, seen["KWD"].Unit)
	assert.True(t, seen["USD"].Active)
}
