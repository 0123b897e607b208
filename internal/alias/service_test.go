package alias_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/zakati/internal/alias"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

var gold21 = &ledger.Asset{ID: 2, Code: "GOLD_21", Class: ledger.ClassGold, Unit: ledger.UnitGram, Active: true}

func TestService_Resolve(t *testing.T) {
	type testCase struct {
		name      string
		label     string
		setupMock func(r *alias.MockRepository, a *alias.MockAssetLookup)
		wantCode  string
		wantErr   error
	}

	tests := []testCase{
		{
			name:  "LabelIsCode",
			label: " gold_21 ",
			setupMock: func(r *alias.MockRepository, a *alias.MockAssetLookup) {
				a.EXPECT().GetAssetByCode(gomock.Any(), "GOLD_21").Return(gold21, nil)
			},
			wantCode: "GOLD_21",
		},
		{
			name:  "LearnedAlias",
			label: "ذهب   عيار 21",
			setupMock: func(r *alias.MockRepository, a *alias.MockAssetLookup) {
				a.EXPECT().GetAssetByCode(gomock.Any(), "ذهب عيار 21").Return(nil, ledger.ErrNotFound)
				r.EXPECT().FindMatch(gomock.Any(), "ذهب عيار 21").Return("GOLD_21", nil)
				a.EXPECT().GetAssetByCode(gomock.Any(), "GOLD_21").Return(gold21, nil)
			},
			wantCode: "GOLD_21",
		},
		{
			name:  "Unknown",
			label: "Bitcoin",
			setupMock: func(r *alias.MockRepository, a *alias.MockAssetLookup) {
				a.EXPECT().GetAssetByCode(gomock.Any(), "BITCOIN").Return(nil, ledger.ErrNotFound)
				r.EXPECT().FindMatch(gomock.Any(), "Bitcoin").Return("", nil)
			},
			wantErr: ledger.ErrNotFound,
		},
		{
			name:  "AliasToRetiredAsset",
			label: "Syrian pound",
			setupMock: func(r *alias.MockRepository, a *alias.MockAssetLookup) {
				a.EXPECT().GetAssetByCode(gomock.Any(), "SYRIAN POUND").Return(nil, ledger.ErrNotFound)
				r.EXPECT().FindMatch(gomock.Any(), "Syrian pound").Return("SYP", nil)
				a.EXPECT().GetAssetByCode(gomock.Any(), "SYP").Return(&ledger.Asset{Code: "SYP"}, nil)
			},
			wantErr: ledger.ErrAssetInactive,
		},
		{
			name:    "Empty",
			label:   "   ",
			wantErr: alias.ErrEmptyLabel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := alias.NewMockRepository(ctrl)
			assets := alias.NewMockAssetLookup(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(repo, assets)
			}

			got, err := alias.NewService(repo, assets).Resolve(context.Background(), tt.label)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestService_Learn(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := alias.NewMockRepository(ctrl)
	assets := alias.NewMockAssetLookup(ctrl)
	svc := alias.NewService(repo, assets)

	assets.EXPECT().GetAssetByCode(gomock.Any(), "GOLD_21").Return(gold21, nil)
	repo.EXPECT().CreateAlias(gomock.Any(), "Gold 21k", "GOLD_21").Return(nil)
	require.NoError(t, svc.Learn(context.Background(), " Gold  21k", "gold_21"))

	assets.EXPECT().GetAssetByCode(gomock.Any(), "XAU").Return(nil, ledger.ErrNotFound)
	assert.ErrorIs(t, svc.Learn(context.Background(), "Gold", "xau"), ledger.ErrAssetInactive)

	assets.EXPECT().GetAssetByCode(gomock.Any(), "USD").Return(nil, errors.New("db down"))
	assert.Error(t, svc.Learn(context.Background(), "Dollar", "USD"))

	assert.ErrorIs(t, svc.Learn(context.Background(), "", "USD"), alias.ErrEmptyLabel)
}
