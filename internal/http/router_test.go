package http_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/zakati/internal/alias"
	"github.com/MrJamesThe3rd/zakati/internal/export"
	apihttp "github.com/MrJamesThe3rd/zakati/internal/http"
	aliashttp "github.com/MrJamesThe3rd/zakati/internal/http/alias"
	"github.com/MrJamesThe3rd/zakati/internal/http/asset"
	"github.com/MrJamesThe3rd/zakati/internal/http/auth"
	exporthttp "github.com/MrJamesThe3rd/zakati/internal/http/export"
	"github.com/MrJamesThe3rd/zakati/internal/http/importcsv"
	"github.com/MrJamesThe3rd/zakati/internal/http/rates"
	"github.com/MrJamesThe3rd/zakati/internal/http/snapshot"
	"github.com/MrJamesThe3rd/zakati/internal/http/transfer"
	"github.com/MrJamesThe3rd/zakati/internal/importer"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	"github.com/MrJamesThe3rd/zakati/internal/pricefeed"
	"github.com/MrJamesThe3rd/zakati/internal/zakat"
)

var (
	now  = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	usd  = &ledger.Asset{ID: 1, Code: "USD", Class: ledger.ClassMoney, Unit: ledger.UnitAmount, UnitPriceUSD: decimal.NewFromInt(1), Active: true}
	eur  = &ledger.Asset{ID: 2, Code: "EUR", Class: ledger.ClassMoney, Unit: ledger.UnitAmount, UnitPriceUSD: decimal.RequireFromString("1.08"), Active: true}
	user = &ledger.User{ID: 7, Email: "owner@example.com", FullName: "Owner", Active: true}
)

type fixture struct {
	repo      *ledger.MockRepository
	aliases   *alias.MockRepository
	verifier  *auth.Verifier
	handler   http.Handler
	feedCalls int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &fixture{
		repo:     ledger.NewMockRepository(ctrl),
		aliases:  alias.NewMockRepository(ctrl),
		verifier: auth.NewVerifier("test-secret"),
	}

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		f.feedCalls++
		_, _ = w.Write([]byte(`{"result":"success","rates":{"USD":1,"EUR":0.925926}}`))
	}))
	t.Cleanup(feedSrv.Close)

	ledgerSvc := ledger.NewService(f.repo, ledger.ReceiptStore{})
	zakatSvc := zakat.NewService(f.repo, zakat.DefaultParams(), zakat.WithClock(func() time.Time { return now }))
	aliasSvc := alias.NewService(f.aliases, f.repo)
	priceSvc := pricefeed.NewService(f.repo)
	currency := pricefeed.NewCurrencyFeed(feedSrv.Client(), feedSrv.URL)

	f.handler = apihttp.New(apihttp.Handlers{
		Transfers: transfer.NewHandler(ledgerSvc),
		Zakat:     snapshot.NewHandler(zakatSvc),
		Assets:    asset.NewHandler(ledgerSvc),
		Import:    importcsv.NewHandler(importer.NewService(aliasSvc, time.UTC), ledgerSvc),
		Aliases:   aliashttp.NewHandler(aliasSvc),
		Rates:     rates.NewHandler(priceSvc, currency, currency),
		Export:    exporthttp.NewHandler(export.NewService(ledgerSvc, feedSrv.Client(), ledger.ReceiptStore{}, "")),
	}, f.verifier, apihttp.Options{AllowedOrigins: []string{"*"}})

	return f
}

func (f *fixture) do(t *testing.T, caller *ledger.Caller, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	if caller != nil {
		token, err := f.verifier.Sign(*caller)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())

	return body
}

var (
	owner    = &ledger.Caller{UserID: 7}
	stranger = &ledger.Caller{UserID: 8}
	staff    = &ledger.Caller{UserID: 1, Staff: true}
)

func TestRouter_Auth(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "bad signature", header: "Bearer " + mustSign(t, auth.NewVerifier("other"), *owner)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := f.do(t, nil, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, decode(t, rec), "message")
		})
	}

	t.Run("health is public", func(t *testing.T) {
		rec := f.do(t, nil, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

// decimalMatcher compares by value; gomock's default equality also compares the exponent.
type decimalMatcher struct{ want decimal.Decimal }

func decimalEq(s string) gomock.Matcher {
	return decimalMatcher{want: decimal.RequireFromString(s)}
}

func (m decimalMatcher) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalMatcher) String() string {
	return fmt.Sprintf("is equal to %s", m.want)
}

func mustSign(t *testing.T, v *auth.Verifier, c ledger.Caller) string {
	t.Helper()

	token, err := v.Sign(c)
	require.NoError(t, err)

	return token
}

func TestRouter_Snapshot(t *testing.T) {
	t.Run("owner gets totals and reminder text", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().GetUser(gomock.Any(), int64(7)).Return(user, nil)
		f.repo.EXPECT().ListAssets(gomock.Any(), ledger.AssetFilter{ActiveOnly: true}).Return([]*ledger.Asset{usd, eur}, nil)
		f.repo.EXPECT().ListTransfers(gomock.Any(), ledger.TransferFilter{UserID: 7, AssetIDs: []int64{1, 2}}).Return([]*ledger.Transfer{
			{ID: 1, UserID: 7, AssetID: 1, Type: ledger.TypeAdd, Quantity: decimal.NewFromInt(8000), OccurredAt: now.AddDate(0, 0, -324)},
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil)
		req.Header.Set("Accept-Language", "en")

		rec := f.do(t, owner, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decode(t, rec)
		assert.Equal(t, "8000.000000", body["total_value_usd"])
		assert.Equal(t, "USD", body["display_currency"].(map[string]any)["asset_code"])

		classes := body["classes"].(map[string]any)
		assert.Contains(t, classes, "gold")
		assert.Contains(t, classes, "silver")
		assert.Contains(t, classes, "money")

		notes := body["notifications"].([]any)
		require.Len(t, notes, 1)
		assert.Equal(t, "Money: 30 days left until zakat is due.", notes[0].(map[string]any)["text"])
	})

	t.Run("other users need staff", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(t, stranger, httptest.NewRequest(http.MethodGet, "/api/v1/snapshot?user_id=7", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("bad limit", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(t, owner, httptest.NewRequest(http.MethodGet, "/api/v1/snapshot?limit=x", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouter_Report(t *testing.T) {
	f := newFixture(t)

	display := *user
	display.DisplayCurrencyID = &eur.ID
	display.DisplayCurrency = eur

	f.repo.EXPECT().GetUser(gomock.Any(), int64(7)).Return(&display, nil)
	f.repo.EXPECT().ListAssets(gomock.Any(), gomock.Any()).Return([]*ledger.Asset{usd, eur}, nil)
	f.repo.EXPECT().ListTransfers(gomock.Any(), gomock.Any()).Return(nil, nil)

	rec := f.do(t, staff, httptest.NewRequest(http.MethodGet, "/api/v1/report?user_id=7&start=2025-01-01&end=2025-05-31", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "1 USD = 0.925926 EUR", body["fx"])
	assert.Equal(t, "EUR", body["display_currency"])
}

func TestRouter_CreateTransfer(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().GetUser(gomock.Any(), int64(7)).Return(user, nil)
		f.repo.EXPECT().GetAsset(gomock.Any(), int64(1)).Return(usd, nil)
		f.repo.EXPECT().CreateTransfer(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, tr *ledger.Transfer) error {
			tr.ID = 10
			return nil
		})

		rec := f.do(t, owner, jsonRequest(http.MethodPost, "/api/v1/transfers/",
			`{"asset_id":1,"type":"ADD","quantity":"100","occurred_at":"2025-05-01T00:00:00Z"}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		body := decode(t, rec)
		assert.EqualValues(t, 10, body["id"])
		assert.Equal(t, "100.000000", body["quantity"])
	})

	t.Run("validation error uses the envelope", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(t, owner, jsonRequest(http.MethodPost, "/api/v1/transfers/", `{"asset_id":1,"type":"ADD","quantity":"0"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		body := decode(t, rec)
		assert.Equal(t, map[string]any{}, body["data"])
		assert.Contains(t, body["message"].([]any)[0], "invalid quantity")
	})

	t.Run("attachment outside the receipt store", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(t, owner, jsonRequest(http.MethodPost, "/api/v1/transfers/",
			`{"asset_id":1,"type":"ADD","quantity":"5","attachment_url":"http://169.254.169.254/latest"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode(t, rec)["message"].([]any)[0], "receipt store")
	})

	t.Run("forbidden for another user", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(t, stranger, jsonRequest(http.MethodPost, "/api/v1/transfers/", `{"user_id":7,"asset_id":1,"type":"ADD","quantity":"5"}`))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("non-json content type", func(t *testing.T) {
		f := newFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers/", strings.NewReader("x"))
		req.Header.Set("Content-Type", "text/plain")

		rec := f.do(t, owner, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestRouter_UpdateTransfer_Conflict(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().EditTransfer(gomock.Any(), int64(3), gomock.Any()).Return(nil, ledger.ErrConflict)

	rec := f.do(t, owner, jsonRequest(http.MethodPatch, "/api/v1/transfers/3", `{"note":"x"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func multipartFile(t *testing.T, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "ledger.csv")
	require.NoError(t, err)

	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func TestRouter_Import(t *testing.T) {
	const file = "Date,Asset,Type,Quantity\n2025-01-10,USD,ADD,100\n"

	t.Run("duplicates return 409 for review", func(t *testing.T) {
		f := newFixture(t)
		itx := ledger.NewMockImportTx(gomock.NewController(t))

		existing := &ledger.Transfer{ID: 4, UserID: 7, AssetID: 1, Type: ledger.TypeAdd, Quantity: decimal.NewFromInt(100), OccurredAt: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)}

		f.repo.EXPECT().GetAssetByCode(gomock.Any(), "USD").Return(usd, nil)
		f.repo.EXPECT().GetUser(gomock.Any(), int64(7)).Return(user, nil)
		f.repo.EXPECT().GetAsset(gomock.Any(), int64(1)).Return(usd, nil)
		f.repo.EXPECT().BeginImport(gomock.Any(), int64(7)).Return(itx, nil)
		itx.EXPECT().FindDuplicates(gomock.Any(), gomock.Any()).Return([]*ledger.Transfer{existing}, nil)
		itx.EXPECT().Rollback().Return(nil)

		rec := f.do(t, owner, multipartFile(t, file))
		require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

		body := decode(t, rec)
		assert.Empty(t, body["new"])
		assert.Len(t, body["conflicts"], 1)
	})

	t.Run("unknown labels are listed", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().GetAssetByCode(gomock.Any(), "USD").Return(nil, ledger.ErrNotFound)
		f.aliases.EXPECT().FindMatch(gomock.Any(), "USD").Return("", nil)

		rec := f.do(t, owner, multipartFile(t, file))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []any{"USD"}, decode(t, rec)["message"])
	})

	t.Run("malformed file is rejected", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(t, owner, multipartFile(t, "When,What\n1,2\n"))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode(t, rec)["message"].([]any)[0], "invalid import file")
	})

	t.Run("alias lookup failure is internal", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().GetAssetByCode(gomock.Any(), "USD").Return(nil, errors.New("connection reset"))

		rec := f.do(t, owner, multipartFile(t, file))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, []any{"internal error"}, decode(t, rec)["message"])
	})
}

func TestRouter_Rates(t *testing.T) {
	t.Run("staff only", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(t, owner, httptest.NewRequest(http.MethodPost, "/api/v1/rates/currency", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Zero(t, f.feedCalls)
	})

	t.Run("staff refresh applies prices", func(t *testing.T) {
		f := newFixture(t)
		tx := ledger.NewMockPriceTx(gomock.NewController(t))

		f.repo.EXPECT().BeginPriceUpdate(gomock.Any()).Return(tx, nil)
		tx.EXPECT().LockAssets(gomock.Any(), gomock.Any()).Return([]*ledger.Asset{usd, {ID: 2, Code: "EUR", Unit: ledger.UnitAmount, UnitPriceUSD: decimal.RequireFromString("1.05")}}, nil)
		tx.EXPECT().SetPrice(gomock.Any(), int64(2), decimalEq("1.08")).Return(nil)
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		rec := f.do(t, staff, httptest.NewRequest(http.MethodPost, "/api/v1/rates/currency", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decode(t, rec)
		assert.Equal(t, "ok", body["status"])
		assert.Len(t, body["updated"], 1)
		assert.Len(t, body["skipped"], 1)
	})
}

func TestRouter_Aliases(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, owner, jsonRequest(http.MethodPost, "/api/v1/aliases/", `{"label":"dollars","asset_code":"USD"}`))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.repo.EXPECT().GetAssetByCode(gomock.Any(), "USD").Return(usd, nil)
	f.aliases.EXPECT().CreateAlias(gomock.Any(), "dollars", "USD").Return(nil)

	rec = f.do(t, staff, jsonRequest(http.MethodPost, "/api/v1/aliases/", `{"label":"dollars","asset_code":"USD"}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouter_Export(t *testing.T) {
	transfers := []*ledger.Transfer{
		{ID: 1, UserID: 7, AssetID: 1, Asset: usd, Type: ledger.TypeAdd, Quantity: decimal.NewFromInt(500), OccurredAt: now},
		{ID: 2, UserID: 7, AssetID: 1, Asset: usd, Type: ledger.TypeZakatOut, Quantity: decimal.NewFromInt(20), OccurredAt: now, Note: "paid"},
	}

	t.Run("metadata filtered by type", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().ListTransfers(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, filter ledger.TransferFilter) ([]*ledger.Transfer, error) {
			assert.Equal(t, int64(7), filter.UserID)
			require.NotNil(t, filter.Start)
			return transfers, nil
		})

		rec := f.do(t, owner, jsonRequest(http.MethodPost, "/api/v1/export/", `{"start_date":"2025-01-01T00:00:00Z","type":"ZAKAT_OUT"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decode(t, rec)
		require.Len(t, body["transfers"], 1)
		assert.Contains(t, body["summary"], "| ZAKAT_OUT | USD 20 | paid | no receipt")
	})

	t.Run("download zip", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().ListTransfers(gomock.Any(), gomock.Any()).Return(transfers, nil)

		rec := f.do(t, owner, httptest.NewRequest(http.MethodPost, "/api/v1/export/download", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))

		zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
		require.NoError(t, err)
		require.Len(t, zr.File, 1)
		assert.Equal(t, export.SummaryFile, zr.File[0].Name)
	})

	t.Run("invalid type", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(t, owner, jsonRequest(http.MethodPost, "/api/v1/export/", `{"type":"GIFT"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("forbidden for another user", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(t, stranger, jsonRequest(http.MethodPost, "/api/v1/export/?user_id=7", `{}`))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
