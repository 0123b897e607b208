package pricefeed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/zakati/internal/pricefeed"
)

func serve(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCurrencyFeed_Fetch(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    map[string]decimal.Decimal
		wantErr bool
	}{
		{
			name:   "inverts units per USD",
			status: http.StatusOK,
			body:   `{"result":"success","time_last_update_unix":1700000000,"rates":{"USD":1,"eur":0.925926,"SAR":3.75,"XXX":0}}`,
			want: map[string]decimal.Decimal{
				"USD": price("1"),
				"EUR": price("1.08"),
				"SAR": price("0.266667"),
				"XXX": decimal.Zero,
			},
		},
		{
			name:    "error result",
			status:  http.StatusOK,
			body:    `{"result":"error","error-type":"unsupported-code"}`,
			wantErr: true,
		},
		{
			name:    "http failure",
			status:  http.StatusBadGateway,
			body:    `{}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			status:  http.StatusOK,
			body:    `{"result":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body, nil)
			feed := pricefeed.NewCurrencyFeed(srv.Client(), srv.URL)

			got, err := feed.Fetch(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Len(t, got.Prices, len(tt.want))

			for code, want := range tt.want {
				assert.True(t, want.Equal(got.Prices[code]), "%s: want %s, got %s", code, want, got.Prices[code])
			}

			assert.Equal(t, time.Unix(1700000000, 0).UTC(), got.AsOf)
		})
	}
}

func TestMetalFeed_Fetch(t *testing.T) {
	t.Run("derives gram prices per karat", func(t *testing.T) {
		srv := serve(t, http.StatusOK, `{"success":true,"timestamp":1700000000,"rates":{"USDXAU":2000,"XAG":0.04}}`, func(r *http.Request) {
			assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
			assert.Equal(t, "USD", r.URL.Query().Get("base"))
			assert.Equal(t, "XAU,XAG", r.URL.Query().Get("currencies"))
		})

		got, err := pricefeed.NewMetalFeed(srv.Client(), srv.URL, "secret").Fetch(context.Background())
		require.NoError(t, err)

		assert.True(t, price("64.301493").Equal(got.Prices["GOLD_24"]), got.Prices["GOLD_24"].String())
		assert.True(t, price("56.263806").Equal(got.Prices["GOLD_21"]), got.Prices["GOLD_21"].String())
		assert.True(t, price("50.905349").Equal(got.Prices["GOLD_19"]), got.Prices["GOLD_19"].String())
		assert.True(t, price("0.803769").Equal(got.Prices["SILVER"]), got.Prices["SILVER"].String())
	})

	t.Run("missing metal rate", func(t *testing.T) {
		srv := serve(t, http.StatusOK, `{"success":true,"rates":{"USDXAU":2000}}`, nil)

		_, err := pricefeed.NewMetalFeed(srv.Client(), srv.URL, "secret").Fetch(context.Background())
		assert.ErrorIs(t, err, pricefeed.ErrUnexpectedPayload)
	})

	t.Run("unsuccessful payload", func(t *testing.T) {
		srv := serve(t, http.StatusOK, `{"success":false}`, nil)

		_, err := pricefeed.NewMetalFeed(srv.Client(), srv.URL, "secret").Fetch(context.Background())
		assert.ErrorIs(t, err, pricefeed.ErrUnexpectedPayload)
	})

	t.Run("no api key", func(t *testing.T) {
		_, err := pricefeed.NewMetalFeed(http.DefaultClient, "http://127.0.0.1:0", "").Fetch(context.Background())
		assert.Error(t, err)
	})
}
