package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

// gramsPerTroyOunce converts metal quotes from USD/oz to USD/gram.
var gramsPerTroyOunce = decimal.RequireFromString("31.1034768")

var ErrUnexpectedPayload = errors.New("unexpected payload")

// Rates is one fetch from a provider: USD per unit, keyed by asset code.
type Rates struct {
	Prices map[string]decimal.Decimal
	AsOf   time.Time
}

// Feed is a price provider together with the assets it prices.
type Feed interface {
	Name() string
	Fetch(ctx context.Context) (Rates, error)
	Targets() ledger.AssetFilter
	// Unit is the only unit the feed's prices apply to.
	Unit() ledger.Unit
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("requesting %s: status %d", req.URL.Host, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// CurrencyFeed reads open.er-api.com style payloads, where rates[code] is
// units of the currency per one USD.
type CurrencyFeed struct {
	client *http.Client
	url    string
}

func NewCurrencyFeed(client *http.Client, url string) *CurrencyFeed {
	return &CurrencyFeed{client: client, url: url}
}

func (f *CurrencyFeed) Name() string { return "currency" }

func (f *CurrencyFeed) Unit() ledger.Unit { return ledger.UnitAmount }

func (f *CurrencyFeed) Targets() ledger.AssetFilter {
	return ledger.AssetFilter{
		Class:      new(ledger.ClassMoney),
		Unit:       new(ledger.UnitAmount),
		ActiveOnly: true,
	}
}

type erAPIPayload struct {
	Result             string                     `json:"result"`
	TimeLastUpdateUnix int64                      `json:"time_last_update_unix"`
	Rates              map[string]decimal.Decimal `json:"rates"`
}

func (f *CurrencyFeed) Fetch(ctx context.Context) (Rates, error) {
	var payload erAPIPayload
	if err := getJSON(ctx, f.client, f.url, &payload); err != nil {
		return Rates{}, err
	}

	if payload.Result != "success" || payload.Rates == nil {
		return Rates{}, fmt.Errorf("currency feed: %w", ErrUnexpectedPayload)
	}

	prices := make(map[string]decimal.Decimal, len(payload.Rates))

	for code, perUSD := range payload.Rates {
		code = strings.ToUpper(code)

		if !perUSD.IsPositive() {
			prices[code] = decimal.Zero
			continue
		}

		prices[code] = decimal.NewFromInt(1).DivRound(perUSD, 6)
	}

	rates := Rates{Prices: prices}
	if payload.TimeLastUpdateUnix > 0 {
		rates.AsOf = time.Unix(payload.TimeLastUpdateUnix, 0).UTC()
	}

	return rates, nil
}

// MetalFeed reads metalpriceapi.com payloads quoted per troy ounce and
// derives gram prices for the gold karats and silver.
type MetalFeed struct {
	client *http.Client
	url    string
	apiKey string
}

func NewMetalFeed(client *http.Client, url, apiKey string) *MetalFeed {
	return &MetalFeed{client: client, url: url, apiKey: apiKey}
}

func (f *MetalFeed) Name() string { return "metal" }

func (f *MetalFeed) Unit() ledger.Unit { return ledger.UnitGram }

func (f *MetalFeed) Targets() ledger.AssetFilter {
	return ledger.AssetFilter{
		Codes:      []string{"GOLD_24", "GOLD_21", "GOLD_19", "SILVER"},
		ActiveOnly: true,
	}
}

type metalPayload struct {
	Success   bool                       `json:"success"`
	Timestamp int64                      `json:"timestamp"`
	Rates     map[string]decimal.Decimal `json:"rates"`
}

// perOunce prefers the direct USDXAU quote and falls back to 1/XAU.
func (p metalPayload) perOunce(metal string) (decimal.Decimal, error) {
	if v, ok := p.Rates["USD"+metal]; ok && v.IsPositive() {
		return v, nil
	}

	if v, ok := p.Rates[metal]; ok && v.IsPositive() {
		return decimal.NewFromInt(1).DivRound(v, 16), nil
	}

	return decimal.Zero, fmt.Errorf("metal feed: no positive rate for %s: %w", metal, ErrUnexpectedPayload)
}

func (f *MetalFeed) Fetch(ctx context.Context) (Rates, error) {
	if f.apiKey == "" {
		return Rates{}, errors.New("metal feed: api key is not configured")
	}

	u, err := url.Parse(f.url)
	if err != nil {
		return Rates{}, fmt.Errorf("metal feed url: %w", err)
	}

	q := u.Query()
	q.Set("api_key", f.apiKey)
	q.Set("base", "USD")
	q.Set("currencies", "XAU,XAG")
	u.RawQuery = q.Encode()

	var payload metalPayload
	if err := getJSON(ctx, f.client, u.String(), &payload); err != nil {
		return Rates{}, err
	}

	if !payload.Success {
		return Rates{}, fmt.Errorf("metal feed: %w", ErrUnexpectedPayload)
	}

	goldOz, err := payload.perOunce("XAU")
	if err != nil {
		return Rates{}, err
	}

	silverOz, err := payload.perOunce("XAG")
	if err != nil {
		return Rates{}, err
	}

	gold24 := goldOz.DivRound(gramsPerTroyOunce, 16)
	silver := silverOz.DivRound(gramsPerTroyOunce, 16)

	rates := Rates{
		Prices: map[string]decimal.Decimal{
			"GOLD_24": gold24.Round(6),
			"GOLD_21": karat(gold24, 21),
			"GOLD_19": karat(gold24, 19),
			"SILVER":  silver.Round(6),
		},
	}

	if payload.Timestamp > 0 {
		rates.AsOf = time.Unix(payload.Timestamp, 0).UTC()
	}

	return rates, nil
}

func karat(gold24 decimal.Decimal, k int64) decimal.Decimal {
	return gold24.Mul(decimal.NewFromInt(k)).DivRound(decimal.NewFromInt(24), 6)
}
