package pricefeed

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

type seedAsset struct {
	code    string
	class   ledger.Class
	kind    string
	country string
	price   string
}

// baseline holds approximate prices so a fresh install can value holdings
// before the first feed run.
var baseline = []seedAsset{
	{"GOLD_24", ledger.ClassGold, "24", "", "75.0"},
	{"GOLD_21", ledger.ClassGold, "21", "", "65.625"},
	{"GOLD_19", ledger.ClassGold, "19", "", "59.375"},
	{"SILVER", ledger.ClassSilver, "فضة", "", "0.95"},

	{"USD", ledger.ClassMoney, "دولار", "United States", "1.0"},
	{"EUR", ledger.ClassMoney, "يورو", "European Union", "1.08"},
	{"GBP", ledger.ClassMoney, "جنيه إسترليني", "United Kingdom", "1.27"},
	{"CHF", ledger.ClassMoney, "فرنك سويسري", "Switzerland", "1.11"},
	{"JPY", ledger.ClassMoney, "ين ياباني", "Japan", "0.0067"},
	{"CNY", ledger.ClassMoney, "يوان صيني", "China", "0.14"},

	{"SAR", ledger.ClassMoney, "ريال سعودي", "Saudi Arabia", "0.27"},
	{"AED", ledger.ClassMoney, "درهم إماراتي", "United Arab Emirates", "0.27"},
	{"KWD", ledger.ClassMoney, "دينار كويتي", "Kuwait", "3.25"},
	{"QAR", ledger.ClassMoney, "ريال قطري", "Qatar", "0.27"},
	{"OMR", ledger.ClassMoney, "ريال عُماني", "Oman", "2.60"},
	{"BHD", ledger.ClassMoney, "دينار بحريني", "Bahrain", "2.65"},

	{"SYP", ledger.ClassMoney, "ليرة سورية", "Syria", "0.00006"},
	{"LBP", ledger.ClassMoney, "ليرة لبنانية", "Lebanon", "0.000011"},
	{"IQD", ledger.ClassMoney, "دينار عراقي", "Iraq", "0.00076"},
	{"TRY", ledger.ClassMoney, "ليرة تركية", "Turkey", "0.030"},
	{"JOD", ledger.ClassMoney, "دينار أردني", "Jordan", "1.41"},

	{"MYR", ledger.ClassMoney, "رينغيت ماليزي", "Malaysia", "0.21"},
	{"IDR", ledger.ClassMoney, "روبية إندونيسية", "Indonesia", "0.000065"},
	{"SGD", ledger.ClassMoney, "دولار سنغافوري", "Singapore", "0.74"},
	{"HKD", ledger.ClassMoney, "دولار هونغ كونغ", "Hong Kong", "0.13"},
	{"PHP", ledger.ClassMoney, "بيزو فلبيني", "Philippines", "0.017"},
}

// BaselineAssets returns the seed catalogue as active assets.
func BaselineAssets() []*ledger.Asset {
	assets := make([]*ledger.Asset, 0, len(baseline))

	for _, s := range baseline {
		assets = append(assets, &ledger.Asset{
			Code:         s.code,
			Class:        s.class,
			Kind:         s.kind,
			Unit:         s.class.Unit(),
			Country:      s.country,
			UnitPriceUSD: decimal.RequireFromString(s.price),
			Active:       true,
		})
	}

	return assets
}

// Seed upserts the baseline catalogue and returns how many rows were created and updated.
func Seed(ctx context.Context, s Seeder) (created, updated int, err error) {
	for _, a := range BaselineAssets() {
		inserted, err := s.UpsertAsset(ctx, a)
		if err != nil {
			return created, updated, err
		}

		if inserted {
			created++
		} else {
			updated++
		}

		slog.Debug("seeded asset", "code", a.Code, "inserted", inserted, "price_usd", a.UnitPriceUSD)
	}

	return created, updated, nil
}
