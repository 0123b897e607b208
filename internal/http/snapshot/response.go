package snapshot

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/http/respond"
	"github.com/MrJamesThe3rd/zakati/internal/http/transfer"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	"github.com/MrJamesThe3rd/zakati/internal/notify"
	"github.com/MrJamesThe3rd/zakati/internal/zakat"
)

type itemResponse struct {
	AssetID      int64  `json:"asset_id"`
	AssetCode    string `json:"asset_code"`
	Kind         string `json:"kind"`
	Unit         string `json:"unit"`
	Quantity     string `json:"quantity"`
	ValueUSD     string `json:"value_usd"`
	ValueDisplay string `json:"value_display"`
}

type windowResponse struct {
	AboveNow  bool       `json:"above_now"`
	StartedAt *time.Time `json:"started_at"`
	Completed bool       `json:"completed"`
	NextDueAt *time.Time `json:"next_due_at"`
	DaysLeft  *int       `json:"days_left"`
}

type cycleResponse struct {
	DueAt        time.Time `json:"due_at"`
	BaseUSD      string    `json:"base_usd"`
	RequiredUSD  string    `json:"required_usd"`
	RemainingUSD string    `json:"remaining_usd"`
}

type arrearsResponse struct {
	Cycles     []cycleResponse `json:"cycles"`
	PaidUSD    string          `json:"paid_usd"`
	Unapplied  string          `json:"unapplied_usd"`
	TotalDue   string          `json:"total_due_usd"`
	NextUnpaid *cycleResponse  `json:"next_unpaid"`
}

type classResponse struct {
	Items           []itemResponse  `json:"items"`
	TotalUSD        string          `json:"total_value_usd"`
	TotalDisplay    string          `json:"total_value_display"`
	NisabUSD        string          `json:"nisab_usd"`
	Hawl            windowResponse  `json:"haul"`
	Arrears         arrearsResponse `json:"arrears"`
	ZakatDueUSD     string          `json:"zakat_due_usd"`
	ZakatDueDisplay string          `json:"zakat_due_display"`
}

type displayResponse struct {
	AssetID      *int64 `json:"asset_id"`
	AssetCode    string `json:"asset_code"`
	UnitPriceUSD string `json:"unit_price_usd"`
}

type notificationResponse struct {
	Class    string    `json:"class"`
	DaysLeft int       `json:"days_left"`
	DueAt    time.Time `json:"due_at"`
	Text     string    `json:"text"`
}

type snapshotResponse struct {
	Display       displayResponse                `json:"display_currency"`
	TotalUSD      string                         `json:"total_value_usd"`
	TotalDisplay  string                         `json:"total_value_display"`
	Classes       map[string]classResponse       `json:"classes"`
	Combined      classResponse                  `json:"combined"`
	Notifications []notificationResponse         `json:"notifications"`
	Transfers     map[string][]transfer.Response `json:"transfers"`
	ComputedAt    time.Time                      `json:"computed_at"`
}

func toCycle(c zakat.Cycle) cycleResponse {
	return cycleResponse{
		DueAt:        c.DueAt,
		BaseUSD:      respond.Fixed(c.BaseUSD),
		RequiredUSD:  respond.Fixed(c.RequiredUSD),
		RemainingUSD: respond.Fixed(c.RemainingUSD),
	}
}

func toClass(cs zakat.ClassSnapshot) classResponse {
	resp := classResponse{
		Items:        make([]itemResponse, 0, len(cs.Items)),
		TotalUSD:     respond.Fixed(cs.TotalUSD),
		TotalDisplay: respond.Fixed(cs.TotalDisplay),
		NisabUSD:     respond.Fixed(cs.NisabUSD),
		Hawl: windowResponse{
			AboveNow:  cs.Window.AboveNow,
			StartedAt: cs.Window.StartedAt,
			Completed: cs.Window.Completed,
			NextDueAt: cs.Window.NextDueAt,
			DaysLeft:  cs.Window.DaysLeft,
		},
		Arrears: arrearsResponse{
			Cycles:    make([]cycleResponse, 0, len(cs.Allocation.Cycles)),
			PaidUSD:   respond.Fixed(cs.Allocation.Paid),
			Unapplied: respond.Fixed(cs.Allocation.Unapplied),
			TotalDue:  respond.Fixed(cs.Allocation.TotalDue),
		},
		ZakatDueUSD:     respond.Fixed(cs.ZakatDueUSD),
		ZakatDueDisplay: respond.Fixed(cs.ZakatDueDisplay),
	}

	for _, it := range cs.Items {
		resp.Items = append(resp.Items, itemResponse{
			AssetID:      it.Asset.ID,
			AssetCode:    it.Asset.Code,
			Kind:         it.Asset.Kind,
			Unit:         string(it.Asset.Unit),
			Quantity:     respond.Fixed(it.Quantity),
			ValueUSD:     respond.Fixed(it.ValueUSD),
			ValueDisplay: respond.Fixed(it.ValueDisplay),
		})
	}

	for _, c := range cs.Allocation.Cycles {
		resp.Arrears.Cycles = append(resp.Arrears.Cycles, toCycle(c))
	}

	if cs.Allocation.NextUnpaid != nil {
		next := toCycle(*cs.Allocation.NextUnpaid)
		resp.Arrears.NextUnpaid = &next
	}

	return resp
}

func toSnapshot(s *zakat.Snapshot, loc *notify.Localizer) snapshotResponse {
	resp := snapshotResponse{
		Display: displayResponse{
			AssetCode:    s.DisplayCode,
			UnitPriceUSD: respond.Fixed(decimal.NewFromInt(1)),
		},
		TotalUSD:      respond.Fixed(s.TotalUSD),
		TotalDisplay:  respond.Fixed(s.TotalDisplay),
		Classes:       make(map[string]classResponse, len(ledger.Classes)),
		Combined:      toClass(s.Combined),
		Notifications: make([]notificationResponse, 0, len(s.Notifications)),
		Transfers:     make(map[string][]transfer.Response, len(s.Transfers)),
		ComputedAt:    s.ComputedAt,
	}

	if s.Display != nil {
		resp.Display.AssetID = &s.Display.ID
		resp.Display.UnitPriceUSD = respond.Fixed(s.Display.UnitPriceUSD)
	}

	for _, cs := range s.Classes() {
		resp.Classes[cs.Class.Key()] = toClass(cs)
	}

	for _, n := range s.Notifications {
		resp.Notifications = append(resp.Notifications, notificationResponse{
			Class:    n.Class.Key(),
			DaysLeft: n.DaysLeft,
			DueAt:    n.DueAt,
			Text:     loc.Reminder(n),
		})
	}

	for class, transfers := range s.Transfers {
		resp.Transfers[class.Key()] = transfer.ToResponseList(transfers)
	}

	return resp
}

type amountResponse struct {
	QuantityGrams *string `json:"quantity_grams,omitempty"`
	ValueUSD      string  `json:"value_usd"`
	ValueDisplay  string  `json:"value_display"`
}

type bucketResponse map[string]amountResponse

type reportResponse struct {
	UserID      int64          `json:"user_id"`
	DisplayCode string         `json:"display_currency"`
	FXLine      string         `json:"fx"`
	Start       *time.Time     `json:"start"`
	End         *time.Time     `json:"end"`
	Added       bucketResponse `json:"add"`
	Withdrawn   bucketResponse `json:"withdraw"`
	ZakatOut    bucketResponse `json:"zakat_out"`
}

func toAmount(a zakat.Amount) amountResponse {
	resp := amountResponse{
		ValueUSD:     respond.Fixed(a.ValueUSD),
		ValueDisplay: respond.Fixed(a.ValueDisplay),
	}

	if a.QuantityGrams != nil {
		resp.QuantityGrams = new(respond.Fixed(*a.QuantityGrams))
	}

	return resp
}

func toBucket(b zakat.Bucket) bucketResponse {
	return bucketResponse{
		ledger.ClassGold.Key():   toAmount(b.Gold),
		ledger.ClassSilver.Key(): toAmount(b.Silver),
		ledger.ClassMoney.Key():  toAmount(b.Money),
	}
}

func toReport(r *zakat.Report) reportResponse {
	return reportResponse{
		UserID:      r.UserID,
		DisplayCode: r.DisplayCode,
		FXLine:      r.FXLine,
		Start:       r.Range.Start,
		End:         r.Range.End,
		Added:       toBucket(r.Added),
		Withdrawn:   toBucket(r.Withdrawn),
		ZakatOut:    toBucket(r.ZakatOut),
	}
}

type referenceResponse struct {
	Rate             string        `json:"rate"`
	HawlDays         int           `json:"hawl_days"`
	GoldNisabGrams   string        `json:"gold_nisab_grams"`
	SilverNisabGrams string        `json:"silver_nisab_grams"`
	MoneyBenchmark   string        `json:"money_benchmark"`
	ReminderOffsets  []int         `json:"reminder_offsets"`
	NisabUSD         nisabResponse `json:"nisab_usd"`
	BaseCode         string        `json:"base_currency"`
}

type nisabResponse struct {
	Gold   string `json:"gold"`
	Silver string `json:"silver"`
	Money  string `json:"money"`
}

func toReference(ref *zakat.Reference) referenceResponse {
	return referenceResponse{
		Rate:             ref.Rate.String(),
		HawlDays:         ref.HawlDays,
		GoldNisabGrams:   ref.GoldNisabGrams.String(),
		SilverNisabGrams: ref.SilverNisabGrams.String(),
		MoneyBenchmark:   ref.MoneyBenchmark.Key(),
		ReminderOffsets:  ref.ReminderOffsets,
		NisabUSD: nisabResponse{
			Gold:   respond.Fixed(ref.Nisab.Gold),
			Silver: respond.Fixed(ref.Nisab.Silver),
			Money:  respond.Fixed(ref.Nisab.Money),
		},
		BaseCode: ref.BaseCode,
	}
}
