package rates

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/zakati/internal/http/auth"
	"github.com/MrJamesThe3rd/zakati/internal/http/respond"
	"github.com/MrJamesThe3rd/zakati/internal/pricefeed"
)

type Handler struct {
	svc      *pricefeed.Service
	currency pricefeed.Feed
	metal    pricefeed.Feed
}

func NewHandler(svc *pricefeed.Service, currency, metal pricefeed.Feed) *Handler {
	return &Handler{svc: svc, currency: currency, metal: metal}
}

// Routes mounts the staff-only price refresh endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Use(auth.RequireStaff)
	r.Post("/currency", h.refresh(h.currency))
	r.Post("/metal", h.refresh(h.metal))
}

type changeResponse struct {
	AssetID int64  `json:"asset_id"`
	Code    string `json:"code"`
	Old     string `json:"old"`
	New     string `json:"new"`
}

type skipResponse struct {
	AssetID int64  `json:"asset_id"`
	Code    string `json:"code"`
	Reason  string `json:"reason"`
}

type resultResponse struct {
	Status  string           `json:"status"`
	Message []string         `json:"message"`
	Updated []changeResponse `json:"updated"`
	Skipped []skipResponse   `json:"skipped"`
	Missing []int64          `json:"missing_code"`
	AsOf    *time.Time       `json:"as_of,omitempty"`
}

func toResult(res *pricefeed.Result) resultResponse {
	resp := resultResponse{
		Status:  "ok",
		Message: []string{fmt.Sprintf("Processed %d %s assets", res.Processed, res.Feed)},
		Updated: make([]changeResponse, 0, len(res.Updated)),
		Skipped: make([]skipResponse, 0, len(res.Skipped)),
		Missing: make([]int64, 0, len(res.Missing)),
	}

	for _, c := range res.Updated {
		resp.Updated = append(resp.Updated, changeResponse{AssetID: c.AssetID, Code: c.Code, Old: respond.Fixed(c.Old), New: respond.Fixed(c.New)})
	}

	for _, s := range res.Skipped {
		resp.Skipped = append(resp.Skipped, skipResponse{AssetID: s.AssetID, Code: s.Code, Reason: s.Reason})
	}

	resp.Missing = append(resp.Missing, res.Missing...)

	if !res.AsOf.IsZero() {
		resp.AsOf = &res.AsOf
	}

	return resp
}

func (h *Handler) refresh(feed pricefeed.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := h.svc.Refresh(r.Context(), feed)
		if err != nil {
			respond.Message(w, http.StatusBadGateway, err.Error())
			return
		}

		respond.JSON(w, http.StatusOK, toResult(res))
	}
}
