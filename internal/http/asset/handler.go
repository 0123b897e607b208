package asset

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/zakati/internal/http/auth"
	"github.com/MrJamesThe3rd/zakati/internal/http/respond"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

type Handler struct {
	svc *ledger.Service
}

func NewHandler(svc *ledger.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the asset catalogue and the caller's profile.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/assets", h.list)
	r.Get("/me", h.me)
	r.Put("/me/display-currency", h.setDisplayCurrency)
}

type assetResponse struct {
	ID           int64  `json:"id"`
	Code         string `json:"asset_code"`
	Class        string `json:"class"`
	Kind         string `json:"kind"`
	Unit         string `json:"unit"`
	Country      string `json:"country,omitempty"`
	UnitPriceUSD string `json:"unit_price_usd"`
}

func toAssetResponse(a *ledger.Asset) assetResponse {
	return assetResponse{
		ID:           a.ID,
		Code:         a.Code,
		Class:        a.Class.Key(),
		Kind:         a.Kind,
		Unit:         string(a.Unit),
		Country:      a.Country,
		UnitPriceUSD: respond.Fixed(a.UnitPriceUSD),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	assets, err := h.svc.Assets(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}

	resp := make([]assetResponse, 0, len(assets))
	for _, a := range assets {
		resp = append(resp, toAssetResponse(a))
	}

	respond.JSON(w, http.StatusOK, resp)
}

type userResponse struct {
	ID              int64          `json:"id"`
	Email           string         `json:"email"`
	FullName        string         `json:"full_name"`
	Staff           bool           `json:"is_staff"`
	DisplayCurrency *assetResponse `json:"display_currency"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())

	u, err := h.svc.User(r.Context(), caller, caller.UserID)
	if err != nil {
		respond.Error(w, err)
		return
	}

	resp := userResponse{ID: u.ID, Email: u.Email, FullName: u.FullName, Staff: u.Staff}
	if u.DisplayCurrency != nil {
		resp.DisplayCurrency = new(toAssetResponse(u.DisplayCurrency))
	}

	respond.JSON(w, http.StatusOK, resp)
}

type displayCurrencyRequest struct {
	AssetID int64 `json:"asset_id"`
}

func (h *Handler) setDisplayCurrency(w http.ResponseWriter, r *http.Request) {
	var req displayCurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	a, err := h.svc.SetDisplayCurrency(r.Context(), auth.CallerFrom(r.Context()), req.AssetID)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toAssetResponse(a))
}
