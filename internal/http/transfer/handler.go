package transfer

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/http/auth"
	"github.com/MrJamesThe3rd/zakati/internal/http/request"
	"github.com/MrJamesThe3rd/zakati/internal/http/respond"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

type Handler struct {
	svc *ledger.Service
}

func NewHandler(svc *ledger.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
}

type createTransferRequest struct {
	UserID        *int64              `json:"user_id,omitempty"`
	AssetID       int64               `json:"asset_id"`
	Type          ledger.TransferType `json:"type"`
	Quantity      decimal.Decimal     `json:"quantity"`
	OccurredAt    time.Time           `json:"occurred_at"`
	Note          string              `json:"note"`
	AttachmentURL string              `json:"attachment_url"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	caller := auth.CallerFrom(r.Context())

	userID := caller.UserID
	if req.UserID != nil {
		userID = *req.UserID
	}

	t, err := h.svc.Create(r.Context(), caller, ledger.CreateParams{
		UserID:        userID,
		AssetID:       req.AssetID,
		Type:          req.Type,
		Quantity:      req.Quantity,
		OccurredAt:    req.OccurredAt,
		Note:          req.Note,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, ToResponse(t))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())

	userID, err := request.UserID(r, caller)
	if err != nil {
		respond.Error(w, err)
		return
	}

	filter := ledger.TransferFilter{UserID: userID, Desc: r.URL.Query().Get("order") != "asc"}

	if filter.Start, err = request.Time(r, "start_date", false); err != nil {
		respond.Error(w, err)
		return
	}

	if filter.End, err = request.Time(r, "end_date", true); err != nil {
		respond.Error(w, err)
		return
	}

	for _, s := range r.URL.Query()["asset_id"] {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			respond.Error(w, request.ErrBadParam)
			return
		}

		filter.AssetIDs = append(filter.AssetIDs, id)
	}

	if limit, err := request.Int64(r, "limit"); err != nil {
		respond.Error(w, err)
		return
	} else if limit != nil {
		filter.Limit = int(*limit)
	}

	transfers, err := h.svc.List(r.Context(), caller, filter)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponseList(transfers))
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		respond.Message(w, http.StatusBadRequest, "invalid id")
		return
	}

	t, err := h.svc.Get(r.Context(), auth.CallerFrom(r.Context()), id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponse(t))
}

type updateTransferRequest struct {
	AssetID         *int64               `json:"asset_id,omitempty"`
	Type            *ledger.TransferType `json:"type,omitempty"`
	Quantity        *decimal.Decimal     `json:"quantity,omitempty"`
	Note            *string              `json:"note,omitempty"`
	AttachmentURL   *string              `json:"attachment_url,omitempty"`
	ClearAttachment bool                 `json:"clear_attachment"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		respond.Message(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	t, err := h.svc.Update(r.Context(), auth.CallerFrom(r.Context()), id, ledger.Patch{
		AssetID:         req.AssetID,
		Type:            req.Type,
		Quantity:        req.Quantity,
		Note:            req.Note,
		AttachmentURL:   req.AttachmentURL,
		ClearAttachment: req.ClearAttachment,
	})
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponse(t))
}
