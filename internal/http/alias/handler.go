package alias

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/zakati/internal/alias"
	"github.com/MrJamesThe3rd/zakati/internal/http/auth"
	"github.com/MrJamesThe3rd/zakati/internal/http/respond"
)

type Handler struct {
	svc *alias.Service
}

func NewHandler(svc *alias.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/resolve", h.resolve)
	r.With(auth.RequireStaff).Post("/", h.learn)
}

type resolveResponse struct {
	Label     string `json:"label"`
	AssetID   int64  `json:"asset_id"`
	AssetCode string `json:"asset_code"`
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("label")
	if label == "" {
		respond.Message(w, http.StatusBadRequest, "label query parameter is required")
		return
	}

	a, err := h.svc.Resolve(r.Context(), label)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, resolveResponse{
		Label:     label,
		AssetID:   a.ID,
		AssetCode: a.Code,
	})
}

type learnRequest struct {
	Label     string `json:"label"`
	AssetCode string `json:"asset_code"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Learn(r.Context(), req.Label, req.AssetCode); err != nil {
		if errors.Is(err, alias.ErrEmptyLabel) {
			respond.Message(w, http.StatusBadRequest, err.Error())
			return
		}

		respond.Error(w, err)

		return
	}

	w.WriteHeader(http.StatusCreated)
}
