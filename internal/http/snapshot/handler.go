package snapshot

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/zakati/internal/http/auth"
	"github.com/MrJamesThe3rd/zakati/internal/http/request"
	"github.com/MrJamesThe3rd/zakati/internal/http/respond"
	"github.com/MrJamesThe3rd/zakati/internal/notify"
	"github.com/MrJamesThe3rd/zakati/internal/zakat"
)

type Handler struct {
	svc *zakat.Service
}

func NewHandler(svc *zakat.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/snapshot", h.snapshot)
	r.Get("/report", h.report)
	r.Get("/reference", h.reference)
}

// snapshot serves the caller's holdings, or another user's for staff via ?user_id=.
// Reminder text follows the Accept-Language header.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	userID, err := request.UserID(r, auth.CallerFrom(r.Context()))
	if err != nil {
		respond.Error(w, err)
		return
	}

	limit, err := request.Int64(r, "limit")
	if err != nil {
		respond.Error(w, err)
		return
	}

	var transferLimit int
	if limit != nil {
		transferLimit = int(*limit)
	}

	snap, err := h.svc.Snapshot(r.Context(), userID, transferLimit)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toSnapshot(snap, notify.NewLocalizer(r.Header.Get("Accept-Language"))))
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())

	userID := caller.UserID

	id, err := request.Int64(r, "user_id")
	if err != nil {
		respond.Error(w, err)
		return
	}

	if id != nil {
		userID = *id
	}

	var rng zakat.Range

	if rng.Start, err = request.Time(r, "start", false); err != nil {
		respond.Error(w, err)
		return
	}

	if rng.End, err = request.Time(r, "end", true); err != nil {
		respond.Error(w, err)
		return
	}

	rep, err := h.svc.Report(r.Context(), caller, userID, rng)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toReport(rep))
}

func (h *Handler) reference(w http.ResponseWriter, r *http.Request) {
	ref, err := h.svc.Reference(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toReference(ref))
}
