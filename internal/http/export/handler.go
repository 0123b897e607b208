package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/zakati/internal/export"
	"github.com/MrJamesThe3rd/zakati/internal/http/auth"
	"github.com/MrJamesThe3rd/zakati/internal/http/request"
	"github.com/MrJamesThe3rd/zakati/internal/http/respond"
	"github.com/MrJamesThe3rd/zakati/internal/http/transfer"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.metadata)
	r.Post("/download", h.download)
}

type exportRequest struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	// Type narrows the export, usually to ZAKAT_OUT.
	Type ledger.TransferType `json:"type,omitempty"`
}

type exportMetadataResponse struct {
	Transfers []transfer.Response `json:"transfers"`
	Summary   string              `json:"summary"`
}

// run exports into a temporary directory which the caller must remove.
func (h *Handler) run(w http.ResponseWriter, r *http.Request) ([]export.Item, string, bool) {
	caller := auth.CallerFrom(r.Context())

	userID, err := request.UserID(r, caller)
	if err != nil {
		respond.Error(w, err)
		return nil, "", false
	}

	var req exportRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Message(w, http.StatusBadRequest, "invalid request body")
			return nil, "", false
		}
	}

	if req.Type != "" && !req.Type.Valid() {
		respond.Error(w, ledger.ErrInvalidType)
		return nil, "", false
	}

	tmpDir, err := os.MkdirTemp("", "zakati-export-*")
	if err != nil {
		respond.Error(w, err)
		return nil, "", false
	}

	items, err := h.svc.Export(r.Context(), caller, export.Query{
		Filter: ledger.TransferFilter{
			UserID: userID,
			Start:  req.StartDate,
			End:    req.EndDate,
		},
		Type: req.Type,
	}, tmpDir)
	if err != nil {
		os.RemoveAll(tmpDir)

		if errors.Is(err, export.ErrReceiptUnavailable) {
			respond.Message(w, http.StatusBadGateway, err.Error())
			return nil, "", false
		}

		respond.Error(w, err)

		return nil, "", false
	}

	return items, tmpDir, true
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	items, tmpDir, ok := h.run(w, r)
	if !ok {
		return
	}
	defer os.RemoveAll(tmpDir)

	transfers := make([]*ledger.Transfer, 0, len(items))
	for _, it := range items {
		transfers = append(transfers, it.Transfer)
	}

	respond.JSON(w, http.StatusOK, exportMetadataResponse{
		Transfers: transfer.ToResponseList(transfers),
		Summary:   h.svc.Summary(items),
	})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	items, tmpDir, ok := h.run(w, r)
	if !ok {
		return
	}
	defer os.RemoveAll(tmpDir)

	if err := h.svc.WriteSummary(items, tmpDir); err != nil {
		respond.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"receipts_%s.zip\"", time.Now().Format("20060102")))

	if err := export.WriteZip(w, tmpDir); err != nil {
		slog.Error("failed to create zip", "error", err)
	}
}
