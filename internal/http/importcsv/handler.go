package importcsv

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/http/auth"
	"github.com/MrJamesThe3rd/zakati/internal/http/request"
	"github.com/MrJamesThe3rd/zakati/internal/http/respond"
	"github.com/MrJamesThe3rd/zakati/internal/http/transfer"
	"github.com/MrJamesThe3rd/zakati/internal/importer"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

type Handler struct {
	importSvc *importer.Service
	ledgerSvc *ledger.Service
}

func NewHandler(importSvc *importer.Service, ledgerSvc *ledger.Service) *Handler {
	return &Handler{
		importSvc: importSvc,
		ledgerSvc: ledgerSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
	r.Post("/confirm", h.confirmImport)
}

type importSuccessResponse struct {
	Imported  int                 `json:"imported"`
	Transfers []transfer.Response `json:"transfers"`
}

type createParamsDTO struct {
	UserID     int64               `json:"user_id"`
	AssetID    int64               `json:"asset_id"`
	Type       ledger.TransferType `json:"type"`
	Quantity   decimal.Decimal     `json:"quantity"`
	OccurredAt time.Time           `json:"occurred_at"`
	Note       string              `json:"note"`
}

type conflictDTO struct {
	Incoming createParamsDTO   `json:"incoming"`
	Existing transfer.Response `json:"existing"`
}

type importConflictResponse struct {
	New       []createParamsDTO `json:"new"`
	Conflicts []conflictDTO     `json:"conflicts"`
}

type confirmRequest struct {
	Params []createParamsDTO `json:"params"`
}

// importCSV parses an uploaded ledger file for the caller (or ?user_id= for
// staff). Duplicates of existing transfers abort the import with 409 and are
// returned for review; the reviewed set is then posted to /confirm.
func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())

	userID, err := request.UserID(r, caller)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respond.Message(w, http.StatusBadRequest, "failed to parse form: "+err.Error())
		return
	}

	format := importer.Format(r.FormValue("format"))
	if format == "" {
		format = importer.FormatLedgerCSV
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	params, err := h.importSvc.Import(r.Context(), format, file, importer.Options{
		UserID:  userID,
		Charset: r.FormValue("charset"),
	})
	if err != nil {
		var unresolved *importer.UnresolvedError
		if errors.As(err, &unresolved) {
			respond.Message(w, http.StatusBadRequest, unresolved.Labels...)
			return
		}

		if errors.Is(err, importer.ErrInvalidFile) {
			respond.Message(w, http.StatusBadRequest, err.Error())
			return
		}

		respond.Error(w, err)

		return
	}

	result, err := h.ledgerSvc.ImportBatch(r.Context(), caller, params)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]createParamsDTO, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}
		for _, p := range result.New {
			resp.New = append(resp.New, toParamsDTO(p))
		}

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: toParamsDTO(c.Incoming),
				Existing: transfer.ToResponse(c.Existing),
			})
		}

		respond.JSON(w, http.StatusConflict, resp)

		return
	}

	respond.JSON(w, http.StatusCreated, toSuccessResponse(result.Imported))
}

func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	params := make([]ledger.CreateParams, 0, len(req.Params))
	for _, p := range req.Params {
		params = append(params, ledger.CreateParams{
			UserID:     p.UserID,
			AssetID:    p.AssetID,
			Type:       p.Type,
			Quantity:   p.Quantity,
			OccurredAt: p.OccurredAt,
			Note:       p.Note,
		})
	}

	transfers, err := h.ledgerSvc.CreateBatch(r.Context(), auth.CallerFrom(r.Context()), params)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toSuccessResponse(transfers))
}

func toSuccessResponse(transfers []*ledger.Transfer) importSuccessResponse {
	return importSuccessResponse{
		Imported:  len(transfers),
		Transfers: transfer.ToResponseList(transfers),
	}
}

func toParamsDTO(p ledger.CreateParams) createParamsDTO {
	return createParamsDTO{
		UserID:     p.UserID,
		AssetID:    p.AssetID,
		Type:       p.Type,
		Quantity:   p.Quantity,
		OccurredAt: p.OccurredAt,
		Note:       p.Note,
	}
}
