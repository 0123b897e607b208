package transfer

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/zakati/internal/http/respond"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

type attachmentResponse struct {
	ID  uuid.UUID `json:"id"`
	URL string    `json:"url"`
}

// Response is the JSON shape of a transfer, shared with the import and snapshot handlers.
type Response struct {
	ID         int64               `json:"id"`
	UserID     int64               `json:"user_id"`
	AssetID    int64               `json:"asset_id"`
	AssetCode  string              `json:"asset_code,omitempty"`
	Type       ledger.TransferType `json:"type"`
	Quantity   string              `json:"quantity"`
	OccurredAt time.Time           `json:"occurred_at"`
	Note       string              `json:"note,omitempty"`
	Attachment *attachmentResponse `json:"attachment,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func ToResponse(t *ledger.Transfer) Response {
	resp := Response{
		ID:         t.ID,
		UserID:     t.UserID,
		AssetID:    t.AssetID,
		Type:       t.Type,
		Quantity:   respond.Fixed(t.Quantity),
		OccurredAt: t.OccurredAt,
		Note:       t.Note,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}

	if t.Asset != nil {
		resp.AssetCode = t.Asset.Code
	}

	if t.Attachment != nil {
		resp.Attachment = &attachmentResponse{ID: t.Attachment.ID, URL: t.Attachment.URL}
	}

	return resp
}

func ToResponseList(transfers []*ledger.Transfer) []Response {
	responses := make([]Response, 0, len(transfers))
	for _, t := range transfers {
		responses = append(responses, ToResponse(t))
	}

	return responses
}
