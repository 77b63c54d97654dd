package api

import (
	"time"

	"github.com/dicekv/dicekv/pkg/types"
	"github.com/dicekv/dicekv/server/internal/store"
	"github.com/dicekv/dicekv/server/internal/value"
)

// legacyResponse is the body shape of the /db protocol.
type legacyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
	Data    any    `json:"data,omitempty"`
	Display string `json:"display,omitempty"`
}

// toRecordResponse maps a store entry to its JSON representation.
func toRecordResponse(e store.Entry) types.RecordResponse {
	return types.RecordResponse{
		ID:              e.ID,
		Type:            e.Value.Kind().String(),
		Value:           e.Value.Native(),
		Display:         e.Value.String(),
		RetentionWeight: e.RetentionWeight,
		CreatedAt:       e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// partialRecord describes a record that was written but evicted before it
// could be read back; only the caller-supplied parts are known.
func partialRecord(id uint64, v value.Value) types.RecordResponse {
	return types.RecordResponse{
		ID:      id,
		Type:    v.Kind().String(),
		Value:   v.Native(),
		Display: v.String(),
	}
}
