package dto

import (
	"encoding/json"
	"time"
)

// SaveDraftRequest is the body of PUT /drafts/:formKey.
type SaveDraftRequest struct {
	Payload json.RawMessage `json:"payload" binding:"required"`
}

// DraftResponse is a restored form snapshot.
type DraftResponse struct {
	FormKey string          `json:"formKey"`
	Payload json.RawMessage `json:"payload"`
	SavedAt time.Time       `json:"savedAt"`
}
