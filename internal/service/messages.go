package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mmynk/giftsplit/internal/models"
	"github.com/mmynk/giftsplit/internal/session"
)

// Empty is the request for procedures that take no arguments.
type Empty struct{}

// StateResponse is returned by every procedure that applies an event.
type StateResponse struct {
	// Applied is false when the event was a no-op (unknown row, no item, ...).
	Applied bool          `json:"applied"`
	State   session.State `json:"state"`
}

type OpenSessionRequest struct {
	Input models.ItemContext `json:"input"`
}

type OpenSessionResponse struct {
	SessionID string        `json:"sessionId"`
	Token     string        `json:"token"`
	State     session.State `json:"state"`
}

type GetSessionInputResponse struct {
	Input    models.ItemContext `json:"input"`
	HasInput bool               `json:"hasInput"`
}

type UpdateSessionInputRequest struct {
	Input models.ItemContext `json:"input"`
}

type UpdateFieldRequest struct {
	RowID string          `json:"rowId"`
	Field models.RowField `json:"field"`
	Value string          `json:"value"`
}

// RawQuantity is the quantity exactly as typed. Clients may send it as a
// JSON string or a JSON number.
type RawQuantity string

// UnmarshalJSON accepts "3", 3 and null.
func (q *RawQuantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = RawQuantity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("quantity must be a string or number: %w", err)
	}
	*q = RawQuantity(n.String())
	return nil
}

type SetQuantityRequest struct {
	RowID string      `json:"rowId"`
	Value RawQuantity `json:"value"`
}

type RemoveRowRequest struct {
	RowID string `json:"rowId"`
}

type BeginEditRequest struct {
	RowID string `json:"rowId"`
}

type UpdateDraftRequest struct {
	Field models.AddressField `json:"field"`
	Value string              `json:"value"`
}

type SelectSavedRequest struct {
	Index int `json:"index"`
}

type SubmitResponse struct {
	Handoff models.Handoff `json:"handoff"`
}

type CloseSessionResponse struct {
	Closed bool `json:"closed"`
}

type GetHandoffRequest struct {
	HandoffID string `json:"handoffId"`
}

type GetHandoffResponse struct {
	Handoff *models.Handoff `json:"handoff"`
}

type ListHandoffsRequest struct {
	SessionID string `json:"sessionId"`
}

type ListHandoffsResponse struct {
	Handoffs []*models.Handoff `json:"handoffs"`
}
