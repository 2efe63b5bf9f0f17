// Package storage provides abstractions for the handoff outbox.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/giftsplit/internal/models"
)

// ErrHandoffNotFound is returned when no handoff has the requested id.
var ErrHandoffNotFound = errors.New("handoff not found")

// HandoffStore defines the operations on submitted handoffs.
// Live session state is never stored here; only what the shopper submitted
// for the external checkout to pick up.
type HandoffStore interface {
	// SaveHandoff persists a handoff with its rows in order.
	// The handoff.ID and SubmittedAt fields are populated if empty.
	SaveHandoff(ctx context.Context, handoff *models.Handoff) error

	// GetHandoff retrieves a handoff by its ID.
	// Returns ErrHandoffNotFound if there is none.
	GetHandoff(ctx context.Context, handoffID string) (*models.Handoff, error)

	// ListHandoffs returns the handoffs submitted by a session, oldest first.
	ListHandoffs(ctx context.Context, sessionID string) ([]*models.Handoff, error)

	// Close releases any resources held by the store.
	Close() error
}
