// Package session binds one recipient set and its address book to the item
// context supplied by the host page, and serializes every event applied to
// them.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/giftsplit/internal/addressbook"
	"github.com/mmynk/giftsplit/internal/calculator"
	"github.com/mmynk/giftsplit/internal/models"
	"github.com/mmynk/giftsplit/internal/recipients"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoItem          = errors.New("session has no item to submit")
)

// HandoffSaver receives submitted handoffs. storage.HandoffStore satisfies it.
type HandoffSaver interface {
	SaveHandoff(ctx context.Context, h *models.Handoff) error
}

// State is everything the presentation layer needs to render a session.
type State struct {
	SessionID string                `json:"sessionId"`
	Input     models.ItemContext    `json:"input"`
	UnitPrice float64               `json:"unitPrice"`
	Rows      []models.RecipientRow `json:"rows"`
	Totals    models.Totals         `json:"totals"`
	Editor    addressbook.View      `json:"editor"`
}

// Session is an explicit handle on one shopper's recipient rows.
// Every method takes the session lock, so events apply in the order they
// arrive and each finishes before the next starts.
type Session struct {
	mu sync.Mutex

	id       string
	input    models.ItemContext
	hasInput bool

	set  *recipients.Set
	book *addressbook.Book

	reseedAlways bool
	observer     Observer
	logger       *slog.Logger

	now        func() time.Time
	lastActive time.Time
}

// Options configures a Session.
type Options struct {
	// ReseedOnEqualInput re-seeds on every UpdateInput, even when the item,
	// price and initial quantity are unchanged.
	ReseedOnEqualInput bool

	Observer Observer
	Logger   *slog.Logger
	Now      func() time.Time

	// NewRowID overrides the row id generator (tests).
	NewRowID func() string
}

// New creates a session with no input.
func New(id string, opts Options) *Session {
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Session{
		id:           id,
		reseedAlways: opts.ReseedOnEqualInput,
		observer:     opts.Observer,
		logger:       opts.Logger.With("session_id", id),
		now:          opts.Now,
	}
	setOpts := []recipients.Option{recipients.WithRecoverFunc(s.recovered)}
	if opts.NewRowID != nil {
		setOpts = append(setOpts, recipients.WithIDGenerator(opts.NewRowID))
	}
	s.set = recipients.New(setOpts...)
	s.book = addressbook.New(s.set)
	s.lastActive = s.now()
	return s
}

func (s *Session) recovered(kind models.Kind, rowID string) {
	s.logger.Debug("Recovered input", "kind", kind, "row_id", rowID)
	s.observer.Recovered(kind)
}

func (s *Session) touch() {
	s.lastActive = s.now()
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// LastActive returns when the session last handled an event.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func sameItem(a, b models.ItemContext) bool {
	return a.ItemID == b.ItemID &&
		a.UnitPriceMinorUnits == b.UnitPriceMinorUnits &&
		a.InitialQuantity == b.InitialQuantity
}

// UpdateInput applies new item context from the host page. The unit price
// is converted from minor units once here. Rows are re-seeded, discarding
// all edits, when the item, price or initial quantity changed (or always,
// with ReseedOnEqualInput). Nothing is seeded while the input has no item
// or an initial quantity below 1; the item and price are then only bound
// for AddRow if no rows exist yet, so every row keeps one item and price.
func (s *Session) UpdateInput(in models.ItemContext) (reseeded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	changed := !s.hasInput || !sameItem(s.input, in)
	s.input = in
	s.hasInput = true
	unitPrice := calculator.UnitPrice(in.UnitPriceMinorUnits)

	if in.ItemID == "" || in.InitialQuantity < 1 {
		if s.set.Bind(in.ItemID, unitPrice) {
			s.logger.Debug("Item bound without seeding", "item_id", in.ItemID, "unit_price", unitPrice)
		}
		return false
	}
	if !changed && !s.reseedAlways {
		s.logger.Debug("Input unchanged, keeping rows", "item_id", in.ItemID)
		return false
	}

	// The edited row does not survive a re-seed.
	s.book.Cancel()
	s.set.Seed(in.ItemID, unitPrice, in.InitialQuantity)
	s.logger.Info("Rows seeded",
		"item_id", in.ItemID,
		"unit_price", unitPrice,
		"rows", in.InitialQuantity,
	)
	return true
}

// Input returns the current item context, if any was supplied.
func (s *Session) Input() (models.ItemContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input, s.hasInput
}

// UpdateField sets the recipient name or gift message of a row.
func (s *Session) UpdateField(rowID string, field models.RowField, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.set.UpdateField(rowID, field, value)
}

// SetQuantity sets a row's quantity from raw user input.
func (s *Session) SetQuantity(rowID, raw string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.set.SetQuantity(rowID, raw)
}

// AddRow appends a row for the item the rows were seeded with. It does
// nothing before an item is known.
func (s *Session) AddRow() (models.RecipientRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.set.AddRow()
}

// RemoveRow deletes a row by id.
func (s *Session) RemoveRow(rowID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.set.RemoveRow(rowID)
}

// BeginEdit opens the address editor for a row.
func (s *Session) BeginEdit(rowID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.book.BeginEdit(rowID)
}

// UpdateDraft sets one field of the address draft.
func (s *Session) UpdateDraft(field models.AddressField, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	ok := s.book.UpdateDraft(field, value)
	if !ok && s.book.State() == addressbook.Editing {
		s.recovered(models.KindUnknownField, "")
	}
	return ok
}

// SelectSaved replaces the draft with the saved address at index i.
func (s *Session) SelectSaved(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.book.SelectSavedAt(i)
}

// CommitAddress writes the draft into its row and closes the editor.
func (s *Session) CommitAddress() (addressbook.Committed, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	c, ok := s.book.Commit()
	if !ok {
		return c, false
	}
	if !c.RowUpdated {
		s.logger.Debug("Edited row no longer exists", "row_id", c.RowID)
	}
	if c.Saved {
		s.observer.AddressSaved()
	}
	return c, true
}

// CancelEdit closes the editor without changing any row.
func (s *Session) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.book.Cancel()
}

// Totals returns the aggregate over the current rows.
func (s *Session) Totals() models.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Totals()
}

// Rows returns a copy of the rows in order.
func (s *Session) Rows() []models.RecipientRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Snapshot()
}

// State returns a consistent copy of the whole session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		SessionID: s.id,
		Input:     s.input,
		UnitPrice: s.set.UnitPrice(),
		Rows:      s.set.Snapshot(),
		Totals:    s.set.Totals(),
		Editor:    s.book.View(),
	}
}

// MarshalRows encodes the rows as the JSON array read by the checkout.
func (s *Session) MarshalRows() ([]byte, error) {
	rows := s.Rows()
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rows: %w", err)
	}
	return data, nil
}

// Handoff builds the submission payload for the current rows.
func (s *Session) Handoff() (models.Handoff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	itemID := s.set.ItemID()
	if itemID == "" {
		return models.Handoff{}, ErrNoItem
	}
	return models.Handoff{
		ID:          uuid.New().String(),
		SessionID:   s.id,
		ItemID:      itemID,
		Title:       s.input.Title,
		UnitPrice:   s.set.UnitPrice(),
		Rows:        s.set.Snapshot(),
		Totals:      s.set.Totals(),
		SubmittedAt: s.now().Unix(),
	}, nil
}

// Submit builds the handoff and hands it to saver.
func (s *Session) Submit(ctx context.Context, saver HandoffSaver) (models.Handoff, error) {
	h, err := s.Handoff()
	if err != nil {
		return models.Handoff{}, err
	}
	if err := saver.SaveHandoff(ctx, &h); err != nil {
		return models.Handoff{}, fmt.Errorf("failed to save handoff: %w", err)
	}
	s.logger.Info("Handoff submitted",
		"handoff_id", h.ID,
		"rows", len(h.Rows),
		"total_quantity", h.Totals.TotalQuantity,
		"total_price", h.Totals.TotalPrice,
	)
	return h, nil
}
