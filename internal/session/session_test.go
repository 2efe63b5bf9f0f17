package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/giftsplit/internal/models"
)

// countingObserver records observer calls.
type countingObserver struct {
	mu        sync.Mutex
	opened    int
	closed    int
	saved     int
	recovered map[models.Kind]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{recovered: make(map[models.Kind]int)}
}

func (o *countingObserver) SessionOpened() { o.mu.Lock(); o.opened++; o.mu.Unlock() }
func (o *countingObserver) SessionClosed() { o.mu.Lock(); o.closed++; o.mu.Unlock() }
func (o *countingObserver) AddressSaved()  { o.mu.Lock(); o.saved++; o.mu.Unlock() }
func (o *countingObserver) Recovered(k models.Kind) {
	o.mu.Lock()
	o.recovered[k]++
	o.mu.Unlock()
}

// memorySaver collects handoffs in memory.
type memorySaver struct {
	handoffs []models.Handoff
	err      error
}

func (m *memorySaver) SaveHandoff(_ context.Context, h *models.Handoff) error {
	if m.err != nil {
		return m.err
	}
	m.handoffs = append(m.handoffs, *h)
	return nil
}

func rowIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("r%d", n)
	}
}

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	if opts.NewRowID == nil {
		opts.NewRowID = rowIDs()
	}
	return New("s1", opts)
}

var v1 = models.ItemContext{ItemID: "V1", UnitPriceMinorUnits: 2500, InitialQuantity: 2, Title: "Gift Box"}

func TestSession_UpdateInputSeeds(t *testing.T) {
	s := newTestSession(t, Options{})

	if !s.UpdateInput(v1) {
		t.Fatal("first input should seed")
	}
	state := s.State()
	if len(state.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(state.Rows))
	}
	if state.UnitPrice != 25 {
		t.Errorf("unit price = %v, want 25", state.UnitPrice)
	}
	if state.Totals.TotalQuantity != 2 || state.Totals.TotalPrice != 50 {
		t.Errorf("totals = %+v", state.Totals)
	}
	in, ok := s.Input()
	if !ok || in != v1 {
		t.Errorf("Input() = (%+v, %v)", in, ok)
	}
}

func TestSession_EqualInputKeepsEdits(t *testing.T) {
	s := newTestSession(t, Options{})
	s.UpdateInput(v1)
	id := s.Rows()[0].ID
	s.UpdateField(id, models.RowRecipientName, "Jane")

	same := v1
	same.Title = "Gift Box (re-rendered)"
	if s.UpdateInput(same) {
		t.Error("equivalent input should not re-seed")
	}
	rows := s.Rows()
	if rows[0].ID != id || rows[0].RecipientName != "Jane" {
		t.Error("edits lost on equivalent input")
	}

	changed := v1
	changed.UnitPriceMinorUnits = 3000
	if !s.UpdateInput(changed) {
		t.Error("price change should re-seed")
	}
	rows = s.Rows()
	if rows[0].ID == id || rows[0].RecipientName != "" || rows[0].LineTotal != 30 {
		t.Errorf("row after re-seed = %+v", rows[0])
	}
}

func TestSession_ReseedOnEqualInput(t *testing.T) {
	s := newTestSession(t, Options{ReseedOnEqualInput: true})
	s.UpdateInput(v1)
	id := s.Rows()[0].ID
	s.UpdateField(id, models.RowRecipientName, "Jane")

	if !s.UpdateInput(v1) {
		t.Fatal("ReseedOnEqualInput should re-seed on every input")
	}
	if s.Rows()[0].RecipientName != "" {
		t.Error("edits should be discarded by the re-seed")
	}
}

func TestSession_InputWithoutItemDoesNotSeed(t *testing.T) {
	tests := []struct {
		name string
		in   models.ItemContext
	}{
		{name: "no item", in: models.ItemContext{UnitPriceMinorUnits: 2500, InitialQuantity: 2}},
		{name: "zero quantity", in: models.ItemContext{ItemID: "V1", UnitPriceMinorUnits: 2500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, Options{})
			if s.UpdateInput(tt.in) {
				t.Error("input should not seed")
			}
			if len(s.Rows()) != 0 {
				t.Errorf("expected no rows, got %d", len(s.Rows()))
			}
		})
	}
}

func TestSession_NonSeedingInputKeepsOneItem(t *testing.T) {
	tests := []struct {
		name string
		in   models.ItemContext
	}{
		{name: "different item", in: models.ItemContext{ItemID: "V2", UnitPriceMinorUnits: 3000}},
		{name: "same item new price", in: models.ItemContext{ItemID: "V1", UnitPriceMinorUnits: 4000}},
		{name: "no item", in: models.ItemContext{UnitPriceMinorUnits: 3000, InitialQuantity: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, Options{})
			s.UpdateInput(v1)
			if s.UpdateInput(tt.in) {
				t.Fatal("input should not seed")
			}

			row, ok := s.AddRow()
			if !ok {
				t.Fatal("AddRow should use the seeded item")
			}
			s.SetQuantity(row.ID, "2")

			state := s.State()
			if state.UnitPrice != 25 {
				t.Errorf("unit price = %v, want 25", state.UnitPrice)
			}
			if len(state.Rows) != 3 {
				t.Fatalf("expected 3 rows, got %d", len(state.Rows))
			}
			for _, r := range state.Rows {
				if r.ItemID != "V1" {
					t.Errorf("row %s itemID = %q, want V1", r.ID, r.ItemID)
				}
				if want := float64(r.Quantity) * state.UnitPrice; math.Abs(r.LineTotal-want) > 0.0001 {
					t.Errorf("row %s lineTotal = %v, want %v", r.ID, r.LineTotal, want)
				}
			}
			if got := state.Totals.TotalPrice; got != 100 {
				t.Errorf("totalPrice = %v, want 100", got)
			}

			h, err := s.Handoff()
			if err != nil {
				t.Fatalf("Handoff failed: %v", err)
			}
			if h.ItemID != "V1" || h.UnitPrice != 25 {
				t.Errorf("handoff item = %q price = %v, want V1 25", h.ItemID, h.UnitPrice)
			}
		})
	}
}

func TestSession_AddRow(t *testing.T) {
	obs := newCountingObserver()
	s := newTestSession(t, Options{Observer: obs})

	if _, ok := s.AddRow(); ok {
		t.Error("AddRow before any item should do nothing")
	}
	if obs.recovered[models.KindMissingItemContext] != 1 {
		t.Errorf("missing item not reported: %v", obs.recovered)
	}

	s.UpdateInput(models.ItemContext{ItemID: "V1", UnitPriceMinorUnits: 1999})
	row, ok := s.AddRow()
	if !ok {
		t.Fatal("AddRow with an item should succeed")
	}
	if row.ItemID != "V1" || row.LineTotal != 19.99 {
		t.Errorf("row = %+v", row)
	}
	s.SetQuantity(row.ID, "3")
	if got := s.Totals().TotalPrice; got != 59.97 {
		t.Errorf("totalPrice = %v, want 59.97", got)
	}
}

func TestSession_AddressFlow(t *testing.T) {
	obs := newCountingObserver()
	s := newTestSession(t, Options{Observer: obs})
	s.UpdateInput(v1)
	rows := s.Rows()

	s.BeginEdit(rows[0].ID)
	s.UpdateDraft(models.AddressStreetName, "1 Swan St")
	s.UpdateDraft(models.AddressSuburbName, "Richmond")
	s.UpdateDraft(models.AddressPostalCode, "3121")
	if s.UpdateDraft("planet", "Mars") {
		t.Error("unknown draft field should be rejected")
	}
	if _, ok := s.CommitAddress(); !ok {
		t.Fatal("CommitAddress returned false")
	}

	s.BeginEdit(rows[1].ID)
	if !s.SelectSaved(0) {
		t.Fatal("SelectSaved(0) returned false")
	}
	if s.SelectSaved(5) {
		t.Error("SelectSaved out of range should return false")
	}
	s.CommitAddress()

	state := s.State()
	for _, r := range state.Rows {
		if r.ShippingAddress.StreetName != "1 Swan St" {
			t.Errorf("row %s street = %q", r.ID, r.ShippingAddress.StreetName)
		}
	}
	if len(state.Editor.Saved) != 1 {
		t.Errorf("saved = %d, want 1", len(state.Editor.Saved))
	}
	if state.Editor.Open {
		t.Error("editor should be closed after commit")
	}
	if obs.saved != 1 {
		t.Errorf("AddressSaved called %d times, want 1", obs.saved)
	}
	if obs.recovered[models.KindUnknownField] != 1 {
		t.Errorf("unknown field not reported: %v", obs.recovered)
	}
}

func TestSession_ReseedClosesEditor(t *testing.T) {
	s := newTestSession(t, Options{})
	s.UpdateInput(v1)
	s.BeginEdit(s.Rows()[0].ID)

	changed := v1
	changed.ItemID = "V2"
	s.UpdateInput(changed)

	if s.State().Editor.Open {
		t.Error("editor should be closed by a re-seed")
	}
}

func TestSession_MarshalRows(t *testing.T) {
	s := newTestSession(t, Options{})
	s.UpdateInput(v1)
	id := s.Rows()[0].ID
	s.UpdateField(id, models.RowGiftMessage, "Happy Birthday!")
	s.SetQuantity(id, "2")

	data, err := s.MarshalRows()
	if err != nil {
		t.Fatalf("MarshalRows failed: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("rows are not a JSON array: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(decoded))
	}
	first := decoded[0]
	for _, key := range []string{"id", "itemId", "quantity", "recipientName", "giftMessage", "shippingAddress", "lineTotal"} {
		if _, ok := first[key]; !ok {
			t.Errorf("row is missing %q", key)
		}
	}
	if first["id"] != id || first["giftMessage"] != "Happy Birthday!" || first["lineTotal"] != 50.0 {
		t.Errorf("first row = %v", first)
	}
	addr, _ := first["shippingAddress"].(map[string]any)
	if addr["country"] != models.DefaultCountry {
		t.Errorf("shippingAddress = %v", addr)
	}
}

func TestSession_Submit(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s := newTestSession(t, Options{Now: func() time.Time { return now }})

	saver := &memorySaver{}
	if _, err := s.Submit(context.Background(), saver); !errors.Is(err, ErrNoItem) {
		t.Errorf("Submit without item: err = %v, want ErrNoItem", err)
	}

	s.UpdateInput(v1)
	h, err := s.Submit(context.Background(), saver)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if h.ID == "" || h.SessionID != "s1" || h.ItemID != "V1" || h.Title != "Gift Box" {
		t.Errorf("handoff header = %+v", h)
	}
	if h.SubmittedAt != now.Unix() {
		t.Errorf("SubmittedAt = %d, want %d", h.SubmittedAt, now.Unix())
	}
	if len(h.Rows) != 2 || h.Totals.TotalPrice != 50 {
		t.Errorf("handoff rows = %d, totals = %+v", len(h.Rows), h.Totals)
	}
	if len(saver.handoffs) != 1 {
		t.Errorf("saver got %d handoffs, want 1", len(saver.handoffs))
	}

	failing := &memorySaver{err: errors.New("disk full")}
	if _, err := s.Submit(context.Background(), failing); err == nil {
		t.Error("Submit should surface saver errors")
	}
}

func TestSession_ConcurrentEventsKeepInvariants(t *testing.T) {
	s := New("s1", Options{})
	s.UpdateInput(models.ItemContext{ItemID: "V1", UnitPriceMinorUnits: 1000, InitialQuantity: 4})
	rows := s.Rows()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := rows[(i+j)%len(rows)].ID
				s.SetQuantity(id, fmt.Sprint(j%5))
				s.AddRow()
				s.State()
			}
		}(i)
	}
	wg.Wait()

	state := s.State()
	var q int
	for _, r := range state.Rows {
		if r.Quantity < 1 || r.LineTotal != float64(r.Quantity)*10 {
			t.Errorf("row %s = {%d, %v}", r.ID, r.Quantity, r.LineTotal)
		}
		q += r.Quantity
	}
	if state.Totals.TotalQuantity != q {
		t.Errorf("totalQuantity = %d, want %d", state.Totals.TotalQuantity, q)
	}
}
