// Package recipients holds the ordered collection of recipient rows for one
// purchase and derives their line and aggregate totals.
//
// Set is the sole writer of row data. It is not safe for concurrent use;
// the owning session serializes access.
package recipients

import (
	"github.com/google/uuid"

	"github.com/mmynk/giftsplit/internal/calculator"
	"github.com/mmynk/giftsplit/internal/models"
)

// RecoverFunc is told about every input the set recovered from instead of
// applying as given. rowID is empty when no row is involved.
type RecoverFunc func(kind models.Kind, rowID string)

// Option configures a Set.
type Option func(*Set)

// WithIDGenerator replaces the UUID generator used for row ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Set) { s.newID = newID }
}

// WithRecoverFunc registers fn to be told about recovered inputs.
func WithRecoverFunc(fn RecoverFunc) Option {
	return func(s *Set) { s.onRecover = fn }
}

// Set is the ordered collection of recipient rows for one item.
type Set struct {
	rows []models.RecipientRow

	itemID    string
	unitPrice float64

	newID     func() string
	onRecover RecoverFunc
}

// New creates an empty Set with no active item.
func New(opts ...Option) *Set {
	s := &Set{
		newID:     func() string { return uuid.New().String() },
		onRecover: func(models.Kind, string) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Set) newRow(itemID string, unitPrice float64) models.RecipientRow {
	return models.RecipientRow{
		ID:              s.newID(),
		ItemID:          itemID,
		Quantity:        calculator.MinQuantity,
		ShippingAddress: models.BlankAddress(),
		LineTotal:       calculator.LineTotal(calculator.MinQuantity, unitPrice),
	}
}

func (s *Set) index(rowID string) int {
	for i := range s.rows {
		if s.rows[i].ID == rowID {
			return i
		}
	}
	return -1
}

// Seed discards every row and creates count default rows for itemID.
// A negative count is treated as zero.
func (s *Set) Seed(itemID string, unitPrice float64, count int) {
	s.itemID = itemID
	s.unitPrice = unitPrice
	if count < 0 {
		count = 0
	}
	s.rows = make([]models.RecipientRow, 0, count)
	for i := 0; i < count; i++ {
		s.rows = append(s.rows, s.newRow(itemID, unitPrice))
	}
}

// UpdateField sets a free-text field on the row. There is no validation.
// It returns false if the row or the field does not exist.
func (s *Set) UpdateField(rowID string, field models.RowField, value string) bool {
	i := s.index(rowID)
	if i < 0 {
		s.onRecover(models.KindUnknownRowReference, rowID)
		return false
	}
	switch field {
	case models.RowRecipientName:
		s.rows[i].RecipientName = value
	case models.RowGiftMessage:
		s.rows[i].GiftMessage = value
	default:
		s.onRecover(models.KindUnknownField, rowID)
		return false
	}
	return true
}

// SetQuantity parses raw and stores it as the row's quantity, clamping
// invalid or sub-1 input to 1, then rewrites the line total at the current
// unit price. It returns false if the row does not exist.
func (s *Set) SetQuantity(rowID string, raw string) bool {
	i := s.index(rowID)
	if i < 0 {
		s.onRecover(models.KindUnknownRowReference, rowID)
		return false
	}
	q, ok := calculator.ParseQuantity(raw)
	if !ok {
		s.onRecover(models.KindInvalidQuantityInput, rowID)
	}
	s.rows[i].Quantity = q
	s.rows[i].LineTotal = calculator.LineTotal(q, s.unitPrice)
	return true
}

// AddRow appends one default row priced at the set's unit price. Before an
// item is bound it does nothing and returns false.
func (s *Set) AddRow() (models.RecipientRow, bool) {
	if s.itemID == "" {
		s.onRecover(models.KindMissingItemContext, "")
		return models.RecipientRow{}, false
	}
	row := s.newRow(s.itemID, s.unitPrice)
	s.rows = append(s.rows, row)
	return row, true
}

// Bind sets the item and unit price used by AddRow without seeding.
// It only takes effect while the set has no rows, so existing rows never
// disagree with the set's item or price. It reports whether it did.
func (s *Set) Bind(itemID string, unitPrice float64) bool {
	if itemID == "" || len(s.rows) > 0 {
		return false
	}
	s.itemID = itemID
	s.unitPrice = unitPrice
	return true
}

// RemoveRow deletes the row. Removing the last row is allowed.
// It returns false if the row does not exist.
func (s *Set) RemoveRow(rowID string) bool {
	i := s.index(rowID)
	if i < 0 {
		s.onRecover(models.KindUnknownRowReference, rowID)
		return false
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	return true
}

// SetAddress replaces the row's address with a copy of addr.
// It returns false if the row does not exist.
func (s *Set) SetAddress(rowID string, addr models.Address) bool {
	i := s.index(rowID)
	if i < 0 {
		s.onRecover(models.KindUnknownRowReference, rowID)
		return false
	}
	s.rows[i].ShippingAddress = addr
	return true
}

// Address returns a copy of the row's address.
func (s *Set) Address(rowID string) (models.Address, bool) {
	i := s.index(rowID)
	if i < 0 {
		return models.Address{}, false
	}
	return s.rows[i].ShippingAddress, true
}

// Row returns a copy of the row.
func (s *Set) Row(rowID string) (models.RecipientRow, bool) {
	i := s.index(rowID)
	if i < 0 {
		return models.RecipientRow{}, false
	}
	return s.rows[i], true
}

// Len returns the number of rows.
func (s *Set) Len() int {
	return len(s.rows)
}

// ItemID returns the active item, or "" before the set is seeded.
func (s *Set) ItemID() string {
	return s.itemID
}

// UnitPrice returns the unit price line totals are computed with.
func (s *Set) UnitPrice() float64 {
	return s.unitPrice
}

// Totals sums the current rows. It is computed on every call.
func (s *Set) Totals() models.Totals {
	lines := make([]calculator.Line, len(s.rows))
	for i, r := range s.rows {
		lines[i] = calculator.Line{Quantity: r.Quantity, LineTotal: r.LineTotal}
	}
	sum := calculator.Summarize(lines)
	return models.Totals{
		TotalQuantity: sum.TotalQuantity,
		TotalPrice:    sum.TotalPrice,
		Recipients:    sum.Lines,
	}
}

// Snapshot returns a copy of the rows in order. Mutating the result does
// not affect the set.
func (s *Set) Snapshot() []models.RecipientRow {
	out := make([]models.RecipientRow, len(s.rows))
	copy(out, s.rows)
	return out
}
