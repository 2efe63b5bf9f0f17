// Package addressbook manages the address editor session for one recipient
// set and the list of distinct addresses offered for reuse.
package addressbook

import "github.com/mmynk/giftsplit/internal/models"

// Rows is the part of a recipient set the book reads and writes.
type Rows interface {
	Address(rowID string) (models.Address, bool)
	SetAddress(rowID string, addr models.Address) bool
}

// State is the editor state.
type State int

const (
	Idle State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "idle"
}

// View is what the address editor surface renders.
type View struct {
	Open          bool             `json:"open"`
	RowID         string           `json:"rowId,omitempty"`
	Draft         models.Address   `json:"draft"`
	MissingFields []string         `json:"missingFields,omitempty"`
	Saved         []models.Address `json:"saved"`
}

// Book tracks which row's address is being edited and the saved list.
// It is not safe for concurrent use.
type Book struct {
	rows Rows

	state State
	rowID string
	draft models.Address

	saved []models.Address
}

// New creates an idle Book writing into rows.
func New(rows Rows) *Book {
	return &Book{rows: rows}
}

// BeginEdit opens an edit session for rowID and stages a copy of the row's
// address, or the blank address if the row does not exist. Any draft from a
// previous session is discarded.
func (b *Book) BeginEdit(rowID string) {
	addr, ok := b.rows.Address(rowID)
	if !ok {
		addr = models.BlankAddress()
	}
	b.state = Editing
	b.rowID = rowID
	b.draft = addr
}

// UpdateDraft sets one field of the draft. It returns false when idle or
// when the field is unknown.
func (b *Book) UpdateDraft(field models.AddressField, value string) bool {
	if b.state != Editing {
		return false
	}
	return b.draft.Set(field, value)
}

// SelectSaved replaces the whole draft with a copy of addr.
// It returns false when idle.
func (b *Book) SelectSaved(addr models.Address) bool {
	if b.state != Editing {
		return false
	}
	b.draft = addr
	return true
}

// SelectSavedAt replaces the draft with the saved address at index i.
func (b *Book) SelectSavedAt(i int) bool {
	if i < 0 || i >= len(b.saved) {
		return false
	}
	return b.SelectSaved(b.saved[i])
}

// Committed describes the outcome of Commit.
type Committed struct {
	RowID      string
	Address    models.Address
	RowUpdated bool // false if the row was removed while editing
	Saved      bool // appended to the saved list
}

// Commit writes the draft into the targeted row, offers it to the saved
// list and returns to Idle. ok is false when no session was open.
// Required fields are not checked here.
//
// If the row was removed while editing, the row write is a no-op but the
// address is still offered to the saved list.
func (b *Book) Commit() (c Committed, ok bool) {
	if b.state != Editing {
		return Committed{}, false
	}
	c.RowID = b.rowID
	c.Address = b.draft
	c.RowUpdated = b.rows.SetAddress(b.rowID, c.Address)
	c.Saved = b.offer(c.Address)
	b.reset()
	return c, true
}

// Cancel discards the draft and returns to Idle without touching any row.
func (b *Book) Cancel() {
	b.reset()
}

func (b *Book) reset() {
	b.state = Idle
	b.rowID = ""
	b.draft = models.Address{}
}

// offer appends addr to the saved list when it has a street and suburb and
// no saved address shares its street and postal code.
func (b *Book) offer(addr models.Address) bool {
	if addr.StreetName == "" || addr.SuburbName == "" {
		return false
	}
	for _, s := range b.saved {
		if s.StreetName == addr.StreetName && s.PostalCode == addr.PostalCode {
			return false
		}
	}
	b.saved = append(b.saved, addr)
	return true
}

// State returns the editor state.
func (b *Book) State() State {
	return b.state
}

// Editing returns the targeted row id while a session is open.
func (b *Book) Editing() (string, bool) {
	return b.rowID, b.state == Editing
}

// Draft returns a copy of the draft while a session is open.
func (b *Book) Draft() (models.Address, bool) {
	return b.draft, b.state == Editing
}

// Saved returns a copy of the saved list in insertion order.
func (b *Book) Saved() []models.Address {
	out := make([]models.Address, len(b.saved))
	copy(out, b.saved)
	return out
}

// View returns the editor surface's inputs.
func (b *Book) View() View {
	v := View{
		Open:  b.state == Editing,
		Saved: b.Saved(),
	}
	if v.Open {
		v.RowID = b.rowID
		v.Draft = b.draft
		v.MissingFields = b.draft.MissingFields()
	}
	return v
}
