package models

// RowField names a free-text field of a RecipientRow that the shopper
// edits directly in the table.
type RowField string

const (
	RowRecipientName RowField = "recipientName"
	RowGiftMessage   RowField = "giftMessage"
)

// RecipientRow is one shipment destination within a multi-recipient order.
// Rows are created and mutated only by recipients.Set.
type RecipientRow struct {
	// ID is the unique identifier for the row (UUID format).
	// Stable for the row's lifetime and never reused.
	ID string `json:"id"`

	// ItemID identifies the purchased item or variant.
	// Identical across all rows of one session.
	ItemID string `json:"itemId"`

	// Quantity is always at least 1.
	Quantity int `json:"quantity"`

	RecipientName string `json:"recipientName"`
	GiftMessage   string `json:"giftMessage"`

	// ShippingAddress is embedded by value, never shared with the
	// address book or another row.
	ShippingAddress Address `json:"shippingAddress"`

	// LineTotal is Quantity × unit price, rewritten whenever Quantity changes.
	LineTotal float64 `json:"lineTotal"`

	// ShippingCost is carried for the checkout consumer and always starts at 0.
	ShippingCost float64 `json:"shippingCost"`
}
