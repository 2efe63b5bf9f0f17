package models

// ItemContext is the session input supplied by the host page's catalog
// context. It is read-only to the core.
type ItemContext struct {
	// ItemID identifies the purchased item or variant (the variant id in the
	// storefront). Empty means no item is available yet.
	ItemID string `json:"itemId"`

	// UnitPriceMinorUnits is the price in minor currency units (cents).
	UnitPriceMinorUnits int64 `json:"unitPriceMinorUnits"`

	// InitialQuantity is how many rows to seed. Rows are only seeded when
	// this is at least 1.
	InitialQuantity int `json:"initialQuantity"`

	// Title is the product title shown in the header and copied into the
	// handoff. It plays no part in seeding.
	Title string `json:"title,omitempty"`
}

// Totals is the aggregate over all current rows.
type Totals struct {
	// TotalQuantity is the sum of every row's Quantity.
	TotalQuantity int `json:"totalQuantity"`

	// TotalPrice is the sum of every row's LineTotal, rounded to 2 decimals.
	TotalPrice float64 `json:"totalPrice"`

	// Recipients is the number of rows.
	Recipients int `json:"recipients"`
}

// Handoff is the submitted order as read by the external checkout process.
type Handoff struct {
	// ID is the unique identifier for the handoff (UUID format).
	ID string `json:"id"`

	SessionID string  `json:"sessionId"`
	ItemID    string  `json:"itemId"`
	Title     string  `json:"title,omitempty"`
	UnitPrice float64 `json:"unitPrice"`

	// Rows keeps the session's row order.
	Rows []RecipientRow `json:"rows"`

	Totals Totals `json:"totals"`

	// SubmittedAt is the Unix timestamp when the handoff was recorded.
	SubmittedAt int64 `json:"submittedAt"`
}
