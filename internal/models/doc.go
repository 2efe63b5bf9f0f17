// Package models defines the core domain models for giftsplit.
//
// # Models
//
//   - RecipientRow: one shipment destination for the purchased item
//   - Address: a shipping address, always handled as a value
//   - ItemContext: the session input supplied by the host page
//   - Totals: aggregate quantity and price derived from the rows
//   - Handoff: the submitted rows handed to the external checkout
//
// # Design Principles
//
// 1. **Values, not references**: Address has no pointer fields, so assigning
// it copies it. Rows, drafts and the saved list never alias each other.
// 2. **Derived fields stay derived**: LineTotal is always written together
// with Quantity; Totals is computed on demand and never stored on a session.
// 3. **Wire names match the handoff**: JSON tags use the camelCase names the
// checkout consumer reads (id, itemId, quantity, recipientName, ...).
// 4. **Opaque ids**: rows, sessions and handoffs use UUID strings.
package models
