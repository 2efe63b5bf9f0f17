package sqlite

import "database/sql"

// schema contains the SQL statements to set up the outbox.
// These run on startup to ensure tables exist.
const schema = `
CREATE TABLE IF NOT EXISTS handoffs (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    item_id TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    unit_price REAL NOT NULL,
    total_quantity INTEGER NOT NULL,
    total_price REAL NOT NULL,
    submitted_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS handoff_rows (
    handoff_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    row_id TEXT NOT NULL,
    item_id TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    recipient_name TEXT NOT NULL,
    gift_message TEXT NOT NULL,
    company_name TEXT NOT NULL,
    street_name TEXT NOT NULL,
    suburb_name TEXT NOT NULL,
    state TEXT NOT NULL,
    postal_code TEXT NOT NULL,
    country TEXT NOT NULL,
    phone TEXT NOT NULL,
    email TEXT NOT NULL,
    line_total REAL NOT NULL,
    shipping_cost REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (handoff_id, position),
    FOREIGN KEY (handoff_id) REFERENCES handoffs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_handoffs_session_id ON handoffs(session_id);
CREATE INDEX IF NOT EXISTS idx_handoff_rows_handoff_id ON handoff_rows(handoff_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
