// Package sqlite provides a SQLite-backed implementation of the storage.HandoffStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/giftsplit/internal/models"
	"github.com/mmynk/giftsplit/internal/storage"
)

// Ensure SQLiteStore implements storage.HandoffStore
var _ storage.HandoffStore = (*SQLiteStore)(nil)

// SQLiteStore implements storage.HandoffStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveHandoff persists a handoff and its rows in one transaction.
func (s *SQLiteStore) SaveHandoff(ctx context.Context, h *models.Handoff) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.SubmittedAt == 0 {
		h.SubmittedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO handoffs (id, session_id, item_id, title, unit_price, total_quantity, total_price, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.SessionID, h.ItemID, h.Title, h.UnitPrice,
		h.Totals.TotalQuantity, h.Totals.TotalPrice, h.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert handoff: %w", err)
	}

	for i, r := range h.Rows {
		a := r.ShippingAddress
		_, err = tx.ExecContext(ctx,
			`INSERT INTO handoff_rows (
				handoff_id, position, row_id, item_id, quantity, recipient_name, gift_message,
				company_name, street_name, suburb_name, state, postal_code, country, phone, email,
				line_total, shipping_cost
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			h.ID, i, r.ID, r.ItemID, r.Quantity, r.RecipientName, r.GiftMessage,
			a.CompanyName, a.StreetName, a.SuburbName, a.State, a.PostalCode, a.Country, a.Phone, a.Email,
			r.LineTotal, r.ShippingCost,
		)
		if err != nil {
			return fmt.Errorf("failed to insert handoff row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetHandoff retrieves a handoff by ID, including its rows in order.
func (s *SQLiteStore) GetHandoff(ctx context.Context, handoffID string) (*models.Handoff, error) {
	h := &models.Handoff{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, item_id, title, unit_price, total_quantity, total_price, submitted_at
		 FROM handoffs WHERE id = ?`,
		handoffID,
	).Scan(&h.ID, &h.SessionID, &h.ItemID, &h.Title, &h.UnitPrice,
		&h.Totals.TotalQuantity, &h.Totals.TotalPrice, &h.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrHandoffNotFound, handoffID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get handoff: %w", err)
	}

	if err := s.loadRows(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// ListHandoffs returns a session's handoffs, oldest first.
func (s *SQLiteStore) ListHandoffs(ctx context.Context, sessionID string) ([]*models.Handoff, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM handoffs WHERE session_id = ? ORDER BY submitted_at, rowid",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list handoffs: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan handoff id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate handoffs: %w", err)
	}

	handoffs := make([]*models.Handoff, 0, len(ids))
	for _, id := range ids {
		h, err := s.GetHandoff(ctx, id)
		if err != nil {
			return nil, err
		}
		handoffs = append(handoffs, h)
	}
	return handoffs, nil
}

func (s *SQLiteStore) loadRows(ctx context.Context, h *models.Handoff) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_id, item_id, quantity, recipient_name, gift_message,
			company_name, street_name, suburb_name, state, postal_code, country, phone, email,
			line_total, shipping_cost
		 FROM handoff_rows WHERE handoff_id = ? ORDER BY position`,
		h.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get handoff rows: %w", err)
	}
	defer rows.Close()

	h.Rows = []models.RecipientRow{}
	for rows.Next() {
		var r models.RecipientRow
		a := &r.ShippingAddress
		if err := rows.Scan(&r.ID, &r.ItemID, &r.Quantity, &r.RecipientName, &r.GiftMessage,
			&a.CompanyName, &a.StreetName, &a.SuburbName, &a.State, &a.PostalCode, &a.Country, &a.Phone, &a.Email,
			&r.LineTotal, &r.ShippingCost,
		); err != nil {
			return fmt.Errorf("failed to scan handoff row: %w", err)
		}
		h.Rows = append(h.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate handoff rows: %w", err)
	}
	h.Totals.Recipients = len(h.Rows)
	return nil
}
