package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/qmarchand/rs-mpn-lookup/internal/models"
)

// Lookup is one lookups-table row, keyed by the distributor part number.
type Lookup struct {
	RSPN           string         `db:"rs_pn"`
	ManufacturerPN sql.NullString `db:"manufacturer_pn"`
	Brand          sql.NullString `db:"brand"`
	ProductURL     sql.NullString `db:"product_url"`
	Status         string         `db:"status"`
	RunID          string         `db:"run_id"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// FromResult maps a finished lookup onto a table row.
func FromResult(res *models.LookupResult, runID string) *Lookup {
	l := &Lookup{
		RSPN:   res.RSPN,
		Status: res.Status,
		RunID:  runID,
	}
	if res.ManufacturerPN != "" {
		l.ManufacturerPN = sql.NullString{String: res.ManufacturerPN, Valid: true}
	}
	if res.Brand != "" {
		l.Brand = sql.NullString{String: res.Brand, Valid: true}
	}
	if res.ProductURL != "" {
		l.ProductURL = sql.NullString{String: res.ProductURL, Valid: true}
	}
	return l
}

// EnsureSchema creates the lookups table when it does not exist yet, so a
// fresh database works without a migration step.
func (db *DB) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS lookups (
			rs_pn           TEXT PRIMARY KEY,
			manufacturer_pn TEXT,
			brand           TEXT,
			product_url     TEXT,
			status          TEXT NOT NULL,
			run_id          TEXT NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`

	if _, err := db.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// UpsertLookup inserts a result row or refreshes it when the part number was
// looked up before.
func (db *DB) UpsertLookup(ctx context.Context, l *Lookup) error {
	query := `
		INSERT INTO lookups (rs_pn, manufacturer_pn, brand, product_url, status, run_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (rs_pn) DO UPDATE SET
			manufacturer_pn = EXCLUDED.manufacturer_pn,
			brand = EXCLUDED.brand,
			product_url = EXCLUDED.product_url,
			status = EXCLUDED.status,
			run_id = EXCLUDED.run_id,
			updated_at = CURRENT_TIMESTAMP
		RETURNING created_at, updated_at`

	err := db.pool.QueryRow(ctx, query,
		l.RSPN, l.ManufacturerPN, l.Brand, l.ProductURL, l.Status, l.RunID,
	).Scan(&l.CreatedAt, &l.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert lookup: %w", err)
	}

	return nil
}

// DonePartNumbers returns every part number that already has a row, for
// seeding the resume set when the database sink is enabled.
func (db *DB) DonePartNumbers(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT rs_pn FROM lookups`)
	if err != nil {
		return nil, fmt.Errorf("failed to query done part numbers: %w", err)
	}
	defer rows.Close()

	var done []string
	for rows.Next() {
		var pn string
		if err := rows.Scan(&pn); err != nil {
			return nil, fmt.Errorf("failed to scan part number: %w", err)
		}
		done = append(done, pn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read done part numbers: %w", err)
	}

	return done, nil
}
