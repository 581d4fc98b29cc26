package repository

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/hestia/internal/models"
)

// Migrate creates the failure journal table when it does not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS geocoding_failures (
			address    TEXT PRIMARY KEY,
			attempts   INTEGER NOT NULL DEFAULT 1,
			last_error TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create geocoding_failures table: %w", err)
	}

	return nil
}

// RecordFailure stores the latest error for an address and increments its attempt counter.
func (r *Repository) RecordFailure(ctx context.Context, address, reason string) error {
	query := `
		INSERT INTO geocoding_failures (address, attempts, last_error, updated_at)
		VALUES ($1, 1, $2, now())
		ON CONFLICT (address) DO UPDATE
		SET
			attempts = geocoding_failures.attempts + 1,
			last_error = EXCLUDED.last_error,
			updated_at = now();
	`

	if _, err := r.db.Exec(ctx, query, address, reason); err != nil {
		return fmt.Errorf("failed to record geocoding failure: %w", err)
	}

	return nil
}

// ClearFailure removes an address from the journal once it has been geocoded.
func (r *Repository) ClearFailure(ctx context.Context, address string) error {
	query := `DELETE FROM geocoding_failures WHERE address = $1;`

	if _, err := r.db.Exec(ctx, query, address); err != nil {
		return fmt.Errorf("failed to clear geocoding failure: %w", err)
	}

	return nil
}

// ListFailures returns the most frequently failing addresses first.
func (r *Repository) ListFailures(ctx context.Context, limit int) ([]models.GeocodeFailure, error) {
	query := `
		SELECT address, attempts, last_error, updated_at
		FROM geocoding_failures
		ORDER BY attempts DESC, address ASC
		LIMIT $1;
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query geocoding failures: %w", err)
	}
	defer rows.Close()

	var failures []models.GeocodeFailure
	for rows.Next() {
		var failure models.GeocodeFailure
		if errScan := rows.Scan(&failure.Address, &failure.Attempts, &failure.LastError, &failure.UpdatedAt); errScan != nil {
			return nil, fmt.Errorf("failed to scan geocoding failure: %w", errScan)
		}
		failures = append(failures, failure)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	r.log.DebugContext(ctx, "Geocoding failures listed", "count", len(failures))

	return failures, nil
}
