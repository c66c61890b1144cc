package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS patients (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL DEFAULT '',
	email         TEXT UNIQUE,
	password_hash TEXT NOT NULL DEFAULT '',
	gender        TEXT,
	weight        DOUBLE PRECISION,
	height        DOUBLE PRECISION,
	amount        DOUBLE PRECISION,
	age           INTEGER,
	date          TEXT,
	method        TEXT,
	purpose       TEXT,
	history       TEXT NOT NULL DEFAULT '[]',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// EnsureSchema creates the patients table when it does not exist yet.
// Startup glue for local use; production deployments manage the schema
// out of band.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SeedDefaultPatient inserts the well-known local test patient (id 1) if
// the row is missing, then realigns the id sequence past the explicit id.
func SeedDefaultPatient(ctx context.Context, db *sqlx.DB, passwordHash string) error {
	query := `
		INSERT INTO patients (
			id, name, email, password_hash, gender, weight, height,
			amount, age, date, method, history
		) VALUES (
			1, 'Jay Patel', 'john@example.com', $1, 'Male', 70, 175,
			350, 20, '2025-10-22T00:00:00Z', 'UPI', '[]'
		)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := db.ExecContext(ctx, query, passwordHash); err != nil {
		return fmt.Errorf("failed to seed default patient: %w", err)
	}

	// Keep the sequence ahead of explicitly inserted ids.
	fix := `SELECT setval(pg_get_serial_sequence('patients', 'id'), GREATEST((SELECT MAX(id) FROM patients), 1))`
	if _, err := db.ExecContext(ctx, fix); err != nil {
		return fmt.Errorf("failed to realign patient id sequence: %w", err)
	}
	return nil
}
