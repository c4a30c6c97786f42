package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medhublabs/medhub/pkg/session"
)

// DBTX is an interface that allows us to use either a database
// connection or a transaction.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements session.ProfileStore using PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE member_profiles (
//	    identity_id  TEXT PRIMARY KEY,
//	    display_name TEXT NOT NULL DEFAULT '',
//	    email        TEXT NOT NULL DEFAULT '',
//	    institution  TEXT NOT NULL DEFAULT '',
//	    cohort_year  TEXT NOT NULL DEFAULT '',
//	    created_at   TIMESTAMPTZ NOT NULL,
//	    updated_at   TIMESTAMPTZ NOT NULL
//	);
type Store struct {
	db DBTX
}

// New creates a new PostgreSQL profile store.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// NewWithPool creates a new PostgreSQL profile store from a pool.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// Get returns the record for an identity, or session.ErrProfileNotFound.
func (s *Store) Get(ctx context.Context, identityID string) (*session.ProfileRecord, error) {
	query := `
        SELECT display_name, email, institution, cohort_year, created_at, updated_at
        FROM member_profiles WHERE identity_id = $1`

	var rec session.ProfileRecord
	err := s.db.QueryRow(ctx, query, identityID).Scan(
		&rec.DisplayName, &rec.Email, &rec.Institution, &rec.CohortYear,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile record: %w", err)
	}

	return &rec, nil
}

// Set creates or replaces the record for an identity.
func (s *Store) Set(ctx context.Context, identityID string, rec session.ProfileRecord) error {
	query := `
        INSERT INTO member_profiles (
            identity_id, display_name, email, institution, cohort_year, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (identity_id) DO UPDATE SET
            display_name = EXCLUDED.display_name,
            email = EXCLUDED.email,
            institution = EXCLUDED.institution,
            cohort_year = EXCLUDED.cohort_year,
            updated_at = EXCLUDED.updated_at`

	_, err := s.db.Exec(ctx, query,
		identityID, rec.DisplayName, rec.Email, rec.Institution, rec.CohortYear,
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to set profile record: %w", err)
	}

	return nil
}

// Update applies a partial update to an existing record.
func (s *Store) Update(ctx context.Context, identityID string, upd session.ProfileUpdate) error {
	query := `
        UPDATE member_profiles SET
            display_name = COALESCE($2, display_name),
            institution = COALESCE($3, institution),
            cohort_year = COALESCE($4, cohort_year),
            updated_at = $5
        WHERE identity_id = $1`

	tag, err := s.db.Exec(ctx, query,
		identityID, upd.DisplayName, upd.Institution, upd.CohortYear, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update profile record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrProfileNotFound
	}

	return nil
}
