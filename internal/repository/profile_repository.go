package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-triage/internal/domain"
)

// ProfileRepository keeps the display names shown next to reported issues.
type ProfileRepository interface {
	Upsert(ctx context.Context, actor domain.Actor) error
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

// Upsert records the actor's latest display name and role. An empty display
// name never overwrites a known one.
func (r *profileRepository) Upsert(ctx context.Context, actor domain.Actor) error {
	const query = `
        INSERT INTO profiles (id, full_name, role)
        VALUES ($1, $2, $3)
        ON CONFLICT (id) DO UPDATE SET
            full_name = COALESCE(NULLIF(EXCLUDED.full_name, ''), profiles.full_name),
            role = EXCLUDED.role`
	_, err := r.pool.Exec(ctx, query, actor.ID, actor.DisplayName, string(actor.Role))
	return err
}
