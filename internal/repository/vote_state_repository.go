package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Sepehrmasihpour/seshat-backend/internal/domain"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/database"
)

type PgVoteStateRepository struct {
	db *database.PostgresDB
}

func NewPgVoteStateRepository(db *database.PostgresDB) *PgVoteStateRepository {
	return &PgVoteStateRepository{db: db}
}

// IsActive reports whether a vote of the category is in progress
func (r *PgVoteStateRepository) IsActive(ctx context.Context, category domain.VoteCategory) (bool, error) {
	var active bool
	err := r.db.Pool.QueryRow(ctx, `
		SELECT is_active FROM votes_in_progress WHERE vote_type = $1
	`, string(category)).Scan(&active)

	if err == pgx.ErrNoRows {
		return false, fmt.Errorf("unknown vote category %q", category)
	}
	if err != nil {
		return false, fmt.Errorf("failed to read vote state: %w", err)
	}
	return active, nil
}

// TryOpen is a compare-and-set on the category flag: the UPDATE only matches
// while the flag is inactive, so concurrent openers cannot both win.
func (r *PgVoteStateRepository) TryOpen(ctx context.Context, category domain.VoteCategory) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE votes_in_progress
		SET is_active = TRUE
		WHERE vote_type = $1 AND is_active = FALSE
	`, string(category))
	if err != nil {
		return false, fmt.Errorf("failed to open vote: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Close flips the category's flag back to inactive
func (r *PgVoteStateRepository) Close(ctx context.Context, category domain.VoteCategory) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE votes_in_progress
		SET is_active = FALSE
		WHERE vote_type = $1
	`, string(category))
	if err != nil {
		return fmt.Errorf("failed to close vote: %w", err)
	}
	return nil
}
