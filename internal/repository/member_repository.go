package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Sepehrmasihpour/seshat-backend/internal/domain"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/database"
)

type PgMemberRepository struct {
	db *database.PostgresDB
}

func NewPgMemberRepository(db *database.PostgresDB) *PgMemberRepository {
	return &PgMemberRepository{db: db}
}

// GetByChatID retrieves a member by chat ID
func (r *PgMemberRepository) GetByChatID(ctx context.Context, chatID int64) (*domain.Member, error) {
	var member domain.Member
	query := `
		SELECT chat_id, name, user_name, last_proposal_at
		FROM group_members
		WHERE chat_id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, chatID).Scan(
		&member.ChatID,
		&member.Name,
		&member.Username,
		&member.LastProposalAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return &member, nil
}

// Insert creates a member row and bumps the aggregate count together, so the
// count cannot drift from the row total on this path.
func (r *PgMemberRepository) Insert(ctx context.Context, member *domain.Member) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO group_members (chat_id, name, user_name)
		VALUES ($1, $2, $3)
	`, member.ChatID, member.Name, member.Username)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}

	_, err = tx.Exec(ctx, `UPDATE member_count SET count = count + 1 WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("failed to increment member count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit member insert: %w", err)
	}
	return nil
}

// Update rewrites name and username for an existing member
func (r *PgMemberRepository) Update(ctx context.Context, member *domain.Member) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE group_members
		SET name = $2, user_name = $3
		WHERE chat_id = $1
	`, member.ChatID, member.Name, member.Username)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	return nil
}

// Delete removes a member and decrements the aggregate count. The count is
// clamped at zero in case a caller races a repeated delete.
func (r *PgMemberRepository) Delete(ctx context.Context, chatID int64) (bool, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM group_members WHERE chat_id = $1`, chatID)
	if err != nil {
		return false, fmt.Errorf("failed to delete member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `UPDATE member_count SET count = GREATEST(count - 1, 0) WHERE id = 1`)
	if err != nil {
		return false, fmt.Errorf("failed to decrement member count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit member delete: %w", err)
	}
	return true, nil
}

// SetLastProposal stamps the member's last proposal time
func (r *PgMemberRepository) SetLastProposal(ctx context.Context, chatID int64, when time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE group_members
		SET last_proposal_at = $2
		WHERE chat_id = $1
	`, chatID, when)
	if err != nil {
		return fmt.Errorf("failed to set last proposal time: %w", err)
	}
	return nil
}

// Count returns the aggregate member count
func (r *PgMemberRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT count FROM member_count WHERE id = 1`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get member count: %w", err)
	}
	return count, nil
}
