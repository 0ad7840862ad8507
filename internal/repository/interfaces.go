package repository

import (
	"context"
	"time"

	"github.com/Sepehrmasihpour/seshat-backend/internal/domain"
)

// MemberRepository defines the interface for group-member data operations
type MemberRepository interface {
	// GetByChatID retrieves a member by chat ID; nil when absent
	GetByChatID(ctx context.Context, chatID int64) (*domain.Member, error)

	// Insert creates a new member and increments the aggregate count in the
	// same transaction
	Insert(ctx context.Context, member *domain.Member) error

	// Update rewrites name and username for an existing member
	Update(ctx context.Context, member *domain.Member) error

	// Delete removes a member and decrements the aggregate count in the same
	// transaction; reports whether a row was actually deleted
	Delete(ctx context.Context, chatID int64) (bool, error)

	// SetLastProposal stamps the member's last proposal time
	SetLastProposal(ctx context.Context, chatID int64, when time.Time) error

	// Count returns the aggregate member count
	Count(ctx context.Context) (int, error)
}

// VoteStateRepository guards the one-active-vote-per-category invariant
type VoteStateRepository interface {
	// IsActive reports whether a vote of the category is in progress
	IsActive(ctx context.Context, category domain.VoteCategory) (bool, error)

	// TryOpen atomically flips the category's flag from inactive to active.
	// Returns false when a vote was already in progress.
	TryOpen(ctx context.Context, category domain.VoteCategory) (bool, error)

	// Close flips the category's flag back to inactive
	Close(ctx context.Context, category domain.VoteCategory) error
}
