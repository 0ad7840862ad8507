package service

import (
	"context"
	"time"

	"github.com/Sepehrmasihpour/seshat-backend/internal/domain"
	"github.com/Sepehrmasihpour/seshat-backend/internal/repository"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/errors"
)

// eligibilityChecker runs the pre-proposal checks in a fixed order and returns
// on the first failing one: registration, then cooldown, then the active-vote
// flag. A member who fails several checks only ever sees the earliest reason.
type eligibilityChecker struct {
	members repository.MemberRepository
	votes   repository.VoteStateRepository
	now     func() time.Time
}

func NewEligibilityChecker(members repository.MemberRepository, votes repository.VoteStateRepository) EligibilityChecker {
	return &eligibilityChecker{members: members, votes: votes, now: time.Now}
}

func (c *eligibilityChecker) CanPropose(ctx context.Context, chatID int64, category domain.VoteCategory) (domain.Eligibility, error) {
	member, err := c.members.GetByChatID(ctx, chatID)
	if err != nil {
		return domain.Eligibility{}, errors.NewInternalError("failed to check eligibility", err)
	}
	if member == nil {
		return domain.Eligibility{Allowed: false, Reason: domain.DenyNotRegistered}, nil
	}

	// Never-proposed members always pass the cooldown check. The boundary is
	// strict: a proposal exactly ProposalCooldown old still denies.
	if member.LastProposalAt != nil {
		age := c.now().Sub(*member.LastProposalAt)
		if age <= domain.ProposalCooldown {
			return domain.Eligibility{Allowed: false, Reason: domain.DenyCooldownActive}, nil
		}
	}

	active, err := c.votes.IsActive(ctx, category)
	if err != nil {
		return domain.Eligibility{}, errors.NewInternalError("failed to check eligibility", err)
	}
	if active {
		return domain.Eligibility{Allowed: false, Reason: domain.DenyVoteInProgress}, nil
	}

	return domain.Eligibility{Allowed: true}, nil
}
