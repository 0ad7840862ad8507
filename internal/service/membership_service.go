package service

import (
	"context"
	"time"

	"github.com/Sepehrmasihpour/seshat-backend/internal/domain"
	"github.com/Sepehrmasihpour/seshat-backend/internal/repository"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/errors"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/logger"
)

// membershipService implements MembershipService on top of the member
// repository. Storage failures are logged here and surfaced as structured
// errors; raw pgx errors never cross this boundary.
type membershipService struct {
	members repository.MemberRepository
	logger  *logger.Logger
}

func NewMembershipService(members repository.MemberRepository, log *logger.Logger) MembershipService {
	return &membershipService{members: members, logger: log}
}

// Lookup returns the member for a chat ID
func (s *membershipService) Lookup(ctx context.Context, chatID int64) (*domain.Member, error) {
	member, err := s.members.GetByChatID(ctx, chatID)
	if err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to look up member")
		return nil, errors.NewInternalError("failed to look up member", err)
	}
	if member == nil {
		return nil, errors.NewNotFoundError("member not found")
	}
	return member, nil
}

// Register inserts a new member, refreshes a changed one, or does nothing when
// the record already matches. Only an insert moves the aggregate count.
func (s *membershipService) Register(ctx context.Context, chatID int64, name, username string) (*domain.RegisterMemberResponse, error) {
	existing, err := s.members.GetByChatID(ctx, chatID)
	if err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to look up member")
		return nil, errors.NewInternalError("failed to register member", err)
	}

	if existing == nil {
		member := &domain.Member{ChatID: chatID, Name: name, Username: username}
		if err := s.members.Insert(ctx, member); err != nil {
			s.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to insert member")
			return nil, errors.NewInternalError("failed to register member", err)
		}
		s.logger.WithFields(map[string]interface{}{
			"chat_id":  chatID,
			"username": username,
		}).Info("Member registered")
		return &domain.RegisterMemberResponse{Outcome: domain.RegisterAdded, Member: *member}, nil
	}

	if existing.Name == name && existing.Username == username {
		return &domain.RegisterMemberResponse{Outcome: domain.RegisterUnchanged, Member: *existing}, nil
	}

	existing.Name = name
	existing.Username = username
	if err := s.members.Update(ctx, existing); err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to update member")
		return nil, errors.NewInternalError("failed to register member", err)
	}
	return &domain.RegisterMemberResponse{Outcome: domain.RegisterUpdated, Member: *existing}, nil
}

// Remove deletes a member record; not-found carries no side effects
func (s *membershipService) Remove(ctx context.Context, chatID int64) error {
	removed, err := s.members.Delete(ctx, chatID)
	if err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to delete member")
		return errors.NewInternalError("failed to remove member", err)
	}
	if !removed {
		return errors.NewNotFoundError("member not found")
	}
	s.logger.WithField("chat_id", chatID).Info("Member removed")
	return nil
}

// MarkProposed stamps the member's last proposal time
func (s *membershipService) MarkProposed(ctx context.Context, chatID int64, when time.Time) error {
	if err := s.members.SetLastProposal(ctx, chatID, when); err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to stamp proposal time")
		return errors.NewInternalError("failed to record proposal time", err)
	}
	return nil
}

// Count returns the aggregate member count
func (s *membershipService) Count(ctx context.Context) (int, error) {
	count, err := s.members.Count(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to read member count")
		return 0, errors.NewInternalError("failed to read member count", err)
	}
	return count, nil
}
