package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Sepehrmasihpour/seshat-backend/internal/domain"
	"github.com/Sepehrmasihpour/seshat-backend/internal/repository"
	"github.com/Sepehrmasihpour/seshat-backend/internal/service/telegram"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/errors"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/logger"
)

const (
	proposalCaption = "A member has proposed this as the new group photo. Cast your vote in the poll below."

	voteOptionYes = "YES"
	voteOptionNo  = "NO"
)

// proposalService coordinates the group-photo vote: eligibility, flag
// acquisition, media post, poll post, then a background watcher that resolves
// the vote. The HTTP request returns as soon as the poll is posted; only the
// watcher blocks, and it is bounded by the proposal deadline.
type proposalService struct {
	membership  MembershipService
	eligibility EligibilityChecker
	votes       repository.VoteStateRepository
	transport   BotTransport
	photos      PhotoService
	logger      *logger.Logger

	groupID   string
	ttl       time.Duration
	pollEvery time.Duration
	now       func() time.Time

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// ProposalConfig carries the coordinator's tunables
type ProposalConfig struct {
	GroupID   string
	TTL       time.Duration // Voting window, 24h in production
	PollEvery time.Duration // Flag re-check interval, 30s in production
}

func NewProposalService(
	membership MembershipService,
	eligibility EligibilityChecker,
	votes repository.VoteStateRepository,
	transport BotTransport,
	photos PhotoService,
	cfg ProposalConfig,
	log *logger.Logger,
) ProposalService {
	baseCtx, cancel := context.WithCancel(context.Background())
	return &proposalService{
		membership:  membership,
		eligibility: eligibility,
		votes:       votes,
		transport:   transport,
		photos:      photos,
		logger:      log,
		groupID:     cfg.GroupID,
		ttl:         cfg.TTL,
		pollEvery:   cfg.PollEvery,
		now:         time.Now,
		baseCtx:     baseCtx,
		cancel:      cancel,
	}
}

// Open walks the proposal through REJECTED / POSTING_MEDIA / POSTING_POLL and
// hands WAITING off to the watcher. The category flag is acquired up front via
// compare-and-set (it is the mutual-exclusion guard) and released on every
// abort path, so a failed open leaves the flag inactive and no timestamp set.
func (s *proposalService) Open(ctx context.Context, req *domain.OpenProposalRequest) (*domain.OpenProposalResponse, error) {
	category := domain.VoteGroupPhoto

	elig, err := s.eligibility.CanPropose(ctx, req.ChatID, category)
	if err != nil {
		return nil, err
	}
	if !elig.Allowed {
		return nil, errors.NewBusinessRuleError(elig.Reason)
	}

	opened, err := s.votes.TryOpen(ctx, category)
	if err != nil {
		return nil, errors.NewInternalError("failed to open vote", err)
	}
	if !opened {
		// Lost the race between the eligibility check and here
		return nil, errors.NewBusinessRuleError(domain.DenyVoteInProgress)
	}

	caption := proposalCaption
	if req.Argument != "" {
		caption = fmt.Sprintf("%s\n\nProposer's argument: %s", proposalCaption, req.Argument)
	}

	if _, err := s.transport.SendMedia(ctx, domain.MediaPhoto, s.groupID, req.FileID, caption); err != nil {
		s.releaseFlag(category)
		return nil, err
	}

	question, err := s.buildQuestion(ctx, req)
	if err != nil {
		s.releaseFlag(category)
		return nil, err
	}

	msg, err := s.transport.SendPoll(ctx, s.groupID, question, []string{voteOptionYes, voteOptionNo}, req.Anonymous)
	if err != nil {
		// The candidate photo has already been posted; it stays in the chat
		s.releaseFlag(category)
		return nil, err
	}

	openedAt := s.now()
	if err := s.membership.MarkProposed(ctx, req.ChatID, openedAt); err != nil {
		s.logger.WithError(err).WithField("chat_id", req.ChatID).Warn("Failed to stamp proposal time; vote continues")
	}

	proposal := domain.Proposal{
		ID:        uuid.NewString(),
		Category:  category,
		ChatID:    req.ChatID,
		FileID:    req.FileID,
		Argument:  req.Argument,
		Anonymous: req.Anonymous,
		OpenedAt:  openedAt,
		Deadline:  openedAt.Add(s.ttl),
		MessageID: msg.MessageID,
	}

	s.wg.Add(1)
	go s.watch(proposal)

	s.logger.WithFields(map[string]interface{}{
		"proposal_id": proposal.ID,
		"chat_id":     req.ChatID,
		"poll_id":     msg.Poll.ID,
		"deadline":    proposal.Deadline,
	}).Info("Group photo proposal opened")

	return &domain.OpenProposalResponse{
		ProposalID: proposal.ID,
		PollID:     msg.Poll.ID,
		Deadline:   proposal.Deadline,
	}, nil
}

// CloseVote clears the category flag; the watcher reads that as "voting
// concluded" within one polling interval
func (s *proposalService) CloseVote(ctx context.Context, category domain.VoteCategory) error {
	if !category.Valid() {
		return errors.NewValidationError("unknown vote category", map[string]interface{}{"category": category})
	}
	active, err := s.votes.IsActive(ctx, category)
	if err != nil {
		return errors.NewInternalError("failed to read vote state", err)
	}
	if !active {
		return errors.NewNotFoundError("no vote of this type is in progress")
	}
	if err := s.votes.Close(ctx, category); err != nil {
		return errors.NewInternalError("failed to close vote", err)
	}
	return nil
}

// Stop cancels all watchers and waits for them to drain
func (s *proposalService) Stop(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *proposalService) buildQuestion(ctx context.Context, req *domain.OpenProposalRequest) (string, error) {
	if req.Anonymous {
		return "Should the photo above become the new group photo?", nil
	}
	member, err := s.membership.Lookup(ctx, req.ChatID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("@%s proposes the photo above as the new group photo. Apply it?", member.Username), nil
}

// releaseFlag rolls the flag acquisition back on an abort path. Uses a fresh
// context so an already-cancelled request can still release it.
func (s *proposalService) releaseFlag(category domain.VoteCategory) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.votes.Close(ctx, category); err != nil {
		s.logger.WithError(err).WithField("category", category).Error("Failed to release vote flag after abort")
	}
}

// watch is the WAITING state: re-check the category flag at the configured
// interval until it flips inactive (voting concluded) or the deadline passes.
func (s *proposalService) watch(p domain.Proposal) {
	defer s.wg.Done()

	log := s.logger.WithField("proposal_id", p.ID)

	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()

	deadline := time.NewTimer(p.Deadline.Sub(s.now()))
	defer deadline.Stop()

	for {
		select {
		case <-s.baseCtx.Done():
			// Shutting down mid-vote: release the flag so a restart does not
			// find a permanently stuck category.
			s.releaseFlag(p.Category)
			log.Warn("Watcher cancelled by shutdown; vote flag released")
			return

		case <-deadline.C:
			log.Info("Proposal deadline passed")
			s.resolve(p, domain.OutcomeTimedOut)
			return

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(s.baseCtx, 10*time.Second)
			active, err := s.votes.IsActive(ctx, p.Category)
			cancel()
			if err != nil {
				log.WithError(err).Warn("Failed to read vote flag; will retry")
				continue
			}
			if !active {
				log.Info("Vote flag cleared; resolving proposal")
				s.resolve(p, "")
				return
			}
		}
	}
}

// resolve is the RESOLVED state: stop the poll, tally, apply the quorum rule
// and announce the outcome. forced, when non-empty, overrides the tally
// (timeout path). The flag always ends up inactive.
func (s *proposalService) resolve(p domain.Proposal, forced domain.ProposalOutcome) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	log := s.logger.WithField("proposal_id", p.ID)

	if forced == domain.OutcomeTimedOut {
		// Flag is still active on the timeout path; clear it first so a new
		// proposal is not blocked by a vote that is over.
		s.releaseFlag(p.Category)
	}

	poll, err := s.transport.StopPoll(ctx, s.groupID, p.MessageID)
	if err != nil {
		log.WithError(err).Error("Failed to stop poll; announcing timeout")
		s.announce(ctx, "The group photo vote could not be tallied and has been discarded.")
		return
	}

	outcome := forced
	if outcome == "" {
		outcome = s.decide(ctx, poll)
	}

	switch outcome {
	case domain.OutcomeApproved:
		if err := s.photos.Apply(ctx, p.FileID); err != nil {
			log.WithError(err).Error("Vote approved but photo application failed")
			s.announce(ctx, fmt.Sprintf("The vote passed, but applying the new group photo failed: %s", err.Error()))
			return
		}
		s.announce(ctx, "The vote passed. The group photo has been updated.")
		log.WithField("outcome", outcome).Info("Proposal resolved")

	case domain.OutcomeRejected:
		s.announce(ctx, "The vote did not pass. The group photo stays as it is.")
		log.WithField("outcome", outcome).Info("Proposal resolved")

	case domain.OutcomeTimedOut:
		s.announce(ctx, "The group photo vote closed without enough participation. The photo stays as it is.")
		log.WithField("outcome", outcome).Info("Proposal resolved")
	}
}

// decide applies the quorum rule to a closed poll: YES must be unanimous when
// the group has five or fewer members, otherwise at least three quarters of
// the votes cast. No votes at all counts as insufficient participation.
func (s *proposalService) decide(ctx context.Context, poll *telegram.Poll) domain.ProposalOutcome {
	yes, cast := tally(poll)
	if cast == 0 {
		return domain.OutcomeTimedOut
	}

	memberCount, err := s.membership.Count(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read member count; applying majority rule")
		memberCount = 0
	}

	if memberCount > 0 && memberCount <= 5 {
		if yes == cast {
			return domain.OutcomeApproved
		}
		return domain.OutcomeRejected
	}

	if yes*4 >= cast*3 {
		return domain.OutcomeApproved
	}
	return domain.OutcomeRejected
}

func tally(poll *telegram.Poll) (yes, cast int) {
	for _, opt := range poll.Options {
		cast += opt.VoterCount
		if opt.Text == voteOptionYes {
			yes = opt.VoterCount
		}
	}
	return yes, cast
}

func (s *proposalService) announce(ctx context.Context, text string) {
	if _, err := s.transport.SendMedia(ctx, domain.MediaText, s.groupID, text, ""); err != nil {
		s.logger.WithError(err).Warn("Failed to announce vote outcome")
	}
}
