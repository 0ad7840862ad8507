package domain

import (
	"time"
)

// VoteCategory partitions the mutual-exclusion flag space: at most one vote of
// each category may be in progress at any time.
type VoteCategory string

const (
	VoteGroupPhoto   VoteCategory = "group_photo"
	VoteAddMember    VoteCategory = "add_member"
	VoteRemoveMember VoteCategory = "remove_member"
)

// Categories lists every known vote category; the vote-state table is seeded
// with exactly these rows.
func Categories() []VoteCategory {
	return []VoteCategory{VoteGroupPhoto, VoteAddMember, VoteRemoveMember}
}

// Valid reports whether the category is a known one
func (c VoteCategory) Valid() bool {
	switch c {
	case VoteGroupPhoto, VoteAddMember, VoteRemoveMember:
		return true
	}
	return false
}

// ProposalState is the coordinator's state machine position
type ProposalState string

const (
	ProposalRejected     ProposalState = "rejected"
	ProposalPostingMedia ProposalState = "posting_media"
	ProposalPostingPoll  ProposalState = "posting_poll"
	ProposalWaiting      ProposalState = "waiting"
	ProposalResolved     ProposalState = "resolved"
)

// ProposalOutcome is the terminal result of a resolved proposal
type ProposalOutcome string

const (
	OutcomeApproved ProposalOutcome = "approved"
	OutcomeRejected ProposalOutcome = "rejected"
	OutcomeTimedOut ProposalOutcome = "timed_out"
)

// Proposal is the value object threaded through one coordinator run. It has no
// durable row of its own: the vote-state flag, the proposer's timestamp and the
// outstanding poll together represent it.
type Proposal struct {
	ID        string       `json:"id"`
	Category  VoteCategory `json:"category"`
	ChatID    int64        `json:"chat_id"`
	FileID    string       `json:"file_id"`
	Argument  string       `json:"argument"`
	Anonymous bool         `json:"anonymous"`
	OpenedAt  time.Time    `json:"opened_at"`
	Deadline  time.Time    `json:"deadline"`
	MessageID int          `json:"message_id"` // Poll message, needed to stop it
}

// OpenProposalRequest is the body of POST /api/v1/group/photo/proposals
type OpenProposalRequest struct {
	ChatID    int64  `json:"chat_id"`
	FileID    string `json:"file_id"`
	Argument  string `json:"argument"`
	Anonymous bool   `json:"anonymous"`
}

// OpenProposalResponse is returned once the poll has been posted; the vote
// itself resolves in the background.
type OpenProposalResponse struct {
	ProposalID string    `json:"proposal_id"`
	PollID     string    `json:"poll_id"`
	Deadline   time.Time `json:"deadline"`
}

// Eligibility deny reasons, surfaced verbatim to the caller
const (
	DenyNotRegistered  = "not a registered member"
	DenyCooldownActive = "cooldown active"
	DenyVoteInProgress = "a vote of this type is already in progress"
)

// Eligibility is the result of the pre-proposal check. Checks run in a fixed
// order and the first failing one wins, so Reason carries a single cause.
type Eligibility struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// ProposalCooldown is how long a member must wait between proposals. The
// boundary is strict: a proposal exactly this old still denies.
const ProposalCooldown = 24 * time.Hour
