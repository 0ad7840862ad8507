package domain

import (
	"time"
)

// Member represents one tracked participant of the managed group.
// A nil LastProposalAt means the member has never opened a proposal.
type Member struct {
	ChatID         int64      `json:"chat_id"`
	Name           string     `json:"name"`
	Username       string     `json:"username"`
	LastProposalAt *time.Time `json:"last_proposal_at,omitempty"`
}

// RegisterOutcome describes what a registration call actually did
type RegisterOutcome string

const (
	RegisterAdded     RegisterOutcome = "added"
	RegisterUpdated   RegisterOutcome = "updated"
	RegisterUnchanged RegisterOutcome = "unchanged"
)

// RegisterMemberRequest is the body of PUT /api/v1/members/{chatID}
type RegisterMemberRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

// RegisterMemberResponse is returned after a registration call
type RegisterMemberResponse struct {
	Outcome RegisterOutcome `json:"outcome"`
	Member  Member          `json:"member"`
}

// MemberCountResponse carries the aggregate member count
type MemberCountResponse struct {
	Count int `json:"count"`
}
