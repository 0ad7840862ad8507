package service

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/Sepehrmasihpour/seshat-backend/internal/domain"
	"github.com/Sepehrmasihpour/seshat-backend/internal/service/telegram"
)

// BotTransport defines the Telegram Bot API surface the services consume.
// Implemented by telegram.Client, faked in tests.
type BotTransport interface {
	// SendMedia sends text, or media referenced by URL / file_id, to a chat
	SendMedia(ctx context.Context, kind domain.MediaKind, chatID, payload, caption string) (*telegram.Message, error)

	// SendMediaUpload sends uploaded file bytes to a chat
	SendMediaUpload(ctx context.Context, kind domain.MediaKind, chatID, filename string, media io.Reader, caption string) (*telegram.Message, error)

	// GetFile resolves a file_id to a download path
	GetFile(ctx context.Context, fileID string) (string, error)

	// DownloadFile fetches the bytes behind a resolved file path
	DownloadFile(ctx context.Context, filePath string) ([]byte, error)

	// SetChatPhoto uploads new photo bytes as the chat's photo
	SetChatPhoto(ctx context.Context, chatID string, photo []byte) error

	// SendPoll posts a poll and returns the message carrying it
	SendPoll(ctx context.Context, chatID, question string, options []string, anonymous bool) (*telegram.Message, error)

	// StopPoll closes a poll and returns its final tallies
	StopPoll(ctx context.Context, chatID string, messageID int) (*telegram.Poll, error)

	// GetUpdates fetches raw bot updates
	GetUpdates(ctx context.Context, offset, timeout int, allowedUpdates []string) (json.RawMessage, error)
}

// MembershipService defines CRUD over tracked group members
type MembershipService interface {
	// Lookup returns the member for a chat ID
	Lookup(ctx context.Context, chatID int64) (*domain.Member, error)

	// Register inserts or refreshes a member record; idempotent on identical
	// name/username
	Register(ctx context.Context, chatID int64, name, username string) (*domain.RegisterMemberResponse, error)

	// Remove deletes a member record
	Remove(ctx context.Context, chatID int64) error

	// MarkProposed stamps the member's last proposal time; used only by the
	// proposal coordinator
	MarkProposed(ctx context.Context, chatID int64, when time.Time) error

	// Count returns the aggregate member count
	Count(ctx context.Context) (int, error)
}

// EligibilityChecker decides whether a member may open a proposal
type EligibilityChecker interface {
	CanPropose(ctx context.Context, chatID int64, category domain.VoteCategory) (domain.Eligibility, error)
}

// PhotoService applies a candidate photo as the group's photo
type PhotoService interface {
	Apply(ctx context.Context, fileID string) error
}

// ProposalService coordinates the group-photo proposal workflow
type ProposalService interface {
	// Open runs eligibility, posts the candidate photo and the poll, and
	// schedules the background watcher. Returns as soon as the poll is up.
	Open(ctx context.Context, req *domain.OpenProposalRequest) (*domain.OpenProposalResponse, error)

	// CloseVote clears the category flag, which the watcher reads as "voting
	// concluded" within one polling interval
	CloseVote(ctx context.Context, category domain.VoteCategory) error

	// Stop cancels all watchers and waits for them to drain
	Stop(ctx context.Context) error
}
