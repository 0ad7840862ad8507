package handler

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/Sepehrmasihpour/seshat-backend/internal/domain"
	"github.com/Sepehrmasihpour/seshat-backend/internal/service"
	"github.com/Sepehrmasihpour/seshat-backend/internal/service/telegram"
)

// stubMembership implements service.MembershipService with function fields so
// each test wires only what it exercises
type stubMembership struct {
	lookupFn   func(ctx context.Context, chatID int64) (*domain.Member, error)
	registerFn func(ctx context.Context, chatID int64, name, username string) (*domain.RegisterMemberResponse, error)
	removeFn   func(ctx context.Context, chatID int64) error
	countFn    func(ctx context.Context) (int, error)
}

var _ service.MembershipService = (*stubMembership)(nil)

func (s *stubMembership) Lookup(ctx context.Context, chatID int64) (*domain.Member, error) {
	return s.lookupFn(ctx, chatID)
}

func (s *stubMembership) Register(ctx context.Context, chatID int64, name, username string) (*domain.RegisterMemberResponse, error) {
	return s.registerFn(ctx, chatID, name, username)
}

func (s *stubMembership) Remove(ctx context.Context, chatID int64) error {
	return s.removeFn(ctx, chatID)
}

func (s *stubMembership) MarkProposed(ctx context.Context, chatID int64, when time.Time) error {
	return nil
}

func (s *stubMembership) Count(ctx context.Context) (int, error) {
	return s.countFn(ctx)
}

type stubProposals struct {
	openFn  func(ctx context.Context, req *domain.OpenProposalRequest) (*domain.OpenProposalResponse, error)
	closeFn func(ctx context.Context, category domain.VoteCategory) error
}

var _ service.ProposalService = (*stubProposals)(nil)

func (s *stubProposals) Open(ctx context.Context, req *domain.OpenProposalRequest) (*domain.OpenProposalResponse, error) {
	return s.openFn(ctx, req)
}

func (s *stubProposals) CloseVote(ctx context.Context, category domain.VoteCategory) error {
	return s.closeFn(ctx, category)
}

func (s *stubProposals) Stop(ctx context.Context) error { return nil }

type stubPhotos struct {
	applyFn func(ctx context.Context, fileID string) error
}

var _ service.PhotoService = (*stubPhotos)(nil)

func (s *stubPhotos) Apply(ctx context.Context, fileID string) error {
	return s.applyFn(ctx, fileID)
}

type stubMessages struct {
	sendFn    func(ctx context.Context, req *domain.SendMessageRequest) (*telegram.Message, error)
	uploadFn  func(ctx context.Context, kind domain.MediaKind, chatID, filename, contentType string, media io.Reader, caption string) (*telegram.Message, error)
	updatesFn func(ctx context.Context, offset, timeout int, allowedUpdates []string) (json.RawMessage, error)
}

var _ service.MessageService = (*stubMessages)(nil)

func (s *stubMessages) Send(ctx context.Context, req *domain.SendMessageRequest) (*telegram.Message, error) {
	return s.sendFn(ctx, req)
}

func (s *stubMessages) SendUpload(ctx context.Context, kind domain.MediaKind, chatID, filename, contentType string, media io.Reader, caption string) (*telegram.Message, error) {
	return s.uploadFn(ctx, kind, chatID, filename, contentType, media, caption)
}

func (s *stubMessages) Updates(ctx context.Context, offset, timeout int, allowedUpdates []string) (json.RawMessage, error) {
	return s.updatesFn(ctx, offset, timeout, allowedUpdates)
}
