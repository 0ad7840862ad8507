package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Sepehrmasihpour/seshat-backend/internal/domain"
	"github.com/Sepehrmasihpour/seshat-backend/internal/service/telegram"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/errors"
)

// fakeMemberRepo is an in-memory MemberRepository
type fakeMemberRepo struct {
	mu      sync.Mutex
	members map[int64]*domain.Member
	count   int

	insertCalls int
	updateCalls int

	getErr    error
	insertErr error
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: map[int64]*domain.Member{}}
}

func (r *fakeMemberRepo) GetByChatID(_ context.Context, chatID int64) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	m, ok := r.members[chatID]
	if !ok {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMemberRepo) Insert(_ context.Context, member *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.insertCalls++
	copied := *member
	r.members[member.ChatID] = &copied
	r.count++
	return nil
}

func (r *fakeMemberRepo) Update(_ context.Context, member *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	copied := *member
	r.members[member.ChatID] = &copied
	return nil
}

func (r *fakeMemberRepo) Delete(_ context.Context, chatID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[chatID]; !ok {
		return false, nil
	}
	delete(r.members, chatID)
	if r.count > 0 {
		r.count--
	}
	return true, nil
}

func (r *fakeMemberRepo) SetLastProposal(_ context.Context, chatID int64, when time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[chatID]
	if !ok {
		return fmt.Errorf("no member %d", chatID)
	}
	m.LastProposalAt = &when
	return nil
}

func (r *fakeMemberRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count, nil
}

// fakeVoteStateRepo is an in-memory VoteStateRepository with CAS semantics
type fakeVoteStateRepo struct {
	mu     sync.Mutex
	active map[domain.VoteCategory]bool

	tryOpenDenied bool // Force TryOpen to lose the race
}

func newFakeVoteStateRepo() *fakeVoteStateRepo {
	return &fakeVoteStateRepo{active: map[domain.VoteCategory]bool{
		domain.VoteGroupPhoto:   false,
		domain.VoteAddMember:    false,
		domain.VoteRemoveMember: false,
	}}
}

func (r *fakeVoteStateRepo) IsActive(_ context.Context, category domain.VoteCategory) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[category], nil
}

func (r *fakeVoteStateRepo) TryOpen(_ context.Context, category domain.VoteCategory) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tryOpenDenied || r.active[category] {
		return false, nil
	}
	r.active[category] = true
	return true, nil
}

func (r *fakeVoteStateRepo) Close(_ context.Context, category domain.VoteCategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[category] = false
	return nil
}

// fakeTransport records Bot API calls and serves canned results
type fakeTransport struct {
	mu sync.Mutex

	sendMediaErr error
	sendPollErr  error
	stopPollErr  error
	getFileErr   error
	setPhotoErr  error

	stopPollResult *telegram.Poll

	mediaSent  []string // captions / texts in send order
	pollsSent  []string // questions
	photosSet  int
	stopCalled int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		stopPollResult: &telegram.Poll{
			ID:      "poll-1",
			Options: []telegram.PollOption{{Text: "YES", VoterCount: 0}, {Text: "NO", VoterCount: 0}},
		},
	}
}

func (t *fakeTransport) SendMedia(_ context.Context, kind domain.MediaKind, chatID, payload, caption string) (*telegram.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendMediaErr != nil {
		return nil, t.sendMediaErr
	}
	if kind == domain.MediaText {
		t.mediaSent = append(t.mediaSent, payload)
	} else {
		t.mediaSent = append(t.mediaSent, caption)
	}
	return &telegram.Message{MessageID: len(t.mediaSent)}, nil
}

func (t *fakeTransport) SendMediaUpload(_ context.Context, kind domain.MediaKind, chatID, filename string, media io.Reader, caption string) (*telegram.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mediaSent = append(t.mediaSent, caption)
	return &telegram.Message{MessageID: len(t.mediaSent)}, nil
}

func (t *fakeTransport) GetFile(_ context.Context, fileID string) (string, error) {
	if t.getFileErr != nil {
		return "", t.getFileErr
	}
	return "photos/" + fileID + ".jpg", nil
}

func (t *fakeTransport) DownloadFile(_ context.Context, filePath string) ([]byte, error) {
	return []byte("jpeg-bytes"), nil
}

func (t *fakeTransport) SetChatPhoto(_ context.Context, chatID string, photo []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.setPhotoErr != nil {
		return t.setPhotoErr
	}
	t.photosSet++
	return nil
}

func (t *fakeTransport) SendPoll(_ context.Context, chatID, question string, options []string, anonymous bool) (*telegram.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendPollErr != nil {
		return nil, t.sendPollErr
	}
	t.pollsSent = append(t.pollsSent, question)
	return &telegram.Message{
		MessageID: 100 + len(t.pollsSent),
		Poll:      &telegram.Poll{ID: "poll-1"},
	}, nil
}

func (t *fakeTransport) StopPoll(_ context.Context, chatID string, messageID int) (*telegram.Poll, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopCalled++
	if t.stopPollErr != nil {
		return nil, t.stopPollErr
	}
	return t.stopPollResult, nil
}

func (t *fakeTransport) GetUpdates(_ context.Context, offset, timeout int, allowedUpdates []string) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func (t *fakeTransport) announcements() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.mediaSent))
	copy(out, t.mediaSent)
	return out
}

var errTransportDown = errors.NewExternalError("chat not found", nil)
