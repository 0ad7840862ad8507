package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Sepehrmasihpour/seshat-backend/internal/domain"
	"github.com/Sepehrmasihpour/seshat-backend/internal/service/telegram"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/errors"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/logger"
)

// Chat aliases accepted wherever a chat_id is expected
const (
	AliasMainGroup   = "mainGroup"
	AliasMainChannel = "mainChannel"
)

// MessageService relays messages and media to chats and passes bot updates
// through
type MessageService interface {
	// Send relays text or media referenced by URL / file_id
	Send(ctx context.Context, req *domain.SendMessageRequest) (*telegram.Message, error)

	// SendUpload relays an uploaded file after MIME validation
	SendUpload(ctx context.Context, kind domain.MediaKind, chatID, filename, contentType string, media io.Reader, caption string) (*telegram.Message, error)

	// Updates fetches raw bot updates
	Updates(ctx context.Context, offset, timeout int, allowedUpdates []string) (json.RawMessage, error)
}

type messageService struct {
	transport BotTransport
	groupID   string
	channelID string
	logger    *logger.Logger
}

func NewMessageService(transport BotTransport, groupID, channelID string, log *logger.Logger) MessageService {
	return &messageService{transport: transport, groupID: groupID, channelID: channelID, logger: log}
}

// resolveChatID maps the mainGroup / mainChannel aliases to configured chat
// IDs; anything else passes through untouched.
func (s *messageService) resolveChatID(chatID string) string {
	switch chatID {
	case AliasMainGroup:
		return s.groupID
	case AliasMainChannel:
		return s.channelID
	}
	return chatID
}

// Send relays text or media referenced by URL / file_id
func (s *messageService) Send(ctx context.Context, req *domain.SendMessageRequest) (*telegram.Message, error) {
	if !req.MediaType.Valid() {
		return nil, errors.NewValidationError("unsupported media type", map[string]interface{}{"media_type": req.MediaType})
	}
	if req.ChatID == "" {
		return nil, errors.NewValidationError("chat_id is required", nil)
	}
	if req.Media == "" {
		return nil, errors.NewValidationError("media is required", nil)
	}

	return s.transport.SendMedia(ctx, req.MediaType, s.resolveChatID(req.ChatID), req.Media, req.Caption)
}

// SendUpload relays an uploaded file after MIME validation
func (s *messageService) SendUpload(ctx context.Context, kind domain.MediaKind, chatID, filename, contentType string, media io.Reader, caption string) (*telegram.Message, error) {
	if !kind.Valid() || kind == domain.MediaText {
		return nil, errors.NewValidationError("unsupported media type", map[string]interface{}{"media_type": kind})
	}
	if !kind.AcceptsMIME(contentType) {
		return nil, errors.NewValidationError(
			fmt.Sprintf("unsupported file type, please upload a %s", kind), nil)
	}
	if chatID == "" {
		return nil, errors.NewValidationError("chat_id is required", nil)
	}

	return s.transport.SendMediaUpload(ctx, kind, s.resolveChatID(chatID), filename, media, caption)
}

// Updates fetches raw bot updates
func (s *messageService) Updates(ctx context.Context, offset, timeout int, allowedUpdates []string) (json.RawMessage, error) {
	return s.transport.GetUpdates(ctx, offset, timeout, allowedUpdates)
}
