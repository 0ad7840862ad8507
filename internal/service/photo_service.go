package service

import (
	"context"
	"strings"

	"github.com/Sepehrmasihpour/seshat-backend/pkg/errors"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/logger"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/redis"
)

// photoService turns a Telegram file_id into the group's photo: resolve the
// file path, cache it for the duration of the operation, download the bytes
// and re-upload them through setChatPhoto.
type photoService struct {
	transport BotTransport
	cache     *redis.Client
	groupID   string
	logger    *logger.Logger
}

func NewPhotoService(transport BotTransport, cache *redis.Client, groupID string, log *logger.Logger) PhotoService {
	return &photoService{transport: transport, cache: cache, groupID: groupID, logger: log}
}

// Apply sets the photo behind fileID as the group's photo
func (s *photoService) Apply(ctx context.Context, fileID string) error {
	filePath, err := s.transport.GetFile(ctx, fileID)
	if err != nil {
		return err
	}

	// Cache entry lives only for this operation; losing it is harmless, so a
	// cache failure is logged and the operation carries on.
	if s.cache != nil {
		if cacheErr := s.cache.SetFilePath(ctx, fileID, filePath); cacheErr != nil {
			s.logger.WithError(cacheErr).Warn("Failed to cache file path")
		}
	}

	photo, err := s.transport.DownloadFile(ctx, filePath)
	if err != nil {
		return err
	}

	if err := s.transport.SetChatPhoto(ctx, s.groupID, photo); err != nil {
		if strings.Contains(err.Error(), "PHOTO_CROP_SIZE_SMALL") {
			return errors.NewValidationError("photo below minimum crop dimensions", nil)
		}
		return err
	}

	if s.cache != nil {
		if cacheErr := s.cache.DeleteFilePath(ctx, fileID); cacheErr != nil {
			s.logger.WithError(cacheErr).Warn("Failed to drop cached file path")
		}
	}

	s.logger.WithField("file_id", fileID).Info("Group photo updated")
	return nil
}
