package container

import (
	"context"
	"fmt"

	"github.com/Sepehrmasihpour/seshat-backend/internal/config"
	"github.com/Sepehrmasihpour/seshat-backend/internal/repository"
	"github.com/Sepehrmasihpour/seshat-backend/internal/service"
	"github.com/Sepehrmasihpour/seshat-backend/internal/service/telegram"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/database"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/logger"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *database.PostgresDB
	RedisClient *redis.Client

	Membership service.MembershipService
	Messages   service.MessageService
	Photos     service.PhotoService
	Proposals  service.ProposalService
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Redis is optional: without it the media-path cache is skipped
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	transport := telegram.New(cfg.BotToken, cfg.BotAPIBaseURL, log)

	memberRepo := repository.NewPgMemberRepository(db)
	voteStateRepo := repository.NewPgVoteStateRepository(db)

	membership := service.NewMembershipService(memberRepo, log)
	eligibility := service.NewEligibilityChecker(memberRepo, voteStateRepo)
	messages := service.NewMessageService(transport, cfg.GroupID, cfg.ChannelID, log)
	photos := service.NewPhotoService(transport, redisClient, cfg.GroupID, log)
	proposals := service.NewProposalService(membership, eligibility, voteStateRepo, transport, photos, service.ProposalConfig{
		GroupID:   cfg.GroupID,
		TTL:       cfg.ProposalTTL,
		PollEvery: cfg.ProposalPollEvery,
	}, log)

	return &Container{
		Config:      cfg,
		Logger:      log,
		DB:          db,
		RedisClient: redisClient,
		Membership:  membership,
		Messages:    messages,
		Photos:      photos,
		Proposals:   proposals,
	}, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// HasRedis returns true if the Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}
