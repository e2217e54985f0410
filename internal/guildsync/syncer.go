package guildsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TheRandomCody/Ulti-Bot/internal/backend"
	"github.com/TheRandomCody/Ulti-Bot/internal/infra"

	"github.com/avast/retry-go/v5"
	"go.uber.org/zap"
)

// ServerRegistry: регистрация серверов в панели (backend.Client).
type ServerRegistry interface {
	SyncServer(ctx context.Context, serverID, ownerID string) error
	UnsyncServer(ctx context.Context, serverID string) error
}

// Syncer держит список серверов панели в актуальном состоянии.
// Обе операции идемпотентны, поэтому, в отличие от модерации, их можно повторять.
type Syncer struct {
	api       ServerRegistry
	attempts  uint
	baseDelay time.Duration
	logger    *zap.Logger
}

func NewSyncer(api ServerRegistry, cfg infra.BackendConfig, logger *zap.Logger) *Syncer {
	attempts := cfg.SyncAttempts
	if attempts == 0 {
		attempts = 3
	}
	return &Syncer{
		api:       api,
		attempts:  attempts,
		baseDelay: 500 * time.Millisecond,
		logger:    logger.Named("guildsync"),
	}
}

// Sync вызывается, когда бот видит сервер (GuildCreate).
func (s *Syncer) Sync(ctx context.Context, guildID, ownerID string) error {
	err := s.do(ctx, func() error {
		return s.api.SyncServer(ctx, guildID, ownerID)
	})
	if err != nil {
		s.logger.Error("failed to sync server", infra.TraceField(ctx), zap.String("guild_id", guildID), zap.Error(err))
		return fmt.Errorf("sync server %s: %w", guildID, err)
	}
	s.logger.Info("server synced", infra.TraceField(ctx), zap.String("guild_id", guildID))
	return nil
}

// Unsync вызывается, когда бота удалили с сервера.
func (s *Syncer) Unsync(ctx context.Context, guildID string) error {
	err := s.do(ctx, func() error {
		return s.api.UnsyncServer(ctx, guildID)
	})
	if err != nil {
		s.logger.Error("failed to unsync server", infra.TraceField(ctx), zap.String("guild_id", guildID), zap.Error(err))
		return fmt.Errorf("unsync server %s: %w", guildID, err)
	}
	s.logger.Info("server unsynced", infra.TraceField(ctx), zap.String("guild_id", guildID))
	return nil
}

func (s *Syncer) do(ctx context.Context, call func() error) error {
	return retry.New(
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.baseDelay),
		retry.LastErrorOnly(true),
		// 4xx повторять бессмысленно
		retry.RetryIf(backend.Retryable),
		retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
			// 429: ждём ровно столько, сколько попросил бэкенд
			var tErr *backend.ThrottleError
			if errors.As(err, &tErr) && tErr.RetryAfter > 0 {
				return tErr.RetryAfter
			}
			return retry.BackOffDelay(n, err, config)
		}),
	).Do(call)
}
