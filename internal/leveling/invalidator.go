package leveling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/TheRandomCody/Ulti-Bot/internal/infra"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InvalidateAllPayload: сигнал "сбросить настройки всех серверов".
const InvalidateAllPayload = "*"

// Invalidatable: кэш, который умеет забывать записи по сигналу.
type Invalidatable interface {
	Invalidate(guildID string)
	InvalidateAll()
}

// Invalidator слушает Redis Pub/Sub: панель публикует ID сервера после изменения настроек.
type Invalidator struct {
	rdb        *redis.Client
	channel    string
	target     Invalidatable
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewInvalidator(rdb *redis.Client, target Invalidatable, logger *zap.Logger) *Invalidator {
	return &Invalidator{
		rdb:        rdb,
		channel:    infra.RedisChanSettingsUpdate,
		target:     target,
		retryDelay: 5 * time.Second,
		logger:     logger.Named("leveling.invalidator"),
	}
}

// Run: "живучая" подписка: переподключается сама, пока жив ctx.
func (i *Invalidator) Run(ctx context.Context) {
	for {
		pubsub := i.rdb.Subscribe(ctx, i.channel)

		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			i.logger.Error("failed to subscribe", zap.String("chan", i.channel), zap.Error(err))
			if !sleepCtx(ctx, i.retryDelay) {
				return
			}
			continue
		}

		// Пока подписки не было, сигналы могли потеряться: начинаем с чистого кэша
		i.target.InvalidateAll()
		i.logger.Info("subscribed to settings updates", zap.String("chan", i.channel))

		ch := pubsub.Channel()
	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // канал закрыт, переподключаемся
				}
				i.handle(msg.Payload)
			}
		}

		pubsub.Close()
		if !sleepCtx(ctx, time.Second) {
			return
		}
	}
}

func (i *Invalidator) handle(payload string) {
	payload = strings.TrimSpace(payload)
	switch {
	case payload == InvalidateAllPayload:
		i.target.InvalidateAll()
	case payload == "" || strings.ContainsAny(payload, " :"):
		i.logger.Error("invalid signal format", zap.String("payload", payload))
	default:
		i.target.Invalidate(payload)
	}
}

// SettingsBroadcaster сбрасывает настройки сервера на всех инстансах через Redis,
// а без Redis только в своём процессе.
type SettingsBroadcaster struct {
	rdb   *redis.Client
	local Invalidatable
}

func NewSettingsBroadcaster(rdb *redis.Client, local Invalidatable) *SettingsBroadcaster {
	return &SettingsBroadcaster{rdb: rdb, local: local}
}

func (b *SettingsBroadcaster) InvalidateGuild(ctx context.Context, guildID string) error {
	if b.rdb == nil {
		b.local.Invalidate(guildID)
		return nil
	}
	// Свой инстанс тоже подписан и получит сигнал
	if err := b.rdb.Publish(ctx, infra.RedisChanSettingsUpdate, guildID).Err(); err != nil {
		return fmt.Errorf("publish settings update: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
