package leveling

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"
	"github.com/TheRandomCody/Ulti-Bot/internal/infra"
	"github.com/TheRandomCody/Ulti-Bot/internal/metrics"

	"go.uber.org/zap"
)

// Result: чем закончилась обработка сообщения (метка метрики).
type Result string

const (
	ResultSkipped     Result = "skipped"
	ResultDisabled    Result = "disabled"
	ResultIgnoredRole Result = "ignored_role"
	ResultCooldown    Result = "cooldown"
	ResultAwarded     Result = "awarded"
	ResultLevelUp     Result = "level_up"
	ResultFailed      Result = "failed"
)

// XPAwarder начисляет опыт (backend.Client).
type XPAwarder interface {
	AddXP(ctx context.Context, guildID, userID string, amount int) (*domain.XPResult, error)
}

// SettingsGetter: SettingsProvider или его замена в тестах.
type SettingsGetter interface {
	Get(ctx context.Context, guildID string) *domain.LevelingSettings
}

// Platform: действия на стороне Discord при повышении уровня.
type Platform interface {
	SendMessage(ctx context.Context, channelID, content string) error
	AddRole(ctx context.Context, guildID, userID, roleID string) error
}

// MessageEvent: сообщение участника в канале сервера.
type MessageEvent struct {
	GuildID   string
	ChannelID string
	UserID    string
	RoleIDs   []string
	IsBot     bool
}

type Handler struct {
	settings  SettingsGetter
	cooldowns CooldownStore
	api       XPAwarder
	platform  Platform
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewHandler(settings SettingsGetter, cooldowns CooldownStore, api XPAwarder, platform Platform, m *metrics.Metrics, logger *zap.Logger) *Handler {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &Handler{
		settings:  settings,
		cooldowns: cooldowns,
		api:       api,
		platform:  platform,
		metrics:   m,
		logger:    logger.Named("leveling"),
	}
}

// HandleMessage начисляет опыт за сообщение. Ошибки не всплывают: уровни не должны мешать чату.
func (h *Handler) HandleMessage(ctx context.Context, ev MessageEvent) Result {
	res := h.handle(ctx, ev)
	if res != ResultSkipped {
		h.metrics.XPAwards.WithLabelValues(string(res)).Inc()
	}
	return res
}

func (h *Handler) handle(ctx context.Context, ev MessageEvent) Result {
	if ev.IsBot || ev.GuildID == "" {
		return ResultSkipped
	}

	settings := h.settings.Get(ctx, ev.GuildID)
	if settings == nil || !settings.Enabled {
		return ResultDisabled
	}

	for _, ignored := range settings.IgnoredRoles {
		if hasRole(ev.RoleIDs, ignored) {
			return ResultIgnoredRole
		}
	}

	log := h.logger.With(infra.TraceField(ctx), zap.String("guild_id", ev.GuildID), zap.String("user_id", ev.UserID))

	key := infra.CooldownKey(ev.GuildID, ev.UserID)
	ttl := time.Duration(settings.XPCooldownSeconds) * time.Second
	ok, err := h.cooldowns.Acquire(ctx, key, ttl)
	if err != nil {
		// Хранилище кулдаунов недоступно: лучше пропустить начисление, чем начислять без ограничений
		log.Warn("cooldown store unavailable", zap.Error(err))
		return ResultFailed
	}
	if !ok {
		return ResultCooldown
	}

	result, err := h.api.AddXP(ctx, ev.GuildID, ev.UserID, settings.XPPerMessage)
	if err != nil {
		// Кулдаун действует только после успешного начисления
		if relErr := h.cooldowns.Release(ctx, key); relErr != nil {
			log.Warn("failed to release cooldown", zap.Error(relErr))
		}
		log.Error("failed to add xp", zap.Error(err))
		return ResultFailed
	}

	if !result.LeveledUp {
		return ResultAwarded
	}
	log.Info("member leveled up", zap.Int("old_level", result.OldLevel), zap.Int("new_level", result.NewLevel))
	h.levelUp(ctx, ev, settings, result.NewLevel, log)
	return ResultLevelUp
}

func (h *Handler) levelUp(ctx context.Context, ev MessageEvent, settings *domain.LevelingSettings, level int, log *zap.Logger) {
	if settings.LevelUpMessage != nil && settings.LevelUpMessage.Content != "" {
		channelID := settings.LevelUpChannel
		if channelID == domain.LevelUpChannelCurrent {
			channelID = ev.ChannelID
		}
		if channelID != "" {
			content := RenderLevelUp(settings.LevelUpMessage.Content, ev.UserID, level)
			if err := h.platform.SendMessage(ctx, channelID, content); err != nil {
				log.Warn("failed to send level up message", zap.String("channel_id", channelID), zap.Error(err))
			}
		}
	}

	for _, reward := range settings.RoleRewards {
		if level < reward.Level || reward.RoleID == "" || hasRole(ev.RoleIDs, reward.RoleID) {
			continue
		}
		if err := h.platform.AddRole(ctx, ev.GuildID, ev.UserID, reward.RoleID); err != nil {
			log.Warn("could not assign role reward", zap.String("role_id", reward.RoleID), zap.Error(err))
			continue
		}
		log.Info("role reward assigned", zap.String("role_id", reward.RoleID), zap.Int("reward_level", reward.Level))
	}
}

// RenderLevelUp подставляет {user} и {level} в шаблон.
func RenderLevelUp(template, userID string, level int) string {
	return strings.NewReplacer(
		"{user}", "<@"+userID+">",
		"{level}", strconv.Itoa(level),
	).Replace(template)
}

func hasRole(roles []string, id string) bool {
	for _, r := range roles {
		if r == id {
			return true
		}
	}
	return false
}
