package leveling

import (
	"context"
	"time"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"
	"github.com/TheRandomCody/Ulti-Bot/internal/infra"
	"github.com/TheRandomCody/Ulti-Bot/internal/metrics"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SettingsSource: откуда берутся настройки (backend.Client).
type SettingsSource interface {
	LevelingSettings(ctx context.Context, guildID string) (*domain.LevelingSettings, error)
}

// SettingsProvider: read-through кэш настроек с ограниченной устаревшостью (TTL)
// и явной инвалидацией из панели.
type SettingsProvider struct {
	source  SettingsSource
	cache   *ExpiringCache[string, *domain.LevelingSettings]
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewSettingsProvider(source SettingsSource, cfg infra.LevelingConfig, clock clockwork.Clock, m *metrics.Metrics, logger *zap.Logger) *SettingsProvider {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	ttl := cfg.SettingsTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SettingsProvider{
		source:  source,
		cache:   NewExpiringCache[string, *domain.LevelingSettings](ttl, clock),
		metrics: m,
		logger:  logger.Named("leveling.settings"),
	}
}

// Get возвращает настройки сервера или nil, если их нет или бэкенд недоступен.
// Неудачный запрос не кэшируется: следующее сообщение попробует снова.
func (p *SettingsProvider) Get(ctx context.Context, guildID string) *domain.LevelingSettings {
	if s, ok := p.cache.Get(guildID); ok {
		p.metrics.CacheLookups.WithLabelValues("leveling_settings", "hit").Inc()
		return s
	}
	p.metrics.CacheLookups.WithLabelValues("leveling_settings", "miss").Inc()

	// Всплеск сообщений на холодном сервере: один запрос в бэкенд
	v, err, _ := p.group.Do(guildID, func() (any, error) {
		s, err := p.source.LevelingSettings(ctx, guildID)
		if err != nil {
			return nil, err
		}
		p.cache.Set(guildID, s)
		return s, nil
	})
	if err != nil {
		p.logger.Warn("could not fetch leveling settings",
			infra.TraceField(ctx),
			zap.String("guild_id", guildID),
			zap.Error(err))
		return nil
	}
	return v.(*domain.LevelingSettings)
}

// Invalidate выбрасывает настройки сервера из кэша.
func (p *SettingsProvider) Invalidate(guildID string) {
	p.cache.Delete(guildID)
	p.logger.Debug("leveling settings invalidated", zap.String("guild_id", guildID))
}

// InvalidateAll: после переподключения к Redis мы могли пропустить сигналы.
func (p *SettingsProvider) InvalidateAll() {
	p.cache.Purge()
}

// Run: фоновая чистка просроченных записей.
func (p *SettingsProvider) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	p.cache.Run(ctx, interval)
}
