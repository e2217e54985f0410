package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config: корневая структура конфигурации бота.
type Config struct {
	Discord  DiscordConfig  `mapstructure:"discord"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Leveling LevelingConfig `mapstructure:"leveling"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Ops      OpsConfig      `mapstructure:"ops"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// DiscordConfig описывает подключение к шлюзу Discord.
type DiscordConfig struct {
	Token         string `mapstructure:"token"`
	ApplicationID string `mapstructure:"application_id"`
	// Если задан: команды регистрируются только на этом сервере (быстро, для разработки)
	DevGuildID   string        `mapstructure:"dev_guild_id"`
	EventTimeout time.Duration `mapstructure:"event_timeout"`
}

// BackendConfig описывает API панели управления (права, настройки, XP).
type BackendConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	ClientSecret string        `mapstructure:"client_secret"`
	Timeout      time.Duration `mapstructure:"timeout"`

	// Настройки Circuit Breaker для API
	CBMaxRequests uint32        `mapstructure:"cb_max_requests"`
	CBInterval    time.Duration `mapstructure:"cb_interval"`
	CBTimeout     time.Duration `mapstructure:"cb_timeout"`
	CBMaxFailures uint32        `mapstructure:"cb_max_failures"`

	// Исходящий лимит запросов к API
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`

	// Повторы только для идемпотентной синхронизации серверов
	SyncAttempts uint `mapstructure:"sync_attempts"`
}

// RedisConfig описывает подключение к Redis (кулдауны и Pub/Sub инвалидации).
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LevelingConfig настраивает кэш настроек модуля уровней.
type LevelingConfig struct {
	SettingsTTL   time.Duration `mapstructure:"settings_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type NotifyConfig struct {
	BufferSize  int           `mapstructure:"buffer_size"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

// OpsConfig: служебный HTTP (health, metrics, admin).
type OpsConfig struct {
	Addr          string `mapstructure:"addr"`
	PublicKeyPath string `mapstructure:"public_key_path"`
	Issuer        string `mapstructure:"issuer"` // ожидаемый iss в токенах панели; пусто: не проверяем
	PublicKey     []byte
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// 2. ENV перекрывает файл: DISCORD_TOKEN=... перекроет discord.token
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Файла нет: работаем на ENV и дефолтах
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// Публичный ключ админки: PEM прямо в ENV (Docker/K8s) или файл по пути
	cfg.Ops.PublicKey = loadKeyResource(cfg.Ops.PublicKeyPath, "OPS_PUBLIC_KEY_DATA")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// AutomaticEnv видит только ключи, о которых viper знает, поэтому секреты объявляем явно
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.application_id", "")
	v.SetDefault("discord.dev_guild_id", "")
	v.SetDefault("discord.event_timeout", 15*time.Second)

	v.SetDefault("backend.base_url", "https://api.ulti-bot.com")
	v.SetDefault("backend.client_secret", "")
	v.SetDefault("backend.timeout", 5*time.Second)
	v.SetDefault("backend.cb_max_requests", 3)
	v.SetDefault("backend.cb_interval", 5*time.Second)
	v.SetDefault("backend.cb_timeout", 30*time.Second)
	v.SetDefault("backend.cb_max_failures", 5)
	v.SetDefault("backend.rate_limit", 50)
	v.SetDefault("backend.rate_burst", 10)
	v.SetDefault("backend.sync_attempts", 3)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("leveling.settings_ttl", 5*time.Minute)
	v.SetDefault("leveling.sweep_interval", 1*time.Minute)

	v.SetDefault("notify.buffer_size", 1000)
	v.SetDefault("notify.send_timeout", 10*time.Second)

	v.SetDefault("ops.addr", ":9090")
	v.SetDefault("ops.public_key_path", "")
	v.SetDefault("ops.issuer", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

// Validate проверяет обязательные параметры.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return errors.New("config: discord.token is required")
	}
	if c.Backend.BaseURL == "" {
		return errors.New("config: backend.base_url is required")
	}
	if c.Backend.ClientSecret == "" {
		return errors.New("config: backend.client_secret is required")
	}
	return nil
}

// loadKeyResource: PEM из ENV имеет приоритет над файлом.
func loadKeyResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
