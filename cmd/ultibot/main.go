package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TheRandomCody/Ulti-Bot/internal/backend"
	"github.com/TheRandomCody/Ulti-Bot/internal/discord"
	"github.com/TheRandomCody/Ulti-Bot/internal/guildsync"
	"github.com/TheRandomCody/Ulti-Bot/internal/infra"
	"github.com/TheRandomCody/Ulti-Bot/internal/infra/auth"
	"github.com/TheRandomCody/Ulti-Bot/internal/leveling"
	"github.com/TheRandomCody/Ulti-Bot/internal/metrics"
	"github.com/TheRandomCody/Ulti-Bot/internal/moderation"
	"github.com/TheRandomCody/Ulti-Bot/internal/notify"
	"github.com/TheRandomCody/Ulti-Bot/internal/ops"
	"github.com/TheRandomCody/Ulti-Bot/internal/policy"

	"github.com/bwmarrin/discordgo"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Конфиг и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// Контекст жизни фоновых горутин: отменяется по SIGINT/SIGTERM
	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	// 3. Внешние системы: Discord и API панели
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		logger.Fatal("failed to create discord session", zap.Error(err))
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildMessageReactions |
		discordgo.IntentMessageContent
	platform := discord.NewAdapter(session, logger)

	api := backend.NewClient(cfg.Backend, m, logger)

	// 4. Модерация: политика -> исполнитель -> контроллер заявок
	dms := notify.NewDispatcher(platform, cfg.Notify, m, logger)
	dms.Start()

	executor := moderation.NewExecutor(platform, m, logger)
	workflow := moderation.NewController(
		policy.NewRemoteResolver(api, m, logger),
		executor,
		platform,
		dms,
		m,
		logger,
	)

	// 5. Уровни: кэш настроек + кулдауны (с включённым Redis общие для всех инстансов)
	clock := clockwork.NewRealClock()
	settings := leveling.NewSettingsProvider(api, cfg.Leveling, clock, m, logger)
	go settings.Run(appCtx, cfg.Leveling.SweepInterval)

	var (
		rdb       *redis.Client
		cooldowns leveling.CooldownStore
	)
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(appCtx, 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Fatal("redis unreachable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancel()

		cooldowns = leveling.NewRedisCooldowns(rdb)
		go leveling.NewInvalidator(rdb, settings, logger).Run(appCtx)
	} else {
		memory := leveling.NewMemoryCooldowns(clock)
		go memory.Run(appCtx, cfg.Leveling.SweepInterval)
		cooldowns = memory
	}
	xp := leveling.NewHandler(settings, cooldowns, api, platform, m, logger)

	// 6. Жизненный цикл серверов
	syncer := guildsync.NewSyncer(api, cfg.Backend, logger)
	joins := guildsync.NewJoinGate(api, executor, platform, logger)

	// 7. Служебный HTTP
	var validator auth.TokenValidator
	if len(cfg.Ops.PublicKey) > 0 {
		pubKey, err := auth.ParseRSAPublicKey(cfg.Ops.PublicKey)
		if err != nil {
			logger.Fatal("invalid ops public key", zap.Error(err))
		}
		validator = auth.NewValidator(pubKey, cfg.Ops.Issuer)
	}
	srv := &http.Server{
		Addr:              cfg.Ops.Addr,
		Handler:           ops.NewServer(reg, validator, leveling.NewSettingsBroadcaster(rdb, settings), syncer, logger),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	go func() {
		logger.Info("ops server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("ops server failed", zap.Error(err))
		}
	}()

	// 8. Шлюз Discord
	router := discord.NewRouter(session, platform, discord.RouterDeps{
		Workflow: workflow,
		Leveling: xp,
		Syncer:   syncer,
		Joins:    joins,
		Profiles: api,
	}, cfg.Discord, logger)
	router.Register()

	if err := session.Open(); err != nil {
		logger.Fatal("failed to open gateway connection", zap.Error(err))
	}

	appID := cfg.Discord.ApplicationID
	if appID == "" && session.State.User != nil {
		appID = session.State.User.ID
	}
	regCtx, cancel := context.WithTimeout(appCtx, 30*time.Second)
	if err := router.RegisterCommands(regCtx, appID, cfg.Discord.DevGuildID); err != nil {
		logger.Error("failed to register slash commands", zap.Error(err))
	}
	cancel()

	logger.Info("ulti-bot is running")

	// 9. Graceful Shutdown
	<-appCtx.Done()
	logger.Info("ulti-bot stopping...")

	if err := session.Close(); err != nil {
		logger.Warn("gateway close failed", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown failed", zap.Error(err))
	}

	// Дослать личные сообщения, уже стоящие в очереди
	dms.Stop()
	logger.Info("ulti-bot exited properly")
}
