package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"
	"github.com/TheRandomCody/Ulti-Bot/internal/infra"
	"github.com/TheRandomCody/Ulti-Bot/internal/infra/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SettingsInvalidator сбрасывает кэш настроек уровней сервера.
type SettingsInvalidator interface {
	InvalidateGuild(ctx context.Context, guildID string) error
}

// GuildSyncer: ручная пересинхронизация сервера с панелью.
type GuildSyncer interface {
	Sync(ctx context.Context, guildID, ownerID string) error
}

// Server отдаёт служебный HTTP бота: health, метрики Prometheus и админ-ручки для панели.
type Server struct {
	router    *chi.Mux
	logger    *zap.Logger
	gatherer  prometheus.Gatherer
	validator auth.TokenValidator // nil: админ-ручки не публикуются
	settings  SettingsInvalidator
	syncer    GuildSyncer
	startedAt time.Time
}

func NewServer(gatherer prometheus.Gatherer, validator auth.TokenValidator, settings SettingsInvalidator, syncer GuildSyncer, logger *zap.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.Named("ops-api"),
		gatherer:  gatherer,
		validator: validator,
		settings:  settings,
		syncer:    syncer,
		startedAt: time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// --- Публичные ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"uptime": time.Since(s.startedAt).Round(time.Second).String(),
		})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	if s.validator == nil {
		s.logger.Warn("ops public key is not configured, admin routes are disabled")
		return
	}

	// --- Только для панели (RS256) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.validator, s.logger))

		r.Route("/v1/guilds/{id}", func(r chi.Router) {
			r.With(auth.RequireScope(domain.ScopeSettingsWrite)).Post("/settings/invalidate", s.invalidateSettings)
			r.With(auth.RequireScope(domain.ScopeGuildsSync)).Post("/sync", s.syncGuild)
		})
	})
}

func (s *Server) invalidateSettings(w http.ResponseWriter, r *http.Request) {
	guildID, ok := guildParam(w, r)
	if !ok {
		return
	}

	if err := s.settings.InvalidateGuild(r.Context(), guildID); err != nil {
		s.logger.Error("failed to invalidate settings", zap.String("guild_id", guildID), zap.Error(err))
		http.Error(w, "failed to invalidate settings", http.StatusInternalServerError)
		return
	}
	s.logger.Info("settings invalidated by panel", zap.String("guild_id", guildID), zap.String("by", adminID(r)))
	w.WriteHeader(http.StatusNoContent)
}

type syncRequest struct {
	OwnerID string `json:"ownerId"`
}

func (s *Server) syncGuild(w http.ResponseWriter, r *http.Request) {
	guildID, ok := guildParam(w, r)
	if !ok {
		return
	}

	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OwnerID == "" {
		http.Error(w, "ownerId is required", http.StatusBadRequest)
		return
	}

	ctx := infra.WithTraceID(r.Context(), middleware.GetReqID(r.Context()))
	if err := s.syncer.Sync(ctx, guildID, req.OwnerID); err != nil {
		http.Error(w, "sync failed", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func guildParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "guild id is required", http.StatusBadRequest)
		return "", false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			http.Error(w, "guild id must be numeric", http.StatusBadRequest)
			return "", false
		}
	}
	return id, true
}

func adminID(r *http.Request) string {
	if claims, ok := auth.ClaimsFrom(r.Context()); ok {
		return claims.UserID
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
