package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"
	"github.com/TheRandomCody/Ulti-Bot/internal/infra"
	"github.com/TheRandomCody/Ulti-Bot/internal/metrics"

	"go.uber.org/zap"
)

// Guilds: операции платформы, нужные исполнителю. Реализуется адаптером Discord.
// Member возвращает domain.ErrTargetNotFound, если пользователя нет на сервере.
type Guilds interface {
	Member(ctx context.Context, guildID, userID string) (*domain.Member, error)
	CanModerate(ctx context.Context, guildID string, target *domain.Member) (bool, error)
	Kick(ctx context.Context, guildID, userID, reason string) error
	Ban(ctx context.Context, guildID, userID, reason string) error
}

// Outcome: результат успешного действия.
type Outcome struct {
	TargetID  string
	TargetTag string
	Reason    string
}

// ActionExecutor: узкий интерфейс для контроллера (и моков в тестах).
type ActionExecutor interface {
	Execute(ctx context.Context, req domain.ActionRequest) (Outcome, error)
}

// Executor выполняет kick/ban. Права актора здесь не проверяются: вызывающий код
// обязан получить tier full (или одобрение) до вызова.
type Executor struct {
	guilds  Guilds
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewExecutor(guilds Guilds, m *metrics.Metrics, logger *zap.Logger) *Executor {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &Executor{
		guilds:  guilds,
		metrics: m,
		logger:  logger.Named("executor"),
	}
}

// Execute: резолв цели -> проверка иерархии -> действие. Ошибки классифицированы:
// ErrTargetNotFound, ErrTargetNotPermitted, ErrExecutionFailed.
func (e *Executor) Execute(ctx context.Context, req domain.ActionRequest) (Outcome, error) {
	outcome, err := e.execute(ctx, req)
	e.metrics.ExecutorOutcomes.WithLabelValues(string(req.Kind), outcomeLabel(err)).Inc()

	fields := []zap.Field{
		infra.TraceField(ctx),
		zap.String("guild_id", req.GuildID),
		zap.String("requester_id", req.RequesterID),
		zap.String("target_id", req.TargetID),
		zap.String("action", string(req.Kind)),
	}
	if err != nil {
		e.logger.Warn("moderation action not applied", append(fields, zap.Error(err))...)
		return Outcome{}, err
	}
	e.logger.Info("moderation action applied", append(fields, zap.String("reason", req.Reason))...)
	return outcome, nil
}

func (e *Executor) execute(ctx context.Context, req domain.ActionRequest) (Outcome, error) {
	if !req.Kind.Valid() {
		return Outcome{}, fmt.Errorf("%w: unknown action %q", domain.ErrExecutionFailed, req.Kind)
	}

	target, err := e.guilds.Member(ctx, req.GuildID, req.TargetID)
	if err != nil {
		if errors.Is(err, domain.ErrTargetNotFound) {
			return Outcome{}, err
		}
		return Outcome{}, fmt.Errorf("%w: lookup member: %w", domain.ErrExecutionFailed, err)
	}

	ok, err := e.guilds.CanModerate(ctx, req.GuildID, target)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: hierarchy check: %w", domain.ErrExecutionFailed, err)
	}
	if !ok {
		return Outcome{}, domain.ErrTargetNotPermitted
	}

	switch req.Kind {
	case domain.ActionKick:
		err = e.guilds.Kick(ctx, req.GuildID, target.ID, req.Reason)
	case domain.ActionBan:
		err = e.guilds.Ban(ctx, req.GuildID, target.ID, req.Reason)
	}
	if err != nil {
		// Платформа могла отказать уже после нашей проверки иерархии
		if errors.Is(err, domain.ErrTargetNotPermitted) || errors.Is(err, domain.ErrTargetNotFound) {
			return Outcome{}, err
		}
		return Outcome{}, fmt.Errorf("%w: %w", domain.ErrExecutionFailed, err)
	}

	return Outcome{TargetID: target.ID, TargetTag: target.Tag, Reason: req.Reason}, nil
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrTargetNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTargetNotPermitted):
		return "not_permitted"
	default:
		return "failed"
	}
}
