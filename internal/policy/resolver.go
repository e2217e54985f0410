package policy

import (
	"context"
	"fmt"

	"github.com/TheRandomCody/Ulti-Bot/internal/backend"
	"github.com/TheRandomCody/Ulti-Bot/internal/domain"
	"github.com/TheRandomCody/Ulti-Bot/internal/infra"
	"github.com/TheRandomCody/Ulti-Bot/internal/metrics"

	"go.uber.org/zap"
)

// Enforcer: единая точка вычисления tier. Один экземпляр внедряется и в обработку команд,
// и в обработку кликов по заявкам.
type Enforcer interface {
	Resolve(ctx context.Context, guildID string, actor domain.Actor, kind domain.ActionKind) (domain.Decision, error)
}

// PermissionChecker: то, что резолверу нужно от API.
type PermissionChecker interface {
	CheckPermissions(ctx context.Context, guildID string, req backend.PermissionCheckRequest) (*backend.PermissionCheckResponse, error)
}

// RemoteResolver ходит в удалённый сервис прав на каждый вызов.
// Никакого кэша, результат есть чистая функция входов на момент вызова.
type RemoteResolver struct {
	checker PermissionChecker
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewRemoteResolver(checker PermissionChecker, m *metrics.Metrics, logger *zap.Logger) *RemoteResolver {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &RemoteResolver{
		checker: checker,
		metrics: m,
		logger:  logger.Named("policy"),
	}
}

// Resolve возвращает tier и конфиг заявки. Любой сбой бэкенда: undetermined + ErrPolicyUnavailable,
// никогда не full и не denied.
func (r *RemoteResolver) Resolve(ctx context.Context, guildID string, actor domain.Actor, kind domain.ActionKind) (domain.Decision, error) {
	decision, err := r.resolve(ctx, guildID, actor, kind)
	r.metrics.PolicyChecks.WithLabelValues(string(kind), string(decision.Tier)).Inc()
	if err != nil {
		r.logger.Warn("permission check failed",
			infra.TraceField(ctx),
			zap.String("guild_id", guildID),
			zap.String("actor_id", actor.ID),
			zap.String("action", string(kind)),
			zap.Error(err))
	}
	return decision, err
}

func (r *RemoteResolver) resolve(ctx context.Context, guildID string, actor domain.Actor, kind domain.ActionKind) (domain.Decision, error) {
	undetermined := domain.Decision{Tier: domain.TierUndetermined}

	roles := make([]string, len(actor.RoleIDs))
	copy(roles, actor.RoleIDs)

	resp, err := r.checker.CheckPermissions(ctx, guildID, backend.PermissionCheckRequest{
		ActorID:      actor.ID,
		ActorRoleIDs: roles,
		ActionKind:   string(kind),
	})
	if err != nil {
		return undetermined, fmt.Errorf("%w: %w", domain.ErrPolicyUnavailable, err)
	}

	tier, ok := domain.ParseTier(resp.Permission)
	if !ok {
		return undetermined, fmt.Errorf("%w: unexpected permission value %q", domain.ErrPolicyUnavailable, resp.Permission)
	}

	switch tier {
	case domain.TierUseDefault:
		// Бэкенд делегирует решение нативным правам Discord
		if actor.HasPermission(kind.Permission()) {
			return domain.Decision{Tier: domain.TierFull}, nil
		}
		return domain.Decision{Tier: domain.TierDenied}, nil
	case domain.TierConditional:
		return domain.Decision{
			Tier: domain.TierConditional,
			Config: domain.ApprovalConfig{
				NotificationChannelID: resp.NotificationChannelID,
				Style:                 domain.ParsePresentationStyle(resp.PresentationStyle),
			},
		}, nil
	default:
		return domain.Decision{Tier: tier}, nil
	}
}
