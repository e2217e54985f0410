package guildsync

import (
	"context"
	"fmt"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"
	"github.com/TheRandomCody/Ulti-Bot/internal/infra"
	"github.com/TheRandomCody/Ulti-Bot/internal/moderation"

	"go.uber.org/zap"
)

// JoinDirector решает, что делать с новым участником (backend.Client).
type JoinDirector interface {
	MemberJoin(ctx context.Context, guildID, userID string) (*domain.JoinDirective, error)
}

// RoleGranter выдаёт роли (адаптер Discord).
type RoleGranter interface {
	AddRole(ctx context.Context, guildID, userID, roleID string) error
}

// JoinGate применяет решение панели к новому участнику. Kick/ban идут через тот же
// исполнитель, что и команды модерации, с теми же проверками иерархии.
// Tier здесь не запрашивается: директива панели сама является решением о допуске.
type JoinGate struct {
	api      JoinDirector
	executor moderation.ActionExecutor
	roles    RoleGranter
	logger   *zap.Logger
}

func NewJoinGate(api JoinDirector, exec moderation.ActionExecutor, roles RoleGranter, logger *zap.Logger) *JoinGate {
	return &JoinGate{
		api:      api,
		executor: exec,
		roles:    roles,
		logger:   logger.Named("join"),
	}
}

// HandleJoin возвращает применённое действие. Ошибка бэкенда означает "ничего не делать".
func (g *JoinGate) HandleJoin(ctx context.Context, guildID, userID string) (domain.JoinAction, error) {
	log := g.logger.With(infra.TraceField(ctx), zap.String("guild_id", guildID), zap.String("user_id", userID))

	directive, err := g.api.MemberJoin(ctx, guildID, userID)
	if err != nil {
		log.Error("member join check failed", zap.Error(err))
		return domain.JoinNone, fmt.Errorf("member join check: %w", err)
	}

	switch directive.Action {
	case domain.JoinKick, domain.JoinBan:
		kind := domain.ActionKick
		if directive.Action == domain.JoinBan {
			kind = domain.ActionBan
		}
		req := domain.NewActionRequest(kind, guildID, "", userID, directive.Reason)
		if _, err := g.executor.Execute(ctx, req); err != nil {
			return domain.JoinNone, fmt.Errorf("join %s: %w", kind, err)
		}
		return directive.Action, nil

	case domain.JoinGiveRole:
		granted := 0
		for _, roleID := range directive.RolesToAdd {
			if err := g.roles.AddRole(ctx, guildID, userID, roleID); err != nil {
				log.Warn("could not give join role", zap.String("role_id", roleID), zap.Error(err))
				continue
			}
			granted++
		}
		log.Info("join roles given", zap.Int("granted", granted), zap.Int("requested", len(directive.RolesToAdd)))
		return domain.JoinGiveRole, nil

	case domain.JoinNone, "":
		return domain.JoinNone, nil

	default:
		log.Warn("unknown join action", zap.String("action", string(directive.Action)))
		return domain.JoinNone, nil
	}
}
