package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"
	"github.com/TheRandomCody/Ulti-Bot/internal/infra"
	"github.com/TheRandomCody/Ulti-Bot/internal/metrics"
	"github.com/TheRandomCody/Ulti-Bot/internal/policy"

	"go.uber.org/zap"
)

// CommandInput: вызов /kick или /ban.
type CommandInput struct {
	GuildID   string
	Actor     domain.Actor
	ActorTag  string
	Kind      domain.ActionKind
	TargetID  string
	TargetTag string
	Reason    string
}

// ResolutionInput: клик по кнопке или реакция на уведомлении.
type ResolutionInput struct {
	GuildID     string
	GuildName   string
	Approver    domain.Actor
	ApproverTag string
	Token       string
	ChannelID   string
	MessageID   string
	Notice      NoticeView // текущее содержимое уведомления на платформе
}

// Result: итог обработки события. Транспорт отправляет Reply инициатору события.
type Result struct {
	State    domain.WorkflowState
	Reply    string
	Private  bool
	NoticeID string
	Err      error
}

// Controller ведёт конечный автомат заявок: requested -> executed | rejected | awaiting_approval,
// awaiting_approval -> approved | denied | failed. Tier вычисляется заново на каждое событие.
// Состояния между событиями в памяти нет: оно целиком в уведомлении.
type Controller struct {
	policy   policy.Enforcer
	executor ActionExecutor
	board    NoticeBoard
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewController(pdp policy.Enforcer, exec ActionExecutor, board NoticeBoard, notifier Notifier, m *metrics.Metrics, logger *zap.Logger) *Controller {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &Controller{
		policy:   pdp,
		executor: exec,
		board:    board,
		notifier: notifier,
		metrics:  m,
		logger:   logger.Named("workflow"),
	}
}

// HandleCommand: политика -> исполнение, отказ или публикация заявки.
func (c *Controller) HandleCommand(ctx context.Context, in CommandInput) Result {
	req := domain.NewActionRequest(in.Kind, in.GuildID, in.Actor.ID, in.TargetID, in.Reason)
	log := c.logger.With(
		infra.TraceField(ctx),
		zap.String("guild_id", in.GuildID),
		zap.String("actor_id", in.Actor.ID),
		zap.String("target_id", in.TargetID),
		zap.String("action", string(in.Kind)),
	)

	decision, err := c.policy.Resolve(ctx, in.GuildID, in.Actor, in.Kind)
	tier := decision.Effective()
	if err != nil {
		tier = domain.TierUndetermined
	}
	log.Debug("command tier resolved", zap.String("tier", string(tier)))

	var res Result
	switch tier {
	case domain.TierFull:
		res = c.execute(ctx, req)
	case domain.TierConditional:
		res = c.requestApproval(ctx, req, in, decision.Config)
	case domain.TierDenied:
		res = Result{State: domain.StateRejected, Reply: MsgNoPermission, Private: true}
	default:
		res = Result{State: domain.StateRejected, Reply: MsgPolicyUnavailable, Private: true, Err: err}
	}

	c.record(in.Kind, res.State)
	if res.Err != nil {
		log.Warn("command finished with error", zap.String("state", string(res.State)), zap.Error(res.Err))
	} else {
		log.Info("command finished", zap.String("state", string(res.State)))
	}
	return res
}

func (c *Controller) execute(ctx context.Context, req domain.ActionRequest) Result {
	out, err := c.executor.Execute(ctx, req)
	if err != nil {
		return Result{State: domain.StateFailed, Reply: FailureMessage(req.Kind, err), Private: true, Err: err}
	}
	return Result{State: domain.StateExecuted, Reply: SuccessMessage(req.Kind, out)}
}

func (c *Controller) requestApproval(ctx context.Context, req domain.ActionRequest, in CommandInput, cfg domain.ApprovalConfig) Result {
	if cfg.NotificationChannelID == "" {
		return Result{State: domain.StateRejected, Reply: MsgConfigMissing, Private: true, Err: domain.ErrConfigurationMissing}
	}

	view, err := PendingNotice(req, in.ActorTag, in.TargetTag, cfg.Style)
	if err != nil {
		// ID не в формате snowflake: публиковать нечего
		return Result{State: domain.StateRejected, Reply: MsgNoticeFailed, Private: true, Err: err}
	}

	id, err := c.board.PostNotice(ctx, req.GuildID, cfg.NotificationChannelID, view)
	if err != nil {
		if errors.Is(err, domain.ErrConfigurationMissing) {
			return Result{State: domain.StateRejected, Reply: MsgConfigMissing, Private: true, Err: err}
		}
		return Result{State: domain.StateRejected, Reply: MsgNoticeFailed, Private: true, Err: err}
	}
	return Result{State: domain.StateAwaitingApproval, Reply: MsgRequestSent, Private: true, NoticeID: id}
}

// HandleResolution завершает заявку. Право решать проверяется заново: одобрить или отклонить
// может только тот, у кого tier full на это действие прямо сейчас.
func (c *Controller) HandleResolution(ctx context.Context, in ResolutionInput) Result {
	log := c.logger.With(
		infra.TraceField(ctx),
		zap.String("guild_id", in.GuildID),
		zap.String("approver_id", in.Approver.ID),
		zap.String("message_id", in.MessageID),
	)

	tok, err := DecodeToken(in.Token)
	if err != nil {
		// Чужие и устаревшие custom id не наши: молча пропускаем
		log.Debug("ignoring unrecognized token", zap.String("token", in.Token), zap.Error(err))
		return Result{State: domain.StateIgnored, Err: err}
	}
	log = log.With(
		zap.String("action", string(tok.Kind)),
		zap.String("requester_id", tok.RequesterID),
		zap.String("target_id", tok.TargetID),
	)

	res := c.resolve(ctx, in, tok, log)
	c.record(tok.Kind, res.State)
	if res.Err != nil {
		log.Warn("resolution finished with error", zap.String("state", string(res.State)), zap.Error(res.Err))
	} else {
		log.Info("resolution finished", zap.String("state", string(res.State)))
	}
	return res
}

func (c *Controller) resolve(ctx context.Context, in ResolutionInput, tok Token, log *zap.Logger) Result {
	rec, err := ParseNotice(in.Notice)
	if err != nil {
		return Result{State: domain.StateIgnored, Err: err}
	}

	next := domain.NoticeApproved
	if tok.Verb == VerbDeny {
		next = domain.NoticeDenied
	}
	if err := rec.Status.CanTransitionTo(next); err != nil {
		return Result{State: domain.StateIgnored, Reply: MsgAlreadyResolved, Private: true, Err: err}
	}

	decision, err := c.policy.Resolve(ctx, in.GuildID, in.Approver, tok.Kind)
	if err != nil || decision.Effective() == domain.TierUndetermined {
		return Result{State: domain.StateRejected, Reply: MsgPolicyUnavailable, Private: true, Err: err}
	}
	if decision.Effective() != domain.TierFull {
		return Result{State: domain.StateRejected, Reply: MsgApproverRejected, Private: true}
	}

	if tok.Verb == VerbDeny {
		return c.deny(ctx, in, tok, rec, log)
	}
	return c.approve(ctx, in, tok, rec, log)
}

func (c *Controller) deny(ctx context.Context, in ResolutionInput, tok Token, rec NoticeRecord, log *zap.Logger) Result {
	editErr := c.editNotice(ctx, in, ResolvedNotice(in.Notice, tok.Kind, domain.NoticeDenied, in.ApproverTag, ""), log)
	c.notifier.Notify(ctx, tok.RequesterID, requesterDeniedDM(tok.Kind, targetLabel(rec, tok), in.GuildName, in.ApproverTag))
	return Result{State: domain.StateDenied, Reply: MsgDeniedAck, Private: true, Err: editErr}
}

func (c *Controller) approve(ctx context.Context, in ResolutionInput, tok Token, rec NoticeRecord, log *zap.Logger) Result {
	req := domain.NewActionRequest(tok.Kind, in.GuildID, tok.RequesterID, tok.TargetID, ApprovedReason(in.ApproverTag, rec.Reason))

	out, err := c.executor.Execute(ctx, req)
	if err != nil {
		failure := FailureMessage(tok.Kind, err)
		_ = c.editNotice(ctx, in, ResolvedNotice(in.Notice, tok.Kind, domain.NoticeFailed, in.ApproverTag, failure), log)
		c.notifier.Notify(ctx, tok.RequesterID, requesterFailedDM(tok.Kind, targetLabel(rec, tok), in.GuildName, in.ApproverTag, failure))
		return Result{State: domain.StateFailed, Reply: failure, Private: true, Err: err}
	}

	if rec.TargetTag == "" {
		rec.TargetTag = out.TargetTag
	}
	editErr := c.editNotice(ctx, in, ResolvedNotice(in.Notice, tok.Kind, domain.NoticeApproved, in.ApproverTag, ""), log)
	c.notifier.Notify(ctx, tok.RequesterID, requesterApprovedDM(tok.Kind, targetLabel(rec, tok), in.GuildName, in.ApproverTag))
	return Result{State: domain.StateApproved, Reply: SuccessMessage(tok.Kind, out), Private: true, Err: editErr}
}

// Ошибка редактирования не откатывает уже выполненное действие. Она возвращается в Result.Err,
// потому что уведомление осталось кликабельным.
func (c *Controller) editNotice(ctx context.Context, in ResolutionInput, view NoticeView, log *zap.Logger) error {
	if err := c.board.EditNotice(ctx, in.ChannelID, in.MessageID, view); err != nil {
		log.Error("failed to update approval notice", zap.Error(err))
		return fmt.Errorf("update approval notice: %w", err)
	}
	return nil
}

func (c *Controller) record(kind domain.ActionKind, state domain.WorkflowState) {
	c.metrics.WorkflowTransitions.WithLabelValues(string(kind), string(state)).Inc()
}

func targetLabel(rec NoticeRecord, tok Token) string {
	if rec.TargetTag != "" {
		return rec.TargetTag
	}
	return "<@" + tok.TargetID + ">"
}
