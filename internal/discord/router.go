package discord

import (
	"context"
	"time"

	"github.com/TheRandomCody/Ulti-Bot/internal/backend"
	"github.com/TheRandomCody/Ulti-Bot/internal/domain"
	"github.com/TheRandomCody/Ulti-Bot/internal/infra"
	"github.com/TheRandomCody/Ulti-Bot/internal/leveling"
	"github.com/TheRandomCody/Ulti-Bot/internal/moderation"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Workflow: контроллер заявок.
type Workflow interface {
	HandleCommand(ctx context.Context, in moderation.CommandInput) moderation.Result
	HandleResolution(ctx context.Context, in moderation.ResolutionInput) moderation.Result
}

type MessageHandler interface {
	HandleMessage(ctx context.Context, ev leveling.MessageEvent) leveling.Result
}

type GuildSyncer interface {
	Sync(ctx context.Context, guildID, ownerID string) error
	Unsync(ctx context.Context, guildID string) error
}

type JoinHandler interface {
	HandleJoin(ctx context.Context, guildID, userID string) (domain.JoinAction, error)
}

type ProfileSource interface {
	UserProfile(ctx context.Context, userID string) (*domain.Profile, error)
}

// Router раскладывает события шлюза по обработчикам. Каждое событие получает свой trace_id,
// таймаут и защиту от паники: discordgo вызывает обработчики в отдельных горутинах.
type Router struct {
	session   *discordgo.Session
	adapter   *Adapter
	workflow  Workflow
	leveling  MessageHandler
	syncer    GuildSyncer
	joins     JoinHandler
	profiles  ProfileSource
	timeout   time.Duration
	startedAt time.Time
	logger    *zap.Logger
}

type RouterDeps struct {
	Workflow Workflow
	Leveling MessageHandler
	Syncer   GuildSyncer
	Joins    JoinHandler
	Profiles ProfileSource
}

func NewRouter(session *discordgo.Session, adapter *Adapter, deps RouterDeps, cfg infra.DiscordConfig, logger *zap.Logger) *Router {
	timeout := cfg.EventTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Router{
		session:   session,
		adapter:   adapter,
		workflow:  deps.Workflow,
		leveling:  deps.Leveling,
		syncer:    deps.Syncer,
		joins:     deps.Joins,
		profiles:  deps.Profiles,
		timeout:   timeout,
		startedAt: time.Now(),
		logger:    logger.Named("router"),
	}
}

// Register подписывает обработчики на сессию. Вызывать до Open.
func (r *Router) Register() {
	r.session.AddHandler(r.onReady)
	r.session.AddHandler(r.onInteraction)
	r.session.AddHandler(r.onReactionAdd)
	r.session.AddHandler(r.onMessageCreate)
	r.session.AddHandler(r.onMemberAdd)
	r.session.AddHandler(r.onGuildCreate)
	r.session.AddHandler(r.onGuildDelete)
}

// RegisterCommands перезаписывает набор команд: на dev-сервере или глобально.
func (r *Router) RegisterCommands(ctx context.Context, appID, devGuildID string) error {
	cmds, err := r.session.ApplicationCommandBulkOverwrite(appID, devGuildID, Commands(), discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	r.logger.Info("slash commands registered", zap.Int("count", len(cmds)), zap.String("guild_id", devGuildID))
	return nil
}

func (r *Router) dispatch(event string, fn func(ctx context.Context, log *zap.Logger)) {
	ctx, cancel := context.WithTimeout(infra.WithTraceID(context.Background(), ""), r.timeout)
	defer cancel()
	log := r.logger.With(zap.String("event", event), infra.TraceField(ctx))

	defer func() {
		if p := recover(); p != nil {
			log.Error("event handler panic", zap.Any("panic", p), zap.Stack("stack"))
		}
	}()
	fn(ctx, log)
}

func (r *Router) onReady(s *discordgo.Session, e *discordgo.Ready) {
	r.logger.Info("connected to gateway", zap.String("user", e.User.String()), zap.Int("guilds", len(e.Guilds)))
}

func (r *Router) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	r.dispatch("interaction", func(ctx context.Context, log *zap.Logger) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			r.handleCommand(ctx, i, log)
		case discordgo.InteractionMessageComponent:
			r.handleClick(ctx, i, log)
		}
	})
}

func (r *Router) handleCommand(ctx context.Context, i *discordgo.InteractionCreate, log *zap.Logger) {
	name := i.ApplicationCommandData().Name
	log = log.With(zap.String("command", name), zap.String("guild_id", i.GuildID))

	// Ответить нужно за 3 секунды, а бэкенд может думать дольше
	if err := r.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}, discordgo.WithContext(ctx)); err != nil {
		log.Error("failed to defer reply", zap.Error(err))
		return
	}

	switch name {
	case string(domain.ActionKick), string(domain.ActionBan):
		in, err := commandInput(i, domain.ActionKind(name))
		if err != nil {
			r.editReply(ctx, i, moderation.MsgInvalidRequest, log)
			return
		}
		res := r.workflow.HandleCommand(ctx, in)
		r.reply(ctx, i, res, log)
	case "status":
		embed := statusEmbed(r.session.HeartbeatLatency(), time.Since(r.startedAt), r.startedAt)
		r.editEmbed(ctx, i, embed, log)
	case "profile":
		r.handleProfile(ctx, i, log)
	default:
		log.Warn("unknown command")
	}
}

func (r *Router) handleProfile(ctx context.Context, i *discordgo.InteractionCreate, log *zap.Logger) {
	target, err := targetUser(i.ApplicationCommandData())
	if err != nil {
		r.editReply(ctx, i, moderation.MsgInvalidRequest, log)
		return
	}
	p, err := r.profiles.UserProfile(ctx, target.ID)
	switch {
	case backend.IsNotFound(err):
		name := target.Username
		if name == "" {
			name = "<@" + target.ID + ">"
		}
		r.editReply(ctx, i, "I couldn't find a website profile for "+name+".", log)
	case err != nil:
		log.Error("profile fetch failed", zap.String("user_id", target.ID), zap.Error(err))
		r.editReply(ctx, i, "Something went wrong while fetching the profile. Please try again later.", log)
	default:
		r.editEmbed(ctx, i, profileEmbed(p), log)
	}
}

// reply: приватный ответ правит отложенный, публичный уходит отдельным сообщением,
// а "думающий" приватный ответ удаляется.
func (r *Router) reply(ctx context.Context, i *discordgo.InteractionCreate, res moderation.Result, log *zap.Logger) {
	if res.Reply == "" {
		return
	}
	if res.Private {
		r.editReply(ctx, i, res.Reply, log)
		return
	}
	if _, err := r.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: res.Reply}, discordgo.WithContext(ctx)); err != nil {
		log.Error("failed to send public reply", zap.Error(err))
		r.editReply(ctx, i, res.Reply, log)
		return
	}
	if err := r.session.InteractionResponseDelete(i.Interaction, discordgo.WithContext(ctx)); err != nil {
		log.Warn("failed to delete deferred reply", zap.Error(err))
	}
}

func (r *Router) editReply(ctx context.Context, i *discordgo.InteractionCreate, content string, log *zap.Logger) {
	if _, err := r.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}, discordgo.WithContext(ctx)); err != nil {
		log.Error("failed to edit reply", zap.Error(err))
	}
}

func (r *Router) editEmbed(ctx context.Context, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, log *zap.Logger) {
	embeds := []*discordgo.MessageEmbed{embed}
	if _, err := r.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Embeds: &embeds}, discordgo.WithContext(ctx)); err != nil {
		log.Error("failed to edit reply", zap.Error(err))
	}
}

// handleClick: кнопка Approve/Deny. Сообщение правит контроллер, кликнувшему уходит приватный ответ.
func (r *Router) handleClick(ctx context.Context, i *discordgo.InteractionCreate, log *zap.Logger) {
	if err := r.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}, discordgo.WithContext(ctx)); err != nil {
		log.Error("failed to acknowledge click", zap.Error(err))
		return
	}

	notice, ok := noticeFromMessage(i.Message, domain.StyleButtons)
	if !ok || i.Member == nil {
		return
	}
	res := r.workflow.HandleResolution(ctx, moderation.ResolutionInput{
		GuildID:     i.GuildID,
		GuildName:   r.adapter.guildName(i.GuildID),
		Approver:    actorFrom(i.Member),
		ApproverTag: userTagOf(i.Member.User),
		Token:       i.MessageComponentData().CustomID,
		ChannelID:   i.ChannelID,
		MessageID:   i.Message.ID,
		Notice:      notice,
	})
	if res.Reply == "" {
		return
	}
	if _, err := r.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: res.Reply,
		Flags:   discordgo.MessageFlagsEphemeral,
	}, discordgo.WithContext(ctx)); err != nil {
		log.Error("failed to send resolution reply", zap.Error(err))
	}
}

// onReactionAdd: решение через реакцию. Токен живёт в футере, глагол задаёт эмодзи.
// Ответа у реакции нет, поэтому отказ в правах уходит в личные сообщения.
func (r *Router) onReactionAdd(s *discordgo.Session, e *discordgo.MessageReactionAdd) {
	if e.GuildID == "" || (s.State.User != nil && e.UserID == s.State.User.ID) {
		return
	}
	verb, ok := moderation.VerbForEmoji(e.Emoji.Name)
	if !ok {
		return
	}

	r.dispatch("reaction", func(ctx context.Context, log *zap.Logger) {
		msg, err := s.ChannelMessage(e.ChannelID, e.MessageID, discordgo.WithContext(ctx))
		if err != nil {
			log.Warn("failed to fetch reacted message", zap.String("message_id", e.MessageID), zap.Error(err))
			return
		}
		if s.State.User == nil || msg.Author == nil || msg.Author.ID != s.State.User.ID {
			return
		}
		notice, ok := noticeFromMessage(msg, domain.StyleReaction)
		if !ok || !notice.Interactive() {
			return
		}
		token, err := moderation.RetagToken(notice.ApproveToken, verb)
		if err != nil {
			return
		}

		member := e.Member
		if member == nil || member.User == nil {
			if member, err = r.adapter.member(ctx, e.GuildID, e.UserID); err != nil {
				log.Warn("failed to fetch approver", zap.String("user_id", e.UserID), zap.Error(err))
				return
			}
		}
		approver := actorFrom(member)
		approver.Permissions = r.adapter.permissions(ctx, e.UserID, e.ChannelID)

		res := r.workflow.HandleResolution(ctx, moderation.ResolutionInput{
			GuildID:     e.GuildID,
			GuildName:   r.adapter.guildName(e.GuildID),
			Approver:    approver,
			ApproverTag: userTagOf(member.User),
			Token:       token,
			ChannelID:   e.ChannelID,
			MessageID:   e.MessageID,
			Notice:      notice,
		})
		if res.Reply != "" {
			if err := r.adapter.SendDirect(ctx, e.UserID, res.Reply); err != nil {
				log.Debug("approver dm failed", zap.Error(err))
			}
		}
	})
}

func (r *Router) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.GuildID == "" {
		return
	}
	r.dispatch("message", func(ctx context.Context, log *zap.Logger) {
		r.leveling.HandleMessage(ctx, messageEvent(m))
	})
}

func messageEvent(m *discordgo.MessageCreate) leveling.MessageEvent {
	ev := leveling.MessageEvent{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		UserID:    m.Author.ID,
		IsBot:     m.Author.Bot,
	}
	if m.Member != nil {
		ev.RoleIDs = m.Member.Roles
	}
	return ev
}

func (r *Router) onMemberAdd(s *discordgo.Session, e *discordgo.GuildMemberAdd) {
	if e.Member == nil || e.User == nil || e.User.Bot {
		return
	}
	r.dispatch("member_join", func(ctx context.Context, log *zap.Logger) {
		if _, err := r.joins.HandleJoin(ctx, e.GuildID, e.User.ID); err != nil {
			log.Warn("join automation failed", zap.String("guild_id", e.GuildID), zap.String("user_id", e.User.ID), zap.Error(err))
		}
	})
}

// onGuildCreate приходит и при старте для каждого сервера, и при добавлении бота.
func (r *Router) onGuildCreate(s *discordgo.Session, e *discordgo.GuildCreate) {
	if e.Guild == nil || e.Unavailable {
		return
	}
	r.dispatch("guild_create", func(ctx context.Context, log *zap.Logger) {
		if err := r.syncer.Sync(ctx, e.ID, e.OwnerID); err != nil {
			log.Error("guild sync failed", zap.String("guild_id", e.ID), zap.Error(err))
		}
	})
}

// onGuildDelete: Unavailable означает сбой у Discord, а не удаление бота.
func (r *Router) onGuildDelete(s *discordgo.Session, e *discordgo.GuildDelete) {
	if e.Guild == nil || e.Unavailable {
		return
	}
	r.dispatch("guild_delete", func(ctx context.Context, log *zap.Logger) {
		if err := r.syncer.Unsync(ctx, e.ID); err != nil {
			log.Error("guild unsync failed", zap.String("guild_id", e.ID), zap.Error(err))
		}
	})
}
