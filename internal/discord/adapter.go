package discord

import (
	"context"
	"fmt"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"
	"github.com/TheRandomCody/Ulti-Bot/internal/moderation"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Adapter: все обращения к REST API Discord. Реализует порты moderation, notify,
// leveling и guildsync; сами пакеты о discordgo не знают.
type Adapter struct {
	session *discordgo.Session
	logger  *zap.Logger
}

func NewAdapter(session *discordgo.Session, logger *zap.Logger) *Adapter {
	return &Adapter{session: session, logger: logger.Named("discord")}
}

// --- moderation.Guilds ---

func (a *Adapter) Member(ctx context.Context, guildID, userID string) (*domain.Member, error) {
	m, err := a.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}
	member := &domain.Member{ID: userID, RoleIDs: m.Roles}
	if m.User != nil {
		member.Tag = m.User.String()
	}
	return member, nil
}

func (a *Adapter) CanModerate(ctx context.Context, guildID string, target *domain.Member) (bool, error) {
	guild, err := a.guild(ctx, guildID)
	if err != nil {
		return false, err
	}
	self, err := a.member(ctx, guildID, a.session.State.User.ID)
	if err != nil {
		return false, err
	}

	positions := make(map[string]int, len(guild.Roles))
	for _, r := range guild.Roles {
		positions[r.ID] = r.Position
	}
	return canModerate(guild.OwnerID, target.ID, positions, self.Roles, target.RoleIDs), nil
}

func (a *Adapter) Kick(ctx context.Context, guildID, userID, reason string) error {
	return classify(a.session.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx)))
}

func (a *Adapter) Ban(ctx context.Context, guildID, userID, reason string) error {
	return classify(a.session.GuildBanCreateWithReason(guildID, userID, reason, 0, discordgo.WithContext(ctx)))
}

// --- moderation.NoticeBoard ---

func (a *Adapter) PostNotice(ctx context.Context, guildID, channelID string, view moderation.NoticeView) (string, error) {
	ch, err := a.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		if restCode(err) == codeUnknownChannel {
			return "", fmt.Errorf("%w: channel %s", domain.ErrConfigurationMissing, channelID)
		}
		return "", fmt.Errorf("fetch approval channel: %w", err)
	}
	if ch.GuildID != guildID {
		return "", fmt.Errorf("%w: channel %s belongs to another server", domain.ErrConfigurationMissing, channelID)
	}

	msg, err := a.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{toEmbed(view)},
		Components: toComponents(view),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("post notice: %w", classify(err))
	}

	if view.Style == domain.StyleReaction {
		for _, emoji := range []string{moderation.EmojiApprove, moderation.EmojiDeny} {
			if err := a.session.MessageReactionAdd(channelID, msg.ID, emoji, discordgo.WithContext(ctx)); err != nil {
				a.logger.Warn("failed to add reaction", zap.String("message_id", msg.ID), zap.String("emoji", emoji), zap.Error(err))
			}
		}
	}
	return msg.ID, nil
}

func (a *Adapter) EditNotice(ctx context.Context, channelID, messageID string, view moderation.NoticeView) error {
	embeds := []*discordgo.MessageEmbed{toEmbed(view)}
	components := toComponents(view)
	_, err := a.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         messageID,
		Channel:    channelID,
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("edit notice: %w", err)
	}

	if view.Style == domain.StyleReaction && !view.Interactive() {
		if err := a.session.MessageReactionsRemoveAll(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("clear reactions: %w", err)
		}
	}
	return nil
}

// --- notify.Sender ---

func (a *Adapter) SendDirect(ctx context.Context, userID, content string) error {
	ch, err := a.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}
	if _, err := a.session.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send dm: %w", err)
	}
	return nil
}

// --- leveling.Platform, guildsync.RoleGranter ---

func (a *Adapter) SendMessage(ctx context.Context, channelID, content string) error {
	_, err := a.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return classify(a.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)))
}

// guild и member: сначала кэш шлюза, потом REST.
func (a *Adapter) guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if g, err := a.session.State.Guild(guildID); err == nil {
		return g, nil
	}
	g, err := a.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch guild: %w", err)
	}
	return g, nil
}

func (a *Adapter) member(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	if m, err := a.session.State.Member(guildID, userID); err == nil {
		return m, nil
	}
	m, err := a.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch member: %w", classify(err))
	}
	return m, nil
}

// permissions: вычисленные права участника в канале (для реакций, где платформа их не присылает).
func (a *Adapter) permissions(ctx context.Context, userID, channelID string) int64 {
	perms, err := a.session.UserChannelPermissions(userID, channelID, discordgo.WithContext(ctx))
	if err != nil {
		a.logger.Warn("failed to compute permissions", zap.String("user_id", userID), zap.Error(err))
		return 0
	}
	return perms
}

func (a *Adapter) guildName(guildID string) string {
	if g, err := a.session.State.Guild(guildID); err == nil && g.Name != "" {
		return g.Name
	}
	return "the server"
}
