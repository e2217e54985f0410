package discord

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"
	"github.com/TheRandomCody/Ulti-Bot/internal/leveling"
	"github.com/TheRandomCody/Ulti-Bot/internal/moderation"

	"github.com/bwmarrin/discordgo"
)

const colorInfo = 0x0099FF

var errNoTarget = errors.New("target option is missing")

// Commands: слэш-команды бота. Регистрируются целиком через bulk overwrite.
func Commands() []*discordgo.ApplicationCommand {
	kickPerm := domain.PermissionKickMembers
	banPerm := domain.PermissionBanMembers
	noDM := false

	return []*discordgo.ApplicationCommand{
		{
			Name:                     string(domain.ActionKick),
			Description:              "Kicks a member from the server.",
			DefaultMemberPermissions: &kickPerm,
			DMPermission:             &noDM,
			Options:                  moderationOptions("The member to kick", "The reason for the kick"),
		},
		{
			Name:                     string(domain.ActionBan),
			Description:              "Bans a member from the server.",
			DefaultMemberPermissions: &banPerm,
			DMPermission:             &noDM,
			Options:                  moderationOptions("The member to ban", "The reason for the ban"),
		},
		{
			Name:        "status",
			Description: "Displays detailed information about the bot.",
		},
		{
			Name:        "profile",
			Description: "Fetches a user's profile from the website.",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "target",
				Description: "The user whose profile you want to see.",
				Required:    true,
			}},
		},
	}
}

func moderationOptions(target, reason string) []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{Type: discordgo.ApplicationCommandOptionUser, Name: "target", Description: target, Required: true},
		{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: reason, MaxLength: domain.MaxReasonLength},
	}
}

// actorFrom: снимок участника из события. Права платформа уже посчитала для канала.
func actorFrom(m *discordgo.Member) domain.Actor {
	if m == nil || m.User == nil {
		return domain.Actor{}
	}
	return domain.Actor{ID: m.User.ID, RoleIDs: m.Roles, Permissions: m.Permissions}
}

func userTagOf(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	return u.String()
}

// commandInput разбирает /kick и /ban. Тег цели берём из resolved, без лишних запросов.
// UserValue(nil) не ходит в API и возвращает только ID.
func commandInput(i *discordgo.InteractionCreate, kind domain.ActionKind) (moderation.CommandInput, error) {
	data := i.ApplicationCommandData()
	in := moderation.CommandInput{
		GuildID: i.GuildID,
		Actor:   actorFrom(i.Member),
		Kind:    kind,
	}
	if i.Member != nil {
		in.ActorTag = userTagOf(i.Member.User)
	}

	for _, opt := range data.Options {
		switch opt.Name {
		case "target":
			in.TargetID = opt.UserValue(nil).ID
		case "reason":
			in.Reason = opt.StringValue()
		}
	}
	if in.TargetID == "" {
		return moderation.CommandInput{}, errNoTarget
	}
	if data.Resolved != nil {
		if u, ok := data.Resolved.Users[in.TargetID]; ok {
			in.TargetTag = userTagOf(u)
		}
	}
	return in, nil
}

func targetUser(data discordgo.ApplicationCommandInteractionData) (*discordgo.User, error) {
	for _, opt := range data.Options {
		if opt.Name != "target" {
			continue
		}
		id := opt.UserValue(nil).ID
		if data.Resolved != nil {
			if u, ok := data.Resolved.Users[id]; ok {
				return u, nil
			}
		}
		return &discordgo.User{ID: id}, nil
	}
	return nil, errNoTarget
}

// formatUptime: "1d 2h 3m 4s"
func formatUptime(d time.Duration) string {
	s := int64(d / time.Second)
	return fmt.Sprintf("%dd %dh %dm %ds", s/86400, s/3600%24, s/60%60, s%60)
}

func statusEmbed(latency, uptime time.Duration, startedAt time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Ulti-Bot Status",
		Color: colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "API Latency", Value: fmt.Sprintf("`%dms`", latency.Milliseconds()), Inline: true},
			{Name: "Uptime", Value: "`" + formatUptime(uptime) + "`", Inline: true},
			{Name: "Last Restart", Value: fmt.Sprintf("<t:%d:R>", startedAt.Unix())},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Ulti-Bot | Status"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func profileEmbed(p *domain.Profile) *discordgo.MessageEmbed {
	bio := p.Bio
	if bio == "" {
		bio = "No bio yet."
	}
	return &discordgo.MessageEmbed{
		Title: p.Username + "'s Profile",
		Color: colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Level", Value: "`" + strconv.Itoa(p.Level) + "`", Inline: true},
			{Name: "Next Level", Value: fmt.Sprintf("`%d XP`", leveling.XPForLevel(p.Level+1)), Inline: true},
			{Name: "Joined Website", Value: "`" + p.Joined + "`", Inline: true},
			{Name: "Bio", Value: bio},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Profile data from our website!"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
