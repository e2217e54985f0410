package discord

import (
	"testing"
	"time"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slashCommand(name string, options []*discordgo.ApplicationCommandInteractionDataOption, users map[string]*discordgo.User) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: "1000",
		Member: &discordgo.Member{
			User:        &discordgo.User{ID: "100", Username: "junior", Discriminator: "0"},
			Roles:       []string{"mod"},
			Permissions: domain.PermissionKickMembers,
		},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:     name,
			Options:  options,
			Resolved: &discordgo.ApplicationCommandInteractionDataResolved{Users: users},
		},
	}}
}

func userOption(id string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: "target", Type: discordgo.ApplicationCommandOptionUser, Value: id}
}

func reasonOption(reason string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: "reason", Type: discordgo.ApplicationCommandOptionString, Value: reason}
}

func TestCommandInput(t *testing.T) {
	i := slashCommand("kick",
		[]*discordgo.ApplicationCommandInteractionDataOption{userOption("200"), reasonOption("spam")},
		map[string]*discordgo.User{"200": {ID: "200", Username: "spammer", Discriminator: "0"}})

	in, err := commandInput(i, domain.ActionKick)
	require.NoError(t, err)

	assert.Equal(t, "1000", in.GuildID)
	assert.Equal(t, domain.Actor{ID: "100", RoleIDs: []string{"mod"}, Permissions: domain.PermissionKickMembers}, in.Actor)
	assert.Equal(t, "junior", in.ActorTag)
	assert.Equal(t, domain.ActionKick, in.Kind)
	assert.Equal(t, "200", in.TargetID)
	assert.Equal(t, "spammer", in.TargetTag)
	assert.Equal(t, "spam", in.Reason)
}

func TestCommandInput_OptionalReasonAndMissingTarget(t *testing.T) {
	in, err := commandInput(slashCommand("ban", []*discordgo.ApplicationCommandInteractionDataOption{userOption("200")}, nil), domain.ActionBan)
	require.NoError(t, err)
	assert.Empty(t, in.Reason)
	assert.Empty(t, in.TargetTag)

	_, err = commandInput(slashCommand("ban", nil, nil), domain.ActionBan)
	assert.ErrorIs(t, err, errNoTarget)
}

func TestTargetUser(t *testing.T) {
	i := slashCommand("profile", []*discordgo.ApplicationCommandInteractionDataOption{userOption("55")}, nil)
	u, err := targetUser(i.ApplicationCommandData())
	require.NoError(t, err)
	assert.Equal(t, "55", u.ID)
}

func TestMessageEvent(t *testing.T) {
	ev := messageEvent(&discordgo.MessageCreate{Message: &discordgo.Message{
		GuildID:   "1",
		ChannelID: "2",
		Author:    &discordgo.User{ID: "3", Bot: true},
		Member:    &discordgo.Member{Roles: []string{"r"}},
	}})
	assert.Equal(t, "1", ev.GuildID)
	assert.Equal(t, "2", ev.ChannelID)
	assert.Equal(t, "3", ev.UserID)
	assert.True(t, ev.IsBot)
	assert.Equal(t, []string{"r"}, ev.RoleIDs)
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0d 0h 0m 0s", formatUptime(0))
	assert.Equal(t, "1d 2h 3m 4s", formatUptime(26*time.Hour+3*time.Minute+4*time.Second))
}

func TestProfileEmbed(t *testing.T) {
	e := profileEmbed(&domain.Profile{Username: "cody", Level: 2, Joined: "2024-01-01"})
	assert.Equal(t, "cody's Profile", e.Title)
	require.Len(t, e.Fields, 4)
	assert.Equal(t, "`2`", e.Fields[0].Value)
	assert.Equal(t, "`132 XP`", e.Fields[1].Value)
	assert.Equal(t, "No bio yet.", e.Fields[3].Value)
}

func TestCommands(t *testing.T) {
	cmds := Commands()
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"kick", "ban", "status", "profile"}, names)

	require.NotNil(t, cmds[0].DefaultMemberPermissions)
	assert.Equal(t, domain.PermissionKickMembers, *cmds[0].DefaultMemberPermissions)
	assert.Equal(t, domain.PermissionBanMembers, *cmds[1].DefaultMemberPermissions)
	assert.False(t, *cmds[1].DMPermission)
	assert.True(t, cmds[0].Options[0].Required)
	assert.False(t, cmds[0].Options[1].Required)
	assert.Equal(t, domain.MaxReasonLength, cmds[0].Options[1].MaxLength)
	assert.Equal(t, domain.MaxReasonLength, cmds[1].Options[1].MaxLength)
}
