package discord

import (
	"github.com/TheRandomCody/Ulti-Bot/internal/domain"
	"github.com/TheRandomCody/Ulti-Bot/internal/moderation"

	"github.com/bwmarrin/discordgo"
)

func toEmbed(v moderation.NoticeView) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       v.Title,
		Description: v.Description,
		Color:       v.Color,
	}
	for _, f := range v.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if v.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: v.Footer}
	}
	return e
}

// toComponents: кнопки есть только у ожидающей заявки в стиле buttons. Custom ID кнопки равен токену.
func toComponents(v moderation.NoticeView) []discordgo.MessageComponent {
	if v.Style != domain.StyleButtons || !v.Interactive() {
		return []discordgo.MessageComponent{}
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Approve",
				Style:    discordgo.SuccessButton,
				CustomID: v.ApproveToken,
				Emoji:    &discordgo.ComponentEmoji{Name: moderation.EmojiApprove},
			},
			discordgo.Button{
				Label:    "Deny",
				Style:    discordgo.DangerButton,
				CustomID: v.DenyToken,
				Emoji:    &discordgo.ComponentEmoji{Name: moderation.EmojiDeny},
			},
		}},
	}
}

// noticeFromMessage восстанавливает NoticeView из сообщения платформы.
// false: в сообщении нет embed, значит это не наше уведомление.
func noticeFromMessage(m *discordgo.Message, style domain.PresentationStyle) (moderation.NoticeView, bool) {
	if m == nil || len(m.Embeds) == 0 || m.Embeds[0] == nil {
		return moderation.NoticeView{}, false
	}
	e := m.Embeds[0]
	v := moderation.NoticeView{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
		Style:       style,
	}
	for _, f := range e.Fields {
		if f != nil {
			v.Fields = append(v.Fields, moderation.NoticeField{Name: f.Name, Value: f.Value, Inline: f.Inline})
		}
	}
	if e.Footer != nil {
		v.Footer = e.Footer.Text
	}

	switch style {
	case domain.StyleReaction:
		if approve, ok := moderation.TokenFromFooter(v.Footer); ok {
			v.ApproveToken = approve
			v.DenyToken, _ = moderation.RetagToken(approve, moderation.VerbDeny)
		}
	default:
		for _, id := range buttonIDs(m.Components) {
			tok, err := moderation.DecodeToken(id)
			if err != nil {
				continue
			}
			if tok.Verb == moderation.VerbApprove {
				v.ApproveToken = id
			} else {
				v.DenyToken = id
			}
		}
	}
	return v, true
}

// buttonIDs: после разбора JSON discordgo отдаёт указатели, а при сборке вручную бывают значения.
func buttonIDs(components []discordgo.MessageComponent) []string {
	var ids []string
	for _, c := range components {
		switch row := c.(type) {
		case *discordgo.ActionsRow:
			ids = append(ids, buttonIDs(row.Components)...)
		case discordgo.ActionsRow:
			ids = append(ids, buttonIDs(row.Components)...)
		case *discordgo.Button:
			ids = append(ids, row.CustomID)
		case discordgo.Button:
			ids = append(ids, row.CustomID)
		}
	}
	return ids
}
