package moderation

import (
	"fmt"
	"strings"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"
)

// Цвета уведомлений.
const (
	ColorPending  = 0xF59E0B
	ColorApproved = 0x22C55E
	ColorDenied   = 0xEF4444
	ColorFailed   = 0x991B1B
)

const (
	FieldRequestedBy = "Requested By"
	FieldTarget      = "Target"
	FieldReason      = "Reason"
	FieldApprovedBy  = "Approved By"
	FieldDeniedBy    = "Denied By"
	FieldError       = "Error"

	footerPending  = "Awaiting a decision from senior staff"
	footerResolved = "This request has been resolved"

	// Стиль reaction: токен живёт в футере, глагол задаёт эмодзи
	footerTokenMarker = " | ref "

	EmojiApprove = "✅"
	EmojiDeny    = "❌"
)

var titlePrefixes = []struct {
	prefix string
	status domain.NoticeStatus
}{
	{"Approval Required: ", domain.NoticeAwaiting},
	{"Request Approved: ", domain.NoticeApproved},
	{"Request Denied: ", domain.NoticeDenied},
	{"Request Failed: ", domain.NoticeFailed},
}

// NoticeField: одно поле уведомления.
type NoticeField struct {
	Name   string
	Value  string
	Inline bool
}

// NoticeView: платформенно-нейтральное представление уведомления о заявке.
// Пустые ApproveToken/DenyToken означают, что интерактивных элементов нет.
type NoticeView struct {
	Title        string
	Description  string
	Color        int
	Fields       []NoticeField
	Footer       string
	Style        domain.PresentationStyle
	ApproveToken string
	DenyToken    string
}

func (v NoticeView) Interactive() bool {
	return v.ApproveToken != "" || v.DenyToken != ""
}

func (v NoticeView) Field(name string) (string, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// NoticeRecord: то, что удалось прочитать из существующего уведомления.
type NoticeRecord struct {
	Status       domain.NoticeStatus
	RequesterTag string
	TargetTag    string
	Reason       string
}

// PendingNotice собирает уведомление в статусе AWAITING.
func PendingNotice(req domain.ActionRequest, requesterTag, targetTag string, style domain.PresentationStyle) (NoticeView, error) {
	approve, err := EncodeToken(Token{Verb: VerbApprove, Kind: req.Kind, RequesterID: req.RequesterID, TargetID: req.TargetID})
	if err != nil {
		return NoticeView{}, err
	}
	deny, err := EncodeToken(Token{Verb: VerbDeny, Kind: req.Kind, RequesterID: req.RequesterID, TargetID: req.TargetID})
	if err != nil {
		return NoticeView{}, err
	}

	v := NoticeView{
		Title:       "Approval Required: " + req.Kind.Title(),
		Description: fmt.Sprintf("A moderator has requested to %s a member. Senior staff must approve or deny this request.", req.Kind),
		Color:       ColorPending,
		Fields: []NoticeField{
			{Name: FieldRequestedBy, Value: formatUser(requesterTag, req.RequesterID), Inline: true},
			{Name: FieldTarget, Value: formatUser(targetTag, req.TargetID), Inline: true},
			{Name: FieldReason, Value: req.Reason},
		},
		Footer:       footerPending,
		Style:        style,
		ApproveToken: approve,
		DenyToken:    deny,
	}
	if style == domain.StyleReaction {
		v.Footer = FooterWithToken(footerPending, approve)
	}
	return v, nil
}

// ParseNotice восстанавливает статус и детали заявки из уведомления.
func ParseNotice(v NoticeView) (NoticeRecord, error) {
	rec := NoticeRecord{}
	for _, p := range titlePrefixes {
		if strings.HasPrefix(v.Title, p.prefix) {
			rec.Status = p.status
			break
		}
	}
	if rec.Status == "" {
		return NoticeRecord{}, fmt.Errorf("%w: not an approval notice", domain.ErrDecode)
	}

	if val, ok := v.Field(FieldRequestedBy); ok {
		rec.RequesterTag = userTag(val)
	}
	if val, ok := v.Field(FieldTarget); ok {
		rec.TargetTag = userTag(val)
	}
	if val, ok := v.Field(FieldReason); ok {
		rec.Reason = val
	}
	if rec.Reason == "" {
		rec.Reason = domain.DefaultReason
	}
	return rec, nil
}

// ResolvedNotice строит терминальную версию уведомления: новый заголовок, цвет, поле с решающим,
// без интерактивных элементов.
func ResolvedNotice(current NoticeView, kind domain.ActionKind, status domain.NoticeStatus, approverTag, failure string) NoticeView {
	fields := make([]NoticeField, 0, len(current.Fields)+2)
	fields = append(fields, current.Fields...)

	next := NoticeView{
		Description: current.Description,
		Footer:      footerResolved,
		Style:       current.Style,
	}

	switch status {
	case domain.NoticeApproved:
		next.Title = "Request Approved: " + kind.Title()
		next.Color = ColorApproved
		fields = append(fields, NoticeField{Name: FieldApprovedBy, Value: approverTag})
	case domain.NoticeDenied:
		next.Title = "Request Denied: " + kind.Title()
		next.Color = ColorDenied
		fields = append(fields, NoticeField{Name: FieldDeniedBy, Value: approverTag})
	case domain.NoticeFailed:
		next.Title = "Request Failed: " + kind.Title()
		next.Color = ColorFailed
		fields = append(fields,
			NoticeField{Name: FieldApprovedBy, Value: approverTag},
			NoticeField{Name: FieldError, Value: failure})
	}
	next.Fields = fields
	return next
}

func FooterWithToken(footer, token string) string {
	return footer + footerTokenMarker + token
}

// TokenFromFooter достаёт токен, записанный FooterWithToken.
func TokenFromFooter(footer string) (string, bool) {
	i := strings.LastIndex(footer, footerTokenMarker)
	if i < 0 {
		return "", false
	}
	token := footer[i+len(footerTokenMarker):]
	return token, token != ""
}

// VerbForEmoji: соответствие реакции и глагола.
func VerbForEmoji(emoji string) (Verb, bool) {
	switch emoji {
	case EmojiApprove:
		return VerbApprove, true
	case EmojiDeny:
		return VerbDeny, true
	}
	return "", false
}

// formatUser: "tag (<@id>)"
func formatUser(tag, id string) string {
	if tag == "" {
		return fmt.Sprintf("<@%s>", id)
	}
	return fmt.Sprintf("%s (<@%s>)", tag, id)
}

func userTag(value string) string {
	i := strings.LastIndex(value, " (<@")
	if i < 0 {
		return value
	}
	return value[:i]
}
