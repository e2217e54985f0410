package domain

import (
	"fmt"
	"strings"
)

// ActionKind: закрытый перечень привилегированных действий модерации.
type ActionKind string

const (
	ActionKick ActionKind = "kick" // remove-member: удалить участника из сервера
	ActionBan  ActionKind = "ban"  // exclude-member: забанить участника
)

// Битовые флаги прав Discord, нужные для режима use_default.
const (
	PermissionKickMembers   int64 = 1 << 1
	PermissionBanMembers    int64 = 1 << 2
	PermissionAdministrator int64 = 1 << 3
)

// DefaultReason подставляется, если модератор не указал причину.
const DefaultReason = "No reason provided"

// MaxReasonLength в символах. Причина попадает в поле embed (до 1024) и в заголовок
// аудит-лога (до 512) вместе с префиксом одобрения.
const MaxReasonLength = 400

var actionKinds = map[ActionKind]struct {
	permission int64
	pastTense  string
	title      string
}{
	ActionKick: {permission: PermissionKickMembers, pastTense: "kicked", title: "Kick"},
	ActionBan:  {permission: PermissionBanMembers, pastTense: "banned", title: "Ban"},
}

// ParseActionKind разбирает строку в ActionKind. Неизвестные значения: ошибка.
func ParseActionKind(s string) (ActionKind, error) {
	k := ActionKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown action kind %q", s)
	}
	return k, nil
}

func (k ActionKind) Valid() bool {
	_, ok := actionKinds[k]
	return ok
}

// Permission возвращает нативное право платформы, покрывающее действие.
func (k ActionKind) Permission() int64 {
	return actionKinds[k].permission
}

func (k ActionKind) PastTense() string {
	return actionKinds[k].pastTense
}

func (k ActionKind) Title() string {
	return actionKinds[k].title
}

// ActionRequest: неизменяемый запрос на действие в рамках одной команды.
type ActionRequest struct {
	Kind        ActionKind
	GuildID     string
	RequesterID string
	TargetID    string
	Reason      string
}

func NewActionRequest(kind ActionKind, guildID, requesterID, targetID, reason string) ActionRequest {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultReason
	}
	reason = truncateReason(reason)
	return ActionRequest{
		Kind:        kind,
		GuildID:     guildID,
		RequesterID: requesterID,
		TargetID:    targetID,
		Reason:      reason,
	}
}

// Actor хранит живой снимок участника на момент вызова: id, полный набор ролей и вычисленные права.
// Никогда не кэшируется между событиями.
type Actor struct {
	ID          string
	RoleIDs     []string
	Permissions int64
}

// HasPermission учитывает, что Administrator покрывает все права.
func (a Actor) HasPermission(perm int64) bool {
	if a.Permissions&PermissionAdministrator != 0 {
		return true
	}
	return a.Permissions&perm == perm
}

// Member: участник сервера, как его видит исполнитель действий.
type Member struct {
	ID      string
	Tag     string
	RoleIDs []string
}

func (m *Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

func truncateReason(reason string) string {
	runes := []rune(reason)
	if len(runes) <= MaxReasonLength {
		return reason
	}
	return string(runes[:MaxReasonLength-3]) + "..."
}
