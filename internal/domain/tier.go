package domain

import "strings"

// Tier: уровень прав актора для пары (актор, действие). Не хранится, вычисляется на каждый вызов.
type Tier string

const (
	TierFull         Tier = "full"         // Выполнить сразу
	TierConditional  Tier = "conditional"  // Только через подтверждение старшим составом (HITL)
	TierDenied       Tier = "denied"       // Запрещено
	TierUndetermined Tier = "undetermined" // Бэкенд не смог ответить: никогда не трактуется как full
)

// TierUseDefault: ответ бэкенда "решай по нативным правам Discord".
// Наружу из резолвера не выходит: превращается в full или denied.
const TierUseDefault Tier = "use_default"

// ParseTier переводит значение из API (включая старые алиасы auth/none) в Tier.
func ParseTier(wire string) (Tier, bool) {
	switch strings.ToLower(strings.TrimSpace(wire)) {
	case "full":
		return TierFull, true
	case "conditional", "auth":
		return TierConditional, true
	case "denied", "none":
		return TierDenied, true
	case "undetermined":
		return TierUndetermined, true
	case "use_default":
		return TierUseDefault, true
	}
	return "", false
}

// PresentationStyle: как оформляется уведомление о заявке.
type PresentationStyle string

const (
	StyleButtons  PresentationStyle = "buttons"
	StyleReaction PresentationStyle = "reaction"
)

func ParsePresentationStyle(wire string) PresentationStyle {
	switch strings.ToLower(strings.TrimSpace(wire)) {
	case "reaction", "reactions":
		return StyleReaction
	default:
		return StyleButtons
	}
}

// ApprovalConfig имеет смысл только при TierConditional.
type ApprovalConfig struct {
	NotificationChannelID string
	Style                 PresentationStyle
}

// Decision: ответ Policy Resolver.
type Decision struct {
	Tier   Tier
	Config ApprovalConfig
}

// Effective гарантирует валидный tier даже для пустого решения (Zero Trust):
// всё, что не распознано, становится undetermined, но никак не full.
func (d Decision) Effective() Tier {
	switch d.Tier {
	case TierFull, TierConditional, TierDenied:
		return d.Tier
	default:
		return TierUndetermined
	}
}
