package moderation

import (
	"fmt"
	"strings"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"
)

// Формат токена: mod:<verb>:<kind>:<requesterID>:<targetID>.
// Двоеточие зарезервировано: в snowflake ID его нет. Арность фиксирована, decode закрыт по умолчанию.
const (
	tokenNamespace = "mod"
	tokenSeparator = ":"
	tokenFields    = 5
	maxIDLength    = 20 // uint64 в десятичной записи
)

// Verb: что делает клик по элементу заявки.
type Verb string

const (
	VerbApprove Verb = "approve"
	VerbDeny    Verb = "deny"
)

func (v Verb) Valid() bool {
	return v == VerbApprove || v == VerbDeny
}

// Token: всё, что нужно для завершения заявки без сторонних хранилищ.
type Token struct {
	Verb        Verb
	Kind        domain.ActionKind
	RequesterID string
	TargetID    string
}

// EncodeToken сериализует токен. Невалидные поля: ошибка, а не "почти токен".
func EncodeToken(t Token) (string, error) {
	if err := t.validate(); err != nil {
		return "", err
	}
	return strings.Join([]string{
		tokenNamespace,
		string(t.Verb),
		string(t.Kind),
		t.RequesterID,
		t.TargetID,
	}, tokenSeparator), nil
}

// DecodeToken разбирает токен. Любое несовпадение формы: domain.ErrDecode, частичных результатов нет.
func DecodeToken(s string) (Token, error) {
	parts := strings.Split(s, tokenSeparator)
	if len(parts) != tokenFields || parts[0] != tokenNamespace {
		return Token{}, domain.ErrDecode
	}
	t := Token{
		Verb:        Verb(parts[1]),
		Kind:        domain.ActionKind(parts[2]),
		RequesterID: parts[3],
		TargetID:    parts[4],
	}
	if err := t.validate(); err != nil {
		return Token{}, domain.ErrDecode
	}
	return t, nil
}

// RetagToken меняет глагол уже закодированного токена (стиль с реакциями хранит один токен на заявку).
func RetagToken(s string, v Verb) (string, error) {
	t, err := DecodeToken(s)
	if err != nil {
		return "", err
	}
	t.Verb = v
	return EncodeToken(t)
}

func (t Token) validate() error {
	if !t.Verb.Valid() {
		return fmt.Errorf("%w: unknown verb %q", domain.ErrDecode, t.Verb)
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: unknown action kind %q", domain.ErrDecode, t.Kind)
	}
	if !isSnowflake(t.RequesterID) || !isSnowflake(t.TargetID) {
		return fmt.Errorf("%w: ids must be numeric", domain.ErrDecode)
	}
	return nil
}

func isSnowflake(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}
