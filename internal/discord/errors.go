package discord

import (
	"errors"
	"fmt"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"

	"github.com/bwmarrin/discordgo"
)

// JSON коды ошибок Discord API, которые мы различаем.
const (
	codeUnknownChannel     = 10003
	codeUnknownMember      = 10007
	codeUnknownUser        = 10013
	codeCannotDMUser       = 50007
	codeMissingPermissions = 50013
)

func restCode(err error) int {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		return restErr.Message.Code
	}
	return 0
}

// classify переводит ошибку REST в таксономию домена, сохраняя исходную причину.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch restCode(err) {
	case codeUnknownMember, codeUnknownUser:
		return fmt.Errorf("%w: %w", domain.ErrTargetNotFound, err)
	case codeMissingPermissions:
		return fmt.Errorf("%w: %w", domain.ErrTargetNotPermitted, err)
	case codeUnknownChannel:
		return fmt.Errorf("%w: %w", domain.ErrConfigurationMissing, err)
	}
	return err
}
