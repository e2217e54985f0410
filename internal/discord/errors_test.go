package discord

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func restError(code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{Status: "400 Bad Request"},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "test"},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unknown member", restError(codeUnknownMember), domain.ErrTargetNotFound},
		{"unknown user", fmt.Errorf("fetch: %w", restError(codeUnknownUser)), domain.ErrTargetNotFound},
		{"missing permissions", restError(codeMissingPermissions), domain.ErrTargetNotPermitted},
		{"unknown channel", restError(codeUnknownChannel), domain.ErrConfigurationMissing},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tc.err), tc.want)
		})
	}

	plain := errors.New("connection reset")
	assert.Equal(t, plain, classify(plain))
	assert.NoError(t, classify(nil))
}
