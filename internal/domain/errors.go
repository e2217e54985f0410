package domain

import "errors"

var (
	ErrPolicyUnavailable    = errors.New("policy service unavailable")
	ErrTargetNotFound       = errors.New("target is not a member of this server")
	ErrTargetNotPermitted   = errors.New("target cannot be moderated by the bot")
	ErrExecutionFailed      = errors.New("moderation action failed")
	ErrConfigurationMissing = errors.New("approval channel is not configured")
	ErrDecode               = errors.New("malformed interaction token")

	ErrInvalidTransition = errors.New("invalid notice status transition")
	ErrAlreadyProcessed  = errors.New("approval request already processed")
)
