package moderation

import (
	"errors"
	"fmt"

	"github.com/TheRandomCody/Ulti-Bot/internal/domain"
)

// Тексты ответов пользователю.
const (
	MsgRequestSent       = "This action requires authorization. Request sent to senior staff."
	MsgNoPermission      = "You do not have permission to use this command."
	MsgPolicyUnavailable = "Could not determine your permissions. Please try again later."
	MsgConfigMissing     = "An authorization channel has not been configured for this action. Please contact a server administrator."
	MsgApproverRejected  = "You do not have the required permissions to approve or deny this request."
	MsgAlreadyResolved   = "This request has already been resolved."
	MsgInvalidRequest    = "This request is no longer valid."
	MsgNoticeFailed      = "Could not post the authorization request. Please try again later."
	MsgDeniedAck         = "Request denied. The requester has been notified."
)

// SuccessMessage: ответ после успешного действия.
func SuccessMessage(kind domain.ActionKind, out Outcome) string {
	return fmt.Sprintf("Successfully %s %s for reason: %s", kind.PastTense(), out.TargetTag, out.Reason)
}

// FailureMessage переводит классифицированную ошибку исполнителя в текст для модератора.
func FailureMessage(kind domain.ActionKind, err error) string {
	switch {
	case errors.Is(err, domain.ErrTargetNotFound):
		return "That user isn't in this server."
	case errors.Is(err, domain.ErrTargetNotPermitted):
		return fmt.Sprintf("I can't %s that user.", kind)
	default:
		return fmt.Sprintf("An error occurred while trying to %s this member.", kind)
	}
}

// ApprovedReason: причина, с которой действие уходит на платформу после одобрения.
func ApprovedReason(approverTag, original string) string {
	return fmt.Sprintf("Approved by %s. Original reason: %s", approverTag, original)
}

func requesterApprovedDM(kind domain.ActionKind, targetTag, guildName, approverTag string) string {
	return fmt.Sprintf("Your request to %s %s in %s has been approved by %s.", kind, targetTag, guildName, approverTag)
}

func requesterDeniedDM(kind domain.ActionKind, targetTag, guildName, approverTag string) string {
	return fmt.Sprintf("Your request to %s %s in %s has been denied by %s.", kind, targetTag, guildName, approverTag)
}

func requesterFailedDM(kind domain.ActionKind, targetTag, guildName, approverTag, failure string) string {
	return fmt.Sprintf("Your request to %s %s in %s was approved by %s, but the action failed: %s",
		kind, targetTag, guildName, approverTag, failure)
}
