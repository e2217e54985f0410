package domain

// Статусы уведомления (notice): единственного внешнего носителя состояния заявки.
type NoticeStatus string

const (
	NoticeAwaiting NoticeStatus = "AWAITING"
	NoticeApproved NoticeStatus = "APPROVED"
	NoticeDenied   NoticeStatus = "DENIED"
	NoticeFailed   NoticeStatus = "FAILED" // Одобрено, но исполнение упало. Тоже терминальный.
)

// CanTransitionTo проверяет правила конечного автомата: переход одноразовый, только из AWAITING.
func (s NoticeStatus) CanTransitionTo(next NoticeStatus) error {
	if s != NoticeAwaiting {
		return ErrAlreadyProcessed
	}
	if next == NoticeAwaiting || next == "" {
		return ErrInvalidTransition
	}
	return nil
}

func (s NoticeStatus) Terminal() bool {
	return s == NoticeApproved || s == NoticeDenied || s == NoticeFailed
}

// WorkflowState: состояния процесса для логов и метрик.
type WorkflowState string

const (
	StateRequested        WorkflowState = "requested"
	StateExecuted         WorkflowState = "executed"
	StateRejected         WorkflowState = "rejected"
	StateAwaitingApproval WorkflowState = "awaiting_approval"
	StateApproved         WorkflowState = "approved"
	StateDenied           WorkflowState = "denied"
	StateFailed           WorkflowState = "failed"
	StateIgnored          WorkflowState = "ignored"
)
