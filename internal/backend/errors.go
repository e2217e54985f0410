package backend

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ThrottleError: бэкенд ответил 429 и (возможно) прислал Retry-After.
type ThrottleError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled: retry after %v (cause: %v)", e.RetryAfter, e.Cause)
}

func (e *ThrottleError) Unwrap() error { return e.Cause }

// StatusError: любой не-2xx ответ, кроме 429.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.Code)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Body)
}

// IsNotFound сообщает, что бэкенд ответил 404.
func IsNotFound(err error) bool {
	var sErr *StatusError
	return errors.As(err, &sErr) && sErr.Code == http.StatusNotFound
}

// Retryable: можно ли повторять вызов (только для идемпотентных операций).
// 4xx: ошибка запроса, повтор не поможет.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var tErr *ThrottleError
	if errors.As(err, &tErr) {
		return true
	}
	var sErr *StatusError
	if errors.As(err, &sErr) {
		return sErr.Code >= http.StatusInternalServerError
	}
	return true
}

// isClientError: ошибки, которые не должны размыкать Circuit Breaker.
func isClientError(err error) bool {
	var sErr *StatusError
	return errors.As(err, &sErr) && sErr.Code >= 400 && sErr.Code < 500
}
