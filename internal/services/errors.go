package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration   = errors.New("configuration error")
	ErrProvider        = errors.New("provider error")
	ErrDataUnavailable = errors.New("data unavailable")
	ErrTimeout         = errors.New("timeout")
	ErrPersistence     = errors.New("persistence error")
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrCallFailed      = errors.New("call failed")
)

// Outcome values returned by FailureStatus. They match the terminal progress
// statuses a lifecycle may end in.
const (
	OutcomeFailed = "failed"
	OutcomeError  = "error"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrProvider
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a lifecycle error to the terminal status recorded for it.
// Calls that never produced usable output end as failed; breakage on our side
// of a provider request after the call ended is an error.
func FailureStatus(err error) string {
	switch {
	case errors.Is(err, ErrCallFailed), errors.Is(err, ErrTimeout), errors.Is(err, ErrDataUnavailable):
		return OutcomeFailed
	default:
		return OutcomeError
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
