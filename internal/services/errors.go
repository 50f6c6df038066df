package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrAcquisition marks failures where no candidate source produced a usable excerpt.
	ErrAcquisition = errors.New("acquisition error")
	// ErrExternalTool marks failures reported by a child process.
	ErrExternalTool = errors.New("external tool error")
	// ErrTimeout marks child processes killed after exceeding their time budget.
	ErrTimeout = errors.New("timeout")
	// ErrNotFound marks a required upstream artifact missing on disk.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks catalog input that cannot be built as written.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// WrapTimeout tags a killed process with ErrTimeout, carrying the configured bound.
func WrapTimeout(stage, operation string, bound time.Duration) error {
	return Wrap(ErrTimeout, stage, operation, fmt.Sprintf("process timed out after %s", bound), nil)
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
