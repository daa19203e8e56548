package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrEmptyInput   = errors.New("empty input")
	ErrNotFound     = errors.New("not found")
	ErrTransient    = errors.New("transient failure")
	ErrPollTimeout  = errors.New("poll timeout")
	ErrPollCancel   = errors.New("poll cancelled")
	ErrSegmentation = errors.New("segmentation failed")
	ErrAnalysis     = errors.New("analysis failed")
	ErrSynthesis    = errors.New("synthesis failed")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later code classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Code is the machine-readable classification persisted on failed jobs.
type Code string

const (
	CodeValidation   Code = "validation"
	CodeEmptyInput   Code = "empty_input"
	CodeNotFound     Code = "not_found"
	CodeTransient    Code = "transient"
	CodePollTimeout  Code = "poll_timeout"
	CodePollCancel   Code = "poll_cancelled"
	CodeSegmentation Code = "segmentation_failed"
	CodeAnalysis     Code = "analysis_failed"
	CodeSynthesis    Code = "synthesis_failed"
)

// ClassifyCode maps an error to its persistent failure code.
func ClassifyCode(err error) Code {
	switch {
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrEmptyInput):
		return CodeEmptyInput
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrPollTimeout):
		return CodePollTimeout
	case errors.Is(err, ErrPollCancel):
		return CodePollCancel
	case errors.Is(err, ErrSegmentation):
		return CodeSegmentation
	case errors.Is(err, ErrAnalysis):
		return CodeAnalysis
	case errors.Is(err, ErrSynthesis):
		return CodeSynthesis
	default:
		return CodeTransient
	}
}

// FailureDetails captures the user-facing portion of a stage error.
type FailureDetails struct {
	Code    Code
	Message string
}

// Details extracts the failure code and a trimmed human-readable message.
func Details(err error) FailureDetails {
	if err == nil {
		return FailureDetails{Code: CodeTransient}
	}
	message := strings.TrimSpace(err.Error())
	for _, sentinel := range []error{
		ErrValidation, ErrEmptyInput, ErrNotFound, ErrTransient,
		ErrPollTimeout, ErrPollCancel, ErrSegmentation, ErrAnalysis, ErrSynthesis,
	} {
		prefix := sentinel.Error() + ": "
		if strings.HasPrefix(message, prefix) {
			message = strings.TrimSpace(strings.TrimPrefix(message, prefix))
			break
		}
	}
	return FailureDetails{Code: ClassifyCode(err), Message: message}
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
