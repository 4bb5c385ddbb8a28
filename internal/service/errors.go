package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/RubachokBoss/assignment-portal/internal/service/integration"
)

// Ошибки, которые delivery-слой переводит в HTTP-коды
var (
	ErrSelectionRequired = errors.New("course and batch must be selected")
	ErrAssignmentLocked  = errors.New("assignment is locked")
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedFile   = errors.New("unsupported file type")
)

// tryAgain replaces error text the user should not see (hosts, transport
// details) when the LMS sent no message.
const tryAgain = "please try again later"

// ValidationError is a rejected form. No LMS call was made.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// OperationError is a failed LMS write, rendered as a blocking alert. The
// underlying error is only logged.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return "Failed to " + e.Op + ": " + integration.MessageOr(e.Err, tryAgain)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// wrapOp leaves authorization failures untouched so they reach the
// session guard as is.
func wrapOp(op string, err error) error {
	if err == nil || errors.Is(err, integration.ErrUnauthorized) {
		return err
	}
	return &OperationError{Op: op, Err: err}
}
