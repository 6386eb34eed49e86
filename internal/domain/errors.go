package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTarget        = errors.New("session target must be positive")
	ErrNoActiveSession      = errors.New("no active session")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrUnauthorized         = errors.New("identity is not the attributed operator")
	ErrAlreadyResolved      = errors.New("receipt already resolved")
	ErrNoOperatorsAvailable = errors.New("no operators available")
)

// MissingFieldsError reports which required fields were still absent when an
// email triggered completion. The pending record stays in place so the sender
// can supply the rest.
type MissingFieldsError struct {
	Fields []FieldKind
}

func (e *MissingFieldsError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		names = append(names, string(field))
	}
	return fmt.Sprintf("missing required fields: %s", strings.Join(names, ", "))
}
