package margin

import (
	"fmt"

	"margin/core"
)

// RequireError a failed named condition
type RequireError struct {
	Code   core.ErrorCode
	Reason string
}

func (e *RequireError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Code.Error())
}

func (e *RequireError) Unwrap() error {
	return e.Code
}

// Require returns a *RequireError with code when condition is false
//
// reason is a "scope/condition" name, e.g. "liquidation/solid-is-liquid"
func Require(condition bool, code core.ErrorCode, reason string) error {
	if condition {
		return nil
	}

	return &RequireError{Code: code, Reason: reason}
}
