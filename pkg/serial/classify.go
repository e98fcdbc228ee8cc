package serial

import (
	"github.com/jdziat/simple-form-actions/pkg/core"
	"github.com/jdziat/simple-form-actions/pkg/security"
)

// ErrorMessage is a classifier whose body is the sanitized error message.
func ErrorMessage(err error) any {
	return security.SanitizeErrorMessage(err.Error())
}

// ErrorStatus returns a classifier that answers with the sanitized error
// message and the given status.
func ErrorStatus(status int) func(error) any {
	return func(err error) any {
		return core.Response{Status: status, Body: ErrorMessage(err)}
	}
}
