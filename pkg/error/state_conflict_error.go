package error

import "net/http"

type stateConflictError string

func (err stateConflictError) Error() string {
	return string(err)
}

func (err stateConflictError) ErrCode() string {
	return "STATE_CONFLICT"
}

func (err stateConflictError) StatusCode() int {
	return http.StatusConflict
}

// StateConflictError signals an invalid lifecycle transition or a lost
// compare-and-swap race (e.g. two publish attempts claiming the same draft).
// Callers should re-fetch the current state instead of retrying blindly.
func StateConflictError(message string) GenericError {
	return stateConflictError(message)
}

// IsStateConflict reports whether err carries the STATE_CONFLICT code.
func IsStateConflict(err error) bool {
	ge, ok := err.(GenericError)
	return ok && ge.ErrCode() == "STATE_CONFLICT"
}
