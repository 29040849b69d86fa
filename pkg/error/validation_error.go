package error

import "net/http"

type validationError string

func (err validationError) Error() string {
	return string(err)
}

func (err validationError) ErrCode() string {
	return "VALIDATION_ERROR"
}

func (err validationError) StatusCode() int {
	return http.StatusBadRequest
}

// ValidationError wraps a message as a 400-level error. Validation failures
// are rejected at the API boundary before any state mutation happens.
func ValidationError(message string) GenericError {
	return validationError(message)
}
