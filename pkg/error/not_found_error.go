package error

import "net/http"

type NotFoundError string

func (err NotFoundError) Error() string {
	return string(err)
}

func (err NotFoundError) ErrCode() string {
	return "NOT_FOUND_ERROR"
}

func (err NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// IsNotFound reports whether err carries the NOT_FOUND_ERROR code.
func IsNotFound(err error) bool {
	ge, ok := err.(GenericError)
	return ok && ge.ErrCode() == "NOT_FOUND_ERROR"
}
