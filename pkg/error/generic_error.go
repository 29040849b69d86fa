package error

// GenericError is the contract every application error satisfies so the
// recovery middleware can map panics to proper HTTP responses.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
