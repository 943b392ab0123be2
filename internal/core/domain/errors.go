package domain

import "errors"

var (
	ErrDuplicateAccount   = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("user not found")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrMalformedToken     = errors.New("malformed token")
	ErrServerFault        = errors.New("server fault")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidRole        = errors.New("invalid role")
)

// Error codes carried on the wire next to the human message so clients can
// map a response back to a sentinel without inspecting the text.
const (
	CodeDuplicateAccount   = "DuplicateAccount"
	CodeInvalidCredentials = "InvalidCredentials"
	CodeUnauthorized       = "Unauthorized"
	CodeNotFound           = "NotFound"
	CodeInvalidInput       = "InvalidInput"
	CodeServerFault        = "ServerFault"
)

var codeToErr = map[string]error{
	CodeDuplicateAccount:   ErrDuplicateAccount,
	CodeInvalidCredentials: ErrInvalidCredentials,
	CodeUnauthorized:       ErrUnauthorized,
	CodeNotFound:           ErrNotFound,
	CodeInvalidInput:       ErrInvalidInput,
	CodeServerFault:        ErrServerFault,
}

// ErrorForCode returns the sentinel for a wire code, or nil if unknown.
func ErrorForCode(code string) error {
	return codeToErr[code]
}
