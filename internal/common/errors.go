package common

import "errors"

var (

	// repository specific errors
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// service specific errors
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// client-side transport errors
	ErrorUnavailable = errors.New("server unavailable")

	ErrInvalidToken = errors.New("invalid token")
)
