package client

import "errors"

var (
	ErrUnavailable      = errors.New("portal unavailable")
	ErrUnexpectedStatus = errors.New("unexpected http status")
)
