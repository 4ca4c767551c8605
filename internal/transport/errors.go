package transport

import "errors"

var (
	ErrNotConnected = errors.New("transport: not connected")

	ErrNoAPIKey = errors.New("transport: no api key available for authentication")
)
