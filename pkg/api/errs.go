package api

import "errors"

// ErrProtocol indicates a payload that is not a well-formed message of the
// expected kind.
var ErrProtocol = errors.New("api: protocol error")
