package domain

import "errors"

// Coordination error taxonomy. Request handlers report these back to the
// caller only; the disconnect path logs them and keeps cleaning up.
var (
	ErrNotRegistered     = errors.New("connection not registered")
	ErrAlreadyRegistered = errors.New("connection already registered")
	ErrRoomNotFound      = errors.New("room not found")
	ErrNotInRoom         = errors.New("user not in room")
)
