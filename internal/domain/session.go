package domain

// SessionID is the opaque per-connection identifier, stable for the
// connection's lifetime.
type SessionID string

const (
	MaxNicknameLen = 24
	MaxMessageLen  = 1024
)
