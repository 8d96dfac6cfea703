package session

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned when no context exists for a session id.
var ErrSessionNotFound = errors.New("session not found")

// Store owns conversation and voice state lifecycle. Implementations
// must return copies so callers never share mutable state with the
// store; updates go through Save.
type Store interface {
	// Create allocates a new session and returns its empty context.
	Create(ctx context.Context) (*ConversationContext, error)
	// Get returns the context for a session, or ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (*ConversationContext, error)
	// Save persists a new context value for its session.
	Save(ctx context.Context, c *ConversationContext) error
	// Delete discards all state for a session, voice state included.
	Delete(ctx context.Context, sessionID string) error

	// GetVoice returns the voice state for a session, or nil when none
	// has been created yet.
	GetVoice(ctx context.Context, sessionID string) (*VoiceState, error)
	// SaveVoice persists a new voice state value.
	SaveVoice(ctx context.Context, v *VoiceState) error
}
