package session

import (
	"context"
	"sync"
)

// MemoryStore keeps all session state in process memory. It is the
// default backend: sessions live for the life of the process and are
// discarded on restart. There is no expiry.
type MemoryStore struct {
	mu       sync.RWMutex
	contexts map[string]*ConversationContext
	voices   map[string]*VoiceState
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contexts: make(map[string]*ConversationContext),
		voices:   make(map[string]*VoiceState),
	}
}

// Create allocates a new session.
func (s *MemoryStore) Create(_ context.Context) (*ConversationContext, error) {
	c := NewContext()
	s.mu.Lock()
	s.contexts[c.SessionID] = c.Clone()
	s.mu.Unlock()
	return c, nil
}

// Get returns a copy of the stored context.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*ConversationContext, error) {
	s.mu.RLock()
	c, ok := s.contexts[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return c.Clone(), nil
}

// Save stores a copy of the context.
func (s *MemoryStore) Save(_ context.Context, c *ConversationContext) error {
	if c == nil || c.SessionID == "" {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	s.contexts[c.SessionID] = c.Clone()
	s.mu.Unlock()
	return nil
}

// Delete discards conversation and voice state for a session.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.contexts, sessionID)
	delete(s.voices, sessionID)
	s.mu.Unlock()
	return nil
}

// GetVoice returns a copy of the voice state, or nil when none exists.
func (s *MemoryStore) GetVoice(_ context.Context, sessionID string) (*VoiceState, error) {
	s.mu.RLock()
	v, ok := s.voices[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return v.Clone(), nil
}

// SaveVoice stores a copy of the voice state.
func (s *MemoryStore) SaveVoice(_ context.Context, v *VoiceState) error {
	if v == nil || v.SessionID == "" {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	s.voices[v.SessionID] = v.Clone()
	s.mu.Unlock()
	return nil
}
