package voice

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClipNotFound is returned when a clip id has no stored audio.
var ErrClipNotFound = errors.New("voice: clip not found")

// Clip is one synthesized audio segment held for playback.
type Clip struct {
	ID          string
	SessionID   string
	ContentType string
	Audio       []byte
	CreatedAt   time.Time
}

// ClipStore holds synthesized audio in process memory until the widget
// fetches it. Clips are small and short-lived; an eviction sweep keeps
// the store from growing past maxClips.
type ClipStore struct {
	mu       sync.Mutex
	clips    map[string]*Clip
	order    []string
	maxClips int
}

const defaultMaxClips = 512

// NewClipStore creates an empty clip store.
func NewClipStore() *ClipStore {
	return &ClipStore{
		clips:    make(map[string]*Clip),
		maxClips: defaultMaxClips,
	}
}

// Put stores audio and returns the clip id used to fetch it.
func (s *ClipStore) Put(sessionID, contentType string, audio []byte) string {
	clip := &Clip{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		ContentType: contentType,
		Audio:       audio,
		CreatedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clips[clip.ID] = clip
	s.order = append(s.order, clip.ID)
	for len(s.order) > s.maxClips {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.clips, oldest)
	}
	return clip.ID
}

// Get returns a stored clip by id.
func (s *ClipStore) Get(id string) (*Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clip, ok := s.clips[id]
	if !ok {
		return nil, ErrClipNotFound
	}
	return clip, nil
}

// Len reports how many clips are held.
func (s *ClipStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clips)
}
