package voice

import (
	"context"
	"errors"

	"github.com/leadpilot/leadpilot/internal/session"
	"github.com/leadpilot/leadpilot/pkg/logging"
)

// ErrNoVoiceState is returned when a session has never enabled voice.
var ErrNoVoiceState = errors.New("voice: session has no voice state")

// QueueManager mediates the widget's playback loop over the session
// store: enabling voice, pulling the next clip, and releasing playback.
// The queue is strictly FIFO with a single consumer; a clip only plays
// once the previous one reports done.
type QueueManager struct {
	store          session.Store
	defaultVoiceID string
	logger         *logging.Logger
}

// NewQueueManager creates a queue manager.
func NewQueueManager(store session.Store, defaultVoiceID string, logger *logging.Logger) *QueueManager {
	if logger == nil {
		logger = logging.Default()
	}
	return &QueueManager{
		store:          store,
		defaultVoiceID: defaultVoiceID,
		logger:         logger,
	}
}

// SetEnabled turns voice on or off for a session, creating the state on
// first use. The returned state is the persisted value.
func (m *QueueManager) SetEnabled(ctx context.Context, sessionID string, enabled bool) (*session.VoiceState, error) {
	vs, err := m.store.GetVoice(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if vs == nil {
		vs = session.NewVoiceState(sessionID, m.defaultVoiceID)
	}
	vs = vs.Clone()
	vs.VoiceEnabled = enabled
	if err := m.store.SaveVoice(ctx, vs); err != nil {
		return nil, err
	}
	return vs, nil
}

// State returns the session's voice state, or ErrNoVoiceState.
func (m *QueueManager) State(ctx context.Context, sessionID string) (*session.VoiceState, error) {
	vs, err := m.store.GetVoice(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if vs == nil {
		return nil, ErrNoVoiceState
	}
	return vs, nil
}

// Next pops the next clip URL for playback. It returns empty when the
// queue is empty or a clip is already playing.
func (m *QueueManager) Next(ctx context.Context, sessionID string) (string, error) {
	vs, err := m.store.GetVoice(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if vs == nil {
		return "", ErrNoVoiceState
	}
	updated, url := vs.WithDequeued()
	if url == "" {
		return "", nil
	}
	if err := m.store.SaveVoice(ctx, updated); err != nil {
		return "", err
	}
	return url, nil
}

// Done marks the current clip finished, releasing the next one.
func (m *QueueManager) Done(ctx context.Context, sessionID string) error {
	vs, err := m.store.GetVoice(ctx, sessionID)
	if err != nil {
		return err
	}
	if vs == nil {
		return ErrNoVoiceState
	}
	return m.store.SaveVoice(ctx, vs.WithPlaybackDone())
}

// UpdateSettings replaces the session's playback settings.
func (m *QueueManager) UpdateSettings(ctx context.Context, sessionID string, settings session.VoiceSettings) (*session.VoiceState, error) {
	vs, err := m.store.GetVoice(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if vs == nil {
		vs = session.NewVoiceState(sessionID, m.defaultVoiceID)
	}
	vs = vs.Clone()
	if settings.VoiceID == "" {
		settings.VoiceID = vs.Settings.VoiceID
	}
	vs.Settings = settings
	if err := m.store.SaveVoice(ctx, vs); err != nil {
		return nil, err
	}
	return vs, nil
}

// SetRecording flips the capture flag for a session.
func (m *QueueManager) SetRecording(ctx context.Context, sessionID string, recording bool) error {
	vs, err := m.store.GetVoice(ctx, sessionID)
	if err != nil {
		return err
	}
	if vs == nil {
		return ErrNoVoiceState
	}
	vs = vs.Clone()
	vs.IsRecording = recording
	return m.store.SaveVoice(ctx, vs)
}
