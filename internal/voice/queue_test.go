package voice

import (
	"context"
	"errors"
	"testing"

	"github.com/leadpilot/leadpilot/internal/session"
)

func newQueueFixture(t *testing.T) (*QueueManager, session.Store, string) {
	t.Helper()
	store := session.NewMemoryStore()
	c, err := store.Create(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return NewQueueManager(store, "default-voice", nil), store, c.SessionID
}

func TestSetEnabledCreatesState(t *testing.T) {
	m, store, sid := newQueueFixture(t)
	ctx := context.Background()

	vs, err := m.SetEnabled(ctx, sid, true)
	if err != nil {
		t.Fatal(err)
	}
	if !vs.VoiceEnabled || vs.Settings.VoiceID != "default-voice" {
		t.Errorf("state = %+v", vs)
	}

	saved, err := store.GetVoice(ctx, sid)
	if err != nil || saved == nil || !saved.VoiceEnabled {
		t.Errorf("persisted state = %+v, err = %v", saved, err)
	}
}

func TestQueuePlaybackCycle(t *testing.T) {
	m, store, sid := newQueueFixture(t)
	ctx := context.Background()

	if _, err := m.SetEnabled(ctx, sid, true); err != nil {
		t.Fatal(err)
	}
	vs, _ := store.GetVoice(ctx, sid)
	vs = vs.WithEnqueued("clip-1").WithEnqueued("clip-2")
	if err := store.SaveVoice(ctx, vs); err != nil {
		t.Fatal(err)
	}

	url, err := m.Next(ctx, sid)
	if err != nil || url != "clip-1" {
		t.Fatalf("first Next = (%q, %v)", url, err)
	}

	// A second pull while playing yields nothing.
	url, err = m.Next(ctx, sid)
	if err != nil || url != "" {
		t.Fatalf("Next during playback = (%q, %v)", url, err)
	}

	if err := m.Done(ctx, sid); err != nil {
		t.Fatal(err)
	}
	url, err = m.Next(ctx, sid)
	if err != nil || url != "clip-2" {
		t.Fatalf("Next after Done = (%q, %v)", url, err)
	}

	if err := m.Done(ctx, sid); err != nil {
		t.Fatal(err)
	}
	url, err = m.Next(ctx, sid)
	if err != nil || url != "" {
		t.Fatalf("Next on empty queue = (%q, %v)", url, err)
	}
}

func TestQueueRequiresVoiceState(t *testing.T) {
	m, _, sid := newQueueFixture(t)
	ctx := context.Background()

	if _, err := m.Next(ctx, sid); !errors.Is(err, ErrNoVoiceState) {
		t.Errorf("Next err = %v", err)
	}
	if err := m.Done(ctx, sid); !errors.Is(err, ErrNoVoiceState) {
		t.Errorf("Done err = %v", err)
	}
	if _, err := m.State(ctx, sid); !errors.Is(err, ErrNoVoiceState) {
		t.Errorf("State err = %v", err)
	}
}

func TestUpdateSettingsKeepsVoiceID(t *testing.T) {
	m, _, sid := newQueueFixture(t)
	ctx := context.Background()

	if _, err := m.SetEnabled(ctx, sid, true); err != nil {
		t.Fatal(err)
	}
	vs, err := m.UpdateSettings(ctx, sid, session.VoiceSettings{
		AutoPlay:      true,
		PlaybackSpeed: 1.5,
		Volume:        0.5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if vs.Settings.VoiceID != "default-voice" {
		t.Errorf("voice id = %q, want default preserved", vs.Settings.VoiceID)
	}
	if vs.Settings.PlaybackSpeed != 1.5 || vs.Settings.Volume != 0.5 {
		t.Errorf("settings = %+v", vs.Settings)
	}
}
