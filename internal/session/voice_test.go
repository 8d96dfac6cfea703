package session

import "testing"

func TestAudioQueueFIFO(t *testing.T) {
	v := NewVoiceState("s1", "voice-a")
	v.VoiceEnabled = true

	v = v.WithEnqueued("https://audio/one.mp3")
	v = v.WithEnqueued("https://audio/two.mp3")

	// First clip starts playing, second stays queued.
	v, head := v.WithDequeued()
	if head != "https://audio/one.mp3" {
		t.Fatalf("expected first clip, got %q", head)
	}
	if !v.IsPlaying {
		t.Error("expected playback active after dequeue")
	}
	if len(v.AudioQueue) != 1 || v.AudioQueue[0] != "https://audio/two.mp3" {
		t.Fatalf("expected second clip queued, got %v", v.AudioQueue)
	}

	// Second clip must not dequeue while the first is playing.
	v2, next := v.WithDequeued()
	if next != "" {
		t.Fatalf("expected no dequeue while playing, got %q", next)
	}
	if len(v2.AudioQueue) != 1 {
		t.Error("queue drained while playing")
	}

	// End-of-playback releases the next clip.
	v = v.WithPlaybackDone()
	v, next = v.WithDequeued()
	if next != "https://audio/two.mp3" {
		t.Fatalf("expected second clip after playback done, got %q", next)
	}
	if len(v.AudioQueue) != 0 {
		t.Error("expected empty queue")
	}
}

func TestDefaultVoiceSettings(t *testing.T) {
	s := DefaultVoiceSettings("voice-x")
	if s.VoiceID != "voice-x" || !s.AutoPlay || s.PlaybackSpeed != 1.0 || s.Volume != 0.8 {
		t.Fatalf("unexpected defaults %+v", s)
	}
}
