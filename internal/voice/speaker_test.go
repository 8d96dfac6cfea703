package voice

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leadpilot/leadpilot/internal/session"
)

type fakeSynthesisAPI struct {
	gotText  string
	gotVoice string
	audio    []byte
	err      error
}

func (f *fakeSynthesisAPI) Synthesize(_ context.Context, text, voiceID string, _ float64) ([]byte, error) {
	f.gotText = text
	f.gotVoice = voiceID
	return f.audio, f.err
}

func TestSpeakerSynthesize(t *testing.T) {
	api := &fakeSynthesisAPI{audio: []byte("mp3")}
	clips := NewClipStore()
	sp := NewSpeaker(api, clips, "https://app.leadpilot.io/", nil)

	url, err := sp.Synthesize(context.Background(), "One. Two.", "pricing_inquiry", session.VoiceSettings{VoiceID: "v1", PlaybackSpeed: 1.0})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(url, "https://app.leadpilot.io/voice/clips/") {
		t.Errorf("url = %q", url)
	}
	if api.gotVoice != "v1" {
		t.Errorf("voice id = %q", api.gotVoice)
	}
	// Text should be decorated with the professional tone before synthesis.
	if !strings.Contains(api.gotText, `<break time="0.4s" />`) {
		t.Errorf("synthesized text = %q, want decorated", api.gotText)
	}

	id := url[strings.LastIndex(url, "/")+1:]
	clip, err := clips.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if string(clip.Audio) != "mp3" || clip.ContentType != "audio/mpeg" {
		t.Errorf("clip = %+v", clip)
	}
}

func TestSpeakerPropagatesErrors(t *testing.T) {
	api := &fakeSynthesisAPI{err: errors.New("boom")}
	sp := NewSpeaker(api, NewClipStore(), "http://x", nil)

	if _, err := sp.Synthesize(context.Background(), "hi", "general_inquiry", session.VoiceSettings{VoiceID: "v"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestClipStoreEviction(t *testing.T) {
	s := NewClipStore()
	s.maxClips = 3

	var first string
	for i := 0; i < 4; i++ {
		id := s.Put("sess", "audio/mpeg", []byte{byte(i)})
		if i == 0 {
			first = id
		}
	}
	if s.Len() != 3 {
		t.Errorf("len = %d, want 3", s.Len())
	}
	if _, err := s.Get(first); !errors.Is(err, ErrClipNotFound) {
		t.Errorf("oldest clip should be evicted, err = %v", err)
	}
}
