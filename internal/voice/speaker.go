package voice

import (
	"context"
	"strings"

	"github.com/leadpilot/leadpilot/internal/session"
	"github.com/leadpilot/leadpilot/pkg/logging"
)

type synthesisAPI interface {
	Synthesize(ctx context.Context, text, voiceID string, speed float64) ([]byte, error)
}

// Speaker renders reply text to audio and parks the result in the clip
// store, returning a URL the widget can stream from.
type Speaker struct {
	client        synthesisAPI
	clips         *ClipStore
	publicBaseURL string
	logger        *logging.Logger
}

// NewSpeaker creates a Speaker. publicBaseURL is the externally
// reachable origin the clip URLs are built on.
func NewSpeaker(client synthesisAPI, clips *ClipStore, publicBaseURL string, logger *logging.Logger) *Speaker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Speaker{
		client:        client,
		clips:         clips,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

// Synthesize decorates the text for the intent's tone, renders it, and
// returns the clip URL.
func (s *Speaker) Synthesize(ctx context.Context, text, intent string, settings session.VoiceSettings) (string, error) {
	decorated := Decorate(text, ToneForIntent(intent))
	audio, err := s.client.Synthesize(ctx, decorated, settings.VoiceID, settings.PlaybackSpeed)
	if err != nil {
		return "", err
	}
	id := s.clips.Put("", "audio/mpeg", audio)
	return s.publicBaseURL + "/voice/clips/" + id, nil
}
