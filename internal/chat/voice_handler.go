package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/leadpilot/leadpilot/internal/convo"
	"github.com/leadpilot/leadpilot/internal/session"
	"github.com/leadpilot/leadpilot/internal/voice"
	"github.com/leadpilot/leadpilot/pkg/logging"
)

// maxRecordingBytes bounds uploaded audio (10 MiB covers ~5 minutes of
// compressed speech, far beyond a chat utterance).
const maxRecordingBytes = 10 << 20

// Transcriber converts recorded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, fileName string) (*voice.Transcription, error)
}

// VoiceHandler exposes the voice pipeline over HTTP: transcription,
// voice enable/settings, the playback queue, and clip streaming.
type VoiceHandler struct {
	engine      Engine
	transcriber Transcriber
	queue       *voice.QueueManager
	clips       *voice.ClipStore
	logger      *logging.Logger
}

// NewVoiceHandler creates a voice handler. transcriber may be nil when
// no speech provider is configured; transcription then returns 503.
func NewVoiceHandler(engine Engine, transcriber Transcriber, queue *voice.QueueManager, clips *voice.ClipStore, logger *logging.Logger) *VoiceHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &VoiceHandler{
		engine:      engine,
		transcriber: transcriber,
		queue:       queue,
		clips:       clips,
		logger:      logger,
	}
}

// HandleTranscribe accepts a recorded utterance, transcribes it, and
// runs the transcript through the conversation engine.
func (h *VoiceHandler) HandleTranscribe(w http.ResponseWriter, r *http.Request) {
	if h.transcriber == nil {
		http.Error(w, "speech-to-text is not configured", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session")

	if err := r.ParseMultipartForm(maxRecordingBytes); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "audio file required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxRecordingBytes))
	if err != nil {
		http.Error(w, "failed to read audio", http.StatusBadRequest)
		return
	}

	tr, err := h.transcriber.Transcribe(r.Context(), audio, header.Filename)
	if err != nil {
		h.logger.Error("voice: transcription failed", "session_id", sessionID, "error", err)
		http.Error(w, "transcription failed", http.StatusBadGateway)
		return
	}

	res, err := h.engine.ProcessMessage(r.Context(), sessionID, "", &convo.VoiceInput{
		Transcript: tr.Text,
		Confidence: tr.Confidence,
	})
	if err != nil {
		h.logger.Error("voice: turn failed", "session_id", sessionID, "error", err)
		http.Error(w, "failed to process transcript", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Transcript string  `json:"transcript"`
		Confidence float64 `json:"confidence"`
		*convo.TurnResult
	}{
		Transcript: tr.Text,
		Confidence: tr.Confidence,
		TurnResult: res,
	})
}

// HandleEnable turns voice mode on or off for a session.
func (h *VoiceHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Enabled   bool   `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.SessionID) == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}

	vs, err := h.queue.SetEnabled(r.Context(), req.SessionID, req.Enabled)
	if err != nil {
		h.logger.Error("voice: enable failed", "session_id", req.SessionID, "error", err)
		http.Error(w, "failed to update voice state", http.StatusInternalServerError)
		return
	}
	writeVoiceState(w, vs)
}

// HandleState returns the session's voice state.
func (h *VoiceHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	vs, err := h.queue.State(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, voice.ErrNoVoiceState) {
			http.Error(w, "voice not enabled for session", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load voice state", http.StatusInternalServerError)
		return
	}
	writeVoiceState(w, vs)
}

// HandleSettings replaces a session's playback settings.
func (h *VoiceHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string                `json:"session_id"`
		Settings  session.VoiceSettings `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.SessionID) == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}

	vs, err := h.queue.UpdateSettings(r.Context(), req.SessionID, req.Settings)
	if err != nil {
		h.logger.Error("voice: settings update failed", "session_id", req.SessionID, "error", err)
		http.Error(w, "failed to update settings", http.StatusInternalServerError)
		return
	}
	writeVoiceState(w, vs)
}

// HandleQueueNext pops the next clip URL for the widget to play.
func (h *VoiceHandler) HandleQueueNext(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.SessionID) == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}

	url, err := h.queue.Next(r.Context(), req.SessionID)
	if err != nil {
		if errors.Is(err, voice.ErrNoVoiceState) {
			http.Error(w, "voice not enabled for session", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to advance queue", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"url": url})
}

// HandleQueueDone marks the current clip finished.
func (h *VoiceHandler) HandleQueueDone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.SessionID) == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}

	if err := h.queue.Done(r.Context(), req.SessionID); err != nil {
		if errors.Is(err, voice.ErrNoVoiceState) {
			http.Error(w, "voice not enabled for session", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to release playback", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleClip streams a synthesized audio clip.
func (h *VoiceHandler) HandleClip(w http.ResponseWriter, r *http.Request) {
	clipID := chi.URLParam(r, "clipID")
	clip, err := h.clips.Get(clipID)
	if err != nil {
		http.Error(w, "clip not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", clip.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(clip.Audio)
}

func writeVoiceState(w http.ResponseWriter, vs *session.VoiceState) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"session_id":    vs.SessionID,
		"voice_enabled": vs.VoiceEnabled,
		"is_recording":  vs.IsRecording,
		"is_playing":    vs.IsPlaying,
		"settings":      vs.Settings,
		"queue_length":  len(vs.AudioQueue),
	})
}
