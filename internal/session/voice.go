package session

// VoiceSettings holds the user-tunable playback configuration.
type VoiceSettings struct {
	VoiceID       string  `json:"voice_id"`
	AutoPlay      bool    `json:"auto_play"`
	PlaybackSpeed float64 `json:"playback_speed"`
	Volume        float64 `json:"volume"`
}

// DefaultVoiceSettings returns the settings used until the user changes them.
func DefaultVoiceSettings(voiceID string) VoiceSettings {
	return VoiceSettings{
		VoiceID:       voiceID,
		AutoPlay:      true,
		PlaybackSpeed: 1.0,
		Volume:        0.8,
	}
}

// VoiceState tracks device capture/playback for one session. It shares
// the session id with ConversationContext but has its own lifecycle:
// recording and playback flags reflect the local device, not the
// conversation.
type VoiceState struct {
	SessionID    string        `json:"session_id"`
	IsRecording  bool          `json:"is_recording"`
	IsPlaying    bool          `json:"is_playing"`
	VoiceEnabled bool          `json:"voice_enabled"`
	Settings     VoiceSettings `json:"settings"`
	// AudioQueue holds pending synthesized clip URLs. Playback consumes
	// from the head; synthesis appends to the tail.
	AudioQueue []string `json:"audio_queue"`
}

// NewVoiceState creates the lazy-initialized voice state for a session.
func NewVoiceState(sessionID, voiceID string) *VoiceState {
	return &VoiceState{
		SessionID: sessionID,
		Settings:  DefaultVoiceSettings(voiceID),
	}
}

// Clone returns a deep copy of the voice state.
func (v *VoiceState) Clone() *VoiceState {
	cp := *v
	cp.AudioQueue = append([]string(nil), v.AudioQueue...)
	return &cp
}

// WithEnqueued returns a copy with a clip URL appended to the queue.
func (v *VoiceState) WithEnqueued(url string) *VoiceState {
	cp := v.Clone()
	cp.AudioQueue = append(cp.AudioQueue, url)
	return cp
}

// WithDequeued returns a copy with the head clip removed and playback
// marked active. It is a no-op when the queue is empty or a clip is
// already playing.
func (v *VoiceState) WithDequeued() (*VoiceState, string) {
	if v.IsPlaying || len(v.AudioQueue) == 0 {
		return v.Clone(), ""
	}
	cp := v.Clone()
	head := cp.AudioQueue[0]
	cp.AudioQueue = cp.AudioQueue[1:]
	cp.IsPlaying = true
	return cp, head
}

// WithPlaybackDone returns a copy with playback cleared, releasing the
// next queued clip for consumption.
func (v *VoiceState) WithPlaybackDone() *VoiceState {
	cp := v.Clone()
	cp.IsPlaying = false
	return cp
}
