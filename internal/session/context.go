package session

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single message in a conversation, with optional classifier
// and voice metadata attached by the engine.
type Turn struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Intent     string    `json:"intent,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Entities   []string  `json:"entities,omitempty"`
	AudioURL   string    `json:"audio_url,omitempty"`
}

// ExtractedInfo is the contact and qualification detail gathered
// opportunistically from user turns. Fields are overwritten whenever a
// newer entity of the same kind is found (last write wins).
type ExtractedInfo struct {
	Name             string   `json:"name,omitempty"`
	Email            string   `json:"email,omitempty"`
	Company          string   `json:"company,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	Budget           string   `json:"budget,omitempty"`
	Timeline         string   `json:"timeline,omitempty"`
	PainPoints       []string `json:"pain_points,omitempty"`
	Goals            []string `json:"goals,omitempty"`
	VoicePreference  string   `json:"voice_preference,omitempty"`
	PreferredVoiceID string   `json:"preferred_voice_id,omitempty"`
}

// HasContactInfo reports whether any direct contact detail was captured.
func (e ExtractedInfo) HasContactInfo() bool {
	return e.Email != "" || e.Phone != ""
}

// ConversationContext is the per-session qualification state. Mutating
// methods return a fresh copy; callers persist the result through a
// Store rather than editing shared state in place.
type ConversationContext struct {
	SessionID     string        `json:"session_id"`
	Industry      string        `json:"industry,omitempty"`
	CurrentIntent string        `json:"current_intent,omitempty"`
	LeadScore     int           `json:"lead_score"`
	History       []Turn        `json:"history"`
	Extracted     ExtractedInfo `json:"extracted"`
	LeadCreated   bool          `json:"lead_created"`
	LeadID        string        `json:"lead_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewContext creates an empty conversation context with a fresh session id.
func NewContext() *ConversationContext {
	now := time.Now().UTC()
	return &ConversationContext{
		SessionID: uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the context.
func (c *ConversationContext) Clone() *ConversationContext {
	cp := *c
	cp.History = make([]Turn, len(c.History))
	copy(cp.History, c.History)
	cp.Extracted.PainPoints = append([]string(nil), c.Extracted.PainPoints...)
	cp.Extracted.Goals = append([]string(nil), c.Extracted.Goals...)
	return &cp
}

// WithTurn returns a copy with the turn appended. History is append-only.
func (c *ConversationContext) WithTurn(turn Turn) *ConversationContext {
	cp := c.Clone()
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	cp.History = append(cp.History, turn)
	cp.UpdatedAt = turn.Timestamp
	return cp
}

// WithIntent returns a copy with the advisory current intent replaced.
func (c *ConversationContext) WithIntent(intent string) *ConversationContext {
	cp := c.Clone()
	cp.CurrentIntent = intent
	return cp
}

// WithIndustry returns a copy with the industry replaced. Later
// recognitions overwrite earlier ones; there is no reconciliation.
func (c *ConversationContext) WithIndustry(industry string) *ConversationContext {
	cp := c.Clone()
	cp.Industry = industry
	return cp
}

// WithScore returns a copy with the recomputed lead score.
func (c *ConversationContext) WithScore(score int) *ConversationContext {
	cp := c.Clone()
	cp.LeadScore = score
	return cp
}

// WithExtracted returns a copy with the extracted info replaced.
func (c *ConversationContext) WithExtracted(info ExtractedInfo) *ConversationContext {
	cp := c.Clone()
	cp.Extracted = info
	return cp
}

// WithLeadCreated marks the session as having emitted a lead. The flag
// is terminal: once set, no further lead may be emitted for the session.
func (c *ConversationContext) WithLeadCreated(leadID string) *ConversationContext {
	cp := c.Clone()
	cp.LeadCreated = true
	cp.LeadID = leadID
	return cp
}

// UserTurnCount counts the user turns in history.
func (c *ConversationContext) UserTurnCount() int {
	n := 0
	for _, t := range c.History {
		if t.Role == RoleUser {
			n++
		}
	}
	return n
}

// RecentTranscript renders the last n turns as a plain-text transcript
// for lead hand-off payloads.
func (c *ConversationContext) RecentTranscript(n int) string {
	turns := c.History
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := ""
	for _, t := range turns {
		if out != "" {
			out += "\n"
		}
		out += t.Role + ": " + t.Content
	}
	return out
}
