package leads

import (
	"strings"
	"time"
)

// Lead represents a qualified prospect emitted by the conversation engine
// or submitted through the web form.
type Lead struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id,omitempty"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Company    string    `json:"company,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Industry   string    `json:"industry,omitempty"`
	Goals      string    `json:"goals,omitempty"`
	Message    string    `json:"message,omitempty"`
	Source     string    `json:"source"`
	Score      int       `json:"score"`
	Transcript string    `json:"transcript,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateLeadRequest represents the request body for creating a lead
type CreateLeadRequest struct {
	SessionID  string `json:"session_id,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Company    string `json:"company,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Industry   string `json:"industry,omitempty"`
	Goals      string `json:"goals,omitempty"`
	Message    string `json:"message,omitempty"`
	Source     string `json:"source"`
	Score      int    `json:"score"`
	Transcript string `json:"transcript,omitempty"`
}

// Validate validates the create lead request
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.Email == "" && r.Phone == "" {
		return ErrMissingContact
	}
	return nil
}
