package voice

import (
	"regexp"
	"strings"
)

// Tone selects how reply text is marked up before synthesis.
type Tone string

const (
	ToneProfessional   Tone = "professional"
	ToneEnthusiastic   Tone = "enthusiastic"
	ToneConversational Tone = "conversational"
	TonePatient        Tone = "patient"
	ToneClear          Tone = "clear"
)

var (
	markdownRE   = regexp.MustCompile("[*_`#]+")
	urlRE        = regexp.MustCompile(`https?://\S+`)
	whitespaceRE = regexp.MustCompile(`\s+`)
	sentenceRE   = regexp.MustCompile(`([.!?])\s+`)
)

// tonePauses maps each tone to the inter-sentence break the synthesizer
// should honor. Patient and clear tones slow the cadence; enthusiastic
// barely pauses at all.
var tonePauses = map[Tone]string{
	ToneProfessional:   `<break time="0.4s" />`,
	ToneEnthusiastic:   `<break time="0.2s" />`,
	ToneConversational: `<break time="0.3s" />`,
	TonePatient:        `<break time="0.7s" />`,
	ToneClear:          `<break time="0.6s" />`,
}

// Decorate prepares chat reply text for speech: it strips markup that
// would be read aloud and inserts tone-appropriate pauses between
// sentences. It is pure; the same input always yields the same output.
func Decorate(text string, tone Tone) string {
	s := urlRE.ReplaceAllString(text, "the link on screen")
	s = markdownRE.ReplaceAllString(s, "")
	s = whitespaceRE.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	pause, ok := tonePauses[tone]
	if !ok {
		pause = tonePauses[ToneConversational]
	}
	return sentenceRE.ReplaceAllString(s, "${1} "+pause+" ")
}

// ToneForIntent picks a delivery tone from the turn's intent label.
func ToneForIntent(intent string) Tone {
	switch intent {
	case "pricing_inquiry", "timeline_inquiry":
		return ToneProfessional
	case "lead_generation":
		return ToneEnthusiastic
	case "clarification_needed", "repeat_request":
		return TonePatient
	case "voice_settings", "voice_inquiry":
		return ToneClear
	default:
		return ToneConversational
	}
}
