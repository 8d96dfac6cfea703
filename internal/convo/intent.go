package convo

import "regexp"

// Intent is a coarse label for what the user is trying to accomplish.
type Intent string

const (
	IntentPricing       Intent = "pricing_inquiry"
	IntentTimeline      Intent = "timeline_inquiry"
	IntentService       Intent = "service_inquiry"
	IntentLeadGen       Intent = "lead_generation"
	IntentIndustry      Intent = "industry_inquiry"
	IntentVoiceInquiry  Intent = "voice_inquiry"
	IntentVoiceSettings Intent = "voice_settings"
	IntentRepeat        Intent = "repeat_request"
	IntentClarification Intent = "clarification_needed"
	IntentGeneral       Intent = "general_inquiry"
)

// minTranscriptConfidence is the speech-to-text confidence below which
// the turn is forced to clarification_needed regardless of its text.
const minTranscriptConfidence = 0.5

type intentRule struct {
	re         *regexp.Regexp
	intent     Intent
	confidence float64
}

// Voice rules run before the text rules and short-circuit them, so a
// "can you repeat that" never lands in general_inquiry.
var voiceIntentRules = []intentRule{
	{regexp.MustCompile(`(?i)\b(repeat that|say (?:that|it) again|didn'?t catch|come again|one more time)\b`), IntentRepeat, 0.9},
	{regexp.MustCompile(`(?i)\b(volume|louder|quieter|slower|faster|playback speed|mute|turn (?:up|down))\b`), IntentVoiceSettings, 0.85},
	{regexp.MustCompile(`(?i)\b(voice|speak to me|talk to me|read (?:it|that) (?:aloud|out)|audio|text.to.speech)\b`), IntentVoiceInquiry, 0.8},
}

// Ordered keyword classes; first match wins. Confidence is a fixed
// constant per class, not a score across matches.
var textIntentRules = []intentRule{
	{regexp.MustCompile(`(?i)\b(price|pricing|cost|how much|rates?|fees?|quote|plans?)\b`), IntentPricing, 0.8},
	{regexp.MustCompile(`(?i)\b(how long|how soon|timeline|turnaround|when (?:can|could|will)|time frame|timeframe)\b`), IntentTimeline, 0.75},
	{regexp.MustCompile(`(?i)\b(call me|contact me|reach out|get started|sign ?up|book a demo|schedule a demo|talk to (?:someone|sales)|ready to (?:buy|start))\b`), IntentLeadGen, 0.85},
	{regexp.MustCompile(`(?i)\b(my (?:business|company|firm|practice|studio|salon|shop)|we(?:'re| are) an?\b|i (?:run|own|manage) an?\b|our industry)\b`), IntentIndustry, 0.7},
	{regexp.MustCompile(`(?i)\b(services?|offer(?:ings?)?|features?|automation|chatbot|websites?|booking|scheduling|do you (?:do|have|provide|build))\b`), IntentService, 0.7},
}

// Classify maps free text to an intent and a fixed confidence. It never
// fails; unmatched text is general_inquiry at 0.5.
func Classify(text string) (Intent, float64) {
	for _, rule := range voiceIntentRules {
		if rule.re.MatchString(text) {
			return rule.intent, rule.confidence
		}
	}
	for _, rule := range textIntentRules {
		if rule.re.MatchString(text) {
			return rule.intent, rule.confidence
		}
	}
	return IntentGeneral, 0.5
}

// ClassifyTranscript classifies speech input. A low transcription
// confidence overrides the text entirely: the user needs to be asked to
// repeat, whatever the transcript happens to say.
func ClassifyTranscript(text string, transcriptConfidence float64) (Intent, float64) {
	if transcriptConfidence < minTranscriptConfidence {
		return IntentClarification, 0.9
	}
	return Classify(text)
}

// IsVoiceIntent reports whether the intent belongs to the voice flow.
func IsVoiceIntent(intent Intent) bool {
	switch intent {
	case IntentVoiceInquiry, IntentVoiceSettings, IntentRepeat:
		return true
	}
	return false
}

// IsBuyingIntent reports whether the intent signals purchase interest,
// used by the ask-for-lead-info gate.
func IsBuyingIntent(intent Intent) bool {
	switch intent {
	case IntentPricing, IntentTimeline, IntentLeadGen:
		return true
	}
	return false
}
