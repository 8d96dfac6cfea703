package convo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/leadpilot/leadpilot/internal/observability/metrics"
	"github.com/leadpilot/leadpilot/internal/session"
	"github.com/leadpilot/leadpilot/pkg/logging"
)

const systemPrompt = "You are the LeadPilot assistant, a warm, concise concierge for a small-business automation product. Answer questions about the product, its industry templates, pricing plans, and setup. Guide interested visitors toward sharing their goals and contact details naturally. Never invent features and keep replies under four sentences."

// ReplySource distinguishes how a turn's reply text was produced.
type ReplySource string

const (
	ReplyGenerated ReplySource = "generated"
	ReplyFallback  ReplySource = "fallback"
	ReplyVoiceFlow ReplySource = "voice_flow"
)

// Reply is the two-variant result of resolving a turn's response text:
// either the generative provider answered, or the deterministic
// rule-based path did. Callers branch on Source, not on errors.
type Reply struct {
	Text   string
	Source ReplySource
}

// VoiceInput carries a speech-to-text result into the text pipeline.
type VoiceInput struct {
	Transcript string
	Confidence float64
}

// TurnResult is everything the transport layer needs to render a turn.
type TurnResult struct {
	SessionID            string                       `json:"session_id"`
	Message              string                       `json:"message"`
	Source               ReplySource                  `json:"source"`
	Intent               Intent                       `json:"intent"`
	Confidence           float64                      `json:"confidence"`
	LeadScore            int                          `json:"lead_score"`
	Stage                string                       `json:"stage"`
	ShouldAskForLeadInfo bool                         `json:"should_ask_for_lead_info"`
	SuggestedQuestions   []string                     `json:"suggested_questions,omitempty"`
	Entities             []string                     `json:"entities,omitempty"`
	Context              *session.ConversationContext `json:"-"`
}

// SpeechSynthesizer turns reply text into a playable clip URL. The
// intent label lets the implementation pick a delivery tone.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, intent string, settings session.VoiceSettings) (string, error)
}

// Engine orchestrates a conversation turn: classification, extraction,
// reply resolution, scoring, qualification, and persistence.
type Engine struct {
	store     session.Store
	llm       LLMClient
	qualifier *Qualifier
	synth     SpeechSynthesizer
	metrics   *metrics.ConversationMetrics
	logger    *logging.Logger

	askScore     int
	qualifyScore int
}

// EngineConfig wires an Engine. LLM, Synth, Metrics may be nil; the
// engine degrades to rule-based replies and text-only turns.
type EngineConfig struct {
	Store        session.Store
	LLM          LLMClient
	Qualifier    *Qualifier
	Synth        SpeechSynthesizer
	Metrics      *metrics.ConversationMetrics
	Logger       *logging.Logger
	AskScore     int
	QualifyScore int
}

// NewEngine creates a conversation engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Store == nil {
		panic("convo: session store cannot be nil")
	}
	if cfg.Qualifier == nil {
		panic("convo: qualifier cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.AskScore <= 0 {
		cfg.AskScore = 60
	}
	if cfg.QualifyScore <= 0 {
		cfg.QualifyScore = 75
	}
	return &Engine{
		store:        cfg.Store,
		llm:          cfg.LLM,
		qualifier:    cfg.Qualifier,
		synth:        cfg.Synth,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		askScore:     cfg.AskScore,
		qualifyScore: cfg.QualifyScore,
	}
}

// ProcessMessage handles one conversation turn. A missing or unknown
// sessionID starts a fresh session; the result carries the session the
// turn actually landed in.
func (e *Engine) ProcessMessage(ctx context.Context, sessionID, message string, voice *VoiceInput) (*TurnResult, error) {
	start := time.Now()

	c, err := e.loadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sttConfidence := 0.0
	if voice != nil {
		sttConfidence = voice.Confidence
		if t := strings.TrimSpace(voice.Transcript); t != "" {
			message = t
		}
	}
	if strings.TrimSpace(message) == "" {
		if voice == nil {
			return nil, errors.New("convo: message is empty")
		}
		// Silence or unintelligible audio still completes the turn, so
		// the caller gets the clarification prompt instead of an error.
		message = "(inaudible)"
		sttConfidence = 0
	}

	var intent Intent
	var confidence float64
	if voice != nil {
		intent, confidence = ClassifyTranscript(message, sttConfidence)
	} else {
		intent, confidence = Classify(message)
	}

	entities := ExtractEntities(message)
	info := MergeEntities(c.Extracted, entities)
	info = CollectPainPoints(info, message)

	updated := c.WithExtracted(info).WithIntent(string(intent))
	if industry, ok := FirstIndustry(entities); ok {
		updated = updated.WithIndustry(industry)
	}
	updated = updated.WithTurn(session.Turn{
		Role:       session.RoleUser,
		Content:    message,
		Intent:     string(intent),
		Confidence: confidence,
		Entities:   Tags(entities),
	})

	voiceState, verr := e.store.GetVoice(ctx, updated.SessionID)
	if verr != nil {
		e.logger.Warn("voice state unavailable", "session_id", updated.SessionID, "error", verr)
		voiceState = nil
	}
	voiceEnabled := voiceState != nil && voiceState.VoiceEnabled

	reply := e.resolveReply(ctx, message, intent, updated, voiceEnabled, voiceState)

	updated = updated.WithTurn(session.Turn{
		Role:       session.RoleAssistant,
		Content:    reply.Text,
		Intent:     string(intent),
		Confidence: confidence,
	})

	score := Score(updated)
	updated = updated.WithScore(score)

	shouldAsk := score >= e.askScore &&
		(IsBuyingIntent(intent) || len(updated.History) >= 6) &&
		!updated.Extracted.HasContactInfo()

	// The qualifier runs on its own, higher threshold; both the ask
	// prompt and lead emission can fire in the same turn.
	var followUp string
	if score >= e.qualifyScore {
		updated, followUp = e.qualifier.Qualify(ctx, updated)
	}

	if err := e.store.Save(ctx, updated); err != nil {
		return nil, err
	}

	if voiceEnabled && e.synth != nil {
		// Audio is fire-and-forget: a synthesis failure never blocks
		// or delays the text reply.
		go e.queueAudio(updated.SessionID, reply.Text, string(intent))
	}

	questions := suggestedQuestions(intent)
	if followUp != "" {
		questions = append([]string{followUp}, questions...)
	}

	e.metrics.ObserveTurn(string(intent), string(reply.Source), time.Since(start).Seconds())

	return &TurnResult{
		SessionID:            updated.SessionID,
		Message:              reply.Text,
		Source:               reply.Source,
		Intent:               intent,
		Confidence:           confidence,
		LeadScore:            score,
		Stage:                Stage(updated),
		ShouldAskForLeadInfo: shouldAsk,
		SuggestedQuestions:   questions,
		Entities:             Tags(entities),
		Context:              updated,
	}, nil
}

func (e *Engine) loadOrCreate(ctx context.Context, sessionID string) (*session.ConversationContext, error) {
	if strings.TrimSpace(sessionID) == "" {
		return e.store.Create(ctx)
	}
	c, err := e.store.Get(ctx, sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		return e.store.Create(ctx)
	}
	return c, err
}

// resolveReply produces the turn's reply text. Voice-flow intents
// override the generative path entirely when voice is enabled.
func (e *Engine) resolveReply(ctx context.Context, message string, intent Intent, c *session.ConversationContext, voiceEnabled bool, voiceState *session.VoiceState) Reply {
	if voiceEnabled && IsVoiceIntent(intent) {
		return e.voiceFlowReply(ctx, intent, message, c, voiceState)
	}
	if intent == IntentClarification {
		return Reply{Text: GenerateFallback(intent, message, c.Industry), Source: ReplyFallback}
	}
	return e.generateReply(ctx, message, intent, c)
}

// generateReply asks the generative provider for the reply and falls
// back to the deterministic templates when it fails. The turn always
// completes either way.
func (e *Engine) generateReply(ctx context.Context, message string, intent Intent, c *session.ConversationContext) Reply {
	if e.llm == nil {
		return Reply{Text: GenerateFallback(intent, message, c.Industry), Source: ReplyFallback}
	}

	history := make([]ChatMessage, 0, len(c.History))
	for _, t := range c.History {
		role := ChatRoleUser
		if t.Role == session.RoleAssistant {
			role = ChatRoleAssistant
		}
		history = append(history, ChatMessage{Role: role, Content: t.Content})
	}

	resp, err := e.llm.Complete(ctx, LLMRequest{
		System:      []string{systemPrompt},
		Messages:    history,
		MaxTokens:   300,
		Temperature: 0.7,
	})
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		if err != nil {
			e.logger.Warn("generative reply failed, using rule-based fallback",
				"session_id", c.SessionID, "error", err)
		}
		e.metrics.ObserveLLMFallback()
		return Reply{Text: GenerateFallback(intent, message, c.Industry), Source: ReplyFallback}
	}
	return Reply{Text: resp.Text, Source: ReplyGenerated}
}

// voiceFlowReply handles the voice-specific intents: feature greeting,
// repeat-last-message, and settings adjustment acknowledgements.
func (e *Engine) voiceFlowReply(ctx context.Context, intent Intent, message string, c *session.ConversationContext, vs *session.VoiceState) Reply {
	switch intent {
	case IntentRepeat:
		for i := len(c.History) - 1; i >= 0; i-- {
			if c.History[i].Role == session.RoleAssistant {
				return Reply{Text: c.History[i].Content, Source: ReplyVoiceFlow}
			}
		}
		return Reply{Text: intentDefaults[IntentClarification], Source: ReplyVoiceFlow}
	case IntentVoiceSettings:
		adjusted, ack := adjustVoiceSettings(vs, message)
		if adjusted != nil {
			if err := e.store.SaveVoice(ctx, adjusted); err != nil {
				e.logger.Warn("failed to save voice settings", "session_id", c.SessionID, "error", err)
			}
		}
		return Reply{Text: ack, Source: ReplyVoiceFlow}
	default: // IntentVoiceInquiry
		return Reply{Text: intentDefaults[IntentVoiceInquiry], Source: ReplyVoiceFlow}
	}
}

// adjustVoiceSettings applies spoken volume/speed requests and returns
// the acknowledgement text. Returns a nil state when nothing changed.
func adjustVoiceSettings(vs *session.VoiceState, message string) (*session.VoiceState, string) {
	if vs == nil {
		return nil, intentDefaults[IntentVoiceSettings]
	}
	lower := strings.ToLower(message)
	cp := vs.Clone()
	switch {
	case strings.Contains(lower, "louder") || strings.Contains(lower, "turn up"):
		cp.Settings.Volume = clampUnit(cp.Settings.Volume + 0.1)
		return cp, "Sure, I've turned the volume up."
	case strings.Contains(lower, "quieter") || strings.Contains(lower, "turn down"):
		cp.Settings.Volume = clampUnit(cp.Settings.Volume - 0.1)
		return cp, "Okay, I've turned the volume down."
	case strings.Contains(lower, "slower"):
		cp.Settings.PlaybackSpeed = clampSpeed(cp.Settings.PlaybackSpeed - 0.25)
		return cp, "Got it, I'll speak a bit slower."
	case strings.Contains(lower, "faster"):
		cp.Settings.PlaybackSpeed = clampSpeed(cp.Settings.PlaybackSpeed + 0.25)
		return cp, "Got it, I'll speak a bit faster."
	}
	return nil, intentDefaults[IntentVoiceSettings]
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampSpeed(v float64) float64 {
	if v < 0.5 {
		return 0.5
	}
	if v > 2 {
		return 2
	}
	return v
}

// queueAudio synthesizes the reply and appends the clip URL to the
// session's playback queue. Runs detached from the request.
func (e *Engine) queueAudio(sessionID, text, intent string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	vs, err := e.store.GetVoice(ctx, sessionID)
	if err != nil || vs == nil {
		return
	}

	start := time.Now()
	url, err := e.synth.Synthesize(ctx, text, intent, vs.Settings)
	if err != nil {
		e.logger.Warn("speech synthesis failed", "session_id", sessionID, "error", err)
		return
	}
	e.metrics.ObserveSynthesis(time.Since(start).Seconds())

	// Reload before appending; playback may have advanced the queue
	// while synthesis was in flight.
	vs, err = e.store.GetVoice(ctx, sessionID)
	if err != nil || vs == nil {
		return
	}
	if err := e.store.SaveVoice(ctx, vs.WithEnqueued(url)); err != nil {
		e.logger.Warn("failed to enqueue audio", "session_id", sessionID, "error", err)
	}
}

var intentQuestions = map[Intent][]string{
	IntentPricing:  {"What's included in each plan?", "Is there a free trial?"},
	IntentTimeline: {"How fast can I launch?", "What does setup involve?"},
	IntentService:  {"Which industries do you have templates for?", "How does lead capture work?"},
	IntentIndustry: {"Can I see a demo for my industry?", "What results do similar businesses see?"},
	IntentLeadGen:  {"Can we schedule a demo?", "What happens after I sign up?"},
	IntentGeneral:  {"What does LeadPilot do?", "How much does it cost?"},
}

func suggestedQuestions(intent Intent) []string {
	if qs, ok := intentQuestions[intent]; ok {
		return append([]string(nil), qs...)
	}
	return append([]string(nil), intentQuestions[IntentGeneral]...)
}
