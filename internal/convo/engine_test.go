package convo

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/leadpilot/leadpilot/internal/leads"
	"github.com/leadpilot/leadpilot/internal/session"
)

type fakeLLM struct {
	text  string
	err   error
	calls atomic.Int64
}

func (f *fakeLLM) Complete(_ context.Context, _ LLMRequest) (LLMResponse, error) {
	f.calls.Add(1)
	if f.err != nil {
		return LLMResponse{}, f.err
	}
	return LLMResponse{Text: f.text}, nil
}

type fakeSynth struct {
	url string
	err error
}

func (f *fakeSynth) Synthesize(_ context.Context, _, _ string, _ session.VoiceSettings) (string, error) {
	return f.url, f.err
}

func newTestEngine(t *testing.T, llm LLMClient, synth SpeechSynthesizer) (*Engine, session.Store, *leads.InMemoryRepository) {
	t.Helper()
	store := session.NewMemoryStore()
	repo := leads.NewInMemoryRepository()
	q := NewQualifier(repo, nil, nil, nil, nil)
	e := NewEngine(EngineConfig{
		Store:        store,
		LLM:          llm,
		Qualifier:    q,
		Synth:        synth,
		AskScore:     60,
		QualifyScore: 75,
	})
	return e, store, repo
}

func TestProcessMessageGeneratedReply(t *testing.T) {
	llm := &fakeLLM{text: "Plans start at $49 a month."}
	e, store, _ := newTestEngine(t, llm, nil)

	res, err := e.ProcessMessage(context.Background(), "", "What's your pricing?", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != ReplyGenerated || res.Message != llm.text {
		t.Errorf("reply = (%q, %s), want generated LLM text", res.Message, res.Source)
	}
	if res.Intent != IntentPricing || res.Confidence != 0.8 {
		t.Errorf("intent = (%s, %v)", res.Intent, res.Confidence)
	}
	if res.SessionID == "" {
		t.Fatal("no session allocated")
	}

	saved, err := store.Get(context.Background(), res.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved.History) != 2 {
		t.Errorf("saved history length = %d, want user+assistant", len(saved.History))
	}
	if saved.CurrentIntent != string(IntentPricing) {
		t.Errorf("saved intent = %q", saved.CurrentIntent)
	}
}

func TestProcessMessageFallsBackWhenLLMFails(t *testing.T) {
	e, _, _ := newTestEngine(t, &fakeLLM{err: errors.New("provider down")}, nil)

	res, err := e.ProcessMessage(context.Background(), "", "What's your pricing for a website?", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != ReplyFallback {
		t.Errorf("source = %s, want fallback", res.Source)
	}
	// Pricing question naming the product's medium still gets the
	// pricing template, and yields no entities.
	if res.Message != intentDefaults[IntentPricing] {
		t.Errorf("fallback reply = %q, want pricing default", res.Message)
	}
	if len(res.Entities) != 0 {
		t.Errorf("entities = %v, want none", res.Entities)
	}
}

func TestProcessMessageNoLLMConfigured(t *testing.T) {
	e, _, _ := newTestEngine(t, nil, nil)

	res, err := e.ProcessMessage(context.Background(), "", "do you build chatbots", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != ReplyFallback || res.Message != serviceDescriptions["chatbot"] {
		t.Errorf("reply = (%q, %s)", res.Message, res.Source)
	}
}

func TestProcessMessageExtractsEntities(t *testing.T) {
	e, store, _ := newTestEngine(t, &fakeLLM{text: "Noted!"}, nil)

	res, err := e.ProcessMessage(context.Background(), "", "I'm Jane, reach me at jane@acme.com", nil)
	if err != nil {
		t.Fatal(err)
	}
	saved, _ := store.Get(context.Background(), res.SessionID)
	if saved.Extracted.Email != "jane@acme.com" || saved.Extracted.Name != "Jane" {
		t.Errorf("extracted = %+v", saved.Extracted)
	}
	found := false
	for _, tag := range res.Entities {
		if tag == "email:jane@acme.com" {
			found = true
		}
	}
	if !found {
		t.Errorf("entities = %v, missing email tag", res.Entities)
	}
}

func TestProcessMessageRejectsEmpty(t *testing.T) {
	e, _, _ := newTestEngine(t, nil, nil)
	if _, err := e.ProcessMessage(context.Background(), "", "   ", nil); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestProcessMessageUnknownSessionStartsFresh(t *testing.T) {
	e, _, _ := newTestEngine(t, nil, nil)
	res, err := e.ProcessMessage(context.Background(), "no-such-session", "hello", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.SessionID == "" || res.SessionID == "no-such-session" {
		t.Errorf("session id = %q, want freshly allocated", res.SessionID)
	}
}

// TestQualificationJourney drives a full conversation from first contact
// to an emitted lead, checking the ask-for-info gate and the field
// prompts along the way.
func TestQualificationJourney(t *testing.T) {
	e, _, repo := newTestEngine(t, &fakeLLM{text: "Happy to help!"}, nil)
	ctx := context.Background()

	res, err := e.ProcessMessage(ctx, "", "I run a spa and we're overwhelmed with no-shows", nil)
	if err != nil {
		t.Fatal(err)
	}
	sid := res.SessionID
	if res.ShouldAskForLeadInfo {
		t.Error("ask gate open on first turn")
	}
	if res.Context.Industry != "spa" {
		t.Errorf("industry = %q", res.Context.Industry)
	}

	res, err = e.ProcessMessage(ctx, sid, "What's your pricing? Our budget is $300 and we need it asap", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.ShouldAskForLeadInfo {
		t.Errorf("ask gate closed at score %d with buying intent", res.LeadScore)
	}
	if res.LeadScore < 75 {
		t.Fatalf("score = %d, expected qualification threshold crossed", res.LeadScore)
	}
	if len(res.SuggestedQuestions) == 0 || res.SuggestedQuestions[0] != fieldPrompts["email"] {
		t.Errorf("suggested = %v, want email prompt first", res.SuggestedQuestions)
	}
	if res.Context.LeadCreated {
		t.Fatal("lead emitted without contact info")
	}

	res, err = e.ProcessMessage(ctx, sid, "Sure, it's jane@acme.com", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.ShouldAskForLeadInfo {
		t.Error("ask gate still open after contact info arrived")
	}

	res, err = e.ProcessMessage(ctx, sid, "My company is Glow Spa", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Context.Extracted.Company != "Glow Spa" {
		t.Errorf("company = %q", res.Context.Extracted.Company)
	}

	res, err = e.ProcessMessage(ctx, sid, "You can call me at 555-123-4567", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Context.LeadCreated {
		t.Fatalf("lead not created; score=%d extracted=%+v", res.LeadScore, res.Context.Extracted)
	}
	if res.Stage != StageQualified {
		t.Errorf("stage = %s", res.Stage)
	}

	all, _ := repo.List(ctx)
	if len(all) != 1 {
		t.Fatalf("leads = %d, want 1", len(all))
	}
	lead := all[0]
	if lead.Email != "jane@acme.com" || lead.Company != "Glow Spa" || lead.Industry != "spa" {
		t.Errorf("lead = %+v", lead)
	}
	if lead.Transcript == "" {
		t.Error("lead transcript empty")
	}

	// Further turns never emit a second lead.
	if _, err := e.ProcessMessage(ctx, sid, "Also our budget could go to $1000 asap", nil); err != nil {
		t.Fatal(err)
	}
	all, _ = repo.List(ctx)
	if len(all) != 1 {
		t.Fatalf("duplicate lead emitted, total %d", len(all))
	}
}

func TestProcessMessageLowConfidenceTranscript(t *testing.T) {
	llm := &fakeLLM{text: "should not be used"}
	e, _, _ := newTestEngine(t, llm, nil)

	res, err := e.ProcessMessage(context.Background(), "", "garbled noise", &VoiceInput{
		Transcript: "whats your pricing",
		Confidence: 0.2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Intent != IntentClarification {
		t.Errorf("intent = %s, want clarification_needed", res.Intent)
	}
	if res.Message != intentDefaults[IntentClarification] {
		t.Errorf("reply = %q, want clarification default", res.Message)
	}
	if llm.calls.Load() != 0 {
		t.Error("generative provider consulted for a clarification turn")
	}
}

func TestProcessMessageSilentRecording(t *testing.T) {
	// An empty transcript from a successful STT call is not an error;
	// the visitor gets asked to try again.
	llm := &fakeLLM{text: "should not be used"}
	e, _, _ := newTestEngine(t, llm, nil)

	res, err := e.ProcessMessage(context.Background(), "", "", &VoiceInput{
		Transcript: "",
		Confidence: 0.9,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Intent != IntentClarification {
		t.Errorf("intent = %s, want clarification_needed", res.Intent)
	}
	if res.Message != intentDefaults[IntentClarification] {
		t.Errorf("reply = %q, want clarification default", res.Message)
	}
	if llm.calls.Load() != 0 {
		t.Error("generative provider consulted for a silent recording")
	}
}

func TestProcessMessageVoiceRepeat(t *testing.T) {
	e, store, _ := newTestEngine(t, &fakeLLM{text: "We have three plans."}, &fakeSynth{url: "https://audio/clip1.mp3"})
	ctx := context.Background()

	res, err := e.ProcessMessage(ctx, "", "What plans do you offer?", nil)
	if err != nil {
		t.Fatal(err)
	}
	sid := res.SessionID

	vs := session.NewVoiceState(sid, "default-voice")
	vs.VoiceEnabled = true
	if err := store.SaveVoice(ctx, vs); err != nil {
		t.Fatal(err)
	}

	res, err = e.ProcessMessage(ctx, sid, "", &VoiceInput{Transcript: "can you repeat that", Confidence: 0.95})
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != ReplyVoiceFlow {
		t.Errorf("source = %s, want voice_flow", res.Source)
	}
	if res.Message != "We have three plans." {
		t.Errorf("repeat reply = %q, want previous assistant message", res.Message)
	}

	// The voice-flow reply gets synthesized and queued.
	waitFor(t, func() bool {
		got, err := store.GetVoice(ctx, sid)
		return err == nil && got != nil && len(got.AudioQueue) > 0
	})
}

func TestProcessMessageVoiceSettingsAdjustment(t *testing.T) {
	e, store, _ := newTestEngine(t, nil, nil)
	ctx := context.Background()

	c, err := store.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	vs := session.NewVoiceState(c.SessionID, "default-voice")
	vs.VoiceEnabled = true
	if err := store.SaveVoice(ctx, vs); err != nil {
		t.Fatal(err)
	}

	res, err := e.ProcessMessage(ctx, c.SessionID, "please speak slower", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != ReplyVoiceFlow || res.Intent != IntentVoiceSettings {
		t.Errorf("got (%s, %s)", res.Source, res.Intent)
	}

	got, err := store.GetVoice(ctx, c.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Settings.PlaybackSpeed >= 1.0 {
		t.Errorf("playback speed = %v, want reduced", got.Settings.PlaybackSpeed)
	}
}

func TestVoiceIntentsIgnoredWithoutVoiceEnabled(t *testing.T) {
	// "talk to me" style messages from a text-only session go through
	// the normal reply path.
	e, _, _ := newTestEngine(t, nil, nil)
	res, err := e.ProcessMessage(context.Background(), "", "can you speak to me out loud", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source == ReplyVoiceFlow {
		t.Error("voice flow engaged without voice state")
	}
	if res.Message != intentDefaults[IntentVoiceInquiry] {
		t.Errorf("reply = %q, want voice inquiry default", res.Message)
	}
}

func TestSuggestedQuestionsAreCopies(t *testing.T) {
	a := suggestedQuestions(IntentPricing)
	a[0] = "mutated"
	b := suggestedQuestions(IntentPricing)
	if b[0] == "mutated" {
		t.Error("suggestedQuestions shares backing array")
	}
}
