package convo

import (
	"context"

	"github.com/leadpilot/leadpilot/internal/leads"
	"github.com/leadpilot/leadpilot/internal/observability/metrics"
	"github.com/leadpilot/leadpilot/internal/session"
	"github.com/leadpilot/leadpilot/pkg/logging"
)

// Conversation stages, derived from context rather than stored.
const (
	StageNew        = "new"
	StageEngaged    = "engaged"
	StageQualifying = "qualifying"
	StageQualified  = "qualified"
)

// Score bands above which additional identifying fields become required.
const (
	companyRequiredScore = 70
	phoneRequiredScore   = 80
	qualifyingScore      = 50
	transcriptTurns      = 10
)

// Stage reports where a session sits in the qualification lifecycle.
// "qualified" is terminal: the idempotency flag never clears.
func Stage(c *session.ConversationContext) string {
	switch {
	case c.LeadCreated:
		return StageQualified
	case c.LeadScore >= qualifyingScore:
		return StageQualifying
	case len(c.History) > 0:
		return StageEngaged
	default:
		return StageNew
	}
}

// LeadNotifier announces a freshly created lead to the sales channel.
type LeadNotifier interface {
	NotifyLead(ctx context.Context, lead *leads.Lead) error
}

// Qualifier decides whether a scored session carries enough identifying
// information to emit a lead, and performs the hand-off when it does.
type Qualifier struct {
	repo     leads.Repository
	webhook  *leads.WebhookForwarder
	notifier LeadNotifier
	metrics  *metrics.ConversationMetrics
	logger   *logging.Logger
}

// NewQualifier creates a lead qualifier. webhook and notifier may be nil.
func NewQualifier(repo leads.Repository, webhook *leads.WebhookForwarder, notifier LeadNotifier, m *metrics.ConversationMetrics, logger *logging.Logger) *Qualifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &Qualifier{
		repo:     repo,
		webhook:  webhook,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

var fieldPrompts = map[string]string{
	"email":   "By the way, what's the best email address to send details to?",
	"company": "What's the name of your business? I can tailor recommendations to it.",
	"phone":   "Is there a phone number we can reach you at if that's easier?",
}

// MissingField returns the highest-priority identifying field still
// missing for the context's score band, or empty when the lead is
// complete. Email is always mandatory; company and phone phase in as
// the score rises.
func MissingField(c *session.ConversationContext) string {
	if c.Extracted.Email == "" {
		return "email"
	}
	if c.LeadScore > companyRequiredScore && c.Extracted.Company == "" {
		return "company"
	}
	if c.LeadScore > phoneRequiredScore && c.Extracted.Phone == "" {
		return "phone"
	}
	return ""
}

// Qualify attempts to emit a lead for a context whose score already
// cleared the creation threshold. It returns the (possibly updated)
// context and, when information is still missing, a single follow-up
// question naming the most critical absent field.
//
// Lead emission is idempotent per session: once LeadCreated is set, no
// further lead is emitted no matter how high the score climbs. Hand-off
// failures are lossy: logged, never retried, never blocking.
func (q *Qualifier) Qualify(ctx context.Context, c *session.ConversationContext) (*session.ConversationContext, string) {
	if c.LeadCreated {
		return c, ""
	}

	if field := MissingField(c); field != "" {
		return c, fieldPrompts[field]
	}

	name := c.Extracted.Name
	if name == "" {
		name = "Chat visitor"
	}

	req := &leads.CreateLeadRequest{
		SessionID:  c.SessionID,
		Name:       name,
		Email:      c.Extracted.Email,
		Company:    c.Extracted.Company,
		Phone:      c.Extracted.Phone,
		Industry:   c.Industry,
		Goals:      joinGoals(c.Extracted.Goals),
		Source:     "ai_chat",
		Score:      c.LeadScore,
		Transcript: c.RecentTranscript(transcriptTurns),
	}

	lead, err := q.repo.Create(ctx, req)
	if err != nil {
		q.logger.Error("lead creation failed", "session_id", c.SessionID, "error", err)
		q.metrics.ObserveLead("failed")
		return c, ""
	}

	q.logger.Info("lead qualified",
		"lead_id", lead.ID,
		"session_id", c.SessionID,
		"score", lead.Score,
	)
	q.metrics.ObserveLead("created")

	// Hand-off to CRM and sales notification run detached from the
	// turn: the conversation never waits on them and a failure only
	// costs us the forward, not the lead record.
	if q.webhook != nil {
		go func() {
			if err := q.webhook.Forward(context.Background(), lead); err != nil {
				q.logger.Error("crm hand-off failed", "lead_id", lead.ID, "error", err)
			}
		}()
	}
	if q.notifier != nil {
		go func() {
			if err := q.notifier.NotifyLead(context.Background(), lead); err != nil {
				q.logger.Error("lead notification failed", "lead_id", lead.ID, "error", err)
			}
		}()
	}

	return c.WithLeadCreated(lead.ID), ""
}

func joinGoals(goals []string) string {
	out := ""
	for _, g := range goals {
		if out != "" {
			out += ", "
		}
		out += g
	}
	return out
}
