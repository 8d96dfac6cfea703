package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/leadpilot/leadpilot/internal/leads"
	"github.com/leadpilot/leadpilot/pkg/logging"
)

// LeadMailer emails the sales inbox whenever the engine qualifies a
// lead. It satisfies the engine's notifier contract.
type LeadMailer struct {
	sender  EmailSender
	salesTo string
	logger  *logging.Logger
}

// NewLeadMailer creates a lead mailer. Returns nil when there is no
// sales address to notify; callers treat a nil mailer as disabled.
func NewLeadMailer(sender EmailSender, salesTo string, logger *logging.Logger) *LeadMailer {
	if sender == nil || strings.TrimSpace(salesTo) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LeadMailer{sender: sender, salesTo: salesTo, logger: logger}
}

// NotifyLead sends the new-lead summary email.
func (m *LeadMailer) NotifyLead(ctx context.Context, lead *leads.Lead) error {
	if lead == nil {
		return errors.New("notify: lead is nil")
	}

	subject := fmt.Sprintf("New qualified lead: %s (score %d)", lead.Name, lead.Score)
	msg := EmailMessage{
		To:      m.salesTo,
		ToName:  "Sales",
		Subject: subject,
		Body:    leadSummaryText(lead),
		HTML:    leadSummaryHTML(lead),
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		return err
	}
	m.logger.Info("lead notification sent", "lead_id", lead.ID, "to", m.salesTo)
	return nil
}

func leadSummaryText(lead *leads.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A new lead qualified through the chat assistant.\n\n")
	fmt.Fprintf(&b, "Name:     %s\n", lead.Name)
	fmt.Fprintf(&b, "Email:    %s\n", lead.Email)
	if lead.Phone != "" {
		fmt.Fprintf(&b, "Phone:    %s\n", lead.Phone)
	}
	if lead.Company != "" {
		fmt.Fprintf(&b, "Company:  %s\n", lead.Company)
	}
	if lead.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", lead.Industry)
	}
	if lead.Goals != "" {
		fmt.Fprintf(&b, "Goals:    %s\n", lead.Goals)
	}
	fmt.Fprintf(&b, "Score:    %d\n", lead.Score)
	fmt.Fprintf(&b, "Source:   %s\n", lead.Source)
	if lead.Transcript != "" {
		fmt.Fprintf(&b, "\nRecent conversation:\n%s\n", lead.Transcript)
	}
	return b.String()
}

func leadSummaryHTML(lead *leads.Lead) string {
	row := func(label, value string) string {
		if value == "" {
			return ""
		}
		return fmt.Sprintf("<tr><td><b>%s</b></td><td>%s</td></tr>", label, html.EscapeString(value))
	}
	var b strings.Builder
	b.WriteString("<p>A new lead qualified through the chat assistant.</p><table>")
	b.WriteString(row("Name", lead.Name))
	b.WriteString(row("Email", lead.Email))
	b.WriteString(row("Phone", lead.Phone))
	b.WriteString(row("Company", lead.Company))
	b.WriteString(row("Industry", lead.Industry))
	b.WriteString(row("Goals", lead.Goals))
	b.WriteString(row("Score", fmt.Sprintf("%d", lead.Score)))
	b.WriteString(row("Source", lead.Source))
	b.WriteString("</table>")
	if lead.Transcript != "" {
		b.WriteString("<p><b>Recent conversation:</b></p><pre>")
		b.WriteString(html.EscapeString(lead.Transcript))
		b.WriteString("</pre>")
	}
	return b.String()
}
