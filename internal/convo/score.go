package convo

import (
	"regexp"
	"strings"

	"github.com/leadpilot/leadpilot/internal/session"
)

// Scoring weights. The scorer is additive-only: adverse signals never
// subtract, so a session's score is non-decreasing as history grows.
const (
	engagementPerTurn   = 5
	engagementCap       = 25
	specificityPerTurn  = 5
	specificityCap      = 20
	budgetBonus         = 20
	timelineBonus       = 15
	painPointBonus      = 8
	industryBonus       = 15
	companyBonus        = 10
	maxScore            = 100
	specificityLookback = 4
)

var (
	budgetRE      = regexp.MustCompile(`(?i)(\$\s?\d|budget|price range|willing to (?:pay|spend)|afford|invest(?:ing|ment)?)`)
	timelineRE    = regexp.MustCompile(`(?i)\b(asap|right away|urgent|this (?:week|month|quarter)|next (?:week|month|quarter)|by the end of|launch date|deadline|timeline)\b`)
	specificityRE = regexp.MustCompile(`(?i)\b(specifically|exactly|in particular|for example|such as|we need|i need|must have|requirements?|looking for)\b`)
	companyCtxRE  = regexp.MustCompile(`(?i)\b(my company|our company|my business|our business|our team|my team|we(?:'re| are) an?\b)`)
)

// painPointPhrases are the pain-point vocabulary shared by the scorer
// and the extractor. Each distinct phrase found adds painPointBonus.
var painPointPhrases = []string{
	"losing customers",
	"losing leads",
	"missed calls",
	"missing calls",
	"no-shows",
	"no shows",
	"too busy",
	"overwhelmed",
	"falling behind",
	"can't keep up",
	"cant keep up",
	"manual work",
	"doing everything by hand",
	"wasting time",
	"waste time",
	"after hours",
	"short staffed",
	"short-staffed",
}

// Score computes the lead score for a conversation context. It is a pure
// function of the context: recomputing on the same value always yields
// the same result, and the result is clamped to [0, 100].
func Score(c *session.ConversationContext) int {
	total := 0

	// Engagement: every turn counts, capped early.
	engagement := len(c.History) * engagementPerTurn
	if engagement > engagementCap {
		engagement = engagementCap
	}
	total += engagement

	// Specificity language in the last few user turns.
	total += specificityFactor(c.History)

	userText := joinUserText(c.History)

	if budgetRE.MatchString(userText) {
		total += budgetBonus
	}
	if timelineRE.MatchString(userText) {
		total += timelineBonus
	}
	for _, phrase := range painPointPhrases {
		if strings.Contains(userText, phrase) {
			total += painPointBonus
		}
	}
	if c.Industry != "" {
		total += industryBonus
	}
	// Company credit needs both the conversational signal and an
	// already-extracted company name.
	if c.Extracted.Company != "" && companyCtxRE.MatchString(userText) {
		total += companyBonus
	}

	if total > maxScore {
		total = maxScore
	}
	return total
}

func specificityFactor(history []session.Turn) int {
	factor := 0
	seen := 0
	for i := len(history) - 1; i >= 0 && seen < specificityLookback; i-- {
		if history[i].Role != session.RoleUser {
			continue
		}
		seen++
		if specificityRE.MatchString(history[i].Content) {
			factor += specificityPerTurn
		}
	}
	if factor > specificityCap {
		factor = specificityCap
	}
	return factor
}

func joinUserText(history []session.Turn) string {
	var b strings.Builder
	for _, t := range history {
		if t.Role != session.RoleUser {
			continue
		}
		b.WriteString(strings.ToLower(t.Content))
		b.WriteString(" ")
	}
	return b.String()
}
