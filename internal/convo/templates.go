package convo

import (
	"regexp"
	"strings"
)

// Deterministic rule-based replies used whenever the generative provider
// is unavailable. Resolution order: trigger match, industry challenge,
// service description, then an intent-keyed default.

var templateTriggers = []struct {
	re       *regexp.Regexp
	response string
}{
	{
		regexp.MustCompile(`(?i)\b(book|schedule|see) a demo\b`),
		"Happy to set that up! Our live demo walks through the chat widget, booking automation, and the lead dashboard in about 15 minutes. What email should we send the invite to?",
	},
	{
		regexp.MustCompile(`(?i)\btemplates?\b`),
		"We ship ready-made templates for accounting firms, child care centers, garden suppliers, pet care, spas, salons, and yoga studios. Each one comes with industry-tuned copy and an AI assistant preconfigured for your services. Which industry are you in?",
	},
	{
		regexp.MustCompile(`(?i)\bget(ting)? started\b`),
		"Getting started takes about a day: pick a template, connect your calendar, and the assistant starts answering questions and capturing leads right away. Want me to walk you through it?",
	},
	{
		regexp.MustCompile(`(?i)\b(free trial|try (?:it|before))\b`),
		"Every plan starts with a 14-day free trial, no card required. You can launch a template and see real conversations before paying anything. Shall I help you pick a template?",
	},
}

// industryChallenges pairs each supported vertical with the pain it
// feels most, phrased as the assistant's opener for that vertical.
var industryChallenges = map[string]string{
	"accounting":    "Accounting firms tell us tax season burns their whole front office on scheduling and status calls. Our assistant answers client questions around the clock and books consultations straight into your calendar. What does your intake process look like today?",
	"child_care":    "Parents expect answers fast, and most child care centers miss enrollment inquiries that come in after hours. Our assistant responds instantly, answers program questions, and collects waitlist details. How do you handle inquiries today?",
	"garden_supply": "Garden suppliers see big seasonal swings, and customers ask the same stocking and care questions all day. Our assistant handles those and turns browsers into orders. What's your busiest season like?",
	"pet_care":      "Pet care businesses lose bookings to phone tag. Our assistant books grooming and boarding around the clock and answers vaccination or policy questions automatically. How are you taking bookings today?",
	"spa":           "Spas miss the most bookings after hours, exactly when clients are browsing. Our assistant books treatments 24/7, answers service questions, and reduces no-shows with reminders. What services do you book most?",
	"salon":         "Salons live and die by the booking calendar. Our assistant fills gaps, handles reschedules, and answers pricing questions so your stylists can stay on the floor. How full is your book this month?",
	"yoga_studio":   "Studios tell us class questions and membership sign-ups eat their front desk alive. Our assistant answers schedules, handles trial sign-ups, and nudges lapsed members. What's your biggest front-desk headache?",
}

// websiteMentions is fallback-only phrasing: these map to the website
// description below but stay out of the extraction vocabulary.
var websiteMentions = []string{"website", "web site", "landing page"}

// serviceDescriptions answers "do you do X" for each catalog service.
var serviceDescriptions = map[string]string{
	"website":         "We build conversion-focused business websites with the AI assistant built in, so every visitor can ask questions and book without leaving the page. Most sites launch within a week from an industry template.",
	"chatbot":         "The chat widget is the heart of the product: it answers visitor questions in your brand voice, qualifies leads, and hands hot prospects to you with full context. It installs with one script tag.",
	"booking":         "Booking automation syncs with your calendar, lets customers self-schedule from chat or your site, and sends reminders that cut no-shows. It works with the tools you already use.",
	"voice_assistant": "The voice assistant answers spoken questions and reads replies aloud, so customers can talk to your business hands-free. It shares the same brain as the chat widget.",
	"lead_capture":    "Lead capture runs inside every conversation: the assistant spots buying signals, gathers contact details naturally, and scores each lead so you follow up with the right people first.",
	"email_marketing": "Email follow-ups go out automatically to captured leads: welcome sequences, booking reminders, and win-back campaigns, all prewritten for your industry and editable.",
	"analytics":       "The dashboard shows conversations, captured leads, booking conversion, and which questions come up most, so you know exactly what your customers want.",
	"crm":             "Captured leads flow into the built-in CRM or straight into the one you already use via webhook, with the conversation transcript attached.",
	"automation":      "We automate the front office: answering questions, qualifying leads, booking appointments, and following up, so you can focus on the work only you can do.",
}

var intentDefaults = map[Intent]string{
	IntentPricing:       "Our plans start at $49/month for the Starter template, $99/month for Professional with booking automation and voice, and $199/month for Premium with custom branding and priority support. Every plan includes the AI assistant and a 14-day free trial. Which features matter most to you?",
	IntentTimeline:      "Most businesses are live within a week: a day to pick and customize a template, and the assistant starts handling conversations immediately after launch. Do you have a launch date in mind?",
	IntentService:       "We provide AI-powered websites with a built-in assistant that answers customer questions, captures leads, and books appointments automatically. Is there a specific capability you're looking for?",
	IntentLeadGen:       "Great! The quickest way to get going is a short demo tailored to your business. What's the best email to reach you at?",
	IntentIndustry:      "We work with service businesses of all kinds and ship tuned templates for accounting, child care, garden supply, pet care, spas, salons, and yoga studios. What kind of business do you run?",
	IntentVoiceInquiry:  "Yes, I can talk! Enable voice in the widget and I'll read my replies aloud; you can also speak your questions instead of typing. Want me to walk you through the voice settings?",
	IntentVoiceSettings: "You can adjust my voice, playback speed, and volume from the widget's voice settings panel. Your preferences stick for the whole session.",
	IntentRepeat:        "Of course, let me repeat that for you.",
	IntentClarification: "I'm sorry, I didn't quite catch that. Could you say it again or type your question?",
	IntentGeneral:       "Thanks for reaching out! I can tell you about our AI assistant, pricing, templates for your industry, or set up a quick demo. What would you like to know?",
}

// GenerateFallback produces the deterministic reply for a turn when the
// generative provider fails. It is total: every intent has a default.
func GenerateFallback(intent Intent, text, industry string) string {
	for _, trig := range templateTriggers {
		if trig.re.MatchString(text) {
			return trig.response
		}
	}

	lower := strings.ToLower(text)

	// Industry-challenge reply when the message names (or the session
	// already knows) a vertical we have a template for.
	for _, ind := range knownIndustries {
		if strings.Contains(lower, ind.pattern) {
			if resp, ok := industryChallenges[ind.name]; ok {
				return resp
			}
		}
	}
	if intent == IntentIndustry && industry != "" {
		if resp, ok := industryChallenges[industry]; ok {
			return resp
		}
	}

	// Service-description reply when a catalog service is named,
	// unless the user is asking about price or timing.
	if intent == IntentService || intent == IntentGeneral {
		for _, svc := range knownServices {
			if strings.Contains(lower, svc.pattern) {
				if resp, ok := serviceDescriptions[svc.name]; ok {
					return resp
				}
			}
		}
		for _, pattern := range websiteMentions {
			if strings.Contains(lower, pattern) {
				return serviceDescriptions["website"]
			}
		}
	}

	if resp, ok := intentDefaults[intent]; ok {
		return resp
	}
	return intentDefaults[IntentGeneral]
}
