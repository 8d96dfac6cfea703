package convo

import (
	"regexp"
	"strings"

	"github.com/leadpilot/leadpilot/internal/session"
)

// Entity is a structured fact pulled out of free text.
type Entity struct {
	Kind  string // "industry", "service", "email", "phone", "name", "company"
	Value string
}

// Tag renders the entity in its wire form, e.g. "email:jane@acme.com".
func (e Entity) Tag() string {
	return e.Kind + ":" + e.Value
}

// knownIndustries is the static vocabulary of verticals the product
// ships demo templates for. Patterns are matched as lowercase
// substrings; the first field is the match, the second the canonical name.
var knownIndustries = []struct {
	pattern string
	name    string
}{
	{"accounting", "accounting"},
	{"bookkeeping", "accounting"},
	{"child care", "child_care"},
	{"childcare", "child_care"},
	{"daycare", "child_care"},
	{"garden", "garden_supply"},
	{"nursery", "garden_supply"},
	{"landscap", "garden_supply"},
	{"pet care", "pet_care"},
	{"pet groom", "pet_care"},
	{"veterinar", "pet_care"},
	{"dog walk", "pet_care"},
	{"medspa", "spa"},
	{"med spa", "spa"},
	{"spa", "spa"},
	{"hair salon", "salon"},
	{"nail salon", "salon"},
	{"salon", "salon"},
	{"barber", "salon"},
	{"yoga", "yoga_studio"},
	{"pilates", "yoga_studio"},
	{"fitness studio", "yoga_studio"},
}

// knownServices is the product's service vocabulary. Longer, more
// specific phrases come first. The website family is deliberately
// absent: naming the product's own medium carries no qualification
// signal, so it never becomes an entity or a goal.
var knownServices = []struct {
	pattern string
	name    string
}{
	{"voice assistant", "voice_assistant"},
	{"ai receptionist", "voice_assistant"},
	{"lead capture", "lead_capture"},
	{"lead generation", "lead_capture"},
	{"email marketing", "email_marketing"},
	{"appointment booking", "booking"},
	{"online booking", "booking"},
	{"booking", "booking"},
	{"scheduling", "booking"},
	{"chatbot", "chatbot"},
	{"chat widget", "chatbot"},
	{"live chat", "chatbot"},
	{"analytics", "analytics"},
	{"reporting", "analytics"},
	{"crm", "crm"},
	{"automation", "automation"},
}

var (
	emailRE = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRE = regexp.MustCompile(`[+(]?\d[\d\s().\-]{7,}\d`)

	// Names and companies need explicit introductions; capture is limited
	// to consecutive capitalized tokens so trailing words don't bleed in.
	nameRE    = regexp.MustCompile(`\b(?i:my name is|i'?m|this is)\s+([A-Z][a-z]+(?: [A-Z][a-z]+)?)`)
	companyRE = regexp.MustCompile(`\b(?i:my (?:company|business)(?: name)? is(?: called)?|we'?re(?: called)?|company name is|i work (?:at|for))\s+([A-Z][\w&'.\-]*(?: [A-Z][\w&'.\-]*){0,3})`)
)

// ExtractEntities scans free text against the static vocabulary plus the
// universal email/phone patterns. The result is ordered (industries,
// services, names, companies, emails, phones); duplicates of a kind are
// allowed and the
// caller resolves conflicts last-one-wins. It is total: no input errors.
func ExtractEntities(text string) []Entity {
	lower := strings.ToLower(text)
	var out []Entity

	seen := map[string]bool{}
	for _, ind := range knownIndustries {
		if strings.Contains(lower, ind.pattern) && !seen["industry:"+ind.name] {
			seen["industry:"+ind.name] = true
			out = append(out, Entity{Kind: "industry", Value: ind.name})
		}
	}
	for _, svc := range knownServices {
		if strings.Contains(lower, svc.pattern) && !seen["service:"+svc.name] {
			seen["service:"+svc.name] = true
			out = append(out, Entity{Kind: "service", Value: svc.name})
		}
	}
	if m := nameRE.FindStringSubmatch(text); m != nil {
		out = append(out, Entity{Kind: "name", Value: m[1]})
	}
	if m := companyRE.FindStringSubmatch(text); m != nil {
		out = append(out, Entity{Kind: "company", Value: m[1]})
	}
	for _, m := range emailRE.FindAllString(text, -1) {
		out = append(out, Entity{Kind: "email", Value: m})
	}
	for _, m := range phoneRE.FindAllString(text, -1) {
		// The email scan above can leave digit runs inside addresses;
		// skip matches that sit inside an extracted email.
		if strings.Contains(text, m+"@") {
			continue
		}
		out = append(out, Entity{Kind: "phone", Value: strings.TrimSpace(m)})
	}
	return out
}

// MergeEntities folds extracted entities into the session's info record.
// Fields are set opportunistically; a later entity of the same kind
// overwrites an earlier one. Service interests accumulate as goals.
func MergeEntities(info session.ExtractedInfo, entities []Entity) session.ExtractedInfo {
	for _, e := range entities {
		switch e.Kind {
		case "email":
			info.Email = e.Value
		case "phone":
			info.Phone = e.Value
		case "name":
			info.Name = e.Value
		case "company":
			info.Company = e.Value
		case "service":
			if !containsFold(info.Goals, e.Value) {
				info.Goals = append(info.Goals, e.Value)
			}
		}
	}
	return info
}

// CollectPainPoints appends any pain-point phrases found in the text.
func CollectPainPoints(info session.ExtractedInfo, text string) session.ExtractedInfo {
	lower := strings.ToLower(text)
	for _, p := range painPointPhrases {
		if strings.Contains(lower, p) && !containsFold(info.PainPoints, p) {
			info.PainPoints = append(info.PainPoints, p)
		}
	}
	return info
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// FirstIndustry returns the first industry entity, if any.
func FirstIndustry(entities []Entity) (string, bool) {
	for _, e := range entities {
		if e.Kind == "industry" {
			return e.Value, true
		}
	}
	return "", false
}

// Tags renders entities in their wire form.
func Tags(entities []Entity) []string {
	if len(entities) == 0 {
		return nil
	}
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Tag()
	}
	return out
}
