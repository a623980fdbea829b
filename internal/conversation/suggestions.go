package conversation

// suggestedActions maps detected intents to follow-up prompts shown under the
// assistant reply. Unknown intents fall back to the generic set.
var suggestedActions = map[string][]string{
	"greeting":                {"Browse our services", "See recent projects", "Get a quote"},
	"service_inquiry":         {"See recent projects", "Ask about timelines", "Get a quote"},
	"pricing_inquiry":         {"Request a detailed quote", "Book a free consultation", "Ask about payment plans"},
	"general_pricing_inquiry": {"Request a detailed quote", "Book a free consultation", "Ask about payment plans"},
	"quote_request":           {"Share your project details", "Book a free consultation"},
	"booking_request":         {"Book a free consultation", "Share your contact details"},
	"contact_request":         {"Share your contact details", "Book a free consultation"},
	"timeline_inquiry":        {"Ask about our process", "Get a quote"},
	"portfolio_inquiry":       {"See recent projects", "Ask about a specific industry"},
}

var genericActions = []string{"Ask about our services", "Request a quote", "Talk to our team"}

// highIntentLabels mark intents that justify prompting for contact details.
var highIntentLabels = map[string]struct{}{
	"pricing_inquiry":         {},
	"general_pricing_inquiry": {},
	"quote_request":           {},
	"booking_request":         {},
	"contact_request":         {},
	"service_inquiry":         {},
}

func actionsForIntent(intent string) []string {
	if actions, ok := suggestedActions[intent]; ok {
		return actions
	}
	return genericActions
}

func isHighIntent(intent string) bool {
	_, ok := highIntentLabels[intent]
	return ok
}
