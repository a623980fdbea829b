package knowledge

import (
	"strings"
	"time"
)

// Entry is a knowledge-base record the chatbot matches user messages against.
// Entries are written by the seed CLI or the admin edit endpoints and are
// read-only from the matcher's perspective.
type Entry struct {
	ID        string    `json:"id"`
	Intent    string    `json:"intent"`
	Keywords  string    `json:"keywords"`
	Response  string    `json:"response"`
	Priority  int       `json:"priority"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the fields an admin must supply.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.Intent) == "" {
		return ErrMissingIntent
	}
	if strings.TrimSpace(e.Response) == "" {
		return ErrMissingResponse
	}
	return nil
}

// KeywordTokens splits the comma/whitespace separated keywords field into
// lowercased tokens.
func (e *Entry) KeywordTokens() []string {
	fields := strings.FieldsFunc(e.Keywords, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
