package knowledge

import (
	"context"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/webcraft-studio/chatbot-platform/pkg/logging"
)

// candidateLimit bounds the provider-side recall filter.
const candidateLimit = 10

// minConfidence drops near-zero overlap noise.
const minConfidence = 0.1

var intentMatchTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "webcraft",
		Subsystem: "knowledge",
		Name:      "intent_match_total",
		Help:      "Intent detections by top intent label",
	},
	[]string{"intent"},
)

func init() {
	prometheus.MustRegister(intentMatchTotal)
}

// Match pairs an intent label with its computed confidence and the entry it
// came from. Matches are request-scoped and never persisted.
type Match struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Entry      Entry   `json:"-"`
}

// Matcher scores knowledge entries against user messages by keyword overlap.
type Matcher struct {
	repo   Repository
	logger *logging.Logger
}

// NewMatcher creates a matcher over the given repository.
func NewMatcher(repo Repository, logger *logging.Logger) *Matcher {
	if repo == nil {
		panic("knowledge: repository cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Matcher{repo: repo, logger: logger}
}

// DetectIntent returns intent matches for the message, ordered by descending
// confidence. Ties keep the repository's priority order. A search failure
// degrades to "no intent detected" so the conversation turn never fails here.
func (m *Matcher) DetectIntent(ctx context.Context, message string) []Match {
	lowered := strings.ToLower(message)

	candidates, err := m.repo.Search(ctx, lowered, candidateLimit)
	if err != nil {
		m.logger.Warn("knowledge search failed, continuing without intent", "error", err)
		return nil
	}

	matches := make([]Match, 0, len(candidates))
	for _, entry := range candidates {
		tokens := entry.KeywordTokens()
		if len(tokens) == 0 {
			continue
		}
		found := 0
		for _, tok := range tokens {
			if strings.Contains(lowered, tok) {
				found++
			}
		}
		confidence := float64(found) / float64(len(tokens))
		if confidence <= minConfidence {
			continue
		}
		matches = append(matches, Match{
			Intent:     entry.Intent,
			Confidence: confidence,
			Entry:      entry,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	if len(matches) > 0 {
		intentMatchTotal.WithLabelValues(matches[0].Intent).Inc()
	}
	return matches
}
