package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/webcraft-studio/chatbot-platform/pkg/logging"
)

func seedRepo(t *testing.T, entries ...Entry) *InMemoryRepository {
	t.Helper()
	repo := NewInMemoryRepository()
	for i := range entries {
		e := entries[i]
		if err := repo.Create(context.Background(), &e); err != nil {
			t.Fatalf("seed entry %q: %v", e.Intent, err)
		}
	}
	return repo
}

func TestDetectIntentConfidenceBounds(t *testing.T) {
	repo := seedRepo(t,
		Entry{Intent: "greeting", Keywords: "hi, hello, hey", Response: "Hi there!", Priority: 10, Active: true},
		Entry{Intent: "pricing_inquiry", Keywords: "price, cost, quote, budget", Response: "Our plans...", Priority: 5, Active: true},
	)
	matcher := NewMatcher(repo, logging.Default())

	matches := matcher.DetectIntent(context.Background(), "hi, how much does a website cost?")
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	for _, m := range matches {
		if m.Confidence <= 0 || m.Confidence > 1 {
			t.Errorf("confidence %f out of (0,1] for intent %s", m.Confidence, m.Intent)
		}
	}
}

func TestDetectIntentRankingOrder(t *testing.T) {
	repo := seedRepo(t,
		Entry{Intent: "greeting", Keywords: "hi, hello, hey, howdy", Response: "Hi!", Priority: 10, Active: true},
		Entry{Intent: "pricing_inquiry", Keywords: "price, cost", Response: "Plans...", Priority: 5, Active: true},
	)
	matcher := NewMatcher(repo, logging.Default())

	// Both pricing tokens hit (1.0); only one greeting token hits (0.25).
	matches := matcher.DetectIntent(context.Background(), "hi, what is the price and cost?")
	if len(matches) < 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Confidence > matches[i-1].Confidence {
			t.Errorf("matches not sorted descending: %f before %f", matches[i-1].Confidence, matches[i].Confidence)
		}
	}
	if matches[0].Intent != "pricing_inquiry" {
		t.Errorf("expected pricing_inquiry first, got %s", matches[0].Intent)
	}
}

func TestDetectIntentThresholdExclusion(t *testing.T) {
	// 1 of 10 tokens matched => 0.1, which is <= threshold and must be dropped.
	repo := seedRepo(t,
		Entry{
			Intent:   "services_overview",
			Keywords: "design, seo, hosting, branding, logo, copywriting, maintenance, analytics, ecommerce, portfolio",
			Response: "We do a lot.",
			Priority: 1,
			Active:   true,
		},
	)
	matcher := NewMatcher(repo, logging.Default())

	matches := matcher.DetectIntent(context.Background(), "do you do seo?")
	if len(matches) != 0 {
		t.Fatalf("expected 0.1-confidence entry to be excluded, got %d matches", len(matches))
	}
}

func TestDetectIntentEmptyKeywords(t *testing.T) {
	repo := seedRepo(t,
		Entry{Intent: "mystery", Keywords: "   ", Response: "???", Priority: 1, Active: true},
	)
	matcher := NewMatcher(repo, logging.Default())

	// The in-memory recall filter won't surface it anyway, but even if it
	// did, zero tokens means zero confidence.
	if matches := matcher.DetectIntent(context.Background(), "anything at all"); len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}

func TestDetectIntentNoCandidates(t *testing.T) {
	matcher := NewMatcher(NewInMemoryRepository(), logging.Default())
	if matches := matcher.DetectIntent(context.Background(), "completely unrelated"); matches != nil && len(matches) != 0 {
		t.Fatalf("expected empty result, got %v", matches)
	}
}

type failingRepo struct{ Repository }

func (failingRepo) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	return nil, errors.New("search exploded")
}

func TestDetectIntentSearchFailureDegrades(t *testing.T) {
	matcher := NewMatcher(failingRepo{}, logging.Default())
	if matches := matcher.DetectIntent(context.Background(), "hi"); len(matches) != 0 {
		t.Fatalf("search failure must degrade to no matches, got %d", len(matches))
	}
}

func TestDetectIntentCaseInsensitive(t *testing.T) {
	repo := seedRepo(t,
		Entry{Intent: "greeting", Keywords: "hello", Response: "Hi!", Priority: 1, Active: true},
	)
	matcher := NewMatcher(repo, logging.Default())

	matches := matcher.DetectIntent(context.Background(), "HELLO THERE")
	if len(matches) != 1 || matches[0].Confidence != 1.0 {
		t.Fatalf("expected single full-confidence match, got %v", matches)
	}
}
