package knowledge

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for knowledge entry storage.
type Repository interface {
	// Search returns active entries whose keywords match the query text,
	// ordered by priority descending, capped at limit. It is a recall
	// filter; final ranking is the matcher's job.
	Search(ctx context.Context, query string, limit int) ([]Entry, error)
	List(ctx context.Context) ([]Entry, error)
	Create(ctx context.Context, entry *Entry) error
	Update(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository keeps entries in a map. Used in tests and for local
// development without Postgres.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{entries: make(map[string]*Entry)}
}

// Search approximates the Postgres full-text recall filter: an entry matches
// when any of its keyword tokens appears in the query.
func (r *InMemoryRepository) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query = strings.ToLower(query)
	var out []Entry
	for _, e := range r.entries {
		if !e.Active {
			continue
		}
		for _, tok := range e.KeywordTokens() {
			if strings.Contains(query, tok) {
				out = append(out, *e)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}

func (r *InMemoryRepository) Create(ctx context.Context, entry *Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	r.mu.Lock()
	stored := *entry
	r.entries[entry.ID] = &stored
	r.mu.Unlock()
	return nil
}

func (r *InMemoryRepository) Update(ctx context.Context, entry *Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.entries[entry.ID]
	if !ok {
		return ErrEntryNotFound
	}
	entry.CreatedAt = existing.CreatedAt
	entry.UpdatedAt = time.Now().UTC()
	stored := *entry
	r.entries[entry.ID] = &stored
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return ErrEntryNotFound
	}
	delete(r.entries, id)
	return nil
}
