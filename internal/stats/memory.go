package stats

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps hits in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	hits   []Hit
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) SaveHit(_ context.Context, h Hit) (Hit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	h.ID = m.nextID
	m.hits = append(m.hits, h)
	return h, nil
}

// SaveHits stores hs in order.
func (m *MemoryStore) SaveHits(ctx context.Context, hs []Hit) ([]Hit, error) {
	out := make([]Hit, 0, len(hs))
	for _, h := range hs {
		saved, err := m.SaveHit(ctx, h)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, nil
}

func (m *MemoryStore) Stats(_ context.Context, q Query) ([]ViewStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[string]bool, len(q.URIs))
	for _, u := range q.URIs {
		wanted[u] = true
	}

	type key struct{ app, uri string }
	counts := map[key]int64{}
	seen := map[key]map[string]bool{}
	for _, h := range m.hits {
		ts := h.Timestamp.Time
		if ts.Before(q.Start) || ts.After(q.End) {
			continue
		}
		if len(wanted) > 0 && !wanted[h.URI] {
			continue
		}
		k := key{h.App, h.URI}
		if q.Unique {
			if seen[k] == nil {
				seen[k] = map[string]bool{}
			}
			if seen[k][h.IP] {
				continue
			}
			seen[k][h.IP] = true
		}
		counts[k]++
	}

	out := make([]ViewStats, 0, len(counts))
	for k, n := range counts {
		out = append(out, ViewStats{App: k.app, URI: k.uri, Hits: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hits != out[j].Hits {
			return out[i].Hits > out[j].Hits
		}
		return out[i].URI < out[j].URI
	})
	return out, nil
}

func (m *MemoryStore) Ready(context.Context) error { return nil }
