package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

type memCollection struct {
	dimension int
	records   []Record
}

// Memory is an in-process store using brute-force cosine similarity.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

func NewMemory() *Memory {
	return &Memory{collections: map[string]*memCollection{}}
}

func (m *Memory) Upsert(_ context.Context, collection string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	dim, err := dimension(records)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		c = &memCollection{dimension: dim}
		m.collections[collection] = c
	}
	if c.dimension != dim {
		return ErrDimensionMismatch
	}
	byID := make(map[string]int, len(c.records))
	for i, r := range c.records {
		byID[r.ID] = i
	}
	for _, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		if i, ok := byID[r.ID]; ok {
			c.records[i] = r
			continue
		}
		byID[r.ID] = len(c.records)
		c.records = append(c.records, r)
	}
	return nil
}

func (m *Memory) Search(_ context.Context, collection string, vector []float32, k int) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[collection]
	if !ok || k <= 0 {
		return []Hit{}, nil
	}
	if len(vector) != c.dimension {
		return nil, ErrDimensionMismatch
	}
	hits := make([]Hit, 0, len(c.records))
	for _, r := range c.records {
		hits = append(hits, Hit{ID: r.ID, Score: cosine(r.Vector, vector), Text: r.Text, Metadata: r.Metadata})
	}
	// insertion order breaks ties
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	return hits[:min(k, len(hits))], nil
}

func (m *Memory) DeleteDocument(_ context.Context, collection string, documentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil
	}
	kept := c.records[:0]
	for _, r := range c.records {
		if r.Metadata.DocumentID != documentID {
			kept = append(kept, r)
		}
	}
	c.records = kept
	return nil
}

func (m *Memory) DropCollection(_ context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, collection)
	return nil
}

// Len reports the number of vectors in a collection.
func (m *Memory) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.collections[collection]; ok {
		return len(c.records)
	}
	return 0
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
