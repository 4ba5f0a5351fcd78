package tenantindex

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryIndex is an in-process Index keeping one shard per namespace.
// Shards are independent, so writes to one tenant never contend with
// reads or writes on another. Used by tests and as the fallback store
// when no database DSN is configured.
type MemoryIndex struct {
	shards sync.Map // namespace -> *memoryShard
}

type memoryShard struct {
	mu      sync.RWMutex
	records []memoryRecord
	nextSeq int64
}

type memoryRecord struct {
	chunk DocumentChunk
	seq   int64
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

var _ Index = &MemoryIndex{}

func (m *MemoryIndex) shard(namespace string) *memoryShard {
	if s, ok := m.shards.Load(namespace); ok {
		return s.(*memoryShard)
	}
	s, _ := m.shards.LoadOrStore(namespace, &memoryShard{})
	return s.(*memoryShard)
}

func (m *MemoryIndex) Add(ctx context.Context, orgID string, chunks []DocumentChunk) (*AddResult, error) {
	namespace := Namespace(orgID)

	// Validate before taking the lock so a bad batch writes nothing.
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return nil, ErrEmptyEmbedding
		}
	}

	s := m.shard(namespace)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		s.records = append(s.records, memoryRecord{chunk: chunk, seq: s.nextSeq})
		s.nextSeq++
	}

	return &AddResult{
		AcceptedCount: len(chunks),
		Namespace:     namespace,
	}, nil
}

func (m *MemoryIndex) Search(ctx context.Context, orgID string, queryEmbedding []float32, k int) ([]RetrievalResult, error) {
	namespace := Namespace(orgID)
	if k <= 0 {
		k = 5
	}

	s := m.shard(namespace)
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		record memoryRecord
		score  float64
	}
	candidates := make([]scored, 0, len(s.records))
	for _, rec := range s.records {
		candidates = append(candidates, scored{
			record: rec,
			score:  cosineSimilarity(queryEmbedding, rec.chunk.Embedding),
		})
	}

	// Descending score; ties resolve to the earlier-added chunk.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].record.seq < candidates[j].record.seq
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]RetrievalResult, len(candidates))
	for i, c := range candidates {
		results[i] = RetrievalResult{
			Content:         c.record.chunk.Content,
			Metadata:        c.record.chunk.Metadata,
			SimilarityScore: c.score,
			Rank:            i + 1,
		}
	}
	return results, nil
}

func (m *MemoryIndex) Delete(ctx context.Context, orgID string, selector string) (*DeleteResult, error) {
	namespace := Namespace(orgID)

	s := m.shard(namespace)
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	deleted := 0
	for _, rec := range s.records {
		if matchesSelector(rec.chunk, selector) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept

	return &DeleteResult{DeletedCount: deleted}, nil
}

func (m *MemoryIndex) Stats(ctx context.Context, orgID string) (*Stats, error) {
	namespace := Namespace(orgID)

	s := m.shard(namespace)
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make(map[string]struct{})
	for _, rec := range s.records {
		if docID, ok := rec.chunk.Metadata["document_id"].(string); ok {
			docs[docID] = struct{}{}
		}
	}

	return &Stats{
		TotalChunks:     int64(len(s.records)),
		UniqueDocuments: int64(len(docs)),
		Namespace:       namespace,
	}, nil
}

func matchesSelector(chunk DocumentChunk, selector string) bool {
	if chunk.ChunkID == selector {
		return true
	}
	if docID, ok := chunk.Metadata["document_id"].(string); ok && docID == selector {
		return true
	}
	return false
}

// cosineSimilarity clamps to [0,1]. Clamping is a monotone transform of
// the raw cosine over the relevant range, so rank order is preserved.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
