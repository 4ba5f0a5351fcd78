package tenantindex

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func chunk(id, content string, embedding []float32) DocumentChunk {
	return DocumentChunk{
		ChunkID:   id,
		Content:   content,
		Embedding: embedding,
		Metadata:  map[string]interface{}{"document_id": "doc-1"},
	}
}

func TestMemoryIndexAddAndSearch(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	res, err := idx.Add(ctx, "org-a", []DocumentChunk{
		chunk("c1", "GST applies to most goods", []float32{1, 0, 0}),
		chunk("c2", "Income tax brackets are marginal", []float32{0, 1, 0}),
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if res.AcceptedCount != 2 {
		t.Errorf("AcceptedCount = %d, want 2", res.AcceptedCount)
	}
	if res.Namespace != Namespace("org-a") {
		t.Errorf("Namespace = %q, want %q", res.Namespace, Namespace("org-a"))
	}

	results, err := idx.Search(ctx, "org-a", []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Content != "GST applies to most goods" {
		t.Errorf("top result = %q, want the aligned chunk", results[0].Content)
	}
	if results[0].SimilarityScore < 0.99 {
		t.Errorf("aligned chunk score = %f, want ~1", results[0].SimilarityScore)
	}
	if results[0].Rank != 1 || results[1].Rank != 2 {
		t.Errorf("ranks = %d,%d, want 1,2", results[0].Rank, results[1].Rank)
	}
}

func TestMemoryIndexTenantIsolation(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	if _, err := idx.Add(ctx, "org-a", []DocumentChunk{
		chunk("a1", "org A private data", []float32{1, 0}),
	}); err != nil {
		t.Fatalf("Add org-a: %v", err)
	}

	results, err := idx.Search(ctx, "org-b", []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search org-b: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("org B observed %d chunks of org A", len(results))
	}

	// Deleting from org B must not touch org A's chunks either.
	del, err := idx.Delete(ctx, "org-b", "a1")
	if err != nil {
		t.Fatalf("Delete org-b: %v", err)
	}
	if del.DeletedCount != 0 {
		t.Errorf("org B deleted %d chunks of org A", del.DeletedCount)
	}

	remaining, _ := idx.Search(ctx, "org-a", []float32{1, 0}, 5)
	if len(remaining) != 1 {
		t.Errorf("org A lost its chunk after org B's delete")
	}
}

func TestMemoryIndexEmptySearch(t *testing.T) {
	idx := NewMemoryIndex()

	results, err := idx.Search(context.Background(), "never-seen-org", []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("unknown namespace should yield empty slice, got %v", results)
	}
}

func TestMemoryIndexAtomicAdd(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	_, err := idx.Add(ctx, "org-a", []DocumentChunk{
		chunk("ok", "valid chunk", []float32{1, 0}),
		chunk("bad", "missing embedding", nil),
	})
	if !errors.Is(err, ErrEmptyEmbedding) {
		t.Fatalf("err = %v, want ErrEmptyEmbedding", err)
	}

	// The valid chunk must not have been written.
	results, _ := idx.Search(ctx, "org-a", []float32{1, 0}, 5)
	if len(results) != 0 {
		t.Errorf("partial write observed after failed Add: %d chunks", len(results))
	}
}

func TestMemoryIndexTieBreakInsertionOrder(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	// Identical embeddings, identical scores: insertion order decides.
	for i := 1; i <= 3; i++ {
		if _, err := idx.Add(ctx, "org-a", []DocumentChunk{
			chunk(fmt.Sprintf("c%d", i), fmt.Sprintf("content %d", i), []float32{1, 1}),
		}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	results, err := idx.Search(ctx, "org-a", []float32{1, 1}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for i, want := range []string{"content 1", "content 2", "content 3"} {
		if results[i].Content != want {
			t.Errorf("results[%d] = %q, want %q", i, results[i].Content, want)
		}
	}
}

func TestMemoryIndexDeleteByDocumentId(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	chunks := []DocumentChunk{
		chunk("c1", "first", []float32{1, 0}),
		chunk("c2", "second", []float32{0, 1}),
	}
	chunks[1].Metadata = map[string]interface{}{"document_id": "doc-2"}

	if _, err := idx.Add(ctx, "org-a", chunks); err != nil {
		t.Fatalf("Add: %v", err)
	}

	del, err := idx.Delete(ctx, "org-a", "doc-1")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if del.DeletedCount != 1 {
		t.Errorf("DeletedCount = %d, want 1", del.DeletedCount)
	}

	stats, _ := idx.Stats(ctx, "org-a")
	if stats.TotalChunks != 1 {
		t.Errorf("TotalChunks = %d, want 1", stats.TotalChunks)
	}
}

func TestMemoryIndexSimilarityClamped(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	// Opposing vectors have raw cosine -1; the reported score clamps to 0.
	if _, err := idx.Add(ctx, "org-a", []DocumentChunk{
		chunk("c1", "opposite", []float32{-1, 0}),
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	results, err := idx.Search(ctx, "org-a", []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results[0].SimilarityScore < 0 || results[0].SimilarityScore > 1 {
		t.Errorf("score %f outside [0,1]", results[0].SimilarityScore)
	}
}

func TestMemoryIndexStats(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	chunks := []DocumentChunk{
		chunk("c1", "a", []float32{1}),
		chunk("c2", "b", []float32{1}),
		chunk("c3", "c", []float32{1}),
	}
	chunks[2].Metadata = map[string]interface{}{"document_id": "doc-2"}

	if _, err := idx.Add(ctx, "org-a", chunks); err != nil {
		t.Fatalf("Add: %v", err)
	}

	stats, err := idx.Stats(ctx, "org-a")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalChunks != 3 {
		t.Errorf("TotalChunks = %d, want 3", stats.TotalChunks)
	}
	if stats.UniqueDocuments != 2 {
		t.Errorf("UniqueDocuments = %d, want 2", stats.UniqueDocuments)
	}
}
