package tenantindex

import (
	"context"
	"errors"
)

// DocumentChunk is one immutable unit of indexed knowledge. Superseded
// chunks are deleted and re-added, never mutated in place.
type DocumentChunk struct {
	ChunkID   string
	OrgID     string
	Content   string
	Embedding []float32
	Metadata  map[string]interface{}
}

// RetrievalResult is produced by Search only, never persisted.
type RetrievalResult struct {
	Content         string                 `json:"content"`
	Metadata        map[string]interface{} `json:"metadata"`
	SimilarityScore float64                `json:"similarity_score"`
	Rank            int                    `json:"rank"`
}

type AddResult struct {
	AcceptedCount int    `json:"accepted_count"`
	Namespace     string `json:"namespace"`
}

type DeleteResult struct {
	DeletedCount int `json:"deleted_count"`
}

type Stats struct {
	TotalChunks     int64  `json:"total_chunks"`
	UniqueDocuments int64  `json:"unique_documents"`
	Namespace       string `json:"namespace"`
}

// ErrEmptyEmbedding aborts an Add call before anything is written. Add is
// atomic per call: either every chunk lands or none do.
var ErrEmptyEmbedding = errors.New("chunk has no usable embedding")

// Index is the tenant-isolated vector store. An unknown org is not an
// error anywhere: its namespace is simply empty until the first write.
type Index interface {
	// Add writes all chunks to the org's namespace, atomically.
	Add(ctx context.Context, orgID string, chunks []DocumentChunk) (*AddResult, error)

	// Search returns at most k results ordered by descending similarity in
	// [0,1]; ties break toward the earlier-added chunk. An empty namespace
	// yields an empty slice, not an error.
	Search(ctx context.Context, orgID string, queryEmbedding []float32, k int) ([]RetrievalResult, error)

	// Delete removes chunks whose chunk ID or source document ID matches
	// the selector. A missing selector yields a zero count, not an error.
	Delete(ctx context.Context, orgID string, selector string) (*DeleteResult, error)

	// Stats reports chunk and source-document counts for the org.
	Stats(ctx context.Context, orgID string) (*Stats, error)
}
