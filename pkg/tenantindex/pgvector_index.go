package tenantindex

import (
	"context"

	"insightflow-be/internal/model"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PgvectorIndex stores chunks in Postgres with the pgvector extension.
// Tenant isolation is enforced in every query through the namespace
// column, never through application-side filtering of mixed results.
type PgvectorIndex struct {
	db *gorm.DB
}

func NewPgvectorIndex(db *gorm.DB) *PgvectorIndex {
	return &PgvectorIndex{db: db}
}

var _ Index = &PgvectorIndex{}

func (p *PgvectorIndex) Add(ctx context.Context, orgID string, chunks []DocumentChunk) (*AddResult, error) {
	namespace := Namespace(orgID)

	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return nil, ErrEmptyEmbedding
		}
	}

	if len(chunks) == 0 {
		return &AddResult{AcceptedCount: 0, Namespace: namespace}, nil
	}

	models := make([]*model.DocumentChunk, len(chunks))
	for i, chunk := range chunks {
		models[i] = &model.DocumentChunk{
			Id:        uuid.New(),
			Namespace: namespace,
			ChunkId:   chunk.ChunkID,
			Content:   chunk.Content,
			Embedding: pgvector.NewVector(chunk.Embedding),
			Metadata:  datatypes.JSONMap(chunk.Metadata),
		}
	}

	// Single transaction so a failed batch leaves the namespace untouched.
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(models).Error
	})
	if err != nil {
		return nil, err
	}

	return &AddResult{
		AcceptedCount: len(models),
		Namespace:     namespace,
	}, nil
}

func (p *PgvectorIndex) Search(ctx context.Context, orgID string, queryEmbedding []float32, k int) ([]RetrievalResult, error) {
	namespace := Namespace(orgID)
	if k <= 0 {
		k = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding <=> query_vector) recovers the similarity.
	type row struct {
		model.DocumentChunk
		Similarity float64
	}
	var rows []row

	queryVector := pgvector.NewVector(queryEmbedding)

	err := p.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("namespace = ?", namespace).
		Order("similarity DESC, seq ASC").
		Limit(k).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	results := make([]RetrievalResult, len(rows))
	for i, r := range rows {
		score := r.Similarity
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		results[i] = RetrievalResult{
			Content:         r.Content,
			Metadata:        map[string]interface{}(r.Metadata),
			SimilarityScore: score,
			Rank:            i + 1,
		}
	}
	return results, nil
}

func (p *PgvectorIndex) Delete(ctx context.Context, orgID string, selector string) (*DeleteResult, error) {
	namespace := Namespace(orgID)

	res := p.db.WithContext(ctx).
		Where("namespace = ? AND (chunk_id = ? OR metadata->>'document_id' = ?)", namespace, selector, selector).
		Delete(&model.DocumentChunk{})
	if res.Error != nil {
		return nil, res.Error
	}

	return &DeleteResult{DeletedCount: int(res.RowsAffected)}, nil
}

func (p *PgvectorIndex) Stats(ctx context.Context, orgID string) (*Stats, error) {
	namespace := Namespace(orgID)

	var totalChunks int64
	if err := p.db.WithContext(ctx).
		Model(&model.DocumentChunk{}).
		Where("namespace = ?", namespace).
		Count(&totalChunks).Error; err != nil {
		return nil, err
	}

	var uniqueDocuments int64
	if err := p.db.WithContext(ctx).
		Model(&model.DocumentChunk{}).
		Where("namespace = ?", namespace).
		Distinct("metadata->>'document_id'").
		Count(&uniqueDocuments).Error; err != nil {
		return nil, err
	}

	return &Stats{
		TotalChunks:     totalChunks,
		UniqueDocuments: uniqueDocuments,
		Namespace:       namespace,
	}, nil
}
