package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightflow-be/internal/dto"
	"insightflow-be/pkg/tenantindex"
)

type capturePublisher struct {
	payloads [][]byte
	err      error
}

func (p *capturePublisher) Publish(ctx context.Context, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestDocumentServiceIngestQueuesMessage(t *testing.T) {
	pub := &capturePublisher{}
	svc := NewDocumentService(tenantindex.NewMemoryIndex(), pub, nil, nil, &stubLogger{})

	res, err := svc.Ingest(context.Background(), "org-a", &dto.IngestDocumentRequest{
		DocumentId: "doc-1",
		Chunks: []dto.IngestChunk{
			{ChunkId: "c1", Content: "first chunk"},
			{ChunkId: "c2", Content: "second chunk"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "queued", res.Status)
	assert.Equal(t, 2, res.ChunkCount)

	require.Len(t, pub.payloads, 1)
	var msg dto.PublishIndexDocumentMessage
	require.NoError(t, json.Unmarshal(pub.payloads[0], &msg))
	assert.Equal(t, "org-a", msg.OrgId)
	assert.Equal(t, "doc-1", msg.DocumentId)
	assert.Len(t, msg.Chunks, 2)
}

func TestDocumentServiceIngestPublishFailure(t *testing.T) {
	pub := &capturePublisher{err: errors.New("bus down")}
	svc := NewDocumentService(tenantindex.NewMemoryIndex(), pub, nil, nil, &stubLogger{})

	_, err := svc.Ingest(context.Background(), "org-a", &dto.IngestDocumentRequest{
		DocumentId: "doc-1",
		Chunks:     []dto.IngestChunk{{ChunkId: "c1", Content: "chunk"}},
	})
	require.Error(t, err)
}

func TestDocumentServiceDeleteAndStats(t *testing.T) {
	idx := tenantindex.NewMemoryIndex()
	ctx := context.Background()

	_, err := idx.Add(ctx, "org-a", []tenantindex.DocumentChunk{
		{ChunkID: "c1", Content: "a", Embedding: []float32{1, 0}, Metadata: map[string]interface{}{"document_id": "doc-1"}},
		{ChunkID: "c2", Content: "b", Embedding: []float32{0, 1}, Metadata: map[string]interface{}{"document_id": "doc-1"}},
		{ChunkID: "c3", Content: "c", Embedding: []float32{1, 1}, Metadata: map[string]interface{}{"document_id": "doc-2"}},
	})
	require.NoError(t, err)

	svc := NewDocumentService(idx, &capturePublisher{}, nil, func() int { return 4 }, &stubLogger{})

	del, err := svc.Delete(ctx, "org-a", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, del.DeletedCount)

	stats, err := svc.Stats(ctx, "org-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalChunks)
	assert.Equal(t, int64(1), stats.UniqueDocuments)
	assert.Equal(t, tenantindex.Namespace("org-a"), stats.Namespace)
	assert.Equal(t, 4, stats.ActiveSessions)
}
