package service

import (
	"context"
	"encoding/json"
	"fmt"

	"insightflow-be/internal/dto"
	"insightflow-be/internal/pkg/logger"
	"insightflow-be/pkg/events"
	pktNats "insightflow-be/pkg/nats"
	"insightflow-be/pkg/tenantindex"
)

type IDocumentService interface {
	Ingest(ctx context.Context, orgID string, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
	Delete(ctx context.Context, orgID string, selector string) (*dto.DeleteDocumentResponse, error)
	Stats(ctx context.Context, orgID string) (*dto.OrgStatsResponse, error)
}

type documentService struct {
	index            tenantindex.Index
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	sessionCounter   func() int
	logger           logger.ILogger
}

func NewDocumentService(
	index tenantindex.Index,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	sessionCounter func() int,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		index:            index,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		sessionCounter:   sessionCounter,
		logger:           log,
	}
}

// Ingest queues the document's chunks for embedding and indexing. The
// heavy work happens on the consumer so the HTTP request returns fast.
func (ds *documentService) Ingest(ctx context.Context, orgID string, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	payload := dto.PublishIndexDocumentMessage{
		OrgId:      orgID,
		DocumentId: request.DocumentId,
		Chunks:     request.Chunks,
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal index message: %w", err)
	}

	if err := ds.publisherService.Publish(ctx, payloadJson); err != nil {
		return nil, fmt.Errorf("queue document for indexing: %w", err)
	}

	ds.logger.Info("DocumentService", "Document queued for indexing", map[string]interface{}{
		"org_id":      orgID,
		"document_id": request.DocumentId,
		"chunk_count": len(request.Chunks),
	})

	return &dto.IngestDocumentResponse{
		DocumentId: request.DocumentId,
		ChunkCount: len(request.Chunks),
		Status:     "queued",
	}, nil
}

func (ds *documentService) Delete(ctx context.Context, orgID string, selector string) (*dto.DeleteDocumentResponse, error) {
	result, err := ds.index.Delete(ctx, orgID, selector)
	if err != nil {
		return nil, fmt.Errorf("delete document chunks: %w", err)
	}

	if ds.eventPublisher != nil && result.DeletedCount > 0 {
		evt := events.NewDocumentDeleted(orgID, selector, result.DeletedCount)
		if err := ds.eventPublisher.Publish(ctx, evt); err != nil {
			ds.logger.Warn("DocumentService", "Failed to publish document.deleted", map[string]interface{}{
				"org_id": orgID,
				"error":  err.Error(),
			})
		}
	}

	return &dto.DeleteDocumentResponse{DeletedCount: result.DeletedCount}, nil
}

func (ds *documentService) Stats(ctx context.Context, orgID string) (*dto.OrgStatsResponse, error) {
	stats, err := ds.index.Stats(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load org stats: %w", err)
	}

	active := 0
	if ds.sessionCounter != nil {
		active = ds.sessionCounter()
	}

	return &dto.OrgStatsResponse{
		TotalChunks:     stats.TotalChunks,
		UniqueDocuments: stats.UniqueDocuments,
		Namespace:       stats.Namespace,
		ActiveSessions:  active,
	}, nil
}
