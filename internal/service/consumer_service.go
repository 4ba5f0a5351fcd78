package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"insightflow-be/internal/dto"
	"insightflow-be/internal/websocket"
	"insightflow-be/pkg/embedding"
	"insightflow-be/pkg/events"
	pktNats "insightflow-be/pkg/nats"
	"insightflow-be/pkg/tenantindex"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService embeds and indexes queued document chunks. It is the
// only writer to the tenant index, so an Add failure on one message
// never leaves partial chunks behind.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	index             tenantindex.Index
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pktNats.Publisher
	wsHub             *websocket.Hub
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	index tenantindex.Index,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pktNats.Publisher,
	wsHub *websocket.Hub,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		index:             index,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
		wsHub:             wsHub,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIndexDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal index message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Indexing document %s for org %s (%d chunks)",
		payload.DocumentId, payload.OrgId, len(payload.Chunks))

	chunks := make([]tenantindex.DocumentChunk, 0, len(payload.Chunks))
	for _, c := range payload.Chunks {
		vector, err := cs.embeddingProvider.Generate(ctx, c.Content, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Printf("[ERROR] Embedding failed for chunk %s: %v", c.ChunkId, err)
			msg.Nack() // Retriable: provider may be temporarily down
			return
		}

		metadata := map[string]interface{}{}
		for k, v := range c.Metadata {
			metadata[k] = v
		}
		metadata["document_id"] = payload.DocumentId

		chunks = append(chunks, tenantindex.DocumentChunk{
			ChunkID:   c.ChunkId,
			OrgID:     payload.OrgId,
			Content:   c.Content,
			Embedding: vector,
			Metadata:  metadata,
		})
	}

	if _, err := cs.index.Add(ctx, payload.OrgId, chunks); err != nil {
		if errors.Is(err, tenantindex.ErrEmptyEmbedding) {
			log.Printf("[ERROR] Document %s has an empty embedding, dropping message", payload.DocumentId)
			msg.Ack() // Not retriable
			return
		}
		log.Printf("[ERROR] Failed to index document %s: %v", payload.DocumentId, err)
		msg.Nack()
		return
	}

	if cs.eventPublisher != nil {
		evt := events.NewDocumentIndexed(payload.OrgId, payload.DocumentId, len(chunks))
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish document.indexed: %v", err)
		}
	}

	if cs.wsHub != nil {
		cs.wsHub.Notify(payload.OrgId, websocket.Notification{
			Event: events.TypeDocumentIndexed,
			Data: map[string]interface{}{
				"document_id": payload.DocumentId,
				"chunk_count": len(chunks),
			},
			Timestamp: time.Now(),
		})
	}

	msg.Ack()
}
