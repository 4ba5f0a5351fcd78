package service

import (
	"context"
	"time"

	"insightflow-be/internal/dto"
	"insightflow-be/internal/pkg/logger"
	"insightflow-be/pkg/memory"
	"insightflow-be/pkg/pipeline"

	"github.com/gofiber/fiber/v2"
)

type IChatService interface {
	Query(ctx context.Context, orgID string, request *dto.QueryRequest) (*dto.QueryResponse, error)
	QueryStream(ctx context.Context, orgID string, request *dto.QueryRequest) <-chan pipeline.Event
	SessionInfo(orgID, conversationID string) (*dto.SessionInfoResponse, error)
	SessionHistory(orgID, conversationID string) (*dto.SessionHistoryResponse, error)
	DeleteSession(orgID, conversationID string) error
	CleanupSessions(maxAge time.Duration) *dto.CleanupSessionsResponse
}

type chatService struct {
	pipeline *pipeline.Pipeline
	sessions *memory.Manager
	logger   logger.ILogger
}

func NewChatService(pl *pipeline.Pipeline, sessions *memory.Manager, log logger.ILogger) IChatService {
	return &chatService{
		pipeline: pl,
		sessions: sessions,
		logger:   log,
	}
}

func (cs *chatService) Query(ctx context.Context, orgID string, request *dto.QueryRequest) (*dto.QueryResponse, error) {
	conversationID := request.ConversationOrDefault()

	result, err := cs.pipeline.Process(ctx, orgID, request.Question, conversationID)
	if err != nil {
		return nil, err
	}

	return &dto.QueryResponse{
		Answer:         result.Answer,
		ConversationId: result.ConversationID,
		Steps:          result.Steps,
		Metadata:       result.Metadata,
	}, nil
}

func (cs *chatService) QueryStream(ctx context.Context, orgID string, request *dto.QueryRequest) <-chan pipeline.Event {
	return cs.pipeline.Run(ctx, orgID, request.Question, request.ConversationOrDefault())
}

func (cs *chatService) SessionInfo(orgID, conversationID string) (*dto.SessionInfoResponse, error) {
	info, found := cs.sessions.Info(orgID, conversationID)
	if !found {
		return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}

	return &dto.SessionInfoResponse{
		ConversationId: info.ID,
		CreatedAt:      info.CreatedAt,
		LastActive:     info.LastActive,
		MessageCount:   info.MessageCount,
		TurnCount:      info.TurnCount,
	}, nil
}

func (cs *chatService) SessionHistory(orgID, conversationID string) (*dto.SessionHistoryResponse, error) {
	if _, found := cs.sessions.Info(orgID, conversationID); !found {
		return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}

	turns := cs.sessions.Snapshot(orgID, conversationID)
	out := make([]dto.SessionTurnResponse, len(turns))
	for i, t := range turns {
		out[i] = dto.SessionTurnResponse{
			Question:  t.Question,
			Answer:    t.Answer,
			Route:     t.Route,
			Timestamp: t.Timestamp,
		}
	}

	return &dto.SessionHistoryResponse{
		ConversationId: conversationID,
		Turns:          out,
	}, nil
}

func (cs *chatService) DeleteSession(orgID, conversationID string) error {
	if !cs.sessions.Delete(orgID, conversationID) {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	cs.logger.Info("ChatService", "Session deleted", map[string]interface{}{
		"org_id":          orgID,
		"conversation_id": conversationID,
	})
	return nil
}

func (cs *chatService) CleanupSessions(maxAge time.Duration) *dto.CleanupSessionsResponse {
	evicted := cs.sessions.EvictStale(maxAge)
	cs.logger.Info("ChatService", "Stale sessions evicted", map[string]interface{}{
		"evicted_count": evicted,
		"max_age":       maxAge.String(),
	})
	return &dto.CleanupSessionsResponse{EvictedCount: evicted}
}
