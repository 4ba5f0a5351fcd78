package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"insightflow-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const clusterChannel = "cluster_events"

// Notification is the payload pushed to connected dashboards when
// something happens inside an organization (document indexed, turn
// completed, session evicted).
type Notification struct {
	Event     string                 `json:"event"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// Hub fans notifications out to the websocket clients of each
// organization. Clients are grouped by org so one tenant's events are
// never pushed to another tenant's connections. Redis pub/sub carries
// notifications across instances when configured.
type Hub struct {
	// Registered clients map: OrgID -> list of clients (multi-dashboard)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.OrgID] = append(h.clients[client.OrgID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"org_id": client.OrgID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.OrgID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.OrgID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.OrgID]) == 0 {
					delete(h.clients, client.OrgID)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"org_id": client.OrgID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Notify sends a notification to every connection of one organization,
// locally and, through Redis, on other instances.
func (h *Hub) Notify(orgID string, notification Notification) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": notification,
	})

	h.mu.RLock()
	clients, localFound := h.clients[orgID]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				// Run owns the close; closing here too would double-close Send.
				h.logger.Warn("Hub", "Client Send buffer full, dropping message", map[string]interface{}{"org_id": orgID})
				h.unregister <- client
			}
		}
	}

	if h.rdb != nil {
		payload := map[string]interface{}{
			"target_org_id": orgID,
			"message":       data,
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), clusterChannel, jsonPayload)
	}
}

// subscribeToRedis delivers cross-instance notifications. Every
// instance subscribes to the cluster channel and forwards messages for
// orgs it has local connections for; the rest are dropped.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			TargetOrgID string          `json:"target_org_id"`
			Message     json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		h.mu.RLock()
		clients, ok := h.clients[payload.TargetOrgID]
		h.mu.RUnlock()

		if ok {
			for _, client := range clients {
				select {
				case client.Send <- payload.Message:
				default:
					h.unregister <- client
				}
			}
		}
	}
}
