package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"staff_messenger/internal/repository"
	"staff_messenger/pkg/jwt"
	"staff_messenger/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is enforced by the CORS layer in front
	},
}

type wsClient struct {
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
}

// TypingHub pushes typing transitions to connected clients. Events arrive
// over redis pubsub so every server instance sees them, and are fanned out
// to the conversation's members except the typist.
type TypingHub struct {
	typingRepo       repository.TypingRepository
	conversationRepo repository.ConversationRepository
	jwtSecret        string
	log              logger.Logger

	register   chan *wsClient
	unregister chan *wsClient
	events     chan repository.TypingEvent
	clients    map[uuid.UUID]map[*wsClient]bool
}

func NewTypingHub(
	typingRepo repository.TypingRepository,
	conversationRepo repository.ConversationRepository,
	jwtSecret string,
	log logger.Logger,
) *TypingHub {
	return &TypingHub{
		typingRepo:       typingRepo,
		conversationRepo: conversationRepo,
		jwtSecret:        jwtSecret,
		log:              log,
		register:         make(chan *wsClient),
		unregister:       make(chan *wsClient),
		events:           make(chan repository.TypingEvent, 256),
		clients:          make(map[uuid.UUID]map[*wsClient]bool),
	}
}

// Run owns the client map; it exits when ctx is cancelled.
func (h *TypingHub) Run(ctx context.Context) {
	pubsub := h.typingRepo.Subscribe(ctx)
	defer pubsub.Close()

	go func() {
		for msg := range pubsub.Channel() {
			var event repository.TypingEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.log.Warn("Dropping malformed typing event", "error", err)
				continue
			}
			select {
			case h.events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for c := range conns {
					close(c.send)
				}
			}
			return
		case c := <-h.register:
			if h.clients[c.userID] == nil {
				h.clients[c.userID] = make(map[*wsClient]bool)
			}
			h.clients[c.userID][c] = true
		case c := <-h.unregister:
			if conns, ok := h.clients[c.userID]; ok {
				if conns[c] {
					delete(conns, c)
					close(c.send)
				}
				if len(conns) == 0 {
					delete(h.clients, c.userID)
				}
			}
		case event := <-h.events:
			h.deliver(ctx, event)
		}
	}
}

func (h *TypingHub) deliver(ctx context.Context, event repository.TypingEvent) {
	memberIDs, err := h.conversationRepo.ListMemberIDs(ctx, event.ConversationID)
	if err != nil {
		h.log.Warn("Failed to resolve typing event members", "error", err)
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	for _, memberID := range memberIDs {
		if memberID == event.UserID {
			continue
		}
		for c := range h.clients[memberID] {
			select {
			case c.send <- payload:
			default:
				// Slow consumer; drop the connection rather than block the hub.
				delete(h.clients[memberID], c)
				close(c.send)
			}
		}
	}
}

// HandleTyping upgrades the connection and streams typing events for the
// authenticated user. Auth comes from a token query parameter because
// browsers cannot set headers on websocket dials.
func (h *TypingHub) HandleTyping(c *gin.Context) {
	claims, err := jwt.ParseToken(c.Query("token"), h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user ID in token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := &wsClient{userID: userID, conn: conn, send: make(chan []byte, 16)}
	h.register <- client

	go func() {
		defer conn.Close()
		for payload := range client.send {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}()

	// Reader loop only watches for the peer going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister <- client
}
