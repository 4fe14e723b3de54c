package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/rajgit2024/Chatting-app/internal/cache"
	"github.com/rajgit2024/Chatting-app/internal/database"
	"github.com/rajgit2024/Chatting-app/internal/models"
	"github.com/rajgit2024/Chatting-app/internal/realtime"
	"github.com/rajgit2024/Chatting-app/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// wsClient implements realtime.Client by wrapping a websocket connection.
// Writes are serialized: the router fans out from many goroutines and gorilla
// connections allow only one concurrent writer.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) Send(message []byte) bool {
	if c == nil || c.conn == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		return false
	}
	return true
}

func (c *wsClient) Close() {
	if c != nil && c.conn != nil {
		_ = c.conn.Close()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is already handled at Gin level; allow upgrade from any origin here
		return true
	},
}

// userDirectory caches user-directory lookups made while identifying
// connections, so reconnect storms do not hammer the users table.
var userDirectory = cache.NewSimpleCache[string, models.User]()

const userDirectoryTTL = 30 * time.Second

func lookupUser(userID string) (models.User, error) {
	if user, ok := userDirectory.Get(userID); ok {
		return user, nil
	}
	user, err := store.New(database.GetDB()).GetUser(userID)
	if err != nil {
		return models.User{}, err
	}
	userDirectory.Set(userID, *user, userDirectoryTTL)
	return *user, nil
}

// Inbound payload shapes.

type identifyPayload struct {
	UserID string `json:"userId"`
}

type roomPayload struct {
	ChatID string `json:"chatId"`
}

type typingInPayload struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type sendMessagePayload struct {
	ChatID   string `json:"chatId"`
	SenderID string `json:"senderId"`
	Content  string `json:"content"`
}

func sendEvent(client realtime.Client, event string, data any) {
	if frame, err := realtime.Encode(event, data); err == nil {
		client.Send(frame)
	}
}

func sendError(client realtime.Client, message string) {
	sendEvent(client, realtime.EventError, gin.H{"message": message})
}

func sendDebug(client realtime.Client, message string) {
	sendEvent(client, realtime.EventDebug, gin.H{"message": message})
}

// WebSocketHandler upgrades the connection, admits it to the hub and runs the
// read loop that dispatches client events. It requires JWT middleware to have
// set "user_id" in context; the socket-level identify step must claim the
// same identity the token proved.
func WebSocketHandler(c *gin.Context) {
	authUserID := c.GetString("user_id")
	if authUserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authorized"})
		return
	}

	hub := realtime.GetHub()
	if hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Realtime service not running"})
		return
	}

	// Upgrade HTTP connection to WebSocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("websocket upgrade error:", err)
		return
	}

	client := &wsClient{conn: conn}
	connID := hub.Connect(client)

	// Heartbeat: send periodic pings; close on error
	pingTicker := time.NewTicker(30 * time.Second)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-pingTicker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
					// ping failed; reader loop will exit on next error
					return
				}
			}
		}
	}()
	defer func() {
		close(done)
		pingTicker.Stop()
		hub.Disconnect(connID)
		client.Close()
	}()

	// Reader loop: dispatch client events; pong handler keeps the conn alive
	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			// Normal close or error; exit loop
			return
		}

		var env realtime.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			sendError(client, "malformed event frame")
			continue
		}
		dispatchClientEvent(hub, client, connID, authUserID, env)
	}
}

func dispatchClientEvent(hub *realtime.Hub, client *wsClient, connID, authUserID string, env realtime.Envelope) {
	switch env.Event {
	case realtime.EventIdentify:
		var p identifyPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.UserID == "" {
			sendError(client, "identify requires userId")
			return
		}
		if p.UserID != authUserID {
			sendError(client, "identity does not match the authenticated user")
			return
		}
		if _, err := lookupUser(p.UserID); err != nil {
			sendError(client, "unknown user")
			return
		}
		if err := hub.Identify(connID, p.UserID); err != nil {
			if errors.Is(err, realtime.ErrAlreadyIdentified) {
				sendError(client, "connection already identified")
			} else {
				sendError(client, "identify failed")
			}
			return
		}
		sendDebug(client, "identified as user "+p.UserID)
		hub.SendOnlineContacts(p.UserID)

	case realtime.EventJoinRoom:
		// Defensive resubscribe; the reconciler normally covers this.
		var p roomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ChatID == "" {
			sendError(client, "joinRoom requires chatId")
			return
		}
		userID, ok := hub.Registry.UserOf(connID)
		if !ok {
			sendError(client, "identify before joining rooms")
			return
		}
		isMember, err := store.New(database.GetDB()).IsMember(p.ChatID, userID)
		if err != nil {
			sendError(client, "membership check failed")
			return
		}
		if !isMember {
			sendError(client, "not a member of this chat")
			return
		}
		hub.Rooms.Subscribe(p.ChatID, userID)
		sendDebug(client, "joined room "+p.ChatID)

	case realtime.EventLeaveRoom:
		var p roomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ChatID == "" {
			sendError(client, "leaveRoom requires chatId")
			return
		}
		if userID, ok := hub.Registry.UserOf(connID); ok {
			hub.Rooms.Unsubscribe(p.ChatID, userID)
		}

	case realtime.EventTyping:
		var p typingInPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ChatID == "" {
			sendError(client, "typing requires chatId")
			return
		}
		userID, ok := hub.Registry.UserOf(connID)
		if !ok {
			sendError(client, "identify before sending typing events")
			return
		}
		// The typist is always the connection's own user, whatever the
		// payload claims.
		hub.Router.Route(realtime.TypingChanged{
			ChatID:   p.ChatID,
			UserID:   userID,
			IsTyping: p.IsTyping,
		})

	case realtime.EventSendMessage:
		// Optional direct path; REST is canonical. Same ordering: persist
		// first, then route.
		var p sendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ChatID == "" || p.Content == "" {
			sendError(client, "sendMessage requires chatId and content")
			return
		}
		userID, ok := hub.Registry.UserOf(connID)
		if !ok {
			sendError(client, "identify before sending messages")
			return
		}
		s := store.New(database.GetDB())
		isMember, err := s.IsMember(p.ChatID, userID)
		if err != nil || !isMember {
			sendError(client, "not a member of this chat")
			return
		}
		msg, err := s.AppendMessage(p.ChatID, userID, p.Content)
		if err != nil {
			// Only this action fails; the connection and other chats stay up.
			sendError(client, "failed to store message")
			return
		}
		hub.Router.Route(realtime.MessageCreated{ChatID: msg.ChatID, Message: msg})

	default:
		sendError(client, "unknown event: "+env.Event)
	}
}
