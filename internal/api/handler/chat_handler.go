package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mietgram/campus-api/internal/api/metrics"
	"github.com/mietgram/campus-api/internal/core/domain"
	"github.com/mietgram/campus-api/internal/core/ports"
)

// Client frame types.
const (
	frameJoinRoom    = "joinRoom"
	frameSendMessage = "sendMessage"
	frameTyping      = "typing"
)

// Server event types.
const (
	EventJoinedRoom = "joinedRoom"
	EventNewMessage = "newMessage"
	EventUserTyping = "userTyping"
	EventError      = "error"
)

const (
	chatWriteWait  = 10 * time.Second
	chatPongWait   = 60 * time.Second
	chatPingPeriod = chatPongWait * 9 / 10
	chatMaxFrame   = 8 << 10
	chatSendBuffer = 64
)

// ChatHandler upgrades authenticated requests to websocket chat sessions.
// Messages are fanned out through the relay, so members connected to other
// instances receive them too.
type ChatHandler struct {
	relay    ports.ChatRelay
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewChatHandler(relay ports.ChatRelay, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		relay: relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log,
	}
}

type chatFrame struct {
	Type   string `json:"type"`
	ChatID string `json:"chatId"`
	Text   string `json:"text,omitempty"`
}

// Serve handles GET /chats/ws.
//
// @Summary      Chat websocket
// @Description  Frames: joinRoom, sendMessage, typing. Events: joinedRoom, newMessage, userTyping, error.
// @Tags         chats
// @Security     BearerAuth
// @Success      101
// @Failure      401  {object}  map[string]string
// @Router       /chats/ws [get]
func (h *ChatHandler) Serve(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written an error response.
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return nil
	}

	s := &chatSession{
		conn:  conn,
		user:  user,
		relay: h.relay,
		log:   h.log.With().Str("user_id", user.ID).Logger(),
		send:  make(chan ports.ChatEvent, chatSendBuffer),
		rooms: make(map[string]ports.ChatSubscription),
	}
	s.run(c.Request().Context())
	return nil
}

type chatSession struct {
	conn  *websocket.Conn
	user  *domain.User
	relay ports.ChatRelay
	log   zerolog.Logger
	send  chan ports.ChatEvent

	mu    sync.Mutex
	rooms map[string]ports.ChatSubscription
	wg    sync.WaitGroup
}

func (s *chatSession) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.writeLoop(ctx)
	}()

	s.readLoop(ctx)

	cancel()
	s.leaveAll()
	s.wg.Wait()
	_ = s.conn.Close()
}

func (s *chatSession) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(chatMaxFrame)
	_ = s.conn.SetReadDeadline(time.Now().Add(chatPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(chatPongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("chat connection closed unexpectedly")
			}
			return
		}

		var f chatFrame
		if err := json.Unmarshal(data, &f); err != nil {
			s.reject("", "invalid frame")
			continue
		}
		s.handleFrame(ctx, f)
	}
}

func (s *chatSession) handleFrame(ctx context.Context, f chatFrame) {
	chatID := strings.TrimSpace(f.ChatID)
	if chatID == "" {
		s.reject("", "chatId is required")
		return
	}

	switch f.Type {
	case frameJoinRoom:
		s.join(ctx, chatID)
	case frameSendMessage:
		text := strings.TrimSpace(f.Text)
		if text == "" {
			s.reject(chatID, "text is required")
			return
		}
		s.publish(ctx, ports.ChatEvent{
			Type:     EventNewMessage,
			ID:       uuid.NewString(),
			ChatID:   chatID,
			UserID:   s.user.ID,
			Username: s.user.Username,
			Text:     text,
		})
	case frameTyping:
		s.publish(ctx, ports.ChatEvent{
			Type:     EventUserTyping,
			ChatID:   chatID,
			UserID:   s.user.ID,
			Username: s.user.Username,
		})
	default:
		s.reject(chatID, "unknown frame type")
	}
}

func (s *chatSession) join(ctx context.Context, chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[chatID]; !ok {
		sub, err := s.relay.Subscribe(ctx, chatID)
		if err != nil {
			s.log.Error().Err(err).Str("chat_id", chatID).Msg("chat subscribe failed")
			s.reject(chatID, "could not join room")
			return
		}
		s.rooms[chatID] = sub

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.forward(ctx, sub)
		}()
	}

	s.deliver(ports.ChatEvent{Type: EventJoinedRoom, ChatID: chatID, UserID: s.user.ID, Timestamp: time.Now().UTC()})
}

// forward copies room events to the socket. Typing signals are not echoed
// back to the member who is typing.
func (s *chatSession) forward(ctx context.Context, sub ports.ChatSubscription) {
	for ev := range sub.Events() {
		if ev.Type == EventUserTyping && ev.UserID == s.user.ID {
			continue
		}
		select {
		case s.send <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (s *chatSession) publish(ctx context.Context, ev ports.ChatEvent) {
	ev.Timestamp = time.Now().UTC()
	if err := s.relay.Publish(ctx, ev); err != nil {
		s.log.Error().Err(err).Str("chat_id", ev.ChatID).Str("type", ev.Type).Msg("chat publish failed")
		s.reject(ev.ChatID, "message not delivered")
		return
	}
	metrics.ChatEventsRelayedTotal.WithLabelValues(ev.Type).Inc()
}

func (s *chatSession) reject(chatID, msg string) {
	s.deliver(ports.ChatEvent{Type: EventError, ChatID: chatID, Text: msg, Timestamp: time.Now().UTC()})
}

// deliver queues a session-local event without blocking the read loop.
func (s *chatSession) deliver(ev ports.ChatEvent) {
	select {
	case s.send <- ev:
	default:
		s.log.Warn().Str("type", ev.Type).Msg("chat send buffer full, dropping event")
	}
}

func (s *chatSession) leaveAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sub := range s.rooms {
		_ = sub.Close()
		delete(s.rooms, id)
	}
}

func (s *chatSession) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(chatPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(chatWriteWait))
			return
		case ev := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
			if err := s.conn.WriteJSON(ev); err != nil {
				s.log.Debug().Err(err).Msg("chat write failed")
				_ = s.conn.Close()
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(chatWriteWait)); err != nil {
				_ = s.conn.Close()
				return
			}
		}
	}
}
