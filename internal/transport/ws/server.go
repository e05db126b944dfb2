package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/LikhithMar14/code-paglu/internal/domain"
	"github.com/LikhithMar14/code-paglu/internal/token"

	"github.com/gorilla/websocket"
)

type MemberSvc interface {
	JoinRoom(ctx context.Context, roomID, identity, displayName string) (*domain.Participant, error)
	LeaveRoom(ctx context.Context, roomID, identity string) error
	ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error)
}

type TokenVerifier interface {
	Verify(raw string) (*token.Claims, error)
}

// Server — relay data-канала: принимает ws-соединения участников,
// проверяет join token и веерит их кадры по комнате.
type Server struct {
	upgrader  websocket.Upgrader
	hub       *Hub
	memberSvc MemberSvc
	verifier  TokenVerifier

	pingEvery time.Duration
}

func NewServer(hub *Hub, member MemberSvc, verifier TokenVerifier) *Server {
	return &Server{
		hub:       hub,
		memberSvc: member,
		verifier:  verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws?access_token=...
// Комната и identity берутся из грантов токена, не из запроса.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	accessToken := strings.TrimSpace(r.URL.Query().Get("access_token"))
	if accessToken == "" {
		http.Error(w, "missing access_token", http.StatusUnauthorized)
		return
	}

	claims, err := s.verifier.Verify(accessToken)
	if err != nil {
		http.Error(w, "invalid access_token", http.StatusUnauthorized)
		return
	}
	roomID := claims.Video.Room
	identity := claims.Subject
	displayName := claims.Name

	if _, err := s.memberSvc.JoinRoom(r.Context(), roomID, identity, displayName); err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomFull):
			http.Error(w, "room full", http.StatusConflict)
		default:
			slog.Error("ws join room failed", "room", roomID, "identity", identity, "err", err)
			http.Error(w, "join failed", http.StatusInternalServerError)
		}
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		_ = s.memberSvc.LeaveRoom(r.Context(), roomID, identity)
		return
	}

	c := newWsConn(conn, roomID, identity, displayName)
	s.hub.Add(c)

	if err := s.sendState(r.Context(), c); err != nil {
		slog.Warn("ws send initial state failed", "room", roomID, "identity", identity, "err", err)
	}

	s.hub.Broadcast(roomID, Message{
		Type: TypePeerJoined,
		Payload: PeerEventPayload{
			RoomID:      roomID,
			Identity:    identity,
			DisplayName: displayName,
		},
	}, identity, true)

	go s.writeLoop(r.Context(), c)
	s.readLoop(c)

	s.hub.Remove(c)

	if err := s.memberSvc.LeaveRoom(r.Context(), roomID, identity); err != nil {
		slog.Debug("ws leave room failed", "room", roomID, "identity", identity, "err", err)
	}
	s.hub.Broadcast(roomID, Message{
		Type: TypePeerLeft,
		Payload: PeerEventPayload{
			RoomID:   roomID,
			Identity: identity,
		},
	}, identity, true)

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "room", roomID, "identity", identity, "err", err)
	}
}

func (s *Server) sendState(ctx context.Context, c *wsConn) error {
	parts, err := s.memberSvc.ListParticipants(ctx, c.roomID)
	if err != nil {
		return err
	}
	items := make([]ParticipantStateItem, 0, len(parts))
	for _, p := range parts {
		if p.Identity == c.identity {
			continue
		}
		items = append(items, ParticipantStateItem{
			Identity:    p.Identity,
			DisplayName: p.DisplayName,
			JoinedAt:    p.JoinedAt.Unix(),
		})
	}

	return c.Send(Message{
		Type: TypeState,
		Payload: StatePayload{
			RoomID:       c.roomID,
			You:          c.identity,
			Participants: items,
		},
	})
}

// InjectData — серверная публикация в комнату (API send-message /
// typing-indicator): кадр уходит всем участникам от имени отправителя
// из payload.
func (s *Server) InjectData(roomID string, data []byte, reliable bool) {
	msg := Message{
		Type: TypeData,
		Payload: DataPayload{
			RoomID:   roomID,
			Reliable: reliable,
			Data:     data,
		},
	}
	s.hub.Broadcast(roomID, msg, "", reliable)
	s.hub.ForwardToBridge(roomID, msg)
}

func (s *Server) readLoop(c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case TypeData:
			var p DataPayload
			if decode(msg.Payload, &p) != nil || len(p.Data) == 0 {
				continue
			}
			// from проставляет relay, клиенту не верим
			p.From = c.identity
			p.RoomID = c.roomID
			out := Message{Type: TypeData, Payload: p}
			s.hub.Broadcast(c.roomID, out, c.identity, p.Reliable)
			s.hub.ForwardToBridge(c.roomID, out)
		default:
			// ignore
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}

type wsConn struct {
	conn        *websocket.Conn
	roomID      string
	identity    string
	displayName string
	sendMu      chan struct{}
	closed      chan struct{}
}

func newWsConn(c *websocket.Conn, roomID, identity, displayName string) *wsConn {
	return &wsConn{
		conn:        c,
		roomID:      roomID,
		identity:    identity,
		displayName: displayName,
		sendMu:      make(chan struct{}, 1),
		closed:      make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

// TrySend не ждёт занятый сокет: если писатель занят, lossy-кадр
// просто сбрасывается.
func (c *wsConn) TrySend(msg Message) bool {
	select {
	case c.sendMu <- struct{}{}:
	default:
		return false
	}
	defer func() { <-c.sendMu }()
	_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))

	return c.conn.WriteJSON(msg) == nil
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) Identity() string { return c.identity }
func (c *wsConn) RoomID() string   { return c.roomID }
