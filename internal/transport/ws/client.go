package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/LikhithMar14/code-paglu/internal/transport"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var ErrNotConnected = errors.New("ws transport not connected")

// Client реализует transport.Transport поверх relay-сервера.
// Identity генерируется при создании клиента и стабильна на всё время
// его жизни; токен выпускается уже под неё.
type Client struct {
	identity string

	mu   sync.Mutex
	conn *clientConn

	joined transport.Emitter[string]
	left   transport.Emitter[string]
	data   transport.Emitter[transport.DataEvent]
	state  transport.Emitter[transport.State]
}

// clientConn — состояние одного физического подключения; на реконнекте
// создаётся заново.
type clientConn struct {
	ws     *websocket.Conn
	send   chan Message
	closed chan struct{}
	once   sync.Once
}

func NewClient() *Client {
	return &Client{identity: uuid.NewString()}
}

func (c *Client) LocalIdentity() string { return c.identity }

func (c *Client) Connect(ctx context.Context, serverURL, joinToken string) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return errors.New("ws transport already connected")
	}
	c.mu.Unlock()

	u, err := url.Parse(serverURL)
	if err != nil {
		return err
	}
	// serverURL — база relay; /ws дописывается к её пути, а не заменяет его,
	// чтобы relay за префиксом вида ws://host/relay тоже работал.
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"access_token": {joinToken}}.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return err
	}

	cc := &clientConn{
		ws:     ws,
		send:   make(chan Message, 64),
		closed: make(chan struct{}),
	}

	c.mu.Lock()
	c.conn = cc
	c.mu.Unlock()

	go c.readLoop(cc)
	go c.writeLoop(cc)

	c.state.Emit(transport.StateConnected)
	return nil
}

// Disconnect идемпотентен: повторный вызов в отключённом состоянии — no-op.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	cc := c.conn
	c.conn = nil
	c.mu.Unlock()

	if cc == nil {
		return nil
	}
	c.teardown(cc)
	return nil
}

func (c *Client) teardown(cc *clientConn) {
	cc.once.Do(func() {
		close(cc.closed)
		_ = cc.ws.Close()
		c.state.Emit(transport.StateDisconnected)
	})
}

func (c *Client) Publish(payload []byte, opts transport.PublishOptions) error {
	c.mu.Lock()
	cc := c.conn
	c.mu.Unlock()

	if cc == nil {
		return ErrNotConnected
	}

	msg := Message{
		Type: TypeData,
		Payload: DataPayload{
			Reliable: opts.Reliable,
			Data:     json.RawMessage(payload),
		},
	}

	if !opts.Reliable {
		// lossy: забитая очередь — кадр сброшен, это не ошибка
		select {
		case cc.send <- msg:
		default:
		}
		return nil
	}

	select {
	case cc.send <- msg:
		return nil
	case <-cc.closed:
		return ErrNotConnected
	}
}

func (c *Client) OnParticipantJoined(fn func(string)) func() { return c.joined.Subscribe(fn) }
func (c *Client) OnParticipantLeft(fn func(string)) func()   { return c.left.Subscribe(fn) }
func (c *Client) OnStateChange(fn func(transport.State)) func() {
	return c.state.Subscribe(fn)
}

func (c *Client) OnData(fn func(payload []byte, sender string)) func() {
	return c.data.Subscribe(func(ev transport.DataEvent) { fn(ev.Payload, ev.Sender) })
}

func (c *Client) readLoop(cc *clientConn) {
	defer func() {
		c.mu.Lock()
		if c.conn == cc {
			c.conn = nil
		}
		c.mu.Unlock()
		c.teardown(cc)
	}()

	for {
		_, raw, err := cc.ws.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			slog.Debug("ws client drop malformed frame", "err", err)
			continue
		}

		switch msg.Type {
		case TypeState:
			var p StatePayload
			if decode(msg.Payload, &p) != nil {
				continue
			}
			for _, item := range p.Participants {
				c.joined.Emit(item.Identity)
			}
		case TypePeerJoined:
			var p PeerEventPayload
			if decode(msg.Payload, &p) == nil && p.Identity != c.identity {
				c.joined.Emit(p.Identity)
			}
		case TypePeerLeft:
			var p PeerEventPayload
			if decode(msg.Payload, &p) == nil {
				c.left.Emit(p.Identity)
			}
		case TypeData:
			var p DataPayload
			if decode(msg.Payload, &p) == nil && len(p.Data) > 0 {
				c.data.Emit(transport.DataEvent{Payload: p.Data, Sender: p.From})
			}
		default:
			// неизвестный тип кадра relay — игнорируем
		}
	}
}

func (c *Client) writeLoop(cc *clientConn) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg := <-cc.send:
			_ = cc.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := cc.ws.WriteJSON(msg); err != nil {
				c.teardown(cc)
				return
			}
		case <-ticker.C:
			_ = cc.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-cc.closed:
			return
		}
	}
}
