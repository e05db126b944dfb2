package ws

import (
	"sync"
)

type Conn interface {
	// Send ставит сообщение в очередь отправки (надёжный путь).
	Send(msg Message) error
	// TrySend — lossy-путь: false, если очередь забита и кадр сброшен.
	TrySend(msg Message) bool
	Close() error
	Identity() string
	RoomID() string
}

// Hub держит множества соединений по комнатам и веерит сообщения.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Conn]struct{} // roomID -> set of connections

	// bridge, если задан, получает data-кадры для доставки на другие
	// инстансы relay.
	bridge func(roomID string, msg Message)
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Conn]struct{})}
}

func (h *Hub) SetBridge(fn func(roomID string, msg Message)) {
	h.mu.Lock()
	h.bridge = fn
	h.mu.Unlock()
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[c.RoomID()]
	if !ok {
		rs = make(map[Conn]struct{})
		h.rooms[c.RoomID()] = rs
	}
	rs[c] = struct{}{}
}

func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rs, ok := h.rooms[c.RoomID()]; ok {
		delete(rs, c)
		if len(rs) == 0 {
			delete(h.rooms, c.RoomID())
		}
	}
}

// Broadcast рассылает всем в комнате, кроме exceptIdentity (пустая строка —
// всем). reliable=false использует TrySend: медленный получатель теряет
// кадр, но не тормозит остальных.
func (h *Hub) Broadcast(roomID string, msg Message, exceptIdentity string, reliable bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if rs, ok := h.rooms[roomID]; ok {
		for c := range rs {
			if exceptIdentity != "" && c.Identity() == exceptIdentity {
				continue
			}
			if reliable {
				_ = c.Send(msg) // best-effort
			} else {
				_ = c.TrySend(msg)
			}
		}
	}
}

// ForwardToBridge отдаёт data-кадр мосту между инстансами, если он есть.
func (h *Hub) ForwardToBridge(roomID string, msg Message) {
	h.mu.RLock()
	fn := h.bridge
	h.mu.RUnlock()

	if fn != nil {
		fn(roomID, msg)
	}
}

func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
