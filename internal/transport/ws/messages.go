package ws

import "encoding/json"

// Типы событий relay-протокола между клиентом и сервером.
const (
	TypeState      = "state"       // снапшот участников при входе
	TypePeerJoined = "peer_joined" // участник присоединился
	TypePeerLeft   = "peer_left"   // участник вышел
	TypeData       = "data"        // непрозрачный payload data-канала
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type StatePayload struct {
	RoomID       string                 `json:"room_id"`
	You          string                 `json:"you"` // identity получателя
	Participants []ParticipantStateItem `json:"participants"`
}

type ParticipantStateItem struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"display_name,omitempty"`
	JoinedAt    int64  `json:"joined_at_unix"`
}

type PeerEventPayload struct {
	RoomID      string `json:"room_id"`
	Identity    string `json:"identity"`
	DisplayName string `json:"display_name,omitempty"`
}

// DataPayload несёт закодированное протокольное сообщение как есть;
// relay его не разбирает. Reliable=false разрешает сбрасывать кадр,
// когда очередь получателя забита.
type DataPayload struct {
	RoomID   string          `json:"room_id,omitempty"`
	From     string          `json:"from,omitempty"`
	Reliable bool            `json:"reliable"`
	Data     json.RawMessage `json:"data"`
}
