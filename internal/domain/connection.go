package domain

// ConnectionState — состояние попытки подключения к комнате.
type ConnectionState string

const (
	StateIdle         ConnectionState = "idle"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateDisconnected ConnectionState = "disconnected"
	StateFailed       ConnectionState = "failed"
)

// ConnectionSession — одна попытка клиента присоединиться к комнате.
type ConnectionSession struct {
	RoomID      string
	DisplayName string
	State       ConnectionState
	LastError   string
	RetryCount  int
}
