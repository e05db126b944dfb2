package transport

import "context"

// State — состояние соединения, как его сообщает провайдер.
type State string

const (
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
)

// DataEvent — входящий payload и transport identity отправителя.
type DataEvent struct {
	Payload []byte
	Sender  string
}

type PublishOptions struct {
	// Reliable: at-least-once. Иначе best-effort без ретрансмиссии —
	// для курсоров и прочих сигналов, потеря которых допустима.
	Reliable bool
}

// Transport — узкий контракт провайдера комнат (connect, publish-data,
// события). Внедряется зависимостью, чтобы компоненты сессии тестировались
// на фейковом источнике событий, а не на живой сети.
//
// Каждый On* регистрирует обработчик и возвращает функцию отписки.
// Обработчики вызываются из горутины транспорта и должны быть короткими.
type Transport interface {
	Connect(ctx context.Context, serverURL, joinToken string) error
	// Disconnect идемпотентен: безопасен в уже отключённом состоянии.
	Disconnect() error
	Publish(payload []byte, opts PublishOptions) error
	LocalIdentity() string

	OnParticipantJoined(fn func(identity string)) (unsubscribe func())
	OnParticipantLeft(fn func(identity string)) (unsubscribe func())
	OnData(fn func(payload []byte, sender string)) (unsubscribe func())
	OnStateChange(fn func(s State)) (unsubscribe func())
}
