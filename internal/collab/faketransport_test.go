package collab

import (
	"context"
	"sync"

	"github.com/LikhithMar14/code-paglu/internal/protocol"
	"github.com/LikhithMar14/code-paglu/internal/transport"
)

// fakeTransport собирает опубликованные payload'ы и позволяет вручную
// инжектировать входящие события — сессии тестируются без сети.
type fakeTransport struct {
	mu        sync.Mutex
	identity  string
	connected bool
	connectFn func() error

	published [][]byte
	reliables []bool

	joined transport.Emitter[string]
	left   transport.Emitter[string]
	data   transport.Emitter[transport.DataEvent]
	state  transport.Emitter[transport.State]
}

func newFakeTransport(identity string) *fakeTransport {
	return &fakeTransport{identity: identity}
}

func (f *fakeTransport) Connect(ctx context.Context, serverURL, joinToken string) error {
	f.mu.Lock()
	fn := f.connectFn
	f.mu.Unlock()
	if fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Disconnect() error {
	f.mu.Lock()
	was := f.connected
	f.connected = false
	f.mu.Unlock()
	if was {
		f.state.Emit(transport.StateDisconnected)
	}
	return nil
}

func (f *fakeTransport) Publish(payload []byte, opts transport.PublishOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	f.published = append(f.published, cp)
	f.reliables = append(f.reliables, opts.Reliable)
	return nil
}

func (f *fakeTransport) LocalIdentity() string { return f.identity }

func (f *fakeTransport) OnParticipantJoined(fn func(string)) func() { return f.joined.Subscribe(fn) }
func (f *fakeTransport) OnParticipantLeft(fn func(string)) func()   { return f.left.Subscribe(fn) }
func (f *fakeTransport) OnStateChange(fn func(transport.State)) func() {
	return f.state.Subscribe(fn)
}

func (f *fakeTransport) OnData(fn func(payload []byte, sender string)) func() {
	return f.data.Subscribe(func(ev transport.DataEvent) { fn(ev.Payload, ev.Sender) })
}

// --- управление из теста ---

func (f *fakeTransport) injectData(msg any, sender string) {
	payload, err := protocol.Encode(msg)
	if err != nil {
		panic(err)
	}
	f.data.Emit(transport.DataEvent{Payload: payload, Sender: sender})
}

func (f *fakeTransport) injectRaw(payload []byte, sender string) {
	f.data.Emit(transport.DataEvent{Payload: payload, Sender: sender})
}

func (f *fakeTransport) isConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) publishedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

// decodedPublished разбирает все опубликованные payload'ы.
func (f *fakeTransport) decodedPublished() []any {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]any, 0, len(f.published))
	for _, p := range f.published {
		_, msg, err := protocol.Decode(p)
		if err != nil {
			panic(err)
		}
		out = append(out, msg)
	}
	return out
}

func (f *fakeTransport) lastReliable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reliables[len(f.reliables)-1]
}

// fakeTokens всегда выдаёт один и тот же токен (или ошибку).
type fakeTokens struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeTokens) JoinToken(ctx context.Context, roomID, identity, displayName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "test-token", nil
}

func (f *fakeTokens) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
