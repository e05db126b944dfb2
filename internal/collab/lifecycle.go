package collab

import (
	"strings"
	"sync"
	"time"

	"github.com/LikhithMar14/code-paglu/internal/domain"
)

const (
	DefaultMaxRetries     = 3
	DefaultRetryBackoff   = 2000 * time.Millisecond
	DefaultConnectTimeout = 15000 * time.Millisecond
)

// Lifecycle — машина состояний подключения:
//
//	idle -> connecting -> connected -> disconnected
//	         |               ^
//	         v               | (retry, пока retryCount < maxRetries)
//	       failed -----------+
//
// Все публикации и обработка входящих сообщений гейтятся на connected.
type Lifecycle struct {
	mu      sync.Mutex
	session domain.ConnectionSession

	maxRetries int
	backoff    time.Duration

	retryTimer *time.Timer
	onRetry    func()
	onState    func(domain.ConnectionState)
}

func NewLifecycle(maxRetries int, backoff time.Duration) *Lifecycle {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	return &Lifecycle{
		session:    domain.ConnectionSession{State: domain.StateIdle},
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// SetOnRetry задаёт колбэк запланированного повторного подключения.
func (l *Lifecycle) SetOnRetry(fn func()) {
	l.mu.Lock()
	l.onRetry = fn
	l.mu.Unlock()
}

func (l *Lifecycle) SetOnState(fn func(domain.ConnectionState)) {
	l.mu.Lock()
	l.onState = fn
	l.mu.Unlock()
}

// BeginJoin валидирует ввод и переводит idle/failed/disconnected -> connecting.
// Пустые room id / display name — ошибка конфигурации, без авторетрая.
func (l *Lifecycle) BeginJoin(roomID, displayName string) error {
	if strings.TrimSpace(roomID) == "" {
		return domain.ErrEmptyRoomID
	}
	if strings.TrimSpace(displayName) == "" {
		return domain.ErrEmptyDisplayName
	}

	l.mu.Lock()

	switch l.session.State {
	case domain.StateConnecting, domain.StateConnected:
		l.mu.Unlock()
		return domain.ErrAlreadyJoined
	}

	l.session = domain.ConnectionSession{
		RoomID:      roomID,
		DisplayName: displayName,
		State:       domain.StateConnecting,
	}
	notify := l.notifyFnLocked()
	l.mu.Unlock()
	notify()
	return nil
}

// Connected: транспорт подтвердил установку сессии. Счётчик ретраев
// обнуляется. Возвращает false, если попытка уже не актуальна — например,
// пользователь вышел, пока шёл dial; вызывающий обязан закрыть соединение.
func (l *Lifecycle) Connected() bool {
	l.mu.Lock()

	if l.session.State != domain.StateConnecting {
		l.mu.Unlock()
		return false
	}
	l.session.State = domain.StateConnected
	l.session.RetryCount = 0
	l.session.LastError = ""
	notify := l.notifyFnLocked()
	l.mu.Unlock()
	notify()
	return true
}

// Failed фиксирует ошибку попытки подключения. Пока retryCount < maxRetries,
// планируется повтор через backoff; дальше — только явное действие
// пользователя.
func (l *Lifecycle) Failed(err error) {
	l.mu.Lock()

	if l.session.State != domain.StateConnecting {
		l.mu.Unlock()
		return
	}
	l.session.State = domain.StateFailed
	if err != nil {
		l.session.LastError = err.Error()
	}
	l.session.RetryCount++

	if l.session.RetryCount < l.maxRetries {
		l.stopRetryLocked()
		l.retryTimer = time.AfterFunc(l.backoff, l.fireRetry)
	}
	notify := l.notifyFnLocked()
	l.mu.Unlock()
	notify()
}

// FailFatal — ошибка конфигурации (нет адреса сервера и т.п.):
// попытка закрывается без авторетрая, нужен явный повтор пользователем.
func (l *Lifecycle) FailFatal(err error) {
	l.mu.Lock()

	if l.session.State != domain.StateConnecting {
		l.mu.Unlock()
		return
	}
	l.session.State = domain.StateFailed
	if err != nil {
		l.session.LastError = err.Error()
	}
	l.session.RetryCount = l.maxRetries
	l.stopRetryLocked()
	notify := l.notifyFnLocked()
	l.mu.Unlock()
	notify()
}

func (l *Lifecycle) fireRetry() {
	l.mu.Lock()
	if l.session.State != domain.StateFailed {
		l.mu.Unlock()
		return
	}
	l.session.State = domain.StateConnecting
	fn := l.onRetry
	notify := l.notifyFnLocked()
	l.mu.Unlock()

	notify()
	if fn != nil {
		fn()
	}
}

// Disconnected: явный выход либо обрыв, о котором сообщил транспорт.
// После этого каждая попытка publish обязана стать no-op.
func (l *Lifecycle) Disconnected() {
	l.mu.Lock()

	if l.session.State != domain.StateConnected {
		l.mu.Unlock()
		return
	}
	l.session.State = domain.StateDisconnected
	notify := l.notifyFnLocked()
	l.mu.Unlock()
	notify()
}

// Leave отменяет отложенный ретрай, если пользователь вышел раньше,
// чем тот успел сработать.
func (l *Lifecycle) Leave() {
	l.mu.Lock()

	l.stopRetryLocked()
	notify := func() {}
	switch l.session.State {
	case domain.StateConnected:
		l.session.State = domain.StateDisconnected
		notify = l.notifyFnLocked()
	case domain.StateConnecting, domain.StateFailed:
		l.session.State = domain.StateIdle
		notify = l.notifyFnLocked()
	}
	l.mu.Unlock()
	notify()
}

// CanPublish — проверка перед каждым publish на стороне вызова.
func (l *Lifecycle) CanPublish() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session.State == domain.StateConnected
}

func (l *Lifecycle) State() domain.ConnectionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session.State
}

func (l *Lifecycle) Session() domain.ConnectionSession {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session
}

func (l *Lifecycle) stopRetryLocked() {
	if l.retryTimer != nil {
		l.retryTimer.Stop()
		l.retryTimer = nil
	}
}

// notifyFnLocked снимает слепок наблюдателя и состояния под локом;
// вызывать после Unlock. Доставка синхронная, чтобы быстрая пара
// переходов (connecting -> connected) не приходила в UI задом наперёд.
func (l *Lifecycle) notifyFnLocked() func() {
	fn, st := l.onState, l.session.State
	return func() {
		if fn != nil {
			fn(st)
		}
	}
}
