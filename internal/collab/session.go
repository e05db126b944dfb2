package collab

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/LikhithMar14/code-paglu/internal/domain"
	"github.com/LikhithMar14/code-paglu/internal/protocol"
	"github.com/LikhithMar14/code-paglu/internal/transport"
)

// TokenSource выдаёт подписанный join token. Identity добавлен к паре
// (room, display name): её генерирует транспортный клиент, а не сервер.
// Для ядра это непрозрачный асинхронный вызов: токен либо ошибка.
type TokenSource interface {
	JoinToken(ctx context.Context, roomID, identity, displayName string) (string, error)
}

type Options struct {
	ServerURL      string
	ConnectTimeout time.Duration
	RetryBackoff   time.Duration
	MaxRetries     int
}

// ChatMessage — сообщение чата комнаты (поверх того же data-канала).
type ChatMessage struct {
	ID          string
	Sender      string
	DisplayName string
	Content     string
	SentAt      time.Time
	IsLocal     bool
}

// Session — фасад ядра: собирает Lifecycle, Roster, Reconciler и Board
// вокруг одного Transport. Транспорт и источник токенов внедряются
// зависимостями, никаких глобальных синглтонов.
type Session struct {
	opts   Options
	tr     transport.Transport
	tokens TokenSource
	log    *slog.Logger

	lifecycle *Lifecycle
	roster    *Roster
	doc       *Reconciler
	presence  *Board

	mu       sync.Mutex
	chat     []ChatMessage
	seenChat map[string]struct{}
	onChat   func(ChatMessage)

	unsubs []func()
}

func NewSession(tr transport.Transport, tokens TokenSource, opts Options, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}

	s := &Session{
		opts:     opts,
		tr:       tr,
		tokens:   tokens,
		log:      log,
		seenChat: make(map[string]struct{}),
	}

	identity := tr.LocalIdentity()
	s.lifecycle = NewLifecycle(opts.MaxRetries, opts.RetryBackoff)
	s.roster = NewRoster(identity, "")
	s.doc = NewReconciler(identity, s.publishMsg)
	s.presence = NewBoard(identity, "", s.publishMsg)

	s.unsubs = append(s.unsubs,
		tr.OnParticipantJoined(s.handleJoined),
		tr.OnParticipantLeft(s.handleLeft),
		tr.OnData(s.handleData),
		tr.OnStateChange(s.handleTransportState),
	)
	return s
}

// Join валидирует ввод, получает токен и подключается к комнате.
// Транзиентные ошибки уходят в Lifecycle и ретраятся там с backoff;
// Join возвращает только результат первой попытки.
func (s *Session) Join(ctx context.Context, roomID, displayName string) error {
	if err := s.lifecycle.BeginJoin(roomID, displayName); err != nil {
		return err
	}

	s.roster.SetLocalName(displayName)
	s.presence.SetLocalName(displayName)

	s.lifecycle.SetOnRetry(func() { s.connect(context.Background()) })
	return s.connect(ctx)
}

func (s *Session) connect(ctx context.Context) error {
	sess := s.lifecycle.Session()

	if s.opts.ServerURL == "" {
		err := errors.New("server address is not configured")
		s.log.Error("join failed", "room", sess.RoomID, "err", err)
		s.lifecycle.FailFatal(err)
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.ConnectTimeout)
	defer cancel()

	token, err := s.tokens.JoinToken(ctx, sess.RoomID, s.tr.LocalIdentity(), sess.DisplayName)
	if err != nil {
		s.log.Warn("token fetch failed", "room", sess.RoomID, "err", err)
		s.lifecycle.Failed(err)
		return err
	}

	if err := s.tr.Connect(ctx, s.opts.ServerURL, token); err != nil {
		s.log.Warn("connect failed", "room", sess.RoomID, "err", err)
		s.lifecycle.Failed(err)
		return err
	}

	if !s.lifecycle.Connected() {
		// Пользователь вышел, пока шёл dial: соединение уже никому
		// не нужно, закрываем сразу, иначе relay продолжит считать
		// участника живым.
		if err := s.tr.Disconnect(); err != nil {
			s.log.Debug("disconnect stale dial", "err", err)
		}
		return nil
	}
	s.log.Info("connected", "room", sess.RoomID, "identity", s.tr.LocalIdentity())

	// Анонс имени и catch-up снапшот для тех, кто уже в комнате.
	s.publishMsg(&protocol.UserJoined{
		Header:      s.header(protocol.KindUserJoined),
		DisplayName: sess.DisplayName,
	}, true)
	s.doc.CatchUp()
	return nil
}

// Leave — явный выход: гасит отложенный ретрай, шлёт «перестал печатать»
// и отключает транспорт. Все последующие publish — no-op.
func (s *Session) Leave() {
	s.presence.StopTyping()
	s.lifecycle.Leave()
	if err := s.tr.Disconnect(); err != nil {
		s.log.Debug("disconnect", "err", err)
	}
	s.roster.Reset()
}

// Close отписывает обработчики транспорта.
func (s *Session) Close() {
	s.Leave()
	for _, unsub := range s.unsubs {
		unsub()
	}
}

// --- локальный ввод ---

// EditorChanged — уведомление виджета редактора о смене контента.
// Настоящая локальная правка двигает и индикатор набора; погашенное
// эхо удалённого апдейта — нет.
func (s *Session) EditorChanged(content string) {
	if s.doc.LocalEdit(content) {
		s.presence.LocalTyping()
	}
}

func (s *Session) CursorMoved(line, column int) {
	s.presence.LocalCursorMoved(domain.CursorPosition{Line: line, Column: column})
}

func (s *Session) SetLanguage(lang domain.Language) error {
	return s.doc.SetLanguage(lang)
}

func (s *Session) SendChat(text string) {
	if text == "" {
		return
	}
	now := time.Now()
	msg := ChatMessage{
		ID:          s.tr.LocalIdentity() + "-" + strconv.FormatInt(now.UnixMilli(), 10),
		Sender:      s.tr.LocalIdentity(),
		DisplayName: s.lifecycle.Session().DisplayName,
		Content:     text,
		SentAt:      now,
		IsLocal:     true,
	}

	// Локальное эхо сразу, не дожидаясь сети.
	s.mu.Lock()
	s.chat = append(s.chat, msg)
	s.seenChat[msg.ID] = struct{}{}
	fn := s.onChat
	s.mu.Unlock()
	if fn != nil {
		fn(msg)
	}

	s.publishMsg(&protocol.Chat{
		Header:      s.header(protocol.KindChat),
		ID:          msg.ID,
		Content:     text,
		DisplayName: msg.DisplayName,
	}, true)
}

// --- обработчики транспорта ---

func (s *Session) handleJoined(identity string) {
	s.roster.OnParticipantJoined(identity)
	// Новичку нужен текущий документ; перерассылает тот, чья запись
	// последняя. И повторим анонс имени — новичок его не видел.
	if s.lifecycle.CanPublish() {
		s.publishMsg(&protocol.UserJoined{
			Header:      s.header(protocol.KindUserJoined),
			DisplayName: s.lifecycle.Session().DisplayName,
		}, true)
		s.doc.CatchUp()
	}
}

func (s *Session) handleLeft(identity string) {
	s.roster.OnParticipantLeft(identity)
	s.presence.RemoveParticipant(identity)
}

func (s *Session) handleTransportState(st transport.State) {
	if st == transport.StateDisconnected {
		s.lifecycle.Disconnected()
	}
}

// handleData разбирает входящий payload и раздаёт по компонентам.
// До connected входящие не обрабатываются; битый payload логируется
// и отбрасывается — одна плохая датаграмма не роняет сессию.
func (s *Session) handleData(payload []byte, sender string) {
	if s.lifecycle.State() != domain.StateConnected {
		return
	}

	kind, msg, err := protocol.Decode(payload)
	if err != nil {
		s.log.Warn("drop malformed payload", "kind", kind, "sender", sender, "err", err)
		return
	}

	switch m := msg.(type) {
	case *protocol.CodeUpdate:
		s.doc.ApplyRemote(m)
	case *protocol.LanguageChange:
		s.doc.ApplyLanguage(m)
	case *protocol.CursorPosition:
		s.presence.ApplyCursor(m, s.roster.ResolveDisplayName(m.Sender))
	case *protocol.Typing:
		s.presence.ApplyTyping(m)
	case *protocol.UserJoined:
		s.roster.OnDisplayNameAnnounced(m.Sender, m.DisplayName)
	case *protocol.Chat:
		s.applyChat(m)
	default:
		// Неизвестный тип: игнорируем ради прямой совместимости.
		s.log.Debug("ignore unknown message type", "kind", kind, "sender", sender)
	}
}

func (s *Session) applyChat(m *protocol.Chat) {
	if m.Sender == s.tr.LocalIdentity() {
		return
	}

	s.mu.Lock()
	if m.ID != "" {
		if _, dup := s.seenChat[m.ID]; dup {
			s.mu.Unlock()
			return
		}
		s.seenChat[m.ID] = struct{}{}
	}
	name := m.DisplayName
	if name == "" {
		name = s.roster.ResolveDisplayName(m.Sender)
	}
	msg := ChatMessage{
		ID:          m.ID,
		Sender:      m.Sender,
		DisplayName: name,
		Content:     m.Content,
		SentAt:      time.UnixMilli(m.Timestamp),
	}
	s.chat = append(s.chat, msg)
	fn := s.onChat
	s.mu.Unlock()

	if fn != nil {
		fn(msg)
	}
	s.roster.OnDisplayNameAnnounced(m.Sender, m.DisplayName)
}

// publishMsg — единая точка исходящих сообщений. Гейт на connected
// проверяется здесь, перед каждым publish; ошибки транспорта ловятся
// и логируются, в UI не пробрасываются.
func (s *Session) publishMsg(msg any, reliable bool) bool {
	if !s.lifecycle.CanPublish() {
		return false
	}
	payload, err := protocol.Encode(msg)
	if err != nil {
		s.log.Error("encode failed", "err", err)
		return false
	}
	if err := s.tr.Publish(payload, transport.PublishOptions{Reliable: reliable}); err != nil {
		s.log.Warn("publish failed", "err", err)
		return false
	}
	return true
}

func (s *Session) header(kind protocol.Kind) protocol.Header {
	return protocol.Header{
		Type:      kind,
		Sender:    s.tr.LocalIdentity(),
		Timestamp: time.Now().UnixMilli(),
	}
}

// --- доступ для UI ---

func (s *Session) State() domain.ConnectionState        { return s.lifecycle.State() }
func (s *Session) Info() domain.ConnectionSession       { return s.lifecycle.Session() }
func (s *Session) Document() domain.DocumentState       { return s.doc.Document() }
func (s *Session) Participants() []domain.Participant   { return s.roster.Participants() }
func (s *Session) ParticipantCount() int                { return s.roster.Count() }
func (s *Session) Presence() []domain.PresenceEntry     { return s.presence.Active() }
func (s *Session) TypingText() string                   { return s.presence.TypingText(s.roster.ResolveDisplayName) }
func (s *Session) SetOnParticipants(fn func(count int)) { s.roster.SetOnChange(fn) }
func (s *Session) SetOnPresence(fn func())              { s.presence.SetOnChange(fn) }
func (s *Session) SetOnState(fn func(domain.ConnectionState)) {
	s.lifecycle.SetOnState(fn)
}
func (s *Session) SetOnDocument(fn func(domain.DocumentState)) { s.doc.SetOnDocument(fn) }

func (s *Session) SetOnChat(fn func(ChatMessage)) {
	s.mu.Lock()
	s.onChat = fn
	s.mu.Unlock()
}

func (s *Session) Chat() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatMessage, len(s.chat))
	copy(out, s.chat)
	return out
}
