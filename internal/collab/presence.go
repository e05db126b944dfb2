package collab

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/LikhithMar14/code-paglu/internal/domain"
	"github.com/LikhithMar14/code-paglu/internal/protocol"
)

const (
	// Не чаще ~20 курсорных сообщений в секунду.
	DefaultCursorMinGap = 50 * time.Millisecond
	// Явный «перестал печатать» после окна простоя — пиры видят остановку
	// сразу, не дожидаясь вытеснения по staleness.
	DefaultTypingIdle = 2000 * time.Millisecond
)

// Board агрегирует эфемерные сигналы присутствия: позиции курсоров и
// индикаторы набора. Сигналы lossy-толерантны — потерянный пакет курсора
// никогда не перезапрашивается.
type Board struct {
	mu      sync.Mutex
	entries map[string]*domain.PresenceEntry

	localIdentity string
	localName     string
	publish       publishFunc
	now           func() time.Time

	cursorTTL    time.Duration
	typingTTL    time.Duration
	typingIdle   time.Duration
	cursorMinGap time.Duration

	lastCursorAt time.Time
	typingActive bool
	// Один владеемый слот таймера на сигнал: при каждом новом событии
	// старый таймер останавливается и заменяется, а не копится.
	typingTimer *time.Timer

	onChange func()
}

func NewBoard(localIdentity, localName string, publish publishFunc) *Board {
	return &Board{
		entries:       make(map[string]*domain.PresenceEntry),
		localIdentity: localIdentity,
		localName:     localName,
		publish:       publish,
		now:           time.Now,
		cursorTTL:     domain.CursorTTL,
		typingTTL:     domain.TypingTTL,
		typingIdle:    DefaultTypingIdle,
		cursorMinGap:  DefaultCursorMinGap,
	}
}

func (b *Board) SetLocalName(name string) {
	b.mu.Lock()
	b.localName = name
	b.mu.Unlock()
}

func (b *Board) SetOnChange(fn func()) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// LocalCursorMoved рассылает позицию локального курсора ненадёжной
// доставкой, с rate-limit'ом. Слишком частые перемещения просто
// отбрасываются — следующее всё равно скоро придёт.
func (b *Board) LocalCursorMoved(pos domain.CursorPosition) {
	b.mu.Lock()
	now := b.now()
	if now.Sub(b.lastCursorAt) < b.cursorMinGap {
		b.mu.Unlock()
		return
	}
	b.lastCursorAt = now
	msg := &protocol.CursorPosition{
		Header: protocol.Header{
			Type:      protocol.KindCursorPosition,
			Sender:    b.localIdentity,
			Timestamp: now.UnixMilli(),
		},
		Position: pos,
		Color:    domain.CursorColor(b.localName),
	}
	b.mu.Unlock()

	b.publish(msg, false)
}

// LocalTyping отмечает локального пользователя печатающим «сейчас».
// Первое событие даёт typing=true (надёжно), окно простоя typingIdle без
// новых правок — явное typing=false. Таймер перезапускается на каждом
// событии: обычный debounce, без накопления.
func (b *Board) LocalTyping() {
	b.mu.Lock()
	start := !b.typingActive
	b.typingActive = true
	if b.typingTimer != nil {
		b.typingTimer.Stop()
	}
	b.typingTimer = time.AfterFunc(b.typingIdle, b.typingIdleFired)
	now := b.now()
	b.mu.Unlock()

	if start {
		b.publishTyping(true, now)
	}
}

func (b *Board) typingIdleFired() {
	b.mu.Lock()
	if !b.typingActive {
		b.mu.Unlock()
		return
	}
	b.typingActive = false
	now := b.now()
	b.mu.Unlock()

	b.publishTyping(false, now)
}

// StopTyping — немедленный «перестал печатать» при выходе из комнаты.
func (b *Board) StopTyping() {
	b.mu.Lock()
	wasActive := b.typingActive
	b.typingActive = false
	if b.typingTimer != nil {
		b.typingTimer.Stop()
		b.typingTimer = nil
	}
	now := b.now()
	b.mu.Unlock()

	if wasActive {
		b.publishTyping(false, now)
	}
}

func (b *Board) publishTyping(isTyping bool, now time.Time) {
	b.publish(&protocol.Typing{
		Header: protocol.Header{
			Type:      protocol.KindTyping,
			Sender:    b.localIdentity,
			Timestamp: now.UnixMilli(),
		},
		IsTyping: isTyping,
	}, true)
}

// ApplyCursor применяет удалённую позицию курсора. Побеждает последнее
// принятое сообщение, timestamp в расчёт не берётся — та же
// слабоконсистентная политика, что и у документа.
func (b *Board) ApplyCursor(msg *protocol.CursorPosition, displayName string) {
	if msg.Sender == b.localIdentity {
		return
	}

	b.mu.Lock()
	e := b.entryLocked(msg.Sender)
	pos := msg.Position
	e.Cursor = &pos
	if msg.Color != "" {
		e.CursorColor = msg.Color
	} else {
		e.CursorColor = domain.CursorColor(displayName)
	}
	e.CursorSeenAt = b.now()
	fn := b.onChange
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (b *Board) ApplyTyping(msg *protocol.Typing) {
	if msg.Sender == b.localIdentity {
		return
	}

	b.mu.Lock()
	e := b.entryLocked(msg.Sender)
	e.IsTyping = msg.IsTyping
	e.TypingSeenAt = b.now()
	fn := b.onChange
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (b *Board) entryLocked(identity string) *domain.PresenceEntry {
	e, ok := b.entries[identity]
	if !ok {
		e = &domain.PresenceEntry{Identity: identity}
		b.entries[identity] = e
	}
	return e
}

// RemoveParticipant убирает присутствие немедленно при отключении пира,
// не дожидаясь staleness.
func (b *Board) RemoveParticipant(identity string) {
	b.mu.Lock()
	delete(b.entries, identity)
	fn := b.onChange
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Sweep вытесняет протухшие сигналы: курсоры старше cursorTTL и typing
// старше typingTTL, независимо друг от друга. Участник может быть
// «с живым курсором, но не печатает» и наоборот.
func (b *Board) Sweep() {
	b.mu.Lock()
	now := b.now()
	changed := false
	for id, e := range b.entries {
		if e.Cursor != nil && now.Sub(e.CursorSeenAt) > b.cursorTTL {
			e.Cursor = nil
			changed = true
		}
		if e.IsTyping && now.Sub(e.TypingSeenAt) > b.typingTTL {
			e.IsTyping = false
			changed = true
		}
		if e.Cursor == nil && !e.IsTyping {
			delete(b.entries, id)
		}
	}
	fn := b.onChange
	b.mu.Unlock()

	if changed && fn != nil {
		fn()
	}
}

// Active возвращает снапшот живых записей присутствия (после выметания).
func (b *Board) Active() []domain.PresenceEntry {
	b.Sweep()

	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.PresenceEntry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}

// TypingText — строка индикатора по образцу чата: "A is typing...",
// "A and B are typing...", "A and N others are typing...".
func (b *Board) TypingText(resolve func(identity string) string) string {
	names := make([]string, 0, 2)
	for _, e := range b.Active() {
		if e.IsTyping {
			names = append(names, resolve(e.Identity))
		}
	}
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0] + " is typing..."
	case 2:
		return names[0] + " and " + names[1] + " are typing..."
	default:
		return names[0] + " and " + strconv.Itoa(len(names)-1) + " others are typing..."
	}
}
