package collab

import (
	"sort"
	"sync"
	"time"

	"github.com/LikhithMar14/code-paglu/internal/domain"
)

// Roster ведёт известный локально список участников комнаты и отображение
// transport identity -> display name.
//
// Политика: после ухода участника запись о нём удаляется, но имя в names
// сохраняется до конца сессии — опоздавшие сообщения от этого identity
// атрибутируются по имени, а не по сырому идентификатору.
type Roster struct {
	mu           sync.RWMutex
	local        domain.Participant
	participants map[string]*domain.Participant
	names        map[string]string
	onChange     func(count int)
	now          func() time.Time
}

func NewRoster(localIdentity, localName string) *Roster {
	r := &Roster{
		local: domain.Participant{
			Identity:    localIdentity,
			DisplayName: localName,
			IsLocal:     true,
		},
		participants: make(map[string]*domain.Participant),
		names:        map[string]string{localIdentity: localName},
		now:          time.Now,
	}
	return r
}

// SetOnChange регистрирует наблюдателя числа участников (фигура
// «N participants» в UI). Вызывается на каждой мутации состава.
func (r *Roster) SetOnChange(fn func(count int)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

func (r *Roster) OnParticipantJoined(identity string) {
	r.mu.Lock()
	if _, ok := r.participants[identity]; !ok {
		p := &domain.Participant{
			Identity:    identity,
			DisplayName: r.resolveLocked(identity),
			JoinedAt:    r.now(),
			LastSeen:    r.now(),
		}
		r.participants[identity] = p
	}
	fn, n := r.onChange, r.countLocked()
	r.mu.Unlock()

	if fn != nil {
		fn(n)
	}
}

func (r *Roster) OnParticipantLeft(identity string) {
	r.mu.Lock()
	delete(r.participants, identity)
	// names[identity] намеренно не трогаем
	fn, n := r.onChange, r.countLocked()
	r.mu.Unlock()

	if fn != nil {
		fn(n)
	}
}

// OnDisplayNameAnnounced идемпотентен: повторный вызов с той же парой
// ничего не меняет.
func (r *Roster) OnDisplayNameAnnounced(identity, name string) {
	if name == "" {
		return
	}

	r.mu.Lock()
	changed := r.names[identity] != name
	if changed {
		r.names[identity] = name
		if p, ok := r.participants[identity]; ok {
			p.DisplayName = name
		}
	}
	fn, n := r.onChange, r.countLocked()
	r.mu.Unlock()

	if changed && fn != nil {
		fn(n)
	}
}

// ResolveDisplayName отдаёт известное имя, иначе сырой identity.
// Фоллбек важен: сообщение может прийти раньше анонса имени, и UI
// не должен ни падать, ни рисовать пустую строку.
func (r *Roster) ResolveDisplayName(identity string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(identity)
}

func (r *Roster) resolveLocked(identity string) string {
	if name, ok := r.names[identity]; ok && name != "" {
		return name
	}
	return identity
}

// Participants возвращает снапшот состава: локальный участник плюс
// удалённые, в стабильном порядке.
func (r *Roster) Participants() []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Participant, 0, len(r.participants)+1)
	out = append(out, r.local)
	for _, p := range r.participants {
		out = append(out, *p)
	}
	sort.Slice(out[1:], func(i, j int) bool {
		return out[i+1].Identity < out[j+1].Identity
	})
	return out
}

func (r *Roster) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.countLocked()
}

func (r *Roster) countLocked() int { return len(r.participants) + 1 }

func (r *Roster) LocalIdentity() string { return r.local.Identity }

// SetLocalName фиксирует выбранное пользователем имя перед подключением.
func (r *Roster) SetLocalName(name string) {
	r.mu.Lock()
	r.local.DisplayName = name
	r.names[r.local.Identity] = name
	r.mu.Unlock()
}

// Reset очищает состав при отключении; карту имён сохраняем.
func (r *Roster) Reset() {
	r.mu.Lock()
	r.participants = make(map[string]*domain.Participant)
	fn, n := r.onChange, r.countLocked()
	r.mu.Unlock()

	if fn != nil {
		fn(n)
	}
}
