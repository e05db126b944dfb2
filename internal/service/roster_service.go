package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/LikhithMar14/code-paglu/internal/domain"
)

// RosterService — реестр комнат и участников на relay-сервере.
// Состояние эфемерно: комната живёт, пока в ней есть хотя бы одно
// соединение, история никуда не пишется.
type RosterService struct {
	mu    sync.RWMutex
	rooms map[string]*roomState

	maxParticipants int
}

type roomState struct {
	room         domain.Room
	participants map[string]*domain.Participant
}

func NewRosterService(maxParticipants int) *RosterService {
	if maxParticipants <= 0 || maxParticipants > 50 {
		maxParticipants = 10
	}
	return &RosterService{
		rooms:           make(map[string]*roomState),
		maxParticipants: maxParticipants,
	}
}

// JoinRoom создаёт комнату по требованию и добавляет участника.
// Повторный join с тем же identity обновляет запись, а не дублирует её.
func (s *RosterService) JoinRoom(_ context.Context, roomID, identity, displayName string) (*domain.Participant, error) {
	if roomID == "" {
		return nil, domain.ErrEmptyRoomID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.rooms[roomID]
	if !ok {
		rs = &roomState{
			room: domain.Room{
				ID:              roomID,
				MaxParticipants: s.maxParticipants,
				CreatedAt:       time.Now(),
			},
			participants: make(map[string]*domain.Participant),
		}
		s.rooms[roomID] = rs
	}

	if _, exists := rs.participants[identity]; !exists &&
		len(rs.participants) >= rs.room.MaxParticipants {
		return nil, domain.ErrRoomFull
	}

	p := &domain.Participant{
		Identity:    identity,
		DisplayName: displayName,
		JoinedAt:    time.Now(),
		LastSeen:    time.Now(),
	}
	rs.participants[identity] = p

	out := *p
	return &out, nil
}

func (s *RosterService) LeaveRoom(_ context.Context, roomID, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.rooms[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	delete(rs.participants, identity)
	if len(rs.participants) == 0 {
		delete(s.rooms, roomID)
	}
	return nil
}

func (s *RosterService) ListParticipants(_ context.Context, roomID string) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rs, ok := s.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	out := make([]domain.Participant, 0, len(rs.participants))
	for _, p := range rs.participants {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out, nil
}

func (s *RosterService) TouchHeartbeat(_ context.Context, roomID, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.rooms[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if p, ok := rs.participants[identity]; ok {
		p.LastSeen = time.Now()
	}
	return nil
}

// Rooms — снапшот живых комнат (для диагностики).
func (s *RosterService) Rooms() []domain.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Room, 0, len(s.rooms))
	for _, rs := range s.rooms {
		out = append(out, rs.room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
