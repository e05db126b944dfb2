package domain

import "time"

// Room живёт на relay-сервере только пока в ней есть участники.
type Room struct {
	ID              string
	MaxParticipants int
	CreatedAt       time.Time
}
