package domain

import "time"

// Participant — один подключённый клиент комнаты.
// Identity выдаётся транспортом и стабильна на время соединения;
// DisplayName приходит отдельным сообщением и может отсутствовать.
type Participant struct {
	Identity    string
	DisplayName string
	IsLocal     bool
	JoinedAt    time.Time
	LastSeen    time.Time
}
