package protocol

import (
	"github.com/LikhithMar14/code-paglu/internal/domain"
)

// Типы сообщений поверх data-канала. Неизвестные типы игнорируются,
// а не отклоняются — так схему можно расширять без поломки старых клиентов.
type Kind string

const (
	KindCodeUpdate     Kind = "code-update"
	KindLanguageChange Kind = "language-change"
	KindCursorPosition Kind = "cursor-position"
	KindTyping         Kind = "typing"
	KindUserJoined     Kind = "user-joined"
	KindChat           Kind = "chat"
)

// Общие поля каждого сообщения: type, senderIdentity, timestamp (unix ms).
type Header struct {
	Type      Kind   `json:"type"`
	Sender    string `json:"senderIdentity"`
	Timestamp int64  `json:"timestamp"`
}

// CodeUpdate несёт полный снапшот документа, не дифф. Это сознательный
// размен полосы на корректность: без OT-движка снапшот всегда применим.
type CodeUpdate struct {
	Header
	Content  string          `json:"content"`
	Language domain.Language `json:"language,omitempty"`
}

// LanguageChange рассылается отдельно от контента: только так пир может
// отличить «переключили язык» от «набрали новый текст на новом языке».
type LanguageChange struct {
	Header
	Language domain.Language `json:"language"`
}

type CursorPosition struct {
	Header
	Position domain.CursorPosition `json:"position"`
	Color    string                `json:"color,omitempty"`
}

type Typing struct {
	Header
	IsTyping bool `json:"isTyping"`
}

// UserJoined объявляет display name для transport identity.
type UserJoined struct {
	Header
	DisplayName string `json:"displayName"`
}

type Chat struct {
	Header
	ID          string `json:"id,omitempty"`
	Content     string `json:"content"`
	DisplayName string `json:"displayName,omitempty"`
}
