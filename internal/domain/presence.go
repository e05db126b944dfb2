package domain

import (
	"fmt"
	"hash/fnv"
	"time"
)

type CursorPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// PresenceEntry — эфемерное состояние одного удалённого участника.
// Курсор и "печатает" устаревают независимо друг от друга.
type PresenceEntry struct {
	Identity     string
	Cursor       *CursorPosition
	CursorColor  string
	IsTyping     bool
	CursorSeenAt time.Time
	TypingSeenAt time.Time
}

const (
	CursorTTL = 5000 * time.Millisecond
	TypingTTL = 3000 * time.Millisecond
)

// CursorColor всегда один и тот же для одного имени, чтобы цвет
// у всех пиров совпадал без дополнительного согласования.
func CursorColor(displayName string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(displayName))
	hue := h.Sum32() % 360
	return fmt.Sprintf("hsl(%d, 70%%, 45%%)", hue)
}
