package http

import (
	"time"

	"github.com/LikhithMar14/code-paglu/internal/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type RoomItem struct {
	ID              string    `json:"id"`
	MaxParticipants int       `json:"maxParticipants"`
	CreatedAt       time.Time `json:"createdAt"`
}

type RoomsListResponse struct {
	Items []RoomItem `json:"items"`
}

type ParticipantItem struct {
	Identity    string    `json:"identity"`
	DisplayName string    `json:"displayName"`
	JoinedAt    time.Time `json:"joinedAt"`
	LastSeen    time.Time `json:"lastSeen"`
}

type ParticipantsResponse struct {
	Items []ParticipantItem `json:"items"`
}

type SendMessageRequest struct {
	Content     string `json:"content"`
	DisplayName string `json:"displayName,omitempty"`
}

type SendMessageResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type TypingRequest struct {
	IsTyping bool `json:"isTyping"`
}

type ExecuteRequest struct {
	Language domain.Language `json:"language"`
	Code     string          `json:"code"`
	Stdin    string          `json:"stdin,omitempty"`
}

type ExecuteResponse struct {
	Output     string `json:"output"`
	Stderr     string `json:"stderr,omitempty"`
	CompileErr string `json:"compileError,omitempty"`
	OK         bool   `json:"ok"`
}
