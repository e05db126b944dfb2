package domain

import "errors"

var (
	ErrEmptyRoomID      = errors.New("room id is empty")
	ErrEmptyDisplayName = errors.New("display name is empty")
	ErrNotConnected     = errors.New("session not connected")
	ErrAlreadyJoined    = errors.New("session already joined")
	ErrRetriesExhausted = errors.New("connection retries exhausted")
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrBadLanguage      = errors.New("unsupported language")
)
