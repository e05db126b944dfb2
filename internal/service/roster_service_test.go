package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/LikhithMar14/code-paglu/internal/domain"
)

func TestRosterService_JoinCreatesRoom(t *testing.T) {
	svc := NewRosterService(10)
	ctx := context.Background()

	p, err := svc.JoinRoom(ctx, "room-1", "id-a", "Alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if p.Identity != "id-a" || p.DisplayName != "Alice" {
		t.Fatalf("participant = %+v", p)
	}

	rooms := svc.Rooms()
	if len(rooms) != 1 || rooms[0].ID != "room-1" {
		t.Fatalf("rooms = %+v", rooms)
	}
}

func TestRosterService_RejoinDoesNotDuplicate(t *testing.T) {
	svc := NewRosterService(10)
	ctx := context.Background()

	if _, err := svc.JoinRoom(ctx, "room-1", "id-a", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := svc.JoinRoom(ctx, "room-1", "id-a", "Alice2"); err != nil {
		t.Fatalf("rejoin: %v", err)
	}

	items, err := svc.ListParticipants(ctx, "room-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len = %d, want 1", len(items))
	}
	if items[0].DisplayName != "Alice2" {
		t.Fatalf("rejoin must update display name, got %q", items[0].DisplayName)
	}
}

func TestRosterService_RoomFull(t *testing.T) {
	svc := NewRosterService(2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.JoinRoom(ctx, "room-1", fmt.Sprintf("id-%d", i), "u"); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}

	if _, err := svc.JoinRoom(ctx, "room-1", "id-extra", "u"); !errors.Is(err, domain.ErrRoomFull) {
		t.Fatalf("err = %v, want ErrRoomFull", err)
	}
	// Уже присутствующий identity проходит и в полной комнате.
	if _, err := svc.JoinRoom(ctx, "room-1", "id-0", "u"); err != nil {
		t.Fatalf("rejoin in full room: %v", err)
	}
}

func TestRosterService_LeaveRemovesEmptyRoom(t *testing.T) {
	svc := NewRosterService(10)
	ctx := context.Background()

	if _, err := svc.JoinRoom(ctx, "room-1", "id-a", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.LeaveRoom(ctx, "room-1", "id-a"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	if len(svc.Rooms()) != 0 {
		t.Fatal("empty room must be deleted")
	}
	if _, err := svc.ListParticipants(ctx, "room-1"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}
}

func TestRosterService_ListSorted(t *testing.T) {
	svc := NewRosterService(10)
	ctx := context.Background()

	for _, id := range []string{"id-c", "id-a", "id-b"} {
		if _, err := svc.JoinRoom(ctx, "room-1", id, "u"); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}

	items, err := svc.ListParticipants(ctx, "room-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"id-a", "id-b", "id-c"}
	for i, w := range want {
		if items[i].Identity != w {
			t.Fatalf("items[%d] = %q, want %q", i, items[i].Identity, w)
		}
	}
}
