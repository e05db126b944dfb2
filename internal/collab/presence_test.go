package collab

import (
	"testing"
	"time"

	"github.com/LikhithMar14/code-paglu/internal/domain"
	"github.com/LikhithMar14/code-paglu/internal/protocol"
)

// fakeClock — ручное время для проверки staleness без настоящего сна.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestBoard_CursorStalenessEviction(t *testing.T) {
	var pub capturedPublish
	clock := newFakeClock()
	b := NewBoard("me", "Me", pub.fn)
	b.now = clock.now

	b.ApplyCursor(&protocol.CursorPosition{
		Header:   protocol.Header{Sender: "peer"},
		Position: domain.CursorPosition{Line: 3, Column: 7},
	}, "Peer")

	if got := b.Active(); len(got) != 1 || got[0].Cursor == nil {
		t.Fatalf("active = %+v", got)
	}

	// Чуть меньше TTL: курсор ещё жив.
	clock.advance(domain.CursorTTL - time.Millisecond)
	if got := b.Active(); len(got) != 1 {
		t.Fatalf("cursor evicted too early: %+v", got)
	}

	// За TTL: вытеснен.
	clock.advance(2 * time.Millisecond)
	if got := b.Active(); len(got) != 0 {
		t.Fatalf("cursor must be evicted: %+v", got)
	}
}

func TestBoard_TypingStalenessIndependentOfCursor(t *testing.T) {
	var pub capturedPublish
	clock := newFakeClock()
	b := NewBoard("me", "Me", pub.fn)
	b.now = clock.now

	b.ApplyCursor(&protocol.CursorPosition{
		Header:   protocol.Header{Sender: "peer"},
		Position: domain.CursorPosition{Line: 1, Column: 1},
	}, "Peer")
	b.ApplyTyping(&protocol.Typing{
		Header:   protocol.Header{Sender: "peer"},
		IsTyping: true,
	})

	// typing протухает раньше курсора.
	clock.advance(domain.TypingTTL + time.Millisecond)
	got := b.Active()
	if len(got) != 1 {
		t.Fatalf("active = %+v", got)
	}
	if got[0].IsTyping {
		t.Fatal("typing must be evicted")
	}
	if got[0].Cursor == nil {
		t.Fatal("cursor must survive typing eviction")
	}
}

func TestBoard_CursorLastAppliedWins(t *testing.T) {
	var pub capturedPublish
	clock := newFakeClock()
	b := NewBoard("me", "Me", pub.fn)
	b.now = clock.now

	// Сообщение с большей меткой приходит первым; применяется то, что
	// пришло последним, несмотря на более старый timestamp.
	b.ApplyCursor(&protocol.CursorPosition{
		Header:   protocol.Header{Sender: "peer", Timestamp: 200},
		Position: domain.CursorPosition{Line: 20, Column: 1},
	}, "Peer")
	b.ApplyCursor(&protocol.CursorPosition{
		Header:   protocol.Header{Sender: "peer", Timestamp: 100},
		Position: domain.CursorPosition{Line: 10, Column: 5},
	}, "Peer")

	got := b.Active()
	if len(got) != 1 {
		t.Fatalf("active = %+v", got)
	}
	if got[0].Cursor.Line != 10 || got[0].Cursor.Column != 5 {
		t.Fatalf("cursor = %+v, want last applied", got[0].Cursor)
	}
}

func TestBoard_LocalCursorRateLimited(t *testing.T) {
	var pub capturedPublish
	clock := newFakeClock()
	b := NewBoard("me", "Me", pub.fn)
	b.now = clock.now

	b.LocalCursorMoved(domain.CursorPosition{Line: 1, Column: 1})
	b.LocalCursorMoved(domain.CursorPosition{Line: 1, Column: 2}) // в пределах min gap
	if pub.count() != 1 {
		t.Fatalf("published %d cursor messages, want 1", pub.count())
	}

	clock.advance(DefaultCursorMinGap + time.Millisecond)
	b.LocalCursorMoved(domain.CursorPosition{Line: 1, Column: 3})
	if pub.count() != 2 {
		t.Fatalf("published %d cursor messages, want 2", pub.count())
	}
}

func TestBoard_LocalTypingStartOnce(t *testing.T) {
	var pub capturedPublish
	b := NewBoard("me", "Me", pub.fn)
	b.typingIdle = 50 * time.Millisecond

	b.LocalTyping()
	b.LocalTyping()
	b.LocalTyping()

	if pub.count() != 1 {
		t.Fatalf("published %d typing messages, want 1", pub.count())
	}
	first := pub.at(0).(*protocol.Typing)
	if !first.IsTyping {
		t.Fatal("first message must be typing=true")
	}

	// После окна простоя уходит typing=false.
	deadline := time.Now().Add(time.Second)
	for pub.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if pub.count() != 2 {
		t.Fatalf("published %d typing messages, want 2", pub.count())
	}
	if pub.at(1).(*protocol.Typing).IsTyping {
		t.Fatal("idle message must be typing=false")
	}
}

func TestBoard_StopTypingImmediate(t *testing.T) {
	var pub capturedPublish
	b := NewBoard("me", "Me", pub.fn)
	b.typingIdle = time.Hour // таймер не должен успеть

	b.LocalTyping()
	b.StopTyping()

	if pub.count() != 2 {
		t.Fatalf("published %d messages, want 2", pub.count())
	}
	if pub.at(1).(*protocol.Typing).IsTyping {
		t.Fatal("stop must publish typing=false")
	}

	// Повторный StopTyping без активного набора — no-op.
	b.StopTyping()
	if pub.count() != 2 {
		t.Fatal("idle stop must not publish")
	}
}

func TestBoard_RemoveParticipant(t *testing.T) {
	var pub capturedPublish
	b := NewBoard("me", "Me", pub.fn)

	b.ApplyTyping(&protocol.Typing{Header: protocol.Header{Sender: "peer"}, IsTyping: true})
	b.RemoveParticipant("peer")

	if got := b.Active(); len(got) != 0 {
		t.Fatalf("active = %+v after removal", got)
	}
}

func TestBoard_IgnoresOwnSignals(t *testing.T) {
	var pub capturedPublish
	b := NewBoard("me", "Me", pub.fn)

	b.ApplyCursor(&protocol.CursorPosition{
		Header:   protocol.Header{Sender: "me"},
		Position: domain.CursorPosition{Line: 1, Column: 1},
	}, "Me")
	b.ApplyTyping(&protocol.Typing{Header: protocol.Header{Sender: "me"}, IsTyping: true})

	if got := b.Active(); len(got) != 0 {
		t.Fatalf("own signals must be skipped: %+v", got)
	}
}

func TestBoard_TypingText(t *testing.T) {
	var pub capturedPublish
	b := NewBoard("me", "Me", pub.fn)
	resolve := func(id string) string { return "user-" + id }

	if got := b.TypingText(resolve); got != "" {
		t.Fatalf("empty board text = %q", got)
	}

	b.ApplyTyping(&protocol.Typing{Header: protocol.Header{Sender: "a"}, IsTyping: true})
	if got := b.TypingText(resolve); got != "user-a is typing..." {
		t.Fatalf("text = %q", got)
	}

	b.ApplyTyping(&protocol.Typing{Header: protocol.Header{Sender: "b"}, IsTyping: true})
	if got := b.TypingText(resolve); got != "user-a and user-b are typing..." {
		t.Fatalf("text = %q", got)
	}

	b.ApplyTyping(&protocol.Typing{Header: protocol.Header{Sender: "c"}, IsTyping: true})
	if got := b.TypingText(resolve); got != "user-a and 2 others are typing..." {
		t.Fatalf("text = %q", got)
	}
}
