package collab

import (
	"testing"
)

func TestRoster_JoinLeaveCount(t *testing.T) {
	r := NewRoster("me", "Me")

	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1 (local)", r.Count())
	}

	r.OnParticipantJoined("a")
	r.OnParticipantJoined("b")
	if r.Count() != 3 {
		t.Fatalf("count = %d, want 3", r.Count())
	}

	// Повторный join того же identity не дублирует.
	r.OnParticipantJoined("a")
	if r.Count() != 3 {
		t.Fatalf("count = %d after duplicate join", r.Count())
	}

	r.OnParticipantLeft("a")
	if r.Count() != 2 {
		t.Fatalf("count = %d after leave", r.Count())
	}
	// Уход неизвестного участника — no-op.
	r.OnParticipantLeft("ghost")
	if r.Count() != 2 {
		t.Fatalf("count = %d after ghost leave", r.Count())
	}
}

func TestRoster_DisplayNameAnnounceIdempotent(t *testing.T) {
	r := NewRoster("me", "Me")
	r.OnParticipantJoined("a")

	var calls int
	r.SetOnChange(func(int) { calls++ })

	r.OnDisplayNameAnnounced("a", "Alice")
	first := calls
	if r.ResolveDisplayName("a") != "Alice" {
		t.Fatalf("resolve = %q", r.ResolveDisplayName("a"))
	}

	// Повторные анонсы той же пары ничего не меняют и не дёргают UI.
	r.OnDisplayNameAnnounced("a", "Alice")
	r.OnDisplayNameAnnounced("a", "Alice")
	if calls != first {
		t.Fatalf("onChange fired %d extra times for repeated announce", calls-first)
	}

	ps := r.Participants()
	if len(ps) != 2 {
		t.Fatalf("participants = %+v", ps)
	}
	if ps[1].DisplayName != "Alice" {
		t.Fatalf("participant name = %q", ps[1].DisplayName)
	}
}

func TestRoster_ResolveFallsBackToIdentity(t *testing.T) {
	r := NewRoster("me", "Me")

	if got := r.ResolveDisplayName("unknown-uuid"); got != "unknown-uuid" {
		t.Fatalf("resolve = %q, want raw identity", got)
	}
	// Пустой анонс не затирает фоллбек.
	r.OnDisplayNameAnnounced("unknown-uuid", "")
	if got := r.ResolveDisplayName("unknown-uuid"); got != "unknown-uuid" {
		t.Fatalf("resolve = %q after empty announce", got)
	}
}

func TestRoster_NameRetainedAfterLeave(t *testing.T) {
	r := NewRoster("me", "Me")
	r.OnParticipantJoined("a")
	r.OnDisplayNameAnnounced("a", "Alice")
	r.OnParticipantLeft("a")

	// Опоздавшее сообщение от ушедшего участника атрибутируется по имени.
	if got := r.ResolveDisplayName("a"); got != "Alice" {
		t.Fatalf("resolve = %q, want retained name", got)
	}
}

func TestRoster_ParticipantsLocalFirstSorted(t *testing.T) {
	r := NewRoster("me", "Me")
	r.OnParticipantJoined("zz")
	r.OnParticipantJoined("aa")

	ps := r.Participants()
	if len(ps) != 3 {
		t.Fatalf("participants = %+v", ps)
	}
	if !ps[0].IsLocal || ps[0].Identity != "me" {
		t.Fatalf("first must be local: %+v", ps[0])
	}
	if ps[1].Identity != "aa" || ps[2].Identity != "zz" {
		t.Fatalf("remote order = %q, %q", ps[1].Identity, ps[2].Identity)
	}
}

func TestRoster_ResetKeepsNames(t *testing.T) {
	r := NewRoster("me", "Me")
	r.OnParticipantJoined("a")
	r.OnDisplayNameAnnounced("a", "Alice")

	r.Reset()
	if r.Count() != 1 {
		t.Fatalf("count = %d after reset", r.Count())
	}
	if got := r.ResolveDisplayName("a"); got != "Alice" {
		t.Fatalf("resolve = %q, names must survive reset", got)
	}
}
