package pairing

import (
	"errors"
	"testing"
	"time"

	"pairrelay/internal/app/user"
)

func TestSessionTableCreateAndRemove(t *testing.T) {
	st := newSessionTable()

	s, err := st.create("a", "b", "alice", "bob")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.Conns != [2]string{"a", "b"} || s.Names != [2]string{"alice", "bob"} {
		t.Fatalf("session = %+v", s)
	}

	if _, err := st.create("a", "c", "alice", "carol"); err == nil {
		t.Fatal("second session for the same connection accepted")
	}
	if _, err := st.create("c", "c", "carol", "carol"); err == nil {
		t.Fatal("self session accepted")
	}

	if got, ok := st.of("b"); !ok || got != s {
		t.Fatal("of(b) did not return the session")
	}

	fired := make(chan struct{}, 1)
	s.timer = time.AfterFunc(time.Hour, func() { fired <- struct{}{} })

	if _, ok := st.remove(s.ID); !ok {
		t.Fatal("remove reported missing session")
	}
	if s.timer != nil {
		t.Fatal("timer not cleared")
	}
	if _, ok := st.readinessOf(s.ID); ok {
		t.Fatal("readiness outlived session")
	}
	if _, ok := st.of("a"); ok {
		t.Fatal("connection index outlived session")
	}
	if _, ok := st.remove(s.ID); ok {
		t.Fatal("second remove reported success")
	}

	// connections are free again
	if _, err := st.create("a", "c", "alice", "carol"); err != nil {
		t.Fatalf("create after remove: %v", err)
	}
}

func TestSessionTableRetriesIDCollision(t *testing.T) {
	st := newSessionTable()

	ids := []string{"sess_dup", "sess_dup", "sess_new"}
	st.newID = func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}

	first, _ := st.create("a", "b", "", "")
	second, err := st.create("c", "d", "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID != "sess_dup" || second.ID != "sess_new" {
		t.Fatalf("ids = %q, %q", first.ID, second.ID)
	}
}

func TestSessionTableIDFailure(t *testing.T) {
	st := newSessionTable()
	st.newID = func() (string, error) { return "", errors.New("entropy exhausted") }

	if _, err := st.create("a", "b", "", ""); err == nil {
		t.Fatal("expected id generation error")
	}
	if st.len() != 0 || len(st.byConn) != 0 {
		t.Fatal("failed create left state behind")
	}
}

func TestMarkReady(t *testing.T) {
	st := newSessionTable()
	s, _ := st.create("a", "b", "", "")

	steps := []struct {
		connID string
		want   bool
	}{
		{"a", false},
		{"a", false},
		{"x", false},
		{"b", true},
		{"b", false},
		{"a", false},
	}

	for i, step := range steps {
		if got := st.markReady(s.ID, step.connID); got != step.want {
			t.Fatalf("step %d (%s): got %v, want %v", i, step.connID, got, step.want)
		}
	}

	if st.markReady("sess_missing", "a") {
		t.Fatal("unknown session reported ready")
	}
}

func TestRequestTable(t *testing.T) {
	rt := newRequestTable()

	if _, replaced := rt.put(PendingRequest{RecipientConnID: "v", SenderConnID: "a1"}); replaced {
		t.Fatal("first put reported replacement")
	}
	rt.put(PendingRequest{RecipientConnID: "w", SenderConnID: "a1"})

	prev, replaced := rt.put(PendingRequest{RecipientConnID: "v", SenderConnID: "a2"})
	if !replaced || prev.SenderConnID != "a1" {
		t.Fatalf("replacement = %+v, %v", prev, replaced)
	}

	if _, ok := rt.match("v", "a1"); ok {
		t.Fatal("matched displaced sender")
	}
	if _, ok := rt.match("v", "a2"); !ok {
		t.Fatal("current sender not matched")
	}

	removed := rt.removeBySender("a1")
	if len(removed) != 1 || removed[0].RecipientConnID != "w" {
		t.Fatalf("removeBySender = %+v", removed)
	}

	if _, ok := rt.removeFor("v"); !ok {
		t.Fatal("removeFor missed the request")
	}
	if rt.len() != 0 {
		t.Fatalf("len = %d", rt.len())
	}
}

func TestAvailabilityDirectoryOrder(t *testing.T) {
	ids := newIdentityRegistry()
	d := newAvailabilityDirectory(PolicyOpen, ids)

	for _, name := range []string{"c", "a", "b"} {
		ids.register(name, name, user.RoleNone)
		if !d.include(name) {
			t.Fatalf("include(%s) reported no change", name)
		}
	}
	if d.include("a") {
		t.Fatal("repeat include reported a change")
	}
	if d.include("ghost") {
		t.Fatal("unregistered connection included")
	}

	d.exclude("a")

	got := d.list()
	if len(got) != 2 || got[0].ConnID != "c" || got[1].ConnID != "b" {
		t.Fatalf("list = %+v", got)
	}
}
