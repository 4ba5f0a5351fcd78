package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestAppendTurnBoundedWindow(t *testing.T) {
	m := NewManager(3, time.Hour)

	for i := 1; i <= 5; i++ {
		m.AppendTurn("org-a", "conv", Turn{
			Question:  fmt.Sprintf("q%d", i),
			Answer:    fmt.Sprintf("a%d", i),
			Timestamp: time.Now(),
		})
	}

	turns := m.Snapshot("org-a", "conv")
	if len(turns) != 3 {
		t.Fatalf("window holds %d turns, want 3", len(turns))
	}
	// Oldest evicted first: the survivors are the three most recent.
	for i, want := range []string{"q3", "q4", "q5"} {
		if turns[i].Question != want {
			t.Errorf("turns[%d].Question = %q, want %q", i, turns[i].Question, want)
		}
	}

	info, found := m.Info("org-a", "conv")
	if !found {
		t.Fatal("Info: session missing")
	}
	if info.MessageCount != 10 {
		t.Errorf("MessageCount = %d, want 10", info.MessageCount)
	}
	if info.TurnCount != 3 {
		t.Errorf("TurnCount = %d, want 3", info.TurnCount)
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	m := NewManager(5, time.Hour)
	m.AppendTurn("org-a", "conv", Turn{Question: "original", Answer: "a"})

	turns := m.Snapshot("org-a", "conv")
	turns[0].Question = "mutated"

	again := m.Snapshot("org-a", "conv")
	if again[0].Question != "original" {
		t.Errorf("mutation through snapshot leaked into the session")
	}
}

func TestSessionsScopedByOrg(t *testing.T) {
	m := NewManager(5, time.Hour)

	m.AppendTurn("org-a", "conv", Turn{Question: "secret A", Answer: "x"})
	m.AppendTurn("org-b", "conv", Turn{Question: "secret B", Answer: "y"})

	a := m.Snapshot("org-a", "conv")
	b := m.Snapshot("org-b", "conv")
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("windows leaked: org-a=%d org-b=%d", len(a), len(b))
	}
	if a[0].Question != "secret A" || b[0].Question != "secret B" {
		t.Errorf("orgs sharing a conversation id observed each other's turns")
	}
}

func TestDelete(t *testing.T) {
	m := NewManager(5, time.Hour)
	m.AppendTurn("org-a", "conv", Turn{Question: "q", Answer: "a"})

	if !m.Delete("org-a", "conv") {
		t.Errorf("Delete returned false for an existing session")
	}
	if m.Delete("org-a", "conv") {
		t.Errorf("Delete returned true for a missing session")
	}
	if turns := m.Snapshot("org-a", "conv"); len(turns) != 0 {
		t.Errorf("deleted session still holds %d turns", len(turns))
	}
}

func TestDeleteKeepsSessionLock(t *testing.T) {
	m := NewManager(5, time.Hour)
	m.AppendTurn("org-a", "conv", Turn{Question: "q", Answer: "a"})

	key := Key("org-a", "conv")
	before := m.lock(key)
	m.Delete("org-a", "conv")
	if after := m.lock(key); after != before {
		t.Errorf("Delete replaced the session lock; concurrent mutators could stop serializing")
	}
}

func TestEvictStale(t *testing.T) {
	m := NewManager(5, time.Hour)

	m.AppendTurn("org-a", "old", Turn{Question: "q", Answer: "a"})
	m.AppendTurn("org-a", "fresh", Turn{Question: "q", Answer: "a"})

	// Backdate the old session's activity.
	key := Key("org-a", "old")
	if x, found := m.cache.Get(key); found {
		x.(*Session).LastActive = time.Now().Add(-2 * time.Hour)
	}

	evicted := m.EvictStale(time.Hour)
	if evicted != 1 {
		t.Fatalf("evicted %d sessions, want 1", evicted)
	}
	if _, found := m.Info("org-a", "old"); found {
		t.Errorf("stale session survived eviction")
	}
	if _, found := m.Info("org-a", "fresh"); !found {
		t.Errorf("fresh session was evicted")
	}
}

func TestEvictStaleKeepsSessionLock(t *testing.T) {
	m := NewManager(5, time.Hour)
	m.AppendTurn("org-a", "conv", Turn{Question: "q", Answer: "a"})

	key := Key("org-a", "conv")
	if x, found := m.cache.Get(key); found {
		x.(*Session).LastActive = time.Now().Add(-2 * time.Hour)
	}

	before := m.lock(key)
	m.EvictStale(time.Hour)
	if after := m.lock(key); after != before {
		t.Errorf("EvictStale replaced the session lock; concurrent mutators could stop serializing")
	}
}

func TestConcurrentDistinctSessions(t *testing.T) {
	m := NewManager(10, time.Hour)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			conv := fmt.Sprintf("conv-%d", g)
			for i := 0; i < 20; i++ {
				m.AppendTurn("org-a", conv, Turn{
					Question: fmt.Sprintf("q%d", i),
					Answer:   "a",
				})
			}
		}(g)
	}
	wg.Wait()

	for g := 0; g < 8; g++ {
		conv := fmt.Sprintf("conv-%d", g)
		turns := m.Snapshot("org-a", conv)
		if len(turns) != 10 {
			t.Errorf("%s holds %d turns, want 10", conv, len(turns))
		}
	}
}

func TestGetOrCreateReturnsCopy(t *testing.T) {
	m := NewManager(5, time.Hour)

	session := m.GetOrCreate("org-a", "conv")
	session.Turns = append(session.Turns, Turn{Question: "injected"})

	if turns := m.Snapshot("org-a", "conv"); len(turns) != 0 {
		t.Errorf("mutation through GetOrCreate leaked into the session")
	}
}
