package state

import (
	"sync"
	"testing"
)

func TestMemoryManagerStateLifecycle(t *testing.T) {
	m := NewMemoryManager()
	const user = int64(42)

	if m.HasState(user) {
		t.Fatal("fresh manager should have no state")
	}
	if got := m.GetState(user); got != StateIdle {
		t.Fatalf("GetState = %s, expected idle", got)
	}

	m.SetState(user, State("collecting_name"))
	if !m.InProgress(user) {
		t.Fatal("expected InProgress after SetState")
	}
	if got := m.GetState(user); got != State("collecting_name") {
		t.Fatalf("GetState = %s", got)
	}

	m.ClearState(user)
	if m.InProgress(user) {
		t.Fatal("ClearState should end the dialog")
	}
}

func TestMemoryManagerTempSurvivesStateChange(t *testing.T) {
	m := NewMemoryManager()
	const user = int64(7)

	m.SetState(user, State("step_one"))
	m.SetTemp(user, "name", "Ann")
	m.SetState(user, State("step_two"))

	val, ok := m.GetTemp(user, "name")
	if !ok || val.(string) != "Ann" {
		t.Fatalf("GetTemp = %v, %v", val, ok)
	}

	m.ClearTemp(user, "name")
	if _, ok := m.GetTemp(user, "name"); ok {
		t.Fatal("ClearTemp should remove the key")
	}
}

func TestMemoryManagerClearDropsEverything(t *testing.T) {
	m := NewMemoryManager()
	const user = int64(9)

	m.SetState(user, State("busy"))
	m.SetTemp(user, "k", int64(5))
	m.Clear(user)

	if m.HasState(user) {
		t.Fatal("Clear should drop the state")
	}
	if _, ok := m.GetTempInt64(user, "k"); ok {
		t.Fatal("Clear should drop temp data")
	}
}

func TestMemoryManagerIsolatesUsers(t *testing.T) {
	m := NewMemoryManager()

	m.SetState(1, State("one"))
	m.SetState(2, State("two"))
	m.SetTemp(1, "k", "a")

	if got := m.GetState(2); got != State("two") {
		t.Fatalf("GetState(2) = %s", got)
	}
	if _, ok := m.GetTemp(2, "k"); ok {
		t.Fatal("temp data leaked between users")
	}

	m.Clear(1)
	if !m.InProgress(2) {
		t.Fatal("Clear(1) should not affect user 2")
	}
}

func TestMemoryManagerConcurrentAccess(t *testing.T) {
	m := NewMemoryManager()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.SetState(id, State("busy"))
			m.SetTemp(id, "n", id)
			_ = m.GetState(id)
			m.Clear(id)
		}(int64(i % 8))
	}
	wg.Wait()
}
