package object

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/morezero/desktop-portal/pkg/handle"
)

func TestArenaAddRemove(t *testing.T) {
	a := NewArena()
	req := NewRequest(handle.Token("abc"), "/org/freedesktop/portal/desktop/request/s/abc", nil, nil)

	if err := a.Add(req); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if a.Len() != 1 {
		t.Errorf("Len = %d, want 1", a.Len())
	}

	got, ok := a.Lookup(req.Path())
	if !ok || got != Object(req) {
		t.Fatalf("Lookup(%q) = %v, %v", req.Path(), got, ok)
	}

	if !a.Remove(req.Path()) {
		t.Error("Remove reported no object present")
	}
	if a.Remove(req.Path()) {
		t.Error("second Remove reported an object present")
	}
	if _, ok := a.Lookup(req.Path()); ok {
		t.Error("Lookup succeeded after Remove")
	}
}

func TestArenaDuplicatePath(t *testing.T) {
	a := NewArena()
	path := "/org/freedesktop/portal/desktop/request/s/dup"
	first := NewRequest(handle.Token("dup"), path, nil, nil)
	second := NewRequest(handle.Token("dup"), path, nil, nil)

	if err := a.Add(first); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := a.Add(second); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("Add at live path = %v, want ErrAlreadyExists", err)
	}

	// After the first object's removal the same path is free again.
	a.Remove(path)
	if err := a.Add(second); err != nil {
		t.Fatalf("Add after Remove failed: %v", err)
	}
}

func TestArenaConcurrentAddSamePath(t *testing.T) {
	a := NewArena()
	path := "/org/freedesktop/portal/desktop/request/s/race"

	const n = 64
	var wg sync.WaitGroup
	var wins int64
	var mu sync.Mutex
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if a.Add(NewRequest(handle.Token("race"), path, nil, nil)) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("%d concurrent Adds at one path succeeded, want exactly 1", wins)
	}
}

func TestArenaDistinctPathsIndependent(t *testing.T) {
	a := NewArena()
	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok := handle.Token(fmt.Sprintf("tok%d", i))
			req := NewRequest(tok, handle.RequestPath(":1.9", tok), nil, nil)
			if err := a.Add(req); err != nil {
				t.Errorf("Add(%s) failed: %v", tok, err)
			}
		}(i)
	}
	wg.Wait()

	if a.Len() != n {
		t.Errorf("Len = %d, want %d", a.Len(), n)
	}
}

func TestArenaRange(t *testing.T) {
	a := NewArena()
	for i := 0; i < 3; i++ {
		tok := handle.Token(fmt.Sprintf("tok%d", i))
		if err := a.Add(NewRequest(tok, handle.RequestPath("s", tok), nil, nil)); err != nil {
			t.Fatalf("Add(%s) failed: %v", tok, err)
		}
	}

	seen := make(map[string]bool)
	a.Range(func(obj Object) {
		seen[obj.Path()] = true
		// fn runs off the lock, so it may mutate the arena.
		a.Remove(obj.Path())
	})

	if len(seen) != 3 {
		t.Errorf("Range visited %d objects, want 3", len(seen))
	}
	if a.Len() != 0 {
		t.Errorf("Len = %d after removal inside Range, want 0", a.Len())
	}
}
