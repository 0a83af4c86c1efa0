package engine_test

import (
	"testing"

	"github.com/wod-wiki/engine"
)

func TestMemoryListSingleValuedTagRejectsSecondLocation(t *testing.T) {
	list := engine.NewMemoryList()
	if _, err := list.Push(engine.TagTimer, nil); err != nil {
		t.Fatalf("first push: %v", err)
	}
	if _, err := list.Push(engine.TagTimer, nil); err == nil {
		t.Fatalf("expected second push to a single-valued tag to fail")
	}
}

func TestMemoryListMultiValuedTagAllowsMultipleLocations(t *testing.T) {
	list := engine.NewMemoryList()
	if _, err := list.Push(engine.TagTracked, nil); err != nil {
		t.Fatalf("first push: %v", err)
	}
	if _, err := list.Push(engine.TagTracked, nil); err != nil {
		t.Fatalf("second push to a multi-valued tag should succeed: %v", err)
	}
	if got := len(list.AllByTag(engine.TagTracked)); got != 2 {
		t.Fatalf("expected 2 locations, got %d", got)
	}
}

func TestMemoryLocationSubscribeReceivesUpdate(t *testing.T) {
	loc := engine.NewMemoryLocation(engine.TagDisplay, nil)
	var received []engine.Fragment
	unsub := loc.Subscribe(func(f []engine.Fragment) { received = f })
	defer unsub()

	fragment := engine.NewFragment(engine.FragmentText, "hi", "hi", engine.OriginRuntime)
	if err := loc.Update([]engine.Fragment{fragment}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(received) != 1 || received[0].Value != "hi" {
		t.Fatalf("subscriber did not observe update: %+v", received)
	}
}

func TestMemoryListReleaseAllRejectsFurtherUpdates(t *testing.T) {
	list := engine.NewMemoryList()
	loc, err := list.Push(engine.TagDisplay, nil)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	list.ReleaseAll()
	if err := loc.Update([]engine.Fragment{}); err == nil {
		t.Fatalf("expected update on a released location to fail")
	}
}

func TestResolveByPrecedencePrefersUserOverParser(t *testing.T) {
	fragments := []engine.Fragment{
		engine.NewFragment(engine.FragmentDuration, int64(1000), "", engine.OriginParser),
		engine.NewFragment(engine.FragmentDuration, int64(2000), "", engine.OriginUser),
	}
	resolved := engine.ResolveByPrecedence(fragments)
	if len(resolved) != 1 {
		t.Fatalf("expected one resolved fragment, got %d", len(resolved))
	}
	if resolved[0].Origin != engine.OriginUser || resolved[0].Value != int64(2000) {
		t.Fatalf("expected user-origin value to win, got %+v", resolved[0])
	}
}
