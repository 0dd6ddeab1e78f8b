package history_test

import (
	"testing"

	"github.com/vango-dev/navhist/pkg/history"
	"github.com/vango-dev/navhist/pkg/platform"
)

func TestBrowserHistory(t *testing.T) {
	sim := platform.NewSim("/start")
	h := history.NewBrowser(sim)

	var seen []string
	unlisten := h.Listen(func() { seen = append(seen, h.Location().Href) })
	defer unlisten()

	h.Push("/a?x=1", nil)
	h.Push("#top", nil)
	h.Back()

	want := []string{"/a?x=1", "/a?x=1#top", "/a?x=1"}
	if len(seen) != len(want) {
		t.Fatalf("listener saw %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, seen[i], want[i])
		}
	}

	loc := h.Location()
	if loc.Pathname != "/a" || loc.Search != "?x=1" || loc.Hash != "" {
		t.Errorf("Location() = %+v", loc)
	}
	if got := h.CreateHref("/b"); got != "/b" {
		t.Errorf("CreateHref() = %q, want /b", got)
	}
}

func TestBrowserObservesPageScripts(t *testing.T) {
	sim := platform.NewSim("/")
	h := history.NewBrowser(sim)

	calls := 0
	defer h.Listen(func() { calls++ })()

	// A push made directly on the window, bypassing the History.
	sim.PushState(history.State{Key: "ext"}, "/external")

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if got := h.Location().Pathname; got != "/external" {
		t.Errorf("Pathname = %q, want /external", got)
	}
}

func TestBrowserSubscriptionHygiene(t *testing.T) {
	sim := platform.NewSim("/")
	h := history.NewBrowser(sim)

	for cycle := 1; cycle <= 3; cycle++ {
		a := h.Listen(func() {})
		b := h.Listen(func() {})
		if sim.Wraps() != cycle {
			t.Fatalf("cycle %d: wraps = %d, want %d", cycle, sim.Wraps(), cycle)
		}
		if sim.PopListeners() != 1 {
			t.Fatalf("cycle %d: pop listeners = %d, want 1", cycle, sim.PopListeners())
		}
		a()
		b()
		b()
		if sim.Restores() != cycle {
			t.Fatalf("cycle %d: restores = %d, want %d", cycle, sim.Restores(), cycle)
		}
		if sim.PopListeners() != 0 {
			t.Fatalf("cycle %d: pop listeners = %d after teardown", cycle, sim.PopListeners())
		}
	}
}

func TestBrowserUnloadGuard(t *testing.T) {
	sim := platform.NewSim("/")
	h := history.NewBrowser(sim)

	if sim.Unload() {
		t.Fatal("unload prevented without blockers")
	}

	unblock := h.Block(func(retry, cancel func()) {})
	if sim.Guards() != 1 {
		t.Fatalf("guards = %d, want 1", sim.Guards())
	}
	if !sim.Unload() {
		t.Error("unload not prevented while blocked")
	}

	unblock()
	if sim.Guards() != 0 {
		t.Errorf("guards = %d after unblock, want 0", sim.Guards())
	}
}

func TestBrowserBlockedBack(t *testing.T) {
	sim := platform.NewSim("/a")
	sim.PushState(history.State{}, "/b")
	h := history.NewBrowser(sim)

	var retry func()
	h.Block(func(r, c func()) { retry = r })
	h.Back()

	if sim.Index() != 1 {
		t.Fatalf("window moved while blocked: index %d", sim.Index())
	}
	retry()
	if sim.Index() != 0 {
		t.Errorf("index = %d after retry, want 0", sim.Index())
	}
	if got := h.Location().Pathname; got != "/a" {
		t.Errorf("Pathname = %q, want /a", got)
	}
}

func TestBrowserListenerBlocksFollowUp(t *testing.T) {
	sim := platform.NewSim("/")
	h := history.NewBrowser(sim)

	asked := 0
	armed := false
	defer h.Listen(func() {
		if armed || h.Location().Pathname != "/form" {
			return
		}
		armed = true
		h.Block(func(r, c func()) { asked++ })
		h.Push("/away", nil)
	})()

	h.Push("/form", nil)

	if asked != 1 {
		t.Errorf("blocker asked %d times, want 1", asked)
	}
	if got := sim.Entries(); len(got) != 2 || got[1] != "/form" {
		t.Errorf("Entries() = %v, want [/ /form]", got)
	}
	if h.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", h.Pending())
	}
}

func TestHashHistory(t *testing.T) {
	sim := platform.NewSim("/app")
	h := history.NewHash(sim)

	if got := h.Location().Pathname; got != "/" {
		t.Errorf("initial Pathname = %q, want /", got)
	}

	calls := 0
	defer h.Listen(func() { calls++ })()

	h.Push("/users?page=2", nil)

	if got := sim.Href(); got != "/app#/users?page=2" {
		t.Errorf("window href = %q, want /app#/users?page=2", got)
	}
	loc := h.Location()
	if loc.Pathname != "/users" || loc.Search != "?page=2" {
		t.Errorf("Location() = %+v", loc)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if got := h.CreateHref("/x"); got != "#/x" {
		t.Errorf("CreateHref() = %q, want #/x", got)
	}

	h.Replace("/settings", nil)
	if got := sim.Entries(); len(got) != 2 || got[1] != "/app#/settings" {
		t.Errorf("Entries() = %v", got)
	}
}

func TestHashEmptyFragment(t *testing.T) {
	sim := platform.NewSim("/app#")
	h := history.NewHash(sim)
	if got := h.Location().Pathname; got != "/" {
		t.Errorf("Pathname = %q, want /", got)
	}
}
