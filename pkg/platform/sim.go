package platform

import (
	"strings"
	"sync"

	"github.com/vango-dev/navhist/pkg/history"
)

type simEntry struct {
	href  string
	state history.State
}

type wrapper struct {
	onMutate func()
}

// Sim is an in-process browser window. It keeps an entry stack, fires
// popstate listeners when Go moves the cursor, and supports wrapping of
// push/replace the way a page script patches window.history.
//
// Listeners and wrappers run synchronously on the calling goroutine,
// after Sim's own lock is released.
type Sim struct {
	mu       sync.Mutex
	entries  []simEntry
	index    int
	pops     map[int]func()
	guards   map[int]func() bool
	wrappers []*wrapper
	nextID   int
	wraps    int
	restores int
}

var _ history.Platform = (*Sim)(nil)

// NewSim creates a window whose only entry is href.
func NewSim(href string) *Sim {
	if href == "" {
		href = "/"
	}
	return &Sim{
		entries: []simEntry{{href: href}},
		pops:    make(map[int]func()),
		guards:  make(map[int]func() bool),
	}
}

// Href returns the current entry's address.
func (s *Sim) Href() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[s.index].href
}

// State returns the current entry's state.
func (s *Sim) State() history.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[s.index].state
}

// PushState drops forward entries and appends a new one.
func (s *Sim) PushState(state history.State, href string) {
	s.mu.Lock()
	href = resolve(s.entries[s.index].href, href)
	s.entries = append(s.entries[:s.index+1], simEntry{href: href, state: state})
	s.index = len(s.entries) - 1
	hooks := s.mutateHooksLocked()
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// ReplaceState overwrites the current entry.
func (s *Sim) ReplaceState(state history.State, href string) {
	s.mu.Lock()
	href = resolve(s.entries[s.index].href, href)
	s.entries[s.index] = simEntry{href: href, state: state}
	hooks := s.mutateHooksLocked()
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// Go moves the cursor by delta. Moves that would leave the stack are
// ignored, as browsers do.
func (s *Sim) Go(delta int) {
	s.mu.Lock()
	target := s.index + delta
	if delta == 0 || target < 0 || target >= len(s.entries) {
		s.mu.Unlock()
		return
	}
	s.index = target
	fns := make([]func(), 0, len(s.pops))
	for _, fn := range s.pops {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// OnPopState registers fn for cursor moves.
func (s *Sim) OnPopState(fn func()) (remove func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.pops[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.pops, id)
		s.mu.Unlock()
	}
}

// WrapHistory installs a wrapper around push and replace.
func (s *Sim) WrapHistory(onMutate func()) (restore func()) {
	w := &wrapper{onMutate: onMutate}
	s.mu.Lock()
	s.wrappers = append(s.wrappers, w)
	s.wraps++
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, cur := range s.wrappers {
				if cur == w {
					s.wrappers = append(s.wrappers[:i], s.wrappers[i+1:]...)
					break
				}
			}
			s.restores++
		})
	}
}

// OnBeforeUnload registers an unload guard.
func (s *Sim) OnBeforeUnload(fn func() bool) (remove func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.guards[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.guards, id)
		s.mu.Unlock()
	}
}

// Unload simulates closing the tab and reports whether a guard
// prevented it.
func (s *Sim) Unload() (prevented bool) {
	s.mu.Lock()
	fns := make([]func() bool, 0, len(s.guards))
	for _, fn := range s.guards {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		if fn() {
			prevented = true
		}
	}
	return prevented
}

// Entries returns the hrefs of all entries.
func (s *Sim) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.href
	}
	return out
}

// Index returns the cursor position.
func (s *Sim) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Wraps returns how many times WrapHistory was called.
func (s *Sim) Wraps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wraps
}

// Restores returns how many wrappers were restored.
func (s *Sim) Restores() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restores
}

// PopListeners returns the number of registered popstate listeners.
func (s *Sim) PopListeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pops)
}

// Guards returns the number of registered unload guards.
func (s *Sim) Guards() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.guards)
}

func (s *Sim) mutateHooksLocked() []func() {
	fns := make([]func(), len(s.wrappers))
	for i, w := range s.wrappers {
		fns[i] = w.onMutate
	}
	return fns
}

// resolve applies href to the current address. Fragment-only and
// query-only hrefs keep the parts of current that precede them.
func resolve(current, href string) string {
	switch {
	case strings.HasPrefix(href, "#"):
		if i := strings.IndexByte(current, '#'); i >= 0 {
			current = current[:i]
		}
		return current + href
	case strings.HasPrefix(href, "?"):
		if i := strings.IndexAny(current, "?#"); i >= 0 {
			current = current[:i]
		}
		return current + href
	default:
		return href
	}
}
