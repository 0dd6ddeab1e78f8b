package history

import (
	"strings"
	"sync"
)

// platformHooks owns the wrapper and popstate listener installed on a
// Platform. Install and uninstall are idempotent so rapid listen/unlisten
// cycles never stack wrappers or restore twice.
type platformHooks struct {
	p Platform

	mu        sync.Mutex
	installed bool
	restore   func()
	removePop func()
}

func (ph *platformHooks) install(onChange func()) {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	if ph.installed {
		return
	}
	ph.restore = ph.p.WrapHistory(onChange)
	ph.removePop = ph.p.OnPopState(onChange)
	ph.installed = true
}

func (ph *platformHooks) uninstall() {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	if !ph.installed {
		return
	}
	ph.removePop()
	ph.restore()
	ph.restore, ph.removePop = nil, nil
	ph.installed = false
}

func (ph *platformHooks) notifier() Native {
	return Native{Install: ph.install, Uninstall: ph.uninstall}
}

// BrowserAdapter drives the platform's address bar.
func BrowserAdapter(p Platform) Adapter {
	hooks := &platformHooks{p: p}
	return Adapter{
		GetLocation: func() Location {
			return ParseLocation(p.Href(), p.State())
		},
		PushState: func(path string, state State) {
			p.PushState(state, path)
		},
		ReplaceState: func(path string, state State) {
			p.ReplaceState(state, path)
		},
		Go:          p.Go,
		Back:        func() { p.Go(-1) },
		Forward:     func() { p.Go(1) },
		Notifier:    hooks.notifier(),
		UnloadGuard: p.OnBeforeUnload,
	}
}

// NewBrowser creates a History over the platform's address bar.
func NewBrowser(p Platform, opts ...Option) *History {
	return New(BrowserAdapter(p), opts...)
}

// HashAdapter drives only the fragment of the platform's address. The
// location path is whatever follows the first '#', or "/" when there is
// no fragment.
func HashAdapter(p Platform) Adapter {
	hooks := &platformHooks{p: p}
	return Adapter{
		GetLocation: func() Location {
			return ParseLocation(hashPath(p.Href()), p.State())
		},
		PushState: func(path string, state State) {
			p.PushState(state, "#"+path)
		},
		ReplaceState: func(path string, state State) {
			p.ReplaceState(state, "#"+path)
		},
		Go:      p.Go,
		Back:    func() { p.Go(-1) },
		Forward: func() { p.Go(1) },
		CreateHref: func(path string) string {
			return "#" + path
		},
		Notifier:    hooks.notifier(),
		UnloadGuard: p.OnBeforeUnload,
	}
}

// NewHash creates a History over the platform's address fragment.
func NewHash(p Platform, opts ...Option) *History {
	return New(HashAdapter(p), opts...)
}

func hashPath(href string) string {
	i := strings.IndexByte(href, '#')
	if i < 0 || i == len(href)-1 {
		return "/"
	}
	return href[i+1:]
}
