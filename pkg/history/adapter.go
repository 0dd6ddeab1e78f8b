package history

// Adapter supplies the concrete navigation primitives a History drives.
// The History never touches the platform directly, only these functions.
type Adapter struct {
	// GetLocation resolves the current location from the backend's source
	// of truth.
	GetLocation func() Location

	PushState    func(path string, state State)
	ReplaceState func(path string, state State)
	Go           func(delta int)
	Back         func()
	Forward      func()

	// CreateHref formats a path for display in links.
	// Nil means identity.
	CreateHref func(path string) string

	// Notifier declares how location changes reach listeners.
	// Nil is treated as Synthetic.
	Notifier Notifier

	// UnloadGuard installs a guard against navigating away from the
	// application while blockers are registered. The guard returns true
	// to ask the platform to prevent the unload. Optional.
	UnloadGuard func(guard func() bool) (remove func())
}

// Notifier is either Synthetic or Native.
type Notifier interface {
	notifier()
}

// Synthetic marks a backend with no change events of its own.
// The History notifies listeners itself after every drained queue.
type Synthetic struct{}

func (Synthetic) notifier() {}

// Native marks a backend that reports changes through its own events.
// Install is called with the History's change handler when the first
// listener subscribes; Uninstall when the last one leaves.
type Native struct {
	Install   func(onChange func())
	Uninstall func()
}

func (Native) notifier() {}

// Platform is the browser window seen by the browser and hash adapters.
type Platform interface {
	// Href returns the current pathname + search + hash.
	Href() string

	// State returns the state attached to the current entry.
	State() State

	// PushState adds an entry. href may be relative to the current
	// entry when it starts with '?' or '#'.
	PushState(state State, href string)

	// ReplaceState overwrites the current entry.
	ReplaceState(state State, href string)

	// Go moves through the entry stack and reports the move through
	// popstate listeners.
	Go(delta int)

	// OnPopState registers fn for back/forward navigation.
	OnPopState(fn func()) (remove func())

	// WrapHistory patches push and replace so that every call, including
	// ones made outside this package, invokes onMutate after the entry
	// changed. restore puts the previous primitives back.
	WrapHistory(onMutate func()) (restore func())

	// OnBeforeUnload registers a guard consulted before the page unloads.
	OnBeforeUnload(fn func() bool) (remove func())
}
