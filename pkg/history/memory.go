package history

import "sync"

// MemoryOptions configures an in-memory history.
type MemoryOptions struct {
	// InitialEntries are the starting paths. Default: ["/"].
	InitialEntries []string

	// InitialIndex selects the starting entry. Nil or a negative value
	// selects the last entry; values past the end are clamped.
	InitialIndex *int
}

type memoryEntry struct {
	path  string
	state State
}

// MemoryStack is an ordered list of entries with a cursor. It has no
// change events of its own, so a History over it notifies listeners
// after every drained queue.
type MemoryStack struct {
	mu      sync.Mutex
	entries []memoryEntry
	index   int
}

// NewMemoryStack creates a stack from opts.
func NewMemoryStack(opts MemoryOptions) *MemoryStack {
	paths := opts.InitialEntries
	if len(paths) == 0 {
		paths = []string{"/"}
	}
	entries := make([]memoryEntry, len(paths))
	for i, p := range paths {
		entries[i] = memoryEntry{path: p}
	}

	m := &MemoryStack{entries: entries}
	if idx := opts.InitialIndex; idx == nil || *idx < 0 {
		m.index = len(entries) - 1
	} else {
		m.index = m.clamp(*idx)
	}
	return m
}

// Entries returns a copy of the entry paths.
func (m *MemoryStack) Entries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.path
	}
	return out
}

// Index returns the cursor position.
func (m *MemoryStack) Index() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

func (m *MemoryStack) location() Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[m.index]
	return ParseLocation(e.path, e.state)
}

// push drops the entries after the cursor, then appends.
func (m *MemoryStack) push(path string, state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries[:m.index+1], memoryEntry{path: path, state: state})
	m.index = len(m.entries) - 1
}

func (m *MemoryStack) replace(path string, state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.index] = memoryEntry{path: path, state: state}
}

func (m *MemoryStack) move(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = m.clamp(m.index + delta)
}

func (m *MemoryStack) clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i > len(m.entries)-1 {
		return len(m.entries) - 1
	}
	return i
}

// Adapter returns the primitives a History needs to drive m.
func (m *MemoryStack) Adapter() Adapter {
	return Adapter{
		GetLocation:  m.location,
		PushState:    m.push,
		ReplaceState: m.replace,
		Go:           m.move,
		Back:         func() { m.move(-1) },
		Forward:      func() { m.move(1) },
		Notifier:     Synthetic{},
	}
}

// MemoryAdapter returns an adapter over a new MemoryStack.
func MemoryAdapter(opts MemoryOptions) Adapter {
	return NewMemoryStack(opts).Adapter()
}

// NewMemory creates a History backed by an in-memory entry list.
//
// Push behaves like a browser: entries after the cursor are dropped
// before the new entry is appended and becomes current.
func NewMemory(opts MemoryOptions, hopts ...Option) *History {
	return New(MemoryAdapter(opts), hopts...)
}
