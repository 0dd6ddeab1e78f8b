package history

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Listener is called after the location changed.
type Listener func()

// Blocker decides whether pending navigations may proceed.
//
// It receives two continuations. retry lets the navigation past this
// blocker; cancel clears every registered blocker and leaves the queued
// navigations unapplied. A blocker may call either one later, for example
// after the user answered a confirmation. If it calls neither, the
// navigation stays pending.
type Blocker func(retry, cancel func())

// Operation names used for logging and metrics.
const (
	opPush    = "push"
	opReplace = "replace"
	opGo      = "go"
	opBack    = "back"
	opForward = "forward"
)

type task struct {
	op  string
	run func()
}

type blockerEntry struct {
	fn Blocker
}

type suspensionState int

const (
	suspensionPending suspensionState = iota
	suspensionResumed
	suspensionCancelled
)

// suspension is one question put to one blocker. Only the latest
// suspension accepts retry or cancel.
type suspension struct {
	gen   uint64
	entry *blockerEntry
	state suspensionState
}

// History serializes navigations through a queue guarded by blockers and
// fans location changes out to listeners.
//
// All methods are safe for concurrent use. Listeners, blockers and adapter
// primitives are always invoked without internal locks held, so they may
// call back into the History.
type History struct {
	adapter Adapter
	native  *Native
	cfg     config

	// hookMu serializes platform hook transitions (native subscription
	// and unload guard) so each is installed and removed exactly once.
	hookMu sync.Mutex

	// locMu orders each read of the backend location with the write of
	// the cached copy, so an older read never overwrites a newer one.
	locMu sync.Mutex

	mu           sync.Mutex
	location     Location
	notified     Location
	listeners    map[uint64]Listener
	nextListener uint64
	blockers     []*blockerEntry
	approved     map[*blockerEntry]struct{}
	pending      *suspension
	gen          uint64
	removeGuard  func()
	queue        []task
	draining     bool
}

// New creates a History over the given adapter.
func New(adapter Adapter, opts ...Option) *History {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = defaultConfig().logger
	}
	if cfg.tracer == nil {
		cfg.tracer = defaultConfig().tracer
	}

	if adapter.CreateHref == nil {
		adapter.CreateHref = func(path string) string { return path }
	}
	if adapter.Back == nil && adapter.Go != nil {
		adapter.Back = func() { adapter.Go(-1) }
	}
	if adapter.Forward == nil && adapter.Go != nil {
		adapter.Forward = func() { adapter.Go(1) }
	}

	h := &History{
		adapter:   adapter,
		cfg:       cfg,
		listeners: make(map[uint64]Listener),
	}
	if n, ok := adapter.Notifier.(Native); ok {
		h.native = &n
	}
	h.location = adapter.GetLocation()
	h.notified = h.location
	return h
}

// Location returns the current location.
func (h *History) Location() Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	// Without a live native subscription, platform-originated changes are
	// not reported, so read the backend directly.
	if h.native != nil && len(h.listeners) == 0 && !h.draining {
		h.location = h.adapter.GetLocation()
	}
	return h.location
}

// Listen registers fn and returns a function that removes it.
// The first listener activates the backend's native change subscription;
// removing the last one tears it down. Calling unsubscribe more than once
// is a no-op.
func (h *History) Listen(fn Listener) (unsubscribe func()) {
	h.hookMu.Lock()
	defer h.hookMu.Unlock()

	h.mu.Lock()
	h.nextListener++
	id := h.nextListener
	h.listeners[id] = fn
	first := len(h.listeners) == 1
	h.mu.Unlock()

	h.cfg.metrics.recordListeners(1)
	if first && h.native != nil && h.native.Install != nil {
		// Resync before the platform starts reporting so the first event
		// is compared against the real current entry.
		h.locMu.Lock()
		loc := h.adapter.GetLocation()
		h.mu.Lock()
		h.location = loc
		h.notified = loc
		h.mu.Unlock()
		h.locMu.Unlock()
		h.native.Install(h.onChange)
	}

	var once sync.Once
	return func() {
		once.Do(func() { h.unlisten(id) })
	}
}

func (h *History) unlisten(id uint64) {
	h.hookMu.Lock()
	defer h.hookMu.Unlock()

	h.mu.Lock()
	if _, ok := h.listeners[id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.listeners, id)
	last := len(h.listeners) == 0
	h.mu.Unlock()

	h.cfg.metrics.recordListeners(-1)
	if last && h.native != nil && h.native.Uninstall != nil {
		h.native.Uninstall()
	}
}

// Push enqueues a navigation that adds path as a new entry.
func (h *History) Push(path string, value any) {
	state := State{Key: NewKey(), Value: value}
	h.enqueue(opPush, func() { h.adapter.PushState(path, state) })
}

// Replace enqueues a navigation that overwrites the current entry.
func (h *History) Replace(path string, value any) {
	state := State{Key: NewKey(), Value: value}
	h.enqueue(opReplace, func() { h.adapter.ReplaceState(path, state) })
}

// Go enqueues a move of delta entries through the history stack.
func (h *History) Go(delta int) {
	h.enqueue(opGo, func() { h.adapter.Go(delta) })
}

// Back enqueues a move to the previous entry.
func (h *History) Back() {
	h.enqueue(opBack, h.adapter.Back)
}

// Forward enqueues a move to the next entry.
func (h *History) Forward() {
	h.enqueue(opForward, h.adapter.Forward)
}

// CreateHref formats path the way the backend expects it in links.
func (h *History) CreateHref(path string) string {
	return h.adapter.CreateHref(path)
}

// Block registers fn as a navigation blocker and returns a function that
// removes it. The first blocker also installs the backend's unload guard;
// removing the last one uninstalls it.
func (h *History) Block(fn Blocker) (unblock func()) {
	entry := &blockerEntry{fn: fn}

	h.hookMu.Lock()
	h.mu.Lock()
	h.blockers = append(h.blockers, entry)
	first := len(h.blockers) == 1
	h.mu.Unlock()

	if first && h.adapter.UnloadGuard != nil {
		remove := h.adapter.UnloadGuard(h.Blocked)
		h.mu.Lock()
		h.removeGuard = remove
		h.mu.Unlock()
	}
	h.hookMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.unblock(entry) })
	}
}

func (h *History) unblock(entry *blockerEntry) {
	h.hookMu.Lock()
	defer h.hookMu.Unlock()

	h.mu.Lock()
	idx := -1
	for i, b := range h.blockers {
		if b == entry {
			idx = i
			break
		}
	}
	if idx < 0 {
		h.mu.Unlock()
		return
	}
	h.blockers = append(h.blockers[:idx], h.blockers[idx+1:]...)
	delete(h.approved, entry)
	if h.pending != nil && h.pending.entry == entry {
		// The removed blocker's answer no longer counts.
		h.pending = nil
	}
	var remove func()
	if len(h.blockers) == 0 {
		remove = h.removeGuard
		h.removeGuard = nil
	}
	h.mu.Unlock()

	if remove != nil {
		remove()
	}
}

// Blocked reports whether any blocker is registered.
func (h *History) Blocked() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.blockers) > 0
}

// Pending returns the number of queued navigations.
func (h *History) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

// Flush re-attempts applying queued navigations. Navigations left queued
// by a cancelled block are applied by the next Flush or the next
// navigation, whichever comes first.
func (h *History) Flush() {
	h.flush()
}

func (h *History) enqueue(op string, run func()) {
	h.mu.Lock()
	h.queue = append(h.queue, task{op: op, run: run})
	depth := len(h.queue)
	h.mu.Unlock()

	h.cfg.metrics.recordQueueDepth(depth)
	h.flush()
}

// flush asks the first blocker that has not approved the pending
// navigations, or drains the queue when there is none.
func (h *History) flush() {
	h.mu.Lock()
	if h.draining || len(h.queue) == 0 {
		// A running drain picks up anything enqueued meanwhile.
		h.mu.Unlock()
		return
	}
	if h.pending != nil && h.registeredLocked(h.pending.entry) {
		// The active blocker has not answered yet.
		h.mu.Unlock()
		return
	}

	if entry := h.nextBlockerLocked(); entry != nil {
		h.gen++
		s := &suspension{gen: h.gen, entry: entry}
		h.pending = s
		queued := len(h.queue)
		h.mu.Unlock()

		h.cfg.logger.Debug("navigation blocked", "pending", queued, "suspension", s.gen)
		h.cfg.metrics.recordBlock(outcomeAsked)
		entry.fn(func() { h.resume(s) }, func() { h.cancel(s) })
		return
	}

	h.pending = nil
	h.draining = true
	h.mu.Unlock()
	h.drain()
}

func (h *History) registeredLocked(entry *blockerEntry) bool {
	for _, b := range h.blockers {
		if b == entry {
			return true
		}
	}
	return false
}

func (h *History) nextBlockerLocked() *blockerEntry {
	for _, b := range h.blockers {
		if _, ok := h.approved[b]; !ok {
			return b
		}
	}
	return nil
}

// resume is the retry continuation of s.
func (h *History) resume(s *suspension) {
	h.mu.Lock()
	if h.pending != s || s.state != suspensionPending {
		h.mu.Unlock()
		return
	}
	s.state = suspensionResumed
	h.pending = nil
	if h.approved == nil {
		h.approved = make(map[*blockerEntry]struct{})
	}
	h.approved[s.entry] = struct{}{}
	h.mu.Unlock()

	h.cfg.logger.Debug("navigation resumed", "suspension", s.gen)
	h.cfg.metrics.recordBlock(outcomeRetried)
	h.flush()
}

// cancel is the cancel continuation of s. It voids every blocker.
func (h *History) cancel(s *suspension) {
	h.hookMu.Lock()
	defer h.hookMu.Unlock()

	h.mu.Lock()
	if h.pending != s || s.state != suspensionPending {
		h.mu.Unlock()
		return
	}
	s.state = suspensionCancelled
	h.pending = nil
	h.blockers = nil
	h.approved = nil
	remove := h.removeGuard
	h.removeGuard = nil
	dropped := 0
	if h.cfg.discardOnCancel {
		dropped = len(h.queue)
		h.queue = nil
	}
	queued := len(h.queue)
	h.mu.Unlock()

	if remove != nil {
		remove()
	}
	h.cfg.logger.Debug("navigation cancelled", "suspension", s.gen, "queued", queued, "dropped", dropped)
	h.cfg.metrics.recordBlock(outcomeCancelled)
	h.cfg.metrics.recordQueueDepth(queued)
}

// drain runs queued tasks in order until the queue is empty or a blocker
// that has not approved them shows up. The caller must have set
// h.draining.
func (h *History) drain() {
	_, span := h.cfg.tracer.Start(context.Background(), "history.drain")
	defer span.End()
	start := time.Now()

	ran := 0
	interrupted := false
	left := 0
	for {
		h.mu.Lock()
		if len(h.queue) == 0 {
			h.draining = false
			h.approved = nil
			h.mu.Unlock()
			break
		}
		if h.nextBlockerLocked() != nil {
			// Registered while draining, for example by a listener.
			h.draining = false
			interrupted = true
			left = len(h.queue)
			h.mu.Unlock()
			break
		}
		t := h.queue[0]
		h.queue[0] = task{}
		h.queue = h.queue[1:]
		h.mu.Unlock()

		t.run()
		ran++
		h.cfg.metrics.recordCommitted(t.op)
	}

	span.SetAttributes(
		attribute.Int("history.tasks", ran),
		attribute.Bool("history.native", h.native != nil),
		attribute.Bool("history.interrupted", interrupted),
	)
	h.cfg.metrics.recordQueueDepth(left)
	h.cfg.metrics.recordDrain(time.Since(start))

	// Native backends report through their own events.
	notify := h.native == nil
	h.locMu.Lock()
	loc := h.adapter.GetLocation()
	h.mu.Lock()
	h.location = loc
	if notify {
		h.notified = loc
	}
	h.mu.Unlock()
	h.locMu.Unlock()

	if notify {
		h.notifyListeners()
	}
	if interrupted {
		h.cfg.logger.Debug("drain interrupted by blocker", "pending", left)
		h.flush()
	}
}

// onChange handles a native change event from the backend.
func (h *History) onChange() {
	h.locMu.Lock()
	loc := h.adapter.GetLocation()
	h.mu.Lock()
	h.location = loc
	changed := !same(loc, h.notified)
	if changed {
		h.notified = loc
	}
	h.mu.Unlock()
	h.locMu.Unlock()

	if changed {
		h.notifyListeners()
	}
}

func (h *History) notifyListeners() {
	h.mu.Lock()
	fns := make([]Listener, 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
