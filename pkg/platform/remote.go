package platform

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/navhist/internal/errors"
	"github.com/vango-dev/navhist/pkg/history"
	"github.com/vango-dev/navhist/pkg/protocol"
)

// maxRememberedStates bounds the key → value table kept for popstate.
const maxRememberedStates = 1024

// Conn is the subset of *websocket.Conn used by Remote.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// RemoteOption configures a Remote.
type RemoteOption func(*Remote)

// WithRemoteLogger sets the logger. Default: slog.Default().
func WithRemoteLogger(logger *slog.Logger) RemoteOption {
	return func(r *Remote) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Remote is a browser tab driven over a WebSocket. It mirrors the tab's
// current entry: mutations made here are applied to the mirror at once and
// sent to the tab; changes the tab makes on its own (back/forward, page
// scripts) arrive as events through Serve.
type Remote struct {
	conn   Conn
	logger *slog.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	href     string
	state    history.State
	values   map[string]any
	order    []string
	pops     map[int]func()
	wrappers map[int]func()
	guards   map[int]func() bool
	nextID   int
	closed   bool
}

var _ history.Platform = (*Remote)(nil)

// Handshake reads the tab's hello frame.
func Handshake(conn Conn) (*protocol.Event, error) {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, errors.New("E060").Wrap(err)
	}
	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		return nil, errors.New("E061").Wrap(err)
	}
	if frame.Type != protocol.FrameHello {
		return nil, errors.New("E062").Wrap(protocol.ErrUnexpectedFrame)
	}
	ev, err := protocol.DecodeEvent(frame.Payload)
	if err != nil {
		return nil, errors.New("E061").Wrap(err)
	}
	return ev, nil
}

// NewRemote creates a Remote whose mirror starts at hello.
func NewRemote(conn Conn, hello *protocol.Event, opts ...RemoteOption) *Remote {
	r := &Remote{
		conn:     conn,
		logger:   slog.Default().With("component", "remote"),
		values:   make(map[string]any),
		pops:     make(map[int]func()),
		wrappers: make(map[int]func()),
		guards:   make(map[int]func() bool),
		href:     "/",
	}
	for _, opt := range opts {
		opt(r)
	}
	if hello != nil {
		if hello.Href != "" {
			r.href = hello.Href
		}
		r.state = history.State{Key: hello.Key, Value: rawValue(hello.Value)}
	}
	return r
}

// Href returns the mirrored address.
func (r *Remote) Href() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.href
}

// State returns the mirrored state.
func (r *Remote) State() history.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// PushState pushes an entry in the tab.
func (r *Remote) PushState(state history.State, href string) {
	r.mutate(protocol.OpPush, state, href)
}

// ReplaceState replaces the tab's current entry.
func (r *Remote) ReplaceState(state history.State, href string) {
	r.mutate(protocol.OpReplace, state, href)
}

func (r *Remote) mutate(op protocol.Op, state history.State, href string) {
	var value []byte
	if state.Value != nil {
		var err error
		if value, err = json.Marshal(state.Value); err != nil {
			r.logger.Warn("state not serializable, sending null", "key", state.Key, "error", err)
			value = nil
		}
	}

	r.mu.Lock()
	href = resolve(r.href, href)
	r.href = href
	r.state = state
	r.rememberLocked(state)
	hooks := callbacks(r.wrappers)
	r.mu.Unlock()

	r.send(&protocol.Command{Op: op, Href: href, Key: state.Key, Value: value})
	for _, fn := range hooks {
		fn()
	}
}

// Go asks the tab to move through its history. The resulting location
// arrives later as a pop event.
func (r *Remote) Go(delta int) {
	if delta == 0 {
		return
	}
	r.send(&protocol.Command{Op: protocol.OpGo, Delta: delta})
}

// OnPopState registers fn for back/forward navigation in the tab.
func (r *Remote) OnPopState(fn func()) (remove func()) {
	return r.register(r.pops, fn)
}

// WrapHistory registers onMutate for every push or replace, whether made
// through Remote or by a script in the tab.
func (r *Remote) WrapHistory(onMutate func()) (restore func()) {
	return r.register(r.wrappers, onMutate)
}

func (r *Remote) register(set map[int]func(), fn func()) (remove func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	set[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(set, id)
		r.mu.Unlock()
	}
}

// OnBeforeUnload arms the tab's beforeunload guard while at least one
// guard is registered. The tab cannot consult fn synchronously, so an
// armed tab always asks the user before unloading.
func (r *Remote) OnBeforeUnload(fn func() bool) (remove func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.guards[id] = fn
	arm := len(r.guards) == 1
	r.mu.Unlock()

	if arm {
		r.send(&protocol.Command{Op: protocol.OpGuard, Enabled: true})
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.guards, id)
			disarm := len(r.guards) == 0
			r.mu.Unlock()
			if disarm {
				r.send(&protocol.Command{Op: protocol.OpGuard, Enabled: false})
			}
		})
	}
}

// Serve reads events from the tab until the connection closes or ctx is
// done. A normal close returns nil.
func (r *Remote) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { r.Close() })
	defer stop()

	for {
		_, msg, err := r.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || r.isClosed() {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return errors.New("E060").Wrap(err)
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			r.logger.Warn("frame decode error", "error", err)
			continue
		}

		switch frame.Type {
		case protocol.FrameEvent:
			ev, err := protocol.DecodeEvent(frame.Payload)
			if err != nil {
				r.logger.Warn("event decode error", "error", err)
				continue
			}
			r.apply(ev)

		case protocol.FrameError:
			m, err := protocol.DecodeErrorMessage(frame.Payload)
			if err != nil {
				return errors.New("E061").Wrap(err)
			}
			return errors.Newf(errors.CategoryProtocol, "tab reported %s: %s", m.Code, m.Message)

		default:
			r.logger.Warn("unexpected frame", "type", frame.Type)
		}
	}
}

// apply updates the mirror from a tab event and fires the matching hooks.
func (r *Remote) apply(ev *protocol.Event) {
	r.mu.Lock()
	r.href = ev.Href
	r.state = history.State{Key: ev.Key, Value: r.lookupLocked(ev.Key, ev.Value)}
	var hooks []func()
	switch ev.Kind {
	case protocol.EventPop:
		hooks = callbacks(r.pops)
	case protocol.EventPush, protocol.EventReplace:
		hooks = callbacks(r.wrappers)
	}
	r.mu.Unlock()

	r.logger.Debug("tab navigated", "kind", ev.Kind, "href", ev.Href)
	for _, fn := range hooks {
		fn()
	}
}

// Close closes the connection. It is safe to call more than once.
func (r *Remote) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()
	return r.conn.Close()
}

func (r *Remote) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Remote) send(c *protocol.Command) {
	if r.isClosed() {
		return
	}
	frame, err := protocol.CommandFrame(c)
	if err != nil && c.Value != nil {
		// The value stays server-side under its key; the tab only needs the key.
		r.logger.Warn("state value too large for the tab, sending key only", "key", c.Key, "size", len(c.Value))
		keyOnly := *c
		keyOnly.Value = nil
		frame, err = protocol.CommandFrame(&keyOnly)
	}
	if err != nil {
		r.logger.Error("command dropped", "op", c.Op, "error", errors.New("E064").Wrap(err))
		return
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		r.logger.Error("command send failed", "op", c.Op, "error", errors.New("E063").Wrap(err))
	}
}

func (r *Remote) rememberLocked(state history.State) {
	if state.Key == "" {
		return
	}
	if _, ok := r.values[state.Key]; !ok {
		r.order = append(r.order, state.Key)
	}
	r.values[state.Key] = state.Value
	for len(r.order) > maxRememberedStates {
		delete(r.values, r.order[0])
		r.order = r.order[1:]
	}
}

func (r *Remote) lookupLocked(key string, raw []byte) any {
	if v, ok := r.values[key]; ok {
		return v
	}
	return rawValue(raw)
}

func rawValue(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return json.RawMessage(raw)
}

func callbacks(set map[int]func()) []func() {
	fns := make([]func(), 0, len(set))
	for _, fn := range set {
		fns = append(fns, fn)
	}
	return fns
}
