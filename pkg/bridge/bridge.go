package bridge

import (
	"context"
	_ "embed"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/navhist/pkg/history"
	"github.com/vango-dev/navhist/pkg/middleware"
	"github.com/vango-dev/navhist/pkg/platform"
	"github.com/vango-dev/navhist/pkg/protocol"
)

// ClientJS is the thin client served at <base>/client.js.
//
//go:embed client.js
var ClientJS []byte

// Options configures a Server.
type Options struct {
	// Mode is "browser" (default) or "hash".
	Mode string

	// BasePath prefixes the client script and socket (default "/_navhist").
	BasePath string

	// AllowedOrigins lists origins allowed to open the socket.
	// Empty means same-origin only.
	AllowedOrigins []string

	// HistoryOptions are applied to every session's History.
	HistoryOptions []history.Option

	// Registry receives the bridge and history collectors and, when
	// MetricsPath is set, is served there. Nil disables metrics.
	Registry *prometheus.Registry

	// Namespace is the metrics namespace (default "navhist").
	Namespace string

	// MetricsPath serves Registry when non-empty.
	MetricsPath string

	// TracerName names the tracer for request spans (default "navhist").
	TracerName string

	// HandshakeTimeout bounds the wait for the tab's hello (default 10s).
	HandshakeTimeout time.Duration

	// MaxMessageSize bounds incoming frames (default 64KB).
	MaxMessageSize int64

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server hosts the thin client and one History per connected tab.
type Server struct {
	opts     Options
	router   chi.Router
	upgrader websocket.Upgrader
	logger   *slog.Logger
	active   prometheus.Gauge

	mu         sync.Mutex
	sessions   map[string]*Session
	onSession  []func(*Session)
	httpServer *http.Server
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.Mode == "" {
		opts.Mode = "browser"
	}
	if opts.BasePath == "" {
		opts.BasePath = "/_navhist"
	}
	if opts.Namespace == "" {
		opts.Namespace = "navhist"
	}
	if opts.TracerName == "" {
		opts.TracerName = "navhist"
	}
	if opts.HandshakeTimeout == 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if opts.MaxMessageSize == 0 {
		opts.MaxMessageSize = 64 * 1024
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		opts:     opts,
		logger:   logger.With("component", "bridge"),
		sessions: make(map[string]*Session),
	}

	if len(opts.AllowedOrigins) > 0 {
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			return slices.Contains(opts.AllowedOrigins, r.Header.Get("Origin"))
		}
	}

	if opts.Registry != nil {
		s.active = promauto.With(opts.Registry).NewGauge(prometheus.GaugeOpts{
			Namespace: opts.Namespace,
			Subsystem: "bridge",
			Name:      "active_sessions",
			Help:      "Number of connected browser tabs",
		})
		m := history.NewMetrics(
			history.WithRegistry(opts.Registry),
			history.WithNamespace(opts.Namespace),
		)
		s.opts.HistoryOptions = append(slices.Clone(opts.HistoryOptions), history.WithMetrics(m))
	}

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.OpenTelemetry(middleware.WithTracerName(s.opts.TracerName)))
	if s.opts.Registry != nil {
		r.Use(middleware.Prometheus(
			middleware.WithRegistry(s.opts.Registry),
			middleware.WithNamespace(s.opts.Namespace),
		))
	}

	r.Get("/", s.handleIndex)
	r.Route(s.opts.BasePath, func(r chi.Router) {
		r.Get("/client.js", s.handleClientJS)
		r.Get("/ws", s.HandleWebSocket)
	})
	if s.opts.Registry != nil && s.opts.MetricsPath != "" {
		r.Handle(s.opts.MetricsPath, promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router exposes the chi router so applications can mount their pages.
func (s *Server) Router() chi.Router {
	return s.router
}

// OnSession registers fn to run for every new tab, before its events are
// read.
func (s *Server) OnSession(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSession = append(s.onSession, fn)
}

// Sessions returns the connected sessions.
func (s *Server) Sessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// Session returns the session with id.
func (s *Server) Session(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) handleClientJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(ClientJS)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>navhist</title></head>
<body>
<p>This tab's history is driven by the server.</p>
<script src="` + s.opts.BasePath + `/client.js" data-base="` + s.opts.BasePath + `"></script>
</body>
</html>
`))
}

// HandleWebSocket upgrades the request and runs a session until the tab
// disconnects.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(s.opts.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(s.opts.HandshakeTimeout))

	hello, err := platform.Handshake(conn)
	if err != nil {
		s.logger.Warn("handshake failed", "error", err)
		conn.Close()
		return
	}
	conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := s.newSession(conn, hello, cancel)
	s.logger.Info("session started", "session_id", sess.ID, "href", hello.Href)

	s.mu.Lock()
	handlers := slices.Clone(s.onSession)
	s.mu.Unlock()
	for _, fn := range handlers {
		fn(sess)
	}

	if err := sess.Remote.Serve(ctx); err != nil {
		s.logger.Warn("session ended with error", "session_id", sess.ID, "error", err)
	}
	s.endSession(sess)
}

func (s *Server) newSession(conn *websocket.Conn, hello *protocol.Event, cancel context.CancelFunc) *Session {
	id := uuid.NewString()
	logger := s.logger.With("session_id", id)
	remote := platform.NewRemote(conn, hello, platform.WithRemoteLogger(logger))

	opts := append([]history.Option{history.WithLogger(logger)}, s.opts.HistoryOptions...)
	var h *history.History
	if s.opts.Mode == "hash" {
		h = history.NewHash(remote, opts...)
	} else {
		h = history.NewBrowser(remote, opts...)
	}

	sess := &Session{
		ID:      id,
		History: h,
		Remote:  remote,
		Started: time.Now(),
		cancel:  cancel,
	}
	sess.unlisten = h.Listen(func() {
		logger.Debug("location changed", "href", h.Location().Href)
	})

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	if s.active != nil {
		s.active.Inc()
	}
	return sess
}

func (s *Server) endSession(sess *Session) {
	sess.Close()

	s.mu.Lock()
	_, ok := s.sessions[sess.ID]
	delete(s.sessions, sess.ID)
	s.mu.Unlock()

	if ok && s.active != nil {
		s.active.Dec()
	}
	s.logger.Info("session ended", "session_id", sess.ID)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown closes every session, then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, sess := range s.Sessions() {
		sess.Close()
	}

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
