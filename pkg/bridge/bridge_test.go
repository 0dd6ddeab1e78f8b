package bridge

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/navhist/pkg/protocol"
)

func dialTab(t *testing.T, srv *httptest.Server, base, href string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + base + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	hello := protocol.EventFrame(&protocol.Event{Kind: protocol.EventInit, Href: href})
	if err := conn.WriteMessage(websocket.BinaryMessage, hello); err != nil {
		t.Fatalf("hello write error = %v", err)
	}
	return conn
}

func readCommand(t *testing.T, conn *websocket.Conn) *protocol.Command {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	f, err := protocol.DecodeFrame(msg)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	if f.Type != protocol.FrameCommand {
		t.Fatalf("frame type = %v, want Command", f.Type)
	}
	cmd, err := protocol.DecodeCommand(f.Payload)
	if err != nil {
		t.Fatalf("DecodeCommand() error = %v", err)
	}
	return cmd
}

func TestServesClientScript(t *testing.T) {
	s := New(Options{BasePath: "/nav"})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/nav/client.js")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/javascript") {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	if len(body) != len(ClientJS) {
		t.Errorf("served %d bytes, want %d", len(body), len(ClientJS))
	}

	resp, err = http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	page, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(page), `src="/nav/client.js"`) {
		t.Errorf("index page does not load the client: %s", page)
	}
}

func TestSessionDrivesTab(t *testing.T) {
	s := New(Options{})
	started := make(chan *Session, 1)
	s.OnSession(func(sess *Session) {
		sess.History.Push("/welcome", nil)
		started <- sess
	})

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialTab(t, srv, "/_navhist", "/landing")
	defer conn.Close()

	var sess *Session
	select {
	case sess = <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("session not started")
	}

	cmd := readCommand(t, conn)
	if cmd.Op != protocol.OpPush || cmd.Href != "/welcome" || cmd.Key == "" {
		t.Errorf("command = %+v, want push /welcome", cmd)
	}
	if got := sess.History.Location().Pathname; got != "/welcome" {
		t.Errorf("Location().Pathname = %q, want /welcome", got)
	}
	if _, ok := s.Session(sess.ID); !ok {
		t.Error("Session() did not find the live session")
	}

	// Back in the tab reaches the session's listeners.
	changed := make(chan string, 1)
	unlisten := sess.History.Listen(func() {
		select {
		case changed <- sess.History.Location().Pathname:
		default:
		}
	})
	defer unlisten()

	pop := protocol.EventFrame(&protocol.Event{Kind: protocol.EventPop, Href: "/landing"})
	if err := conn.WriteMessage(websocket.BinaryMessage, pop); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-changed:
		if got != "/landing" {
			t.Errorf("listener saw %q, want /landing", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pop not reported")
	}
}

func TestBlockArmsGuard(t *testing.T) {
	s := New(Options{Mode: "hash"})
	started := make(chan *Session, 1)
	s.OnSession(func(sess *Session) { started <- sess })

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialTab(t, srv, "/_navhist", "/app#/editor")
	defer conn.Close()
	sess := <-started

	if got := sess.History.Location().Pathname; got != "/editor" {
		t.Errorf("hash Pathname = %q, want /editor", got)
	}

	unblock := sess.History.Block(func(retry, cancel func()) {})
	if cmd := readCommand(t, conn); cmd.Op != protocol.OpGuard || !cmd.Enabled {
		t.Errorf("command = %+v, want guard on", cmd)
	}
	unblock()
	if cmd := readCommand(t, conn); cmd.Op != protocol.OpGuard || cmd.Enabled {
		t.Errorf("command = %+v, want guard off", cmd)
	}
}

func TestSessionEndsOnDisconnect(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(Options{Registry: reg, MetricsPath: "/metrics"})
	started := make(chan *Session, 1)
	s.OnSession(func(sess *Session) { started <- sess })

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialTab(t, srv, "/_navhist", "/")
	<-started
	if n := len(s.Sessions()); n != 1 {
		t.Fatalf("Sessions() = %d, want 1", n)
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for len(s.Sessions()) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session not removed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "navhist_bridge_active_sessions 0") {
		t.Errorf("metrics missing active_sessions gauge:\n%s", body)
	}
}

func TestRejectsForeignOrigin(t *testing.T) {
	s := New(Options{AllowedOrigins: []string{"https://app.example"}})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/_navhist/ws"
	header := http.Header{"Origin": []string{"https://evil.example"}}
	if _, _, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Fatal("Dial() succeeded from a foreign origin")
	}
}

func TestShutdownClosesSessions(t *testing.T) {
	s := New(Options{})
	started := make(chan *Session, 1)
	s.OnSession(func(sess *Session) { started <- sess })

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialTab(t, srv, "/_navhist", "/")
	defer conn.Close()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection still open after Shutdown")
	}
}
