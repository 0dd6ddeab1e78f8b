package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/vango-dev/navhist/pkg/history"
	"github.com/vango-dev/navhist/pkg/platform"
)

// Session is one connected browser tab.
type Session struct {
	// ID identifies the session in logs and in Server.Session.
	ID string

	// History drives the tab. Navigations issued here are sent to the tab;
	// back/forward in the tab reach its listeners.
	History *history.History

	// Remote is the tab's platform.
	Remote *platform.Remote

	// Started is when the handshake completed.
	Started time.Time

	cancel   context.CancelFunc
	unlisten func()
	once     sync.Once
}

// Close ends the session and disconnects the tab. Safe to call more than
// once.
func (s *Session) Close() {
	s.once.Do(func() {
		if s.unlisten != nil {
			s.unlisten()
		}
		if s.cancel != nil {
			s.cancel()
		}
		s.Remote.Close()
	})
}
