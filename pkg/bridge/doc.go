// Package bridge drives real browser tabs from the server.
//
// A Server serves a small script at <base>/client.js. Pages that include it
// open a WebSocket to <base>/ws, announce their current entry, and from
// then on apply the navigations the server sends. Each tab gets a Session
// holding a History backed by a platform.Remote, so server code navigates
// a tab with the same API it uses for an in-memory history:
//
//	srv := bridge.New(bridge.Options{Mode: "browser"})
//	srv.OnSession(func(s *bridge.Session) {
//	    s.History.Push("/welcome", nil)
//	})
//	srv.Run(ctx, ":4000")
package bridge
