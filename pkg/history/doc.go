// Package history unifies browser, hash and in-memory navigation behind
// one History type.
//
// Every navigation (Push, Replace, Go, Back, Forward) is queued and the
// queue is drained in order. Registered blockers are asked before the
// queue drains and may let it through later, which is how "leave this
// page?" confirmations are expressed without racing against navigations
// issued in the meantime.
//
// # Backends
//
// A History drives an Adapter. Three are provided:
//
//   - BrowserAdapter: the address bar of a Platform (a browser window)
//   - HashAdapter: only the fragment of a Platform's address
//   - MemoryAdapter: an in-process entry list with a cursor
//
// The browser and hash adapters report changes through the platform's own
// events (Native). The memory adapter has none (Synthetic), so the History
// notifies listeners itself once the queue drains.
//
// # Usage
//
//	h := history.NewMemory(history.MemoryOptions{
//	    InitialEntries: []string{"/", "/settings"},
//	})
//
//	unlisten := h.Listen(func() {
//	    fmt.Println("now at", h.Location().Pathname)
//	})
//	defer unlisten()
//
//	var unblock func()
//	unblock = h.Block(func(retry, cancel func()) {
//	    if confirm("Discard changes?") {
//	        unblock()
//	        retry()
//	        return
//	    }
//	    cancel()
//	})
//
//	h.Back()
//
// # Cancelled blocks
//
// A blocker's cancel voids every registered blocker but leaves queued
// navigations in place; the next navigation or an explicit Flush applies
// them. Use WithDiscardOnCancel to drop them instead.
package history
