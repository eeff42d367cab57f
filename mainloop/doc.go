// Package mainloop provides a minimal, Linux-only, single-threaded event
// dispatcher built on poll(2).
//
// Components integrate through the API interface, which offers three kinds of
// events:
//   - io events, watching an fd for readability or writability
//   - deferred events, run once per iteration while enabled, used to coalesce
//     "more work pending" wake reasons into a single callback
//   - time events, one-shot timers
//
// Each iteration dispatches enabled deferred events first, then expired
// timers, then io events. Callbacks run to completion on the loop goroutine,
// and may freely create, enable or free events (including their own).
//
// Example usage:
//
//	m, err := mainloop.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//
//	m.IONew(fd, mainloop.IORead, func(e mainloop.IOEvent, fd int, events mainloop.IOEvents) {
//	    // read from fd
//	})
//
//	retval, err := m.Run(ctx)
//
// Quit and Wakeup may be called from other goroutines, everything else must
// happen on the goroutine running the loop.
package mainloop
