// Package ioline frames a non-blocking byte transport into a line oriented
// text channel, driven by a mainloop.
//
// A Line owns its Transport and a deferred event on the transport's
// dispatcher. Transport readiness and the deferred event both run the same
// work routine: read everything readable, deliver each complete line to the
// Handler, then write as much pending output as the transport accepts.
//
// Both buffers are bounded (BufferLimit by default). Output beyond the limit
// is truncated, and input that reaches the limit without a delimiter is
// discarded. Neither is reported as an error, see Stats.
//
// A Line terminates on an explicit Close, a transport error, an orderly peer
// shutdown, or once DeferClose has drained pending output. Except for Close,
// any unterminated trailing input is delivered first (not for transport
// errors), then a single Event with Closed set.
//
// Lines are reference counted. The work routine holds a reference while it
// runs, so a Handler may Close or Unref the Line it was called for.
//
// Example usage:
//
//	m, _ := mainloop.New()
//	ch, _ := iochannel.New(m, 0, 1)
//	l := ioline.New(ch)
//	l.SetHandler(ioline.HandlerFunc(func(l *ioline.Line, ev ioline.Event) {
//	    if ev.Closed {
//	        m.Quit(0)
//	        return
//	    }
//	    l.Printf("> %s\n", ev.Text)
//	}))
//	m.Run(ctx)
package ioline
