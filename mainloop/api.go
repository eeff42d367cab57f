package mainloop

import "time"

// IOEvents is a bit set of fd readiness conditions.
type IOEvents uint32

const (
	IONull   IOEvents = 0
	IORead   IOEvents = 1 << 0
	IOWrite  IOEvents = 1 << 1
	IOHangup IOEvents = 1 << 2
	IOError  IOEvents = 1 << 3
)

type (
	// IOFunc is called when the fd watched by an IOEvent becomes ready.
	IOFunc func(e IOEvent, fd int, events IOEvents)

	// DeferFunc is called once per loop iteration while its DeferEvent is
	// enabled.
	DeferFunc func(e DeferEvent)

	// TimeFunc is called once its TimeEvent expires. Time events are one-shot,
	// use TimeEvent.Restart to fire again.
	TimeFunc func(e TimeEvent)
)

// API is the set of operations components use to integrate with a dispatcher.
// It is implemented by *Mainloop, and may be faked in tests.
//
// All methods except Quit must be called from the goroutine running the loop.
type API interface {
	IONew(fd int, events IOEvents, cb IOFunc) IOEvent
	DeferNew(cb DeferFunc) DeferEvent
	TimeNew(when time.Time, cb TimeFunc) TimeEvent
	Quit(retval int)
}

// IOEvent watches a single fd.
type IOEvent interface {
	// Enable replaces the set of conditions being watched, IONull disables.
	Enable(events IOEvents)
	Free()
}

// DeferEvent is a coalesced "run again on the next iteration" task. Enabling
// an already enabled event is a no-op, so at most one invocation is pending.
type DeferEvent interface {
	Enable(b bool)
	Free()
}

// TimeEvent is a one-shot timer.
type TimeEvent interface {
	// Restart re-arms the timer, the zero time disables it.
	Restart(when time.Time)
	Free()
}
