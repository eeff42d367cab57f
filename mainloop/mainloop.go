package mainloop

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
	"golang.org/x/sys/unix"
)

// Option configures a Mainloop.
type Option func(m *Mainloop)

// WithLogger sets the logger used to report poll failures.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return func(m *Mainloop) {
		m.logger = logger
	}
}

// Mainloop is a single-threaded, poll(2) based dispatcher. It is not safe for
// concurrent use, except for Quit and Wakeup.
type Mainloop struct {
	logger *logiface.Logger[logiface.Event]
	now    func() time.Time

	ioEvents    []*ioEvent
	deferEvents []*deferEvent
	timeEvents  []*timeEvent
	pollfds     []unix.PollFd

	nDeferEnabled int
	garbage       bool

	wakeMu sync.Mutex
	wakeR  int // wakeup pipe read fd
	wakeW  int // wakeup pipe write fd

	quit   atomic.Bool
	retval atomic.Int64
	closed atomic.Bool
}

var _ API = (*Mainloop)(nil)

// New creates a Mainloop, with a non-blocking self-pipe used to interrupt a
// blocking poll.
func New(opts ...Option) (*Mainloop, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("wakeup pipe: %w", err)
	}
	m := &Mainloop{
		now:   time.Now,
		wakeR: fds[0],
		wakeW: fds[1],
	}
	for _, o := range opts {
		if o != nil {
			o(m)
		}
	}
	return m, nil
}

// IONew watches fd for the given conditions. Hang-up and error conditions are
// always reported while the event is enabled.
func (m *Mainloop) IONew(fd int, events IOEvents, cb IOFunc) IOEvent {
	if cb == nil {
		panic("mainloop: nil io callback")
	}
	e := &ioEvent{m: m, cb: cb, fd: fd, events: events, pollIdx: -1}
	m.ioEvents = append(m.ioEvents, e)
	return e
}

// DeferNew creates a deferred event. New deferred events start enabled.
func (m *Mainloop) DeferNew(cb DeferFunc) DeferEvent {
	if cb == nil {
		panic("mainloop: nil defer callback")
	}
	e := &deferEvent{m: m, cb: cb, enabled: true}
	m.deferEvents = append(m.deferEvents, e)
	m.nDeferEnabled++
	return e
}

// TimeNew creates a one-shot timer firing at when, the zero time creates it
// disabled.
func (m *Mainloop) TimeNew(when time.Time, cb TimeFunc) TimeEvent {
	if cb == nil {
		panic("mainloop: nil time callback")
	}
	e := &timeEvent{m: m, cb: cb, when: when, enabled: !when.IsZero()}
	m.timeEvents = append(m.timeEvents, e)
	return e
}

// Quit makes Run return retval once the current iteration completes. It may
// be called from any goroutine.
func (m *Mainloop) Quit(retval int) {
	m.retval.Store(int64(retval))
	m.quit.Store(true)
	m.Wakeup()
}

// Wakeup interrupts a blocking Iterate. It may be called from any goroutine.
func (m *Mainloop) Wakeup() {
	m.wakeMu.Lock()
	defer m.wakeMu.Unlock()
	if m.closed.Load() {
		return
	}
	// EAGAIN means a wakeup is already pending
	_, _ = unix.Write(m.wakeW, []byte{1})
}

// Run iterates until Quit is called or ctx is done.
func (m *Mainloop) Run(ctx context.Context) (int, error) {
	stop := context.AfterFunc(ctx, m.Wakeup)
	defer stop()
	for {
		if err := ctx.Err(); err != nil {
			return -1, err
		}
		if m.quit.Load() {
			return int(m.retval.Load()), nil
		}
		if _, err := m.Iterate(true); err != nil {
			return -1, err
		}
	}
}

// Iterate runs a single loop iteration, returning the number of callbacks
// dispatched. If block is false, or any deferred event is enabled, poll does
// not wait.
func (m *Mainloop) Iterate(block bool) (int, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if m.quit.Load() {
		return 0, nil
	}

	m.collectGarbage()

	fds := m.rebuildPollfds()
	n, err := unix.Poll(fds, m.pollTimeout(block))
	if err != nil {
		if err != unix.EINTR {
			m.logger.Err().
				Err(err).
				Log(`poll failed`)
			return 0, fmt.Errorf("poll: %w", err)
		}
		n = 0
	}
	if n > 0 && fds[0].Revents != 0 {
		m.drainWakeup()
	}

	dispatched := m.dispatchDefer()
	dispatched += m.dispatchTime()
	if n > 0 {
		dispatched += m.dispatchIO(fds)
	}
	return dispatched, nil
}

// Close releases the wakeup pipe and marks every event freed. It does not
// close any watched fd. Close may be called from within a callback, the rest
// of the iteration then dispatches nothing.
func (m *Mainloop) Close() error {
	m.wakeMu.Lock()
	defer m.wakeMu.Unlock()
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	for _, e := range m.ioEvents {
		e.dead = true
	}
	for _, e := range m.deferEvents {
		e.dead = true
	}
	for _, e := range m.timeEvents {
		e.dead = true
	}
	m.nDeferEnabled = 0
	m.garbage = true

	err := unix.Close(m.wakeR)
	if err2 := unix.Close(m.wakeW); err == nil {
		err = err2
	}
	return err
}

func (m *Mainloop) pollTimeout(block bool) int {
	if !block || m.nDeferEnabled > 0 {
		return 0
	}
	var next time.Time
	for _, e := range m.timeEvents {
		if e.dead || !e.enabled {
			continue
		}
		if next.IsZero() || e.when.Before(next) {
			next = e.when
		}
	}
	if next.IsZero() {
		return -1
	}
	d := next.Sub(m.now())
	if d <= 0 {
		return 0
	}
	return int((d + time.Millisecond - 1) / time.Millisecond)
}

func (m *Mainloop) rebuildPollfds() []unix.PollFd {
	fds := append(m.pollfds[:0], unix.PollFd{Fd: int32(m.wakeR), Events: unix.POLLIN})
	for _, e := range m.ioEvents {
		e.pollIdx = -1
		if e.dead || e.events == IONull {
			continue
		}
		e.pollIdx = len(fds)
		fds = append(fds, unix.PollFd{Fd: int32(e.fd), Events: toPollEvents(e.events)})
	}
	m.pollfds = fds
	return fds
}

func (m *Mainloop) drainWakeup() {
	var buf [64]byte
	for {
		n, err := unix.Read(m.wakeR, buf[:])
		if err != nil || n <= 0 {
			return
		}
	}
}

// events created during dispatch are never dispatched in the same iteration

func (m *Mainloop) dispatchDefer() (count int) {
	if m.nDeferEnabled == 0 {
		return 0
	}
	for i, n := 0, len(m.deferEvents); i < n; i++ {
		e := m.deferEvents[i]
		if e.dead || !e.enabled {
			continue
		}
		e.cb(e)
		count++
	}
	return count
}

func (m *Mainloop) dispatchTime() (count int) {
	now := m.now()
	for i, n := 0, len(m.timeEvents); i < n; i++ {
		e := m.timeEvents[i]
		if e.dead || !e.enabled || e.when.After(now) {
			continue
		}
		e.enabled = false
		e.cb(e)
		count++
	}
	return count
}

func (m *Mainloop) dispatchIO(fds []unix.PollFd) (count int) {
	for i, n := 0, len(m.ioEvents); i < n; i++ {
		e := m.ioEvents[i]
		if e.dead || e.pollIdx < 0 || e.events == IONull {
			continue
		}
		revents := fds[e.pollIdx].Revents
		if revents == 0 {
			continue
		}
		e.cb(e, e.fd, fromPollEvents(revents))
		count++
	}
	return count
}

func (m *Mainloop) collectGarbage() {
	if !m.garbage {
		return
	}
	m.ioEvents = slices.DeleteFunc(m.ioEvents, func(e *ioEvent) bool { return e.dead })
	m.deferEvents = slices.DeleteFunc(m.deferEvents, func(e *deferEvent) bool { return e.dead })
	m.timeEvents = slices.DeleteFunc(m.timeEvents, func(e *timeEvent) bool { return e.dead })
	m.garbage = false
}

func toPollEvents(events IOEvents) (ev int16) {
	if events&IORead != 0 {
		ev |= unix.POLLIN
	}
	if events&IOWrite != 0 {
		ev |= unix.POLLOUT
	}
	return ev
}

func fromPollEvents(revents int16) (events IOEvents) {
	if revents&unix.POLLIN != 0 {
		events |= IORead
	}
	if revents&unix.POLLOUT != 0 {
		events |= IOWrite
	}
	if revents&unix.POLLHUP != 0 {
		events |= IOHangup
	}
	if revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
		events |= IOError
	}
	return events
}

type ioEvent struct {
	m       *Mainloop
	cb      IOFunc
	fd      int
	pollIdx int
	events  IOEvents
	dead    bool
}

func (e *ioEvent) Enable(events IOEvents) {
	if e.dead {
		if e.m.closed.Load() {
			return
		}
		panic("mainloop: enable of freed io event")
	}
	e.events = events
}

func (e *ioEvent) Free() {
	if e.dead {
		return
	}
	e.dead = true
	e.m.garbage = true
}

type deferEvent struct {
	m       *Mainloop
	cb      DeferFunc
	enabled bool
	dead    bool
}

func (e *deferEvent) Enable(b bool) {
	if e.dead {
		if e.m.closed.Load() {
			return
		}
		panic("mainloop: enable of freed defer event")
	}
	if e.enabled == b {
		return
	}
	e.enabled = b
	if b {
		e.m.nDeferEnabled++
	} else {
		e.m.nDeferEnabled--
	}
}

func (e *deferEvent) Free() {
	if e.dead {
		return
	}
	e.Enable(false)
	e.dead = true
	e.m.garbage = true
}

type timeEvent struct {
	m       *Mainloop
	cb      TimeFunc
	when    time.Time
	enabled bool
	dead    bool
}

func (e *timeEvent) Restart(when time.Time) {
	if e.dead {
		if e.m.closed.Load() {
			return
		}
		panic("mainloop: restart of freed time event")
	}
	e.when = when
	e.enabled = !when.IsZero()
}

func (e *timeEvent) Free() {
	if e.dead {
		return
	}
	e.dead = true
	e.m.garbage = true
}
