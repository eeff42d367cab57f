package ioline

import (
	"slices"
	"time"

	"github.com/somdoron/pulseaudio/mainloop"
)

// fakeAPI is a dispatcher that only supports deferred events, dispatched by
// the test.
type fakeAPI struct {
	defers []*fakeDefer
}

type fakeDefer struct {
	cb      mainloop.DeferFunc
	enabled bool
	freed   bool
}

func (d *fakeDefer) Enable(b bool) {
	if d.freed {
		panic("enable of freed defer event")
	}
	d.enabled = b
}

func (d *fakeDefer) Free() { d.freed = true }

func (a *fakeAPI) IONew(int, mainloop.IOEvents, mainloop.IOFunc) mainloop.IOEvent {
	panic("not supported")
}

func (a *fakeAPI) DeferNew(cb mainloop.DeferFunc) mainloop.DeferEvent {
	d := &fakeDefer{cb: cb, enabled: true}
	a.defers = append(a.defers, d)
	return d
}

func (a *fakeAPI) TimeNew(time.Time, mainloop.TimeFunc) mainloop.TimeEvent {
	panic("not supported")
}

func (a *fakeAPI) Quit(int) {}

// pending reports the number of enabled deferred events.
func (a *fakeAPI) pending() (n int) {
	for _, d := range a.defers {
		if d.enabled && !d.freed {
			n++
		}
	}
	return
}

// dispatch runs one turn of deferred events, returning how many ran.
func (a *fakeAPI) dispatch() (n int) {
	for _, d := range slices.Clone(a.defers) {
		if d.enabled && !d.freed {
			n++
			d.cb(d)
		}
	}
	return
}

type readResult struct {
	data []byte
	err  error
}

// fakeTransport serves queued reads, and records writes.
type fakeTransport struct {
	api      *fakeAPI
	reads    []readResult
	written  []byte
	writable bool
	maxWrite int
	writeErr error
	zeroLen  bool
	callback func()
	closed   int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{api: &fakeAPI{}, writable: true}
}

func (t *fakeTransport) Read(p []byte) (int, error) {
	r := t.reads[0]
	if len(r.data) == 0 {
		t.reads = t.reads[1:]
		return 0, r.err
	}
	n := copy(p, r.data)
	if n < len(r.data) {
		t.reads[0].data = r.data[n:]
	} else {
		t.reads = t.reads[1:]
	}
	return n, nil
}

func (t *fakeTransport) Write(p []byte) (int, error) {
	if t.writeErr != nil {
		return 0, t.writeErr
	}
	if t.zeroLen {
		return 0, nil
	}
	if t.maxWrite > 0 && len(p) > t.maxWrite {
		p = p[:t.maxWrite]
	}
	t.written = append(t.written, p...)
	return len(p), nil
}

func (t *fakeTransport) IsReadable() bool { return len(t.reads) > 0 }

func (t *fakeTransport) IsWritable() bool { return t.writable }

func (t *fakeTransport) SetCallback(fn func()) { t.callback = fn }

func (t *fakeTransport) API() mainloop.API { return t.api }

func (t *fakeTransport) Close() error {
	t.closed++
	return nil
}

// feed queues chunks as separate reads, and signals readiness.
func (t *fakeTransport) feed(chunks ...string) {
	for _, c := range chunks {
		t.reads = append(t.reads, readResult{data: []byte(c)})
	}
	t.fire()
}

func (t *fakeTransport) fire() {
	if t.callback != nil {
		t.callback()
	}
}

// recorder collects delivered events, copying the text.
type recorder struct {
	lines  []string
	closed []error
	hook   func(l *Line, ev Event)
}

func (r *recorder) HandleLine(l *Line, ev Event) {
	if ev.Closed {
		r.closed = append(r.closed, ev.Err)
	} else {
		r.lines = append(r.lines, string(ev.Text))
	}
	if r.hook != nil {
		r.hook(l, ev)
	}
}
