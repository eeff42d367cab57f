package iochannel

import (
	"fmt"
	"io"

	"github.com/somdoron/pulseaudio/mainloop"
	"golang.org/x/sys/unix"
)

// Channel adapts an already-open pair of fds (which may be the same fd, e.g.
// a socket or tty) into a non-blocking byte transport driven by a mainloop.
//
// Readiness is edge-like: a Read or Write consumes the readable or writable
// state, and re-arms the io event, so the callback fires again once the fd is
// ready. A Channel must only be used from the goroutine running its mainloop.
type Channel struct {
	api      mainloop.API
	input    mainloop.IOEvent
	output   mainloop.IOEvent
	callback func()

	ifd int
	ofd int

	readable bool
	writable bool
	hungup   bool
	noClose  bool
	closed   bool
}

// New wraps ifd (for reading) and ofd (for writing), either of which may be
// -1. Both are switched to non-blocking mode. Ownership of the fds passes to
// the Channel, see also SetNoClose.
func New(api mainloop.API, ifd, ofd int) (*Channel, error) {
	if ifd < 0 && ofd < 0 {
		return nil, fmt.Errorf("iochannel: no fd given")
	}
	for _, fd := range [...]int{ifd, ofd} {
		if fd < 0 {
			continue
		}
		if err := unix.SetNonblock(fd, true); err != nil {
			return nil, fmt.Errorf("set nonblock: %w", err)
		}
	}

	c := &Channel{
		api: api,
		ifd: ifd,
		ofd: ofd,
	}

	if ifd == ofd {
		c.input = api.IONew(ifd, mainloop.IORead|mainloop.IOWrite, c.ioCallback)
		c.output = c.input
	} else {
		if ifd >= 0 {
			c.input = api.IONew(ifd, mainloop.IORead, c.ioCallback)
		}
		if ofd >= 0 {
			c.output = api.IONew(ofd, mainloop.IOWrite, c.ioCallback)
		}
	}

	return c, nil
}

// API returns the dispatcher the channel is registered with.
func (c *Channel) API() mainloop.API { return c.api }

// SetCallback sets the single readiness callback, nil clears it.
func (c *Channel) SetCallback(fn func()) { c.callback = fn }

// SetNoClose prevents Close from closing the underlying fds.
func (c *Channel) SetNoClose(b bool) { c.noClose = b }

// IsReadable reports whether a Read may make progress. After a hang-up this
// stays true, so the reader observes EOF or the pending error.
func (c *Channel) IsReadable() bool { return c.readable || c.hungup }

// IsWritable reports whether a Write may make progress.
func (c *Channel) IsWritable() bool { return c.writable && !c.hungup }

// IsHungup reports whether the peer hung up, or the fd reported an error.
func (c *Channel) IsHungup() bool { return c.hungup }

// Read performs a single read(2). A zero length read is reported as io.EOF.
func (c *Channel) Read(p []byte) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	if c.ifd < 0 {
		return 0, ErrNotReadable
	}

	n, err := unix.Read(c.ifd, p)
	c.readable = false
	c.enableEvents()

	if err != nil {
		return 0, err
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write performs a single write(2).
func (c *Channel) Write(p []byte) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	if c.ofd < 0 {
		return 0, ErrNotWritable
	}

	n, err := unix.Write(c.ofd, p)
	c.writable = false
	c.enableEvents()

	if err != nil {
		return 0, err
	}
	return n, nil
}

// Close frees the io events, and closes the fds unless SetNoClose was used.
// Safe to call multiple times; subsequent calls are no-ops.
func (c *Channel) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.callback = nil

	if c.input != nil {
		c.input.Free()
	}
	if c.output != nil && c.output != c.input {
		c.output.Free()
	}
	c.input, c.output = nil, nil

	if c.noClose {
		return nil
	}

	var err error
	if c.ifd >= 0 {
		err = unix.Close(c.ifd)
	}
	if c.ofd >= 0 && c.ofd != c.ifd {
		if err2 := unix.Close(c.ofd); err == nil {
			err = err2
		}
	}
	return err
}

func (c *Channel) enableEvents() {
	if c.closed {
		return
	}
	if c.input != nil && c.input == c.output {
		var events mainloop.IOEvents
		if !c.readable {
			events |= mainloop.IORead
		}
		if !c.writable {
			events |= mainloop.IOWrite
		}
		c.input.Enable(events)
		return
	}
	if c.input != nil {
		if c.readable {
			c.input.Enable(mainloop.IONull)
		} else {
			c.input.Enable(mainloop.IORead)
		}
	}
	if c.output != nil {
		if c.writable {
			c.output.Enable(mainloop.IONull)
		} else {
			c.output.Enable(mainloop.IOWrite)
		}
	}
}

func (c *Channel) ioCallback(e mainloop.IOEvent, fd int, events mainloop.IOEvents) {
	var changed bool

	if events&(mainloop.IOHangup|mainloop.IOError) != 0 && !c.hungup {
		c.hungup = true
		changed = true

		// stop watching, a hung up fd stays ready forever
		if e == c.input {
			e.Free()
			if c.output == c.input {
				c.output = nil
			}
			c.input = nil
		} else if e == c.output {
			e.Free()
			c.output = nil
		}
	} else {
		if events&mainloop.IORead != 0 && !c.readable {
			c.readable = true
			changed = true
		}
		if events&mainloop.IOWrite != 0 && !c.writable {
			c.writable = true
			changed = true
		}
	}

	if changed {
		c.enableEvents()
		if c.callback != nil {
			c.callback()
		}
	}
}
