package ioline

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/joeycumines/logiface"
	"github.com/somdoron/pulseaudio/mainloop"
)

const (
	// BufferLimit is the default hard limit for both the inbound and the
	// outbound buffer.
	BufferLimit = 64 * 1024

	// ReadSize is the default minimum room made available before each read.
	ReadSize = 1024
)

// ErrClosed is returned by Write, and reported by Err, once a Line was closed
// by its owner.
var ErrClosed = errors.New("ioline: closed")

// Transport is a non-blocking byte stream registered with a dispatcher.
// *iochannel.Channel implements it.
type Transport interface {
	// Read performs a single read. io.EOF, or (0, nil), means the peer shut
	// down in an orderly fashion.
	Read(p []byte) (int, error)
	// Write performs a single write.
	Write(p []byte) (int, error)
	IsReadable() bool
	IsWritable() bool
	// SetCallback sets the single readiness callback, nil clears it.
	SetCallback(fn func())
	// API returns the dispatcher the transport is registered with.
	API() mainloop.API
	Close() error
}

// Config tunes a Line. The zero value is valid.
type Config struct {
	// Delimiter terminates lines, defaults to '\n'.
	Delimiter byte

	// BufferLimit bounds each buffer, defaults to BufferLimit.
	BufferLimit int

	// ReadSize is the room ensured before each read, defaults to ReadSize.
	ReadSize int

	// Logger receives transport errors. Nil disables logging.
	Logger *logiface.Logger[logiface.Event]
}

func (c Config) withDefaults() Config {
	if c.Delimiter == 0 {
		c.Delimiter = '\n'
	}
	if c.BufferLimit <= 0 {
		c.BufferLimit = BufferLimit
	}
	if c.ReadSize <= 0 {
		c.ReadSize = ReadSize
	}
	if c.ReadSize > c.BufferLimit {
		c.ReadSize = c.BufferLimit
	}
	return c
}

// Event is delivered to a Handler, either for a line or for termination.
type Event struct {
	// Text is the line, without the delimiter. It aliases the inbound buffer
	// and is only valid for the duration of the call.
	Text []byte

	// Closed marks the terminal notification, delivered at most once. Text is
	// nil.
	Closed bool

	// Err is set on the terminal notification: nil after DeferClose, io.EOF
	// when the peer shut down, otherwise the transport error.
	Err error
}

// Handler receives the lines read by a Line.
type Handler interface {
	HandleLine(l *Line, ev Event)
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(l *Line, ev Event)

func (f HandlerFunc) HandleLine(l *Line, ev Event) { f(l, ev) }

// Stats counts the traffic of a Line, including data discarded by the
// buffer limits.
type Stats struct {
	BytesRead         uint64
	BytesWritten      uint64
	Lines             uint64
	InboundDropped    uint64
	OutboundTruncated uint64
}

// Line frames a Transport into delimiter terminated lines. It must only be
// used from the goroutine running the dispatcher.
type Line struct {
	transport Transport
	deferred  mainloop.DeferEvent
	api       mainloop.API
	handler   Handler
	cfg       Config

	refs       int
	dead       bool
	deferClose bool
	err        error

	wbuf  buffer
	rbuf  buffer
	stats Stats
}

// New wraps t with the default Config. See NewWithConfig.
func New(t Transport) *Line {
	return NewWithConfig(t, Config{})
}

// NewWithConfig takes ownership of t, registering as its readiness callback.
// The returned Line holds one reference.
func NewWithConfig(t Transport, cfg Config) *Line {
	cfg = cfg.withDefaults()
	l := &Line{
		transport: t,
		api:       t.API(),
		cfg:       cfg,
		refs:      1,
		wbuf:      newBuffer(cfg.BufferLimit),
		rbuf:      newBuffer(cfg.BufferLimit),
	}
	l.deferred = l.api.DeferNew(func(mainloop.DeferEvent) { l.doWork() })
	l.deferred.Enable(false)
	t.SetCallback(l.doWork)
	return l
}

func (l *Line) assertRef() {
	if l.refs < 1 {
		panic("ioline: line used after release")
	}
}

// Ref takes an additional reference.
func (l *Line) Ref() *Line {
	l.assertRef()
	l.refs++
	return l
}

// Unref drops a reference. Releasing the last one closes the transport
// without notifying the handler.
func (l *Line) Unref() {
	l.assertRef()
	l.refs--
	if l.refs == 0 {
		l.free()
	}
}

// Close terminates the line immediately, discarding pending output. The
// handler is cleared without a terminal notification. Close is idempotent.
func (l *Line) Close() {
	l.assertRef()
	l.close()
}

// DeferClose terminates the line once all pending output was written.
func (l *Line) DeferClose() {
	l.assertRef()
	l.deferClose = true
	if l.wbuf.length == 0 && l.deferred != nil {
		l.deferred.Enable(true)
	}
}

// SetHandler replaces the handler, nil clears it.
func (l *Line) SetHandler(h Handler) {
	l.assertRef()
	l.handler = h
}

// Puts queues s for writing. No delimiter is appended. Data beyond the
// buffer limit is silently dropped, see Stats. Puts on a dead line is a no-op.
func (l *Line) Puts(s string) {
	l.assertRef()
	l.enqueue([]byte(s))
}

// Printf formats and queues the result, as Puts.
func (l *Line) Printf(format string, args ...any) {
	l.Puts(fmt.Sprintf(format, args...))
}

// Write queues p, implementing io.Writer. Unlike Puts it reports truncation
// as io.ErrShortWrite, and a dead line as ErrClosed.
func (l *Line) Write(p []byte) (int, error) {
	l.assertRef()
	if l.dead {
		return 0, ErrClosed
	}
	n := l.enqueue(p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Err returns why the line terminated, or nil while it is alive.
func (l *Line) Err() error { return l.err }

// Dead reports whether the line terminated.
func (l *Line) Dead() bool { return l.dead }

// Stats returns a snapshot of the traffic counters.
func (l *Line) Stats() Stats { return l.stats }

func (l *Line) enqueue(p []byte) int {
	if l.dead || len(p) == 0 {
		return 0
	}
	n := l.wbuf.append(p)
	l.stats.OutboundTruncated += uint64(len(p) - n)
	if n > 0 {
		l.deferred.Enable(true)
	}
	return n
}

func (l *Line) doWork() {
	l.Ref()
	defer l.Unref()

	if l.deferred != nil {
		l.deferred.Enable(false)
	}
	if !l.dead {
		l.doRead()
	}
	if !l.dead {
		l.doWrite()
	}
	if !l.dead && l.deferClose && l.wbuf.length == 0 {
		l.failure(true, nil)
	}
}

func (l *Line) doRead() {
	for !l.dead && l.transport.IsReadable() {
		room := l.rbuf.ensureRoom(l.cfg.ReadSize)

		n, err := l.transport.Read(room)
		if n > 0 {
			l.stats.BytesRead += uint64(n)
			skip := l.rbuf.length
			l.rbuf.extend(n)
			l.scan(skip)
		}
		if l.dead {
			return
		}

		switch {
		case err == nil && n > 0:
			continue
		case err == nil, errors.Is(err, io.EOF):
			l.failure(true, io.EOF)
		default:
			l.cfg.Logger.Err().
				Err(err).
				Log("ioline: read failed")
			l.failure(false, fmt.Errorf("ioline: read: %w", err))
		}
		return
	}
}

// scan delivers every complete line in the inbound buffer. The first skip
// bytes are known to contain no delimiter.
func (l *Line) scan(skip int) {
	for !l.dead && l.rbuf.length > skip {
		valid := l.rbuf.bytes()
		i := bytes.IndexByte(valid[skip:], l.cfg.Delimiter)
		if i < 0 {
			break
		}
		end := skip + i
		text := valid[:end:end]
		l.rbuf.consume(end + 1)
		l.stats.Lines++
		l.deliver(Event{Text: text})
		skip = 0
	}

	// no delimiter within the limit, drop everything
	if l.rbuf.length >= l.rbuf.limit {
		l.stats.InboundDropped += uint64(l.rbuf.length)
		l.rbuf.reset()
	}
}

func (l *Line) doWrite() {
	for !l.dead && l.transport.IsWritable() && l.wbuf.length > 0 {
		n, err := l.transport.Write(l.wbuf.bytes())
		if n > 0 {
			l.stats.BytesWritten += uint64(n)
			l.wbuf.consume(n)
		}
		if err == nil && n <= 0 {
			err = io.ErrShortWrite
		}
		if err != nil {
			l.cfg.Logger.Err().
				Err(err).
				Int("pending", l.wbuf.length).
				Log("ioline: write failed")
			l.failure(false, fmt.Errorf("ioline: write: %w", err))
			return
		}
	}
}

func (l *Line) deliver(ev Event) {
	if l.handler != nil {
		l.handler.HandleLine(l, ev)
	}
}

// failure is the single termination path for transport errors, peer
// shutdown and deferred close.
func (l *Line) failure(flushTrailing bool, cause error) {
	if l.err == nil {
		l.err = cause
	}

	if flushTrailing && l.rbuf.length > 0 && l.handler != nil {
		text := bytes.Clone(l.rbuf.bytes())
		l.rbuf.reset()
		l.stats.Lines++
		l.deliver(Event{Text: text})
	}

	if l.handler != nil {
		l.deliver(Event{Closed: true, Err: cause})
		l.handler = nil
	}

	l.close()
}

func (l *Line) close() {
	l.dead = true
	if l.err == nil {
		l.err = ErrClosed
	}

	if l.transport != nil {
		l.transport.SetCallback(nil)
		if err := l.transport.Close(); err != nil {
			l.cfg.Logger.Debug().
				Err(err).
				Log("ioline: transport close failed")
		}
		l.transport = nil
	}

	if l.deferred != nil {
		l.deferred.Free()
		l.deferred = nil
	}

	l.handler = nil
}

func (l *Line) free() {
	l.close()
	l.wbuf = buffer{}
	l.rbuf = buffer{}
}
