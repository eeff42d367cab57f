// Package iochannel adapts already-open, Linux file descriptors (pipes,
// sockets, ptys, serial ports) into non-blocking byte transports driven by a
// mainloop.
//
// Features:
//   - Raw syscall-based, non-blocking I/O, one read(2) or write(2) per call
//   - Readiness tracking from poll(2), with a single readiness callback
//   - Hang-up detection, reported as a final readable state (EOF or error)
//   - Serial/tty setup in raw mode (termios), see OpenSerial
//   - PTY-based tests for reliability
//
// The package does not create, listen on or connect sockets: callers hand it
// fds they already own.
//
// Example usage:
//
//	m, _ := mainloop.New()
//	ch, err := iochannel.OpenSerial(m, iochannel.SerialConfig{
//	    Device:   "/dev/ttyUSB0",
//	    BaudRate: 115200,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ch.Close()
//
//	ch.SetCallback(func() {
//	    if ch.IsReadable() {
//	        n, err := ch.Read(buf)
//	        // ...
//	    }
//	})
//
// This package does **not** support Windows.
package iochannel
