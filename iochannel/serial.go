package iochannel

import (
	"fmt"

	"github.com/somdoron/pulseaudio/mainloop"
	"golang.org/x/sys/unix"
)

// SerialConfig holds configuration parameters for opening a serial device.
type SerialConfig struct {
	Device   string
	BaudRate int
}

// OpenSerial opens a serial device (or pty slave) and returns a Channel
// wrapping it. The port is configured for raw, low-latency, non-buffered
// operation, and stays in non-blocking mode.
func OpenSerial(api mainloop.API, cfg SerialConfig) (*Channel, error) {
	fd, err := unix.Open(cfg.Device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0666)
	if err != nil {
		return nil, fmt.Errorf("open failed: %w", err)
	}

	if err := makeRaw(fd, cfg.BaudRate); err != nil {
		unix.Close(fd)
		return nil, err
	}

	c, err := New(api, fd, fd)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	return c, nil
}

func makeRaw(fd int, baudRate int) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}

	// Raw mode
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8

	// Baud rate
	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= baudToUnix(baudRate)

	// VMIN=1, VTIME=0 so a readable fd always yields data
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	return nil
}

func baudToUnix(baud int) uint32 {
	switch baud {
	case 9600:
		return unix.B9600
	case 19200:
		return unix.B19200
	case 38400:
		return unix.B38400
	case 57600:
		return unix.B57600
	case 115200:
		return unix.B115200
	case 230400:
		return unix.B230400
	default:
		return unix.B115200 // fallback
	}
}
