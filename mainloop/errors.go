package mainloop

import "errors"

var (
	ErrClosed = errors.New("mainloop: closed")
)
