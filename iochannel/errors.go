package iochannel

import "errors"

var (
	ErrClosed      = errors.New("iochannel: closed")
	ErrNotReadable = errors.New("iochannel: no input fd")
	ErrNotWritable = errors.New("iochannel: no output fd")
)
