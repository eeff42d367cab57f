// Package pulsecore holds the server core: sample specs, modules, sources and
// the record streams attached to them.
//
// Everything in this package runs on the mainloop goroutine. Modules are
// registered at init time with RegisterModule, and instantiated by name with
// Core.LoadModule, using PulseAudio style "key=value" arguments (see
// ParseModargs).
package pulsecore
