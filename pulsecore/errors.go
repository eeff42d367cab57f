package pulsecore

import "errors"

var (
	ErrModuleNotFound    = errors.New("pulsecore: module not found")
	ErrModuleInitFailed  = errors.New("pulsecore: module initialization failed")
	ErrInvalidSampleSpec = errors.New("pulsecore: invalid sample spec")
	ErrIncompatibleSpec  = errors.New("pulsecore: incompatible sample spec")
	ErrInvalidModargs    = errors.New("pulsecore: invalid module arguments")
	ErrNameExists        = errors.New("pulsecore: name already registered")
	ErrSourceNotFound    = errors.New("pulsecore: source not found")
)
