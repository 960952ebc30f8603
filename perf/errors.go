package perf

import "errors"

// ErrUnknownComponent is returned for unrecognized component names.
var ErrUnknownComponent = errors.New("unknown component")
