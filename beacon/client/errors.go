package client

import "errors"

// ErrNoBlock names the condition of a slot's block being absent: the beacon
// node returned 404 on every retry attempt. GetBlock does not return it; it
// reports that condition through its found result instead.
var ErrNoBlock = errors.New("beacon: no block at slot")

// TransportError wraps any non-404 HTTP failure or network error
// encountered after the retry budget is exhausted.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "beacon: " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
