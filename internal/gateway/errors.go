package gateway

import "fmt"

// ConnectionError means the gateway handshake failed. It is fatal: the
// session aborts before any submission.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to gateway at %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// SubmissionError means the gateway refused or failed a single order
// placement. It is isolated to that order and never aborts the batch.
type SubmissionError struct {
	Symbol string
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("order submission failed for %s: %v", e.Symbol, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
