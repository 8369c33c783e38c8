package pacer

import "errors"

var (
	// ErrAborted fails an operation whose cancellation context was canceled
	// before it was admitted.
	ErrAborted = errors.New("pacer: operation aborted before admission")

	// ErrQueueCleared fails operations removed by ClearQueue(true).
	ErrQueueCleared = errors.New("pacer: queue cleared")

	// ErrQueueFull fails a submission made while the queue is at MaxQueue.
	ErrQueueFull = errors.New("pacer: queue full")
)
