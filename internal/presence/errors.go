package presence

import "errors"

var (
	// ErrDuplicateConnection means a connect was delivered twice for the
	// same connection id without a disconnect in between.
	ErrDuplicateConnection = errors.New("connection id already registered")

	// ErrUnknownConnection means the connection id is not tracked, e.g. a
	// redelivered disconnect or a connect that never completed.
	ErrUnknownConnection = errors.New("connection id not tracked")
)
