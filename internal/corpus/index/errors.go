package index

import "errors"

// ErrVectorLengthMismatch indicates two vectors have different dimensions.
var ErrVectorLengthMismatch = errors.New("vector length mismatch")

// ErrLocked is returned when another process holds the index build lock past
// the wait timeout.
var ErrLocked = errors.New("another index build is in progress")
