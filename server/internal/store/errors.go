package store

import (
	"errors"
	"fmt"
)

// ErrNotFound matches every *NotFoundError through errors.Is.
var ErrNotFound = errors.New("store: record not found")

// NotFoundError reports an update or delete against an id with no live record.
type NotFoundError struct {
	Op string // "update" or "delete"
	ID uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cannot %s, no data with id %d", e.Op, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) hold for any *NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
