package store

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the failures a Store reports about its keys.
type ErrorKind uint8

const (
	// KeyNotFound is returned by Get, Post and Delete on a missing key.
	KeyNotFound ErrorKind = iota
	// KeyAlreadyExists is returned by Put on a taken key.
	KeyAlreadyExists
	// Closed is returned by any operation after Close.
	Closed
)

func (k ErrorKind) String() string {
	switch k {
	case KeyNotFound:
		return "key not found"
	case KeyAlreadyExists:
		return "key already exists"
	case Closed:
		return "store closed"
	default:
		return "unknown"
	}
}

// Error is a failed Store operation on a key.
type Error struct {
	Op   string
	Key  string
	Kind ErrorKind
}

func newError(op, key string, kind ErrorKind) *Error {
	return &Error{Op: op, Key: key, Kind: kind}
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s %q: %s", e.Op, e.Key, e.Kind)
}

// IsKind reports whether err is, or wraps, a store Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var storeErr *Error
	return errors.As(err, &storeErr) && storeErr.Kind == kind
}
