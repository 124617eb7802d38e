package store

// Store holds the named values served by a node. Failures caused by the state
// of a key are *Error values, checked with IsKind.
type Store interface {
	// Get returns the value stored under name.
	Get(name string) ([]byte, error)

	// Put stores a new value. It fails with KeyAlreadyExists if name is
	// taken.
	Put(name string, data []byte) error

	// Post replaces an existing value. It fails with KeyNotFound if name is
	// not in the store.
	Post(name string, data []byte) error

	// Delete removes a value. It fails with KeyNotFound if name is not in the
	// store.
	Delete(name string) error

	// Len returns the number of values in the store.
	Len() (int, error)

	Close() error
}
