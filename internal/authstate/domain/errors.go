package domain

import "fmt"

// StoreError reports an I/O failure against the auth blob store.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("auth store %s failed for key %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// DeserializationError reports a corrupt stored blob. This is a
// data-integrity signal and must never be conflated with a cache miss.
type DeserializationError struct {
	Key string
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("corrupt auth blob for key %q: %v", e.Key, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }
