package pkg

import "sync"

// Exclusive owns a value that is touched from more than one execution
// context (timer tick, serial receive, USB poll). The value is reachable
// only inside a critical section, so no context can keep a reference past
// the lock.
//
// Critical sections must be short and must not block on I/O.
type Exclusive[T any] struct {
	mutex sync.Mutex
	value T
}

// NewExclusive wraps value for exclusive access.
func NewExclusive[T any](value T) *Exclusive[T] {
	return &Exclusive[T]{value: value}
}

// Lock runs fn with exclusive access to the wrapped value.
func (e *Exclusive[T]) Lock(fn func(v *T)) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	fn(&e.value)
}
