// Package admission bounds the total number of bytes promised to in-flight
// uploads. A reservation is granted only if it fits in the remaining capacity;
// check and reserve happen in one critical section.
package admission

import (
	"fmt"
	"sync"
)

// Controller tracks reserved bytes against a fixed capacity.
type Controller struct {
	mu       sync.Mutex
	capacity int64
	reserved int64
}

// New returns a Controller with the given capacity in bytes.
func New(capacity int64) *Controller {
	return &Controller{capacity: capacity}
}

// TryReserve reserves size bytes if reserved+size does not exceed capacity.
// Negative sizes are never granted.
func (c *Controller) TryReserve(size int64) bool {
	if size < 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reserved+size > c.capacity {
		return false
	}
	c.reserved += size
	return true
}

// Release returns size bytes to the pool. Callers release exactly what they
// reserved, once. Releasing more than is reserved is a bug and panics.
func (c *Controller) Release(size int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if size < 0 || size > c.reserved {
		panic(fmt.Sprintf("admission: release of %d with %d reserved", size, c.reserved))
	}
	c.reserved -= size
}

// Reserved returns the number of bytes currently reserved.
func (c *Controller) Reserved() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reserved
}

// Capacity returns the configured capacity.
func (c *Controller) Capacity() int64 {
	return c.capacity
}
