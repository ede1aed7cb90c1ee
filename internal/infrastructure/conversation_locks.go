package infrastructure

import "sync"

// addressLock is the per-conversation critical section state.
type addressLock struct {
	mu   sync.Mutex
	refs int
}

// ConversationLocks serializes work per normalized address. Two concurrent
// webhook deliveries for the same counterparty must not both observe "no
// prior contact", so the snapshot-classify-append step runs under this lock.
// Entries are dropped as soon as nothing holds or waits on them.
type ConversationLocks struct {
	mu    sync.Mutex
	locks map[string]*addressLock
}

func NewConversationLocks() *ConversationLocks {
	return &ConversationLocks{
		locks: make(map[string]*addressLock),
	}
}

// Lock acquires the critical section for the address and returns the matching
// unlock function. An empty address gets a no-op lock.
func (c *ConversationLocks) Lock(address string) func() {
	if address == "" {
		return func() {}
	}

	c.mu.Lock()
	l, exists := c.locks[address]
	if !exists {
		l = &addressLock{}
		c.locks[address] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, address)
		}
		c.mu.Unlock()
	}
}
