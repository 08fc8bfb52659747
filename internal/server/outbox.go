package server

import "sync"

// Outbox is the unbounded outbound queue between a session and the client
// write pump. It grows instead of dropping, so the init-plus-ticker burst
// around a watch-list change is never lost on a slow connection.
type Outbox struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      [][]byte
	head     int
	tail     int
	count    int
	capacity int
	closed   bool
}

// NewOutbox creates an outbox with the given initial capacity.
func NewOutbox(initialCapacity int) *Outbox {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	o := &Outbox{
		buf:      make([][]byte, initialCapacity),
		capacity: initialCapacity,
	}
	o.cond = sync.NewCond(&o.mu)
	return o
}

// Send enqueues a message, growing the queue when full.
// Returns false once the outbox is closed.
func (o *Outbox) Send(msg []byte) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return false
	}

	if o.count == o.capacity {
		o.grow()
	}

	o.buf[o.tail] = msg
	o.tail = (o.tail + 1) % o.capacity
	o.count++

	o.cond.Signal()
	return true
}

// Receive blocks until a message is available or the outbox is closed.
// After Close, remaining messages are still delivered before the closed
// signal.
func (o *Outbox) Receive() ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for o.count == 0 && !o.closed {
		o.cond.Wait()
	}

	if o.count == 0 {
		return nil, false
	}

	msg := o.buf[o.head]
	o.buf[o.head] = nil
	o.head = (o.head + 1) % o.capacity
	o.count--

	return msg, true
}

// Close marks the outbox closed and wakes all waiting receivers.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.closed = true
	o.cond.Broadcast()
}

// Len returns the number of queued messages.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.count
}

// grow doubles capacity. Caller holds the lock.
func (o *Outbox) grow() {
	newBuf := make([][]byte, o.capacity*2)

	if o.count > 0 {
		if o.head < o.tail {
			copy(newBuf, o.buf[o.head:o.tail])
		} else {
			n := copy(newBuf, o.buf[o.head:])
			copy(newBuf[n:], o.buf[:o.tail])
		}
	}

	o.buf = newBuf
	o.head = 0
	o.tail = o.count
	o.capacity = len(newBuf)
}
