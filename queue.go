package framebridge

import (
	"sync"
	"sync/atomic"
)

const DefaultQueueCapacity = 10

// FrameQueue is a fixed-capacity conduit between the pipeline callback thread
// and the consumer. The producer side never blocks: when the queue is full,
// the incoming frame is discarded (drop-newest). Frames that are not dropped
// reach the consumer in arrival order.
type FrameQueue struct {
	frames chan *Frame

	lock   sync.Mutex
	closed bool

	pushed  atomic.Uint64
	dropped atomic.Uint64
}

// QueueStats is a snapshot of queue counters.
type QueueStats struct {
	Pushed  uint64
	Dropped uint64
}

func NewFrameQueue(capacity int) *FrameQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &FrameQueue{
		frames: make(chan *Frame, capacity),
	}
}

// TryPush enqueues frame without blocking. It returns false when the frame
// was discarded, either because the queue is at capacity or because it has
// been closed. A full queue is an expected backpressure outcome, not an
// error: blocking here would stall the decode thread.
func (q *FrameQueue) TryPush(frame *Frame) bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.closed {
		q.dropped.Add(1)
		return false
	}
	// pushes are serialized by the lock, so the next sequence number can be
	// stamped before the frame becomes visible to the consumer
	frame.Seq = q.pushed.Load() + 1
	select {
	case q.frames <- frame:
		q.pushed.Add(1)
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Pop blocks until a frame is available or the queue has been closed and
// drained, in which case it returns (nil, false).
func (q *FrameQueue) Pop() (*Frame, bool) {
	frame, ok := <-q.frames
	return frame, ok
}

// Close marks the queue as permanently closed and wakes any blocked Pop.
// Frames already buffered remain retrievable. Close is idempotent.
func (q *FrameQueue) Close() {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.frames)
}

func (q *FrameQueue) Len() int {
	return len(q.frames)
}

func (q *FrameQueue) Stats() QueueStats {
	return QueueStats{
		Pushed:  q.pushed.Load(),
		Dropped: q.dropped.Load(),
	}
}
