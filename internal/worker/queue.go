package worker

import "sync"

// queue is an unbounded multi-producer queue. Pushes never block; the single
// consumer waits on a wake signal.
type queue[T any] struct {
	mutex sync.Mutex
	items []T
	wake  chan struct{}
}

func newQueue[T any]() *queue[T] {
	return &queue[T]{wake: make(chan struct{}, 1)}
}

func (pendingQueue *queue[T]) push(item T) {
	pendingQueue.mutex.Lock()
	pendingQueue.items = append(pendingQueue.items, item)
	pendingQueue.mutex.Unlock()
	select {
	case pendingQueue.wake <- struct{}{}:
	default:
	}
}

// tryPop removes the oldest item without blocking.
func (pendingQueue *queue[T]) tryPop() (T, bool) {
	pendingQueue.mutex.Lock()
	defer pendingQueue.mutex.Unlock()
	var zero T
	if len(pendingQueue.items) == 0 {
		return zero, false
	}
	item := pendingQueue.items[0]
	pendingQueue.items[0] = zero
	pendingQueue.items = pendingQueue.items[1:]
	return item, true
}

// pop blocks until an item is available or stop is closed. A closed stop wins
// over queued items.
func (pendingQueue *queue[T]) pop(stop <-chan struct{}) (T, bool) {
	for {
		select {
		case <-stop:
			var zero T
			return zero, false
		default:
		}
		if item, popped := pendingQueue.tryPop(); popped {
			return item, true
		}
		select {
		case <-stop:
			var zero T
			return zero, false
		case <-pendingQueue.wake:
		}
	}
}
