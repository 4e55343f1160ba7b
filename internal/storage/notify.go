package storage

import "sync"

// notifier fans a payload-free change signal out to subscribers.
// Callbacks run on the writer's goroutine, outside the lock, in
// subscription order.
type notifier struct {
	mu   sync.Mutex
	next int
	subs []subscriber
}

type subscriber struct {
	id int
	fn func()
}

func (n *notifier) subscribe(fn func()) func() {
	n.mu.Lock()
	n.next++
	id := n.next
	n.subs = append(n.subs, subscriber{id: id, fn: fn})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(id) })
	}
}

func (n *notifier) remove(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, s := range n.subs {
		if s.id == id {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return
		}
	}
}

func (n *notifier) notify() {
	n.mu.Lock()
	fns := make([]func(), len(n.subs))
	for i, s := range n.subs {
		fns[i] = s.fn
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (n *notifier) len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
