// Package notifier provides a simple broadcast mechanism for SSE updates.
package notifier

import "sync"

// Notifier pings update listeners. Listeners subscribe under a key (the
// session id) so a background change to one session only wakes that
// session's streams. Listeners receive an empty struct and should re-read
// their state.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[string]map[chan struct{}]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[string]map[chan struct{}]struct{}),
	}
}

// Subscribe returns a channel that receives pings for key.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe(key string) chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	set := n.listeners[key]
	if set == nil {
		set = make(map[chan struct{}]struct{})
		n.listeners[key] = set
	}
	set[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(key string, ch chan struct{}) {
	n.mu.Lock()
	if set := n.listeners[key]; set != nil {
		delete(set, ch)
		if len(set) == 0 {
			delete(n.listeners, key)
		}
	}
	n.mu.Unlock()
	close(ch)
}

// Len returns the number of subscribed channels.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	total := 0
	for _, set := range n.listeners {
		total += len(set)
	}
	return total
}

// Notify pings every listener of key.
func (n *Notifier) Notify(key string) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	ping(n.listeners[key])
}

// Broadcast sends a ping to all listeners.
func (n *Notifier) Broadcast() {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, set := range n.listeners {
		ping(set)
	}
}

// ping is non-blocking: if a listener's channel is full, the ping is skipped.
func ping(set map[chan struct{}]struct{}) {
	for ch := range set {
		select {
		case ch <- struct{}{}:
		default:
			// Channel full, listener will catch up on the pending ping
		}
	}
}
