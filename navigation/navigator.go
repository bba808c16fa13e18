package navigation

import (
	"sync"
	"time"
)

// Navigator performs a navigation. Implementations must be safe for
// concurrent use.
type Navigator interface {
	Navigate(intent Intent)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Intent)

func (f NavigatorFunc) Navigate(intent Intent) {
	f(intent)
}

// Dispatcher honours Intent.After by deferring delivery to the wrapped
// Navigator with time.AfterFunc. Pending deliveries are cancelled by Stop.
type Dispatcher struct {
	next Navigator

	mu      sync.Mutex
	timers  map[*time.Timer]struct{}
	stopped bool
}

// NewDispatcher wraps next.
func NewDispatcher(next Navigator) *Dispatcher {
	return &Dispatcher{
		next:   next,
		timers: make(map[*time.Timer]struct{}),
	}
}

// Navigate delivers intent now or after its delay. Empty intents are ignored.
func (d *Dispatcher) Navigate(intent Intent) {
	if intent.IsZero() || d.next == nil {
		return
	}

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if intent.After <= 0 {
		d.mu.Unlock()
		d.next.Navigate(intent)
		return
	}
	defer d.mu.Unlock()

	var t *time.Timer
	t = time.AfterFunc(intent.After, func() {
		d.mu.Lock()
		_, pending := d.timers[t]
		delete(d.timers, t)
		stopped := d.stopped
		d.mu.Unlock()
		if pending && !stopped {
			d.next.Navigate(intent)
		}
	})
	d.timers[t] = struct{}{}
}

// Pending returns the number of deliveries still waiting on their delay.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Stop cancels all pending deliveries and drops future ones.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for t := range d.timers {
		t.Stop()
		delete(d.timers, t)
	}
}

// Recorder keeps every intent it receives. It backs the local server's
// "where should the UI be" view and is handy in tests.
type Recorder struct {
	mu      sync.RWMutex
	intents []Intent
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Navigate(intent Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, intent)
}

// Intents returns a copy of the recorded intents in delivery order.
func (r *Recorder) Intents() []Intent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Intent, len(r.intents))
	copy(out, r.intents)
	return out
}

// Last returns the most recent intent, or None.
func (r *Recorder) Last() Intent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.intents) == 0 {
		return None
	}
	return r.intents[len(r.intents)-1]
}

// Count returns how many intents targeted path.
func (r *Recorder) Count(path string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, i := range r.intents {
		if i.To == path {
			n++
		}
	}
	return n
}
