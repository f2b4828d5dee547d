package utils

import (
	"context"
	"sync"
	"time"
)

// Debouncer imposes a quiet period on a burst of calls: a call made within
// the delay of the previous execution is suspended, a newer call preempts a
// suspended one, and only the last call in the burst executes. Used on the
// autocomplete boundary to keep rapid keystrokes from turning into remote
// lookups.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	lastRun time.Time
	cancel  context.CancelFunc
	gen     uint64
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

func (d *Debouncer) SetDelay(delay time.Duration) {
	d.mu.Lock()
	d.delay = delay
	d.mu.Unlock()
}

// Debounce runs fn through the debouncer. ok reports whether fn actually
// ran; a preempted or canceled call returns ok=false with no error.
func Debounce[T any](ctx context.Context, d *Debouncer, fn func(context.Context) (T, error)) (T, bool, error) {
	var zero T

	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	now := time.Now()
	if d.lastRun.IsZero() || now.Sub(d.lastRun) > d.delay {
		d.lastRun = now
		d.mu.Unlock()
		v, err := fn(ctx)
		return v, true, err
	}

	waitCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.gen++
	myGen := d.gen
	delay := d.delay
	d.mu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-waitCtx.Done():
		return zero, false, nil
	case <-timer.C:
	}

	d.mu.Lock()
	if d.gen != myGen {
		// A newer call slipped in while the timer fired.
		d.mu.Unlock()
		return zero, false, nil
	}
	d.cancel = nil
	d.lastRun = time.Now()
	d.mu.Unlock()

	v, err := fn(ctx)
	return v, true, err
}
