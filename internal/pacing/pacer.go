// Package pacing posts coalesced redraw requests at a fixed interval.
package pacing

import (
	"sync"
	"time"
)

// Pacer posts redraw requests at a fixed interval. Requests coalesce: at
// most one is pending on C however slowly the consumer drains it.
type Pacer struct {
	C <-chan struct{}

	c    chan struct{}
	wake func()
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewPacer starts the pacing goroutine. wake is called after every posted
// request so a consumer blocked on window events notices it; it must be
// safe to call from any goroutine.
func NewPacer(interval time.Duration, wake func()) *Pacer {
	c := make(chan struct{}, 1)
	p := &Pacer{C: c, c: c, wake: wake, stop: make(chan struct{})}
	p.wg.Add(1)
	go p.loop(interval)
	return p
}

func (p *Pacer) loop(interval time.Duration) {
	defer p.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.Request()
		}
	}
}

// Request posts a redraw unless one is already pending.
func (p *Pacer) Request() {
	select {
	case p.c <- struct{}{}:
	default:
	}
	if p.wake != nil {
		p.wake()
	}
}

// Stop ends the pacing goroutine and waits for it to exit.
func (p *Pacer) Stop() {
	p.once.Do(func() { close(p.stop) })
	p.wg.Wait()
}
