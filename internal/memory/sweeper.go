package memory

import (
	"context"
	"log"
	"time"
)

// Sweeper deletes idle sessions on a fixed interval. It is owned by whoever
// constructs it; Start launches the loop and Stop tears it down.
type Sweeper struct {
	store    Store
	interval time.Duration
	maxAge   time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper creates a sweeper that removes sessions idle longer than maxAge
// every interval.
func NewSweeper(store Store, interval, maxAge time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		maxAge:   maxAge,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.store.SweepIdle(context.Background(), s.maxAge); err != nil {
					log.Printf("⚠️ Session sweep failed: %v", err)
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}
