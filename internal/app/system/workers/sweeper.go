// internal/app/system/workers/sweeper.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper calls fn on a fixed interval until stopped. It backs housekeeping
// such as dropping expired rate-limit windows.
type Sweeper struct {
	name     string
	fn       func()
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// NewSweeper creates a stopped sweeper.
func NewSweeper(name string, interval time.Duration, fn func(), logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		name:     name,
		fn:       fn,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the loop in a goroutine.
func (w *Sweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("sweeper started", zap.String("worker", w.name), zap.Duration("interval", w.interval))
}

// Stop ends the loop and waits for a running fn to return. Safe to call twice.
func (w *Sweeper) Stop() {
	w.once.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("sweeper stopped", zap.String("worker", w.name))
	})
}

func (w *Sweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *Sweeper) sweep() {
	defer func() {
		if rec := recover(); rec != nil {
			w.log.Error("sweeper panicked", zap.String("worker", w.name), zap.Any("panic", rec))
		}
	}()
	w.fn()
}
