package mediation

import (
	"sync"

	"github.com/thenexusengine/tne_mediation/internal/config"
	"github.com/thenexusengine/tne_mediation/pkg/logger"
)

// MainThread serializes UI-affine work. Native show calls are always posted
// through it, whatever goroutine calls Show.
type MainThread interface {
	Post(fn func())
}

// ImmediateThread runs posted work inline on the caller's goroutine.
type ImmediateThread struct{}

// Post runs fn immediately
func (ImmediateThread) Post(fn func()) { fn() }

// Looper is a single-goroutine serial executor standing in for the host's
// main thread.
type Looper struct {
	queue chan func()
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// NewLooper starts a looper with the given queue size
func NewLooper(size int) *Looper {
	if size <= 0 {
		size = config.MainThreadQueueSize
	}
	l := &Looper{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
	}
	l.wg.Add(1)
	go l.loop()
	return l
}

func (l *Looper) loop() {
	defer l.wg.Done()
	for {
		select {
		case fn := <-l.queue:
			l.run(fn)
		case <-l.done:
			// drain what was posted before Close
			for {
				select {
				case fn := <-l.queue:
					l.run(fn)
				default:
					return
				}
			}
		}
	}
}

func (l *Looper) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error().Interface("panic", r).Msg("main thread task panicked")
		}
	}()
	fn()
}

// Post enqueues fn. Work posted after Close is dropped and logged.
func (l *Looper) Post(fn func()) {
	select {
	case <-l.done:
		logger.Log.Warn().Msg("main thread closed, dropping posted task")
		return
	default:
	}
	select {
	case l.queue <- fn:
	case <-l.done:
		logger.Log.Warn().Msg("main thread closed, dropping posted task")
	}
}

// Close stops the looper after running already queued work
func (l *Looper) Close() {
	l.once.Do(func() { close(l.done) })
	l.wg.Wait()
}

var (
	mainOnce   sync.Once
	mainLooper *Looper
)

// Main returns the process-wide main thread shared by registry-built adapters.
// It is started on first use and lives for the rest of the process.
func Main() *Looper {
	mainOnce.Do(func() { mainLooper = NewLooper(config.MainThreadQueueSize) })
	return mainLooper
}
