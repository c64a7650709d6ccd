package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// publishTimeout bounds how long the worker waits on the downstream publisher
const publishTimeout = 5 * time.Second

// AsyncPublisher decouples mutations from delivery. Publish enqueues and
// returns immediately; when the buffer is full the event is dropped and
// logged. Call Stop during graceful shutdown.
type AsyncPublisher struct {
	next Publisher
	log  *logrus.Logger

	queue chan Event

	onPublished func(event string)
	onDropped   func(event string)

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

func NewAsyncPublisher(next Publisher, bufferSize int, log *logrus.Logger) *AsyncPublisher {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	p := &AsyncPublisher{
		next:     next,
		log:      log,
		queue:    make(chan Event, bufferSize),
		stopChan: make(chan struct{}),
	}

	p.wg.Add(1)
	go p.loop()

	return p
}

// Observe registers delivery callbacks, used for metrics. Call before publishing.
func (p *AsyncPublisher) Observe(onPublished, onDropped func(event string)) {
	p.onPublished = onPublished
	p.onDropped = onDropped
}

// Publish never blocks and never fails the caller
func (p *AsyncPublisher) Publish(_ context.Context, event Event) error {
	if p.stopped.Load() {
		p.drop(event, "publisher stopped")
		return nil
	}
	select {
	case p.queue <- event:
	default:
		p.drop(event, "buffer full")
	}
	return nil
}

// Stop drains queued events and shuts down the worker.
// Safe to call multiple times.
func (p *AsyncPublisher) Stop() {
	if p.stopped.CompareAndSwap(false, true) {
		close(p.stopChan)
		p.wg.Wait()
		p.log.Info("AsyncPublisher stopped")
	}
}

func (p *AsyncPublisher) loop() {
	defer p.wg.Done()

	for {
		select {
		case event := <-p.queue:
			p.deliver(event)
		case <-p.stopChan:
			for {
				select {
				case event := <-p.queue:
					p.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (p *AsyncPublisher) deliver(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.next.Publish(ctx, event); err != nil {
		p.log.Warnf("Failed to publish %s event: %+v", event.Name, err)
		if p.onDropped != nil {
			p.onDropped(event.Name)
		}
		return
	}
	if p.onPublished != nil {
		p.onPublished(event.Name)
	}
}

func (p *AsyncPublisher) drop(event Event, reason string) {
	p.log.Warnf("Dropping %s event: %s", event.Name, reason)
	if p.onDropped != nil {
		p.onDropped(event.Name)
	}
}
