// Package telemetry implements the periodic-publisher scheduler that backs
// a device adapter's device-telemetry and app-telemetry operations: one
// time-ordered queue, one worker goroutine per adapter instance, fired in
// strict nextFireAt order.
package telemetry

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dabcore/dab-bridge/dabjson"
)

// Producer returns the JSON payload for one telemetry tick.
type Producer func() (*dabjson.Value, error)

// PublishFunc emits one `{"topic":..., "payload":...}` message, the same
// shape every other adapter publish uses.
type PublishFunc func(topic string, payload *dabjson.Value)

// entry is one telemetry slot: subjectId = "" for device telemetry, or an
// appId for app telemetry. At most one entry per subjectId.
type entry struct {
	subjectID string
	topic     string
	interval  time.Duration
	produce   Producer
	nextFire  time.Time
	index     int // heap.Interface bookkeeping
}

type entryHeap []*entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].nextFire.Before(h[j].nextFire) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *entryHeap) Push(x interface{}) { e := x.(*entry); e.index = len(*h); *h = append(*h, e) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Scheduler is a priority queue of telemetry entries ordered by nextFireAt,
// serviced by one worker goroutine per adapter instance. sync.Cond has no
// timed-wait variant, so the worker selects on a buffered wake channel and
// time.After instead of waiting on a condvar.
type Scheduler struct {
	publish PublishFunc
	logger  *slog.Logger

	mu      sync.Mutex
	heap    entryHeap
	byID    map[string]*entry
	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

// NewScheduler constructs a Scheduler that publishes fired ticks via publish.
// The worker goroutine is started immediately.
func NewScheduler(publish PublishFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		publish: publish,
		logger:  logger,
		byID:    map[string]*entry{},
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Add inserts a new telemetry entry for subjectID, or if one already exists
// updates its interval and producer in place without disturbing the next
// scheduled fire time. A brand-new entry is scheduled to fire immediately.
func (s *Scheduler) Add(subjectID, topic string, interval time.Duration, produce Producer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.byID[subjectID]; ok {
		e.interval = interval
		e.topic = topic
		e.produce = produce
		s.notify()
		return
	}

	e := &entry{
		subjectID: subjectID,
		topic:     topic,
		interval:  interval,
		produce:   produce,
		nextFire:  time.Now(),
	}
	s.byID[subjectID] = e
	heap.Push(&s.heap, e)
	s.notify()
}

// Delete removes the entry for subjectID if present; a repeated call is a
// no-op.
func (s *Scheduler) Delete(subjectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[subjectID]
	if !ok {
		return
	}
	delete(s.byID, subjectID)
	heap.Remove(&s.heap, e.index)
	s.notify()
}

// Shutdown signals the worker to exit and blocks until it has. The adapter
// that owns this scheduler must not tear itself down until Shutdown
// returns, so no telemetry handler can still be running against a half-dead
// adapter.
func (s *Scheduler) Shutdown() {
	close(s.done)
	<-s.stopped
}

// run is the worker loop: wait for the next scheduled fire, a wake signal,
// or shutdown, whichever comes first.
func (s *Scheduler) run() {
	defer close(s.stopped)
	for {
		s.mu.Lock()
		var timer <-chan time.Time
		var nextFire *entry
		if len(s.heap) > 0 {
			nextFire = s.heap[0]
			d := time.Until(nextFire.nextFire)
			if d < 0 {
				d = 0
			}
			timer = time.After(d)
		}
		s.mu.Unlock()

		select {
		case <-s.done:
			return
		case <-s.wake:
			continue
		case <-waitOrBlock(timer):
			s.fireDue()
		}
	}
}

// waitOrBlock returns timer unchanged, or a channel that never fires when
// timer is nil, for when the queue is empty.
func waitOrBlock(timer <-chan time.Time) <-chan time.Time {
	if timer == nil {
		return make(chan time.Time)
	}
	return timer
}

// fireDue pops every entry whose nextFire has passed, invokes its producer,
// publishes the result, and reschedules it via heap.Fix.
func (s *Scheduler) fireDue() {
	for {
		s.mu.Lock()
		if len(s.heap) == 0 || s.heap[0].nextFire.After(time.Now()) {
			s.mu.Unlock()
			return
		}
		e := s.heap[0]
		subjectID, topic, interval, produce := e.subjectID, e.topic, e.interval, e.produce
		s.mu.Unlock()

		payload := s.safeProduce(subjectID, produce)

		s.mu.Lock()
		// The entry may have been deleted or replaced while we were off the
		// lock invoking the producer; only reschedule if it's still ours.
		if cur, ok := s.byID[subjectID]; ok && cur == e {
			e.nextFire = time.Now().Add(interval)
			heap.Fix(&s.heap, e.index)
		}
		s.mu.Unlock()

		if payload != nil {
			s.publish(topic, payload)
		}
	}
}

// safeProduce recovers from a panicking or erroring producer, logs it, and
// drops the tick instead of propagating. Every other subject keeps ticking,
// and the failing one retries on its next scheduled fire.
func (s *Scheduler) safeProduce(subjectID string, produce Producer) (result *dabjson.Value) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("telemetry producer panicked, dropping tick", "subjectId", subjectID, "panic", r)
			result = nil
		}
	}()
	v, err := produce()
	if err != nil {
		s.logger.Error("telemetry producer returned error, dropping tick", "subjectId", subjectID, "error", err)
		return nil
	}
	return v
}

// Wait blocks until ctx is done, a convenience for callers that want to run
// the scheduler under a cancellable lifetime instead of calling Shutdown
// directly.
func (s *Scheduler) Wait(ctx context.Context) {
	<-ctx.Done()
	s.Shutdown()
}
