package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"runagent/agent"
)

// ErrClosed is returned by Enqueue after Shutdown.
var ErrClosed = errors.New("request queue is shut down")

// Invoker runs a single agent invocation.
type Invoker interface {
	Do(ctx context.Context, message, serverURL, model string) agent.Result
}

// RequestQueue hands requests to a fixed set of workers. Each request gets its
// own invocation; results come back on the request's ResponseChan in whatever
// order the invocations finish.
type RequestQueue struct {
	name         string
	queue        chan *Request
	invoker      Invoker
	closed       chan struct{}
	closeOnce    sync.Once
	workers      sync.WaitGroup
	activeCount  int
	mutex        sync.Mutex
	needsLog     bool
	lastLogTime  time.Time
	logRateLimit time.Duration
}

// NewRequestQueue starts workers goroutines that pull from the queue, plus a
// monitor that logs queue size and active invocations.
func NewRequestQueue(name string, workers int, invoker Invoker) *RequestQueue {
	if workers <= 0 {
		workers = 1
	}
	rq := &RequestQueue{
		name:         name,
		queue:        make(chan *Request, 10000),
		invoker:      invoker,
		closed:       make(chan struct{}),
		logRateLimit: 1 * time.Second,
	}

	rq.workers.Add(workers)
	for i := 0; i < workers; i++ {
		go rq.process()
	}
	go rq.monitor()
	return rq
}

// Enqueue adds a new request to the queue and notifies the monitor.
func (rq *RequestQueue) Enqueue(req *Request) error {
	select {
	case <-rq.closed:
		return ErrClosed
	default:
	}

	req.EnqueuedAt = time.Now()
	if req.Context == nil {
		req.Context = context.Background()
	}
	select {
	case rq.queue <- req:
	case <-rq.closed:
		return ErrClosed
	}
	rq.notifyChange()
	return nil
}

// Len returns the number of requests waiting for a worker.
func (rq *RequestQueue) Len() int {
	return len(rq.queue)
}

// monitor listens for changes and logs metrics accordingly.
func (rq *RequestQueue) monitor() {
	ticker := time.NewTicker(500 * time.Millisecond) // Check twice every second
	defer ticker.Stop()

	for {
		select {
		case <-rq.closed:
			return
		case <-ticker.C:
			rq.logMetrics()
		}
	}
}

// notifyChange flags that a change has occurred and logging is needed.
func (rq *RequestQueue) notifyChange() {
	rq.mutex.Lock()
	defer rq.mutex.Unlock()

	rq.needsLog = true
}

// incrementActive safely increments the activeCount and notifies a change.
func (rq *RequestQueue) incrementActive() {
	rq.mutex.Lock()
	rq.activeCount++
	rq.needsLog = true
	rq.mutex.Unlock()
}

// decrementActive safely decrements the activeCount and notifies a change.
func (rq *RequestQueue) decrementActive() {
	rq.mutex.Lock()
	if rq.activeCount > 0 {
		rq.activeCount--
	}
	rq.needsLog = true
	rq.mutex.Unlock()
}

// Active returns the number of invocations in flight.
func (rq *RequestQueue) Active() int {
	rq.mutex.Lock()
	defer rq.mutex.Unlock()
	return rq.activeCount
}

// logMetrics logs the current queue size and active processing count if rate limits allow.
func (rq *RequestQueue) logMetrics() {
	rq.mutex.Lock()
	defer rq.mutex.Unlock()

	if !rq.needsLog {
		return
	}
	now := time.Now()
	if now.Sub(rq.lastLogTime) >= rq.logRateLimit {
		log.Infof("Queue: %s | Queue Size: %d | Processing: %d", rq.name, len(rq.queue), rq.activeCount)
		rq.lastLogTime = now
		rq.needsLog = false
	}
}

// Shutdown stops the workers once their current invocation finishes. Requests
// still waiting in the queue are dropped.
func (rq *RequestQueue) Shutdown() {
	rq.closeOnce.Do(func() {
		close(rq.closed)
	})
	rq.workers.Wait()
}
