package queue

import "time"

// process runs requests until the queue is shut down.
func (rq *RequestQueue) process() {
	defer rq.workers.Done()
	for {
		select {
		case <-rq.closed:
			return
		case req := <-rq.queue:
			rq.run(req)
		}
	}
}

func (rq *RequestQueue) run(req *Request) {
	rq.incrementActive()
	defer rq.decrementActive()

	res := rq.invoker.Do(req.Context, req.Message, req.ServerURL, req.Model)
	req.ResponseChan <- RequestResult{
		Row:     req.Row,
		Result:  res,
		Elapsed: time.Since(req.EnqueuedAt),
	}
}
