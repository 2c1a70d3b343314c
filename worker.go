package img2tempdecal

import (
	"context"
	"fmt"
	"sync"
)

// Backend performs a single conversion, *Converter being the usual one
type Backend interface {
	Convert(pb *PixelBuffer, opts Options) (*Result, error)
}

// Response answers a single request, either Result or Err is set
type Response struct {
	*Result
	Err error
}

type request struct {
	pb   *PixelBuffer
	opts Options
}

// Worker runs conversions one at a time on a dedicated goroutine. Requests
// are answered in the order they were submitted. Requests can't be cancelled
// once submitted.
//
// If the backend panics the worker stops; the request being converted and
// every request still waiting fail with ErrWorkerUnavailable, as does any
// later Submit.
type Worker struct {
	backend Backend

	in  chan request
	out chan Response

	// Held while appending to the ledger and sending to in, so both are in
	// the same order
	submitMu sync.Mutex
	stopping bool

	mu     sync.Mutex
	ledger []chan Response
	closed bool

	failure error
	done    chan struct{}
}

// NewWorker starts a worker converting with b
func NewWorker(b Backend) *Worker {
	w := &Worker{
		backend: b,
		in:      make(chan request, 1),
		out:     make(chan Response),
		done:    make(chan struct{}),
	}
	go w.run()
	go w.dispatch()
	return w
}

func (w *Worker) convert(req request) (resp Response, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			w.failure = fmt.Errorf("%w: %v", ErrWorkerUnavailable, r)
			ok = false
		}
	}()
	result, err := w.backend.Convert(req.pb, req.opts)
	return Response{Result: result, Err: err}, true
}

func (w *Worker) run() {
	defer close(w.out)
	for req := range w.in {
		resp, ok := w.convert(req)
		if !ok {
			return
		}
		w.out <- resp
	}
}

// Pairs each response with the oldest outstanding request
func (w *Worker) dispatch() {
	defer close(w.done)

	for resp := range w.out {
		w.mu.Lock()
		h := w.ledger[0]
		w.ledger[0] = nil
		w.ledger = w.ledger[1:]
		w.mu.Unlock()

		h <- resp
	}

	// No more responses will arrive, fail anything still outstanding
	err := w.failure
	if err == nil {
		err = ErrWorkerUnavailable
	}

	w.mu.Lock()
	w.closed = true
	pending := w.ledger
	w.ledger = nil
	w.mu.Unlock()

	for _, h := range pending {
		h <- Response{Err: err}
	}
}

// Submit queues a conversion of pb and returns a channel that receives its
// response. pb belongs to the worker once submitted. Submit blocks while
// another request is waiting to be picked up.
func (w *Worker) Submit(pb *PixelBuffer, opts Options) <-chan Response {
	h := make(chan Response, 1)

	w.submitMu.Lock()
	defer w.submitMu.Unlock()

	w.mu.Lock()
	if w.stopping || w.closed {
		w.mu.Unlock()
		h <- Response{Err: ErrWorkerUnavailable}
		return h
	}
	w.ledger = append(w.ledger, h)
	w.mu.Unlock()

	select {
	case w.in <- request{pb, opts}:
	case <-w.done:
		// The ledger, h included, has already been failed
	}

	return h
}

// Do submits a conversion and waits for its response. If ctx is done first
// Do returns its error, however the conversion still runs.
func (w *Worker) Do(ctx context.Context, pb *PixelBuffer, opts Options) (*Result, error) {
	select {
	case resp := <-w.Submit(pb, opts):
		return resp.Result, resp.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close waits for outstanding requests to be answered and stops the worker
func (w *Worker) Close() {
	w.submitMu.Lock()
	if !w.stopping {
		w.mu.Lock()
		w.stopping = true
		w.mu.Unlock()
		close(w.in)
	}
	w.submitMu.Unlock()

	<-w.done
}
