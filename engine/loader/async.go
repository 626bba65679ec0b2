package loader

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-stage/engine"
	"github.com/Carmen-Shannon/oxy-stage/engine/catalog"
)

// Pending is the handle of an in-flight asynchronous load.
type Pending interface {
	// Cancel aborts the load. The completion callback will not run after Cancel returns
	// on the host loop. Safe to call more than once.
	Cancel()

	// Done reports whether the result was delivered or dropped.
	Done() bool
}

// pendingImpl implements the Pending interface.
type pendingImpl struct {
	mu        *sync.Mutex
	cancel    context.CancelFunc
	cancelled bool
	done      bool
}

var _ Pending = &pendingImpl{}

func (p *pendingImpl) Cancel() {
	p.mu.Lock()
	p.cancelled = true
	p.mu.Unlock()
	p.cancel()
}

func (p *pendingImpl) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// finish marks the request complete and reports whether the callback should run.
func (p *pendingImpl) finish() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = true
	return !p.cancelled
}

// Async runs loads on a worker pool and delivers results on the host loop.
type Async interface {
	// Request starts loading d in the background. done runs on the host loop with the
	// asset, unless the request was cancelled first.
	//
	// Parameters:
	//   - ctx: parent context of the load
	//   - d: the character descriptor
	//   - opts: load options
	//   - done: the completion callback
	//
	// Returns:
	//   - Pending: handle to cancel the request
	Request(ctx context.Context, d catalog.Descriptor, opts Options, done func(*Asset)) Pending

	// InFlight returns the number of requests whose result has not been delivered or dropped.
	InFlight() int
}

// asyncImpl implements the Async interface.
type asyncImpl struct {
	mu       *sync.Mutex
	host     engine.Host
	loader   Loader
	pool     worker.DynamicWorkerPool
	nextID   int
	inFlight int
}

var _ Async = &asyncImpl{}

// NewAsync creates an asynchronous front for l with its own worker pool.
//
// Parameters:
//   - host: the loop results are posted to
//   - l: the loader run on the workers
//   - workers: maximum concurrent loads
//
// Returns:
//   - Async: the new async loader
func NewAsync(host engine.Host, l Loader, workers int) Async {
	if host == nil || l == nil {
		panic("loader: NewAsync requires a host and a loader")
	}
	if workers < 1 {
		workers = 1
	}
	return &asyncImpl{
		mu:     &sync.Mutex{},
		host:   host,
		loader: l,
		pool:   worker.NewDynamicWorkerPool(workers, 64, 5*time.Second),
	}
}

func (a *asyncImpl) Request(ctx context.Context, d catalog.Descriptor, opts Options, done func(*Asset)) Pending {
	ctx, cancel := context.WithCancel(ctx)
	p := &pendingImpl{mu: &sync.Mutex{}, cancel: cancel}

	a.mu.Lock()
	a.nextID++
	id := a.nextID
	a.inFlight++
	a.mu.Unlock()

	a.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			asset, err := a.load(ctx, d, opts)
			a.host.Post(func() {
				defer cancel()
				a.mu.Lock()
				a.inFlight--
				a.mu.Unlock()

				if !p.finish() {
					log.Printf("[Loader] %s: request %d cancelled, result dropped", d.ID, id)
					return
				}
				if err != nil {
					log.Printf("[Loader] %s: request %d aborted: %v", d.ID, id, err)
					return
				}
				if done != nil {
					done(asset)
				}
			})
			return nil, nil
		},
	})
	return p
}

// load runs the loader on a worker. The pool does not recover panics, so a panicking
// loader is turned into the placeholder here.
func (a *asyncImpl) load(ctx context.Context, d catalog.Descriptor, opts Options) (asset *Asset, err error) {
	defer func() {
		if r := recover(); r != nil {
			cause := fmt.Errorf("%w: %v", ErrMalformedAsset, r)
			log.Printf("[Loader] %s: loader panicked: %v; showing placeholder", d.ID, r)
			asset = &Asset{Descriptor: d, Root: Placeholder(d, opts.Shadows), Placeholder: true, Err: cause}
			err = nil
		}
	}()
	return a.loader.Load(ctx, d, opts)
}

func (a *asyncImpl) InFlight() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inFlight
}
