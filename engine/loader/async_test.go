package loader

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-stage/engine"
	"github.com/Carmen-Shannon/oxy-stage/engine/catalog"
)

// gatedLoader blocks every Load until release is closed.
type gatedLoader struct {
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedLoader) Load(ctx context.Context, d catalog.Descriptor, opts Options) (*Asset, error) {
	g.calls.Add(1)
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &Asset{Descriptor: d, Root: Placeholder(d, opts.Shadows), Placeholder: true}, nil
}

// stepUntil drives host until cond holds or a second passes.
func stepUntil(h engine.Host, cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		h.Step()
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func TestAsyncDeliversOnHostLoop(t *testing.T) {
	h := engine.NewHost(engine.WithFrameRate(0))
	gl := &gatedLoader{release: make(chan struct{})}
	close(gl.release)
	a := NewAsync(h, gl, 2)

	var got *Asset
	p := a.Request(context.Background(), descriptor(t, "a.glb"), Options{}, func(asset *Asset) { got = asset })
	if !stepUntil(h, func() bool { return got != nil }) {
		t.Fatal("completion never delivered")
	}
	if !p.Done() || a.InFlight() != 0 {
		t.Fatalf("done=%v inFlight=%d", p.Done(), a.InFlight())
	}
	if got.Descriptor.ID != "warrior" {
		t.Fatalf("asset for %q", got.Descriptor.ID)
	}
}

func TestAsyncCancelDropsResult(t *testing.T) {
	h := engine.NewHost(engine.WithFrameRate(0))
	gl := &gatedLoader{release: make(chan struct{})}
	a := NewAsync(h, gl, 1)

	called := false
	p := a.Request(context.Background(), descriptor(t, "a.glb"), Options{}, func(*Asset) { called = true })
	if !stepUntil(h, func() bool { return gl.calls.Load() == 1 }) {
		t.Fatal("load never started")
	}
	p.Cancel()
	p.Cancel()

	if !stepUntil(h, p.Done) {
		t.Fatal("cancelled request never finished")
	}
	if called {
		t.Fatal("cancelled request must not call done")
	}
	if a.InFlight() != 0 {
		t.Fatalf("inFlight = %d, want 0", a.InFlight())
	}
}

func TestAsyncCancelAfterLoadStillDrops(t *testing.T) {
	h := engine.NewHost(engine.WithFrameRate(0))
	gl := &gatedLoader{release: make(chan struct{})}
	a := NewAsync(h, gl, 1)

	called := false
	p := a.Request(context.Background(), descriptor(t, "a.glb"), Options{}, func(*Asset) { called = true })
	close(gl.release)
	// Let the worker post its result without running the loop, then cancel before delivery.
	time.Sleep(50 * time.Millisecond)
	p.Cancel()
	if !stepUntil(h, p.Done) {
		t.Fatal("request never finished")
	}
	if called {
		t.Fatal("result delivered after Cancel")
	}
}
