package gate

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-stage/engine"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// run steps the host for total, advancing the clock by step between iterations.
func run(h engine.Host, c *fakeClock, total, step time.Duration) {
	for elapsed := time.Duration(0); elapsed <= total; elapsed += step {
		h.Step()
		c.now = c.now.Add(step)
	}
}

func newHost() (engine.Host, *fakeClock) {
	c := &fakeClock{now: time.Unix(0, 0)}
	return engine.NewHost(engine.WithClock(c.Now)), c
}

func TestGateFiresOnceWhenCapabilityAppears(t *testing.T) {
	h, c := newHost()
	present := false
	g := NewGate([]Capability{{Name: "gpu", Available: func() bool { return present }}})

	calls := 0
	var got error
	g.Watch(h, func(err error) {
		calls++
		got = err
	})

	run(h, c, 350*time.Millisecond, 50*time.Millisecond)
	if g.Ready() || calls != 0 {
		t.Fatalf("gate fired before capability present (ready=%v calls=%d)", g.Ready(), calls)
	}
	if m := g.Missing(); len(m) != 1 || m[0] != "gpu" {
		t.Fatalf("missing = %v, want [gpu]", m)
	}

	present = true
	run(h, c, time.Second, 50*time.Millisecond)
	if !g.Ready() || calls != 1 || got != nil {
		t.Fatalf("ready=%v calls=%d err=%v, want ready once with nil", g.Ready(), calls, got)
	}
	if h.ActiveTimers() != 0 {
		t.Fatalf("active timers = %d, want 0 after ready", h.ActiveTimers())
	}

	// Never reverts.
	present = false
	run(h, c, time.Second, 50*time.Millisecond)
	if !g.Ready() || calls != 1 {
		t.Fatalf("ready=%v calls=%d after capability vanished", g.Ready(), calls)
	}
}

func TestGateAlreadyReadyFiresOnNextIteration(t *testing.T) {
	h, _ := newHost()
	g := NewGate([]Capability{{Name: "gpu", Available: func() bool { return true }}})

	first := 0
	g.Watch(h, func(err error) { first++ })
	if first != 0 {
		t.Fatal("callback must not run synchronously inside Watch")
	}
	h.Step()
	if first != 1 || !g.Ready() {
		t.Fatalf("first=%d ready=%v", first, g.Ready())
	}

	second := 0
	g.Watch(h, func(err error) { second++ })
	h.Step()
	h.Step()
	if second != 1 || first != 1 {
		t.Fatalf("first=%d second=%d, want 1 and 1", first, second)
	}
}

func TestGateTimesOut(t *testing.T) {
	h, c := newHost()
	g := NewGate(
		[]Capability{
			{Name: "gpu", Available: func() bool { return false }},
			{Name: "tweens", Available: func() bool { return true }},
		},
		WithInterval(100*time.Millisecond),
		WithTimeout(time.Second),
	)

	calls := 0
	var got error
	g.Watch(h, func(err error) {
		calls++
		got = err
	})
	run(h, c, 3*time.Second, 50*time.Millisecond)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if !errors.Is(got, ErrReadinessTimeout) || !errors.Is(g.Err(), ErrReadinessTimeout) {
		t.Fatalf("err = %v, want ErrReadinessTimeout", got)
	}
	if !strings.Contains(got.Error(), "gpu") || strings.Contains(got.Error(), "tweens") {
		t.Fatalf("error should name only the missing capability: %v", got)
	}
	if g.Ready() {
		t.Fatal("failed gate must not report ready")
	}
	if h.ActiveTimers() != 0 {
		t.Fatalf("active timers = %d, want 0 after timeout", h.ActiveTimers())
	}
}

func TestCapabilitiesProbes(t *testing.T) {
	var caps Capabilities
	if got := caps.Missing(); len(got) != 3 {
		t.Fatalf("missing = %v, want all three", got)
	}
	h, _ := newHost()
	g := NewGate(caps.Probes())
	g.Watch(h, nil)
	h.Step()
	if g.Ready() {
		t.Fatal("gate over nil factories must not be ready")
	}
}
