// Package gate holds the process-wide readiness signal: sessions are only created once every
// rendering capability the stage depends on has been confirmed present.
package gate

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-stage/engine"
	"github.com/Carmen-Shannon/oxy-stage/engine/loader"
	"github.com/Carmen-Shannon/oxy-stage/engine/renderer"
	"github.com/Carmen-Shannon/oxy-stage/engine/tween"
)

// ErrReadinessTimeout is reported when capabilities are still missing after the gate's timeout.
var ErrReadinessTimeout = errors.New("readiness timeout")

const (
	DefaultInterval = 100 * time.Millisecond
	DefaultTimeout  = 10 * time.Second
)

// Capability is one named probe. Available is polled on the host loop until it returns true.
type Capability struct {
	Name      string
	Available func() bool
}

// Capabilities are the factories a session is built from. They are resolved once at startup
// and handed to every session instead of being looked up globally.
type Capabilities struct {
	NewRenderer renderer.Factory
	NewTweens   func() tween.Engine
	Loader      loader.Async
}

// Missing returns the names of the factories that are nil.
func (c Capabilities) Missing() []string {
	var out []string
	if c.NewRenderer == nil {
		out = append(out, "renderer")
	}
	if c.NewTweens == nil {
		out = append(out, "tweens")
	}
	if c.Loader == nil {
		out = append(out, "loader")
	}
	return out
}

// Probes returns one probe per factory so the gate can wait for them to be wired.
func (c *Capabilities) Probes() []Capability {
	return []Capability{
		{Name: "renderer", Available: func() bool { return c.NewRenderer != nil }},
		{Name: "tweens", Available: func() bool { return c.NewTweens != nil }},
		{Name: "loader", Available: func() bool { return c.Loader != nil }},
	}
}

type gateState int

const (
	statePending gateState = iota
	stateWatching
	stateReady
	stateFailed
)

// Gate polls a set of capability probes until they all report present or the timeout passes.
type Gate interface {
	// Watch starts polling through host's interval timer, if not already started, and
	// registers onDone. Every registered callback fires exactly once on the host loop: with
	// nil once all probes pass, or with an error wrapping ErrReadinessTimeout.
	//
	// Parameters:
	//   - host: the loop to poll on
	//   - onDone: the completion callback, may be nil
	Watch(host engine.Host, onDone func(error))

	// Ready reports whether every capability was seen present. Never reverts to false.
	Ready() bool

	// Err returns the timeout error once the gate has failed, nil otherwise.
	Err() error

	// Missing returns the names of probes that have not passed yet.
	Missing() []string
}

// gateImpl implements the Gate interface.
type gateImpl struct {
	mu       *sync.Mutex
	probes   []Capability
	interval time.Duration
	timeout  time.Duration

	state   gateState
	err     error
	missing []string
	waiters []func(error)

	host    engine.Host
	timer   engine.TimerHandle
	elapsed time.Duration
}

var _ Gate = &gateImpl{}

// NewGate creates a gate over probes.
//
// Parameters:
//   - probes: the capabilities to wait for
//   - options: functional options for interval and timeout
//
// Returns:
//   - Gate: the new gate
func NewGate(probes []Capability, options ...GateBuilderOption) Gate {
	g := &gateImpl{
		mu:       &sync.Mutex{},
		probes:   probes,
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *gateImpl) Watch(host engine.Host, onDone func(error)) {
	if host == nil {
		panic("gate: Watch requires a host")
	}
	g.mu.Lock()
	state := g.state
	err := g.err
	if onDone != nil && (state == statePending || state == stateWatching) {
		g.waiters = append(g.waiters, onDone)
	}
	g.mu.Unlock()

	switch state {
	case stateReady, stateFailed:
		if onDone != nil {
			host.Post(func() { onDone(err) })
		}
		return
	case stateWatching:
		return
	}

	g.mu.Lock()
	g.state = stateWatching
	g.host = host
	g.mu.Unlock()

	if g.check() {
		host.Post(func() { g.finish(nil) })
		return
	}
	g.timer = host.SetInterval(g.interval, g.poll)
}

// poll runs on every interval tick.
func (g *gateImpl) poll() {
	if g.check() {
		g.finish(nil)
		return
	}
	g.elapsed += g.interval
	if g.elapsed >= g.timeout {
		g.finish(fmt.Errorf("%w after %s: missing %s", ErrReadinessTimeout, g.timeout, strings.Join(g.Missing(), ", ")))
	}
}

// check evaluates every probe and records the missing names.
func (g *gateImpl) check() bool {
	var missing []string
	for _, p := range g.probes {
		if p.Available == nil || !p.Available() {
			missing = append(missing, p.Name)
		}
	}
	g.mu.Lock()
	g.missing = missing
	g.mu.Unlock()
	return len(missing) == 0
}

func (g *gateImpl) finish(err error) {
	g.mu.Lock()
	if g.state != stateWatching {
		g.mu.Unlock()
		return
	}
	if err != nil {
		g.state = stateFailed
		g.err = err
	} else {
		g.state = stateReady
	}
	waiters := g.waiters
	g.waiters = nil
	host := g.host
	timer := g.timer
	g.mu.Unlock()

	if timer != 0 {
		host.ClearInterval(timer)
	}
	if err != nil {
		log.Printf("[Gate] %v", err)
	} else {
		log.Printf("[Gate] ready after %s", g.elapsed)
	}
	for _, w := range waiters {
		w(err)
	}
}

func (g *gateImpl) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == stateReady
}

func (g *gateImpl) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

func (g *gateImpl) Missing() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.missing))
	copy(out, g.missing)
	return out
}
