package stage

import (
	"time"

	"github.com/Carmen-Shannon/oxy-stage/engine"
)

// renderLoop reschedules itself through the host's frame callbacks and reports the time
// since the previous frame to tick. The first frame reports 0.
type renderLoop struct {
	host engine.Host
	tick func(dt float32)

	handle    engine.FrameHandle
	scheduled bool
	stopped   bool

	last    time.Time
	hasLast bool
}

func newRenderLoop(host engine.Host, tick func(dt float32)) *renderLoop {
	return &renderLoop{host: host, tick: tick}
}

// start schedules the first frame. Starting a running or stopped loop does nothing.
func (l *renderLoop) start() {
	if l.scheduled || l.stopped {
		return
	}
	l.schedule()
}

func (l *renderLoop) schedule() {
	l.handle = l.host.RequestFrame(l.frame)
	l.scheduled = true
}

func (l *renderLoop) frame(now time.Time) {
	l.scheduled = false
	if l.stopped {
		return
	}
	var dt float32
	if l.hasLast {
		dt = float32(now.Sub(l.last).Seconds())
	}
	l.last = now
	l.hasLast = true

	l.tick(dt)
	if !l.stopped {
		l.schedule()
	}
}

// stop cancels the pending frame. The loop cannot be restarted.
func (l *renderLoop) stop() {
	if l.stopped {
		return
	}
	l.stopped = true
	if l.scheduled {
		l.host.CancelFrame(l.handle)
		l.scheduled = false
	}
}

func (l *renderLoop) running() bool {
	return l.scheduled && !l.stopped
}
