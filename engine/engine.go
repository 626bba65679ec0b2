package engine

import (
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-stage/engine/profiler"
	"github.com/Carmen-Shannon/oxy-stage/engine/window"
)

// FrameHandle identifies a pending frame callback.
type FrameHandle uint64

// TimerHandle identifies a live interval timer.
type TimerHandle uint64

// interval is a repeating timer owned by the loop.
type interval struct {
	period time.Duration
	next   time.Time
	fn     func()
}

// engine implements the Host interface.
// All callbacks run on the goroutine that calls Run or Step; only Post is safe from other goroutines.
type engine struct {
	mu    *sync.Mutex
	tasks []func()
	wake  chan struct{}

	clock         func() time.Time
	frameInterval time.Duration
	lastFrame     time.Time
	framed        bool

	nextFrameID FrameHandle
	frames      map[FrameHandle]func(now time.Time)
	frameOrder  []FrameHandle

	nextTimerID TimerHandle
	timers      map[TimerHandle]*interval
	timerOrder  []TimerHandle

	tasksSinceFrame int

	window window.Window

	profiler         *profiler.Profiler
	profilingEnabled bool

	running     bool
	quitChannel chan struct{}
	quitOnce    sync.Once
}

// Host is the single-threaded cooperative event loop every stage session runs on.
// It drives posted tasks (such as asset-load completions), interval timers (readiness
// polling), per-frame callbacks (render loops) and window events (resize, input).
type Host interface {
	// Window returns the window polled by Run, or nil for a headless host.
	Window() window.Window

	// Post queues task to run on the loop. Safe to call from any goroutine.
	//
	// Parameters:
	//   - task: the function to run
	Post(task func())

	// RequestFrame schedules cb to run once on the next frame.
	//
	// Parameters:
	//   - cb: function receiving the frame timestamp
	//
	// Returns:
	//   - FrameHandle: handle for CancelFrame
	RequestFrame(cb func(now time.Time)) FrameHandle

	// CancelFrame removes a pending frame callback. Unknown handles are ignored.
	//
	// Parameters:
	//   - h: the handle returned by RequestFrame
	CancelFrame(h FrameHandle)

	// PendingFrames returns the number of frame callbacks waiting for the next frame.
	PendingFrames() int

	// SetInterval runs fn every period until cleared. The first call happens one period from now.
	//
	// Parameters:
	//   - period: time between calls
	//   - fn: the function to run
	//
	// Returns:
	//   - TimerHandle: handle for ClearInterval
	SetInterval(period time.Duration, fn func()) TimerHandle

	// ClearInterval stops a timer. Unknown handles are ignored.
	//
	// Parameters:
	//   - h: the handle returned by SetInterval
	ClearInterval(h TimerHandle)

	// ActiveTimers returns the number of live interval timers.
	ActiveTimers() int

	// Step runs one loop iteration: posted tasks, due timers, then the frame callbacks
	// registered before this frame if the frame interval has elapsed.
	//
	// Returns:
	//   - bool: true if a frame ran
	Step() bool

	// Run loops until the window closes or Quit is called. Must be called from the main goroutine
	// when a window is attached.
	Run()

	// Quit stops Run. Safe to call multiple times and from any goroutine.
	Quit()

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()
}

var _ Host = &engine{}

// NewHost creates a host loop with the provided options.
// Defaults: 60 frames per second, wall clock, no window, profiler off.
//
// Parameters:
//   - options: functional options for host configuration
//
// Returns:
//   - Host: the newly created host
func NewHost(options ...EngineBuilderOption) Host {
	e := &engine{
		mu:            &sync.Mutex{},
		wake:          make(chan struct{}, 1),
		clock:         time.Now,
		frameInterval: time.Second / 60,
		frames:        make(map[FrameHandle]func(time.Time)),
		timers:        make(map[TimerHandle]*interval),
		quitChannel:   make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(time.Second, e.clock)
	}
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Post(task func()) {
	if task == nil {
		return
	}
	e.mu.Lock()
	e.tasks = append(e.tasks, task)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *engine) RequestFrame(cb func(now time.Time)) FrameHandle {
	e.nextFrameID++
	id := e.nextFrameID
	e.frames[id] = cb
	e.frameOrder = append(e.frameOrder, id)
	return id
}

func (e *engine) CancelFrame(h FrameHandle) {
	delete(e.frames, h)
}

func (e *engine) PendingFrames() int {
	return len(e.frames)
}

func (e *engine) SetInterval(period time.Duration, fn func()) TimerHandle {
	if period <= 0 {
		period = time.Millisecond
	}
	e.nextTimerID++
	id := e.nextTimerID
	e.timers[id] = &interval{period: period, next: e.clock().Add(period), fn: fn}
	e.timerOrder = append(e.timerOrder, id)
	return id
}

func (e *engine) ClearInterval(h TimerHandle) {
	delete(e.timers, h)
}

func (e *engine) ActiveTimers() int {
	return len(e.timers)
}

func (e *engine) Step() bool {
	e.runTasks()
	now := e.clock()
	e.runTimers(now)
	return e.runFrame(now)
}

// runTasks drains the posted queue. Tasks posted while draining run on the next step.
func (e *engine) runTasks() {
	e.mu.Lock()
	tasks := e.tasks
	e.tasks = nil
	e.mu.Unlock()

	for _, task := range tasks {
		task()
	}
	e.tasksSinceFrame += len(tasks)
}

func (e *engine) runTimers(now time.Time) {
	order := e.timerOrder[:0]
	for _, id := range e.timerOrder {
		if _, ok := e.timers[id]; ok {
			order = append(order, id)
		}
	}
	e.timerOrder = order

	snapshot := make([]TimerHandle, len(order))
	copy(snapshot, order)
	for _, id := range snapshot {
		t, ok := e.timers[id]
		if !ok || now.Before(t.next) {
			continue
		}
		t.next = now.Add(t.period)
		t.fn()
	}
}

func (e *engine) runFrame(now time.Time) bool {
	if e.framed && e.frameInterval > 0 && now.Sub(e.lastFrame) < e.frameInterval {
		return false
	}
	e.framed = true
	e.lastFrame = now

	batch := e.frameOrder
	e.frameOrder = nil
	for _, id := range batch {
		cb, ok := e.frames[id]
		if !ok {
			continue
		}
		delete(e.frames, id)
		cb(now)
	}

	if e.profilingEnabled {
		e.profiler.Tick(profiler.FrameStats{
			PendingFrames: len(e.frames),
			ActiveTimers:  len(e.timers),
			TasksRun:      e.tasksSinceFrame,
		})
	}
	e.tasksSinceFrame = 0
	return true
}

// Run loops until the window closes or Quit is called.
// Recovers from panics inside callbacks to avoid crashing the process and signals quit on recovery.
func (e *engine) Run() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Host] loop recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	e.running = true
	wait := time.NewTimer(0)
	defer wait.Stop()

	for e.running {
		if e.window != nil && !e.window.PollEvents() {
			e.signalQuit()
			return
		}
		e.Step()

		delay := e.untilNextEvent()
		if delay <= 0 {
			select {
			case <-e.quitChannel:
				return
			default:
			}
			continue
		}
		if !wait.Stop() {
			select {
			case <-wait.C:
			default:
			}
		}
		wait.Reset(delay)
		select {
		case <-e.quitChannel:
			return
		case <-e.wake:
		case <-wait.C:
		}
	}
}

// untilNextEvent returns how long the loop may sleep before a frame or timer is due.
// Windowed hosts cap the sleep so platform events stay responsive.
func (e *engine) untilNextEvent() time.Duration {
	e.mu.Lock()
	queued := len(e.tasks)
	e.mu.Unlock()
	if queued > 0 {
		return 0
	}

	now := e.clock()
	delay := e.frameInterval - now.Sub(e.lastFrame)
	if len(e.frames) == 0 {
		delay = 100 * time.Millisecond
	}
	for _, t := range e.timers {
		if d := t.next.Sub(now); d < delay {
			delay = d
		}
	}
	if e.window != nil && delay > 4*time.Millisecond {
		delay = 4 * time.Millisecond
	}
	return delay
}

// Quit signals the loop to stop. Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal the loop to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}
