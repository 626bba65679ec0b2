package profiler

import (
	"log"
	"runtime"
	"time"
)

// FrameStats is the host loop bookkeeping reported alongside frame timing.
type FrameStats struct {
	// PendingFrames is the number of frame callbacks queued for the next frame.
	PendingFrames int

	// ActiveTimers is the number of live interval timers.
	ActiveTimers int

	// TasksRun is the number of posted tasks executed since the previous frame.
	TasksRun int
}

// Profiler tracks frame rate, host loop load and memory statistics.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	tasksRun       int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	now            func() time.Time
}

// NewProfiler creates a new Profiler that reports once per interval.
// Intervals <= 0 default to 1 second.
//
// Parameters:
//   - interval: how often to log
//   - now: clock used to measure elapsed time (nil for time.Now)
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration, now func() time.Time) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &Profiler{
		lastTime:       now(),
		updateInterval: interval,
		now:            now,
	}
}

// Tick should be called once per rendered frame.
// Logs FPS, posted task throughput, pending frame callbacks, timers, heap usage,
// allocation rate and GC pauses when the update interval has elapsed.
//
// Parameters:
//   - stats: the host loop counters for this frame
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(stats FrameStats) bool {
	p.frameCount++
	p.tasksRun += stats.TasksRun
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	seconds := elapsed.Seconds()
	fps := float64(p.frameCount) / seconds
	taskRate := float64(p.tasksRun) / seconds

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / seconds

	gcCount := p.memStats.NumGC
	var maxPauseUs uint64
	start := p.lastGCCount
	if gcCount-start > 256 {
		start = gcCount - 256
	}
	for i := start; i < gcCount; i++ {
		// PauseNs is a circular buffer of the last 256 pauses.
		if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
			maxPauseUs = pause
		}
	}

	log.Printf("[Profiler] FPS: %.2f | Tasks: %.1f/s | Frames pending: %d | Timers: %d | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (max: %d µs)",
		fps, taskRate, stats.PendingFrames, stats.ActiveTimers, allocMB, allocRateMB, gcCount, maxPauseUs)

	p.frameCount = 0
	p.tasksRun = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
