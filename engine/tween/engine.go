package tween

// engineImpl implements the Engine interface.
type engineImpl struct {
	tweens []Tween
}

// Engine owns and advances a set of tweens. Each stage session has its own engine,
// so tweens never leak across sessions.
type Engine interface {
	// Add starts a tween and returns it.
	//
	// Parameters:
	//   - t: the tween to start
	//
	// Returns:
	//   - Tween: t, for chaining
	Add(t Tween) Tween

	// Update advances every live tween by dt seconds and drops finished or killed ones.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)

	// ActiveCount returns the number of live tweens.
	ActiveCount() int

	// KillAll kills every live tween.
	KillAll()
}

var _ Engine = &engineImpl{}

// NewEngine creates an empty tween engine.
//
// Returns:
//   - Engine: the new engine
func NewEngine() Engine {
	return &engineImpl{}
}

func (e *engineImpl) Add(t Tween) Tween {
	if t != nil && t.Active() {
		e.tweens = append(e.tweens, t)
	}
	return t
}

func (e *engineImpl) Update(dt float32) {
	// Completion callbacks may add tweens; iterate over a snapshot.
	current := e.tweens
	e.tweens = nil
	for _, t := range current {
		t.advance(dt)
	}
	live := e.tweens[:0:0]
	for _, t := range append(current, e.tweens...) {
		if t.Active() {
			live = append(live, t)
		}
	}
	e.tweens = live
}

func (e *engineImpl) ActiveCount() int {
	count := 0
	for _, t := range e.tweens {
		if t.Active() {
			count++
		}
	}
	return count
}

func (e *engineImpl) KillAll() {
	for _, t := range e.tweens {
		t.Kill()
	}
	e.tweens = nil
}
