package animator

import "math"

// fade is a linear weight ramp.
type fade struct {
	from, to float32
	elapsed  float32
	duration float32
}

// actionImpl implements the Action interface.
type actionImpl struct {
	clip *Clip

	time    float32
	weight  float32
	fading  *fade
	enabled bool
	running bool
}

// Action is the playback state of one clip on one mixer: time, weight and fades.
// Methods return the action so calls can be chained.
type Action interface {
	// Clip returns the clip this action plays.
	Clip() *Clip

	// Play starts the action. Playing a running action has no effect.
	Play() Action

	// Stop halts the action and rewinds it.
	Stop() Action

	// Reset rewinds time, re-enables the action, cancels any fade and restores full weight.
	Reset() Action

	// FadeIn ramps the weight from 0 to 1 over duration seconds.
	FadeIn(duration float32) Action

	// FadeOut ramps the weight from its current value to 0 over duration seconds,
	// then disables the action.
	FadeOut(duration float32) Action

	// Weight returns the effective blend weight; 0 when stopped or disabled.
	Weight() float32

	// Time returns the local playback time in seconds.
	Time() float32

	// IsRunning reports whether the action is playing and enabled.
	IsRunning() bool

	// IsFading reports whether a weight ramp is in progress.
	IsFading() bool
}

var _ Action = &actionImpl{}

func (a *actionImpl) Clip() *Clip {
	return a.clip
}

func (a *actionImpl) Play() Action {
	a.running = true
	a.enabled = true
	return a
}

func (a *actionImpl) Stop() Action {
	a.running = false
	a.time = 0
	a.fading = nil
	return a
}

func (a *actionImpl) Reset() Action {
	a.time = 0
	a.enabled = true
	a.fading = nil
	a.weight = 1
	return a
}

func (a *actionImpl) FadeIn(duration float32) Action {
	return a.scheduleFade(duration, 0, 1)
}

func (a *actionImpl) FadeOut(duration float32) Action {
	return a.scheduleFade(duration, a.weight, 0)
}

func (a *actionImpl) scheduleFade(duration, from, to float32) Action {
	if duration <= 0 {
		a.fading = nil
		a.setWeightFinal(to)
		return a
	}
	a.weight = from
	a.fading = &fade{from: from, to: to, duration: duration}
	return a
}

func (a *actionImpl) setWeightFinal(w float32) {
	a.weight = w
	if w == 0 {
		a.enabled = false
	}
}

func (a *actionImpl) Weight() float32 {
	if !a.running || !a.enabled {
		return 0
	}
	return a.weight
}

func (a *actionImpl) Time() float32 {
	return a.time
}

func (a *actionImpl) IsRunning() bool {
	return a.running && a.enabled
}

func (a *actionImpl) IsFading() bool {
	return a.fading != nil
}

// advance moves the fade and the playback clock forward by dt seconds.
func (a *actionImpl) advance(dt float32) {
	if f := a.fading; f != nil {
		f.elapsed += dt
		progress := f.elapsed / f.duration
		if progress >= 1 {
			a.fading = nil
			a.setWeightFinal(f.to)
		} else {
			a.weight = f.from + (f.to-f.from)*progress
		}
	}

	a.time += dt
	if d := a.clip.Duration; d > 0 && a.time >= d {
		a.time = float32(math.Mod(float64(a.time), float64(d)))
	}
}
