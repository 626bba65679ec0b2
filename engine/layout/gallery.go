package layout

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/Carmen-Shannon/oxy-stage/common"
	"github.com/Carmen-Shannon/oxy-stage/engine"
	"github.com/Carmen-Shannon/oxy-stage/engine/catalog"
	"github.com/Carmen-Shannon/oxy-stage/engine/config"
	"github.com/Carmen-Shannon/oxy-stage/engine/stage"
	"github.com/Carmen-Shannon/oxy-stage/engine/window"
	"github.com/charmbracelet/harmonica"
)

// Gallery scroll defaults.
const (
	DefaultScrollFPS       = 60
	DefaultScrollFrequency = 6.0
	DefaultScrollDamping   = 1.0
	// DefaultScrollStep is how many slots one wheel notch moves the target.
	DefaultScrollStep float32 = 0.5
)

// gallery implements the Gallery interface.
type gallery struct {
	host        engine.Host
	factory     SessionFactory
	canvas      window.Canvas
	descriptors []catalog.Descriptor

	spring   harmonica.Spring
	position float64
	velocity float64
	target   float64
	step     float32

	active  int
	session stage.Session

	quality        config.Quality
	autoRotate     bool
	sessionOptions []stage.SessionBuilderOption

	frame     engine.FrameHandle
	scheduled bool
	disposed  bool
}

// Gallery is the scrolling layout: one slot per descriptor, with only the slot nearest the
// scroll position holding a live session. Every method must be called on the host loop.
type Gallery interface {
	// Scroll moves the scroll target by one wheel delta (positive scrolls back).
	//
	// Parameters:
	//   - delta: wheel delta from the window
	Scroll(delta float32)

	// ScrollTo sets the scroll target to slot i, clamped to the catalog.
	//
	// Parameters:
	//   - i: the slot index
	ScrollTo(i int)

	// Tick advances the scroll spring by one frame and activates the nearest slot.
	Tick()

	// HandleKey maps up/left to the previous slot and down/right to the next one.
	HandleKey(key uint32) bool

	// Position returns the eased scroll position in slots.
	Position() float32

	// Target returns the scroll target in slots.
	Target() float32

	// Active returns the index of the slot holding the session.
	Active() int

	// Session returns the live preview.
	Session() stage.Session

	// Dispose stops scrolling and tears down the preview.
	Dispose()
}

var _ Gallery = &gallery{}

// NewGallery creates the gallery, shows the first slot and starts easing on host frames.
//
// Parameters:
//   - host: the loop the scroll spring ticks on
//   - factory: builds each slot's session
//   - canvas: the canvas previews render to
//   - descriptors: the validated catalog
//   - options: functional options for the spring, quality and session callbacks
//
// Returns:
//   - Gallery: the new gallery
//   - error: ErrNoDescriptors or the session factory's error
func NewGallery(host engine.Host, factory SessionFactory, canvas window.Canvas, descriptors []catalog.Descriptor, options ...GalleryBuilderOption) (Gallery, error) {
	if host == nil || factory == nil || canvas == nil {
		panic("layout: NewGallery requires a host, a session factory and a canvas")
	}
	if len(descriptors) == 0 {
		return nil, ErrNoDescriptors
	}
	g := &gallery{
		host:        host,
		factory:     factory,
		canvas:      canvas,
		descriptors: descriptors,
		spring:      harmonica.NewSpring(harmonica.FPS(DefaultScrollFPS), DefaultScrollFrequency, DefaultScrollDamping),
		step:        DefaultScrollStep,
		quality:     config.QualityHigh,
		autoRotate:  true,
	}
	for _, opt := range options {
		opt(g)
	}
	if err := g.activate(0); err != nil {
		return nil, err
	}
	g.schedule()
	return g, nil
}

func (g *gallery) schedule() {
	g.frame = g.host.RequestFrame(func(time.Time) {
		g.scheduled = false
		if g.disposed {
			return
		}
		g.Tick()
		g.schedule()
	})
	g.scheduled = true
}

func (g *gallery) Scroll(delta float32) {
	g.setTarget(g.target - float64(delta*g.step))
}

func (g *gallery) ScrollTo(i int) {
	g.setTarget(float64(i))
}

func (g *gallery) setTarget(t float64) {
	g.target = math.Max(0, math.Min(t, float64(len(g.descriptors)-1)))
}

func (g *gallery) Tick() {
	if g.disposed {
		return
	}
	g.position, g.velocity = g.spring.Update(g.position, g.velocity, g.target)
	nearest := int(math.Round(g.position))
	nearest = max(0, min(nearest, len(g.descriptors)-1))
	if nearest == g.active {
		return
	}
	if err := g.activate(nearest); err != nil {
		log.Printf("[Layout] gallery slot %d: %v", nearest, err)
	}
}

// activate moves the single live session to slot i. The previous session releases its
// surface first. A failed slot stays active without a preview until the user moves on.
func (g *gallery) activate(i int) error {
	if g.session != nil {
		g.session.Dispose()
	}
	g.active = i
	options := append([]stage.SessionBuilderOption{
		stage.WithQuality(g.quality),
		stage.WithAutoRotate(g.autoRotate),
	}, g.sessionOptions...)
	s, err := g.factory(g.canvas, options...)
	if err != nil {
		return fmt.Errorf("create gallery session: %w", err)
	}
	g.session = s
	s.Load(g.descriptors[i])
	log.Printf("[Layout] gallery slot %d active (%s)", i, g.descriptors[i].ID)
	return nil
}

func (g *gallery) HandleKey(key uint32) bool {
	switch key {
	case common.KeyUp, common.KeyLeft:
		g.ScrollTo(int(math.Round(g.target)) - 1)
	case common.KeyDown, common.KeyRight:
		g.ScrollTo(int(math.Round(g.target)) + 1)
	default:
		return false
	}
	return true
}

func (g *gallery) Position() float32 {
	return float32(g.position)
}

func (g *gallery) Target() float32 {
	return float32(g.target)
}

func (g *gallery) Active() int {
	return g.active
}

func (g *gallery) Session() stage.Session {
	return g.session
}

func (g *gallery) Dispose() {
	if g.disposed {
		return
	}
	g.disposed = true
	if g.scheduled {
		g.host.CancelFrame(g.frame)
		g.scheduled = false
	}
	if g.session != nil {
		g.session.Dispose()
	}
}
