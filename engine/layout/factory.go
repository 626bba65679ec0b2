// Package layout arranges stage sessions for the two ways the catalog is browsed: a lobby
// carousel with one persistent preview and a scrolling gallery whose nearest slot owns the
// only live preview. Both create sessions through the same SessionFactory.
package layout

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-stage/engine"
	"github.com/Carmen-Shannon/oxy-stage/engine/gate"
	"github.com/Carmen-Shannon/oxy-stage/engine/stage"
	"github.com/Carmen-Shannon/oxy-stage/engine/window"
)

// ErrNoDescriptors is returned when a layout is built over an empty catalog.
var ErrNoDescriptors = errors.New("layout needs at least one descriptor")

// SessionFactory creates a stage session on canvas. Options given here are applied after
// the factory's defaults.
type SessionFactory func(canvas window.Canvas, options ...stage.SessionBuilderOption) (stage.Session, error)

// NewSessionFactory binds the host and the resolved capabilities so layouts only choose
// the canvas and per-session options.
//
// Parameters:
//   - host: the loop sessions run on
//   - caps: the capabilities confirmed by the readiness gate
//   - defaults: options applied to every session
//
// Returns:
//   - SessionFactory: the factory
func NewSessionFactory(host engine.Host, caps gate.Capabilities, defaults ...stage.SessionBuilderOption) SessionFactory {
	if host == nil {
		panic("layout: NewSessionFactory requires a host")
	}
	return func(canvas window.Canvas, options ...stage.SessionBuilderOption) (stage.Session, error) {
		all := make([]stage.SessionBuilderOption, 0, len(defaults)+len(options))
		all = append(all, defaults...)
		all = append(all, options...)
		return stage.NewSession(host, canvas, caps, all...)
	}
}
