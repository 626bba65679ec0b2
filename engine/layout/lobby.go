package layout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-stage/common"
	"github.com/Carmen-Shannon/oxy-stage/engine/catalog"
	"github.com/Carmen-Shannon/oxy-stage/engine/config"
	"github.com/Carmen-Shannon/oxy-stage/engine/stage"
	"github.com/Carmen-Shannon/oxy-stage/engine/unlock"
	"github.com/Carmen-Shannon/oxy-stage/engine/window"
)

// ErrUnknownCharacter is returned by ConfirmPurchase for an id not in the catalog.
var ErrUnknownCharacter = errors.New("unknown character")

// EquipResult is the outcome of an equip request.
type EquipResult int

const (
	// EquipSelected means the character is free or already unlocked and is now equipped.
	EquipSelected EquipResult = iota
	// EquipPurchaseRequired means the character is premium and locked.
	EquipPurchaseRequired
)

// String returns a short name for the result.
func (r EquipResult) String() string {
	if r == EquipPurchaseRequired {
		return "purchase-required"
	}
	return "selected"
}

// PurchaseStore persists unlocked avatar ids. *unlock.Store satisfies it.
type PurchaseStore interface {
	Add(ctx context.Context, id string) error
}

// lobby implements the Lobby interface.
type lobby struct {
	factory     SessionFactory
	canvas      window.Canvas
	descriptors []catalog.Descriptor

	index      int
	equipped   string
	session    stage.Session
	quality    config.Quality
	autoRotate bool

	unlocked       *unlock.Set
	store          PurchaseStore
	sessionOptions []stage.SessionBuilderOption
}

// Lobby is the carousel layout: one persistent session cycled through the catalog.
// Every method must be called on the host loop.
type Lobby interface {
	// Select shows descriptor i, wrapped to the catalog size.
	//
	// Parameters:
	//   - i: the descriptor index
	//
	// Returns:
	//   - int: the selected index
	Select(i int) int

	// Next shows the following character.
	//
	// Returns:
	//   - int: the selected index
	Next() int

	// Previous shows the preceding character.
	//
	// Returns:
	//   - int: the selected index
	Previous() int

	// NextAnimation crossfades the preview to its next clip.
	//
	// Returns:
	//   - int: the clip index
	NextAnimation() int

	// PreviousAnimation crossfades the preview to its previous clip.
	//
	// Returns:
	//   - int: the clip index
	PreviousAnimation() int

	// ToggleAutoRotate flips idle rotation for clip-less models.
	//
	// Returns:
	//   - bool: the new setting
	ToggleAutoRotate() bool

	// SetQuality rebuilds the preview at tier q with the same character.
	//
	// Parameters:
	//   - q: the new quality tier
	//
	// Returns:
	//   - error: the session factory's error
	SetQuality(q config.Quality) error

	// Quality returns the current tier.
	Quality() config.Quality

	// Equip equips the selected character if it is free or unlocked.
	//
	// Returns:
	//   - EquipResult: whether a purchase is needed first
	Equip() EquipResult

	// Equipped returns the id of the last equipped character.
	Equipped() string

	// ConfirmPurchase unlocks id, persisting it when a store is configured.
	//
	// Parameters:
	//   - ctx: bounds the store write
	//   - id: the purchased character
	//
	// Returns:
	//   - error: ErrUnknownCharacter or the store's error
	ConfirmPurchase(ctx context.Context, id string) error

	// HandleKey applies the keyboard map: left/right character, up/down clip,
	// R auto-rotate, Q quality, Enter equip, P confirm purchase of the selection.
	//
	// Parameters:
	//   - key: the key code from the window
	//
	// Returns:
	//   - bool: true if the key was handled
	HandleKey(key uint32) bool

	// Index returns the selected descriptor index.
	Index() int

	// Current returns the selected descriptor.
	Current() catalog.Descriptor

	// Session returns the live preview.
	Session() stage.Session

	// Unlocked returns the unlocked-avatar set.
	Unlocked() *unlock.Set

	// Dispose tears down the preview.
	Dispose()
}

var _ Lobby = &lobby{}

// NewLobby creates the carousel over descriptors and starts loading the first one.
//
// Parameters:
//   - factory: builds the preview session
//   - canvas: the canvas the preview renders to
//   - descriptors: the validated catalog
//   - options: functional options for quality, unlocks and session callbacks
//
// Returns:
//   - Lobby: the new lobby
//   - error: ErrNoDescriptors or the session factory's error
func NewLobby(factory SessionFactory, canvas window.Canvas, descriptors []catalog.Descriptor, options ...LobbyBuilderOption) (Lobby, error) {
	if factory == nil || canvas == nil {
		panic("layout: NewLobby requires a session factory and a canvas")
	}
	if len(descriptors) == 0 {
		return nil, ErrNoDescriptors
	}
	l := &lobby{
		factory:     factory,
		canvas:      canvas,
		descriptors: descriptors,
		quality:     config.QualityHigh,
		autoRotate:  true,
		unlocked:    unlock.NewSet(),
	}
	for _, opt := range options {
		opt(l)
	}
	if err := l.rebuild(); err != nil {
		return nil, err
	}
	return l, nil
}

// rebuild replaces the preview session with one at the current settings and reloads the
// selection. Sessions on one canvas each own a surface, so the old session is disposed
// before the new one is created.
func (l *lobby) rebuild() error {
	if l.session != nil {
		l.session.Dispose()
	}
	options := append([]stage.SessionBuilderOption{
		stage.WithQuality(l.quality),
		stage.WithAutoRotate(l.autoRotate),
	}, l.sessionOptions...)
	s, err := l.factory(l.canvas, options...)
	if err != nil {
		return fmt.Errorf("create lobby session: %w", err)
	}
	l.session = s
	s.Load(l.descriptors[l.index])
	return nil
}

func (l *lobby) Select(i int) int {
	i = common.Wrap(i, len(l.descriptors))
	if i == l.index && l.session.Generation() > 0 {
		return i
	}
	l.index = i
	l.session.Load(l.descriptors[i])
	return i
}

func (l *lobby) Next() int {
	return l.Select(l.index + 1)
}

func (l *lobby) Previous() int {
	return l.Select(l.index - 1)
}

func (l *lobby) NextAnimation() int {
	return l.session.Next()
}

func (l *lobby) PreviousAnimation() int {
	return l.session.Previous()
}

func (l *lobby) ToggleAutoRotate() bool {
	l.autoRotate = !l.autoRotate
	l.session.SetAutoRotate(l.autoRotate)
	return l.autoRotate
}

func (l *lobby) SetQuality(q config.Quality) error {
	if q == l.quality {
		return nil
	}
	prev := l.quality
	l.quality = q
	if err := l.rebuild(); err != nil {
		l.quality = prev
		if restoreErr := l.rebuild(); restoreErr != nil {
			return errors.Join(err, restoreErr)
		}
		return err
	}
	log.Printf("[Layout] quality set to %s, preview rebuilt", q)
	return nil
}

func (l *lobby) Quality() config.Quality {
	return l.quality
}

func (l *lobby) Equip() EquipResult {
	d := l.Current()
	if !l.unlocked.Selectable(d) {
		log.Printf("[Layout] %s is premium (%.2f), purchase required", d.ID, d.Price)
		return EquipPurchaseRequired
	}
	l.equipped = d.ID
	log.Printf("[Layout] equipped %s", d.ID)
	return EquipSelected
}

func (l *lobby) Equipped() string {
	return l.equipped
}

func (l *lobby) ConfirmPurchase(ctx context.Context, id string) error {
	if catalog.Find(l.descriptors, id) < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownCharacter, id)
	}
	if l.store != nil {
		if err := l.store.Add(ctx, id); err != nil {
			return fmt.Errorf("confirm purchase of %s: %w", id, err)
		}
	}
	if l.unlocked.Add(id) {
		log.Printf("[Layout] unlocked %s", id)
	}
	return nil
}

func (l *lobby) HandleKey(key uint32) bool {
	switch key {
	case common.KeyLeft:
		l.Previous()
	case common.KeyRight:
		l.Next()
	case common.KeyUp:
		l.PreviousAnimation()
	case common.KeyDown:
		l.NextAnimation()
	case common.KeyR:
		l.ToggleAutoRotate()
	case common.KeyQ:
		if err := l.SetQuality(l.quality.Toggle()); err != nil {
			log.Printf("[Layout] quality toggle failed: %v", err)
		}
	case common.KeyEnter:
		l.Equip()
	case common.KeyP:
		if err := l.ConfirmPurchase(context.Background(), l.Current().ID); err != nil {
			log.Printf("[Layout] purchase failed: %v", err)
		}
	default:
		return false
	}
	return true
}

func (l *lobby) Index() int {
	return l.index
}

func (l *lobby) Current() catalog.Descriptor {
	return l.descriptors[l.index]
}

func (l *lobby) Session() stage.Session {
	return l.session
}

func (l *lobby) Unlocked() *unlock.Set {
	return l.unlocked
}

func (l *lobby) Dispose() {
	if l.session != nil {
		l.session.Dispose()
	}
}
