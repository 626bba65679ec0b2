package layout

import (
	"github.com/Carmen-Shannon/oxy-stage/engine/config"
	"github.com/Carmen-Shannon/oxy-stage/engine/stage"
	"github.com/Carmen-Shannon/oxy-stage/engine/unlock"
)

// LobbyBuilderOption is a functional option for configuring a Lobby.
type LobbyBuilderOption func(*lobby)

// WithLobbyQuality sets the initial rendering tier.
//
// Parameters:
//   - q: the quality tier
//
// Returns:
//   - LobbyBuilderOption: option function to apply
func WithLobbyQuality(q config.Quality) LobbyBuilderOption {
	return func(l *lobby) {
		l.quality = q
	}
}

// WithLobbyAutoRotate sets the initial auto-rotate setting.
//
// Parameters:
//   - on: whether clip-less models idle in a spin
//
// Returns:
//   - LobbyBuilderOption: option function to apply
func WithLobbyAutoRotate(on bool) LobbyBuilderOption {
	return func(l *lobby) {
		l.autoRotate = on
	}
}

// WithUnlocked sets the unlocked-avatar set consulted by Equip.
//
// Parameters:
//   - set: the unlocked ids
//
// Returns:
//   - LobbyBuilderOption: option function to apply
func WithUnlocked(set *unlock.Set) LobbyBuilderOption {
	return func(l *lobby) {
		if set != nil {
			l.unlocked = set
		}
	}
}

// WithPurchaseStore persists confirmed purchases.
//
// Parameters:
//   - store: where ConfirmPurchase records unlocked ids
//
// Returns:
//   - LobbyBuilderOption: option function to apply
func WithPurchaseStore(store PurchaseStore) LobbyBuilderOption {
	return func(l *lobby) {
		l.store = store
	}
}

// WithLobbySessionOptions passes extra options, such as callbacks, to every session the lobby creates.
//
// Parameters:
//   - options: session builder options
//
// Returns:
//   - LobbyBuilderOption: option function to apply
func WithLobbySessionOptions(options ...stage.SessionBuilderOption) LobbyBuilderOption {
	return func(l *lobby) {
		l.sessionOptions = append(l.sessionOptions, options...)
	}
}
