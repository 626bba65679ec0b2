package tween

import "github.com/tanema/gween/ease"

// Ease maps elapsed time t of duration d onto a value that starts at b and changes by c.
type Ease = ease.TweenFunc

var (
	// Linear applies no easing.
	Linear Ease = ease.Linear

	// Power2Out decelerates with a cubic curve (fast start, slow finish).
	Power2Out Ease = ease.OutCubic

	// Power2In accelerates with a cubic curve.
	Power2In Ease = ease.InCubic
)
