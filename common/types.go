// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidColor is returned when a hex color string cannot be parsed.
var ErrInvalidColor = errors.New("invalid hex color")

// Color is a linear RGB color with components in [0, 1].
type Color struct {
	R, G, B float32
}

// HexColor builds a Color from a packed 0xRRGGBB value.
//
// Parameters:
//   - hex: the packed color
//
// Returns:
//   - Color: the unpacked color
func HexColor(hex uint32) Color {
	return Color{
		R: float32((hex>>16)&0xFF) / 255,
		G: float32((hex>>8)&0xFF) / 255,
		B: float32(hex&0xFF) / 255,
	}
}

// ParseHexColor parses "#rrggbb", "#rgb" or the same forms without the leading '#'.
//
// Parameters:
//   - s: the color string
//
// Returns:
//   - Color: the parsed color
//   - error: ErrInvalidColor wrapped with the offending input
func ParseHexColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return HexColor(uint32(v)), nil
}

// Vec4 returns the color as RGBA with the given alpha.
func (c Color) Vec4(alpha float32) [4]float32 {
	return [4]float32{c.R, c.G, c.B, alpha}
}

// Scale returns the color multiplied by k.
func (c Color) Scale(k float32) Color {
	return Color{R: c.R * k, G: c.G * k, B: c.B * k}
}

// Box3 is an axis-aligned bounding box. The zero value is not empty;
// use EmptyBox to start accumulating points.
type Box3 struct {
	Min, Max mgl32.Vec3
}

// EmptyBox returns a box that contains nothing; expanding it by a point yields that point.
func EmptyBox() Box3 {
	inf := float32(math.Inf(1))
	return Box3{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box contains no points.
func (b Box3) IsEmpty() bool {
	return b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] || b.Max[2] < b.Min[2]
}

// ExpandByPoint grows the box to include p.
func (b *Box3) ExpandByPoint(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Union grows the box to include o.
func (b *Box3) Union(o Box3) {
	if o.IsEmpty() {
		return
	}
	b.ExpandByPoint(o.Min)
	b.ExpandByPoint(o.Max)
}

// Size returns the box extents, or zero for an empty box.
func (b Box3) Size() mgl32.Vec3 {
	if b.IsEmpty() {
		return mgl32.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box, or zero for an empty box.
func (b Box3) Center() mgl32.Vec3 {
	if b.IsEmpty() {
		return mgl32.Vec3{}
	}
	return b.Min.Add(b.Max).Mul(0.5)
}
