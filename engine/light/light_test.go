package light

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-stage/common"
)

func TestNewLightDefaults(t *testing.T) {
	l := NewLight(LightTypeAmbient)
	if l.Color() != (common.Color{R: 1, G: 1, B: 1}) || l.Intensity() != 1 {
		t.Fatalf("color %+v intensity %v", l.Color(), l.Intensity())
	}
	if l.CastsShadows() || l.ShadowMapSize() != 0 {
		t.Fatal("lights should not cast shadows by default")
	}
}

func TestOnlyDirectionalLightsCastShadows(t *testing.T) {
	ambient := NewLight(LightTypeAmbient, WithShadows(ShadowMapResolutionHigh))
	if ambient.CastsShadows() || ambient.ShadowMapSize() != 0 {
		t.Fatal("ambient light must not cast shadows")
	}

	key := NewLight(LightTypeDirectional, WithShadows(ShadowMapResolutionHigh))
	if !key.CastsShadows() || key.ShadowMapSize() != ShadowMapResolutionHigh {
		t.Fatalf("key light shadows = %v size %d", key.CastsShadows(), key.ShadowMapSize())
	}

	off := NewLight(LightTypeDirectional, WithShadows(0))
	if off.CastsShadows() {
		t.Fatal("a zero map size disables shadows")
	}
}

func TestDirectionIsNormalized(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithPosition(3, 0, 4), WithColor(0xff8800), WithIntensity(2.5))
	d := l.Direction()
	if math.Abs(float64(d[0]-0.6)) > 1e-5 || math.Abs(float64(d[2]-0.8)) > 1e-5 {
		t.Fatalf("direction = %v", d)
	}
	if l.Position() != [3]float32{3, 0, 4} || l.Intensity() != 2.5 || l.Color() != common.HexColor(0xff8800) {
		t.Fatal("options not applied")
	}
	if NewLight(LightTypeDirectional).Direction() != [3]float32{0, 1, 0} {
		t.Fatal("a light at the origin should shine straight down")
	}
}
