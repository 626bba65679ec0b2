package stage

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-stage/common"
	"github.com/Carmen-Shannon/oxy-stage/engine/config"
)

func TestRigGroundMaterial(t *testing.T) {
	for _, q := range []config.Quality{config.QualityHigh, config.QualityLow} {
		r := buildRig(q)
		mesh := r.ground.Meshes[0]
		m := mesh.Material
		if m.Color != common.HexColor(groundColor) {
			t.Errorf("%s: ground color = %v", q, m.Color)
		}
		if m.Roughness != 0.9 || m.Metalness != 0.1 {
			t.Errorf("%s: ground roughness/metalness = %v/%v, want 0.9/0.1", q, m.Roughness, m.Metalness)
		}
		if mesh.ReceiveShadow != q.Shadows() {
			t.Errorf("%s: ground receives shadows = %v", q, mesh.ReceiveShadow)
		}
	}
}
