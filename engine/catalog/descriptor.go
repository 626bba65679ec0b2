package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/Carmen-Shannon/oxy-stage/common"
)

// Validation errors. Wrapped with the offending descriptor id.
var (
	ErrMissingID        = errors.New("descriptor id is required")
	ErrMissingModelPath = errors.New("descriptor modelPath is required")
	ErrSkillOutOfRange  = errors.New("skill value must be within 0..100")
	ErrDuplicateID      = errors.New("duplicate descriptor id")
	ErrNotValidated     = errors.New("descriptor has not been validated")
)

// AssetKind is the closed set of model formats a descriptor can reference.
// It is fixed once by Validate; the zero value means "not validated".
type AssetKind int

const (
	// AssetUnknown marks a descriptor that has not gone through Validate.
	AssetUnknown AssetKind = iota
	// AssetGLTF is a glTF 2.0 asset (.gltf or .glb).
	AssetGLTF
	// AssetSkeletal is a skeletal-animation asset handled by the alternate parser (FBX).
	AssetSkeletal
)

// String returns a short name for the kind.
func (k AssetKind) String() string {
	switch k {
	case AssetGLTF:
		return "gltf"
	case AssetSkeletal:
		return "skeletal"
	default:
		return "unknown"
	}
}

// Vec3 is a placement offset.
type Vec3 struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

// Descriptor is one selectable character. Treat it as immutable once validated.
type Descriptor struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Role      string         `yaml:"role"`
	Skills    map[string]int `yaml:"skills"`
	Specialty string         `yaml:"specialty"`
	Color     string         `yaml:"color"`
	ModelPath string         `yaml:"modelPath"`
	IsPremium bool           `yaml:"isPremium"`
	Price     float64        `yaml:"price"`
	Position  *Vec3          `yaml:"position,omitempty"`

	kind  AssetKind
	color common.Color
}

// Asset returns the model format decided by Validate.
func (d Descriptor) Asset() AssetKind {
	return d.kind
}

// RGB returns the parsed descriptor color. Only meaningful after Validate.
func (d Descriptor) RGB() common.Color {
	return d.color
}

// Offset returns the placement offset, zero when none is set.
func (d Descriptor) Offset() Vec3 {
	if d.Position == nil {
		return Vec3{}
	}
	return *d.Position
}

// Validate checks the descriptor and returns a copy with its asset kind and color resolved.
//
// Parameters:
//   - d: the descriptor as supplied by the dataset
//
// Returns:
//   - Descriptor: the validated descriptor
//   - error: a wrapped validation error
func Validate(d Descriptor) (Descriptor, error) {
	if strings.TrimSpace(d.ID) == "" {
		return Descriptor{}, ErrMissingID
	}
	if strings.TrimSpace(d.ModelPath) == "" {
		return Descriptor{}, fmt.Errorf("%s: %w", d.ID, ErrMissingModelPath)
	}
	c, err := common.ParseHexColor(d.Color)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%s: %w", d.ID, err)
	}
	for name, v := range d.Skills {
		if v < 0 || v > 100 {
			return Descriptor{}, fmt.Errorf("%s: skill %q=%d: %w", d.ID, name, v, ErrSkillOutOfRange)
		}
	}

	out := d
	out.Skills = make(map[string]int, len(d.Skills))
	for k, v := range d.Skills {
		out.Skills[k] = v
	}
	if d.Position != nil {
		p := *d.Position
		out.Position = &p
	}
	out.color = c
	out.kind = ClassifyModelPath(d.ModelPath)
	return out, nil
}

// ClassifyModelPath maps a model URI to its asset kind by the extension of its path.
// Query strings and fragments are ignored; matching is case-insensitive.
//
// Parameters:
//   - modelPath: the model URI or file path
//
// Returns:
//   - AssetKind: AssetGLTF for .glb/.gltf, AssetSkeletal otherwise
func ClassifyModelPath(modelPath string) AssetKind {
	p := modelPath
	if u, err := url.Parse(modelPath); err == nil && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".glb", ".gltf":
		return AssetGLTF
	default:
		return AssetSkeletal
	}
}
