package formats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/strandforge/pkg/math"
	"github.com/Faultbox/strandforge/pkg/mesh"
)

// SceneVersion is the scene file version written by this package.
const SceneVersion = 1

// Scene format errors.
var (
	ErrUnsupportedSceneVersion = errors.New("unsupported scene version")
	ErrEmptyScalp              = errors.New("scene has no scalp geometry")
	ErrInvalidGuide            = errors.New("invalid guide curve")
	ErrInvalidMotion           = errors.New("invalid motion key")
)

// Scene is a scalp surface with guide curves and optional rigid motion.
type Scene struct {
	Version int          `yaml:"version"`
	Name    string       `yaml:"name,omitempty"`
	Scalp   SceneMesh    `yaml:"scalp"`
	Guides  []SceneGuide `yaml:"guides,omitempty"`
	Motion  []MotionKey  `yaml:"motion,omitempty"`
}

// SceneMesh is polygon geometry. Normals are optional, one per vertex.
type SceneMesh struct {
	Vertices []Vec   `yaml:"vertices"`
	Normals  []Vec   `yaml:"normals,omitempty"`
	Faces    [][]int `yaml:"faces"`
}

// SceneGuide is a guide curve rooted at a surface sample. Points are in
// scalp space; the first point is moved onto the root when exporting.
type SceneGuide struct {
	Triangle       int     `yaml:"triangle"`
	Bary           Vec     `yaml:"bary,flow"`
	TaperLength    float32 `yaml:"taper_length,omitempty"`
	TaperThickness float32 `yaml:"taper_thickness,omitempty"`
	Points         []Vec   `yaml:"points"`
}

// MotionKey translates the scalp at a frame.
type MotionKey struct {
	Frame     int `yaml:"frame"`
	Translate Vec `yaml:"translate,flow"`
}

// Sample returns the surface sample of the guide root.
func (g *SceneGuide) Sample() mesh.Sample {
	return mesh.Sample{Tri: g.Triangle, Bary: g.Bary}
}

// Validate checks the scene structure and reports every problem found.
// Face indices are checked when the mesh is built.
func (s *Scene) Validate() error {
	var err error
	if s.Version != SceneVersion {
		err = multierr.Append(err, fmt.Errorf("%w: %d", ErrUnsupportedSceneVersion, s.Version))
	}
	if len(s.Scalp.Vertices) == 0 || len(s.Scalp.Faces) == 0 {
		err = multierr.Append(err, ErrEmptyScalp)
	}
	if n := len(s.Scalp.Normals); n != 0 && n != len(s.Scalp.Vertices) {
		err = multierr.Append(err, fmt.Errorf("scalp has %d normals for %d vertices", n, len(s.Scalp.Vertices)))
	}

	for i, g := range s.Guides {
		if len(g.Points) == 0 {
			err = multierr.Append(err, fmt.Errorf("%w %d: no points", ErrInvalidGuide, i))
		}
		if g.Triangle < 0 {
			err = multierr.Append(err, fmt.Errorf("%w %d: triangle %d", ErrInvalidGuide, i, g.Triangle))
		}
		for k, w := range g.Bary {
			if w < 0 {
				err = multierr.Append(err, fmt.Errorf("%w %d: negative barycentric weight %d", ErrInvalidGuide, i, k))
				break
			}
		}
	}

	for i := 1; i < len(s.Motion); i++ {
		if s.Motion[i].Frame <= s.Motion[i-1].Frame {
			err = multierr.Append(err, fmt.Errorf("%w: frame %d after %d", ErrInvalidMotion, s.Motion[i].Frame, s.Motion[i-1].Frame))
		}
	}
	return err
}

// ScalpMesh builds the scalp surface in its rest position.
func (s *Scene) ScalpMesh() (*mesh.Mesh, error) {
	verts := toVec3s(s.Scalp.Vertices)
	if len(s.Scalp.Normals) != 0 {
		return mesh.NewWithNormals(verts, toVec3s(s.Scalp.Normals), s.Scalp.Faces)
	}
	return mesh.New(verts, s.Scalp.Faces)
}

// Translation returns the scalp offset at a frame. Offsets are interpolated
// linearly between keys and held constant outside the keyed range.
func (s *Scene) Translation(frame int) math.Vec3 {
	keys := s.Motion
	if len(keys) == 0 {
		return math.Vec3{}
	}

	i := sort.Search(len(keys), func(i int) bool { return keys[i].Frame >= frame })
	switch {
	case i == 0:
		return keys[0].Translate.Vec3()
	case i == len(keys):
		return keys[len(keys)-1].Translate.Vec3()
	case keys[i].Frame == frame:
		return keys[i].Translate.Vec3()
	}

	a, b := keys[i-1], keys[i]
	t := float32(frame-a.Frame) / float32(b.Frame-a.Frame)
	return math.LerpVec3(a.Translate.Vec3(), b.Translate.Vec3(), t)
}

// ParseScene parses a scene from YAML.
func ParseScene(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scene: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseSceneFile parses a scene file from disk.
func ParseSceneFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	return ParseScene(data)
}

// Marshal encodes the scene as YAML.
func (s *Scene) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// SaveTo writes the scene to a file, creating parent directories.
func (s *Scene) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := s.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
