package bake

import (
	"fmt"

	"github.com/Faultbox/strandforge/internal/hair"
	"github.com/Faultbox/strandforge/pkg/formats"
	"github.com/Faultbox/strandforge/pkg/mesh"
)

// SceneSource moves the scalp of a scene file along its motion keys.
type SceneSource struct {
	scene *formats.Scene
	rest  *mesh.Mesh
}

// NewSceneSource builds the rest scalp of a scene.
func NewSceneSource(scene *formats.Scene) (*SceneSource, error) {
	rest, err := scene.ScalpMesh()
	if err != nil {
		return nil, fmt.Errorf("building scalp: %w", err)
	}
	return &SceneSource{scene: scene, rest: rest}, nil
}

// Rest returns the scalp in its rest position.
func (s *SceneSource) Rest() *mesh.Mesh {
	return s.rest
}

// Scalp returns the scalp translated to its position at frame.
func (s *SceneSource) Scalp(frame int) (*mesh.Mesh, error) {
	offset := s.scene.Translation(frame)
	if offset.IsZero() {
		return s.rest, nil
	}
	return s.rest.Translated(offset), nil
}

// LoadGuides replaces the guide curves of sys with those of a scene.
func LoadGuides(sys *hair.System, scene *formats.Scene) error {
	sys.BeginFiberCurves(len(scene.Guides))
	for i := range scene.Guides {
		g := &scene.Guides[i]
		if err := sys.SetFiberCurve(i, g.Sample(), len(g.Points), g.TaperLength, g.TaperThickness); err != nil {
			return fmt.Errorf("guide %d: %w", i, err)
		}
	}
	sys.EndFiberCurves()

	data := sys.CurveData()
	for i := range scene.Guides {
		start := data.Curves[i].VertStart
		for k, p := range scene.Guides[i].Points {
			if err := sys.SetFiberVertex(start+k, 0, p.Vec3()); err != nil {
				return fmt.Errorf("guide %d: %w", i, err)
			}
		}
	}
	return nil
}
