package formats

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/strandforge/pkg/math"
)

// BakeSummary describes the result of a bake.
type BakeSummary struct {
	Scene        string         `yaml:"scene,omitempty"`
	Subdivisions int            `yaml:"subdivisions"`
	Follicles    int            `yaml:"follicles"`
	Guides       int            `yaml:"guides"`
	Frames       []FrameSummary `yaml:"frames"`
}

// FrameSummary holds the exported data sizes of one frame.
type FrameSummary struct {
	Frame         int    `yaml:"frame"`
	Curves        int    `yaml:"curves"`
	Vertices      int    `yaml:"vertices"`
	FiberVertices int    `yaml:"fiber_vertices"`
	Computed      string `yaml:"computed"`
	Bounds        Bounds `yaml:"bounds"`
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min Vec `yaml:"min,flow"`
	Max Vec `yaml:"max,flow"`
}

// BoundsOf returns the bounding box of points, or the zero box if there
// are none.
func BoundsOf(points []math.Vec3) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}

	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo = math.Vec3{X: min(lo.X, p.X), Y: min(lo.Y, p.Y), Z: min(lo.Z, p.Z)}
		hi = math.Vec3{X: max(hi.X, p.X), Y: max(hi.Y, p.Y), Z: max(hi.Z, p.Z)}
	}
	return Bounds{Min: FromVec3(lo), Max: FromVec3(hi)}
}

// TotalVertices returns the subdivided guide vertex count over all frames.
func (s *BakeSummary) TotalVertices() int {
	total := 0
	for _, f := range s.Frames {
		total += f.Vertices
	}
	return total
}

// ParseBakeSummary parses a bake summary from YAML.
func ParseBakeSummary(data []byte) (*BakeSummary, error) {
	var s BakeSummary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing bake summary: %w", err)
	}
	return &s, nil
}

// SaveTo writes the summary to a file, creating parent directories.
func (s *BakeSummary) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
