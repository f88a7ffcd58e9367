// Package preview renders a top view of a scalp with its hair roots.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/vector"

	"github.com/Faultbox/strandforge/pkg/math"
	"github.com/Faultbox/strandforge/pkg/mesh"
)

// ErrUnknownFormat is returned for output files that are neither PNG nor BMP.
var ErrUnknownFormat = errors.New("unknown image format")

// Colors of the preview.
var (
	Background   = color.RGBA{24, 24, 28, 255}
	ScalpColor   = color.RGBA{90, 90, 100, 255}
	FollicleDot  = color.RGBA{240, 220, 160, 255}
	GuideRootDot = color.RGBA{220, 60, 60, 255}
)

// Options controls the rendered image.
type Options struct {
	Size       int     // Width and height in pixels
	Margin     float32 // Border in pixels
	FollicleSz float32 // Follicle marker size in pixels
	GuideSz    float32 // Guide root marker size in pixels
}

// DefaultOptions returns options for a 512 pixel preview.
func DefaultOptions() Options {
	return Options{
		Size:       512,
		Margin:     16,
		FollicleSz: 2,
		GuideSz:    6,
	}
}

// projection maps the XY plane onto image pixels with Y up.
type projection struct {
	minX, minY float32
	scale      float32
	margin     float32
	size       float32
}

func newProjection(verts []math.Vec3, opts Options) projection {
	p := projection{margin: opts.Margin, size: float32(opts.Size), scale: 1}
	if len(verts) == 0 {
		return p
	}

	minX, minY := verts[0].X, verts[0].Y
	maxX, maxY := minX, minY
	for _, v := range verts[1:] {
		minX, maxX = min(minX, v.X), max(maxX, v.X)
		minY, maxY = min(minY, v.Y), max(maxY, v.Y)
	}
	p.minX, p.minY = minX, minY

	if extent := max(maxX-minX, maxY-minY); extent > 0 {
		p.scale = (p.size - 2*p.margin) / extent
	}
	return p
}

func (p projection) apply(v math.Vec3) (x, y float32) {
	x = p.margin + (v.X-p.minX)*p.scale
	y = p.size - p.margin - (v.Y-p.minY)*p.scale
	return x, y
}

// Render draws the scalp triangles projected onto the XY plane, then a
// marker for every follicle root and guide root.
func Render(scalp *mesh.Mesh, follicles, guides []math.Vec3, opts Options) *image.RGBA {
	size := opts.Size
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	proj := newProjection(scalp.Vertices, opts)
	z := vector.NewRasterizer(size, size)

	for _, tri := range scalp.Triangles() {
		ax, ay := proj.apply(scalp.Vertices[tri.V[0]])
		bx, by := proj.apply(scalp.Vertices[tri.V[1]])
		cx, cy := proj.apply(scalp.Vertices[tri.V[2]])

		// Same winding for all triangles so coverage adds up
		if (bx-ax)*(cy-ay)-(by-ay)*(cx-ax) < 0 {
			bx, by, cx, cy = cx, cy, bx, by
		}
		z.MoveTo(ax, ay)
		z.LineTo(bx, by)
		z.LineTo(cx, cy)
		z.ClosePath()
	}
	z.Draw(img, img.Bounds(), image.NewUniform(ScalpColor), image.Point{})

	drawMarkers(img, z, proj, follicles, opts.FollicleSz, FollicleDot)
	drawMarkers(img, z, proj, guides, opts.GuideSz, GuideRootDot)
	return img
}

func drawMarkers(img *image.RGBA, z *vector.Rasterizer, proj projection, points []math.Vec3, sz float32, c color.Color) {
	if len(points) == 0 || sz <= 0 {
		return
	}

	size := img.Bounds().Dx()
	z.Reset(size, size)
	h := sz / 2
	for _, p := range points {
		x, y := proj.apply(p)
		z.MoveTo(x-h, y-h)
		z.LineTo(x+h, y-h)
		z.LineTo(x+h, y+h)
		z.LineTo(x-h, y+h)
		z.ClosePath()
	}
	z.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})
}

// Encode writes img in the named format, "png" or "bmp".
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteFile writes img to path in the format given by the file extension.
func WriteFile(path string, img image.Image) error {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if format != "png" && format != "bmp" {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
