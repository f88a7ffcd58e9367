package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/text/message"

	"github.com/Faultbox/strandforge/internal/bake"
	"github.com/Faultbox/strandforge/internal/config"
	"github.com/Faultbox/strandforge/internal/hair"
	"github.com/Faultbox/strandforge/internal/logger"
	"github.com/Faultbox/strandforge/internal/preview"
	"github.com/Faultbox/strandforge/pkg/formats"
	"github.com/Faultbox/strandforge/pkg/math"
	"github.com/Faultbox/strandforge/pkg/mesh"
)

var errMissingScene = errors.New("missing scene file argument")

// loadScene parses a scene file and builds its guides into a new hair system.
func loadScene(args []string) (*formats.Scene, *bake.SceneSource, *hair.System, error) {
	if len(args) < 1 {
		return nil, nil, nil, errMissingScene
	}

	scene, err := formats.ParseSceneFile(args[0])
	if err != nil {
		return nil, nil, nil, err
	}
	source, err := bake.NewSceneSource(scene)
	if err != nil {
		return nil, nil, nil, err
	}

	sys := hair.New()
	if err := bake.LoadGuides(sys, scene); err != nil {
		return nil, nil, nil, err
	}

	logger.Debug("scene loaded",
		zap.String("path", args[0]),
		zap.Int("guides", sys.NumCurves()),
		zap.Int("guide_verts", sys.NumVerts()))
	return scene, source, sys, nil
}

func cmdInfo(p *message.Printer, args []string) error {
	scene, source, sys, err := loadScene(args)
	if err != nil {
		return err
	}
	scalp := source.Rest()
	area := hair.CalcSurfaceArea(scalp)

	name := scene.Name
	if name == "" {
		name = filepath.Base(args[0])
	}

	p.Printf("Scene: %s\n", name)
	p.Printf("Scalp vertices: %d\n", len(scalp.Vertices))
	p.Printf("Scalp faces:    %d (%d triangles)\n", len(scalp.Faces), scalp.NumTriangles())
	p.Printf("Scalp area:     %.4f\n", area)
	p.Printf("Guide curves:   %d\n", sys.NumCurves())
	p.Printf("Guide vertices: %d\n", sys.NumVerts())

	if n := len(scene.Motion); n > 0 {
		p.Printf("Motion keys:    %d (frames %d..%d)\n", n, scene.Motion[0].Frame, scene.Motion[n-1].Frame)
	}

	// Packing limits for a few common spacings
	p.Println()
	p.Println("Min distance    Max follicles")
	for _, d := range []float32{0.001, 0.005, 0.01, 0.05} {
		density := hair.CalcDensityFromMinDistance(d)
		p.Printf("%-15.3f %d\n", d, hair.CalcMaxCountFromDensity(area, density))
	}
	return nil
}

// distribute generates the configured follicles and fills an export cache.
func distribute(cfg *config.Config, sys *hair.System, scalp *mesh.Mesh) (int, *hair.ExportCache, error) {
	h := cfg.Hair

	var count int
	if h.Density > 0 {
		count = sys.GenerateFolliclesDensity(scalp, h.Seed, h.Density, nil)
	} else {
		count = sys.GenerateFollicles(scalp, h.Seed, h.FollicleCount)
	}

	cache := hair.NewExportCache()
	if _, err := cache.Update(sys, h.Subdivisions, scalp, hair.ExportAll); err != nil {
		return 0, nil, err
	}
	return count, cache, nil
}

func cmdDistribute(p *message.Printer, cfg *config.Config, args []string) error {
	_, source, sys, err := loadScene(args)
	if err != nil {
		return err
	}
	scalp := source.Rest()
	h := cfg.Hair

	count, cache, err := distribute(cfg, sys, scalp)
	if err != nil {
		return err
	}

	bound := 0
	parents := 0
	for i := range cache.Follicles {
		f := &cache.Follicles[i]
		if !f.IsBound() {
			continue
		}
		bound++
		for k := 0; k < hair.MaxParents; k++ {
			if f.ParentIndex[k] != hair.StrandIndexNone {
				parents++
			}
		}
	}

	area := hair.CalcSurfaceArea(scalp)
	density := hair.CalcDensityFromCount(area, count)

	p.Printf("Follicles:       %d\n", count)
	p.Printf("Density:         %.2f per unit area\n", density)
	p.Printf("Min distance:    %.5f\n", hair.CalcMinDistanceFromDensity(density))
	p.Printf("Bound:           %d\n", bound)
	if bound > 0 {
		p.Printf("Parents/fiber:   %.2f\n", float64(parents)/float64(bound))
	}
	p.Printf("Subdivisions:    %d\n", h.Subdivisions)
	p.Printf("Guide vertices:  %d\n", cache.TotalVerts)
	p.Printf("Fiber vertices:  %d\n", cache.TotalFiberVerts)
	return nil
}

func cmdBake(p *message.Printer, cfg *config.Config, args []string) error {
	_, source, sys, err := loadScene(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	job := bake.NewJob(sys, source, cfg.Bake.StartFrame, cfg.Bake.EndFrame)
	job.Subdivisions = cfg.Hair.Subdivisions
	job.Follicles = bake.Follicles{
		Count:   cfg.Hair.FollicleCount,
		Density: cfg.Hair.Density,
		Seed:    cfg.Hair.Seed,
	}
	job.AddSink(bake.NewSummarySink(cfg.Bake.SummaryPath, formats.BakeSummary{
		Scene: filepath.Base(args[0]),
	}))
	job.Progress = func(f float32) {
		p.Fprintf(os.Stderr, "\rBaking... %3.0f%%", f*100)
	}

	res, err := job.Run(ctx)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	if res.Stopped {
		p.Printf("Bake stopped after %d frames (last frame %d)\n", res.Frames, res.LastFrame)
	} else {
		p.Printf("Baked %d frames\n", res.Frames)
	}
	p.Printf("Follicles: %d\n", sys.NumFollicles())
	if cfg.Bake.SummaryPath != "" {
		p.Printf("Summary written to %s\n", cfg.Bake.SummaryPath)
	}
	return nil
}

func cmdPreview(p *message.Printer, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: hairtool preview <scene.yaml> <out.png|out.bmp>")
	}
	_, source, sys, err := loadScene(args)
	if err != nil {
		return err
	}
	scalp := source.Rest()

	count, cache, err := distribute(cfg, sys, scalp)
	if err != nil {
		return err
	}

	guides := make([]math.Vec3, len(cache.Curves))
	for i, c := range cache.Curves {
		guides[i] = cache.Verts[c.VertStart].Co
	}

	img := preview.Render(scalp, cache.FiberRootPositions, guides, preview.DefaultOptions())
	if err := preview.WriteFile(args[1], img); err != nil {
		return err
	}

	p.Printf("Rendered %d follicles and %d guides to %s\n", count, len(guides), args[1])
	return nil
}
