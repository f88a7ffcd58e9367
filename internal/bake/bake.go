// Package bake drives the hair export over a frame range.
package bake

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/strandforge/internal/hair"
	"github.com/Faultbox/strandforge/internal/logger"
	"github.com/Faultbox/strandforge/pkg/mesh"
)

// Bake errors.
var (
	ErrFrameRange = errors.New("end frame before start frame")
	ErrNoSource   = errors.New("bake job has no frame source")
)

// FrameSource provides the scalp surface for a frame.
type FrameSource interface {
	Scalp(frame int) (*mesh.Mesh, error)
}

// FrameSink receives the export cache after every baked frame.
type FrameSink interface {
	WriteFrame(st State, cache *hair.ExportCache) error
	Close() error
}

// State is the bake state seen by sinks for the current frame.
type State struct {
	Frame int

	// Initial is set on the first frame, when follicles are generated.
	Initial bool

	// Baking is set on every frame after the first one.
	Baking bool

	// Computed holds the categories recomputed for this frame.
	Computed hair.ExportData
}

// Follicles configures follicle generation on the first frame. A positive
// Density takes precedence over Count. With neither set the follicles of
// the system are kept.
type Follicles struct {
	Count   int
	Density float32
	Seed    uint32
}

// Job bakes a hair system over an inclusive frame range.
type Job struct {
	StartFrame   int
	EndFrame     int
	Subdivisions int
	Follicles    Follicles

	System *hair.System
	Source FrameSource
	Sinks  []FrameSink

	// Progress is called with the completed fraction, starting at 0.
	Progress func(float32)

	cache *hair.ExportCache
	state State
}

// Result summarizes a finished bake.
type Result struct {
	Frames    int  // Frames written
	LastFrame int  // Last frame written
	Stopped   bool // Context cancelled before the end frame
}

// NewJob creates a bake job for a hair system.
func NewJob(sys *hair.System, source FrameSource, start, end int) *Job {
	return &Job{
		StartFrame: start,
		EndFrame:   end,
		System:     sys,
		Source:     source,
	}
}

// AddSink appends a frame sink.
func (j *Job) AddSink(s FrameSink) {
	j.Sinks = append(j.Sinks, s)
}

// State returns the state of the frame being or last baked.
func (j *Job) State() State {
	return j.state
}

// Cache returns the export cache of the job. It is nil before Run.
func (j *Job) Cache() *hair.ExportCache {
	return j.cache
}

// Run bakes all frames. The context is checked between frames; a cancelled
// bake returns the frames written so far with Stopped set and no error.
// Sinks are closed when Run returns.
func (j *Job) Run(ctx context.Context) (res Result, err error) {
	log := logger.Named("bake")

	defer func() {
		for _, s := range j.Sinks {
			err = multierr.Append(err, s.Close())
		}
	}()

	if j.Source == nil {
		return res, ErrNoSource
	}
	if j.EndFrame < j.StartFrame {
		return res, fmt.Errorf("%w: %d..%d", ErrFrameRange, j.StartFrame, j.EndFrame)
	}
	if j.System == nil {
		j.System = hair.New()
	}

	j.cache = hair.NewExportCache()
	j.state = State{}
	total := j.EndFrame - j.StartFrame + 1

	log.Info("bake started",
		zap.Int("start", j.StartFrame),
		zap.Int("end", j.EndFrame),
		zap.Int("subdivisions", j.Subdivisions))
	j.setProgress(0)

	for frame := j.StartFrame; frame <= j.EndFrame; frame++ {
		if ctx.Err() != nil {
			res.Stopped = true
			log.Info("bake stopped", zap.Int("frame", frame), zap.Error(ctx.Err()))
			break
		}

		initial := frame == j.StartFrame
		j.state = State{Frame: frame, Initial: initial, Baking: !initial}

		if err := j.bakeFrame(); err != nil {
			return res, fmt.Errorf("frame %d: %w", frame, err)
		}

		res.Frames++
		res.LastFrame = frame

		log.Info("baked frame",
			zap.Int("frame", frame),
			zap.Stringer("computed", j.state.Computed),
			zap.Int("curves", len(j.cache.Curves)),
			zap.Int("fiber_verts", j.cache.TotalFiberVerts))
		j.setProgress(float32(res.Frames) / float32(total))
	}

	j.state.Baking = false
	return res, nil
}

func (j *Job) bakeFrame() error {
	scalp, err := j.Source.Scalp(j.state.Frame)
	if err != nil {
		return fmt.Errorf("scalp: %w", err)
	}

	if j.state.Initial {
		j.initFollicles(scalp)
	} else {
		// The scalp moved: everything anchored to it is stale
		j.cache.Invalidate(hair.ExportFiberRootPositions | hair.ExportFiberVertices)
	}

	computed, err := j.cache.Update(j.System, j.Subdivisions, scalp, hair.ExportAll)
	if err != nil {
		return err
	}
	j.state.Computed = computed

	for _, s := range j.Sinks {
		if err := s.WriteFrame(j.state, j.cache); err != nil {
			return fmt.Errorf("writing frame: %w", err)
		}
	}
	return nil
}

func (j *Job) initFollicles(scalp *mesh.Mesh) {
	f := j.Follicles
	switch {
	case f.Density > 0:
		j.System.GenerateFolliclesDensity(scalp, f.Seed, f.Density, nil)
	case f.Count > 0:
		j.System.GenerateFollicles(scalp, f.Seed, f.Count)
	}
}

func (j *Job) setProgress(p float32) {
	if j.Progress != nil {
		j.Progress(p)
	}
}
