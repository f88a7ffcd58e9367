package bake

import (
	"github.com/Faultbox/strandforge/internal/hair"
	"github.com/Faultbox/strandforge/pkg/formats"
)

// SummarySink collects per-frame statistics and writes a bake summary file
// on Close.
type SummarySink struct {
	path    string
	Summary formats.BakeSummary
}

// NewSummarySink creates a sink writing to path. An empty path only
// collects the summary.
func NewSummarySink(path string, header formats.BakeSummary) *SummarySink {
	header.Frames = nil
	return &SummarySink{path: path, Summary: header}
}

// WriteFrame records the exported data sizes of a frame.
func (s *SummarySink) WriteFrame(st State, cache *hair.ExportCache) error {
	s.Summary.Follicles = len(cache.Follicles)
	s.Summary.Guides = len(cache.Curves)
	s.Summary.Subdivisions = cache.Subdivision()
	s.Summary.Frames = append(s.Summary.Frames, formats.FrameSummary{
		Frame:         st.Frame,
		Curves:        len(cache.Curves),
		Vertices:      cache.TotalVerts,
		FiberVertices: cache.TotalFiberVerts,
		Computed:      st.Computed.String(),
		Bounds:        formats.BoundsOf(cache.FiberRootPositions),
	})
	return nil
}

// Close writes the summary file.
func (s *SummarySink) Close() error {
	if s.path == "" {
		return nil
	}
	return s.Summary.SaveTo(s.path)
}

// FuncSink adapts a function to a FrameSink.
type FuncSink func(st State, cache *hair.ExportCache) error

// WriteFrame calls f.
func (f FuncSink) WriteFrame(st State, cache *hair.ExportCache) error {
	return f(st, cache)
}

// Close does nothing.
func (f FuncSink) Close() error {
	return nil
}
