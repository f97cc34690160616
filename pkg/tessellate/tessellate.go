// Package tessellate walks a loop graph and produces triangle meshes using
// a curve generator and a mesher. One mesh is produced per stitch.
package tessellate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/knitmesh/internal/logger"
	"github.com/chazu/knitmesh/pkg/curve"
	"github.com/chazu/knitmesh/pkg/graph"
	"github.com/chazu/knitmesh/pkg/kernel"
	"github.com/chazu/knitmesh/pkg/kernel/sdfx"
	"github.com/chazu/knitmesh/pkg/pattern"
	"github.com/chazu/knitmesh/pkg/stitch"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options control assembly.
type Options struct {
	RadialRes int  // points per cross-section ring; 0 uses the pattern's
	Workers   int  // stitches meshed concurrently; <= 1 is sequential
	FailFast  bool // stop at the first failing stitch
}

// Result is the output of Assemble.
type Result struct {
	Meshes   []*kernel.Mesh            `json:"meshes"`
	Graph    *graph.LoopGraph          `json:"-"`
	Warnings []graph.ValidationWarning `json:"warnings,omitempty"`
}

// VertexCount returns the total number of vertices across all meshes.
func (r *Result) VertexCount() int {
	n := 0
	for _, m := range r.Meshes {
		n += m.VertexCount()
	}
	return n
}

// TriangleCount returns the total number of triangles across all meshes.
func (r *Result) TriangleCount() int {
	n := 0
	for _, m := range r.Meshes {
		n += m.TriangleCount()
	}
	return n
}

// RowLift is the vertical offset of row r.
func RowLift(row int, yarnWidth float64) float64 {
	return float64(row) * (2 - 3*yarnWidth)
}

// Assemble builds the loop graph for p once and meshes every stitch. A nil
// catalog uses stitch.Standard and a nil mesher uses the sdfx sweeper.
func Assemble(p *pattern.Pattern, cat *stitch.Catalog, m kernel.Mesher, opts Options) (*Result, error) {
	if p == nil {
		return nil, errors.New("assemble: nil pattern")
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	if m == nil {
		m = sdfx.NewSweeper()
	}
	if opts.RadialRes == 0 {
		opts.RadialRes = p.RadialRes
	}
	start := time.Now()

	g, err := graph.Build(p, cat)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}

	vr := graph.ValidateAll(g)
	if !vr.OK() {
		var errs error
		for _, e := range vr.Errors {
			errs = multierr.Append(errs, e)
		}
		return nil, fmt.Errorf("assemble: invalid loop graph: %w", errs)
	}
	for _, w := range vr.Warnings {
		logger.Warn("pattern warning",
			zap.String("pattern", p.Name),
			zap.Int("row", w.Row),
			zap.Int("column", w.Column),
			zap.String("message", w.Message))
	}

	meshes, err := Tessellate(g, curve.NewGenerator(p.StitchRes), m, opts)
	if err != nil {
		return nil, err
	}

	res := &Result{Meshes: meshes, Graph: g, Warnings: vr.Warnings}
	logger.Debug("pattern assembled",
		zap.String("pattern", p.Name),
		zap.Int("rows", len(g.Rows)),
		zap.Int("stitches", g.StitchCount()),
		zap.Int("meshes", len(meshes)),
		zap.Int("vertices", res.VertexCount()),
		zap.Int("triangles", res.TriangleCount()),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// Tessellate meshes every stitch with at least one strand, in row then
// chart-column order. The graph is read-only here, so stitches may be
// meshed concurrently. Unless opts.FailFast is set every failure is
// collected; no meshes are returned when any stitch failed.
func Tessellate(g *graph.LoopGraph, gen *curve.Generator, m kernel.Mesher, opts Options) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}
	if gen == nil {
		gen = curve.NewGenerator(curve.DefaultResolution)
	}
	if opts.RadialRes == 0 {
		opts.RadialRes = pattern.DefaultRadialRes
	}

	var jobs []*graph.Stitch
	for _, row := range g.Rows {
		for c := range row.Stitches {
			if len(row.Stitches[c].Strands) > 0 {
				jobs = append(jobs, &row.Stitches[c])
			}
		}
	}

	meshes := make([]*kernel.Mesh, len(jobs))
	errs := make([]error, len(jobs))

	if opts.Workers <= 1 {
		for i, st := range jobs {
			meshes[i], errs[i] = meshStitch(g, gen, m, opts.RadialRes, st)
			if errs[i] != nil && opts.FailFast {
				return nil, errs[i]
			}
		}
	} else {
		eg, ctx := errgroup.WithContext(context.Background())
		eg.SetLimit(opts.Workers)
		for i, st := range jobs {
			eg.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				meshes[i], errs[i] = meshStitch(g, gen, m, opts.RadialRes, st)
				if opts.FailFast {
					return errs[i]
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	if err := multierr.Combine(errs...); err != nil {
		logger.Error("tessellation failed",
			zap.Int("failed", len(multierr.Errors(err))),
			zap.Int("stitches", len(jobs)))
		return nil, err
	}
	return meshes, nil
}

// meshStitch sweeps every strand of st and merges the tubes. Strands are
// appended in emission order so later strands stack on top.
func meshStitch(g *graph.LoopGraph, gen *curve.Generator, m kernel.Mesher, radialRes int, st *graph.Stitch) (*kernel.Mesh, error) {
	lift := v3.Vec{Y: RowLift(st.Row, g.YarnWidth)}
	out := &kernel.Mesh{Row: st.Row, Column: st.Column, Tag: string(st.Tag)}
	for k, s := range st.Strands {
		c, err := gen.Generate(curve.Input{
			Behavior:  s.Behavior,
			Kind:      s.Base.Kind,
			Consumed:  []int{s.Anchor()},
			Produced:  []int{s.Produced},
			YarnWidth: g.YarnWidth,
			Hold:      s.Hold,
		})
		if err != nil {
			return nil, fmt.Errorf("stitch %s strand %d: %w", st, k, err)
		}
		tube, err := m.Sweep(c.Translate(lift), g.YarnWidth, radialRes)
		if err != nil {
			return nil, fmt.Errorf("stitch %s strand %d: %w", st, k, err)
		}
		if err := out.Append(tube); err != nil {
			return nil, fmt.Errorf("stitch %s: %w", st, err)
		}
	}
	return out, nil
}
