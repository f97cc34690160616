package main

import (
	"time"

	"github.com/chazu/knitmesh/internal/config"
	"github.com/chazu/knitmesh/internal/logger"
	"github.com/chazu/knitmesh/pkg/engine"
	"github.com/chazu/knitmesh/pkg/kernel"
	"github.com/chazu/knitmesh/pkg/kernel/sdfx"
	"github.com/chazu/knitmesh/pkg/stitch"
	"github.com/chazu/knitmesh/pkg/tessellate"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// colorPalette is a default palette used to tint rows so the courses are
// easy to tell apart in a viewer.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App runs the evaluate, assemble and encode pipeline for one configuration.
type App struct {
	cfg     *config.Config
	engine  *engine.Engine
	catalog *stitch.Catalog
	mesher  kernel.Mesher
}

// MeshData is the JSON-serializable mesh format written for viewers.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Row      int       `json:"row"`
	Column   int       `json:"column"`
	Tag      string    `json:"tag"`
	Strands  int       `json:"strands"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Row     int    `json:"row,omitempty"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
}

// EvalResult is the full result of one evaluation.
type EvalResult struct {
	RunID     string          `json:"run_id"`
	Pattern   string          `json:"pattern,omitempty"`
	Meshes    []MeshData      `json:"meshes"`
	Errors    []EvalErrorData `json:"errors"`
	Warnings  []EvalErrorData `json:"warnings"`
	Vertices  int             `json:"vertices"`
	Triangles int             `json:"triangles"`
}

// NewApp creates an App with the default configuration.
func NewApp() *App {
	return NewAppWithConfig(config.Default())
}

// NewAppWithConfig creates an App whose engine and mesher follow cfg.
func NewAppWithConfig(cfg *config.Config) *App {
	var m kernel.Mesher = sdfx.NewSweeper()
	if cfg.Render.Mesher == config.MesherSolid {
		m = sdfx.NewSolidMesher(cfg.Render.SolidCells)
	}
	return &App{
		cfg:     cfg,
		engine:  engine.NewEngineWithTimeout(cfg.Engine.Timeout),
		catalog: stitch.Standard(),
		mesher:  m,
	}
}

// Evaluate takes pattern source and returns mesh data + errors.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		RunID:    uuid.NewString(),
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
	log := logger.Log.With(zap.String("run_id", result.RunID))
	start := time.Now()

	// Step 1: Evaluate the source into a pattern.
	p, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Error("evaluate fatal error", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Report eval errors.
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		log.Info("evaluation failed", zap.Int("errors", len(evalErrs)))
		return result
	}
	if p == nil {
		log.Debug("source declares no pattern")
		return result
	}

	// Step 3: Fill unset scalars and assemble.
	a.cfg.Render.Apply(p)
	result.Pattern = p.Name

	res, err := tessellate.Assemble(p, a.catalog, a.mesher, tessellate.Options{
		RadialRes: p.RadialRes,
		Workers:   a.cfg.Render.Workers,
		FailFast:  a.cfg.Render.FailFast,
	})
	if err != nil {
		log.Error("assembly failed", zap.String("pattern", p.Name), zap.Error(err))
		for _, e := range multierr.Errors(err) {
			result.Errors = append(result.Errors, EvalErrorData{
				Message: "tessellation failed: " + e.Error(),
			})
		}
		return result
	}

	// Step 4: Convert kernel meshes to the output format.
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Row:     w.Row,
			Column:  w.Column,
			Message: w.String(),
		})
	}
	for _, m := range res.Meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Row:      m.Row,
			Column:   m.Column,
			Tag:      m.Tag,
			Strands:  m.Strands,
			Color:    colorPalette[m.Row%len(colorPalette)],
		})
	}
	result.Vertices = res.VertexCount()
	result.Triangles = res.TriangleCount()

	log.Info("pattern rendered",
		zap.String("pattern", p.Name),
		zap.Int("meshes", len(result.Meshes)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Int("triangles", result.Triangles),
		zap.Duration("elapsed", time.Since(start)))
	return result
}
