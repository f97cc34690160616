package main

import (
	"os"
	"testing"

	"github.com/google/uuid"
)

// TestE2ECableExample exercises the full pipeline: Lisp source → engine →
// pattern → loop graph → tessellate → meshes.
func TestE2ECableExample(t *testing.T) {
	app := NewApp()

	source, err := os.ReadFile("examples/cable.knit")
	if err != nil {
		t.Fatalf("failed to read cable.knit: %v", err)
	}

	result := app.Evaluate(string(source))

	// No errors expected.
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	if result.Pattern != "cable" {
		t.Errorf("pattern = %q, want cable", result.Pattern)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}

	// 12 rows of 12 stitches, except the two crossing rows where one cable
	// cell replaces four knits.
	if len(result.Meshes) != 10*12+2*9 {
		t.Fatalf("expected %d meshes, got %d", 10*12+2*9, len(result.Meshes))
	}

	cables := 0
	for _, m := range result.Meshes {
		if len(m.Vertices) == 0 || len(m.Normals) == 0 || len(m.Indices) == 0 {
			t.Errorf("stitch %s@%d:%d: empty geometry", m.Tag, m.Row, m.Column)
		}
		if m.Color == "" {
			t.Errorf("stitch %s@%d:%d: no color assigned", m.Tag, m.Row, m.Column)
		}
		if m.Tag == "c2over2b" {
			cables++
			if m.Strands != 4 || len(m.Vertices) != 4*320*3 {
				t.Errorf("cable at row %d: %d strands, %d vertex floats", m.Row, m.Strands, len(m.Vertices))
			}
		}
	}
	if cables != 2 {
		t.Errorf("cable meshes = %d, want 2", cables)
	}
	if result.Triangles == 0 || result.Vertices == 0 {
		t.Errorf("totals = %d vertices, %d triangles", result.Vertices, result.Triangles)
	}
	if _, err := uuid.Parse(result.RunID); err != nil {
		t.Errorf("run id %q: %v", result.RunID, err)
	}
}

// TestE2EEyeletExample checks yarn overs and decreases through the DSL.
func TestE2EEyeletExample(t *testing.T) {
	source, err := os.ReadFile("examples/eyelet.knit")
	if err != nil {
		t.Fatalf("failed to read eyelet.knit: %v", err)
	}
	result := NewApp().Evaluate(string(source))
	if len(result.Errors) > 0 {
		t.Fatalf("errors: %v", result.Errors)
	}
	if len(result.Meshes) != 24 {
		t.Fatalf("expected 24 meshes, got %d", len(result.Meshes))
	}
	for _, m := range result.Meshes {
		want := 1
		if m.Tag == "k2tog" || m.Tag == "ssk" {
			want = 2
		}
		if m.Strands != want {
			t.Errorf("%s@%d:%d strands = %d, want %d", m.Tag, m.Row, m.Column, m.Strands, want)
		}
	}
}

// TestE2ESwatchUsesConfigDefaults checks that unset scalars come from config.
func TestE2ESwatchUsesConfigDefaults(t *testing.T) {
	source, err := os.ReadFile("examples/swatch.knit")
	if err != nil {
		t.Fatalf("failed to read swatch.knit: %v", err)
	}
	result := NewApp().Evaluate(string(source))
	if len(result.Errors) > 0 {
		t.Fatalf("errors: %v", result.Errors)
	}
	if len(result.Meshes) != 24 {
		t.Fatalf("expected 24 meshes, got %d", len(result.Meshes))
	}
	// Default stitch resolution 40 and radial resolution 8.
	if got := len(result.Meshes[0].Vertices) / 3; got != 320 {
		t.Errorf("vertices = %d, want 320", got)
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	app := NewApp()
	result := app.Evaluate(`(pattern "test"`)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

// TestE2ESingleStitch ensures a one-stitch chart renders one mesh.
func TestE2ESingleStitch(t *testing.T) {
	app := NewApp()
	result := app.Evaluate(`(pattern "dot" (row :k))`)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	m := result.Meshes[0]
	if m.Tag != "k" || m.Row != 0 || m.Column != 0 {
		t.Errorf("mesh = %s@%d:%d", m.Tag, m.Row, m.Column)
	}
	if len(m.Vertices) != 320*3 || len(m.Indices) != 1872 {
		t.Errorf("sizes = %d floats, %d indices", len(m.Vertices), len(m.Indices))
	}
}
