package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chazu/knitmesh/internal/config"
)

// ---------------------------------------------------------------------------
// Empty and comment-only sources: 0 meshes, 0 errors, non-nil slices.
// ---------------------------------------------------------------------------

func TestE2EEmptySourceExtended(t *testing.T) {
	for _, src := range []string{"", "   \n\t  ", ";; only a comment\n; another"} {
		result := NewApp().Evaluate(src)

		if len(result.Errors) != 0 || len(result.Meshes) != 0 || len(result.Warnings) != 0 {
			t.Errorf("%q: %d errors, %d meshes, %d warnings", src, len(result.Errors), len(result.Meshes), len(result.Warnings))
		}
		// Ensure slices are non-nil (JSON should serialize as [] not null).
		if result.Meshes == nil || result.Errors == nil || result.Warnings == nil {
			t.Errorf("%q: nil slices in result", src)
		}
		if result.RunID == "" {
			t.Errorf("%q: missing run id", src)
		}
	}
}

func TestE2ENonChartSource(t *testing.T) {
	result := NewApp().Evaluate("(def x 10)\n(+ x 2)")
	if len(result.Errors) != 0 || len(result.Meshes) != 0 {
		t.Errorf("errors = %v, meshes = %d", result.Errors, len(result.Meshes))
	}
}

// ---------------------------------------------------------------------------
// Syntax and evaluation errors.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	app := NewApp()

	// Put valid code on line 1, broken code on line 2 so line info is meaningful.
	source := "(def r (row :k))\n(pattern \"test\" r"
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected at least one eval error for unmatched parens")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on syntax error, got %d", len(result.Meshes))
	}

	e := result.Errors[0]
	if e.Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	t.Logf("syntax error: line=%d, col=%d, message=%q", e.Line, e.Col, e.Message)
}

func TestE2EBuiltinError(t *testing.T) {
	result := NewApp().Evaluate(`(pattern "x" (cable-panel 4 8 :k2tog))`)
	if len(result.Errors) == 0 {
		t.Fatal("expected an eval error")
	}
	if !strings.Contains(result.Errors[0].Message, "not a cable") {
		t.Errorf("message = %q", result.Errors[0].Message)
	}
}

// ---------------------------------------------------------------------------
// Topology and scalar errors surface as result errors, not panics.
// ---------------------------------------------------------------------------

func TestE2ETopologyUnderflow(t *testing.T) {
	result := NewApp().Evaluate(`(pattern "short" (row :k :k) (row :k :k :k))`)
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want one", result.Errors)
	}
	msg := result.Errors[0].Message
	if !strings.Contains(msg, "underflow") || !strings.Contains(msg, "row 1") {
		t.Errorf("message = %q", msg)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
	}
}

func TestE2EInvalidYarnWidth(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"too wide", `(pattern "w" :yarn-width 0.5 (row :k))`},
		{"negative", `(pattern "w" :yarn-width -0.1 (row :k))`},
		{"explicit zero", `(pattern "w" :yarn-width 0 (row :k))`},
		{"wide for gauge", `(pattern "w" :gauge 0.3 :yarn-width 0.1 (row :k))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewApp().Evaluate(tt.source)
			if len(result.Errors) == 0 {
				t.Fatal("expected an error")
			}
			if !strings.Contains(result.Errors[0].Message, "yarn width") {
				t.Errorf("message = %q", result.Errors[0].Message)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Warnings are reported alongside meshes.
// ---------------------------------------------------------------------------

func TestE2EUnknownStitchWarning(t *testing.T) {
	result := NewApp().Evaluate(`(pattern "b" (row :k :bobble :k))`)
	if len(result.Errors) != 0 {
		t.Fatalf("errors = %v", result.Errors)
	}
	if len(result.Meshes) != 3 {
		t.Errorf("meshes = %d, want 3", len(result.Meshes))
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0].Message, "bobble") {
		t.Errorf("warnings = %v", result.Warnings)
	}
	if result.Warnings[0].Column != 1 {
		t.Errorf("warning column = %d, want 1", result.Warnings[0].Column)
	}
}

func TestE2EDroppedLoopWarning(t *testing.T) {
	result := NewApp().Evaluate(`(pattern "drop" (row :k :k :k) (row :k :k))`)
	if len(result.Errors) != 0 {
		t.Fatalf("errors = %v", result.Errors)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0].Message, "never consumed") {
		t.Errorf("warnings = %v", result.Warnings)
	}
}

// ---------------------------------------------------------------------------
// Rapid and concurrent evaluation.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluation(t *testing.T) {
	app := NewApp()
	sources := []string{
		`(pattern "a" (stockinette 2 3))`,
		`(pattern "b" (seed 3 3))`,
		`(pattern "c" (row :k :p`,
	}
	for i := 0; i < 9; i++ {
		src := sources[i%len(sources)]
		result := app.Evaluate(src)
		broken := i%len(sources) == 2
		if broken != (len(result.Errors) > 0) {
			t.Errorf("iteration %d: errors = %v", i, result.Errors)
		}
	}
}

func TestE2ERunIDsAreUnique(t *testing.T) {
	app := NewApp()
	seen := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := app.Evaluate(`(row :k)`)
			mu.Lock()
			seen[r.RunID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(seen) != 4 {
		t.Errorf("distinct run ids = %d, want 4", len(seen))
	}
}

// ---------------------------------------------------------------------------
// Configuration reaches the pipeline.
// ---------------------------------------------------------------------------

func TestE2EConfigScalarsFillPattern(t *testing.T) {
	cfg := config.Default()
	cfg.Render.StitchRes = 10
	cfg.Render.RadialRes = 4
	result := NewAppWithConfig(cfg).Evaluate(`(pattern "s" (row :k))`)
	if len(result.Errors) != 0 {
		t.Fatalf("errors = %v", result.Errors)
	}
	if got := len(result.Meshes[0].Vertices) / 3; got != 40 {
		t.Errorf("vertices = %d, want 10*4", got)
	}

	// Scalars set in the script win over config.
	result = NewAppWithConfig(cfg).Evaluate(`(pattern "s" :stitch-res 20 (row :k))`)
	if got := len(result.Meshes[0].Vertices) / 3; got != 80 {
		t.Errorf("vertices = %d, want 20*4", got)
	}
}

func TestE2EParallelWorkers(t *testing.T) {
	src := `(pattern "p" (cable-panel 6 8 :c2over2f 3))`
	seq := NewApp().Evaluate(src)

	cfg := config.Default()
	cfg.Render.Workers = 4
	par := NewAppWithConfig(cfg).Evaluate(src)

	if len(seq.Meshes) != len(par.Meshes) {
		t.Fatalf("mesh counts differ: %d vs %d", len(seq.Meshes), len(par.Meshes))
	}
	for i := range seq.Meshes {
		a, b := seq.Meshes[i], par.Meshes[i]
		if a.Row != b.Row || a.Column != b.Column || a.Tag != b.Tag || len(a.Vertices) != len(b.Vertices) {
			t.Fatalf("mesh %d differs", i)
		}
	}
}

func TestE2ESolidMesher(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Mesher = config.MesherSolid
	cfg.Render.SolidCells = 48
	result := NewAppWithConfig(cfg).Evaluate(`(pattern "solid" (row :k))`)
	if len(result.Errors) != 0 {
		t.Fatalf("errors = %v", result.Errors)
	}
	if len(result.Meshes) != 1 || len(result.Meshes[0].Indices) == 0 {
		t.Fatalf("meshes = %d", len(result.Meshes))
	}
	if result.Triangles*3 != len(result.Meshes[0].Indices) {
		t.Errorf("triangles = %d, indices = %d", result.Triangles, len(result.Meshes[0].Indices))
	}
}

func TestE2EColorPaletteWrapping(t *testing.T) {
	rows := len(colorPalette) + 2
	result := NewApp().Evaluate(`(pattern "tall" (stockinette 10 1))`)
	if len(result.Meshes) != rows {
		t.Fatalf("meshes = %d, want %d", len(result.Meshes), rows)
	}
	for _, m := range result.Meshes {
		if want := colorPalette[m.Row%len(colorPalette)]; m.Color != want {
			t.Errorf("row %d color = %s, want %s", m.Row, m.Color, want)
		}
	}
	if result.Meshes[0].Color != result.Meshes[len(colorPalette)].Color {
		t.Error("palette does not wrap")
	}
}

// ---------------------------------------------------------------------------
// Command-line run.
// ---------------------------------------------------------------------------

func TestRunWritesJSONToStdout(t *testing.T) {
	var out bytes.Buffer
	err := run(config.Default(), nil, strings.NewReader(`(pattern "cli" (row :k :p))`), &out)
	if err != nil {
		t.Fatalf("run() error: %v", err)
	}
	var got EvalResult
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Pattern != "cli" || len(got.Meshes) != 2 || got.Meshes[1].Tag != "p" {
		t.Errorf("result = %s %d meshes", got.Pattern, len(got.Meshes))
	}
}

func TestRunWritesFile(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "s.knit")
	if err := os.WriteFile(script, []byte(`(pattern "f" (row :k))`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Output.Path = filepath.Join(dir, "out.json")
	cfg.Output.Pretty = true

	var stdout bytes.Buffer
	if err := run(cfg, []string{script}, nil, &stdout); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout should be empty, got %d bytes", stdout.Len())
	}
	data, err := os.ReadFile(cfg.Output.Path)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !bytes.Contains(data, []byte("\n  \"run_id\"")) {
		t.Error("pretty output is not indented")
	}
}

func TestRunErrors(t *testing.T) {
	cfg := config.Default()
	var out bytes.Buffer

	if err := run(cfg, []string{"a", "b"}, nil, &out); err == nil {
		t.Error("two scripts: want error")
	}
	if err := run(cfg, []string{filepath.Join(t.TempDir(), "missing.knit")}, nil, &out); err == nil {
		t.Error("missing script: want error")
	}

	out.Reset()
	err := run(cfg, []string{"-"}, strings.NewReader(`(row :k`), &out)
	if !errors.Is(err, errEvaluation) {
		t.Errorf("error = %v, want errEvaluation", err)
	}
	// The result is still written.
	if !bytes.Contains(out.Bytes(), []byte(`"errors":[{`)) {
		t.Errorf("output = %s", out.String())
	}
}

func TestSaveConfigWritesMergedConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Workers = 6
	cfg.Render.Mesher = config.MesherSolid
	cfg.Engine.Timeout = 2 * time.Second

	target := filepath.Join(t.TempDir(), "nested", "knitmesh.yaml")
	path, err := saveConfig(cfg, target)
	if err != nil {
		t.Fatalf("saveConfig() error: %v", err)
	}
	if path != target {
		t.Errorf("path = %q, want %q", path, target)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	loaded := config.Default()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		t.Fatalf("written config is not YAML: %v", err)
	}
	if loaded.Render.Workers != 6 || loaded.Render.Mesher != config.MesherSolid || loaded.Engine.Timeout != 2*time.Second {
		t.Errorf("reloaded render = %+v, engine = %+v", loaded.Render, loaded.Engine)
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("reloaded config invalid: %v", err)
	}
}

func TestSaveConfigDefaultLocation(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("default location ignores XDG_CONFIG_HOME")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := saveConfig(config.Default(), "-")
	if err != nil {
		t.Fatalf("saveConfig() error: %v", err)
	}
	if path != config.DefaultPath() {
		t.Errorf("path = %q, want %q", path, config.DefaultPath())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config not written: %v", err)
	}
}
