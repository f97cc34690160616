package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/knitmesh/pkg/curve"
	"github.com/chazu/knitmesh/pkg/stitch"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func knitCurve(t *testing.T) curve.Curve {
	t.Helper()
	c, err := curve.NewGenerator(40).Generate(curve.Input{
		Behavior:  stitch.BehaviorKnit,
		Kind:      stitch.BaseKnit,
		Consumed:  []int{0},
		Produced:  []int{0},
		YarnWidth: 0.1,
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	return c
}

func TestSweepSizes(t *testing.T) {
	m, err := NewSweeper().Sweep(knitCurve(t), 0.1, 8)
	if err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}
	if m.VertexCount() != 320 {
		t.Errorf("vertices = %d, want 320", m.VertexCount())
	}
	if len(m.Indices) != 1872 {
		t.Errorf("indices = %d, want 1872", len(m.Indices))
	}
	if len(m.Normals) != len(m.Vertices) {
		t.Errorf("normals %d != vertices %d", len(m.Normals), len(m.Vertices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= m.VertexCount() {
			t.Fatalf("index %d = %d out of range", i, idx)
		}
	}
	for i, v := range m.Vertices {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("vertex component %d = %v", i, v)
		}
	}
	if m.Strands != 1 {
		t.Errorf("Strands = %d, want 1", m.Strands)
	}
}

func TestSweepRingGeometry(t *testing.T) {
	c := knitCurve(t)
	const yw = 0.1
	const r = 8
	m, err := NewSweeper().Sweep(c, yw, r)
	if err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}
	for j, p := range c {
		for k := 0; k < r; k++ {
			i := (j*r + k) * 3
			v := v3.Vec{X: float64(m.Vertices[i]), Y: float64(m.Vertices[i+1]), Z: float64(m.Vertices[i+2])}
			if d := v.Sub(p).Length(); math.Abs(d-yw) > 1e-5 {
				t.Fatalf("ring %d point %d is %g from center, want %g", j, k, d, yw)
			}
			n := v3.Vec{X: float64(m.Normals[i]), Y: float64(m.Normals[i+1]), Z: float64(m.Normals[i+2])}
			if math.Abs(n.Length()-1) > 1e-5 {
				t.Fatalf("normal %d,%d has length %g", j, k, n.Length())
			}
		}
	}
}

func TestSweepLastRingUsesReferenceAxis(t *testing.T) {
	c := curve.Curve{{X: 0}, {X: 1}, {X: 2}}
	m, err := NewSweeper().Sweep(c, 0.5, 4)
	if err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}
	// The final ring lies in the XY plane around (2,0,0).
	for k := 0; k < 4; k++ {
		i := (2*4 + k) * 3
		if math.Abs(float64(m.Vertices[i+2])) > 1e-6 {
			t.Errorf("last ring z = %g, want 0", m.Vertices[i+2])
		}
	}
	// Earlier rings are perpendicular to +X.
	for k := 0; k < 4; k++ {
		i := k * 3
		if math.Abs(float64(m.Vertices[i])) > 1e-6 {
			t.Errorf("first ring x = %g, want 0", m.Vertices[i])
		}
	}
}

func TestSweepZeroLengthSegment(t *testing.T) {
	c := curve.Curve{{X: 0}, {X: 1}, {X: 1}, {X: 2}}
	m, err := NewSweeper().Sweep(c, 0.1, 6)
	if err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}
	for i, v := range m.Vertices {
		if math.IsNaN(float64(v)) {
			t.Fatalf("vertex component %d is NaN", i)
		}
	}
}

func TestSweepWinding(t *testing.T) {
	m, _ := NewSweeper().Sweep(curve.Curve{{}, {Z: 1}}, 1, 3)
	want := []uint32{0, 3, 1, 1, 3, 4, 1, 4, 2, 2, 4, 5, 2, 5, 0, 0, 5, 3}
	if len(m.Indices) != len(want) {
		t.Fatalf("indices = %v", m.Indices)
	}
	for i := range want {
		if m.Indices[i] != want[i] {
			t.Fatalf("indices = %v, want %v", m.Indices, want)
		}
	}
}

func TestSweepRingOrientation(t *testing.T) {
	tests := []struct {
		name    string
		tangent v3.Vec
	}{
		{"reference", v3.Vec{Z: 1}},
		{"antiparallel", v3.Vec{Z: -1}},
		{"along x", v3.Vec{X: 1}},
		{"oblique", v3.Vec{X: 1, Y: -2, Z: -0.5}},
	}
	const r = 4
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewSweeper().Sweep(curve.Curve{{}, tt.tangent}, 1, r)
			if err != nil {
				t.Fatalf("Sweep() error: %v", err)
			}
			at := func(k int) v3.Vec {
				return v3.Vec{X: float64(m.Vertices[k*3]), Y: float64(m.Vertices[k*3+1]), Z: float64(m.Vertices[k*3+2])}
			}
			// The first ring turns counter-clockwise about its tangent, as
			// the unrotated ring does about the reference axis.
			v0 := at(0)
			turn := at(1).Sub(v0).Cross(at(2).Sub(v0))
			if turn.Dot(tt.tangent.Normalize()) <= 0 {
				t.Errorf("first ring winds clockwise about %v: normal %v", tt.tangent, turn)
			}
			if math.Abs(v0.Dot(tt.tangent)) > 1e-6 {
				t.Errorf("first ring point %v not perpendicular to %v", v0, tt.tangent)
			}
		})
	}
}

func TestSweepErrors(t *testing.T) {
	s := NewSweeper()
	two := curve.Curve{{}, {X: 1}}
	tests := []struct {
		name  string
		c     curve.Curve
		width float64
		res   int
	}{
		{"one sample", curve.Curve{{}}, 0.1, 8},
		{"radial res", two, 0.1, 2},
		{"zero width", two, 0, 8},
		{"nan width", two, math.NaN(), 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Sweep(tt.c, tt.width, tt.res); err == nil {
				t.Error("Sweep() = nil error")
			}
		})
	}
}

func TestSolidMesher(t *testing.T) {
	c := curve.Curve{{X: 0}, {X: 1}, {X: 1, Y: 1}}
	m, err := NewSolidMesher(24).Sweep(c, 0.2, 0)
	if err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}
	if m.IsEmpty() || m.TriangleCount() == 0 {
		t.Fatal("mesh is empty")
	}
	if len(m.Indices) != m.TriangleCount()*3 || len(m.Vertices) != len(m.Normals) {
		t.Fatal("inconsistent buffers")
	}
	min, max := m.BoundingBox()
	const tol = 0.15
	if math.Abs(float64(min[0])+0.2) > tol || math.Abs(float64(max[1])-1.2) > tol {
		t.Errorf("bounds = %v %v", min, max)
	}
	t.Logf("solid triangles: %d", m.TriangleCount())
}

func TestSolidMesherErrors(t *testing.T) {
	s := NewSolidMesher(0)
	if s.Cells != DefaultMeshCells {
		t.Errorf("Cells = %d, want %d", s.Cells, DefaultMeshCells)
	}
	if _, err := s.Sweep(curve.Curve{{}}, 0.1, 8); err == nil {
		t.Error("one sample: want error")
	}
	if _, err := s.Sweep(curve.Curve{{}, {X: 1}}, 0, 8); err == nil {
		t.Error("zero width: want error")
	}
}
