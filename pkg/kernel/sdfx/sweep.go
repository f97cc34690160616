package sdfx

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/knitmesh/pkg/curve"
	"github.com/chazu/knitmesh/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Mesher = (*Sweeper)(nil)

// ReferenceAxis is the axis the cross-section circle is built around. The
// last sample of every curve is oriented along it.
var ReferenceAxis = v3.Vec{X: 0, Y: 0, Z: 1}

// minSegment is the shortest segment that yields its own tangent.
const minSegment = 1e-12

// Sweeper builds tube meshes by sweeping a circle along a curve. Rings are
// laid out sample-major, radial-minor, so vertex j*R+k is point k of ring j.
type Sweeper struct{}

// NewSweeper returns a Sweeper.
func NewSweeper() *Sweeper {
	return &Sweeper{}
}

// Sweep returns a tube of radius yarnWidth around c with radialRes points
// per ring.
func (s *Sweeper) Sweep(c curve.Curve, yarnWidth float64, radialRes int) (*kernel.Mesh, error) {
	if len(c) < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 samples, got %d", len(c))
	}
	if radialRes < 3 {
		return nil, fmt.Errorf("radial resolution %d must be at least 3", radialRes)
	}
	if yarnWidth <= 0 || math.IsNaN(yarnWidth) || math.IsInf(yarnWidth, 0) {
		return nil, fmt.Errorf("yarn width %g must be positive", yarnWidth)
	}
	n := uint64(len(c)) * uint64(radialRes)
	if n > math.MaxUint32 {
		return nil, errors.New("sweep exceeds 32-bit index range")
	}

	// Unit circle in the plane normal to the reference axis.
	ring := make([]v3.Vec, radialRes)
	for k := range ring {
		a := 2 * math.Pi * float64(k) / float64(radialRes)
		ring[k] = v3.Vec{X: math.Cos(a), Y: math.Sin(a), Z: 0}
	}

	vertices := make([]float32, 0, n*3)
	normals := make([]float32, 0, n*3)
	tangent := ReferenceAxis
	last := len(c) - 1
	for j, p := range c {
		if j < last {
			if d := c[j+1].Sub(p); d.Length() > minSegment {
				tangent = d.Normalize()
			}
		} else {
			tangent = ReferenceAxis
		}
		rot := orient(tangent)
		m := sdf.Translate3d(p).Mul(rot)
		for _, dir := range ring {
			v := m.MulPosition(dir.MulScalar(yarnWidth))
			nv := rot.MulPosition(dir).Normalize()
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, float32(nv.X), float32(nv.Y), float32(nv.Z))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  ringIndices(len(c), radialRes),
		Strands:  1,
	}, nil
}

// orient returns the rotation taking ReferenceAxis onto the unit tangent.
// sdf.RotateToVector answers an antiparallel tangent with a point
// reflection, which would flip the ring's winding, so that case is a half
// turn about X instead.
func orient(tangent v3.Vec) sdf.M44 {
	if tangent.Equals(ReferenceAxis.Neg(), minSegment) {
		return sdf.RotateX(math.Pi)
	}
	return sdf.RotateToVector(ReferenceAxis, tangent)
}

// ringIndices triangulates each pair of consecutive rings into quads of
// two triangles with a consistent winding. The last ring closes nothing.
func ringIndices(samples, radialRes int) []uint32 {
	indices := make([]uint32, 0, (samples-1)*radialRes*6)
	r := uint32(radialRes)
	for j := uint32(0); j < uint32(samples-1); j++ {
		for k := uint32(0); k < r; k++ {
			a := j*r + k
			b := j*r + (k+1)%r
			c := (j+1)*r + k
			d := (j+1)*r + (k+1)%r
			indices = append(indices, a, c, b, b, c, d)
		}
	}
	return indices
}
