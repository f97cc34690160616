// Package sdfx implements kernel.Mesher using the github.com/deadsy/sdfx
// CAD library. Sweeper rotates explicit rings along a curve; SolidMesher
// builds the tube as a signed distance field and polygonizes it with
// marching cubes.
package sdfx

import (
	"fmt"

	"github.com/chazu/knitmesh/pkg/curve"
	"github.com/chazu/knitmesh/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
)

// Compile-time interface check.
var _ kernel.Mesher = (*SolidMesher)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 64

// SolidMesher sweeps a curve as a union of capped cylinders. Joints are
// smooth but the vertex count depends on the cell grid, not on radialRes.
type SolidMesher struct {
	Cells int
}

// NewSolidMesher returns a SolidMesher with the given marching cubes
// resolution. Non-positive values select DefaultMeshCells.
func NewSolidMesher(cells int) *SolidMesher {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &SolidMesher{Cells: cells}
}

// Solid returns the tube around c as an SDF.
func (s *SolidMesher) Solid(c curve.Curve, yarnWidth float64) (sdf.SDF3, error) {
	if len(c) < 2 {
		return nil, fmt.Errorf("solid needs at least 2 samples, got %d", len(c))
	}
	if yarnWidth <= 0 {
		return nil, fmt.Errorf("yarn width %g must be positive", yarnWidth)
	}
	parts := make([]sdf.SDF3, 0, 2*len(c))
	for j, p := range c {
		ball, err := sdf.Sphere3D(yarnWidth)
		if err != nil {
			return nil, fmt.Errorf("sdfx.Sphere3D: %w", err)
		}
		parts = append(parts, sdf.Transform3D(ball, sdf.Translate3d(p)))
		if j == len(c)-1 {
			break
		}
		d := c[j+1].Sub(p)
		length := d.Length()
		if length <= minSegment {
			continue
		}
		rod, err := sdf.Cylinder3D(length, yarnWidth, 0)
		if err != nil {
			return nil, fmt.Errorf("sdfx.Cylinder3D: %w", err)
		}
		mid := p.Add(d.MulScalar(0.5))
		m := sdf.Translate3d(mid).Mul(orient(d.Normalize()))
		parts = append(parts, sdf.Transform3D(rod, m))
	}
	return sdf.Union3D(parts...), nil
}

// Sweep polygonizes the tube around c. radialRes is ignored.
func (s *SolidMesher) Sweep(c curve.Curve, yarnWidth float64, _ int) (*kernel.Mesh, error) {
	solid, err := s.Solid(c, yarnWidth)
	if err != nil {
		return nil, err
	}
	m := toMesh(solid, s.Cells)
	if m.IsEmpty() {
		return nil, fmt.Errorf("marching cubes produced no triangles at %d cells", s.Cells)
	}
	m.Strands = 1
	return m, nil
}

// toMesh converts a solid to a triangle mesh using marching cubes.
func toMesh(s sdf.SDF3, cells int) *kernel.Mesh {
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)
		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}
}
