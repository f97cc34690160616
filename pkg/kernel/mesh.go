package kernel

import (
	"fmt"
	"math"
)

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Row      int       `json:"row"`      // chart row of the originating stitch
	Column   int       `json:"column"`   // chart column of the originating stitch
	Tag      string    `json:"tag"`      // stitch tag
	Strands  int       `json:"strands"`  // tubes merged into this mesh
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Append merges o into m, rebasing o's indices past m's vertices.
func (m *Mesh) Append(o *Mesh) error {
	if o == nil {
		return nil
	}
	base := m.VertexCount()
	if uint64(base)+uint64(o.VertexCount()) > math.MaxUint32 {
		return fmt.Errorf("mesh too large: %d + %d vertices", base, o.VertexCount())
	}
	m.Vertices = append(m.Vertices, o.Vertices...)
	m.Normals = append(m.Normals, o.Normals...)
	for _, i := range o.Indices {
		m.Indices = append(m.Indices, i+uint32(base))
	}
	m.Strands += max(o.Strands, 1)
	return nil
}

// BoundingBox returns the axis-aligned bounds of the vertices. An empty
// mesh returns zero bounds.
func (m *Mesh) BoundingBox() (min, max [3]float32) {
	if m.IsEmpty() {
		return min, max
	}
	copy(min[:], m.Vertices[:3])
	copy(max[:], m.Vertices[:3])
	for i := 3; i+2 < len(m.Vertices); i += 3 {
		for k := 0; k < 3; k++ {
			v := m.Vertices[i+k]
			if v < min[k] {
				min[k] = v
			}
			if v > max[k] {
				max[k] = v
			}
		}
	}
	return min, max
}
