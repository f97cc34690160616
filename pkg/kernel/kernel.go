// Package kernel defines the mesh payload and the mesher interface that
// turns a strand centerline into a tube of triangles. Implementations
// (sdfx sweep, sdfx implicit) live in subpackages so the assembler can
// swap backends without changing the rest of the system.
package kernel

import "github.com/chazu/knitmesh/pkg/curve"

// Mesher sweeps a circular cross-section of radius yarnWidth along a
// curve.
type Mesher interface {
	Sweep(c curve.Curve, yarnWidth float64, radialRes int) (*Mesh, error)
}

// MesherFunc adapts a function to the Mesher interface.
type MesherFunc func(c curve.Curve, yarnWidth float64, radialRes int) (*Mesh, error)

// Sweep calls f.
func (f MesherFunc) Sweep(c curve.Curve, yarnWidth float64, radialRes int) (*Mesh, error) {
	return f(c, yarnWidth, radialRes)
}
