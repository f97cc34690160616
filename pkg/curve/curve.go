// Package curve generates the parametric centerline of one knitted strand.
package curve

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/knitmesh/pkg/stitch"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Shape constants in natural units. One column is two units wide.
const (
	StitchHeight = 1.0
	StitchWidth  = 1.6
	ColumnWidth  = 2.0

	DefaultResolution = 40
)

// ErrUnsupportedArity reports a curve request for a strand that is not
// one loop into one loop.
var ErrUnsupportedArity = errors.New("unsupported arity")

// Curve is an ordered centerline of sample points.
type Curve []v3.Vec

// Len returns the number of samples.
func (c Curve) Len() int {
	return len(c)
}

// Translate returns a copy of c shifted by d.
func (c Curve) Translate(d v3.Vec) Curve {
	out := make(Curve, len(c))
	for i, p := range c {
		out[i] = p.Add(d)
	}
	return out
}

// Input describes one atomic strand in loop columns.
type Input struct {
	Behavior  stitch.Behavior
	Kind      stitch.BaseKind
	Consumed  []int // exactly one column
	Produced  []int // exactly one column
	YarnWidth float64
	Hold      stitch.HoldDirection
}

// depthRule shapes z for one behavior class.
type depthRule struct {
	scale float64 // multiplies the base depth and offset
	flip  bool    // purl face
}

var depthRules = map[stitch.Behavior]depthRule{
	stitch.BehaviorKnit:     {scale: 1},
	stitch.BehaviorPurl:     {scale: 1, flip: true},
	stitch.BehaviorDecrease: {scale: 2},
	stitch.BehaviorIncrease: {scale: 1},
	stitch.BehaviorCable:    {scale: 1},
}

const (
	baseDepth       = 0.3
	heldFrontDepth  = 0.5
	heldBehindDepth = 0.20
	offsetPerWidth  = 2.1
)

// Depth returns the depth factor and depth offset for a strand.
func Depth(in Input) (factor, offset float64) {
	rule, ok := depthRules[in.Behavior]
	if !ok {
		rule = depthRules[stitch.BehaviorKnit]
	}
	sign := 1.0
	if rule.flip || in.Kind.PurlFamily() {
		sign = -1
	}
	factor = sign * rule.scale * baseDepth
	offset = sign * rule.scale * offsetPerWidth * in.YarnWidth

	switch in.Hold {
	case stitch.HoldFront:
		factor = heldFrontDepth
		offset = offsetPerWidth * in.YarnWidth
	case stitch.HoldBack:
		factor = heldBehindDepth
		offset = offsetPerWidth * in.YarnWidth
	}
	return factor, offset
}

// Generator produces curves of a fixed resolution. The trigonometric terms
// are computed once per generator; a Generator is safe for concurrent use.
type Generator struct {
	res  int
	x    []float64 // (θ + w·sin 2θ)/π
	y    []float64 // h·cos(θ+π)
	cos2 []float64
}

// NewGenerator returns a generator emitting res samples per curve. A
// resolution below 2 selects DefaultResolution.
func NewGenerator(res int) *Generator {
	if res < 2 {
		res = DefaultResolution
	}
	g := &Generator{
		res:  res,
		x:    make([]float64, res),
		y:    make([]float64, res),
		cos2: make([]float64, res),
	}
	for j := 0; j < res; j++ {
		theta := 2 * math.Pi * float64(j) / float64(res)
		g.x[j] = (theta + StitchWidth*math.Sin(2*theta)) / math.Pi
		g.y[j] = StitchHeight * math.Cos(theta+math.Pi)
		g.cos2[j] = math.Cos(2 * theta)
	}
	return g
}

// Resolution returns the number of samples per curve.
func (g *Generator) Resolution() int {
	return g.res
}

// Generate returns the centerline for in. The curve starts at the consumed
// column and leans toward the produced column. Row placement is left to the
// caller.
func (g *Generator) Generate(in Input) (Curve, error) {
	if len(in.Consumed) != 1 || len(in.Produced) != 1 {
		return nil, fmt.Errorf("%w: %d consumed, %d produced", ErrUnsupportedArity, len(in.Consumed), len(in.Produced))
	}
	factor, offset := Depth(in)
	start := ColumnWidth*float64(in.Consumed[0]) + in.YarnWidth
	lean := float64(in.Produced[0] - in.Consumed[0])

	out := make(Curve, g.res)
	for j := range out {
		y := g.y[j]
		x := g.x[j] + start + lean*(1+in.YarnWidth) + lean*y
		z := factor*g.cos2[j] - offset*in.YarnWidth
		out[j] = v3.Vec{X: x, Y: y, Z: z}
	}
	return out, nil
}
