// Package pattern holds the knitting pattern consumed by the geometry
// engine: a chart of stitch tags plus the scalars that size the mesh.
package pattern

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/knitmesh/pkg/stitch"
)

// Defaults applied by New.
const (
	DefaultYarnWidth = 0.1
	DefaultGauge     = 2.0
	DefaultStitchRes = 40
	DefaultRadialRes = 8
)

// ErrInvalidWidth reports a yarn width whose cross-section would overlap
// neighbouring columns.
var ErrInvalidWidth = errors.New("invalid yarn width")

// Pattern is a chart of stitch tags. Rows are listed in knitting order and
// each row lists its stitches left to right as read on the right side.
type Pattern struct {
	Name      string         `json:"name,omitempty" yaml:"name,omitempty"`
	Rows      [][]stitch.Tag `json:"rows" yaml:"rows"`
	YarnWidth float64        `json:"yarn_width" yaml:"yarn_width"`
	Gauge     float64        `json:"gauge" yaml:"gauge"` // column spacing in natural units
	StitchRes int            `json:"stitch_res" yaml:"stitch_res"`
	RadialRes int            `json:"radial_res" yaml:"radial_res"`
}

// New returns a pattern over rows with default scalars.
func New(rows [][]stitch.Tag) *Pattern {
	return &Pattern{
		Rows:      rows,
		YarnWidth: DefaultYarnWidth,
		Gauge:     DefaultGauge,
		StitchRes: DefaultStitchRes,
		RadialRes: DefaultRadialRes,
	}
}

// RowCount returns the number of chart rows.
func (p *Pattern) RowCount() int {
	return len(p.Rows)
}

// Width returns the number of chart cells in row r.
func (p *Pattern) Width(r int) int {
	if r < 0 || r >= len(p.Rows) {
		return 0
	}
	return len(p.Rows[r])
}

// MaxYarnWidth is the largest yarn width the gauge admits.
func (p *Pattern) MaxYarnWidth() float64 {
	return p.Gauge / 6
}

// CheckWidth verifies the yarn width against the gauge bound. NaN and
// non-finite values never satisfy it.
func (p *Pattern) CheckWidth() error {
	if !(p.YarnWidth > 0) || math.IsInf(p.YarnWidth, 0) {
		return fmt.Errorf("%w: %g must be positive and finite", ErrInvalidWidth, p.YarnWidth)
	}
	if !(p.YarnWidth <= p.MaxYarnWidth()) || math.IsInf(p.Gauge, 0) {
		return fmt.Errorf("%w: %g exceeds gauge/6 = %g", ErrInvalidWidth, p.YarnWidth, p.MaxYarnWidth())
	}
	return nil
}

// Validate checks the scalars and that the chart is non-empty.
func (p *Pattern) Validate() error {
	if len(p.Rows) == 0 {
		return errors.New("pattern has no rows")
	}
	if !(p.Gauge > 0) || math.IsInf(p.Gauge, 0) {
		return fmt.Errorf("gauge %g must be positive and finite", p.Gauge)
	}
	if err := p.CheckWidth(); err != nil {
		return err
	}
	if p.StitchRes < 2 {
		return fmt.Errorf("stitch resolution %d must be at least 2", p.StitchRes)
	}
	if p.RadialRes < 3 {
		return fmt.Errorf("radial resolution %d must be at least 3", p.RadialRes)
	}
	return nil
}

// Clone returns a deep copy.
func (p *Pattern) Clone() *Pattern {
	c := *p
	c.Rows = make([][]stitch.Tag, len(p.Rows))
	for i, row := range p.Rows {
		c.Rows[i] = append([]stitch.Tag(nil), row...)
	}
	return &c
}
