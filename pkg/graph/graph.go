package graph

import (
	"errors"
	"fmt"

	"github.com/chazu/knitmesh/pkg/pattern"
	"github.com/chazu/knitmesh/pkg/stitch"
)

// CastOnRow is the row index of the synthesized cast-on row.
const CastOnRow = -1

// ErrTopologyUnderflow reports a stitch asking for more loops than the
// previous row has left.
var ErrTopologyUnderflow = errors.New("topology underflow")

// UnderflowError carries the position of an underflowing stitch.
type UnderflowError struct {
	Row       int
	Column    int
	Tag       stitch.Tag
	Requested int
	Available int
}

func (e *UnderflowError) Error() string {
	return fmt.Sprintf("row %d column %d: %s needs %d loops, %d available: %v",
		e.Row, e.Column, e.Tag, e.Requested, e.Available, ErrTopologyUnderflow)
}

func (e *UnderflowError) Unwrap() error {
	return ErrTopologyUnderflow
}

// LoopGraph is the loop topology of a whole pattern. It is built once per
// pattern and never mutated afterwards.
type LoopGraph struct {
	CastOn    *Row                `json:"cast_on"`
	Rows      []*Row              `json:"rows"`
	YarnWidth float64             `json:"yarn_width"`
	Warnings  []ValidationWarning `json:"warnings,omitempty"`
}

// Row returns row r, the cast-on row for CastOnRow, or nil.
func (g *LoopGraph) Row(r int) *Row {
	if r == CastOnRow {
		return g.CastOn
	}
	if r < 0 || r >= len(g.Rows) {
		return nil
	}
	return g.Rows[r]
}

// Stitch returns the stitch at chart position (row, col), or nil.
func (g *LoopGraph) Stitch(row, col int) *Stitch {
	r := g.Row(row)
	if r == nil || col < 0 || col >= len(r.Stitches) {
		return nil
	}
	return &r.Stitches[col]
}

// StitchCount returns the number of chart cells across all rows.
func (g *LoopGraph) StitchCount() int {
	n := 0
	for _, r := range g.Rows {
		n += len(r.Stitches)
	}
	return n
}

// StrandCount returns the number of one-to-one strands across all rows.
func (g *LoopGraph) StrandCount() int {
	n := 0
	for _, r := range g.Rows {
		for i := range r.Stitches {
			n += len(r.Stitches[i].Strands)
		}
	}
	return n
}

// Build constructs the loop graph for p. Rows are built strictly in order;
// each row consumes from the finished loop arena of the row before it.
func Build(p *pattern.Pattern, cat *stitch.Catalog) (*LoopGraph, error) {
	if p == nil || len(p.Rows) == 0 {
		return nil, errors.New("pattern has no rows")
	}
	if err := p.CheckWidth(); err != nil {
		return nil, err
	}
	if cat == nil {
		cat = stitch.Standard()
	}

	g := &LoopGraph{YarnWidth: p.YarnWidth}
	g.CastOn = castOn(p, cat)

	prev := g.CastOn
	for r, tags := range p.Rows {
		row, err := g.buildRow(r, tags, prev, cat)
		if err != nil {
			return nil, err
		}
		prev.Next = row
		row.Prev = prev
		g.Rows = append(g.Rows, row)
		prev = row
	}
	return g, nil
}

// castOn sizes the cast-on row to what row 0 consumes.
func castOn(p *pattern.Pattern, cat *stitch.Catalog) *Row {
	n := 0
	for _, tag := range p.Rows[0] {
		info, _ := cat.InfoFor(tag)
		n += info.LoopsConsumed
	}
	row := &Row{Index: CastOnRow, Loops: make([]Loop, n)}
	for i := range row.Loops {
		row.Loops[i] = Loop{
			Row:        CastOnRow,
			Index:      i,
			StartIndex: i,
			EndIndex:   i,
			YarnWidth:  p.YarnWidth,
			Producer:   Unlinked,
			Consumer:   Unlinked,
		}
	}
	return row
}

func (g *LoopGraph) buildRow(r int, tags []stitch.Tag, prev *Row, cat *stitch.Catalog) (*Row, error) {
	row := &Row{Index: r, Stitches: make([]Stitch, len(tags))}
	reversed := row.Reversed()

	infos := make([]stitch.Info, len(tags))
	width := 0
	for c, tag := range tags {
		info, ok := cat.InfoFor(tag)
		if !ok {
			g.Warnings = append(g.Warnings, ValidationWarning{
				Row:     r,
				Column:  c,
				Message: fmt.Sprintf("unknown stitch %q, using knit", tag),
			})
		}
		infos[c] = info
		row.Stitches[c] = Stitch{Tag: tag, Info: info, Known: ok, Row: r, Column: c}
		width += info.LoopsProduced
	}
	row.Loops = make([]Loop, width)
	for i := range row.Loops {
		row.Loops[i] = Loop{Row: r, Index: i, YarnWidth: g.YarnWidth, Producer: Unlinked, Consumer: Unlinked}
	}

	taken, made := 0, 0
	available := prev.Width()
	for _, c := range row.WorkingOrder() {
		st := &row.Stitches[c]
		info := infos[c]

		if info.LoopsConsumed > available-taken {
			return nil, &UnderflowError{
				Row:       r,
				Column:    c,
				Tag:       st.Tag,
				Requested: info.LoopsConsumed,
				Available: available - taken,
			}
		}

		st.Consumed = make([]int, info.LoopsConsumed)
		for k := range st.Consumed {
			st.Consumed[k] = position(taken, available, reversed)
			taken++
		}
		st.Produced = make([]int, info.LoopsProduced)
		for k := range st.Produced {
			st.Produced[k] = position(made, width, reversed)
			made++
		}

		for _, slot := range info.Strands() {
			s := Strand{
				Base:     slot.Base,
				Behavior: slot.Behavior,
				Consumed: stitch.Virtual,
				Produced: st.Produced[slot.Produced],
				Hold:     slot.Hold,
			}
			if slot.Consumed != stitch.Virtual {
				s.Consumed = st.Consumed[slot.Consumed]
			}
			st.Strands = append(st.Strands, s)
			link(row, s, c)
		}
		for _, col := range st.Consumed {
			prev.Loops[col].Consumer = c
		}
	}
	return row, nil
}

// link records a strand on the loop it produces. The first strand into a
// loop fixes its start column.
func link(row *Row, s Strand, producer int) {
	l := &row.Loops[s.Produced]
	if l.Producer == Unlinked {
		l.Producer = producer
		l.StartIndex = s.Anchor()
		l.EndIndex = s.Produced
	}
	switch s.Hold {
	case stitch.HoldFront:
		l.HeldInFront = true
	case stitch.HoldBack:
		l.HeldBehind = true
	}
}

// position maps the i-th loop in working order onto a physical column of a
// row n loops wide.
func position(i, n int, reversed bool) int {
	if reversed {
		return n - 1 - i
	}
	return i
}
