package graph

import (
	"fmt"

	"github.com/chazu/knitmesh/pkg/stitch"
)

// Unlinked marks a loop back-reference that is not set: a cast-on loop has
// no producer and a loop on the last row has no consumer.
const Unlinked = -1

// Loop is one strand position on the needle.
type Loop struct {
	Row         int     `json:"row"`
	Index       int     `json:"index"`       // physical column, 0 = leftmost
	StartIndex  int     `json:"start_index"` // column of the loop it was drawn through
	EndIndex    int     `json:"end_index"`
	HeldInFront bool    `json:"held_in_front,omitempty"`
	HeldBehind  bool    `json:"held_behind,omitempty"`
	YarnWidth   float64 `json:"yarn_width"`
	Producer    int     `json:"producer"` // chart column of the producing stitch
	Consumer    int     `json:"consumer"` // chart column of the consuming stitch in the next row
}

// Lean returns how many columns the loop moved from the loop it was drawn
// through.
func (l Loop) Lean() int {
	return l.EndIndex - l.StartIndex
}

// Strand is one atomic one-to-one piece of a stitch, resolved to loop
// columns.
type Strand struct {
	Base     stitch.BaseInfo      `json:"base"`
	Behavior stitch.Behavior      `json:"behavior"`
	Consumed int                  `json:"consumed"` // column in the previous row, or stitch.Virtual
	Produced int                  `json:"produced"` // column in the stitch's own row
	Hold     stitch.HoldDirection `json:"hold"`
}

// Anchor returns the column the strand's curve starts from. A virtual
// strand starts from its own produced column.
func (s Strand) Anchor() int {
	if s.Consumed == stitch.Virtual {
		return s.Produced
	}
	return s.Consumed
}

// Stitch is one worked chart cell.
type Stitch struct {
	Tag      stitch.Tag  `json:"tag"`
	Info     stitch.Info `json:"-"`
	Known    bool        `json:"known"` // false when the tag fell back to knit
	Row      int         `json:"row"`
	Column   int         `json:"column"`   // chart column
	Consumed []int       `json:"consumed"` // previous-row columns, working order
	Produced []int       `json:"produced"` // own-row columns, working order
	Strands  []Strand    `json:"strands"`
}

func (s *Stitch) String() string {
	return fmt.Sprintf("%s@%d:%d", s.Tag, s.Row, s.Column)
}

// Row is one knitted row. Loops is the row's arena; once the row is built,
// Loops[i].Index == i.
type Row struct {
	Index    int      `json:"index"`
	Stitches []Stitch `json:"stitches"` // chart order
	Loops    []Loop   `json:"loops"`
	Prev     *Row     `json:"-"`
	Next     *Row     `json:"-"`
}

// Reversed reports whether the row is worked right to left.
func (r *Row) Reversed() bool {
	return r.Index%2 != 0
}

// Width returns the number of loops the row produced.
func (r *Row) Width() int {
	return len(r.Loops)
}

// WorkingOrder returns chart columns in the order the stitches are worked.
func (r *Row) WorkingOrder() []int {
	return workingOrder(len(r.Stitches), r.Reversed())
}

func workingOrder(n int, reversed bool) []int {
	order := make([]int, n)
	for i := range order {
		if reversed {
			order[i] = n - 1 - i
		} else {
			order[i] = i
		}
	}
	return order
}
