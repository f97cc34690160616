// Package stitch defines the stitch-type catalog for knitmesh.
// The catalog is a read-only registry describing, for every stitch tag,
// how many loops the stitch consumes and produces and which atomic
// operations it is built from.
package stitch

import "fmt"

// Tag names a stitch type as it appears in a chart, e.g. "k" or "c2over2b".
type Tag string

const (
	NoStitch         Tag = "none"
	Knit             Tag = "k"
	Purl             Tag = "p"
	KnitTbl          Tag = "ktbl"
	Knit2Together    Tag = "k2tog"
	SSK              Tag = "ssk"
	Purl2Together    Tag = "p2tog"
	Knit3Together    Tag = "k3tog"
	MakeOne          Tag = "m1"
	YarnOver         Tag = "yo"
	K1TblK1          Tag = "k1tblk1"
	Cable1Over1Front Tag = "c1over1f"
	Cable1Over1Back  Tag = "c1over1b"
	Cable1Over2Front Tag = "c1over2f"
	Cable1Over2Back  Tag = "c1over2b"
	Cable2Over2Front Tag = "c2over2f"
	Cable2Over2Back  Tag = "c2over2b"
)

// BaseKind enumerates atomic stitch operations.
type BaseKind int

const (
	BaseKnit            BaseKind = iota // knit through the front loop
	BasePurl                            // purl
	BaseKnitThroughBack                 // knit through the back loop
	BaseKnit2Together                   // right-leaning decrease
	BasePurl2Together                   // purl decrease
	BaseSSK                             // left-leaning decrease
	BaseM1                              // make one (lifted increase)
	BaseYarnOver                        // yarn over (eyelet increase)
)

func (k BaseKind) String() string {
	switch k {
	case BaseKnit:
		return "knit"
	case BasePurl:
		return "purl"
	case BaseKnitThroughBack:
		return "knit-tbl"
	case BaseKnit2Together:
		return "k2tog"
	case BasePurl2Together:
		return "p2tog"
	case BaseSSK:
		return "ssk"
	case BaseM1:
		return "m1"
	case BaseYarnOver:
		return "yarn-over"
	default:
		return fmt.Sprintf("BaseKind(%d)", int(k))
	}
}

// PurlFamily reports whether the operation pulls the loop through from the
// front, which flips the depth of its curve.
func (k BaseKind) PurlFamily() bool {
	return k == BasePurl || k == BasePurl2Together
}

// Behavior is the curve-shaping class of an atomic strand.
type Behavior int

const (
	BehaviorKnit Behavior = iota
	BehaviorPurl
	BehaviorDecrease
	BehaviorIncrease
	BehaviorCable
)

func (b Behavior) String() string {
	switch b {
	case BehaviorKnit:
		return "knit"
	case BehaviorPurl:
		return "purl"
	case BehaviorDecrease:
		return "decrease"
	case BehaviorIncrease:
		return "increase"
	case BehaviorCable:
		return "cable"
	default:
		return fmt.Sprintf("Behavior(%d)", int(b))
	}
}

// HoldDirection says where cable-held loops sit relative to the needle.
type HoldDirection int

const (
	HoldNone HoldDirection = iota
	HoldFront
	HoldBack
)

func (h HoldDirection) String() string {
	switch h {
	case HoldNone:
		return "none"
	case HoldFront:
		return "front"
	case HoldBack:
		return "back"
	default:
		return fmt.Sprintf("HoldDirection(%d)", int(h))
	}
}

// ShiftDirection describes index displacement of an increase or decrease,
// relative to working order.
type ShiftDirection int

const (
	ShiftNone ShiftDirection = iota
	ShiftLeft
	ShiftRight
)

func (s ShiftDirection) String() string {
	switch s {
	case ShiftNone:
		return "none"
	case ShiftLeft:
		return "left"
	case ShiftRight:
		return "right"
	default:
		return fmt.Sprintf("ShiftDirection(%d)", int(s))
	}
}

// BaseInfo describes one atomic operation inside a stitch.
type BaseInfo struct {
	Kind          BaseKind       `json:"kind"`
	LoopsConsumed int            `json:"loops_consumed"` // 0, 1 or 2
	LoopsProduced int            `json:"loops_produced"` // 0, 1 or 2
	Shift         ShiftDirection `json:"shift"`
}

// Decrease reports whether the operation merges two loops into one.
func (b BaseInfo) Decrease() bool {
	return b.LoopsConsumed == 2 && b.LoopsProduced == 1
}

// Info is the topology metadata of one stitch type.
type Info struct {
	Tag           Tag           `json:"tag"`
	LoopsConsumed int           `json:"loops_consumed"`
	LoopsProduced int           `json:"loops_produced"`
	Bases         []BaseInfo    `json:"bases"`
	Held          int           `json:"held"` // loops set aside on the cable needle
	Hold          HoldDirection `json:"hold"`
}

// IsCable reports whether the stitch reorders loop columns.
func (i Info) IsCable() bool {
	return i.Held > 0
}
