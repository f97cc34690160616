package pattern

import (
	"github.com/chazu/knitmesh/pkg/stitch"
	"github.com/samber/lo"
)

// Chart templates. Each returns a rows x cols chart as seen from the right
// side of the fabric.

// Stockinette is plain knit everywhere.
func Stockinette(rows, cols int) [][]stitch.Tag {
	return lo.Times(rows, func(int) []stitch.Tag {
		return lo.Times(cols, func(int) stitch.Tag { return stitch.Knit })
	})
}

// Rib alternates knits columns of knit with purls columns of purl.
func Rib(rows, cols, knits, purls int) [][]stitch.Tag {
	period := knits + purls
	if period <= 0 {
		return Stockinette(rows, cols)
	}
	return lo.Times(rows, func(int) []stitch.Tag {
		return lo.Times(cols, func(c int) stitch.Tag {
			if c%period < knits {
				return stitch.Knit
			}
			return stitch.Purl
		})
	})
}

// Seed offsets a 1x1 rib by one column on every row.
func Seed(rows, cols int) [][]stitch.Tag {
	return lo.Times(rows, func(r int) []stitch.Tag {
		return lo.Times(cols, func(c int) stitch.Tag {
			if (r+c)%2 == 0 {
				return stitch.Knit
			}
			return stitch.Purl
		})
	})
}

// CablePanel centres one cable in a stockinette field of cols loops and
// crosses it on every row r with r%every == every-1. Columns outside the
// cable are purled to frame it. An unknown cable tag yields plain
// stockinette.
func CablePanel(rows, cols int, cable stitch.Tag, every int) [][]stitch.Tag {
	info, ok := stitch.Standard().Lookup(cable)
	if !ok || !info.IsCable() || info.LoopsConsumed > cols {
		return Stockinette(rows, cols)
	}
	if every < 1 {
		every = 1
	}
	span := info.LoopsConsumed
	start := (cols - span) / 2

	out := make([][]stitch.Tag, rows)
	for r := range out {
		row := make([]stitch.Tag, 0, cols)
		for c := 0; c < start; c++ {
			row = append(row, stitch.Purl)
		}
		if r%every == every-1 {
			row = append(row, cable)
		} else {
			row = append(row, lo.Times(span, func(int) stitch.Tag { return stitch.Knit })...)
		}
		for c := start + span; c < cols; c++ {
			row = append(row, stitch.Purl)
		}
		out[r] = row
	}
	return out
}

// Lace places yo, k2tog eyelet pairs on every odd row, offset by one pair
// on alternate eyelet rows. Row width stays at cols.
func Lace(rows, cols int) [][]stitch.Tag {
	out := make([][]stitch.Tag, rows)
	for r := range out {
		if r%2 == 0 {
			out[r] = lo.Times(cols, func(int) stitch.Tag { return stitch.Knit })
			continue
		}
		offset := (r / 2) % 2 * 2
		row := make([]stitch.Tag, 0, cols)
		c := 0
		for c < cols {
			if c >= offset && (c-offset)%4 == 0 && c+1 < cols {
				row = append(row, stitch.YarnOver, stitch.Knit2Together)
				c += 2
				continue
			}
			row = append(row, stitch.Knit)
			c++
		}
		out[r] = row
	}
	return out
}
