package stitch

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Catalog is the read-only stitch-type registry. It is fully populated by
// NewCatalog and never mutated afterwards, so a single instance may be
// shared by concurrent assembly runs.
type Catalog struct {
	infos map[Tag]Info
}

// NewCatalog builds the catalog of every supported stitch type.
func NewCatalog() *Catalog {
	c := &Catalog{infos: make(map[Tag]Info)}
	for _, info := range builtinInfos() {
		c.infos[info.Tag] = info
	}
	return c
}

var standard = sync.OnceValue(NewCatalog)

// Standard returns the process-wide catalog, built on first use.
func Standard() *Catalog {
	return standard()
}

// Lookup returns the Info registered for tag.
func (c *Catalog) Lookup(tag Tag) (Info, bool) {
	info, ok := c.infos[tag]
	return info, ok
}

// InfoFor is the total form of Lookup. Unknown tags resolve to plain knit
// and report ok == false so the caller can surface a warning.
func (c *Catalog) InfoFor(tag Tag) (Info, bool) {
	if info, ok := c.infos[tag]; ok {
		return info, true
	}
	return c.infos[Knit], false
}

// Tags returns all registered tags in lexical order.
func (c *Catalog) Tags() []Tag {
	tags := lo.Keys(c.infos)
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Len returns the number of registered stitch types.
func (c *Catalog) Len() int {
	return len(c.infos)
}

// Validate checks that every entry's atomic operations account for exactly
// the loops the entry declares.
func (c *Catalog) Validate() error {
	for _, tag := range c.Tags() {
		info := c.infos[tag]
		if info.LoopsConsumed < 0 || info.LoopsProduced < 0 {
			return fmt.Errorf("stitch %q: negative loop count", tag)
		}
		consumed := lo.SumBy(info.Bases, func(b BaseInfo) int { return b.LoopsConsumed })
		produced := lo.SumBy(info.Bases, func(b BaseInfo) int { return b.LoopsProduced })
		if consumed != info.LoopsConsumed {
			return fmt.Errorf("stitch %q: bases consume %d loops, declared %d", tag, consumed, info.LoopsConsumed)
		}
		if produced != info.LoopsProduced {
			return fmt.Errorf("stitch %q: bases produce %d loops, declared %d", tag, produced, info.LoopsProduced)
		}
		if info.Held > info.LoopsConsumed {
			return fmt.Errorf("stitch %q: holds %d of %d loops", tag, info.Held, info.LoopsConsumed)
		}
		if (info.Held > 0) != (info.Hold != HoldNone) {
			return fmt.Errorf("stitch %q: held count %d with hold direction %s", tag, info.Held, info.Hold)
		}
	}
	return nil
}

// ParseTag normalizes a chart or DSL stitch name into a Tag. Case, hyphens
// and underscores are ignored, so "C2-over-2-B" and "c2over2b" are equal.
func ParseTag(name string) Tag {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer("-", "", "_", "", " ", "").Replace(name)
	switch name {
	case "knit":
		return Knit
	case "purl":
		return Purl
	case "", "nostitch":
		return NoStitch
	case "yarnover":
		return YarnOver
	}
	return Tag(name)
}

func knit() BaseInfo { return BaseInfo{Kind: BaseKnit, LoopsConsumed: 1, LoopsProduced: 1} }

func cable(tag Tag, loops, held int, hold HoldDirection) Info {
	return Info{
		Tag:           tag,
		LoopsConsumed: loops,
		LoopsProduced: loops,
		Bases:         lo.Times(loops, func(int) BaseInfo { return knit() }),
		Held:          held,
		Hold:          hold,
	}
}

func builtinInfos() []Info {
	return []Info{
		{Tag: NoStitch},
		{Tag: Knit, LoopsConsumed: 1, LoopsProduced: 1, Bases: []BaseInfo{knit()}},
		{Tag: Purl, LoopsConsumed: 1, LoopsProduced: 1, Bases: []BaseInfo{
			{Kind: BasePurl, LoopsConsumed: 1, LoopsProduced: 1},
		}},
		{Tag: KnitTbl, LoopsConsumed: 1, LoopsProduced: 1, Bases: []BaseInfo{
			{Kind: BaseKnitThroughBack, LoopsConsumed: 1, LoopsProduced: 1},
		}},
		{Tag: Knit2Together, LoopsConsumed: 2, LoopsProduced: 1, Bases: []BaseInfo{
			{Kind: BaseKnit2Together, LoopsConsumed: 2, LoopsProduced: 1, Shift: ShiftRight},
		}},
		{Tag: SSK, LoopsConsumed: 2, LoopsProduced: 1, Bases: []BaseInfo{
			{Kind: BaseSSK, LoopsConsumed: 2, LoopsProduced: 1, Shift: ShiftLeft},
		}},
		{Tag: Purl2Together, LoopsConsumed: 2, LoopsProduced: 1, Bases: []BaseInfo{
			{Kind: BasePurl2Together, LoopsConsumed: 2, LoopsProduced: 1, Shift: ShiftRight},
		}},
		{Tag: Knit3Together, LoopsConsumed: 3, LoopsProduced: 1, Bases: []BaseInfo{
			{Kind: BaseKnit2Together, LoopsConsumed: 2, LoopsProduced: 1, Shift: ShiftRight},
			{Kind: BaseKnit2Together, LoopsConsumed: 1, LoopsProduced: 0, Shift: ShiftRight},
		}},
		{Tag: MakeOne, LoopsConsumed: 1, LoopsProduced: 2, Bases: []BaseInfo{
			knit(),
			{Kind: BaseM1, LoopsConsumed: 0, LoopsProduced: 1, Shift: ShiftRight},
		}},
		{Tag: YarnOver, LoopsConsumed: 0, LoopsProduced: 1, Bases: []BaseInfo{
			{Kind: BaseYarnOver, LoopsConsumed: 0, LoopsProduced: 1},
		}},
		{Tag: K1TblK1, LoopsConsumed: 1, LoopsProduced: 3, Bases: []BaseInfo{
			knit(),
			{Kind: BaseKnitThroughBack, LoopsConsumed: 0, LoopsProduced: 1, Shift: ShiftRight},
			{Kind: BaseKnit, LoopsConsumed: 0, LoopsProduced: 1, Shift: ShiftRight},
		}},
		cable(Cable1Over1Front, 2, 1, HoldFront),
		cable(Cable1Over1Back, 2, 1, HoldBack),
		cable(Cable1Over2Front, 3, 1, HoldFront),
		cable(Cable1Over2Back, 3, 2, HoldBack),
		cable(Cable2Over2Front, 4, 2, HoldFront),
		cable(Cable2Over2Back, 4, 2, HoldBack),
	}
}
