package stitch

// Virtual marks a strand with no consumed loop (a yarn over worked into
// nothing). Its curve is anchored at the produced loop's own column.
const Virtual = -1

// StrandSlot is one atomic one-to-one piece of a stitch: a single consumed
// loop drawn into a single produced loop. Slots index the stitch's consumed
// and produced loops in working order.
type StrandSlot struct {
	Base     BaseInfo
	Behavior Behavior
	Consumed int // consumed slot, or Virtual
	Produced int // produced slot
	Hold     HoldDirection
}

// BehaviorOf classifies an atomic operation for curve shaping. Every
// strand of a cable is a cable strand regardless of its base.
func BehaviorOf(b BaseInfo, cable bool) Behavior {
	if cable {
		return BehaviorCable
	}
	switch b.Kind {
	case BaseKnit2Together, BasePurl2Together, BaseSSK:
		return BehaviorDecrease
	case BasePurl:
		return BehaviorPurl
	case BaseM1, BaseYarnOver:
		return BehaviorIncrease
	default:
		return BehaviorKnit
	}
}

// Strands decomposes the stitch into one-to-one strands in emission order.
// Strands emitted later sit on top of earlier ones.
func (i Info) Strands() []StrandSlot {
	if i.IsCable() {
		return i.cableStrands()
	}

	var out []StrandSlot
	nextC, nextP := 0, 0
	lastC, lastP := Virtual, Virtual

	for _, b := range i.Bases {
		cs := make([]int, 0, 2)
		for k := 0; k < b.LoopsConsumed; k++ {
			cs = append(cs, nextC)
			nextC++
		}
		ps := make([]int, 0, 2)
		for k := 0; k < b.LoopsProduced; k++ {
			ps = append(ps, nextP)
			nextP++
		}

		// A base producing nothing finishes the previous base's loop.
		if len(ps) == 0 {
			if lastP == Virtual {
				continue
			}
			ps = append(ps, lastP)
		}
		// A base consuming nothing works into the loop just consumed.
		swapped := false
		if len(cs) == 0 {
			cs = append(cs, lastC)
			if b.Shift == ShiftLeft && lastP != Virtual {
				// The new loop goes before the previous one in working order.
				for k := range out {
					if out[k].Produced == lastP {
						out[k].Produced = ps[0]
					}
				}
				ps[0], lastP = lastP, ps[0]
				swapped = true
			}
		}

		behavior := BehaviorOf(b, false)
		switch {
		case len(cs) >= len(ps):
			order := cs
			if b.Shift == ShiftLeft && len(cs) > 1 {
				order = []int{cs[1], cs[0]}
			}
			for _, c := range order {
				out = append(out, StrandSlot{Base: b, Behavior: behavior, Consumed: c, Produced: ps[0]})
			}
		default:
			for _, p := range ps {
				out = append(out, StrandSlot{Base: b, Behavior: behavior, Consumed: cs[0], Produced: p})
			}
		}

		lastC = cs[len(cs)-1]
		if b.LoopsProduced > 0 && !swapped {
			lastP = ps[len(ps)-1]
		}
	}
	return out
}

// cableStrands maps the first Held consumed loops past the worked loops.
// Back-held strands are emitted first so the worked strands cross over
// them; front-held strands are emitted last.
func (i Info) cableStrands() []StrandSlot {
	n := i.LoopsConsumed
	held := make([]StrandSlot, 0, i.Held)
	worked := make([]StrandSlot, 0, n-i.Held)
	for c := 0; c < n; c++ {
		s := StrandSlot{Base: i.Bases[c], Behavior: BehaviorCable, Consumed: c}
		if c < i.Held {
			s.Produced = c + (n - i.Held)
			s.Hold = i.Hold
			held = append(held, s)
		} else {
			s.Produced = c - i.Held
			worked = append(worked, s)
		}
	}
	if i.Hold == HoldFront {
		return append(worked, held...)
	}
	return append(held, worked...)
}
