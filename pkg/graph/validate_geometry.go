package graph

import "fmt"

// MaxLean is the widest column shift a strand can make before its swept
// tube risks crossing a neighbour.
const MaxLean = 2

// ---------------------------------------------------------------------------
// Tier 2: geometric validation (errors + warnings)
// ---------------------------------------------------------------------------

// validateGeometry runs all Tier 2 geometric checks.
// Returns errors (blocking) and warnings (advisory) separately.
func validateGeometry(g *LoopGraph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	errs = append(errs, validateYarnWidth(g)...)
	warnings = append(warnings, validateUnconsumed(g)...)
	warnings = append(warnings, validateLean(g)...)

	return errs, warnings
}

// validateYarnWidth checks that every loop carries a positive width.
func validateYarnWidth(g *LoopGraph) []ValidationError {
	var errs []ValidationError
	for _, row := range g.Rows {
		for _, l := range row.Loops {
			if l.YarnWidth <= 0 {
				errs = append(errs, ValidationError{
					Row:      row.Index,
					Column:   l.Producer,
					Message:  fmt.Sprintf("loop %d has yarn width %.4f, must be positive", l.Index, l.YarnWidth),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateUnconsumed flags loops that the next row never picks up. Loops on
// the last row are live stitches and are not reported.
func validateUnconsumed(g *LoopGraph) []ValidationWarning {
	var warnings []ValidationWarning
	rows := append([]*Row{g.CastOn}, g.Rows...)
	for _, row := range rows {
		if row == nil || row.Next == nil {
			continue
		}
		dropped := 0
		for _, l := range row.Loops {
			if l.Consumer == Unlinked {
				dropped++
			}
		}
		if dropped > 0 {
			warnings = append(warnings, ValidationWarning{
				Row:     row.Index,
				Column:  -1,
				Message: fmt.Sprintf("%d of %d loops are never consumed by row %d", dropped, row.Width(), row.Next.Index),
			})
		}
	}
	return warnings
}

// validateLean flags strands travelling more than MaxLean columns.
func validateLean(g *LoopGraph) []ValidationWarning {
	var warnings []ValidationWarning
	for _, row := range g.Rows {
		for c := range row.Stitches {
			for _, s := range row.Stitches[c].Strands {
				lean := s.Produced - s.Anchor()
				if lean < 0 {
					lean = -lean
				}
				if lean > MaxLean {
					warnings = append(warnings, ValidationWarning{
						Row:     row.Index,
						Column:  c,
						Message: fmt.Sprintf("strand %d->%d leans %d columns, may self-intersect", s.Anchor(), s.Produced, lean),
					})
				}
			}
		}
	}
	return warnings
}
