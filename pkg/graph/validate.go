package graph

import (
	"fmt"
	"slices"

	"github.com/chazu/knitmesh/pkg/stitch"
	"github.com/samber/lo"
)

// ValidationSeverity indicates whether a validation finding blocks
// assembly or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks assembly
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Row      int                // CastOnRow for the cast-on row
	Column   int                // chart column, or -1 for a row-level finding
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Column < 0 {
		return fmt.Sprintf("[%s] row %d: %s", e.Severity, e.Row, e.Message)
	}
	return fmt.Sprintf("[%s] row %d column %d: %s", e.Severity, e.Row, e.Column, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	Row     int    `json:"row"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

func (w ValidationWarning) String() string {
	if w.Column < 0 {
		return fmt.Sprintf("row %d: %s", w.Row, w.Message)
	}
	return fmt.Sprintf("row %d column %d: %s", w.Row, w.Column, w.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether no blocking errors were found.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs the structural checks on a built loop graph. An empty slice
// means the graph is consistent. It never mutates the graph.
func Validate(g *LoopGraph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateArity(g)...)
	errs = append(errs, validateArenas(g)...)
	errs = append(errs, validateIndices(g)...)
	errs = append(errs, validateBackRefs(g)...)
	errs = append(errs, validateStrands(g)...)
	return errs
}

// ValidateAll runs the structural and geometric tiers and returns a
// ValidationResult with separated errors and warnings. Warnings recorded
// while building are included.
func ValidateAll(g *LoopGraph) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(g) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Row:     e.Row,
				Column:  e.Column,
				Message: e.Message,
			})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}

	geoErrs, geoWarnings := validateGeometry(g)
	result.Errors = append(result.Errors, geoErrs...)
	result.Warnings = append(result.Warnings, g.Warnings...)
	result.Warnings = append(result.Warnings, geoWarnings...)
	return result
}

// validateArity checks that every stitch consumed and produced exactly the
// number of loops its catalog entry names.
func validateArity(g *LoopGraph) []ValidationError {
	var errs []ValidationError
	for _, row := range g.Rows {
		for c := range row.Stitches {
			st := &row.Stitches[c]
			if len(st.Consumed) != st.Info.LoopsConsumed {
				errs = append(errs, ValidationError{
					Row:      row.Index,
					Column:   c,
					Message:  fmt.Sprintf("%s consumed %d loops, catalog says %d", st.Tag, len(st.Consumed), st.Info.LoopsConsumed),
					Severity: SeverityError,
				})
			}
			if len(st.Produced) != st.Info.LoopsProduced {
				errs = append(errs, ValidationError{
					Row:      row.Index,
					Column:   c,
					Message:  fmt.Sprintf("%s produced %d loops, catalog says %d", st.Tag, len(st.Produced), st.Info.LoopsProduced),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateArenas checks that each loop sits at its own arena slot.
func validateArenas(g *LoopGraph) []ValidationError {
	var errs []ValidationError
	rows := append([]*Row{g.CastOn}, g.Rows...)
	for _, row := range rows {
		if row == nil {
			continue
		}
		for i, l := range row.Loops {
			if l.Index != i || l.Row != row.Index {
				errs = append(errs, ValidationError{
					Row:      row.Index,
					Column:   -1,
					Message:  fmt.Sprintf("loop at slot %d claims row %d index %d", i, l.Row, l.Index),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateIndices checks that the produced columns of a row are unique and
// cover 0..n-1, and that consumed columns never repeat.
func validateIndices(g *LoopGraph) []ValidationError {
	var errs []ValidationError
	for _, row := range g.Rows {
		produced := make(map[int]int)
		consumed := make(map[int]int)
		for c := range row.Stitches {
			st := &row.Stitches[c]
			for _, p := range st.Produced {
				if prior, dup := produced[p]; dup {
					errs = append(errs, ValidationError{
						Row:      row.Index,
						Column:   c,
						Message:  fmt.Sprintf("column %d already produced by column %d", p, prior),
						Severity: SeverityError,
					})
				}
				produced[p] = c
			}
			for _, k := range st.Consumed {
				if prior, dup := consumed[k]; dup {
					errs = append(errs, ValidationError{
						Row:      row.Index,
						Column:   c,
						Message:  fmt.Sprintf("loop %d already consumed by column %d", k, prior),
						Severity: SeverityError,
					})
				}
				consumed[k] = c
			}
		}
		for i := 0; i < row.Width(); i++ {
			if _, ok := produced[i]; !ok {
				errs = append(errs, ValidationError{
					Row:      row.Index,
					Column:   -1,
					Message:  fmt.Sprintf("column %d has no producing stitch", i),
					Severity: SeverityError,
				})
			}
		}
		// Produced columns of consecutive chart cells must read left to right.
		last := -1
		for c := range row.Stitches {
			for _, p := range sorted(row.Stitches[c].Produced) {
				if p <= last {
					errs = append(errs, ValidationError{
						Row:      row.Index,
						Column:   c,
						Message:  fmt.Sprintf("column %d is out of chart order", p),
						Severity: SeverityError,
					})
				}
				last = p
			}
		}
	}
	return errs
}

// validateBackRefs checks that producer and consumer links on every loop
// agree with the stitches that reference it.
func validateBackRefs(g *LoopGraph) []ValidationError {
	var errs []ValidationError
	for _, row := range g.Rows {
		prev := row.Prev
		for c := range row.Stitches {
			st := &row.Stitches[c]
			for _, p := range st.Produced {
				if p < 0 || p >= row.Width() {
					errs = append(errs, ValidationError{
						Row:      row.Index,
						Column:   c,
						Message:  fmt.Sprintf("produced column %d out of range", p),
						Severity: SeverityError,
					})
					continue
				}
				if row.Loops[p].Producer != c {
					errs = append(errs, ValidationError{
						Row:      row.Index,
						Column:   c,
						Message:  fmt.Sprintf("loop %d names producer %d", p, row.Loops[p].Producer),
						Severity: SeverityError,
					})
				}
			}
			for _, k := range st.Consumed {
				if prev == nil || k < 0 || k >= prev.Width() {
					errs = append(errs, ValidationError{
						Row:      row.Index,
						Column:   c,
						Message:  fmt.Sprintf("consumed column %d out of range", k),
						Severity: SeverityError,
					})
					continue
				}
				if prev.Loops[k].Consumer != c {
					errs = append(errs, ValidationError{
						Row:      row.Index,
						Column:   c,
						Message:  fmt.Sprintf("loop %d of row %d names consumer %d", k, prev.Index, prev.Loops[k].Consumer),
						Severity: SeverityError,
					})
				}
			}
		}
	}
	return errs
}

// validateStrands checks that strands reference only the stitch's own loops
// and that every produced loop is reached by a strand.
func validateStrands(g *LoopGraph) []ValidationError {
	var errs []ValidationError
	for _, row := range g.Rows {
		for c := range row.Stitches {
			st := &row.Stitches[c]
			reached := make(map[int]bool, len(st.Produced))
			for _, s := range st.Strands {
				if !lo.Contains(st.Produced, s.Produced) {
					errs = append(errs, ValidationError{
						Row:      row.Index,
						Column:   c,
						Message:  fmt.Sprintf("strand produces foreign column %d", s.Produced),
						Severity: SeverityError,
					})
				}
				if s.Consumed != stitch.Virtual && !lo.Contains(st.Consumed, s.Consumed) {
					errs = append(errs, ValidationError{
						Row:      row.Index,
						Column:   c,
						Message:  fmt.Sprintf("strand consumes foreign column %d", s.Consumed),
						Severity: SeverityError,
					})
				}
				reached[s.Produced] = true
			}
			for _, p := range st.Produced {
				if !reached[p] {
					errs = append(errs, ValidationError{
						Row:      row.Index,
						Column:   c,
						Message:  fmt.Sprintf("produced column %d has no strand", p),
						Severity: SeverityError,
					})
				}
			}
		}
	}
	return errs
}

func sorted(xs []int) []int {
	out := slices.Clone(xs)
	slices.Sort(out)
	return out
}
