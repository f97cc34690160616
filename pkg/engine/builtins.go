package engine

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/chazu/knitmesh/pkg/pattern"
	"github.com/chazu/knitmesh/pkg/stitch"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing chart fragments through the zygomys environment
// ---------------------------------------------------------------------------

// sexpGroup is a run of stitch tags produced by rep. It splices into the
// enclosing row.
type sexpGroup struct {
	tags []stitch.Tag
}

func (g *sexpGroup) SexpString(ps *zygo.PrintState) string {
	return "(group " + joinTags(g.tags) + ")"
}
func (g *sexpGroup) Type() *zygo.RegisteredType { return nil }

// sexpRow is one chart row.
type sexpRow struct {
	tags []stitch.Tag
}

func (r *sexpRow) SexpString(ps *zygo.PrintState) string {
	return "(row " + joinTags(r.tags) + ")"
}
func (r *sexpRow) Type() *zygo.RegisteredType { return nil }

// sexpRows is a block of rows from a template or a repeated row.
type sexpRows struct {
	rows [][]stitch.Tag
}

func (r *sexpRows) SexpString(ps *zygo.PrintState) string {
	width := 0
	if len(r.rows) > 0 {
		width = len(r.rows[0])
	}
	return fmt.Sprintf("(rows %dx%d)", len(r.rows), width)
}
func (r *sexpRows) Type() *zygo.RegisteredType { return nil }

// sexpPattern wraps the pattern returned by the pattern builtin.
type sexpPattern struct {
	p *pattern.Pattern
}

func (p *sexpPattern) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(pattern %q %d rows)", p.p.Name, len(p.p.Rows))
}
func (p *sexpPattern) Type() *zygo.RegisteredType { return nil }

func joinTags(tags []stitch.Tag) string {
	return strings.Join(lo.Map(tags, func(t stitch.Tag, _ int) string { return ":" + string(t) }), " ")
}

// builder collects the pattern declared by a script. The last pattern
// call wins.
type builder struct {
	pattern *pattern.Pattern
}

// asRows extracts chart rows from an evaluation result.
func asRows(s zygo.Sexp) ([][]stitch.Tag, bool) {
	switch v := s.(type) {
	case *sexpRows:
		return v.rows, true
	case *sexpRow:
		return [][]stitch.Tag{v.tags}, true
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toMeasure extracts a positive finite length. Zero is rejected so an
// explicit value is never mistaken for an unset one.
func toMeasure(s zygo.Sexp) (float64, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if !(f > 0) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%g must be positive and finite", f)
	}
	return f, nil
}

// toInt extracts an integer. Floats are accepted when they are whole.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toCount extracts a positive integer.
func toCount(s zygo.Sexp) (int, error) {
	n, err := toInt(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("expected a positive count, got %d", n)
	}
	return n, nil
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_k2tog) and plain strings ("k2tog").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// appendTags flattens keywords, strings, groups and lists into tags.
// Stitch names are normalized but not checked against the catalog.
func appendTags(dst []stitch.Tag, s zygo.Sexp) ([]stitch.Tag, error) {
	switch v := s.(type) {
	case *zygo.SexpStr:
		return append(dst, stitch.ParseTag(strings.TrimPrefix(v.S, kwPrefix))), nil
	case *sexpGroup:
		return append(dst, v.tags...), nil
	case *sexpRow, *sexpRows:
		return dst, fmt.Errorf("rows cannot be nested in a row")
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return dst, fmt.Errorf("expected stitch, got %T (%s)", s, s.SexpString(nil))
	}
	for _, item := range items {
		if dst, err = appendTags(dst, item); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

// appendRows flattens rows, row blocks and lists of them.
func appendRows(dst [][]stitch.Tag, s zygo.Sexp) ([][]stitch.Tag, error) {
	switch v := s.(type) {
	case *sexpRow:
		return append(dst, slices.Clone(v.tags)), nil
	case *sexpRows:
		for _, r := range v.rows {
			dst = append(dst, slices.Clone(r))
		}
		return dst, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return dst, fmt.Errorf("expected row, got %T (%s)", s, s.SexpString(nil))
	}
	for _, item := range items {
		if dst, err = appendRows(dst, item); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

// isRowish reports whether s is a row, a row block, or a list starting
// with one.
func isRowish(s zygo.Sexp) bool {
	switch s.(type) {
	case *sexpRow, *sexpRows:
		return true
	}
	items, err := sexpListToSlice(s)
	return err == nil && len(items) > 0 && isRowish(items[0])
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// dims reads the leading rows and cols arguments of a template builtin.
func dims(fn string, args []zygo.Sexp, need int) (rows, cols int, err error) {
	if len(args) < need {
		return 0, 0, fmt.Errorf("%s requires at least %d arguments, got %d", fn, need, len(args))
	}
	if rows, err = toCount(args[0]); err != nil {
		return 0, 0, fmt.Errorf("%s: rows: %w", fn, err)
	}
	if cols, err = toCount(args[1]); err != nil {
		return 0, 0, fmt.Errorf("%s: cols: %w", fn, err)
	}
	return rows, cols, nil
}

// registerBuiltins installs the chart builtins into a zygomys environment.
// A pattern call records its result in b.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (row :k :p (rep 2 :k :p) "k2tog")
	// -----------------------------------------------------------------------
	env.AddFunction("row", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		tags := make([]stitch.Tag, 0, len(args))
		for i, a := range args {
			var err error
			if tags, err = appendTags(tags, a); err != nil {
				return zygo.SexpNull, fmt.Errorf("row: item %d: %w", i, err)
			}
		}
		return &sexpRow{tags: tags}, nil
	})

	// -----------------------------------------------------------------------
	// (rep 3 :k :p) inside a row, or (rep 4 (row ...) (row ...)) for rows
	// -----------------------------------------------------------------------
	env.AddFunction("rep", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("rep requires a count and at least one item")
		}
		n, err := toCount(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rep: count: %w", err)
		}
		items := args[1:]

		if isRowish(items[0]) {
			var block [][]stitch.Tag
			for i, it := range items {
				if block, err = appendRows(block, it); err != nil {
					return zygo.SexpNull, fmt.Errorf("rep: item %d: %w", i+1, err)
				}
			}
			out := lo.Flatten(lo.Times(n, func(int) [][]stitch.Tag {
				return lo.Map(block, func(r []stitch.Tag, _ int) []stitch.Tag { return slices.Clone(r) })
			}))
			return &sexpRows{rows: out}, nil
		}

		var unit []stitch.Tag
		for i, it := range items {
			if unit, err = appendTags(unit, it); err != nil {
				return zygo.SexpNull, fmt.Errorf("rep: item %d: %w", i+1, err)
			}
		}
		return &sexpGroup{tags: lo.Flatten(lo.Times(n, func(int) []stitch.Tag { return unit }))}, nil
	})

	// -----------------------------------------------------------------------
	// (stockinette rows cols)
	// -----------------------------------------------------------------------
	env.AddFunction("stockinette", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		rows, cols, err := dims("stockinette", args, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpRows{rows: pattern.Stockinette(rows, cols)}, nil
	})

	// -----------------------------------------------------------------------
	// (rib rows cols [knits purls])
	// -----------------------------------------------------------------------
	env.AddFunction("rib", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		rows, cols, err := dims("rib", args, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		knits, purls := 1, 1
		if len(args) >= 3 {
			if knits, err = toCount(args[2]); err != nil {
				return zygo.SexpNull, fmt.Errorf("rib: knits: %w", err)
			}
			purls = knits
		}
		if len(args) >= 4 {
			if purls, err = toCount(args[3]); err != nil {
				return zygo.SexpNull, fmt.Errorf("rib: purls: %w", err)
			}
		}
		return &sexpRows{rows: pattern.Rib(rows, cols, knits, purls)}, nil
	})

	// -----------------------------------------------------------------------
	// (seed rows cols)
	// -----------------------------------------------------------------------
	env.AddFunction("seed", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		rows, cols, err := dims("seed", args, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpRows{rows: pattern.Seed(rows, cols)}, nil
	})

	// -----------------------------------------------------------------------
	// (lace rows cols)
	// -----------------------------------------------------------------------
	env.AddFunction("lace", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		rows, cols, err := dims("lace", args, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpRows{rows: pattern.Lace(rows, cols)}, nil
	})

	// -----------------------------------------------------------------------
	// (cable-panel rows cols :c2over2b [every])
	//
	// Registered as "cable_panel"; the preprocessor rewrites the hyphen.
	// -----------------------------------------------------------------------
	env.AddFunction("cable_panel", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		rows, cols, err := dims("cable-panel", args, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		cname, err := toKeywordString(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cable-panel: cable: %w", err)
		}
		tag := stitch.ParseTag(cname)
		if info, ok := stitch.Standard().Lookup(tag); !ok || !info.IsCable() {
			return zygo.SexpNull, fmt.Errorf("cable-panel: %q is not a cable stitch", cname)
		}
		every := 4
		if len(args) >= 4 {
			if every, err = toCount(args[3]); err != nil {
				return zygo.SexpNull, fmt.Errorf("cable-panel: every: %w", err)
			}
		}
		return &sexpRows{rows: pattern.CablePanel(rows, cols, tag, every)}, nil
	})

	// -----------------------------------------------------------------------
	// (pattern "name" :yarn-width 0.1 :gauge 2 :stitch-res 40 :radial-res 8
	//          (row ...) (stockinette ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("pattern", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		p := &pattern.Pattern{}

		for kw, v := range pa.kw {
			var err error
			switch kw {
			case "name":
				p.Name, err = toString(v)
			case "yarn-width", "yarn_width":
				if p.YarnWidth, err = toMeasure(v); err != nil {
					err = fmt.Errorf("%w: %w", pattern.ErrInvalidWidth, err)
				}
			case "gauge":
				p.Gauge, err = toMeasure(v)
			case "stitch-res", "stitch_res":
				p.StitchRes, err = toCount(v)
			case "radial-res", "radial_res":
				p.RadialRes, err = toCount(v)
			default:
				return zygo.SexpNull, fmt.Errorf("pattern: unknown option :%s", kw)
			}
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("pattern: %s: %w", kw, err)
			}
		}

		pos := pa.positional
		if len(pos) > 0 {
			if s, ok := pos[0].(*zygo.SexpStr); ok {
				p.Name = s.S
				pos = pos[1:]
			}
		}
		for i, it := range pos {
			var err error
			if p.Rows, err = appendRows(p.Rows, it); err != nil {
				return zygo.SexpNull, fmt.Errorf("pattern: item %d: %w", i, err)
			}
		}
		if len(p.Rows) == 0 {
			return zygo.SexpNull, fmt.Errorf("pattern: no rows")
		}

		b.pattern = p
		return &sexpPattern{p: p}, nil
	})
}
