// Package synth emits stand-in bindings for names that are used but never
// defined: one sentinel class, one shared instance, one binding per name.
package synth

import (
	"pymend/internal/analysis"
	"pymend/internal/errs"
	"pymend/internal/syntax"
)

const (
	// SentinelClass absorbs attribute access, calls and indexing by
	// returning itself, and converts to the empty string, so code that pokes
	// at an undefined name keeps running instead of raising NameError.
	SentinelClass = "_Absent"
	// SentinelInstance is the shared instance every missing name binds to.
	SentinelInstance = "_absent"
)

const sentinelSource = `class _Absent:
    def __getattr__(self, name):
        return self

    def __call__(self, *args, **kwargs):
        return self

    def __getitem__(self, key):
        return self

    def __str__(self):
        return ""

_absent = _Absent()
`

// Fragment builds the statements binding every missing name to the shared
// sentinel. Names are emitted in lexicographic order so output is stable
// within a call. An empty set yields an empty fragment.
func Fragment(missing analysis.Set) ([]syntax.Stmt, error) {
	if len(missing) == 0 {
		return nil, nil
	}
	prelude, err := syntax.ParseString(sentinelSource)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeInternal, "sentinel template did not parse")
	}
	stmts := append([]syntax.Stmt(nil), prelude.Body...)
	for _, name := range missing.Sorted() {
		stmts = append(stmts, &syntax.Assign{
			Targets: []syntax.Expr{&syntax.Name{ID: name}},
			Value:   &syntax.Name{ID: SentinelInstance},
		})
	}
	return stmts, nil
}

// Apply prepends the sentinel fragment for missing to a new copy of the
// module. With nothing missing the input is returned unchanged.
func Apply(mod *syntax.Module, missing analysis.Set) (*syntax.Module, error) {
	fragment, err := Fragment(missing)
	if err != nil {
		return nil, err
	}
	if len(fragment) == 0 {
		return mod, nil
	}
	body := make([]syntax.Stmt, 0, len(fragment)+len(mod.Body))
	body = append(body, fragment...)
	body = append(body, mod.Body...)
	return &syntax.Module{Body: body}, nil
}

// Repair is the full missing-name pipeline: analyze, synthesize, prepend.
func Repair(mod *syntax.Module, extra ...analysis.Set) (*syntax.Module, error) {
	return Apply(mod, analysis.Missing(mod, extra...))
}
