package app

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pymend/internal/errs"
	"pymend/internal/observability"
	"pymend/internal/rewrite"
	"pymend/internal/synth"
	"pymend/internal/syntax"
)

// FixResult describes the rewrites applied to one file.
type FixResult struct {
	Path             string
	StrippedBlocks   bool
	StrippedImports  bool
	SynthesizedNames bool
	InsertedCall     string
	// CallTargetMissing is set when -add-call named a function the file does
	// not define; the other fixes still apply.
	CallTargetMissing bool
	Changed           bool
}

// FixFile runs the repair pipeline over one file and writes the result back:
// drop guarded-dead blocks, drop relative imports, bind every missing name to
// a sentinel, and optionally append a call after the named definition.
// addCall may be empty. Untouched files are not rewritten, so the original
// formatting survives a no-op pass.
func (a *App) FixFile(ctx context.Context, path string, addCall string) (FixResult, error) {
	_, span := observability.Tracer.Start(ctx, "app.FixFile",
		trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	result := FixResult{Path: path}

	content, err := os.ReadFile(path)
	if err != nil {
		return result, err
	}
	mod, err := syntax.Parse(content)
	if err != nil {
		return result, fmt.Errorf("parse %s: %w", path, err)
	}

	fixed := mod
	rendered := syntax.Print(fixed)

	// Rewrites rebuild the tree even when nothing matches; the printed form
	// tells apart a real edit from a structural no-op.
	step := func(op func(*syntax.Module) *syntax.Module, label string) bool {
		next := op(fixed)
		nextRendered := syntax.Print(next)
		fixed = next
		if nextRendered == rendered {
			return false
		}
		rendered = nextRendered
		observability.RewritesTotal.WithLabelValues(label).Inc()
		return true
	}

	if a.Config.Fix.StripFalseyBlocks {
		result.StrippedBlocks = step(rewrite.DeleteFalseyBlocks, "strip_falsey_blocks")
	}
	if a.Config.Fix.StripLocalImports {
		result.StrippedImports = step(rewrite.DeleteLocalImports, "strip_local_imports")
	}

	repaired, err := synth.Repair(fixed, a.extraBuiltins)
	if err != nil {
		return result, fmt.Errorf("synthesize bindings for %s: %w", path, err)
	}
	if repaired != fixed {
		result.SynthesizedNames = true
		observability.RewritesTotal.WithLabelValues("synthesize_names").Inc()
		fixed = repaired
		rendered = syntax.Print(fixed)
	}

	if addCall != "" {
		spec := rewrite.ParseCallSpec(addCall, a.Config.Fix.DefaultCallArgs)
		inserted, err := rewrite.InsertCallAfterDef(fixed, spec)
		switch {
		case err == nil:
			result.InsertedCall = spec.Name
			observability.RewritesTotal.WithLabelValues("insert_call").Inc()
			fixed = inserted
			rendered = syntax.Print(fixed)
		case errs.IsCode(err, errs.CodeNotFound):
			result.CallTargetMissing = true
		default:
			return result, err
		}
	}

	result.Changed = result.StrippedBlocks || result.StrippedImports ||
		result.SynthesizedNames || result.InsertedCall != ""
	if !result.Changed {
		return result, nil
	}

	if err := writeSource(path, rendered); err != nil {
		return result, err
	}
	return result, nil
}

// RemoveImport deletes every import of the named module from the file and
// writes the result back. References to the removed names are left alone.
func (a *App) RemoveImport(ctx context.Context, path, module string) error {
	_, span := observability.Tracer.Start(ctx, "app.RemoveImport",
		trace.WithAttributes(attribute.String("path", path), attribute.String("module", module)))
	defer span.End()

	if module == "" {
		return errs.New(errs.CodeValidation, "module name must not be empty")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	mod, err := syntax.Parse(content)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	next := rewrite.DeleteImports(mod, module)
	rendered := syntax.Print(next)
	if rendered == syntax.Print(mod) {
		return nil
	}
	observability.RewritesTotal.WithLabelValues("remove_import").Inc()
	return writeSource(path, rendered)
}

func writeSource(path, source string) error {
	info, err := os.Stat(path)
	mode := os.FileMode(0o644)
	if err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, []byte(source), mode)
}
