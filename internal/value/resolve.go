package value

import (
	"sort"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/errs"
)

// Resolver carries the state resolve() needs: whether to run in batch
// mode (spec.md §4.1 "Batch mode") and where to read interactive input
// from when not in batch mode.
type Resolver struct {
	Batch  bool
	Source InputSource
}

// BatchResolver returns a Resolver configured for batch mode, the default
// tests use per spec.md §4.1.
func BatchResolver() *Resolver {
	return &Resolver{Batch: true}
}

// Resolve consumes a template Value and returns the Resolved value, or an
// error from the errs.Kind table in spec.md §7.
func (v Value) Resolve(r *Resolver) (Resolved, error) {
	return resolveValue(v, r)
}

// resolveValue resolves any Value except one that is itself a bare
// Optional — an Optional only has meaning as a direct field of an
// enclosing object (spec.md §3 invariant), so encountering one here is
// OptionalNotInObject.
func resolveValue(v Value, r *Resolver) (Resolved, error) {
	switch v.kind {
	case KindBool, KindInt, KindFloat, KindString:
		return rFromPrimitive(v.prim), nil
	case KindArray:
		out := make([]Resolved, 0, len(v.arr))
		for _, item := range v.arr {
			if item.kind == KindOptional {
				return Resolved{}, errOptionalOutsideObject
			}
			rv, err := resolveValue(item, r)
			if err != nil {
				return Resolved{}, err
			}
			out = append(out, rv)
		}
		return RArray(out...), nil
	case KindObject:
		return resolveObject(v, r)
	case KindInput:
		p, err := v.input.resolve(r)
		if err != nil {
			return Resolved{}, err
		}
		return rFromPrimitive(p), nil
	case KindBoolInput:
		p, err := v.boolInput.resolve(r)
		if err != nil {
			return Resolved{}, err
		}
		return rFromPrimitive(p), nil
	case KindSelect:
		p, err := v.sel.resolve(r)
		if err != nil {
			return Resolved{}, err
		}
		return rFromPrimitive(p), nil
	case KindOptional:
		return Resolved{}, errOptionalOutsideObject
	default:
		return Resolved{}, errs.New(errs.Other, "value.resolve", "unknown value kind")
	}
}

// resolveObject implements the five-step algorithm of spec.md §4.1.
func resolveObject(v Value, r *Resolver) (Resolved, error) {
	unconditional := map[string]Value{}
	conditional := map[string]Value{} // key -> Value of kind Optional

	for k, fv := range v.obj {
		if fv.kind == KindOptional {
			conditional[k] = fv
		} else {
			unconditional[k] = fv
		}
	}

	order, err := topoOrder(conditional)
	if err != nil {
		return Resolved{}, err
	}

	resolved := map[string]Resolved{}

	// Step 4: unconditional keys first, recursively.
	for k, fv := range unconditional {
		rv, err := resolveValue(fv, r)
		if err != nil {
			return Resolved{}, err
		}
		resolved[k] = rv
	}

	// Step 4 (cont'd): conditional keys in topological order.
	for _, k := range order {
		opt := conditional[k].optional
		if materialized(opt, resolved) {
			rv, err := resolveValue(opt.Value, r)
			if err != nil {
				return Resolved{}, err
			}
			resolved[k] = rv
		}
		// else: key is dropped entirely (not inserted).
	}

	return RObject(resolved), nil
}

// materialized reports whether every condition key of opt resolves, in
// the partially-resolved object so far, to exactly the expected
// primitive. A missing key, or a key resolving to a non-primitive
// (array/object), means the condition fails.
func materialized(opt *OptionalSpec, resolved map[string]Resolved) bool {
	for condKey, want := range opt.Conditions {
		got, ok := resolved[condKey]
		if !ok {
			return false
		}
		gotPrim, ok := got.asPrimitive()
		if !ok {
			return false
		}
		if !gotPrim.Equal(want) {
			return false
		}
	}
	return true
}

// topoOrder builds the dependency graph on conditional keys (key K
// depends on every condition-key it references that is itself
// conditional in the same object) and returns a topological order, or a
// CircularDependency error if a cycle exists.
func topoOrder(conditional map[string]Value) ([]string, error) {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS stack
		black = 2 // fully visited
	)
	state := make(map[string]int, len(conditional))
	order := make([]string, 0, len(conditional))

	var visit func(k string) error
	visit = func(k string) error {
		switch state[k] {
		case black:
			return nil
		case gray:
			return errs.New(errs.CircularDependency, "value.resolve", "conditional dependency cycle at key \""+k+"\"")
		}
		state[k] = gray
		opt := conditional[k].optional
		for condKey := range opt.Conditions {
			if _, isConditional := conditional[condKey]; isConditional {
				if err := visit(condKey); err != nil {
					return err
				}
			}
		}
		state[k] = black
		order = append(order, k)
		return nil
	}

	// Deterministic iteration isn't required for correctness (resolve()
	// doesn't depend on tie-break order among independent keys), but we
	// still walk a stable key list to keep test output reproducible.
	keys := make([]string, 0, len(conditional))
	for k := range conditional {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := visit(k); err != nil {
			return nil, err
		}
	}
	return order, nil
}
