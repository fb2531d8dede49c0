package value

import (
	"testing"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/errs"
	"github.com/stretchr/testify/require"
)

// S1. Resolve with cascade (spec.md §8).
func TestResolveCascade(t *testing.T) {
	tmpl := Object(map[string]Value{
		"a": Bool(true),
		"b": Optional(OptionalSpec{
			Conditions: map[string]Primitive{"a": PBool(true)},
			Value:      Int(1),
		}),
		"c": Optional(OptionalSpec{
			Conditions: map[string]Primitive{"b": PInt(1)},
			Value:      String("ok"),
		}),
	})

	got, err := tmpl.Resolve(BatchResolver())
	require.NoError(t, err)

	a, ok := got.Get("a")
	require.True(t, ok)
	b, _ := a.AsBool()
	require.True(t, b)

	bv, ok := got.Get("b")
	require.True(t, ok)
	bi, _ := bv.AsInt()
	require.Equal(t, int32(1), bi)

	cv, ok := got.Get("c")
	require.True(t, ok)
	cs, _ := cv.AsStr()
	require.Equal(t, "ok", cs)
}

// S2. Resolve break on false.
func TestResolveBreakOnFalse(t *testing.T) {
	tmpl := Object(map[string]Value{
		"a": Bool(false),
		"b": Optional(OptionalSpec{
			Conditions: map[string]Primitive{"a": PBool(true)},
			Value:      Int(1),
		}),
		"c": Optional(OptionalSpec{
			Conditions: map[string]Primitive{"b": PInt(1)},
			Value:      String("ok"),
		}),
	})

	got, err := tmpl.Resolve(BatchResolver())
	require.NoError(t, err)
	require.True(t, got.Contains("a"))
	require.False(t, got.Contains("b"))
	require.False(t, got.Contains("c"))
}

// Testable property 3: conditional correctness, parameterized over x==v.
func TestConditionalCorrectness(t *testing.T) {
	cases := []struct {
		name     string
		flag     Value
		cond     Primitive
		included bool
	}{
		{"match", String("prod"), PString("prod"), true},
		{"mismatch", String("dev"), PString("prod"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tmpl := Object(map[string]Value{
				"flag": tc.flag,
				"c": Optional(OptionalSpec{
					Conditions: map[string]Primitive{"flag": tc.cond},
					Value:      String("y"),
				}),
			})
			got, err := tmpl.Resolve(BatchResolver())
			require.NoError(t, err)
			require.Equal(t, tc.included, got.Contains("c"))
			if tc.included {
				v, _ := got.Get("c")
				s, _ := v.AsStr()
				require.Equal(t, "y", s)
			}
		})
	}
}

// missing-condition-key case ported from original_source
// crates/maa-value-macro/tests/conditional.rs::condition_key_not_exist.
func TestConditionKeyNotExist(t *testing.T) {
	tmpl := Object(map[string]Value{
		"conditional": Optional(OptionalSpec{
			Conditions: map[string]Primitive{"nonexistent": PBool(true)},
			Value:      String("excluded"),
		}),
	})
	got, err := tmpl.Resolve(BatchResolver())
	require.NoError(t, err)
	require.False(t, got.Contains("conditional"))
}

// multiple_conditions / multiple_conditions_one_fails, ported.
func TestMultipleConditions(t *testing.T) {
	ok := Object(map[string]Value{
		"flag1": Bool(true),
		"flag2": String("yes"),
		"conditional": Optional(OptionalSpec{
			Conditions: map[string]Primitive{"flag1": PBool(true), "flag2": PString("yes")},
			Value:      String("both satisfied"),
		}),
	})
	r, err := ok.Resolve(BatchResolver())
	require.NoError(t, err)
	require.True(t, r.Contains("conditional"))

	fail := Object(map[string]Value{
		"flag1": Bool(true),
		"flag2": String("no"),
		"conditional": Optional(OptionalSpec{
			Conditions: map[string]Primitive{"flag1": PBool(true), "flag2": PString("yes")},
			Value:      String("excluded"),
		}),
	})
	r2, err := fail.Resolve(BatchResolver())
	require.NoError(t, err)
	require.False(t, r2.Contains("conditional"))
}

// chained_conditions / chained_conditions_break, ported.
func TestChainedConditions(t *testing.T) {
	build := func(base bool) Value {
		return Object(map[string]Value{
			"base": Bool(base),
			"level1": Optional(OptionalSpec{
				Conditions: map[string]Primitive{"base": PBool(true)},
				Value:      Int(1),
			}),
			"level2": Optional(OptionalSpec{
				Conditions: map[string]Primitive{"level1": PInt(1)},
				Value:      Int(2),
			}),
			"level3": Optional(OptionalSpec{
				Conditions: map[string]Primitive{"level2": PInt(2)},
				Value:      Int(3),
			}),
		})
	}

	ok, err := build(true).Resolve(BatchResolver())
	require.NoError(t, err)
	require.True(t, ok.Contains("level1"))
	require.True(t, ok.Contains("level2"))
	require.True(t, ok.Contains("level3"))

	broken, err := build(false).Resolve(BatchResolver())
	require.NoError(t, err)
	require.False(t, broken.Contains("level1"))
	require.False(t, broken.Contains("level2"))
	require.False(t, broken.Contains("level3"))
}

// conditional_order_independence, ported.
func TestConditionalOrderIndependence(t *testing.T) {
	tmpl := Object(map[string]Value{
		"depends_on_flag": Optional(OptionalSpec{
			Conditions: map[string]Primitive{"flag": PBool(true)},
			Value:      String("yes"),
		}),
		"flag": Bool(true),
	})
	got, err := tmpl.Resolve(BatchResolver())
	require.NoError(t, err)
	v, ok := got.Get("depends_on_flag")
	require.True(t, ok)
	s, _ := v.AsStr()
	require.Equal(t, "yes", s)
}

// Testable property 4: cycle detection.
func TestCycleDetection(t *testing.T) {
	tmpl := Object(map[string]Value{
		"a": Optional(OptionalSpec{
			Conditions: map[string]Primitive{"b": PInt(1)},
			Value:      Int(0),
		}),
		"b": Optional(OptionalSpec{
			Conditions: map[string]Primitive{"a": PInt(1)},
			Value:      Int(0),
		}),
	})
	_, err := tmpl.Resolve(BatchResolver())
	require.Error(t, err)
	require.Equal(t, errs.CircularDependency, errs.KindOf(err))
}

// Testable property 1: resolve purity under batch mode.
func TestResolvePurityUnderBatchMode(t *testing.T) {
	tmpl := Object(map[string]Value{
		"a": Input(InputSpec{Kind: PrimInt, Default: ptr(PInt(7))}),
		"b": Array(Int(1), Int(2), Int(3)),
	})
	r1, err := tmpl.Resolve(BatchResolver())
	require.NoError(t, err)
	r2, err := tmpl.Resolve(BatchResolver())
	require.NoError(t, err)

	a1, _ := r1.Get("a")
	a2, _ := r2.Get("a")
	i1, _ := a1.AsInt()
	i2, _ := a2.AsInt()
	require.Equal(t, i1, i2)
}

// NoDefaultInBatchMode when an Input has no default in batch mode.
func TestInputNoDefaultInBatchMode(t *testing.T) {
	tmpl := Object(map[string]Value{
		"a": Input(InputSpec{Kind: PrimString}),
	})
	_, err := tmpl.Resolve(BatchResolver())
	require.Error(t, err)
	require.Equal(t, errs.NoDefaultInBatchMode, errs.KindOf(err))
}

func TestSelectConstructionErrors(t *testing.T) {
	_, err := NewSelect(PrimString, nil, 0, "")
	require.Error(t, err)
	require.Equal(t, errs.EmptyAlternatives, errs.KindOf(err))

	_, err = NewSelect(PrimString, []Primitive{PString("a"), PString("b")}, 3, "")
	require.Error(t, err)
	require.Equal(t, errs.IndexOutOfRange, errs.KindOf(err))

	sel, err := NewSelect(PrimString, []Primitive{PString("light"), PString("dark")}, 2, "theme")
	require.NoError(t, err)

	got, err := Select(*sel).Resolve(BatchResolver())
	require.NoError(t, err)
	s, _ := got.AsStr()
	require.Equal(t, "dark", s)
}

// Optional directly at the top level (not inside an object) is an error.
func TestOptionalOutsideObject(t *testing.T) {
	tmpl := Optional(OptionalSpec{
		Conditions: map[string]Primitive{"a": PBool(true)},
		Value:      Int(1),
	})
	_, err := tmpl.Resolve(BatchResolver())
	require.Error(t, err)
	require.Equal(t, errs.OptionalNotInObject, errs.KindOf(err))
}

// Testable property 2: deep merge.
func TestMergeDeep(t *testing.T) {
	a := Object(map[string]Value{
		"x": Int(1),
		"nested": Object(map[string]Value{
			"keep":     String("a"),
			"override": Int(1),
		}),
	})
	b := Object(map[string]Value{
		"x": Int(2),
		"nested": Object(map[string]Value{
			"override": Int(2),
		}),
		"new": Bool(true),
	})

	a.MergeFrom(b)

	x, ok := a.Get("x")
	require.True(t, ok)
	xi, _ := x.AsInt()
	require.Equal(t, int32(2), xi)

	nested, ok := a.Get("nested")
	require.True(t, ok)
	keep, ok := nested.Get("keep")
	require.True(t, ok)
	keepStr, _ := keep.AsStr()
	require.Equal(t, "a", keepStr)

	override, ok := nested.Get("override")
	require.True(t, ok)
	overrideInt, _ := override.AsInt()
	require.Equal(t, int32(2), overrideInt)

	newField, ok := a.Get("new")
	require.True(t, ok)
	newBool, _ := newField.AsBool()
	require.True(t, newBool)
}

func TestMergeReplacesArraysWholesale(t *testing.T) {
	a := Object(map[string]Value{"arr": Array(Int(1), Int(2))})
	b := Object(map[string]Value{"arr": Array(Int(9))})
	a.MergeFrom(b)
	arr, _ := a.Get("arr")
	items, _ := arr.AsSlice()
	require.Len(t, items, 1)
}

func ptr[T any](v T) *T { return &v }
