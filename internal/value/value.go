// Package value implements the two-stage configuration value system of
// spec.md §3–§4.1: template Values (primitives, arrays, objects, Input
// prompts, and conditional Optional fields) resolving to concrete
// Resolved values.
package value

import "github.com/MaaAssistantArknights/maa-cli-sub002/internal/errs"

// Kind identifies which variant a template Value holds.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
	KindInput
	KindBoolInput
	KindSelect
	KindOptional
)

// OptionalSpec is the Optional variant: {conditions, value} from spec.md
// §3 — materializes value only if every condition key in the enclosing
// object resolves to the exact expected primitive.
type OptionalSpec struct {
	Conditions map[string]Primitive
	Value      Value
}

// Value is the template sum type of spec.md §3.
type Value struct {
	kind Kind

	prim Primitive // valid when kind is Bool/Int/Float/String
	arr  []Value   // valid when kind == KindArray
	obj  map[string]Value

	input     *InputSpec
	boolInput *BoolInputSpec
	sel       *SelectSpec
	optional  *OptionalSpec
}

func Bool(b bool) Value     { return Value{kind: KindBool, prim: PBool(b)} }
func Int(i int32) Value     { return Value{kind: KindInt, prim: PInt(i)} }
func Float(f float32) Value { return Value{kind: KindFloat, prim: PFloat(f)} }
func String(s string) Value { return Value{kind: KindString, prim: PString(s)} }

func FromPrimitive(p Primitive) Value {
	return Value{kind: Kind(p.Kind), prim: p}
}

func Array(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindArray, arr: cp}
}

// Object builds an object Value from a map. Keys are unique by
// construction (Go maps enforce that); insertion order is irrelevant per
// spec.md §3.
func Object(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{kind: KindObject, obj: cp}
}

func EmptyObject() Value {
	return Value{kind: KindObject, obj: map[string]Value{}}
}

func Input(spec InputSpec) Value           { return Value{kind: KindInput, input: &spec} }
func BoolInput(spec BoolInputSpec) Value   { return Value{kind: KindBoolInput, boolInput: &spec} }
func Select(spec SelectSpec) Value         { return Value{kind: KindSelect, sel: &spec} }
func Optional(spec OptionalSpec) Value     { return Value{kind: KindOptional, optional: &spec} }

func (v Value) Kind() Kind { return v.kind }

// --- accessors: return (value, ok), mirroring the Option<T>-returning
// as_bool/as_int/... of spec.md §4.1 ---

func (v Value) AsBool() (bool, bool) {
	if v.kind == KindBool {
		return v.prim.Bool, true
	}
	return false, false
}

func (v Value) AsInt() (int32, bool) {
	if v.kind == KindInt {
		return v.prim.Int, true
	}
	return 0, false
}

func (v Value) AsFloat() (float32, bool) {
	if v.kind == KindFloat {
		return v.prim.Float, true
	}
	return 0, false
}

func (v Value) AsStr() (string, bool) {
	if v.kind == KindString {
		return v.prim.Str, true
	}
	return "", false
}

func (v Value) AsSlice() ([]Value, bool) {
	if v.kind == KindArray {
		return v.arr, true
	}
	return nil, false
}

func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind == KindObject {
		return v.obj, true
	}
	return nil, false
}

// Get looks up a key on an object Value; false if v is not an object or
// the key is absent.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	val, ok := v.obj[key]
	return val, ok
}

// Insert sets key on an object Value in place. Panics if v is not an
// object, the same contract as the Rust source's object-only insert.
func (v *Value) Insert(key string, val Value) {
	if v.kind != KindObject {
		panic("value: Insert called on non-object Value")
	}
	if v.obj == nil {
		v.obj = map[string]Value{}
	}
	v.obj[key] = val
}

// MaybeInsert inserts key only if val is non-nil; a nil val is a no-op
// (it does not remove an existing key), mirroring maybe_insert(k,
// Option<v>) from spec.md §4.1.
func (v *Value) MaybeInsert(key string, val *Value) {
	if val == nil {
		return
	}
	v.Insert(key, *val)
}

// Remove deletes key from an object Value.
func (v *Value) Remove(key string) {
	if v.kind != KindObject || v.obj == nil {
		return
	}
	delete(v.obj, key)
}

var errOptionalOutsideObject = errs.New(errs.OptionalNotInObject, "value.resolve", "Optional appeared outside an object")
