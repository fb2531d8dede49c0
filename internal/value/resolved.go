package value

// RKind identifies which variant a Resolved value holds. Resolved has no
// Input or Optional variants — only the shapes that survive resolve(),
// per spec.md §3 "Resolved value".
type RKind int

const (
	RKindBool RKind = iota
	RKindInt
	RKindFloat
	RKindString
	RKindArray
	RKindObject
)

// Resolved is the concrete value produced by Value.Resolve. It holds only
// primitives, arrays and objects; it defines no JSON or other encoding of
// its own, and its fields are unexported.
type Resolved struct {
	kind RKind
	prim Primitive
	arr  []Resolved
	obj  map[string]Resolved
}

func RBool(b bool) Resolved     { return Resolved{kind: RKindBool, prim: PBool(b)} }
func RInt(i int32) Resolved     { return Resolved{kind: RKindInt, prim: PInt(i)} }
func RFloat(f float32) Resolved { return Resolved{kind: RKindFloat, prim: PFloat(f)} }
func RString(s string) Resolved { return Resolved{kind: RKindString, prim: PString(s)} }

func rFromPrimitive(p Primitive) Resolved {
	return Resolved{kind: RKind(p.Kind), prim: p}
}

func RArray(items ...Resolved) Resolved {
	cp := make([]Resolved, len(items))
	copy(cp, items)
	return Resolved{kind: RKindArray, arr: cp}
}

func RObject(fields map[string]Resolved) Resolved {
	cp := make(map[string]Resolved, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Resolved{kind: RKindObject, obj: cp}
}

func (r Resolved) Kind() RKind { return r.kind }

func (r Resolved) AsBool() (bool, bool) {
	if r.kind == RKindBool {
		return r.prim.Bool, true
	}
	return false, false
}

func (r Resolved) AsInt() (int32, bool) {
	if r.kind == RKindInt {
		return r.prim.Int, true
	}
	return 0, false
}

func (r Resolved) AsFloat() (float32, bool) {
	if r.kind == RKindFloat {
		return r.prim.Float, true
	}
	return 0, false
}

func (r Resolved) AsStr() (string, bool) {
	if r.kind == RKindString {
		return r.prim.Str, true
	}
	return "", false
}

func (r Resolved) AsSlice() ([]Resolved, bool) {
	if r.kind == RKindArray {
		return r.arr, true
	}
	return nil, false
}

func (r Resolved) AsMap() (map[string]Resolved, bool) {
	if r.kind == RKindObject {
		return r.obj, true
	}
	return nil, false
}

func (r Resolved) Get(key string) (Resolved, bool) {
	if r.kind != RKindObject {
		return Resolved{}, false
	}
	v, ok := r.obj[key]
	return v, ok
}

// Contains reports whether an object Resolved has key, used by the
// testable-property suite (spec.md §8.2-3).
func (r Resolved) Contains(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// asPrimitive returns the Resolved's scalar value as a Primitive, used
// internally when evaluating Optional conditions against already-resolved
// siblings.
func (r Resolved) asPrimitive() (Primitive, bool) {
	switch r.kind {
	case RKindBool, RKindInt, RKindFloat, RKindString:
		return r.prim, true
	default:
		return Primitive{}, false
	}
}
