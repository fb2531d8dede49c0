package value

// MergeFrom performs the recursive deep merge of spec.md §4.1: for each
// key in other, if both v and other hold an object at that key, merge
// recurses; otherwise other's value replaces v's wholesale (this includes
// arrays, primitives, and opaque Input/Optional values, which are never
// merged field-by-field).
func (v *Value) MergeFrom(other Value) {
	if v.kind != KindObject || other.kind != KindObject {
		*v = other
		return
	}
	if v.obj == nil {
		v.obj = map[string]Value{}
	}
	for k, ov := range other.obj {
		existing, ok := v.obj[k]
		if ok && existing.kind == KindObject && ov.kind == KindObject {
			existing.MergeFrom(ov)
			v.obj[k] = existing
		} else {
			v.obj[k] = ov
		}
	}
}
