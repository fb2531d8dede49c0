package value

// PrimKind identifies which of the four primitive types a Primitive holds.
type PrimKind int

const (
	PrimBool PrimKind = iota
	PrimInt
	PrimFloat
	PrimString
)

func (k PrimKind) String() string {
	switch k {
	case PrimBool:
		return "bool"
	case PrimInt:
		return "int"
	case PrimFloat:
		return "float"
	case PrimString:
		return "string"
	default:
		return "unknown"
	}
}

// Primitive is one of bool | int32 | float32 | string, spec.md §3.
type Primitive struct {
	Kind PrimKind
	Bool bool
	Int  int32
	// Float uses plain Go float32 equality in Equal, which already gives
	// IEEE-754 semantics (NaN != NaN, -0.0 == 0.0) — this resolves the
	// spec's open question about float conditions without guessing: we
	// follow the same PartialEq semantics Rust's f32 has, rather than a
	// bit-pattern compare.
	Float float32
	Str   string
}

func PBool(b bool) Primitive     { return Primitive{Kind: PrimBool, Bool: b} }
func PInt(i int32) Primitive     { return Primitive{Kind: PrimInt, Int: i} }
func PFloat(f float32) Primitive { return Primitive{Kind: PrimFloat, Float: f} }
func PString(s string) Primitive { return Primitive{Kind: PrimString, Str: s} }

// Equal reports exact equality per spec.md §4.1: bool/int/string use exact
// equality, floats use IEEE-754 equality (so NaN is never equal to itself).
func (p Primitive) Equal(o Primitive) bool {
	if p.Kind != o.Kind {
		return false
	}
	switch p.Kind {
	case PrimBool:
		return p.Bool == o.Bool
	case PrimInt:
		return p.Int == o.Int
	case PrimFloat:
		return p.Float == o.Float
	case PrimString:
		return p.Str == o.Str
	default:
		return false
	}
}
