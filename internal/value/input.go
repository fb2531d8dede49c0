package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/errs"
)

// InputSpec is the Input<T> variant: an optional default and description,
// producing a primitive of Kind on resolution.
type InputSpec struct {
	Kind        PrimKind
	Default     *Primitive
	Description string
}

// BoolInputSpec is the BoolInput variant: yes/no prompting with its own
// accept-set and prompt suffix independent of InputSpec.
type BoolInputSpec struct {
	Default     *bool
	Description string
}

// SelectSpec is the Select<T> variant: a non-empty ordered alternatives
// list with a 1-based default index (0 meaning "no default").
type SelectSpec struct {
	Kind         PrimKind
	Alternatives []Primitive
	DefaultIndex int // 1-based; 0 = no default
	Description  string
}

// NewSelect validates the alternatives/index invariants at construction,
// per spec.md §4.1: "index > len or index == 0 is an error at construction"
// -- here the default is optional and defaultIndex == 0 stands for "no
// default", so 0 is always legal; a negative index or one above
// len(alternatives) is IndexOutOfRange.
func NewSelect(kind PrimKind, alternatives []Primitive, defaultIndex int, description string) (*SelectSpec, error) {
	if len(alternatives) == 0 {
		return nil, errs.New(errs.EmptyAlternatives, "value.NewSelect", "alternatives must not be empty")
	}
	if defaultIndex != 0 {
		if defaultIndex < 0 || defaultIndex > len(alternatives) {
			return nil, errs.New(errs.IndexOutOfRange, "value.NewSelect",
				fmt.Sprintf("default index %d out of range [1,%d]", defaultIndex, len(alternatives)))
		}
	}
	return &SelectSpec{Kind: kind, Alternatives: alternatives, DefaultIndex: defaultIndex, Description: description}, nil
}

// InputSource is queried when resolution needs to prompt the user
// interactively (batch mode off). Implementations render the given prompt
// text and return the raw line the user typed.
type InputSource interface {
	ReadLine(prompt string) (string, error)
}

// promptLabel renders "<description or type name>" as used in the
// "Please input <label> [default: X]" prompt format.
func promptLabel(kind PrimKind, description string) string {
	if description != "" {
		return description
	}
	return kind.String()
}

func (s InputSpec) resolve(r *Resolver) (Primitive, error) {
	if r.Batch {
		if s.Default != nil {
			return *s.Default, nil
		}
		return Primitive{}, errs.New(errs.NoDefaultInBatchMode, "value.Input.resolve", "no default in batch mode")
	}

	prompt := fmt.Sprintf("Please input %s", promptLabel(s.Kind, s.Description))
	if s.Default != nil {
		prompt += fmt.Sprintf(" [default: %s]", formatPrimitive(*s.Default))
	}

	for {
		line, err := r.Source.ReadLine(prompt)
		if err != nil {
			return Primitive{}, errs.Wrap(errs.IO, "value.Input.resolve", "failed to read input", err)
		}
		line = strings.TrimSpace(line)
		if line == "" && s.Default != nil {
			return *s.Default, nil
		}
		p, ok := parsePrimitive(s.Kind, line)
		if ok {
			return p, nil
		}
		prompt = fmt.Sprintf("invalid %s %q, please input %s", s.Kind, line, promptLabel(s.Kind, s.Description))
		if s.Default != nil {
			prompt += fmt.Sprintf(" [default: %s]", formatPrimitive(*s.Default))
		}
	}
}

func (s BoolInputSpec) resolve(r *Resolver) (Primitive, error) {
	if r.Batch {
		if s.Default != nil {
			return PBool(*s.Default), nil
		}
		return Primitive{}, errs.New(errs.NoDefaultInBatchMode, "value.BoolInput.resolve", "no default in batch mode")
	}

	suffix := "[y/n]"
	if s.Default != nil {
		if *s.Default {
			suffix = "[Y/n]"
		} else {
			suffix = "[y/N]"
		}
	}
	prompt := fmt.Sprintf("Please input %s %s", promptLabel(PrimBool, s.Description), suffix)

	for {
		line, err := r.Source.ReadLine(prompt)
		if err != nil {
			return Primitive{}, errs.Wrap(errs.IO, "value.BoolInput.resolve", "failed to read input", err)
		}
		line = strings.TrimSpace(line)
		if line == "" && s.Default != nil {
			return PBool(*s.Default), nil
		}
		switch line {
		case "y", "Y", "yes", "Yes", "YES":
			return PBool(true), nil
		case "n", "N", "no", "No", "NO":
			return PBool(false), nil
		}
		prompt = fmt.Sprintf("invalid answer %q, please input %s %s", line, promptLabel(PrimBool, s.Description), suffix)
	}
}

func (s SelectSpec) resolve(r *Resolver) (Primitive, error) {
	if r.Batch {
		if s.DefaultIndex != 0 {
			return s.Alternatives[s.DefaultIndex-1], nil
		}
		return Primitive{}, errs.New(errs.NoDefaultInBatchMode, "value.Select.resolve", "no default in batch mode")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Please select %s:\n", promptLabel(s.Kind, s.Description))
	for i, alt := range s.Alternatives {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, formatPrimitive(alt))
	}
	b.WriteString("Enter choice")
	if s.DefaultIndex != 0 {
		fmt.Fprintf(&b, " [default: %d]", s.DefaultIndex)
	}
	prompt := b.String()

	for {
		line, err := r.Source.ReadLine(prompt)
		if err != nil {
			return Primitive{}, errs.Wrap(errs.IO, "value.Select.resolve", "failed to read input", err)
		}
		line = strings.TrimSpace(line)
		if line == "" && s.DefaultIndex != 0 {
			return s.Alternatives[s.DefaultIndex-1], nil
		}
		idx, err := strconv.Atoi(line)
		if err == nil && idx >= 1 && idx <= len(s.Alternatives) {
			return s.Alternatives[idx-1], nil
		}
		prompt = fmt.Sprintf("invalid choice %q, enter a number between 1 and %d", line, len(s.Alternatives))
	}
}

func formatPrimitive(p Primitive) string {
	switch p.Kind {
	case PrimBool:
		return strconv.FormatBool(p.Bool)
	case PrimInt:
		return strconv.FormatInt(int64(p.Int), 10)
	case PrimFloat:
		return strconv.FormatFloat(float64(p.Float), 'g', -1, 32)
	case PrimString:
		return p.Str
	default:
		return ""
	}
}

func parsePrimitive(kind PrimKind, s string) (Primitive, bool) {
	switch kind {
	case PrimBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Primitive{}, false
		}
		return PBool(b), true
	case PrimInt:
		i, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return Primitive{}, false
		}
		return PInt(int32(i)), true
	case PrimFloat:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Primitive{}, false
		}
		return PFloat(float32(f)), true
	case PrimString:
		return PString(s), true
	default:
		return Primitive{}, false
	}
}
