// Package rpc implements the Core and Task services of spec.md §4.9:
// plain net/http handlers keyed by an x-session-id header, grounded in
// spirit on original_source's crates/maa-server (a tonic/gRPC service)
// but implemented over net/http rather than gRPC. Generating the gRPC
// stubs original_source's tonic service implies would require running
// protoc and the Go toolchain, both off-limits here, and no pack repo
// outside its test-only tree demonstrates a working gRPC service to
// ground against — see DESIGN.md.
package rpc

// Code mirrors the small slice of gRPC-style status codes spec.md §4.9
// names per operation.
type Code int

const (
	CodeOK Code = iota
	CodeInvalidArgument
	CodeNotFound
	CodeFailedPrecondition
	CodeResourceExhausted
	CodeInternal
)

// Status is an RPC error carrying one of the codes above.
type Status struct {
	Code    Code
	Message string
}

func (s *Status) Error() string { return s.Message }

func newStatus(code Code, message string) *Status {
	return &Status{Code: code, Message: message}
}
