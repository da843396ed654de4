package marshal

import "fmt"

// IncompatibleAssignmentError is raised when a HostValue cannot be stored
// into a location of the given C type, per spec.md §7's
// `IncompatibleAssignment(dst_type, src_type_or_host_kind)` taxonomy entry.
type IncompatibleAssignmentError struct {
	DstType string
	SrcKind HostKind
}

func (e *IncompatibleAssignmentError) Error() string {
	return fmt.Sprintf("goffi: cannot assign %v to %s", e.SrcKind, e.DstType)
}

// AssignOwnedPointerError is raised when a CData whose own storage is
// OWNED is assigned into a pointer-typed location (spec.md §9 Open
// Question 1); DstType is the pointer type of that location.
type AssignOwnedPointerError struct{ DstType string }

func (e *AssignOwnedPointerError) Error() string {
	return "goffi: cannot assign to " + e.DstType + ": source CData's storage is owned"
}

// NonCStringError is raised when a HostValue that reaches a char/char*
// target is not a valid host string of the required shape (spec.md §4.5:
// "for character targets a host string of length 1 is required").
type NonCStringError struct{ Want string }

func (e *NonCStringError) Error() string { return "goffi: expected " + e.Want }

func (k HostKind) String() string {
	switch k {
	case HostNull:
		return "null"
	case HostBool:
		return "bool"
	case HostInt:
		return "int"
	case HostUint:
		return "uint"
	case HostFloat:
		return "float"
	case HostString:
		return "string"
	case HostPointer:
		return "pointer"
	default:
		return "?"
	}
}
