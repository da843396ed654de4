package trampoline

import "github.com/blade-lang/goffi/internal/ctypes"

// StructDescriptor is this engine's portable stand-in for libffi's
// ffi_type_struct: a flat sequence of primitive element kinds describing a
// struct or union's layout well enough for a Backend to build the real
// descriptor from, per spec.md §4.6 step 2: "synthesize a libffi struct
// descriptor whose element list is a flat sequence of primitive ffi_type
// entries derived by recursively walking the struct's fields; for unions
// only the first field is described."
type StructDescriptor struct {
	Type     *ctypes.Type
	Elements []ctypes.Kind
}

// DescribeStruct walks t's fields (t.Kind must be Struct) and flattens
// nested struct/union-by-value members into one element list, so a
// Backend never has to recurse through the Type Graph itself.
func DescribeStruct(t *ctypes.Type) *StructDescriptor {
	d := &StructDescriptor{Type: t}
	appendFields(d, t)
	return d
}

func appendFields(d *StructDescriptor, t *ctypes.Type) {
	fields := t.Fields
	if t.Attr.Has(ctypes.UNION) && len(fields) > 1 {
		fields = fields[:1]
	}
	for _, f := range fields {
		switch f.Type.Kind {
		case ctypes.Struct:
			appendFields(d, f.Type)
		default:
			d.Elements = append(d.Elements, f.Type.Kind)
		}
	}
}
