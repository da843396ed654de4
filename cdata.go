package goffi

import (
	"fmt"
	"unsafe"

	"github.com/tiendc/go-deepcopy"

	"github.com/blade-lang/goffi/internal/arena"
	"github.com/blade-lang/goffi/internal/ctypes"
	"github.com/blade-lang/goffi/internal/marshal"
	"github.com/blade-lang/goffi/internal/xunsafe"
)

// Flags is the CData flag bitset of spec.md §3: "a subset of {CONST,
// OWNED, PERSISTENT}".
type Flags uint8

const (
	FlagConst Flags = 1 << iota
	// FlagOwned means this CData's Free releases its own storage; a
	// borrowed CData (a field/index/dereference result) never does.
	FlagOwned
	// FlagPersistent selects the long-lived allocator for storage this
	// CData itself allocated (new/cast/addr); it has no effect on a
	// borrowed CData, which never allocates.
	FlagPersistent
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// CData is the host-visible handle around a typed region of C memory,
// spec.md §3: "{type, ptr, flags}". For scalar and aggregate CData, ptr
// points directly at the value; for pointer-typed CData ptr points at an
// internal one-word slot holding the pointee address, so that Addr always
// yields a stable location (a Func-typed CData, which has no sizeof value
// of its own, is the exception: its ptr is the entry address itself) — the same convention internal/marshal's
// CDataToHost/HostToCData already assume of their own ptr argument.
type CData struct {
	ty    ctypes.Ref
	ptr   unsafe.Pointer
	flags Flags

	// borrowedFrom keeps owner reachable (and hence its storage alive, per
	// this module's Go-GC-backed rendition of spec.md §9 Open Question 1)
	// for as long as any alias derived from it is itself reachable. It is
	// nil on an owning CData.
	borrowedFrom *CData

	// freed is set by Free on the owning CData only; every alias borrowed
	// from it (directly or transitively) checks it through root(), since a
	// borrowed CData's own ptr was copied out at borrow time and wouldn't
	// otherwise notice its owner releasing the underlying storage.
	freed bool

	vm *VM
}

// root walks c's borrowedFrom chain to the CData that actually owns (or
// owned) the storage c aliases.
func (c *CData) root() *CData {
	for c.borrowedFrom != nil {
		c = c.borrowedFrom
	}
	return c
}

// checkFreed implements spec.md §6's UseAfterFree: any operation that
// touches c's storage, or that of an owner c was borrowed from, fails once
// that owner has been released.
func (c *CData) checkFreed() error {
	if c.root().freed {
		return &UseAfterFreeError{}
	}
	return nil
}

// Type returns c's CType.
func (c *CData) Type() CType { return newCType(c.ty) }

// IsConst reports whether c carries the CONST flag.
func (c *CData) IsConst() bool { return c.flags.Has(FlagConst) }

// IsOwned reports whether c releases its own storage on Free.
func (c *CData) IsOwned() bool { return c.flags.Has(FlagOwned) }

func (c *CData) allocFor(size int) unsafe.Pointer {
	if c.flags.Has(FlagPersistent) {
		return c.vm.Persistent().Alloc(size)
	}
	return c.vm.RequestArena().Alloc(size)
}

// New implements spec.md §4.4's `new(type, owned=true, persistent=false)`:
// allocate type.Size bytes, zeroed. Fails with ZeroSizeError if Size==0.
func (vm *VM) New(ty CType, owned, persistent bool) (*CData, error) {
	if !globalEnable.allowRuntime() {
		return nil, &DisabledError{}
	}
	t := ty.raw()
	if t == nil || t.Size == 0 {
		return nil, &ZeroSizeError{Type: ty.String()}
	}
	c := &CData{ty: ty.ref, vm: vm}
	if owned {
		c.flags |= FlagOwned
	}
	if persistent {
		c.flags |= FlagPersistent
	}
	c.ptr = c.allocFor(int(t.Size))
	return c, nil
}

// Free implements spec.md §3's destruction rule: if OWNED, release the
// storage with the allocator FlagPersistent selected. Both of this
// module's allocators reclaim in bulk (Arena.Free resets the whole
// request arena; Persistent never reclaims), so Free here only clears
// c's own pointer, preventing further use — the actual reclamation
// happens at vm.EndRequest for request-scoped storage. A borrowed CData's
// Free is a no-op: it never owned anything to release.
func (c *CData) Free() {
	if !c.IsOwned() {
		return
	}
	c.flags &^= FlagOwned
	c.ptr = nil
	c.freed = true
}

// borrow returns a new, non-owning CData aliasing ptr as ty, keeping c
// itself reachable (and so, transitively, alive) for as long as the
// result is.
func (c *CData) borrow(ty ctypes.Ref, ptr unsafe.Pointer, extraConst bool) *CData {
	flags := Flags(0)
	if extraConst || c.IsConst() {
		flags |= FlagConst
	}
	return &CData{ty: ty, ptr: ptr, flags: flags, borrowedFrom: c, vm: c.vm}
}

// Cast implements spec.md §4.4's `cast(type, value)`.
func (vm *VM) Cast(ty CType, value any) (*CData, error) {
	if !globalEnable.allowRuntime() {
		return nil, &DisabledError{}
	}
	dst := ty.raw()
	if src, ok := value.(*CData); ok {
		return vm.castCData(dst, src)
	}
	hv, err := toHostValue(value)
	if err != nil {
		return nil, err
	}
	if hv.Kind == marshal.HostNull && dst.Kind == ctypes.Pointer {
		c, err := vm.New(ty, true, false)
		if err != nil {
			return nil, err
		}
		return c, nil // freshly zeroed storage is already a null pointer
	}
	c, err := vm.New(ty, true, false)
	if err != nil {
		return nil, err
	}
	if err := marshal.HostToCData(c.ptr, dst, hv, vm.RequestArena(), false); err != nil {
		return nil, wrapMarshalErr(err)
	}
	return c, nil
}

func (vm *VM) castCData(dst *ctypes.Type, src *CData) (*CData, error) {
	if err := src.checkFreed(); err != nil {
		return nil, err
	}
	srcType := src.ty.Type

	// Rule 1: Pointer(Void) source, non-pointer destination -> auto-deref.
	if srcType.Kind == ctypes.Pointer && srcType.Elem != nil && srcType.Elem.Kind == ctypes.Void && dst.Kind != ctypes.Pointer {
		addr := xunsafe.Load[uintptr](src.ptr)
		if addr == 0 {
			return nil, &NullDerefError{}
		}
		return src.borrow(ctypes.Ref{Type: dst}, unsafe.Pointer(addr), false), nil
	}

	// Rule 2: Array(T) source, Pointer(U) destination, compatible -> address-of.
	if srcType.Kind == ctypes.Array && dst.Kind == ctypes.Pointer && ctypes.IsCompatible(dst.Elem, srcType.Elem) {
		slot := vm.RequestArena().Alloc(arena.Align)
		xunsafe.Store[uintptr](slot, uintptr(src.ptr))
		return src.borrow(ctypes.Ref{Type: dst}, slot, false), nil
	}

	// Rule 3: Pointer(T) source, Array(U) destination, compatible -> adopt pointee.
	if srcType.Kind == ctypes.Pointer && dst.Kind == ctypes.Array && ctypes.IsCompatible(dst.Elem, srcType.Elem) {
		addr := xunsafe.Load[uintptr](src.ptr)
		if addr == 0 {
			return nil, &NullDerefError{}
		}
		return src.borrow(ctypes.Ref{Type: dst}, unsafe.Pointer(addr), false), nil
	}

	// Rule 4: destination size > source size is rejected.
	if dst.Size > srcType.Size {
		return nil, &IncompatibleAssignmentError{&marshal.IncompatibleAssignmentError{
			DstType: dst.String(), SrcKind: marshal.HostPointer,
		}}
	}

	// Rule 5: otherwise, alias the storage; CONST carries across.
	return src.borrow(ctypes.Ref{Type: dst}, src.ptr, srcType.Attr.Has(ctypes.CONST)), nil
}

// Addr implements spec.md §4.4's `addr(cdata)`: a new CData of type
// Pointer(c.type) whose storage is &c's own storage. Ownership transfer:
// per spec.md §9 Open Question 1, the result never owns anything (it
// would dangle the moment c's storage were released); it keeps c alive
// via borrowedFrom instead.
func (c *CData) Addr() (*CData, error) {
	if !globalEnable.allowRuntime() {
		return nil, &DisabledError{}
	}
	if err := c.checkFreed(); err != nil {
		return nil, err
	}
	ptrType := ctypes.NewPointer(c.ty.Type)
	slot := c.vm.RequestArena().Alloc(arena.Align)
	xunsafe.Store[uintptr](slot, uintptr(c.ptr))
	return c.borrow(ctypes.Ref{Type: ptrType, Owned: true}, slot, false), nil
}

// structBase resolves c to its struct/union storage, transparently
// dereferencing one level of pointer-to-struct, per spec.md §4.4's
// read_field contract: "For pointer-to-struct, dereferences once
// transparently."
func (c *CData) structBase() (*ctypes.Type, unsafe.Pointer, error) {
	if err := c.checkFreed(); err != nil {
		return nil, nil, err
	}
	t := c.ty.Type
	p := c.ptr
	if t.Kind == ctypes.Pointer {
		if t.Elem == nil || t.Elem.Kind != ctypes.Struct {
			return nil, nil, &NotCallableError{Type: t.String()}
		}
		addr := xunsafe.Load[uintptr](p)
		if addr == 0 {
			return nil, nil, &NullDerefError{}
		}
		return t.Elem, unsafe.Pointer(addr), nil
	}
	if t.Kind != ctypes.Struct {
		return nil, nil, &NotCallableError{Type: t.String()}
	}
	return t, p, nil
}

// NoSuchFieldError is raised by ReadField/WriteField when name doesn't
// name a field of the struct/union; spec.md's error taxonomy doesn't
// enumerate this case (it only covers access that names an existing
// field incorrectly), so this is a direct, narrowly-scoped extension.
type NoSuchFieldError struct {
	Type, Field string
}

func (e *NoSuchFieldError) Error() string {
	return fmt.Sprintf("goffi: %s has no field %q", e.Type, e.Field)
}
func (*NoSuchFieldError) ffiException() {}

// hostValueAndOwnership resolves value into the HostValue host_to_cdata
// needs, together with whether value is itself a CData whose storage is
// OWNED: spec.md §4.5's refusal rule ("assignment to a pointer-typed
// location from a CData whose storage is OWNED is refused") needs that
// bit at the call site, since toHostValue alone has no CData to ask and
// otherwise rejects *CData outright.
func hostValueAndOwnership(value any) (marshal.HostValue, bool, error) {
	if cd, ok := value.(*CData); ok {
		return cd.Value(), cd.IsOwned(), nil
	}
	hv, err := toHostValue(value)
	return hv, false, err
}

// ReadField implements spec.md §4.4's `read_field(name)`.
func (c *CData) ReadField(name string) (*CData, error) {
	if !globalEnable.allowRuntime() {
		return nil, &DisabledError{}
	}
	st, base, err := c.structBase()
	if err != nil {
		return nil, err
	}
	f := st.FieldByName(name)
	if f == nil {
		return nil, &NoSuchFieldError{Type: st.String(), Field: name}
	}
	if f.IsBitField() {
		return nil, fmt.Errorf("goffi: %s: bit-field %q has no addressable CData (read its value instead)", st, name)
	}
	fieldPtr := xunsafe.ByteAdd(base, int(f.Offset))
	return c.borrow(ctypes.Ref{Type: f.Type}, fieldPtr, f.IsConst), nil
}

// WriteField implements spec.md §4.4's `write_field(name, value)`.
func (c *CData) WriteField(name string, value any) error {
	if !globalEnable.allowRuntime() {
		return &DisabledError{}
	}
	if c.IsConst() {
		return &IncompatibleAssignmentError{&marshal.IncompatibleAssignmentError{DstType: c.ty.Type.String()}}
	}
	st, base, err := c.structBase()
	if err != nil {
		return err
	}
	f := st.FieldByName(name)
	if f == nil {
		return &NoSuchFieldError{Type: st.String(), Field: name}
	}
	if f.IsConst {
		return &IncompatibleAssignmentError{&marshal.IncompatibleAssignmentError{DstType: f.Type.String()}}
	}
	hv, ownedSrc, err := hostValueAndOwnership(value)
	if err != nil {
		return err
	}
	fieldPtr := xunsafe.ByteAdd(base, int(f.Offset))
	if f.IsBitField() {
		marshal.WriteBitField(fieldPtr, f, hv)
		return nil
	}
	if err := marshal.HostToCData(fieldPtr, f.Type, hv, c.vm.RequestArena(), ownedSrc); err != nil {
		return wrapMarshalErr(err)
	}
	return nil
}

// indexElem resolves the element type and base address for read_index/
// write_index, per spec.md §4.4: valid on Array and Pointer CData; Array
// bounds-checks against Length (0 means unchecked); Pointer is never
// bounds-checked, and a null pointer is an error.
func (c *CData) indexElem(i int) (elem *ctypes.Type, addr unsafe.Pointer, err error) {
	if err := c.checkFreed(); err != nil {
		return nil, nil, err
	}
	t := c.ty.Type
	switch t.Kind {
	case ctypes.Array:
		if t.Length != 0 && (i < 0 || i >= int(t.Length)) {
			return nil, nil, &OutOfBoundsError{Index: i, Length: int(t.Length)}
		}
		return t.Elem, xunsafe.ByteAdd(c.ptr, i*int(t.Elem.Size)), nil
	case ctypes.Pointer:
		base := xunsafe.Load[uintptr](c.ptr)
		if base == 0 {
			return nil, nil, &NullDerefError{}
		}
		return t.Elem, xunsafe.ByteAdd(unsafe.Pointer(base), i*int(t.Elem.Size)), nil
	default:
		return nil, nil, &NotCallableError{Type: t.String()}
	}
}

// ReadIndex implements spec.md §4.4's `read_index(i)`.
func (c *CData) ReadIndex(i int) (*CData, error) {
	if !globalEnable.allowRuntime() {
		return nil, &DisabledError{}
	}
	elem, addr, err := c.indexElem(i)
	if err != nil {
		return nil, err
	}
	return c.borrow(ctypes.Ref{Type: elem}, addr, false), nil
}

// WriteIndex implements spec.md §4.4's `write_index(i)`.
func (c *CData) WriteIndex(i int, value any) error {
	if !globalEnable.allowRuntime() {
		return &DisabledError{}
	}
	if c.IsConst() {
		return &IncompatibleAssignmentError{&marshal.IncompatibleAssignmentError{DstType: c.ty.Type.String()}}
	}
	elem, addr, err := c.indexElem(i)
	if err != nil {
		return err
	}
	hv, ownedSrc, err := hostValueAndOwnership(value)
	if err != nil {
		return err
	}
	if err := marshal.HostToCData(addr, elem, hv, c.vm.RequestArena(), ownedSrc); err != nil {
		return wrapMarshalErr(err)
	}
	return nil
}

// Elements implements spec.md §4.4's array iteration: borrowed element
// CData values in declaration order, observing the parent's CONST flag.
func (c *CData) Elements() ([]*CData, error) {
	t := c.ty.Type
	if t.Kind != ctypes.Array {
		return nil, &NotCallableError{Type: t.String()}
	}
	out := make([]*CData, t.Length)
	for i := range out {
		el, err := c.ReadIndex(i)
		if err != nil {
			return nil, err
		}
		out[i] = el
	}
	return out, nil
}

// elemSize returns the pointee stride used by Add/Sub, per spec.md §4.4:
// "Element stride is the pointee's size."
func (c *CData) elemSize() (int, error) {
	if err := c.checkFreed(); err != nil {
		return 0, err
	}
	t := c.ty.Type
	if t.Kind != ctypes.Pointer {
		return 0, &NotCallableError{Type: t.String()}
	}
	return int(t.Elem.Size), nil
}

// Add implements spec.md §4.4's `add(cdata, n)`.
func (c *CData) Add(n int) (*CData, error) {
	stride, err := c.elemSize()
	if err != nil {
		return nil, err
	}
	base := xunsafe.Load[uintptr](c.ptr)
	slot := c.vm.RequestArena().Alloc(arena.Align)
	xunsafe.Store[uintptr](slot, base+uintptr(n*stride))
	return c.borrow(c.ty, slot, false), nil
}

// Sub implements spec.md §4.4's `sub(cdata, n)`.
func (c *CData) Sub(n int) (*CData, error) { return c.Add(-n) }

// SubPtr implements spec.md §4.4's `sub(cdata, cdata2)`: pointer-minus-
// pointer, requiring the same pointee type, returning an element count.
func (c *CData) SubPtr(other *CData) (int, error) {
	stride, err := c.elemSize()
	if err != nil {
		return 0, err
	}
	if err := other.checkFreed(); err != nil {
		return 0, err
	}
	if !ctypes.IsSame(c.ty.Type.Elem, other.ty.Type.Elem) {
		return 0, &CompareIncompatibleError{A: c.ty.Type.String(), B: other.ty.Type.String()}
	}
	a := xunsafe.Load[uintptr](c.ptr)
	b := xunsafe.Load[uintptr](other.ptr)
	return (int(a) - int(b)) / stride, nil
}

// Sizeof implements spec.md §4.4's `sizeof(value)` for a CData operand.
func (c *CData) Sizeof() int { return int(c.ty.Type.Size) }

// Alignof implements spec.md §4.4's `alignof(value)` for a CData operand.
func (c *CData) Alignof() int { return int(c.ty.Type.Align) }

// derefForMemOp resolves the bounds-checked region a memcpy/memcmp/memset
// call targets, per spec.md §4.4: "Require size <= cdata.type.size unless
// the CData is a pointer, in which case the dereferenced region is
// unchecked (caller's contract)" — spec.md §9 Open Question 3 says this
// asymmetry is deliberate and must be documented, not silently tightened.
func (c *CData) derefForMemOp(size int) (unsafe.Pointer, error) {
	if err := c.checkFreed(); err != nil {
		return nil, err
	}
	t := c.ty.Type
	if t.Kind == ctypes.Pointer {
		addr := xunsafe.Load[uintptr](c.ptr)
		if addr == 0 {
			return nil, &NullDerefError{}
		}
		return unsafe.Pointer(addr), nil // unchecked: see doc comment above
	}
	if size > int(t.Size) {
		return nil, &OutOfBoundsError{Index: size, Length: int(t.Size)}
	}
	return c.ptr, nil
}

// Memcpy implements spec.md §4.4's `memcpy(cdata, src, size)`. src may be
// a *CData or a host string (spec.md: "Strings are accepted as source for
// memcpy/memcmp").
func (c *CData) Memcpy(src any, size int) error {
	dst, err := c.derefForMemOp(size)
	if err != nil {
		return err
	}
	switch s := src.(type) {
	case *CData:
		srcPtr, err := s.derefForMemOp(size)
		if err != nil {
			return err
		}
		xunsafe.CopyBytes(dst, srcPtr, size)
		return nil
	case string:
		n := size
		if n > len(s) {
			n = len(s)
		}
		if n > 0 {
			xunsafe.CopyBytes(dst, unsafe.Pointer(unsafe.StringData(s)), n)
		}
		return nil
	default:
		return &IncompatiblePassError{Index: 1, Expected: "CData or string", Actual: fmt.Sprintf("%T", src)}
	}
}

// Memcmp implements spec.md §4.4's `memcmp(cdata, other, size)`.
func (c *CData) Memcmp(other any, size int) (int, error) {
	a, err := c.derefForMemOp(size)
	if err != nil {
		return 0, err
	}
	switch o := other.(type) {
	case *CData:
		b, err := o.derefForMemOp(size)
		if err != nil {
			return 0, err
		}
		return memcmpBytes(xunsafe.Bytes(a, size), xunsafe.Bytes(b, size)), nil
	case string:
		return memcmpBytes(xunsafe.Bytes(a, size), []byte(o)), nil
	default:
		return 0, &IncompatiblePassError{Index: 1, Expected: "CData or string", Actual: fmt.Sprintf("%T", other)}
	}
}

func memcmpBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	return len(a) - len(b)
}

// Memset implements spec.md §4.4's `memset(cdata, byte, size)`.
func (c *CData) Memset(b byte, size int) error {
	dst, err := c.derefForMemOp(size)
	if err != nil {
		return err
	}
	bs := xunsafe.Bytes(dst, size)
	for i := range bs {
		bs[i] = b
	}
	return nil
}

// StringOf implements spec.md §4.4's `string(cdata, size?)`. hasSize/size
// together model the optional size argument: with it, size bytes are
// copied verbatim; without it, c's type must be Pointer(Char) or
// Array(Char) and the result is NUL-terminated.
func (c *CData) StringOf(hasSize bool, size int) (string, error) {
	if err := c.checkFreed(); err != nil {
		return "", err
	}
	t := c.ty.Type
	if hasSize {
		p, err := c.derefForMemOp(size)
		if err != nil {
			return "", err
		}
		return string(xunsafe.Bytes(p, size)), nil
	}
	isCharPtr := t.Kind == ctypes.Pointer && t.Elem != nil && t.Elem.Kind == ctypes.Char
	isCharArr := t.Kind == ctypes.Array && t.Elem != nil && t.Elem.Kind == ctypes.Char
	if !isCharPtr && !isCharArr {
		return "", &NonCStringError{&marshal.NonCStringError{Want: "char* or char[]"}}
	}
	if isCharPtr {
		addr := xunsafe.Load[uintptr](c.ptr)
		if addr == 0 {
			return "", &NullDerefError{}
		}
		return cStringAt(unsafe.Pointer(addr)), nil
	}
	return cStringAt(c.ptr), nil
}

func cStringAt(p unsafe.Pointer) string {
	n := 0
	for xunsafe.Load[byte](xunsafe.ByteAdd(p, n)) != 0 {
		n++
	}
	return string(xunsafe.Bytes(p, n))
}

// IsNull implements spec.md §4.4's `is_null(cdata)`.
func (c *CData) IsNull() (bool, error) {
	if err := c.checkFreed(); err != nil {
		return false, err
	}
	if c.ty.Type.Kind != ctypes.Pointer {
		return false, &NotCallableError{Type: c.ty.Type.String()}
	}
	return xunsafe.Load[uintptr](c.ptr) == 0, nil
}

// Value reads c's own scalar/pointer value as a HostValue, the Marshaler
// entrypoint underlying every scalar-producing accessor above. It panics
// on a freed CData only via the same nil-pointer dereference any direct
// misuse of freed storage would cause; callers that can't guarantee c is
// still live should check checkFreed (e.g. through one of the error-
// returning accessors) first.
func (c *CData) Value() marshal.HostValue { return marshal.CDataToHost(c.ptr, c.ty.Type) }

// Clone implements spec.md §8 property 5's round-trip contract
// (`memcmp(clone(s), s, S.size) == 0`): a byte-for-byte copy of c's
// storage into a fresh, OWNED allocation of the same persistence class.
func (c *CData) Clone() (*CData, error) {
	out := &CData{ty: ctypes.Ref{Type: c.ty.Type, Owned: true}, flags: FlagOwned, vm: c.vm}
	if c.flags.Has(FlagPersistent) {
		out.flags |= FlagPersistent
	}
	out.ptr = out.allocFor(int(c.ty.Type.Size))
	xunsafe.CopyBytes(out.ptr, c.ptr, int(c.ty.Type.Size))
	return out, nil
}

// Snapshot produces a host-native, alias-free debug copy of c's scalar
// leaves (nested structs become map[string]any, arrays become []any),
// for use in test assertions and trace output where holding a live
// pointer into engine memory would be misleading once that memory is
// freed or reused. go-deepcopy guards against the result sharing any
// backing storage with a later snapshot of the same CData.
func (c *CData) Snapshot() (any, error) {
	raw, err := snapshotValue(c.ty.Type, c.ptr)
	if err != nil {
		return nil, err
	}
	var out any
	if err := deepcopy.Copy(&out, &raw); err != nil {
		return nil, fmt.Errorf("goffi: snapshot deep copy: %w", err)
	}
	return out, nil
}

func snapshotValue(t *ctypes.Type, p unsafe.Pointer) (any, error) {
	switch t.Kind {
	case ctypes.Struct:
		m := make(map[string]any, len(t.Fields))
		for _, f := range t.Fields {
			if f.IsBitField() {
				m[f.Name] = marshal.ReadBitField(p, f).AsI64()
				continue
			}
			v, err := snapshotValue(f.Type, xunsafe.ByteAdd(p, int(f.Offset)))
			if err != nil {
				return nil, err
			}
			m[f.Name] = v
		}
		return m, nil
	case ctypes.Array:
		out := make([]any, t.Length)
		for i := range out {
			v, err := snapshotValue(t.Elem, xunsafe.ByteAdd(p, i*int(t.Elem.Size)))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		hv := marshal.CDataToHost(p, t)
		return hostValueToNative(hv), nil
	}
}

func hostValueToNative(hv marshal.HostValue) any {
	switch hv.Kind {
	case marshal.HostNull:
		return nil
	case marshal.HostBool:
		return hv.I64 != 0
	case marshal.HostInt:
		return hv.I64
	case marshal.HostUint:
		return hv.U64
	case marshal.HostFloat:
		return hv.F64
	case marshal.HostString:
		return hv.Str
	case marshal.HostPointer:
		return hv.Ptr
	default:
		return nil
	}
}

// toHostValue converts a Go-native actual (the shape a host-language call
// site naturally produces) into a marshal.HostValue. *CData actuals are
// handled by callers directly via CData.Value/marshal.CDataToHost, since
// that path also needs the CData's declared type.
func toHostValue(v any) (marshal.HostValue, error) {
	switch x := v.(type) {
	case nil:
		return marshal.Null(), nil
	case bool:
		return marshal.Bool(x), nil
	case int:
		return marshal.Int(int64(x)), nil
	case int8:
		return marshal.Int(int64(x)), nil
	case int16:
		return marshal.Int(int64(x)), nil
	case int32:
		return marshal.Int(int64(x)), nil
	case int64:
		return marshal.Int(x), nil
	case uint:
		return marshal.Uint(uint64(x)), nil
	case uint8:
		return marshal.Uint(uint64(x)), nil
	case uint16:
		return marshal.Uint(uint64(x)), nil
	case uint32:
		return marshal.Uint(uint64(x)), nil
	case uint64:
		return marshal.Uint(x), nil
	case float32:
		return marshal.Float(float64(x)), nil
	case float64:
		return marshal.Float(x), nil
	case string:
		return marshal.String(x), nil
	case unsafe.Pointer:
		return marshal.Pointer(x, nil), nil
	default:
		return marshal.HostValue{}, &IncompatiblePassError{Index: -1, Expected: "scalar, string, pointer, or CData", Actual: fmt.Sprintf("%T", v)}
	}
}
