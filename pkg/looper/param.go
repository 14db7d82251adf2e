package looper

// ParamKind tags the payload carried by an Event's Params/Aux fields. The
// design notes call for a tagged variant in place of the source's
// uintptr_t-carries-anything idiom: no raw integer-to-pointer casts ever
// happen in this module. A receiver always matches on Kind before touching
// the payload.
type ParamKind int

const (
	// KindEmpty carries no payload.
	KindEmpty ParamKind = iota
	// KindScalar carries an inline 64-bit scalar.
	KindScalar
	// KindOwned carries a payload the receiver must release (by calling
	// Release, directly or via a Deallocator) once it is done with it.
	KindOwned
	// KindBorrowed carries a payload the poster retains ownership of; the
	// receiver must not retain a reference to it past handler return.
	KindBorrowed
)

// Param is the tagged value carried in an Event's Params or Aux field.
type Param struct {
	kind     ParamKind
	scalar   uint64
	typeTag  string
	payload  any
	release  func(any)
}

// Empty is the zero Param: no payload.
var Empty = Param{kind: KindEmpty}

// Scalar constructs a Param carrying an inline scalar value.
func Scalar(v uint64) Param {
	return Param{kind: KindScalar, scalar: v}
}

// Owned constructs a Param carrying a payload whose ownership moves to the
// receiver. release, if non-nil, is called exactly once: either by the
// receiver via Release, or by the bus itself if the event is dropped
// unconsumed (queue shutdown, warning-mode overflow).
func Owned(typeTag string, payload any, release func(any)) Param {
	return Param{kind: KindOwned, typeTag: typeTag, payload: payload, release: release}
}

// Borrowed constructs a Param carrying a payload the poster retains.
func Borrowed(typeTag string, payload any) Param {
	return Param{kind: KindBorrowed, typeTag: typeTag, payload: payload}
}

// Kind returns the Param's tag.
func (p Param) Kind() ParamKind { return p.kind }

// ScalarValue returns the inline scalar. Valid only when Kind() == KindScalar.
func (p Param) ScalarValue() uint64 { return p.scalar }

// TypeTag returns the payload's declared type tag. Valid for KindOwned and
// KindBorrowed.
func (p Param) TypeTag() string { return p.typeTag }

// Payload returns the carried value, or nil for KindEmpty/KindScalar.
func (p Param) Payload() any { return p.payload }

// Release runs the payload's registered release function, if any. It is
// idempotent-safe to call only once; calling it twice on a payload with
// side-effecting release logic is a caller bug, not guarded against here
// (matching the single-owner discipline the rest of the module follows).
func (p Param) Release() {
	if p.kind == KindOwned && p.release != nil {
		p.release(p.payload)
	}
}
