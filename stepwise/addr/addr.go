package addr

import "fmt"

// Address is a location in the target's word-addressed memory space.
// The zero value is a valid address (word 0); Invalid marks the absence
// of an address.
type Address uint32

// Invalid is the sentinel returned by lookups that found nothing.
const Invalid Address = 0xFFFFFFFF

// IsValid reports whether the address refers to a real location.
func (a Address) IsValid() bool {
	return a != Invalid
}

func (a Address) String() string {
	if !a.IsValid() {
		return "<invalid>"
	}
	return fmt.Sprintf("0x%04x", uint32(a))
}

// Range is a half-open [Start, Start+Size) span of addresses.
type Range struct {
	Start Address
	Size  uint32
}

// Contains reports whether a falls inside the range.
func (r Range) Contains(a Address) bool {
	if !r.Start.IsValid() || !a.IsValid() {
		return false
	}
	return a >= r.Start && uint32(a) < uint32(r.Start)+r.Size
}

// End returns the first address past the range.
func (r Range) End() Address {
	if !r.Start.IsValid() {
		return Invalid
	}
	return Address(uint32(r.Start) + r.Size)
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start, r.End())
}

// Class describes what an address points at.
type Class int

const (
	ClassInvalid Class = iota
	ClassUnknown
	ClassCode
	ClassData
)

func (c Class) String() string {
	switch c {
	case ClassUnknown:
		return "unknown"
	case ClassCode:
		return "code"
	case ClassData:
		return "data"
	default:
		return "invalid"
	}
}
