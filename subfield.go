package quarry

import (
	"encoding/binary"
	"fmt"
	"strings"

	xxhash "github.com/cespare/xxhash/v2"
)

// A PathElement is a single step in a Subfield access path. The concrete
// variants are NestedField, LongSubscript, StringSubscript, AllSubscripts
// and NoSubfield. All variants are comparable value types, so two
// PathElements may be compared directly with ==.
type PathElement interface {
	fmt.Stringer
	// writeHash feeds a canonical, type-tagged encoding of this element
	// into a hash digest
	writeHash(d *xxhash.Digest)
}

// NestedField represents access to a named field of a struct-typed value
type NestedField struct {
	Name string
}

// String returns a textual representation of this NestedField
func (f NestedField) String() string {
	return fmt.Sprintf(".%s", f.Name)
}

func (f NestedField) writeHash(d *xxhash.Digest) {
	d.Write([]byte{0x01})
	d.WriteString(f.Name)
}

// LongSubscript represents access to an array element or integer map key
type LongSubscript struct {
	Index int64
}

// String returns a textual representation of this LongSubscript
func (s LongSubscript) String() string {
	return fmt.Sprintf("[%d]", s.Index)
}

func (s LongSubscript) writeHash(d *xxhash.Digest) {
	var buf [9]byte
	buf[0] = 0x02
	binary.BigEndian.PutUint64(buf[1:], uint64(s.Index))
	d.Write(buf[:])
}

// StringSubscript represents access to a string map key
type StringSubscript struct {
	Key string
}

// String returns a textual representation of this StringSubscript
func (s StringSubscript) String() string {
	return fmt.Sprintf("[%q]", s.Key)
}

func (s StringSubscript) writeHash(d *xxhash.Digest) {
	d.Write([]byte{0x03})
	d.WriteString(s.Key)
}

// AllSubscripts represents access to every element of an array or map
type AllSubscripts struct{}

// String returns a textual representation of this AllSubscripts
func (s AllSubscripts) String() string {
	return "[*]"
}

func (s AllSubscripts) writeHash(d *xxhash.Digest) {
	d.Write([]byte{0x04})
}

// NoSubfield is a sentinel path element asserting that only the existence
// of the enclosing value matters, not its contents (e.g. an IS NULL check
// on a struct). It is deliberately distinct, in both equality and hashing,
// from recording no path at all.
type NoSubfield struct{}

// String returns a textual representation of this NoSubfield
func (s NoSubfield) String() string {
	return "[#]"
}

func (s NoSubfield) writeHash(d *xxhash.Digest) {
	d.Write([]byte{0x05})
}

// A Subfield describes partial access into a named struct/array/map-typed
// column: a root name plus an ordered, root-to-leaf sequence of path
// elements. Subfields are immutable once created.
type Subfield struct {
	root string
	path []PathElement
}

// CreateSubfield is a factory for Subfields
func CreateSubfield(root string, path ...PathElement) Subfield {
	return Subfield{root: root, path: path}
}

// RootName returns the name of the column this Subfield accesses
func (s Subfield) RootName() string {
	return s.root
}

// Path returns the ordered path elements of this Subfield. The returned
// slice must not be modified.
func (s Subfield) Path() []PathElement {
	return s.path
}

// LastPathElement returns the final element of this Subfield's path, or
// nil if the path is empty
func (s Subfield) LastPathElement() PathElement {
	if len(s.path) == 0 {
		return nil
	}
	return s.path[len(s.path)-1]
}

// Equals returns true iff this and another Subfield have the same root
// name and identical paths
func (s Subfield) Equals(other Subfield) bool {
	if s.root != other.root || len(s.path) != len(other.path) {
		return false
	}
	for i := range s.path {
		if s.path[i] != other.path[i] {
			return false
		}
	}
	return true
}

// IsPrefix returns true iff this Subfield's path is a (non-strict) prefix
// of another Subfield's path, with the same root name. Every Subfield is
// a prefix of itself.
func (s Subfield) IsPrefix(other Subfield) bool {
	if s.root != other.root || len(s.path) > len(other.path) {
		return false
	}
	for i := range s.path {
		if s.path[i] != other.path[i] {
			return false
		}
	}
	return true
}

// Hash returns a 64-bit hash of this Subfield, computed over a canonical
// type-tagged encoding of the root name and path
func (s Subfield) Hash() uint64 {
	d := xxhash.New()
	d.WriteString(s.root)
	d.Write([]byte{0x00})
	for _, element := range s.path {
		element.writeHash(d)
	}
	return d.Sum64()
}

// String returns a textual representation of this Subfield, e.g. a.b[2]
func (s Subfield) String() string {
	var res strings.Builder
	res.WriteString(s.root)
	for _, element := range s.path {
		res.WriteString(element.String())
	}
	return res.String()
}
