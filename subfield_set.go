package quarry

// A SubfieldSet is a mutable set of Subfields, deduplicated by Equals.
// Entries are bucketed by Subfield.Hash, with collisions resolved by full
// equality checks. SubfieldSets are not safe for concurrent use.
type SubfieldSet struct {
	buckets map[uint64][]Subfield
	size    int
}

// CreateSubfieldSet is a factory for SubfieldSets, pre-populated with the
// given Subfields
func CreateSubfieldSet(subfields ...Subfield) *SubfieldSet {
	set := &SubfieldSet{buckets: make(map[uint64][]Subfield)}
	for _, subfield := range subfields {
		set.Add(subfield)
	}
	return set
}

// Add inserts a Subfield into this set, returning true iff it was not
// already present
func (s *SubfieldSet) Add(subfield Subfield) bool {
	h := subfield.Hash()
	for _, existing := range s.buckets[h] {
		if existing.Equals(subfield) {
			return false
		}
	}
	s.buckets[h] = append(s.buckets[h], subfield)
	s.size++
	return true
}

// AddAll inserts every Subfield from another set into this one
func (s *SubfieldSet) AddAll(other *SubfieldSet) {
	other.Each(func(subfield Subfield) {
		s.Add(subfield)
	})
}

// Contains returns true iff an equal Subfield is present in this set
func (s *SubfieldSet) Contains(subfield Subfield) bool {
	for _, existing := range s.buckets[subfield.Hash()] {
		if existing.Equals(subfield) {
			return true
		}
	}
	return false
}

// Len returns the number of Subfields in this set
func (s *SubfieldSet) Len() int {
	return s.size
}

// Each invokes fn for every Subfield in this set, in no particular order
func (s *SubfieldSet) Each(fn func(subfield Subfield)) {
	for _, bucket := range s.buckets {
		for _, subfield := range bucket {
			fn(subfield)
		}
	}
}

// Values returns the Subfields in this set as a slice, in no particular
// order
func (s *SubfieldSet) Values() []Subfield {
	res := make([]Subfield, 0, s.size)
	s.Each(func(subfield Subfield) {
		res = append(res, subfield)
	})
	return res
}

// Clone returns a copy of this SubfieldSet
func (s *SubfieldSet) Clone() *SubfieldSet {
	res := CreateSubfieldSet()
	res.AddAll(s)
	return res
}

// FindByRoot returns every Subfield in this set whose root name matches
// the given name
func (s *SubfieldSet) FindByRoot(root string) []Subfield {
	var res []Subfield
	s.Each(func(subfield Subfield) {
		if subfield.RootName() == root {
			res = append(res, subfield)
		}
	})
	return res
}
