package opt

// claimSet is a growable bitset over new ids.
type claimSet struct {
	words []uint64
}

func (s *claimSet) has(id uint32) bool {
	w := int(id / 64)
	return w < len(s.words) && s.words[w]&(1<<(id%64)) != 0
}

func (s *claimSet) add(id uint32) {
	w := int(id / 64)
	if w >= len(s.words) {
		grown := make([]uint64, max(w+1, 2*len(s.words)))
		copy(grown, s.words)
		s.words = grown
	}
	s.words[w] |= 1 << (id % 64)
}
