package graphstore

import "sort"

// idSet is a sorted set of uint64 ids. It substitutes for the Rust source's
// RoaringTreemap: no compressed-bitmap library exists among the available
// dependencies, so deleted/created id tracking here trades the bitmap's
// near-O(1) iteration for a plain sorted slice, which every method below
// keeps sorted and duplicate-free. Sets in this package stay small (freed
// ids awaiting reuse, one commit's worth of staged writes), so the O(n)
// insert/remove cost this trades for doesn't matter in practice.
type idSet struct {
	ids []uint64
}

func (s *idSet) search(id uint64) (int, bool) {
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	return i, i < len(s.ids) && s.ids[i] == id
}

// Insert adds id to the set. No-op if already present.
func (s *idSet) Insert(id uint64) {
	i, found := s.search(id)
	if found {
		return
	}
	s.ids = append(s.ids, 0)
	copy(s.ids[i+1:], s.ids[i:])
	s.ids[i] = id
}

// Remove deletes id from the set. No-op if absent.
func (s *idSet) Remove(id uint64) {
	i, found := s.search(id)
	if !found {
		return
	}
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
}

// Contains reports whether id is a member.
func (s *idSet) Contains(id uint64) bool {
	_, found := s.search(id)
	return found
}

// Len returns the number of members.
func (s *idSet) Len() int { return len(s.ids) }

// Clear empties the set.
func (s *idSet) Clear() { s.ids = s.ids[:0] }

// Each calls fn for every member in ascending order.
func (s *idSet) Each(fn func(uint64)) {
	for _, id := range s.ids {
		fn(id)
	}
}

// NthFrom mirrors the Rust source's iter().advance_to(n).next() pattern used
// by Graph's id-reservation logic: it skips the first n members by position
// and returns the one after, plus whether one exists. Reserving the k-th
// already-deleted id advances past the first k-1 entries (by position, not
// by value) and returns entry k; once every deleted id has been handed out
// this way, reservation falls back to extending the id space.
func (s *idSet) NthFrom(skip int) (uint64, bool) {
	if skip < 0 || skip >= len(s.ids) {
		return 0, false
	}
	return s.ids[skip], true
}
