package tensor

import (
	"cmp"
	"iter"
	"math/bits"
	"slices"

	"github.com/hideo55/go-popcount"
)

// block is one 64-key word of a keySet.
type block struct {
	word int32  // key >> 6
	base int32  // number of keys stored in the preceding blocks
	bits uint64 // bit k set <=> key word*64+k is present
}

// keySet is an ordered set of non-negative ints stored as a compressed bitmap:
// only non-empty 64-bit words are kept, sorted by word index.
//
// Every key maps to a dense slot in [0, Len()): the number of smaller keys in
// the set. Node payloads (children or values) are stored in slices aligned to
// these slots, so iterating slots visits keys in ascending order.
type keySet struct {
	blocks []block
	n      int
}

func splitKey(key int) (int32, uint64) {
	return int32(key >> 6), uint64(1) << (uint(key) & 63)
}

// Len returns the number of keys in the set.
func (s *keySet) Len() int {
	return s.n
}

func (s *keySet) search(word int32) (int, bool) {
	return slices.BinarySearchFunc(s.blocks, word, func(b block, w int32) int {
		return cmp.Compare(b.word, w)
	})
}

// find returns the slot of key.
func (s *keySet) find(key int) (int, bool) {
	word, bit := splitKey(key)
	i, ok := s.search(word)
	if !ok {
		return 0, false
	}
	b := s.blocks[i]
	if b.bits&bit == 0 {
		return 0, false
	}
	return int(b.base) + int(popcount.Count(b.bits&(bit-1))), true
}

// insert adds key and returns its slot. inserted is false when the key was
// already present, in which case the slot is the existing one.
func (s *keySet) insert(key int) (slot int, inserted bool) {
	word, bit := splitKey(key)
	i, ok := s.search(word)
	if !ok {
		base := int32(s.n)
		if i < len(s.blocks) {
			base = s.blocks[i].base
		}
		s.blocks = slices.Insert(s.blocks, i, block{word: word, base: base})
	}

	b := &s.blocks[i]
	slot = int(b.base) + int(popcount.Count(b.bits&(bit-1)))
	if b.bits&bit != 0 {
		return slot, false
	}
	b.bits |= bit

	for j := i + 1; j < len(s.blocks); j++ {
		s.blocks[j].base++
	}
	s.n++
	return slot, true
}

// remove deletes key and returns the slot it occupied.
func (s *keySet) remove(key int) (int, bool) {
	word, bit := splitKey(key)
	i, ok := s.search(word)
	if !ok || s.blocks[i].bits&bit == 0 {
		return 0, false
	}

	b := &s.blocks[i]
	slot := int(b.base) + int(popcount.Count(b.bits&(bit-1)))
	b.bits &^= bit

	next := i + 1
	if b.bits == 0 {
		s.blocks = slices.Delete(s.blocks, i, i+1)
		next = i
	}
	for j := next; j < len(s.blocks); j++ {
		s.blocks[j].base--
	}
	s.n--
	return slot, true
}

// all yields (slot, key) pairs in ascending key order.
func (s *keySet) all() iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		slot := 0
		for _, b := range s.blocks {
			w := b.bits
			for w != 0 {
				k := bits.TrailingZeros64(w)
				if !yield(slot, int(b.word)<<6|k) {
					return
				}
				w &= w - 1
				slot++
			}
		}
	}
}

// keys returns the keys in ascending order.
func (s *keySet) keys() []int {
	out := make([]int, 0, s.n)
	for _, k := range s.all() {
		out = append(out, k)
	}
	return out
}

// equal reports whether both sets hold exactly the same keys.
func (s *keySet) equal(other *keySet) bool {
	if s.n != other.n || len(s.blocks) != len(other.blocks) {
		return false
	}
	for i := range s.blocks {
		if s.blocks[i].word != other.blocks[i].word || s.blocks[i].bits != other.blocks[i].bits {
			return false
		}
	}
	return true
}

func (s *keySet) clone() keySet {
	return keySet{blocks: slices.Clone(s.blocks), n: s.n}
}

func (s *keySet) reset() {
	s.blocks = s.blocks[:0]
	s.n = 0
}
