package wisp

import "math/bits"

// UserSet is a bitset over user ids 1..n. The zero value is an empty
// set over zero users.
type UserSet struct {
	n     int
	words []uint64
}

// NewUserSet returns an empty set over users 1..n.
func NewUserSet(n int) UserSet {
	return UserSet{n: n, words: make([]uint64, (n+63)/64)}
}

// FullUserSet returns the set {1..n}.
func FullUserSet(n int) UserSet {
	s := NewUserSet(n)
	for u := 1; u <= n; u++ {
		s.Add(UserID(u))
	}
	return s
}

// UserSetOf returns a set over users 1..n containing the given users.
func UserSetOf(n int, users ...UserID) UserSet {
	s := NewUserSet(n)
	for _, u := range users {
		s.Add(u)
	}
	return s
}

func (s UserSet) Has(u UserID) bool {
	if u < 1 || int(u) > s.n {
		return false
	}
	return s.words[(u-1)/64]>>uint((u-1)%64)&1 == 1
}

func (s *UserSet) Add(u UserID) {
	if u < 1 || int(u) > s.n {
		return
	}
	s.words[(u-1)/64] |= 1 << uint((u-1)%64)
}

func (s *UserSet) Delete(u UserID) {
	if u < 1 || int(u) > s.n {
		return
	}
	s.words[(u-1)/64] &^= 1 << uint((u-1)%64)
}

func (s UserSet) Count() int {
	c := 0
	for _, w := range s.words {
		c += bits.OnesCount64(w)
	}
	return c
}

func (s UserSet) Empty() bool {
	for _, w := range s.words {
		if w != 0 {
			return false
		}
	}
	return true
}

func (s UserSet) Clone() UserSet {
	words := make([]uint64, len(s.words))
	copy(words, s.words)
	return UserSet{n: s.n, words: words}
}

func (s *UserSet) IntersectWith(o UserSet) {
	for i := range s.words {
		var w uint64
		if i < len(o.words) {
			w = o.words[i]
		}
		s.words[i] &= w
	}
}

func (s *UserSet) UnionWith(o UserSet) {
	for i := range s.words {
		if i < len(o.words) {
			s.words[i] |= o.words[i]
		}
	}
}

// Min returns the smallest user in the set, or UserNone if it is empty.
func (s UserSet) Min() UserID {
	for i, w := range s.words {
		if w != 0 {
			return UserID(i*64 + bits.TrailingZeros64(w) + 1)
		}
	}
	return UserNone
}

// Values returns the members in ascending order.
func (s UserSet) Values() []UserID {
	out := make([]UserID, 0, s.Count())
	for i, w := range s.words {
		for w != 0 {
			off := bits.TrailingZeros64(w)
			out = append(out, UserID(i*64+off+1))
			w &^= 1 << uint(off)
		}
	}
	return out
}

// Each calls f for every member in ascending order until f returns
// false.
func (s UserSet) Each(f func(UserID) bool) {
	for i, w := range s.words {
		for w != 0 {
			off := bits.TrailingZeros64(w)
			if !f(UserID(i*64 + off + 1)) {
				return
			}
			w &^= 1 << uint(off)
		}
	}
}
