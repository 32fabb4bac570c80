// Package permute derives numeric seeds from secret key strings and produces
// deterministic pixel-visiting permutations from them. Encode and decode both
// regenerate the permutation from the key, so nothing about the ordering is
// ever stored in the carrier.
package permute

import (
	"strconv"
	"unicode/utf16"

	"github.com/pixelveil/pixelveil/internal/hashkit"
)

// SeedFromKey hashes a key string into a 32-bit seed using a polynomial
// accumulation over its UTF-16 code units. The arithmetic is pure integer
// work, so the result is identical on every platform.
func SeedFromKey(key string) uint32 {
	var h int32
	for _, cu := range utf16.Encode([]rune(key)) {
		h = h*31 + int32(cu)
	}
	if h < 0 {
		// Absolute value; math.MinInt32 negates to itself, which is fine:
		// the seed only has to be reproducible, not positive as an int32.
		h = -h
	}
	return uint32(h)
}

// SeedFromKeyMD5 derives a seed from the first eight hex characters of the
// MD5 digest of the key. A different derivation gives the keyed-pattern
// scheme a permutation space disjoint from the plain pattern scheme.
func SeedFromKeyMD5(key string) uint32 {
	digest, err := hashkit.Digest(hashkit.MD5, key)
	if err != nil {
		return 0
	}
	v, err := strconv.ParseUint(digest[:8], 16, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}

// rng is a mulberry-construction 32-bit PRNG: a Weyl increment of 0x6D2B79F5
// followed by an xorshift-multiply finishing mix. Small, fast, and most
// importantly stable: unlike math/rand, its sequence is pinned by this code.
type rng struct {
	state uint32
}

func (r *rng) next() uint32 {
	r.state += 0x6D2B79F5
	z := r.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	return z ^ (z >> 14)
}

// intn maps a raw 32-bit draw onto [0, n) using the 64-bit multiply-shift
// reduction, the integer equivalent of flooring a scaled unit float.
func (r *rng) intn(n uint32) uint32 {
	return uint32((uint64(r.next()) * uint64(n)) >> 32)
}

// Shuffle returns a permutation of [0, n) determined entirely by (n, seed).
// The generator is seeded once and advanced exactly n-1 times by a
// Fisher-Yates walk from the last index down to index 1.
func Shuffle(n uint32, seed uint32) []uint32 {
	perm := make([]uint32, n)
	for i := range perm {
		perm[i] = uint32(i)
	}
	if n < 2 {
		return perm
	}

	r := rng{state: seed}
	for i := n - 1; i > 0; i-- {
		j := r.intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}
