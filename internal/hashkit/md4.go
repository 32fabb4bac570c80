package hashkit

import (
	"encoding/binary"
	"math/bits"
)

// Round 2 and 3 word orderings from RFC 1320.
var (
	md4Round2 = [16]int{0, 4, 8, 12, 1, 5, 9, 13, 2, 6, 10, 14, 3, 7, 11, 15}
	md4Round3 = [16]int{0, 8, 4, 12, 2, 10, 6, 14, 1, 9, 5, 13, 3, 11, 7, 15}
	md4Shift1 = [4]int{3, 7, 11, 19}
	md4Shift2 = [4]int{3, 5, 9, 13}
	md4Shift3 = [4]int{3, 9, 11, 15}
)

// md4Sum computes the MD4 digest of data. All additions wrap modulo 2^32.
func md4Sum(data []byte) [16]byte {
	a0 := uint32(0x67452301)
	b0 := uint32(0xefcdab89)
	c0 := uint32(0x98badcfe)
	d0 := uint32(0x10325476)

	padded := mdPad(data)

	var x [16]uint32
	for block := 0; block < len(padded); block += 64 {
		for i := range x {
			x[i] = binary.LittleEndian.Uint32(padded[block+i*4:])
		}

		a, b, c, d := a0, b0, c0, d0

		// Round 1: F(b,c,d) = (b AND c) OR (NOT b AND d)
		for i := 0; i < 16; i++ {
			f := (b & c) | (^b & d)
			a = bits.RotateLeft32(a+f+x[i], md4Shift1[i%4])
			a, b, c, d = d, a, b, c
		}

		// Round 2: G(b,c,d) = majority, constant 0x5A827999
		for i := 0; i < 16; i++ {
			g := (b & c) | (b & d) | (c & d)
			a = bits.RotateLeft32(a+g+x[md4Round2[i]]+0x5a827999, md4Shift2[i%4])
			a, b, c, d = d, a, b, c
		}

		// Round 3: H(b,c,d) = b XOR c XOR d, constant 0x6ED9EBA1
		for i := 0; i < 16; i++ {
			h := b ^ c ^ d
			a = bits.RotateLeft32(a+h+x[md4Round3[i]]+0x6ed9eba1, md4Shift3[i%4])
			a, b, c, d = d, a, b, c
		}

		a0 += a
		b0 += b
		c0 += c
		d0 += d
	}

	var digest [16]byte
	binary.LittleEndian.PutUint32(digest[0:], a0)
	binary.LittleEndian.PutUint32(digest[4:], b0)
	binary.LittleEndian.PutUint32(digest[8:], c0)
	binary.LittleEndian.PutUint32(digest[12:], d0)
	return digest
}
