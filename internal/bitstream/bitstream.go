// Package bitstream converts between text, bit strings, hex and base64 for the
// steganographic codecs. Bit strings are '0'/'1' characters, one byte per
// eight bits, most significant bit first.
package bitstream

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

// TerminatorBits is the number of zero bits appended after a payload to mark
// its end inside a carrier.
const TerminatorBits = 40

// Terminator is the 40-bit all-zero end-of-payload marker.
var Terminator = strings.Repeat("0", TerminatorBits)

// TextToBits expands the UTF-8 bytes of s into a bit string, MSB first.
func TextToBits(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 8)
	for _, by := range []byte(s) {
		for i := 7; i >= 0; i-- {
			if by&(1<<i) != 0 {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
	}
	return b.String()
}

// BitsToText reassembles a bit string into text. It fails locally, returning
// "" and false, when the length is not a multiple of eight, a character is
// not '0'/'1', or the resulting bytes are not valid UTF-8, so callers can
// report corruption instead of propagating a panic.
func BitsToText(bits string) (string, bool) {
	if len(bits) == 0 || len(bits)%8 != 0 {
		return "", false
	}
	out := make([]byte, 0, len(bits)/8)
	for i := 0; i < len(bits); i += 8 {
		var by byte
		for j := 0; j < 8; j++ {
			switch bits[i+j] {
			case '1':
				by |= 1 << (7 - j)
			case '0':
			default:
				return "", false
			}
		}
		out = append(out, by)
	}
	if !utf8.Valid(out) {
		return "", false
	}
	return string(out), true
}

// SplitTerminator returns the payload bits before the first occurrence of the
// terminator marker. Payloads are whole bytes, so only byte-aligned offsets
// are considered: a payload whose final byte ends in zero bits must not have
// those bits absorbed into the terminator.
func SplitTerminator(bits string) (string, bool) {
	for i := 0; i+TerminatorBits <= len(bits); i += 8 {
		if bits[i:i+TerminatorBits] == Terminator {
			return bits[:i], true
		}
	}
	return "", false
}

// BytesToHex encodes b as lowercase hex, two characters per byte.
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// HexToBytes decodes a hex string. Odd-length or non-hex input is an error.
func HexToBytes(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("hex string has odd length %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}

// BytesToBase64 encodes b using standard base64.
func BytesToBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64ToBytes decodes standard base64.
func Base64ToBytes(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return b, nil
}
