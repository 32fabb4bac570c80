package stego

import (
	"fmt"
	"strings"

	"github.com/pixelveil/pixelveil/internal/bitstream"
)

const (
	// dotSize is the side length in pixels of one rendered dot cell.
	dotSize = 10
	// dotsPerRow fixes the grid width; the canvas grows downward with the
	// payload.
	dotsPerRow = 32
)

func init() {
	Register(&randomDotScheme{})
}

// randomDotScheme renders each payload bit as one filled square on a fresh
// monochrome canvas: black for 1, white for 0, laid out row-major. It needs
// no photographic carrier. The pre-terminator bit string is exported as an
// intermediate payload so a decode can skip the image entirely.
type randomDotScheme struct{}

func (s *randomDotScheme) ID() SchemeID { return SchemeRandomDot }

func (s *randomDotScheme) Describe() string {
	return "synthetic dot-grid rendering, one square per bit"
}

// CapacityBits is unbounded: the canvas is sized from the payload.
func (s *randomDotScheme) CapacityBits(*Surface) int { return -1 }

func (s *randomDotScheme) Encode(req EncodeRequest) (*Artifact, error) {
	bits, err := sealToBits(req.Message, req.Password)
	if err != nil {
		return nil, err
	}

	rows := (len(bits) + dotsPerRow - 1) / dotsPerRow
	surface := NewSurface(dotsPerRow*dotSize, rows*dotSize)

	for i := 0; i < len(bits); i++ {
		if bits[i] == '1' {
			col := i % dotsPerRow
			row := i / dotsPerRow
			surface.fillRect(col*dotSize, row*dotSize, dotSize, dotSize, 0x00)
		}
	}

	// Intermediate payload excludes the terminator; it is re-appended when
	// the string is decoded directly.
	intermediate := strings.TrimSuffix(bits, bitstream.Terminator)

	return &Artifact{Scheme: s.ID(), Surface: surface, Intermediate: intermediate}, nil
}

func (s *randomDotScheme) Decode(req DecodeRequest) (string, error) {
	if req.Intermediate != "" {
		return s.decodeIntermediate(req.Intermediate, req.Password)
	}
	if req.Carrier == nil {
		return "", fmt.Errorf("%w: dot image or intermediate bit string is required", ErrInputMissing)
	}

	cols := req.Carrier.Width / dotSize
	rows := req.Carrier.Height / dotSize
	if cols == 0 || rows == 0 {
		return "", ErrTerminatorNotFound
	}

	// Re-sample the center pixel of every grid cell. Unused cells in the
	// last row read back as white, i.e. zeros past the terminator.
	var b strings.Builder
	b.Grow(cols * rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if req.Carrier.isDark(col*dotSize+dotSize/2, row*dotSize+dotSize/2) {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
	}

	return recoverFromBits(b.String(), req.Password)
}

// decodeIntermediate accepts the raw pre-terminator bit string produced at
// encode time, bypassing the image.
func (s *randomDotScheme) decodeIntermediate(bits, password string) (string, error) {
	for i := 0; i < len(bits); i++ {
		if bits[i] != '0' && bits[i] != '1' {
			return "", ErrCorruptPayload
		}
	}
	return recoverFromBits(bits+bitstream.Terminator, password)
}
