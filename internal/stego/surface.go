package stego

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
)

// Surface is a flat RGBA pixel buffer, 4 bytes per pixel. It is the carrier
// abstraction every scheme embeds into: photographic carriers are decoded
// into one, synthetic carriers are rendered onto one. A Surface is owned by a
// single operation at a time and is mutated in place during encode.
type Surface struct {
	Width  int
	Height int
	Pix    []byte
}

// NewSurface allocates an opaque white surface.
func NewSurface(width, height int) *Surface {
	s := &Surface{Width: width, Height: height, Pix: make([]byte, width*height*4)}
	for i := range s.Pix {
		s.Pix[i] = 0xFF
	}
	return s
}

// Clone returns an independent copy of the surface.
func (s *Surface) Clone() *Surface {
	pix := make([]byte, len(s.Pix))
	copy(pix, s.Pix)
	return &Surface{Width: s.Width, Height: s.Height, Pix: pix}
}

// PixelCount returns the number of pixels.
func (s *Surface) PixelCount() int {
	return s.Width * s.Height
}

// channel returns the byte offset of an RGB channel (0..2) of a pixel.
// The alpha byte at offset 3 is never addressed by any scheme.
func (s *Surface) channel(pixel, ch int) int {
	return pixel*4 + ch
}

// setLSB writes a single bit into the least significant bit of a channel.
func (s *Surface) setLSB(pixel, ch int, bit byte) {
	idx := s.channel(pixel, ch)
	if bit == 1 {
		s.Pix[idx] |= 1
	} else {
		s.Pix[idx] &^= 1
	}
}

// lsb reads the least significant bit of a channel as '0' or '1'.
func (s *Surface) lsb(pixel, ch int) byte {
	if s.Pix[s.channel(pixel, ch)]&1 == 1 {
		return '1'
	}
	return '0'
}

// fillRect paints an axis-aligned rectangle with a grey level (0 black,
// 255 white), clipped to the surface.
func (s *Surface) fillRect(x, y, w, h int, level byte) {
	for yy := y; yy < y+h && yy < s.Height; yy++ {
		for xx := x; xx < x+w && xx < s.Width; xx++ {
			idx := (yy*s.Width + xx) * 4
			s.Pix[idx] = level
			s.Pix[idx+1] = level
			s.Pix[idx+2] = level
			s.Pix[idx+3] = 0xFF
		}
	}
}

// isDark reports whether the pixel at (x, y) reads as black. Synthetic grids
// are pure black/white, so a midpoint threshold on the red channel suffices.
func (s *Surface) isDark(x, y int) bool {
	return s.Pix[(y*s.Width+x)*4] < 128
}

// DecodeImageBytes decodes PNG bytes into a Surface.
func DecodeImageBytes(data []byte) (*Surface, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	bounds := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)

	return &Surface{Width: bounds.Dx(), Height: bounds.Dy(), Pix: rgba.Pix}, nil
}

// EncodeImageBytes renders a Surface as PNG bytes. PNG is lossless, which the
// LSB family depends on.
func EncodeImageBytes(s *Surface) ([]byte, error) {
	rgba := &image.RGBA{
		Pix:    s.Pix,
		Stride: s.Width * 4,
		Rect:   image.Rect(0, 0, s.Width, s.Height),
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, fmt.Errorf("PNG encoding failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Analysis summarizes the LSB plane of a surface.
type Analysis struct {
	ZeroRatio float64 // fraction of LSBs that are zero
	Entropy   float64 // Shannon entropy of LSB-plane bytes, max 8.0
}

// AnalyzeSurface inspects the LSB plane. A carrier holding an encrypted
// payload shows near-uniform bit distribution and entropy close to 8.
func AnalyzeSurface(s *Surface) Analysis {
	zeros := 0
	total := 0
	var bitBuffer byte
	bitCount := 0
	frequency := make(map[byte]int)
	lsbBytes := 0

	for p := 0; p < s.PixelCount(); p++ {
		for ch := 0; ch < 3; ch++ {
			bit := s.Pix[s.channel(p, ch)] & 1
			if bit == 0 {
				zeros++
			}
			total++

			bitBuffer = bitBuffer<<1 | bit
			bitCount++
			if bitCount == 8 {
				frequency[bitBuffer]++
				lsbBytes++
				bitBuffer = 0
				bitCount = 0
			}
		}
	}

	var entropy float64
	for _, count := range frequency {
		p := float64(count) / float64(lsbBytes)
		entropy -= p * math.Log2(p)
	}

	var ratio float64
	if total > 0 {
		ratio = float64(zeros) / float64(total)
	}
	return Analysis{ZeroRatio: ratio, Entropy: entropy}
}
