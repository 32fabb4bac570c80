package stego

import (
	"fmt"
	"strings"
)

func init() {
	Register(&lsbScheme{})
}

// lsbScheme embeds payload bits into the least significant bits of the
// carrier's color channels in sequential order: R, G, B of pixel 0, then
// pixel 1, and so on. The alpha channel is never touched.
type lsbScheme struct{}

func (s *lsbScheme) ID() SchemeID { return SchemeLSB }

func (s *lsbScheme) Describe() string {
	return "sequential least-significant-bit embedding"
}

func (s *lsbScheme) CapacityBits(carrier *Surface) int {
	if carrier == nil {
		return 0
	}
	return carrier.PixelCount() * 3
}

func (s *lsbScheme) Encode(req EncodeRequest) (*Artifact, error) {
	if req.Carrier == nil {
		return nil, fmt.Errorf("%w: carrier image is required", ErrInputMissing)
	}

	bits, err := sealToBits(req.Message, req.Password)
	if err != nil {
		return nil, err
	}
	if len(bits) > s.CapacityBits(req.Carrier) {
		return nil, fmt.Errorf("%w: need %d bits, carrier holds %d",
			ErrCapacityExceeded, len(bits), s.CapacityBits(req.Carrier))
	}

	for i := 0; i < len(bits); i++ {
		var bit byte
		if bits[i] == '1' {
			bit = 1
		}
		req.Carrier.setLSB(i/3, i%3, bit)
	}

	return &Artifact{Scheme: s.ID(), Surface: req.Carrier}, nil
}

func (s *lsbScheme) Decode(req DecodeRequest) (string, error) {
	if req.Carrier == nil {
		return "", fmt.Errorf("%w: carrier image is required", ErrInputMissing)
	}

	capacity := s.CapacityBits(req.Carrier)
	var b strings.Builder
	b.Grow(capacity)
	for i := 0; i < capacity; i++ {
		b.WriteByte(req.Carrier.lsb(i/3, i%3))
	}

	return recoverFromBits(b.String(), req.Password)
}
