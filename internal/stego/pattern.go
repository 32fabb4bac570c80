package stego

import (
	"fmt"
	"strings"

	"github.com/pixelveil/pixelveil/internal/permute"
)

func init() {
	Register(&patternScheme{
		id:       SchemePattern,
		describe: "key-seeded pattern LSB embedding (polynomial seed)",
		seed:     permute.SeedFromKey,
	})
	Register(&patternScheme{
		id:       SchemeKeyedPattern,
		describe: "key-seeded pattern LSB embedding (MD5 seed)",
		seed:     permute.SeedFromKeyMD5,
	})
}

// patternScheme embeds like the sequential LSB scheme but visits pixels in a
// permutation derived from the stego key. Each visited pixel contributes its
// R, G, B LSBs in order before the walk moves on. The two registered variants
// differ only in how the key becomes a seed, which makes their permutation
// spaces mutually incompatible on purpose.
type patternScheme struct {
	id       SchemeID
	describe string
	seed     func(string) uint32
}

func (s *patternScheme) ID() SchemeID     { return s.id }
func (s *patternScheme) Describe() string { return s.describe }

func (s *patternScheme) CapacityBits(carrier *Surface) int {
	if carrier == nil {
		return 0
	}
	return carrier.PixelCount() * 3
}

func (s *patternScheme) order(carrier *Surface, key string) []uint32 {
	return permute.Shuffle(uint32(carrier.PixelCount()), s.seed(key))
}

func (s *patternScheme) Encode(req EncodeRequest) (*Artifact, error) {
	if req.Carrier == nil {
		return nil, fmt.Errorf("%w: carrier image is required", ErrInputMissing)
	}
	if req.Key == "" {
		return nil, fmt.Errorf("%w: stego key is required", ErrInputMissing)
	}

	bits, err := sealToBits(req.Message, req.Password)
	if err != nil {
		return nil, err
	}
	if len(bits) > s.CapacityBits(req.Carrier) {
		return nil, fmt.Errorf("%w: need %d bits, carrier holds %d",
			ErrCapacityExceeded, len(bits), s.CapacityBits(req.Carrier))
	}

	order := s.order(req.Carrier, req.Key)
	for i := 0; i < len(bits); i++ {
		var bit byte
		if bits[i] == '1' {
			bit = 1
		}
		req.Carrier.setLSB(int(order[i/3]), i%3, bit)
	}

	return &Artifact{Scheme: s.ID(), Surface: req.Carrier}, nil
}

func (s *patternScheme) Decode(req DecodeRequest) (string, error) {
	if req.Carrier == nil {
		return "", fmt.Errorf("%w: carrier image is required", ErrInputMissing)
	}
	if req.Key == "" {
		return "", fmt.Errorf("%w: stego key is required", ErrInputMissing)
	}

	order := s.order(req.Carrier, req.Key)
	capacity := s.CapacityBits(req.Carrier)

	var b strings.Builder
	b.Grow(capacity)
	for i := 0; i < capacity; i++ {
		b.WriteByte(req.Carrier.lsb(int(order[i/3]), i%3))
	}

	return recoverFromBits(b.String(), req.Password)
}
