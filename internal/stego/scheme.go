// Package stego implements five steganographic codecs behind one Scheme
// contract. Every scheme shares the same payload pipeline (encrypt with the
// password, expand to a bit string, append the 40-bit terminator) and
// differs only in how those bits are addressed onto a carrier.
package stego

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/pixelveil/pixelveil/internal/bitstream"
	"github.com/pixelveil/pixelveil/internal/envelope"
)

// SchemeID selects one of the registered codecs.
type SchemeID string

const (
	SchemeLSB          SchemeID = "lsb"
	SchemePattern      SchemeID = "pattern"
	SchemeKeyedPattern SchemeID = "md5pattern"
	SchemeRandomDot    SchemeID = "randomdot"
	SchemeMorse        SchemeID = "morse"
)

// EncodeRequest carries the inputs of an encode operation. Carrier is
// required for the LSB family and ignored by the synthetic schemes, which
// size their own canvas. Key is required only by the pattern schemes.
type EncodeRequest struct {
	Message  string
	Password string
	Key      string
	Carrier  *Surface
}

// DecodeRequest carries the inputs of a decode operation. Either Carrier or,
// for the synthetic schemes, Intermediate must be set.
type DecodeRequest struct {
	Carrier      *Surface
	Intermediate string
	Password     string
	Key          string
}

// Artifact is the product of an encode: the mutated or synthesized carrier
// and, for the synthetic schemes, an intermediate payload string that can be
// fed straight back into Decode without the image.
type Artifact struct {
	Scheme       SchemeID
	Surface      *Surface
	Intermediate string
}

// Scheme is the uniform contract implemented by all five codecs.
type Scheme interface {
	ID() SchemeID
	Describe() string

	// CapacityBits reports how many payload bits (terminator included) the
	// carrier can hold. Schemes that synthesize their own carrier return -1.
	CapacityBits(carrier *Surface) int

	Encode(req EncodeRequest) (*Artifact, error)
	Decode(req DecodeRequest) (string, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[SchemeID]Scheme)
)

// Register adds a scheme to the global registry. Called from init functions;
// duplicate registration is a programming error.
func Register(s Scheme) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[s.ID()]; exists {
		panic(fmt.Sprintf("stego: duplicate scheme %q", s.ID()))
	}
	registry[s.ID()] = s
}

// Get retrieves a scheme by ID.
func Get(id SchemeID) (Scheme, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[id]
	return s, ok
}

// List returns all registered scheme IDs in stable order.
func List() []SchemeID {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ids := make([]SchemeID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// sealToBits runs the shared encode pipeline: authenticated encryption, bit
// expansion, terminator append. The returned string is what every scheme
// embeds.
func sealToBits(message, password string) (string, error) {
	if message == "" || password == "" {
		return "", fmt.Errorf("%w: message and password are required", ErrInputMissing)
	}
	sealed, err := envelope.Encrypt(message, password)
	if err != nil {
		return "", err
	}
	return bitstream.TextToBits(sealed) + bitstream.Terminator, nil
}

// recoverFromBits runs the shared decode pipeline over an extracted bit
// stream: locate the terminator, reassemble the payload string, decrypt.
func recoverFromBits(bits, password string) (string, error) {
	payloadBits, ok := bitstream.SplitTerminator(bits)
	if !ok {
		return "", ErrTerminatorNotFound
	}
	if payloadBits == "" {
		return "", ErrEmptyPayload
	}
	payload, ok := bitstream.BitsToText(payloadBits)
	if !ok {
		return "", ErrCorruptPayload
	}
	return envelope.Decrypt(payload, password)
}

// IsDecodeError reports whether err belongs to the decode failure taxonomy
// (as opposed to missing inputs or programming errors).
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrTerminatorNotFound) ||
		errors.Is(err, ErrEmptyPayload) ||
		errors.Is(err, ErrCorruptPayload) ||
		errors.Is(err, envelope.ErrAuthentication) ||
		errors.Is(err, envelope.ErrFormat)
}
