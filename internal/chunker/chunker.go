// Package chunker fragments steganographic artifacts (PNG bytes or the
// Random-Dot/Morse intermediate payload strings) into self-describing
// fragments small enough for DNS TXT records, and reassembles them.
//
// Each fragment carries identity, position and integrity metadata so a
// message survives out-of-order delivery, loss and corruption:
//
//	[magic 4][message id 16][sequence 2][total 2][crc32 4][payload]
//
// encoded as unpadded base32 (DNS-safe) or hex.
package chunker

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/crc32"
	"sort"
)

const (
	// safeChunkSize stays under the 255-byte DNS TXT string limit with
	// margin for server escaping quirks.
	safeChunkSize = 250
	// metadataSize is the fixed header: magic(4) + id(16) + seq(2) +
	// total(2) + crc(4).
	metadataSize = 28

	// chunkMagic identifies this fragment format.
	chunkMagic = uint32(0x50565331) // "PVS1"
)

// Encoding selects the DNS-safe text encoding of a fragment.
type Encoding string

const (
	EncodingHex    Encoding = "hex"
	EncodingBase32 Encoding = "base32"
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// payloadPerChunk returns how many raw payload bytes fit one encoded chunk.
func payloadPerChunk(enc Encoding) int {
	if enc == EncodingHex {
		// Hex doubles the wire size.
		return safeChunkSize/2 - metadataSize
	}
	// Base32 emits 8 characters per 5 input bytes.
	return safeChunkSize*5/8 - metadataSize
}

// Metadata describes one fragment.
type Metadata struct {
	MessageID [16]byte
	Sequence  uint16
	Total     uint16
	Checksum  uint32
}

// Chunk is a single DNS-ready fragment.
type Chunk struct {
	Metadata Metadata
	Payload  []byte
	Encoded  string
}

// Message is a chunked artifact ready for upload.
type Message struct {
	ID     [16]byte
	Chunks []Chunk
}

// IDString returns the hex form of the message ID.
func (m *Message) IDString() string {
	return hex.EncodeToString(m.ID[:])
}

// Chunker fragments and reassembles messages with a fixed encoding.
type Chunker struct {
	encoding Encoding
}

// New creates a Chunker. Base32 is the default encoding; it is both DNS-safe
// and denser than hex.
func New(encoding Encoding) *Chunker {
	if encoding == "" {
		encoding = EncodingBase32
	}
	return &Chunker{encoding: encoding}
}

// Split fragments data into chunks. The message ID is random per call so
// repeated uploads of the same artifact never collide.
func (c *Chunker) Split(data []byte) (*Message, error) {
	if len(data) == 0 {
		return nil, errors.New("nothing to chunk")
	}

	var id [16]byte
	if _, err := rand.Read(id[:]); err != nil {
		return nil, fmt.Errorf("message id generation failed: %w", err)
	}

	per := payloadPerChunk(c.encoding)
	total := (len(data) + per - 1) / per
	if total > int(^uint16(0)) {
		return nil, fmt.Errorf("artifact too large: needs %d chunks", total)
	}

	msg := &Message{ID: id, Chunks: make([]Chunk, 0, total)}
	for seq := 0; seq < total; seq++ {
		start := seq * per
		end := start + per
		if end > len(data) {
			end = len(data)
		}
		payload := data[start:end]

		meta := Metadata{
			MessageID: id,
			Sequence:  uint16(seq),
			Total:     uint16(total),
			Checksum:  crc32.ChecksumIEEE(payload),
		}
		msg.Chunks = append(msg.Chunks, Chunk{
			Metadata: meta,
			Payload:  payload,
			Encoded:  c.encode(meta, payload),
		})
	}
	return msg, nil
}

func (c *Chunker) encode(meta Metadata, payload []byte) string {
	wire := make([]byte, 0, metadataSize+len(payload))
	wire = binary.BigEndian.AppendUint32(wire, chunkMagic)
	wire = append(wire, meta.MessageID[:]...)
	wire = binary.BigEndian.AppendUint16(wire, meta.Sequence)
	wire = binary.BigEndian.AppendUint16(wire, meta.Total)
	wire = binary.BigEndian.AppendUint32(wire, meta.Checksum)
	wire = append(wire, payload...)

	if c.encoding == EncodingHex {
		return hex.EncodeToString(wire)
	}
	return b32.EncodeToString(wire)
}

// Decode parses one encoded fragment back into a Chunk, verifying magic and
// checksum.
func (c *Chunker) Decode(encoded string) (*Chunk, error) {
	var wire []byte
	var err error
	if c.encoding == EncodingHex {
		wire, err = hex.DecodeString(encoded)
	} else {
		wire, err = b32.DecodeString(encoded)
	}
	if err != nil {
		return nil, fmt.Errorf("chunk decode failed: %w", err)
	}
	if len(wire) < metadataSize {
		return nil, fmt.Errorf("chunk too small: %d bytes", len(wire))
	}

	var meta Metadata
	if magic := binary.BigEndian.Uint32(wire[0:4]); magic != chunkMagic {
		return nil, fmt.Errorf("bad chunk magic %08x", magic)
	}
	copy(meta.MessageID[:], wire[4:20])
	meta.Sequence = binary.BigEndian.Uint16(wire[20:22])
	meta.Total = binary.BigEndian.Uint16(wire[22:24])
	meta.Checksum = binary.BigEndian.Uint32(wire[24:28])

	payload := wire[metadataSize:]
	if crc32.ChecksumIEEE(payload) != meta.Checksum {
		return nil, fmt.Errorf("chunk %d checksum mismatch", meta.Sequence)
	}

	return &Chunk{Metadata: meta, Payload: payload, Encoded: encoded}, nil
}

// Reassemble restores the original data from decoded chunks, which may arrive
// in any order. Missing or cross-message chunks are reported, never patched
// over.
func (c *Chunker) Reassemble(chunks []Chunk) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, errors.New("no chunks to reassemble")
	}

	id := chunks[0].Metadata.MessageID
	total := chunks[0].Metadata.Total
	for _, chunk := range chunks {
		if chunk.Metadata.MessageID != id {
			return nil, fmt.Errorf("mixed messages: %x vs %x", id[:4], chunk.Metadata.MessageID[:4])
		}
		if chunk.Metadata.Total != total {
			return nil, fmt.Errorf("inconsistent chunk totals: %d vs %d", total, chunk.Metadata.Total)
		}
	}

	if len(chunks) != int(total) {
		return nil, fmt.Errorf("incomplete message: missing chunks %v", missingSequences(chunks, total))
	}

	sorted := append([]Chunk(nil), chunks...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Metadata.Sequence < sorted[j].Metadata.Sequence
	})

	var out []byte
	for i, chunk := range sorted {
		if chunk.Metadata.Sequence != uint16(i) {
			return nil, fmt.Errorf("duplicate or misnumbered chunk at position %d", i)
		}
		out = append(out, chunk.Payload...)
	}
	return out, nil
}

func missingSequences(chunks []Chunk, total uint16) []uint16 {
	present := make(map[uint16]bool, len(chunks))
	for _, chunk := range chunks {
		present[chunk.Metadata.Sequence] = true
	}
	var missing []uint16
	for seq := uint16(0); seq < total; seq++ {
		if !present[seq] {
			missing = append(missing, seq)
		}
	}
	return missing
}

// RecordName builds the DNS label for a chunk: c-<seq>-<msgid>.<domain>.
func RecordName(meta Metadata, domain string) string {
	return fmt.Sprintf("c-%d-%s.%s", meta.Sequence, hex.EncodeToString(meta.MessageID[:]), domain)
}

// ManifestName builds the DNS label for a message manifest: m-<msgid>.<domain>.
func ManifestName(id [16]byte, domain string) string {
	return fmt.Sprintf("m-%s.%s", hex.EncodeToString(id[:]), domain)
}
