package chunker

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitReassembleRoundTrip(t *testing.T) {
	for _, enc := range []Encoding{EncodingBase32, EncodingHex} {
		c := New(enc)

		data := make([]byte, 4096)
		_, err := rand.Read(data)
		require.NoError(t, err)

		msg, err := c.Split(data)
		require.NoError(t, err)
		require.Greater(t, len(msg.Chunks), 1)

		// Every encoded chunk must fit a single DNS TXT string.
		for _, chunk := range msg.Chunks {
			assert.LessOrEqual(t, len(chunk.Encoded), 255, "%s", enc)
		}

		back, err := c.Reassemble(msg.Chunks)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(data, back), "%s", enc)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	c := New(EncodingBase32)

	msg, err := c.Split([]byte("intermediate payload 0110100001101001"))
	require.NoError(t, err)

	for _, chunk := range msg.Chunks {
		decoded, err := c.Decode(chunk.Encoded)
		require.NoError(t, err)
		assert.Equal(t, chunk.Metadata, decoded.Metadata)
		assert.Equal(t, chunk.Payload, decoded.Payload)
	}
}

func TestReassembleOutOfOrder(t *testing.T) {
	c := New(EncodingBase32)
	data := make([]byte, 2000)
	for i := range data {
		data[i] = byte(i)
	}

	msg, err := c.Split(data)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(msg.Chunks), 3)

	shuffled := []Chunk{msg.Chunks[len(msg.Chunks)-1]}
	shuffled = append(shuffled, msg.Chunks[:len(msg.Chunks)-1]...)

	back, err := c.Reassemble(shuffled)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestReassembleDetectsMissingChunk(t *testing.T) {
	c := New(EncodingBase32)
	data := make([]byte, 2000)
	msg, err := c.Split(data)
	require.NoError(t, err)

	_, err = c.Reassemble(msg.Chunks[1:])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing chunks")
}

func TestDecodeRejectsCorruption(t *testing.T) {
	c := New(EncodingHex)
	msg, err := c.Split([]byte("integrity matters"))
	require.NoError(t, err)

	encoded := msg.Chunks[0].Encoded
	// Flip a payload nibble past the header.
	corrupted := encoded[:len(encoded)-1]
	if strings.HasSuffix(encoded, "0") {
		corrupted += "1"
	} else {
		corrupted += "0"
	}

	_, err = c.Decode(corrupted)
	assert.Error(t, err)

	_, err = c.Decode("zz not an encoding zz")
	assert.Error(t, err)
}

func TestSplitRejectsEmpty(t *testing.T) {
	c := New(EncodingBase32)
	_, err := c.Split(nil)
	assert.Error(t, err)
}

func TestRecordNames(t *testing.T) {
	c := New(EncodingBase32)
	msg, err := c.Split([]byte("named"))
	require.NoError(t, err)

	name := RecordName(msg.Chunks[0].Metadata, "covert.example.com")
	assert.True(t, strings.HasPrefix(name, "c-0-"))
	assert.True(t, strings.HasSuffix(name, ".covert.example.com"))

	manifest := ManifestName(msg.ID, "covert.example.com")
	assert.Equal(t, "m-"+msg.IDString()+".covert.example.com", manifest)
}
