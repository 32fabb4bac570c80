package relay

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunks() map[uint16]string {
	return map[uint16]string{
		0: "AAAAFRAGMENT0",
		1: "BBBBFRAGMENT1",
		2: "CCCCFRAGMENT2",
	}
}

func TestStoreLifecycle(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Publish("msg01", 3, "3:base32", testChunks()))

	// Fresh message is visible to a polling client exactly once.
	ids := s.Pending("client-a")
	require.Equal(t, []string{"msg01"}, ids)
	assert.Empty(t, s.Pending("client-a"), "second poll must not redeliver")

	msg, err := s.Get("msg01")
	require.NoError(t, err)
	assert.Equal(t, StateDelivered, msg.State)
	require.Len(t, msg.Consumers, 1)
	assert.Equal(t, "client-a", msg.Consumers[0].ClientID)

	// A different client still sees the undecoded message.
	assert.Equal(t, []string{"msg01"}, s.Pending("client-b"))

	require.NoError(t, s.Ack("msg01", "client-a"))
	msg, err = s.Get("msg01")
	require.NoError(t, err)
	assert.Equal(t, StateConsumed, msg.State)

	// Consumed messages stop appearing in polls.
	assert.Empty(t, s.Pending("client-c"))
}

func TestStoreChunkAndManifestLookup(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Publish("msg02", 3, "3:hex", testChunks()))

	data, ok := s.Chunk("msg02", 1)
	require.True(t, ok)
	assert.Equal(t, "BBBBFRAGMENT1", data)

	_, ok = s.Chunk("msg02", 9)
	assert.False(t, ok)
	_, ok = s.Chunk("ghost", 0)
	assert.False(t, ok)

	manifest, ok := s.Manifest("msg02")
	require.True(t, ok)
	assert.Equal(t, "3:hex", manifest)
}

func TestStorePublishValidation(t *testing.T) {
	s := NewStore()

	assert.Error(t, s.Publish("", 3, "m", testChunks()))
	assert.Error(t, s.Publish("msg", 3, "m", nil))
	assert.Error(t, s.Publish("msg", 5, "m", testChunks()), "total/chunk mismatch")

	require.NoError(t, s.Publish("dup", 3, "m", testChunks()))
	assert.Error(t, s.Publish("dup", 3, "m", testChunks()), "duplicate id")
}

func TestStoreAckUnknownMessage(t *testing.T) {
	s := NewStore()
	assert.Error(t, s.Ack("nope", "client"))
}

func TestStoreSweep(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Publish("old", 3, "m", testChunks()))

	// Backdate the message past the TTL.
	s.mu.Lock()
	s.messages["old"].CreatedAt = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()

	require.NoError(t, s.Publish("fresh", 3, "m", testChunks()))

	assert.Equal(t, 1, s.Sweep(time.Hour))
	_, err := s.Get("old")
	assert.Error(t, err)
	_, err = s.Get("fresh")
	assert.NoError(t, err)
}

func TestStoreStats(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Publish("a", 3, "m", testChunks()))
	require.NoError(t, s.Publish("b", 3, "m", testChunks()))

	s.Pending("client")
	require.NoError(t, s.Ack("a", "client"))

	st := s.Stats()
	assert.Equal(t, 2, st.Messages)
	assert.Equal(t, 6, st.Chunks)
	assert.Equal(t, 1, st.Consumed)
	assert.Equal(t, 1, st.Delivered)
	assert.Equal(t, 0, st.New)
}

func TestFileStorePersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.json")

	fs, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, fs.Publish("persisted", 3, "3:base32", testChunks()))
	require.NoError(t, fs.Ack("persisted", "client"))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	msg, err := reopened.Get("persisted")
	require.NoError(t, err)
	assert.Equal(t, StateConsumed, msg.State)
	assert.Equal(t, "3:base32", msg.Manifest)

	data, ok := reopened.Chunk("persisted", 2)
	require.True(t, ok)
	assert.Equal(t, "CCCCFRAGMENT2", data)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "new", StateNew.String())
	assert.Equal(t, "delivered", StateDelivered.String())
	assert.Equal(t, "consumed", StateConsumed.String())
}
