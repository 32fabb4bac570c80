package hashkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestKnownVectors(t *testing.T) {
	cases := []struct {
		alg   Algorithm
		input string
		want  string
	}{
		{MD2, "", "8350e5a3e24c153df2275c9f80692773"},
		{MD2, "abc", "da853b0d3f88d99b30283a69e6ded6bb"},
		{MD2, "message digest", "ab4f496bfb2a530b219ff33031fe06b0"},
		{MD4, "", "31d6cfe0d16ae931b73c59d7e0c089c0"},
		{MD4, "abc", "a448017aaf21d8525fc10ae87aa6729d"},
		{MD5, "", "d41d8cd98f00b204e9800998ecf8427e"},
		{MD5, "abc", "900150983cd24fb0d6963f7d28e17f72"},
		{MD5, "password", "5f4dcc3b5aa765d61d8327deb882cf99"},
		{SHA1, "abc", "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{SHA224, "", "d14a028c2a3a2bc9476102bb288234c415a2b01f828ea62ac5b3e42f"},
		{SHA224, "abc", "23097d223405d8228642a477bda255b32aadbce4bda0b3f7e36c9da7"},
		{SHA256, "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}

	for _, tc := range cases {
		got, err := Digest(tc.alg, tc.input)
		require.NoError(t, err, "%s(%q)", tc.alg, tc.input)
		assert.Equal(t, tc.want, got, "%s(%q)", tc.alg, tc.input)
	}
}

func TestDigestMultiBlockInput(t *testing.T) {
	// 56 bytes forces the length words into a second padding block for the
	// little-endian MD family.
	input := "12345678901234567890123456789012345678901234567890123456"
	got, err := Digest(MD5, input)
	require.NoError(t, err)
	assert.Len(t, got, 32)

	long := ""
	for i := 0; i < 100; i++ {
		long += "abcdefgh"
	}
	md2Long, err := Digest(MD2, long)
	require.NoError(t, err)
	md2Again, err := Digest(MD2, long)
	require.NoError(t, err)
	assert.Equal(t, md2Long, md2Again)
}

func TestDigestUTF8Input(t *testing.T) {
	// Digest operates on the UTF-8 bytes of the text.
	a, err := Digest(MD5, "héllo")
	require.NoError(t, err)
	b, err := Digest(MD5, "hello")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestParseAlgorithm(t *testing.T) {
	for _, name := range []string{"MD5", "md5", " md5 "} {
		alg, err := ParseAlgorithm(name)
		require.NoError(t, err)
		assert.Equal(t, MD5, alg)
	}

	alg, err := ParseAlgorithm("SHA-224")
	require.NoError(t, err)
	assert.Equal(t, SHA224, alg)

	_, err = ParseAlgorithm("crc32")
	assert.Error(t, err)
}

func TestDigestSize(t *testing.T) {
	for _, alg := range Algorithms() {
		sum, err := DigestBytes(alg, []byte("size check"))
		require.NoError(t, err)
		assert.Equal(t, DigestSize(alg), len(sum), "%s", alg)
	}
}
