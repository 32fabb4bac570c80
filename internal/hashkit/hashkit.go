// Package hashkit computes message digests for the cracking and stego tooling.
//
// MD2, MD4, MD5 and SHA-224 are implemented from scratch so their behaviour is
// identical on every platform; the remaining SHA family delegates to the
// standard library. All digests are returned as lowercase hex.
package hashkit

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"
)

// Algorithm identifies a supported digest algorithm.
type Algorithm string

const (
	MD2    Algorithm = "md2"
	MD4    Algorithm = "md4"
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA224 Algorithm = "sha224"
	SHA256 Algorithm = "sha256"
	SHA384 Algorithm = "sha384"
	SHA512 Algorithm = "sha512"
)

// Algorithms lists every supported algorithm in display order.
func Algorithms() []Algorithm {
	return []Algorithm{MD2, MD4, MD5, SHA1, SHA224, SHA256, SHA384, SHA512}
}

// ParseAlgorithm resolves a user-supplied name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "")
	for _, alg := range Algorithms() {
		if normalized == string(alg) {
			return alg, nil
		}
	}
	return "", fmt.Errorf("unknown hash algorithm %q", name)
}

// Digest hashes the UTF-8 bytes of text and returns the lowercase hex digest.
// It is a pure function and safe for concurrent use.
func Digest(alg Algorithm, text string) (string, error) {
	sum, err := DigestBytes(alg, []byte(text))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum), nil
}

// DigestBytes hashes raw input bytes and returns the digest bytes.
func DigestBytes(alg Algorithm, input []byte) ([]byte, error) {
	switch alg {
	case MD2:
		sum := md2Sum(input)
		return sum[:], nil
	case MD4:
		sum := md4Sum(input)
		return sum[:], nil
	case MD5:
		sum := md5Sum(input)
		return sum[:], nil
	case SHA1:
		sum := sha1.Sum(input)
		return sum[:], nil
	case SHA224:
		sum := sha224Sum(input)
		return sum[:], nil
	case SHA256:
		sum := sha256.Sum256(input)
		return sum[:], nil
	case SHA384:
		sum := sha512.Sum384(input)
		return sum[:], nil
	case SHA512:
		sum := sha512.Sum512(input)
		return sum[:], nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", alg)
	}
}

// DigestSize returns the digest length in bytes.
func DigestSize(alg Algorithm) int {
	switch alg {
	case MD2, MD4, MD5:
		return 16
	case SHA1:
		return 20
	case SHA224:
		return 28
	case SHA256:
		return 32
	case SHA384:
		return 48
	case SHA512:
		return 64
	}
	return 0
}
