// Package envelope wraps secret messages in authenticated encryption before
// they are embedded into a carrier. The external form is a delimited string,
// base64(salt):base64(iv):base64(ciphertext), so the payload survives the
// text-oriented bit pipeline unchanged.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/pixelveil/pixelveil/internal/bitstream"
)

const (
	// SaltSize is the PBKDF2 salt length in bytes.
	SaltSize = 16
	// NonceSize is the GCM nonce length in bytes.
	NonceSize = 12
	// KeySize is the derived AES-256 key length in bytes.
	KeySize = 32
	// Iterations is the fixed PBKDF2-SHA256 iteration count. Changing it
	// breaks decryption of existing payloads.
	Iterations = 100000
	// Delimiter joins the three base64 segments of a payload string.
	Delimiter = ":"
)

var (
	// ErrAuthentication is returned when the GCM tag check fails. Callers
	// must surface it uniformly as "wrong password or corrupted data" and
	// never distinguish the two cases.
	ErrAuthentication = errors.New("wrong password or corrupted data")

	// ErrFormat is returned when a payload string does not parse into three
	// base64 segments.
	ErrFormat = errors.New("malformed encrypted payload")
)

// Payload is the parsed form of an encrypted payload string.
type Payload struct {
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte
}

// String serializes the payload back to its delimited external form.
// Parse followed by String is lossless.
func (p *Payload) String() string {
	return bitstream.BytesToBase64(p.Salt) + Delimiter +
		bitstream.BytesToBase64(p.Nonce) + Delimiter +
		bitstream.BytesToBase64(p.Ciphertext)
}

// Parse splits a delimited payload string into its components.
func Parse(s string) (*Payload, error) {
	parts := strings.Split(s, Delimiter)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrFormat, len(parts))
	}
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: empty segment", ErrFormat)
		}
	}

	salt, err := bitstream.Base64ToBytes(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrFormat, err)
	}
	nonce, err := bitstream.Base64ToBytes(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: iv: %v", ErrFormat, err)
	}
	ciphertext, err := bitstream.Base64ToBytes(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext: %v", ErrFormat, err)
	}

	return &Payload{Salt: salt, Nonce: nonce, Ciphertext: ciphertext}, nil
}

// DeriveKey stretches a password into an AES-256 key with PBKDF2-SHA256.
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeySize, sha256.New)
}

// Encrypt seals message under a key derived from password. A fresh random
// salt and nonce are drawn from the platform CSPRNG on every call, so
// encrypting the same message twice yields different payloads.
func Encrypt(message, password string) (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("salt generation failed: %w", err)
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce generation failed: %w", err)
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(message), nil)
	payload := &Payload{Salt: salt, Nonce: nonce, Ciphertext: ciphertext}
	return payload.String(), nil
}

// Decrypt opens a payload string with the given password. A failed tag check
// is reported as ErrAuthentication regardless of whether the password was
// wrong or the ciphertext damaged.
func Decrypt(payloadString, password string) (string, error) {
	payload, err := Parse(payloadString)
	if err != nil {
		return "", err
	}
	if len(payload.Nonce) != NonceSize {
		return "", fmt.Errorf("%w: iv must be %d bytes", ErrFormat, NonceSize)
	}

	gcm, err := newGCM(password, payload.Salt)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, payload.Nonce, payload.Ciphertext, nil)
	if err != nil {
		return "", ErrAuthentication
	}
	return string(plaintext), nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(DeriveKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("cipher creation failed: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("GCM creation failed: %w", err)
	}
	return gcm, nil
}
