package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize = 16
	keySize  = 32
)

// KDFParams are the argon2id cost parameters used to derive content keys.
type KDFParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultKDFParams follows the argon2id recommendation from RFC 9106's second
// profile.
var DefaultKDFParams = KDFParams{Time: 3, Memory: 64 * 1024, Threads: 4}

// Cipher encrypts document content with AES-256-GCM. Every call to Encrypt
// draws a fresh salt and nonce, so equal inputs produce different envelopes.
type Cipher struct {
	params KDFParams
	random io.Reader
}

// CipherOption customises a Cipher.
type CipherOption func(*Cipher)

// WithKDFParams overrides the argon2id parameters. Envelopes do not record the
// parameters, so decrypting requires the same values.
func WithKDFParams(params KDFParams) CipherOption {
	return func(c *Cipher) {
		c.params = params
	}
}

// WithRandom replaces the salt and nonce source.
func WithRandom(r io.Reader) CipherOption {
	return func(c *Cipher) {
		if r != nil {
			c.random = r
		}
	}
}

// NewCipher constructs a Cipher.
func NewCipher(options ...CipherOption) *Cipher {
	c := &Cipher{params: DefaultKDFParams, random: rand.Reader}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Encrypt seals plaintext and returns base64(salt | nonce | ciphertext).
func (c *Cipher) Encrypt(plaintext, password string) (string, error) {
	if password == "" {
		return "", ErrPasswordRequired
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(c.random, salt); err != nil {
		return "", fmt.Errorf("storage: read salt: %w", err)
	}
	aead, err := c.aead(password, salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return "", fmt.Errorf("storage: read nonce: %w", err)
	}

	out := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens an envelope produced by Encrypt. Any failure, including a
// malformed envelope, is reported as ErrWrongPassword.
func (c *Cipher) Decrypt(envelope, password string) (string, error) {
	if password == "" {
		return "", ErrPasswordRequired
	}

	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil || len(raw) < saltSize {
		return "", ErrWrongPassword
	}
	salt := raw[:saltSize]
	aead, err := c.aead(password, salt)
	if err != nil {
		return "", ErrWrongPassword
	}
	rest := raw[saltSize:]
	if len(rest) < aead.NonceSize()+aead.Overhead() {
		return "", ErrWrongPassword
	}
	nonce, sealed := rest[:aead.NonceSize()], rest[aead.NonceSize():]

	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrWrongPassword
	}
	return string(plain), nil
}

func (c *Cipher) aead(password string, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(password), salt, c.params.Time, c.params.Memory, c.params.Threads, keySize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("storage: init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("storage: init gcm: %w", err)
	}
	return aead, nil
}
