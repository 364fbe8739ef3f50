// Package vaultcrypto seals the persisted vault with a passphrase
package vaultcrypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keySize          = 32 // AES-256
	nonceSize        = 12 // GCM standard nonce size
	saltSize         = 16
	pbkdf2Iterations = 100000

	envelopeVersion = 1
	algorithm       = "aes-256-gcm+pbkdf2-sha256"
)

// ErrDecrypt is returned for a wrong passphrase or tampered data
var ErrDecrypt = errors.New("decryption failed: invalid passphrase or corrupted data")

// envelope is the JSON wrapper written in place of the plaintext
type envelope struct {
	Version    int    `json:"sealed"`
	Algorithm  string `json:"alg"`
	Iterations int    `json:"iter"`
	Salt       []byte `json:"salt"`
	Data       []byte `json:"data"` // nonce + ciphertext
}

// Sealer encrypts and decrypts with a key derived from a passphrase.
// Derived keys are cached per salt so repeated writes stay cheap.
type Sealer struct {
	passphrase []byte

	mu   sync.Mutex
	salt []byte
	keys map[string][]byte
}

// NewSealer returns a Sealer for passphrase
func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("empty passphrase")
	}
	return &Sealer{passphrase: []byte(passphrase), keys: make(map[string][]byte)}, nil
}

// GenerateSalt generates a random salt
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

func (s *Sealer) key(salt []byte, iterations int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("%x/%d", salt, iterations)
	if k, ok := s.keys[id]; ok {
		return k
	}
	k := pbkdf2.Key(s.passphrase, salt, iterations, keySize, sha256.New)
	s.keys[id] = k
	return k
}

func (s *Sealer) currentSalt() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.salt == nil {
		salt, err := GenerateSalt()
		if err != nil {
			return nil, err
		}
		s.salt = salt
	}
	return s.salt, nil
}

// Seal encrypts plaintext with AES-256-GCM and wraps it in an envelope
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	salt, err := s.currentSalt()
	if err != nil {
		return nil, err
	}
	gcm, err := newGCM(s.key(salt, pbkdf2Iterations))
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	// Seal appends nonce + ciphertext
	return json.Marshal(envelope{
		Version:    envelopeVersion,
		Algorithm:  algorithm,
		Iterations: pbkdf2Iterations,
		Salt:       salt,
		Data:       gcm.Seal(nonce, nonce, plaintext, nil),
	})
}

// Open decrypts an envelope produced by Seal. The envelope's salt becomes
// the salt of later Seal calls so a vault keeps one salt.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(sealed, &env); err != nil || env.Version == 0 {
		return nil, errors.New("not a sealed envelope")
	}
	if env.Version != envelopeVersion || env.Algorithm != algorithm {
		return nil, fmt.Errorf("unsupported envelope %d/%s", env.Version, env.Algorithm)
	}
	if len(env.Data) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	gcm, err := newGCM(s.key(env.Salt, env.Iterations))
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, env.Data[:nonceSize], env.Data[nonceSize:], nil)
	if err != nil {
		return nil, ErrDecrypt
	}

	s.mu.Lock()
	s.salt = append([]byte(nil), env.Salt...)
	s.mu.Unlock()
	return plaintext, nil
}

// IsSealed reports whether data looks like an envelope
func IsSealed(data []byte) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return false
	}
	var probe struct {
		Version int `json:"sealed"`
	}
	return json.Unmarshal(data, &probe) == nil && probe.Version > 0
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
