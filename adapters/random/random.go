// Package random provides Random implementations.
package random

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
)

// tokenBytes is the entropy of a public sharing token: 128 bits,
// rendered as 32 hex characters with no dashes.
const tokenBytes = 16

// Real uses crypto/rand for secure randomness.
type Real struct{}

// Bytes generates n cryptographically secure random bytes.
func (Real) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// Token generates an unguessable document sharing token.
func (r Real) Token() (string, error) {
	b, err := r.Bytes(tokenBytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Fake provides deterministic randomness for testing. Each call yields
// a distinct value so tokens stay unique across documents.
type Fake struct {
	mu      sync.Mutex
	counter int
}

// NewFake creates a fake random source.
func NewFake() *Fake {
	return &Fake{}
}

// Bytes returns deterministic bytes derived from a call counter.
func (f *Fake) Bytes(n int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.counter++
	b := make([]byte, n)
	for i := range b {
		b[i] = byte((f.counter + i) % 256)
	}
	return b, nil
}

// Token returns a deterministic 32-char hex token, unique per call.
func (f *Fake) Token() (string, error) {
	b, err := f.Bytes(tokenBytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Reset resets the fake to initial state.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter = 0
}
