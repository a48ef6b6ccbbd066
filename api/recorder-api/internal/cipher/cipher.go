// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_cipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	internal_type "github.com/rapidaai/scribe/api/recorder-api/internal/type"
)

const (
	// KeySize is the AES-256 key width accepted by the engine.
	KeySize = 32
	// NonceSize is the GCM nonce width prepended to every sealed blob.
	NonceSize = 12
	// TagSize is the GCM authentication tag width appended by Seal.
	TagSize = 16
)

type aesGCMCipher struct{}

// NewAESGCMCipher returns the AES-256-GCM engine used to seal recording
// payloads. The engine holds no key material; callers resolve a key for
// each call and discard it afterwards.
func NewAESGCMCipher() internal_type.Cipher {
	return &aesGCMCipher{}
}

func (c *aesGCMCipher) Encrypt(plaintext, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cipher: nonce generation failed: %w", err)
	}
	// Seal appends ciphertext and tag after the nonce, so the blob is
	// self-contained: nonce | ciphertext | tag.
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (c *aesGCMCipher) Decrypt(blob, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(blob) < NonceSize+TagSize {
		return nil, fmt.Errorf("cipher: blob of %d bytes is truncated: %w", len(blob), internal_type.ErrAuthentication)
	}
	plaintext, err := aead.Open(nil, blob[:NonceSize], blob[NonceSize:], nil)
	if err != nil {
		// A tampered blob and a wrong key are indistinguishable here.
		return nil, fmt.Errorf("cipher: %w", internal_type.ErrAuthentication)
	}
	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("cipher: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
