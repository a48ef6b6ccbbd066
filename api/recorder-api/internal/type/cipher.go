// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

// Cipher is the authenticated-encryption engine. Both operations are pure:
// no hidden state, safe for concurrent calls with different keys and buffers.
type Cipher interface {
	// Encrypt seals plaintext under key with a nonce generated fresh for this
	// call and returns one blob laid out as nonce | ciphertext | tag, with
	// fixed-width nonce and tag so decryption splits it unambiguously.
	Encrypt(plaintext, key []byte) ([]byte, error)

	// Decrypt opens a blob produced by Encrypt. A tampered blob or a wrong
	// key yields ErrAuthentication and no plaintext.
	Decrypt(blob, key []byte) ([]byte, error)
}
