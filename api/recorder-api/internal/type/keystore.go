// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import "context"

// SecureKeyStore fronts the operating system credential store. Key material
// exists outside it only inside a Resolve caller's frame, for the span of one
// encrypt or decrypt call; identifiers are the only thing persisted elsewhere.
type SecureKeyStore interface {
	// Provision generates and stores a fresh symmetric key and returns its
	// identifier. Each key belongs to exactly one session; identifiers are
	// never reissued.
	Provision(ctx context.Context) (string, error)

	// Resolve returns the key for an identifier, or ErrKeyNotFound.
	Resolve(ctx context.Context, keyIdentifier string) ([]byte, error)

	// Delete removes the key. Deleting an unknown identifier is not an error,
	// which keeps session deletes and retention sweeps idempotent.
	Delete(ctx context.Context, keyIdentifier string) error
}
