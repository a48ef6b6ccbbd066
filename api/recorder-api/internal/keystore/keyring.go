// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_keystore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/zalando/go-keyring"

	internal_cipher "github.com/rapidaai/scribe/api/recorder-api/internal/cipher"
	internal_type "github.com/rapidaai/scribe/api/recorder-api/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
)

type keyringStore struct {
	logger  commons.Logger
	service string
}

// NewKeyringStore returns a SecureKeyStore backed by the operating system
// keychain. Every provisioned key lives under its own entry keyed by the
// returned identifier, and key bytes pass through the process only for the
// duration of a single call.
func NewKeyringStore(logger commons.Logger, service string) internal_type.SecureKeyStore {
	return &keyringStore{logger: logger, service: service}
}

func (k *keyringStore) Provision(ctx context.Context) (string, error) {
	key := make([]byte, internal_cipher.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("keystore: key generation failed: %w", err)
	}
	keyIdentifier := uuid.New().String()
	if err := keyring.Set(k.service, keyIdentifier, base64.StdEncoding.EncodeToString(key)); err != nil {
		return "", fmt.Errorf("keystore: set %s: %w", keyIdentifier, err)
	}
	k.logger.Debugw("keystore: provisioned key", "keyIdentifier", keyIdentifier)
	return keyIdentifier, nil
}

func (k *keyringStore) Resolve(ctx context.Context, keyIdentifier string) ([]byte, error) {
	secret, err := keyring.Get(k.service, keyIdentifier)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("keystore: %s: %w", keyIdentifier, internal_type.ErrKeyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("keystore: get %s: %w", keyIdentifier, err)
	}
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("keystore: decode %s: %w", keyIdentifier, err)
	}
	return key, nil
}

// Delete removes the key entry. A missing entry is not an error, which keeps
// session deletes and retention sweeps idempotent.
func (k *keyringStore) Delete(ctx context.Context, keyIdentifier string) error {
	err := keyring.Delete(k.service, keyIdentifier)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("keystore: delete %s: %w", keyIdentifier, err)
	}
	return nil
}
