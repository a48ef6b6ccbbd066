// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyActive rejects a start while another session is underway.
	// The rejected call leaves no trace: no key, no record, no state change.
	ErrAlreadyActive = errors.New("a recording session is already active")

	// ErrAuthentication marks ciphertext whose tag failed to verify: the blob
	// was tampered with or the wrong key was supplied. Decrypt never returns
	// plaintext alongside it.
	ErrAuthentication = errors.New("ciphertext authentication failed")

	// ErrKeyNotFound is returned by the key store when an identifier does not
	// resolve.
	ErrKeyNotFound = errors.New("encryption key not found")

	// ErrSessionNotFound is returned by the session store when no record
	// exists for the requested identifier.
	ErrSessionNotFound = errors.New("recording session not found")

	// ErrTranscriptNotFound is returned when a session has no transcription
	// record yet.
	ErrTranscriptNotFound = errors.New("transcript not found")
)

// KeyProvisioningError is fatal to the start attempt that raised it; no
// partial session exists afterwards.
type KeyProvisioningError struct {
	Err error
}

func (e *KeyProvisioningError) Error() string {
	return fmt.Sprintf("key provisioning failed: %v", e.Err)
}

func (e *KeyProvisioningError) Unwrap() error { return e.Err }

// PersistenceError is fatal to its session: the session moves to the failed
// state and no record is written at all.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// TranscriptionError is non-fatal: the session still completes, with
// TranscriptAvailable left false. The caller may re-transcribe later.
type TranscriptionError struct {
	Provider string
	Err      error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed (%s): %v", e.Provider, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// TeardownError covers capture/recognizer shutdown failures. Logged only;
// never blocks progression to persistence.
type TeardownError struct {
	Component string
	Err       error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("teardown of %s failed: %v", e.Component, e.Err)
}

func (e *TeardownError) Unwrap() error { return e.Err }

// SweepItemError isolates one session's deletion failure inside a retention
// sweep; the sweep continues with the remaining sessions.
type SweepItemError struct {
	SessionID string
	Err       error
}

func (e *SweepItemError) Error() string {
	return fmt.Sprintf("retention sweep of session %s failed: %v", e.SessionID, e.Err)
}

func (e *SweepItemError) Unwrap() error { return e.Err }
