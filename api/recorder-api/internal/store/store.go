// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	internal_type "github.com/rapidaai/scribe/api/recorder-api/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
)

const (
	sessionDir    = "sessions"
	payloadDir    = "payloads"
	transcriptDir = "transcripts"
)

// Store is the durable home of recording metadata, sealed payloads and
// transcripts. All writes promote atomically: a crash mid-write never leaves
// a half-written record visible to LoadAll.
type Store interface {
	// Get returns the session record for id, or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*internal_type.RecordingSession, error)

	// Append persists a brand new session record. Appending an id that
	// already exists is an error.
	Append(ctx context.Context, session *internal_type.RecordingSession) error

	// Update rewrites an existing session record in place, or returns
	// ErrSessionNotFound when the record never existed.
	Update(ctx context.Context, session *internal_type.RecordingSession) error

	// Remove deletes a session record. Removing an absent record is a no-op,
	// so retention sweeps can retry safely.
	Remove(ctx context.Context, id string) error

	// LoadAll returns every readable session record, newest first. Corrupted
	// records are skipped with a warning instead of failing the whole load.
	LoadAll(ctx context.Context) ([]*internal_type.RecordingSession, error)

	// WritePayload stores the session's audio blob and returns the opaque
	// storage handle to place on the session record.
	WritePayload(ctx context.Context, id string, blob []byte) (string, error)

	// ReadPayload resolves a storage handle back to the stored blob.
	ReadPayload(ctx context.Context, handle string) ([]byte, error)

	// RemovePayload deletes the blob behind a handle. Absent blobs are a
	// no-op.
	RemovePayload(ctx context.Context, handle string) error

	// SaveTranscript persists the session's transcription record,
	// overwriting any earlier one.
	SaveTranscript(ctx context.Context, record *internal_type.TranscriptionRecord) error

	// GetTranscript returns the transcription record for a session, or
	// ErrTranscriptNotFound.
	GetTranscript(ctx context.Context, sessionID string) (*internal_type.TranscriptionRecord, error)

	// RemoveTranscript deletes a session's transcription record. Absent
	// records are a no-op.
	RemoveTranscript(ctx context.Context, sessionID string) error
}

type fileStore struct {
	logger commons.Logger
	root   string

	mu sync.RWMutex
}

// NewFileStore opens (or creates) a store rooted at path. Session records,
// payload blobs and transcripts each live in their own subdirectory.
func NewFileStore(logger commons.Logger, path string) (Store, error) {
	for _, dir := range []string{sessionDir, payloadDir, transcriptDir} {
		if err := os.MkdirAll(filepath.Join(path, dir), 0o700); err != nil {
			return nil, fmt.Errorf("store: create %s: %w", dir, err)
		}
	}
	return &fileStore{logger: logger, root: path}, nil
}

func (s *fileStore) sessionPath(id string) string {
	return filepath.Join(s.root, sessionDir, id+".json")
}

func (s *fileStore) transcriptPath(sessionID string) string {
	return filepath.Join(s.root, transcriptDir, sessionID+".json")
}

func (s *fileStore) Get(ctx context.Context, id string) (*internal_type.RecordingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.sessionPath(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("store: %s: %w", id, internal_type.ErrSessionNotFound)
	}
	if err != nil {
		return nil, &internal_type.PersistenceError{Op: "get", Err: err}
	}
	var session internal_type.RecordingSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, &internal_type.PersistenceError{Op: "get", Err: err}
	}
	return &session, nil
}

func (s *fileStore) Append(ctx context.Context, session *internal_type.RecordingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.sessionPath(session.ID)
	if _, err := os.Stat(path); err == nil {
		return &internal_type.PersistenceError{Op: "append", Err: fmt.Errorf("session %s already exists", session.ID)}
	}
	return s.writeSession(path, session, "append")
}

func (s *fileStore) Update(ctx context.Context, session *internal_type.RecordingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.sessionPath(session.ID)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("store: %s: %w", session.ID, internal_type.ErrSessionNotFound)
	}
	return s.writeSession(path, session, "update")
}

func (s *fileStore) writeSession(path string, session *internal_type.RecordingSession, op string) error {
	data, err := json.Marshal(session)
	if err != nil {
		return &internal_type.PersistenceError{Op: op, Err: err}
	}
	if err := writeAtomic(path, data); err != nil {
		return &internal_type.PersistenceError{Op: op, Err: err}
	}
	return nil
}

func (s *fileStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.sessionPath(id)); err != nil && !os.IsNotExist(err) {
		return &internal_type.PersistenceError{Op: "remove", Err: err}
	}
	return nil
}

func (s *fileStore) LoadAll(ctx context.Context) ([]*internal_type.RecordingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.root, sessionDir))
	if err != nil {
		return nil, &internal_type.PersistenceError{Op: "load-all", Err: err}
	}

	sessions := make([]*internal_type.RecordingSession, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		// Dot-prefixed files are in-flight temp writes, never records.
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.root, sessionDir, name))
		if err != nil {
			s.logger.Warnw("store: skipping unreadable session record", "file", name, "error", err)
			continue
		}
		var session internal_type.RecordingSession
		if err := json.Unmarshal(data, &session); err != nil {
			s.logger.Warnw("store: skipping corrupted session record", "file", name, "error", err)
			continue
		}
		sessions = append(sessions, &session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedDate.After(sessions[j].CreatedDate)
	})
	return sessions, nil
}

func (s *fileStore) WritePayload(ctx context.Context, id string, blob []byte) (string, error) {
	handle := filepath.Join(payloadDir, id)
	if err := writeAtomic(filepath.Join(s.root, handle), blob); err != nil {
		return "", &internal_type.PersistenceError{Op: "write-payload", Err: err}
	}
	return handle, nil
}

func (s *fileStore) ReadPayload(ctx context.Context, handle string) ([]byte, error) {
	path, err := s.resolveHandle(handle)
	if err != nil {
		return nil, err
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, &internal_type.PersistenceError{Op: "read-payload", Err: err}
	}
	return blob, nil
}

func (s *fileStore) RemovePayload(ctx context.Context, handle string) error {
	path, err := s.resolveHandle(handle)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &internal_type.PersistenceError{Op: "remove-payload", Err: err}
	}
	return nil
}

func (s *fileStore) resolveHandle(handle string) (string, error) {
	if handle == "" || strings.Contains(handle, "..") || filepath.IsAbs(handle) {
		return "", &internal_type.PersistenceError{Op: "resolve-handle", Err: fmt.Errorf("invalid storage handle %q", handle)}
	}
	return filepath.Join(s.root, handle), nil
}

func (s *fileStore) SaveTranscript(ctx context.Context, record *internal_type.TranscriptionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return &internal_type.PersistenceError{Op: "save-transcript", Err: err}
	}
	if err := writeAtomic(s.transcriptPath(record.SessionID), data); err != nil {
		return &internal_type.PersistenceError{Op: "save-transcript", Err: err}
	}
	return nil
}

func (s *fileStore) GetTranscript(ctx context.Context, sessionID string) (*internal_type.TranscriptionRecord, error) {
	data, err := os.ReadFile(s.transcriptPath(sessionID))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("store: %s: %w", sessionID, internal_type.ErrTranscriptNotFound)
	}
	if err != nil {
		return nil, &internal_type.PersistenceError{Op: "get-transcript", Err: err}
	}
	var record internal_type.TranscriptionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, &internal_type.PersistenceError{Op: "get-transcript", Err: err}
	}
	return &record, nil
}

func (s *fileStore) RemoveTranscript(ctx context.Context, sessionID string) error {
	if err := os.Remove(s.transcriptPath(sessionID)); err != nil && !os.IsNotExist(err) {
		return &internal_type.PersistenceError{Op: "remove-transcript", Err: err}
	}
	return nil
}

// writeAtomic stages data in a dot-prefixed temp file in the target
// directory, then promotes it with a rename. Readers either see the old
// content or the new, never a partial write.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
