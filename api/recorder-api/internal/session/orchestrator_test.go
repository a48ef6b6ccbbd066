// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidaai/scribe/api/recorder-api/config"
	internal_cipher "github.com/rapidaai/scribe/api/recorder-api/internal/cipher"
	internal_transcriber "github.com/rapidaai/scribe/api/recorder-api/internal/transcriber"
	internal_type "github.com/rapidaai/scribe/api/recorder-api/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
)

// --- Fakes ---

// opLog records cross-component call order so teardown and delete ordering
// can be asserted.
type opLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *opLog) add(op string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, op)
}

func (l *opLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ops...)
}

type fakeKeyStore struct {
	mu           sync.Mutex
	log          *opLog
	keys         map[string][]byte
	provisioned  int
	deleted      []string
	provisionErr error
	resolveErr   error
}

func newFakeKeyStore(log *opLog) *fakeKeyStore {
	return &fakeKeyStore{log: log, keys: map[string][]byte{}}
}

func (f *fakeKeyStore) Provision(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.provisionErr != nil {
		return "", f.provisionErr
	}
	f.provisioned++
	id := fmt.Sprintf("key-%d", f.provisioned)
	key := bytes.Repeat([]byte{byte(f.provisioned)}, internal_cipher.KeySize)
	f.keys[id] = key
	return id, nil
}

func (f *fakeKeyStore) Resolve(ctx context.Context, keyIdentifier string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	key, ok := f.keys[keyIdentifier]
	if !ok {
		return nil, internal_type.ErrKeyNotFound
	}
	return key, nil
}

func (f *fakeKeyStore) Delete(ctx context.Context, keyIdentifier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log.add("key-delete")
	f.deleted = append(f.deleted, keyIdentifier)
	delete(f.keys, keyIdentifier)
	return nil
}

func (f *fakeKeyStore) held() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

type fakeStream struct {
	mu       sync.Mutex
	log      *opLog
	frames   chan []byte
	closed   bool
	closeErr error
}

func (s *fakeStream) Frames() <-chan []byte { return s.frames }

func (s *fakeStream) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.log.add("capture-close")
	close(s.frames)
	return s.closeErr
}

func (s *fakeStream) push(frame []byte) {
	s.frames <- frame
}

type fakeDevice struct {
	mu      sync.Mutex
	log     *opLog
	stream  *fakeStream
	opens   int
	openErr error
}

func (d *fakeDevice) Open(ctx context.Context) (internal_type.CaptureStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.opens++
	d.stream = &fakeStream{log: d.log, frames: make(chan []byte, 64)}
	return d.stream, nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	frames   [][]byte
	duration time.Duration
	wav      []byte
	persist  error
}

func (r *fakeRecorder) Start() {}

func (r *fakeRecorder) Record(ctx context.Context, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, append([]byte(nil), data...))
	return nil
}

func (r *fakeRecorder) Duration() time.Duration { return r.duration }

func (r *fakeRecorder) Persist() ([]byte, error) {
	if r.persist != nil {
		return nil, r.persist
	}
	return r.wav, nil
}

func (r *fakeRecorder) recorded() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

type fakeStore struct {
	mu          sync.Mutex
	log         *opLog
	sessions    map[string]*internal_type.RecordingSession
	payloads    map[string][]byte
	transcripts map[string]*internal_type.TranscriptionRecord
	payloadErr  error
	appendErr   error
	reads       int
}

func newFakeStore(log *opLog) *fakeStore {
	return &fakeStore{
		log:         log,
		sessions:    map[string]*internal_type.RecordingSession{},
		payloads:    map[string][]byte{},
		transcripts: map[string]*internal_type.TranscriptionRecord{},
	}
}

func (f *fakeStore) Get(ctx context.Context, id string) (*internal_type.RecordingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, internal_type.ErrSessionNotFound
	}
	clone := *session
	return &clone, nil
}

func (f *fakeStore) Append(ctx context.Context, session *internal_type.RecordingSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	clone := *session
	f.sessions[session.ID] = &clone
	return nil
}

func (f *fakeStore) Update(ctx context.Context, session *internal_type.RecordingSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[session.ID]; !ok {
		return internal_type.ErrSessionNotFound
	}
	clone := *session
	f.sessions[session.ID] = &clone
	return nil
}

func (f *fakeStore) Remove(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log.add("record-remove")
	delete(f.sessions, id)
	return nil
}

func (f *fakeStore) LoadAll(ctx context.Context) ([]*internal_type.RecordingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*internal_type.RecordingSession
	for _, session := range f.sessions {
		clone := *session
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeStore) WritePayload(ctx context.Context, id string, blob []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.payloadErr != nil {
		return "", f.payloadErr
	}
	handle := "payloads/" + id
	f.payloads[handle] = append([]byte(nil), blob...)
	return handle, nil
}

func (f *fakeStore) ReadPayload(ctx context.Context, handle string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	blob, ok := f.payloads[handle]
	if !ok {
		return nil, &internal_type.PersistenceError{Op: "read-payload", Err: errors.New("no payload")}
	}
	f.reads++
	return append([]byte(nil), blob...), nil
}

func (f *fakeStore) RemovePayload(ctx context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log.add("payload-remove")
	delete(f.payloads, handle)
	return nil
}

func (f *fakeStore) SaveTranscript(ctx context.Context, record *internal_type.TranscriptionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *record
	f.transcripts[record.SessionID] = &clone
	return nil
}

func (f *fakeStore) GetTranscript(ctx context.Context, sessionID string) (*internal_type.TranscriptionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.transcripts[sessionID]
	if !ok {
		return nil, internal_type.ErrTranscriptNotFound
	}
	clone := *record
	return &clone, nil
}

func (f *fakeStore) RemoveTranscript(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log.add("transcript-remove")
	delete(f.transcripts, sessionID)
	return nil
}

func (f *fakeStore) session(t *testing.T, id string) *internal_type.RecordingSession {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	require.True(t, ok, "session %s not stored", id)
	clone := *session
	return &clone
}

func (f *fakeStore) payloadFor(id string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	blob, ok := f.payloads["payloads/"+id]
	if !ok {
		return nil
	}
	return append([]byte(nil), blob...)
}

type fakeStreamingEngine struct {
	mu           sync.Mutex
	log          *opLog
	opts         *internal_transcriber.SpeechToTextInitializeOptions
	frames       int
	drainResults []string
	transformErr error
	initErr      error
}

func (f *fakeStreamingEngine) Name() string { return "fake-live" }

func (f *fakeStreamingEngine) Initialize() error { return f.initErr }

func (f *fakeStreamingEngine) Transform(ctx context.Context, audio []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transformErr != nil {
		return f.transformErr
	}
	f.frames++
	return nil
}

func (f *fakeStreamingEngine) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log.add("recognizer-close")
	for _, text := range f.drainResults {
		f.opts.OnTranscript(text, 0.9, "en-US", true)
	}
	return nil
}

type fakeBatchEngine struct {
	mu         sync.Mutex
	calls      int
	audio      []byte
	transcript *internal_type.Transcript
	err        error
}

func (f *fakeBatchEngine) Name() string { return "fake-batch" }

func (f *fakeBatchEngine) Transcribe(ctx context.Context, audio []byte) (*internal_type.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.audio = append([]byte(nil), audio...)
	if f.err != nil {
		return nil, f.err
	}
	return f.transcript, nil
}

func (f *fakeBatchEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeBatchEngine) received() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.audio...)
}

type fakeSyncClient struct {
	mu     sync.Mutex
	titles []string
	texts  []string
}

func (f *fakeSyncClient) Publish(ctx context.Context, title, text string, tags []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeSyncClient) published() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.titles...), append([]string(nil), f.texts...)
}

// --- Harness ---

type harness struct {
	orchestrator *Orchestrator
	cfg          *config.AppConfig
	log          *opLog
	keys         *fakeKeyStore
	device       *fakeDevice
	recorder     *fakeRecorder
	store        *fakeStore
	live         *fakeStreamingEngine
	batch        *fakeBatchEngine
	sync         *fakeSyncClient
	batchMu      sync.Mutex
	batchLangs   []string
}

func newHarness(t *testing.T, mutate ...func(*config.AppConfig)) *harness {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-session"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	require.NoError(t, err)

	cfg := &config.AppConfig{
		Recording: config.RecordingConfig{
			Encrypt:           true,
			LiveTranscription: false,
			KeyringService:    "test",
			Retention:         720 * time.Hour,
			SweepInterval:     time.Hour,
		},
		Transcriber: config.TranscriberConfig{Provider: "deepgram", Language: "en-US"},
		Sync:        config.SyncConfig{Enabled: true},
	}
	for _, m := range mutate {
		m(cfg)
	}

	log := &opLog{}
	h := &harness{
		cfg:      cfg,
		log:      log,
		keys:     newFakeKeyStore(log),
		device:   &fakeDevice{log: log},
		recorder: &fakeRecorder{duration: 5 * time.Second, wav: []byte("RIFF-fake-wav-payload")},
		store:    newFakeStore(log),
		live:     &fakeStreamingEngine{log: log, drainResults: []string{"hello world"}},
		batch:    &fakeBatchEngine{transcript: &internal_type.Transcript{Text: "batch transcript"}},
		sync:     &fakeSyncClient{},
	}

	streamingFactory := func(ctx context.Context, opts *internal_transcriber.SpeechToTextInitializeOptions) (internal_transcriber.StreamingSpeechToText, error) {
		h.live.opts = opts
		return h.live, nil
	}
	batchFactory := func(ctx context.Context, language string) (internal_transcriber.BatchSpeechToText, error) {
		h.batchMu.Lock()
		h.batchLangs = append(h.batchLangs, language)
		h.batchMu.Unlock()
		return h.batch, nil
	}

	h.orchestrator = NewRecordingOrchestrator(
		context.Background(),
		logger,
		cfg,
		h.store,
		h.keys,
		internal_cipher.NewAESGCMCipher(),
		h.device,
		func() (internal_type.Recorder, error) { return h.recorder, nil },
		streamingFactory,
		batchFactory,
		h.sync,
	)
	return h
}

func (h *harness) waitCompleted(t *testing.T) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return h.orchestrator.State() == internal_type.StateCompleted
	}, 2*time.Second, 10*time.Millisecond, "orchestrator never completed")
}

func (h *harness) batchLanguages() []string {
	h.batchMu.Lock()
	defer h.batchMu.Unlock()
	return append([]string(nil), h.batchLangs...)
}

// --- Lifecycle Tests ---

func TestStartStopCompletesWithBatchTranscript(t *testing.T) {
	h := newHarness(t)

	id, err := h.orchestrator.StartSession(context.Background(), StartOptions{Title: "standup notes"})
	require.NoError(t, err)
	assert.Equal(t, internal_type.StateRecording, h.orchestrator.State())

	h.device.stream.push([]byte{0x01, 0x02})
	h.device.stream.push([]byte{0x03, 0x04})

	record, err := h.orchestrator.StopSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, id, record.ID)
	assert.Equal(t, "standup notes", record.Title)
	assert.Equal(t, internal_type.StatusProcessing, record.Status)
	assert.Equal(t, 5*time.Second, record.Duration)
	assert.True(t, record.EncryptionEnabled)

	h.waitCompleted(t)

	stored := h.store.session(t, id)
	assert.Equal(t, internal_type.StatusCompleted, stored.Status)
	assert.True(t, stored.TranscriptAvailable)

	transcript, err := h.orchestrator.GetTranscript(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "batch transcript", transcript.Text)
	assert.Equal(t, "fake-batch", transcript.Provider)

	assert.Equal(t, 2, h.recorder.recorded())
}

func TestStoredPayloadIsSealed(t *testing.T) {
	h := newHarness(t)

	id, err := h.orchestrator.StartSession(context.Background(), StartOptions{})
	require.NoError(t, err)

	record, err := h.orchestrator.StopSession(context.Background())
	require.NoError(t, err)
	h.waitCompleted(t)

	blob := h.store.payloadFor(id)
	require.NotEmpty(t, blob)
	assert.NotContains(t, string(blob), "RIFF-fake-wav-payload")

	key, err := h.keys.Resolve(context.Background(), record.KeyIdentifier)
	require.NoError(t, err)
	wav, err := internal_cipher.NewAESGCMCipher().Decrypt(blob, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF-fake-wav-payload"), wav)

	// The batch engine saw plaintext even though the store never did.
	assert.Equal(t, []byte("RIFF-fake-wav-payload"), h.batch.received())
}

func TestEncryptionDisabledStoresPlainWAV(t *testing.T) {
	h := newHarness(t, func(cfg *config.AppConfig) {
		cfg.Recording.Encrypt = false
	})

	id, err := h.orchestrator.StartSession(context.Background(), StartOptions{})
	require.NoError(t, err)

	record, err := h.orchestrator.StopSession(context.Background())
	require.NoError(t, err)
	assert.False(t, record.EncryptionEnabled)
	assert.Empty(t, record.KeyIdentifier)

	h.waitCompleted(t)
	assert.Equal(t, []byte("RIFF-fake-wav-payload"), h.store.payloadFor(id))
	assert.Equal(t, 0, h.keys.held())
}

func TestPerSessionEncryptOverride(t *testing.T) {
	h := newHarness(t) // config default is Encrypt: true

	encrypt := false
	id, err := h.orchestrator.StartSession(context.Background(), StartOptions{Encrypt: &encrypt})
	require.NoError(t, err)

	record, err := h.orchestrator.StopSession(context.Background())
	require.NoError(t, err)
	assert.False(t, record.EncryptionEnabled)
	assert.Empty(t, record.KeyIdentifier)

	h.waitCompleted(t)
	assert.Equal(t, []byte("RIFF-fake-wav-payload"), h.store.payloadFor(id))
	assert.Equal(t, 0, h.keys.provisioned)
}

func TestPerSessionLiveOverride(t *testing.T) {
	h := newHarness(t) // config default is LiveTranscription: false

	live := true
	id, err := h.orchestrator.StartSession(context.Background(), StartOptions{Live: &live})
	require.NoError(t, err)
	h.device.stream.push([]byte{0x01, 0x02})

	_, err = h.orchestrator.StopSession(context.Background())
	require.NoError(t, err)
	h.waitCompleted(t)

	transcript, err := h.orchestrator.GetTranscript(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "hello world", transcript.Text)
	assert.Equal(t, "fake-live", transcript.Provider)
	assert.Equal(t, 0, h.batch.callCount())
}

func TestPerSessionLanguageReachesBatchAndRetranscribe(t *testing.T) {
	h := newHarness(t)

	id, err := h.orchestrator.StartSession(context.Background(), StartOptions{Language: "fr-FR"})
	require.NoError(t, err)
	_, err = h.orchestrator.StopSession(context.Background())
	require.NoError(t, err)
	h.waitCompleted(t)

	stored := h.store.session(t, id)
	assert.Equal(t, "fr-FR", stored.Language)

	_, err = h.orchestrator.Retranscribe(context.Background(), id)
	require.NoError(t, err)

	// The persisted language survives restart-style retranscription.
	assert.Equal(t, []string{"fr-FR", "fr-FR"}, h.batchLanguages())
}

func TestStartWhileActiveFails(t *testing.T) {
	h := newHarness(t)

	_, err := h.orchestrator.StartSession(context.Background(), StartOptions{Title: "first"})
	require.NoError(t, err)

	_, err = h.orchestrator.StartSession(context.Background(), StartOptions{Title: "second"})
	assert.ErrorIs(t, err, internal_type.ErrAlreadyActive)

	// The rejected start provisioned nothing.
	assert.Equal(t, 1, h.keys.provisioned)
	assert.Equal(t, 1, h.device.opens)
}

func TestStartKeyProvisioningFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	h.keys.provisionErr = errors.New("keychain locked")

	_, err := h.orchestrator.StartSession(context.Background(), StartOptions{})
	var provisioningErr *internal_type.KeyProvisioningError
	require.ErrorAs(t, err, &provisioningErr)

	// No partial session: device untouched, state startable again.
	assert.Equal(t, 0, h.device.opens)
	assert.Equal(t, internal_type.StateIdle, h.orchestrator.State())

	h.keys.provisionErr = nil
	_, err = h.orchestrator.StartSession(context.Background(), StartOptions{})
	assert.NoError(t, err)
}

func TestStartDeviceFailureReleasesKey(t *testing.T) {
	h := newHarness(t)
	h.device.openErr = errors.New("no input device")

	_, err := h.orchestrator.StartSession(context.Background(), StartOptions{})
	require.Error(t, err)

	assert.Equal(t, 0, h.keys.held())
	assert.Contains(t, h.keys.deleted, "key-1")
	assert.Equal(t, internal_type.StateIdle, h.orchestrator.State())
}

func TestStopWithoutActiveSessionIsNoOp(t *testing.T) {
	h := newHarness(t)

	record, err := h.orchestrator.StopSession(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, record)
	assert.Equal(t, internal_type.StateIdle, h.orchestrator.State())
}

func TestPersistenceFailureKeepsKeyAndWritesNoRecord(t *testing.T) {
	h := newHarness(t)
	h.store.payloadErr = &internal_type.PersistenceError{Op: "write-payload", Err: errors.New("disk full")}

	id, err := h.orchestrator.StartSession(context.Background(), StartOptions{})
	require.NoError(t, err)

	_, err = h.orchestrator.StopSession(context.Background())
	var persistenceErr *internal_type.PersistenceError
	require.ErrorAs(t, err, &persistenceErr)

	assert.Equal(t, internal_type.StateFailed, h.orchestrator.State())
	_, err = h.store.Get(context.Background(), id)
	assert.ErrorIs(t, err, internal_type.ErrSessionNotFound)
	assert.Equal(t, 1, h.keys.held())
	assert.Equal(t, 0, h.batch.callCount())

	// Failed is a startable state.
	_, err = h.orchestrator.StartSession(context.Background(), StartOptions{Title: "again"})
	assert.NoError(t, err)
}

func TestTranscriptionFailureStillCompletes(t *testing.T) {
	h := newHarness(t)
	h.batch.err = errors.New("provider unavailable")

	id, err := h.orchestrator.StartSession(context.Background(), StartOptions{})
	require.NoError(t, err)
	_, err = h.orchestrator.StopSession(context.Background())
	require.NoError(t, err)

	h.waitCompleted(t)

	stored := h.store.session(t, id)
	assert.Equal(t, internal_type.StatusCompleted, stored.Status)
	assert.False(t, stored.TranscriptAvailable)

	_, err = h.orchestrator.GetTranscript(context.Background(), id)
	assert.ErrorIs(t, err, internal_type.ErrTranscriptNotFound)

	// Nothing was published without a transcript.
	titles, _ := h.sync.published()
	assert.Empty(t, titles)

	// The stored audio survives for a manual retry.
	h.batch.err = nil
	_, err = h.orchestrator.Retranscribe(context.Background(), id)
	require.NoError(t, err)
	stored = h.store.session(t, id)
	assert.True(t, stored.TranscriptAvailable)
}

func TestRetranscribeOverwritesInPlace(t *testing.T) {
	h := newHarness(t)

	id, err := h.orchestrator.StartSession(context.Background(), StartOptions{})
	require.NoError(t, err)
	_, err = h.orchestrator.StopSession(context.Background())
	require.NoError(t, err)
	h.waitCompleted(t)

	first, err := h.orchestrator.GetTranscript(context.Background(), id)
	require.NoError(t, err)

	h.batch.transcript = &internal_type.Transcript{Text: "better transcript"}
	_, err = h.orchestrator.Retranscribe(context.Background(), id)
	require.NoError(t, err)

	second, err := h.orchestrator.GetTranscript(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "better transcript", second.Text)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedDate, second.CreatedDate)
}

func TestRetranscribeUnknownSession(t *testing.T) {
	h := newHarness(t)

	_, err := h.orchestrator.Retranscribe(context.Background(), "nope")
	assert.ErrorIs(t, err, internal_type.ErrSessionNotFound)
}

func TestSyncPublishesAfterCompletion(t *testing.T) {
	h := newHarness(t)

	_, err := h.orchestrator.StartSession(context.Background(), StartOptions{Title: "meeting recap"})
	require.NoError(t, err)
	_, err = h.orchestrator.StopSession(context.Background())
	require.NoError(t, err)
	h.waitCompleted(t)

	assert.Eventually(t, func() bool {
		titles, _ := h.sync.published()
		return len(titles) == 1
	}, 2*time.Second, 10*time.Millisecond)
	titles, texts := h.sync.published()
	assert.Equal(t, "meeting recap", titles[0])
	assert.Equal(t, "batch transcript", texts[0])
}

func TestSyncDisabledPublishesNothing(t *testing.T) {
	h := newHarness(t, func(cfg *config.AppConfig) {
		cfg.Sync.Enabled = false
	})

	_, err := h.orchestrator.StartSession(context.Background(), StartOptions{})
	require.NoError(t, err)
	_, err = h.orchestrator.StopSession(context.Background())
	require.NoError(t, err)
	h.waitCompleted(t)

	titles, _ := h.sync.published()
	assert.Empty(t, titles)
}

// --- Live Transcription Tests ---

func TestLiveTranscriptSkipsBatchPass(t *testing.T) {
	h := newHarness(t, func(cfg *config.AppConfig) {
		cfg.Recording.LiveTranscription = true
	})

	id, err := h.orchestrator.StartSession(context.Background(), StartOptions{})
	require.NoError(t, err)
	h.device.stream.push([]byte{0x01, 0x02})

	_, err = h.orchestrator.StopSession(context.Background())
	require.NoError(t, err)
	h.waitCompleted(t)

	transcript, err := h.orchestrator.GetTranscript(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "hello world", transcript.Text)
	assert.Equal(t, "fake-live", transcript.Provider)
	assert.Equal(t, 0, h.batch.callCount())
}

func TestCaptureClosesBeforeRecognizer(t *testing.T) {
	h := newHarness(t, func(cfg *config.AppConfig) {
		cfg.Recording.LiveTranscription = true
	})

	_, err := h.orchestrator.StartSession(context.Background(), StartOptions{})
	require.NoError(t, err)
	_, err = h.orchestrator.StopSession(context.Background())
	require.NoError(t, err)
	h.waitCompleted(t)

	ops := h.log.snapshot()
	captureAt, recognizerAt := -1, -1
	for i, op := range ops {
		switch op {
		case "capture-close":
			captureAt = i
		case "recognizer-close":
			recognizerAt = i
		}
	}
	require.NotEqual(t, -1, captureAt, "capture never closed")
	require.NotEqual(t, -1, recognizerAt, "recognizer never closed")
	assert.Less(t, captureAt, recognizerAt, "capture must close before recognizer teardown")
}

func TestLiveFailureFallsBackToBatch(t *testing.T) {
	h := newHarness(t, func(cfg *config.AppConfig) {
		cfg.Recording.LiveTranscription = true
	})
	h.live.transformErr = errors.New("socket closed")

	id, err := h.orchestrator.StartSession(context.Background(), StartOptions{})
	require.NoError(t, err)

	h.device.stream.push([]byte{0x01, 0x02})
	// Wait for the pump to hit the broken recognizer.
	assert.Eventually(t, func() bool {
		return h.recorder.recorded() == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err = h.orchestrator.StopSession(context.Background())
	require.NoError(t, err)
	h.waitCompleted(t)

	transcript, err := h.orchestrator.GetTranscript(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "batch transcript", transcript.Text)
	assert.Equal(t, 1, h.batch.callCount())
}

func TestLiveInitFailureDegradesToBatch(t *testing.T) {
	h := newHarness(t, func(cfg *config.AppConfig) {
		cfg.Recording.LiveTranscription = true
	})
	h.live.initErr = errors.New("dial failed")

	id, err := h.orchestrator.StartSession(context.Background(), StartOptions{})
	require.NoError(t, err)
	_, err = h.orchestrator.StopSession(context.Background())
	require.NoError(t, err)
	h.waitCompleted(t)

	transcript, err := h.orchestrator.GetTranscript(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "batch transcript", transcript.Text)
}

// --- Delete Tests ---

func TestDeleteSessionRemovesEverythingKeyLast(t *testing.T) {
	h := newHarness(t)

	id, err := h.orchestrator.StartSession(context.Background(), StartOptions{})
	require.NoError(t, err)
	_, err = h.orchestrator.StopSession(context.Background())
	require.NoError(t, err)
	h.waitCompleted(t)

	require.NoError(t, h.orchestrator.DeleteSession(context.Background(), id))

	_, err = h.store.Get(context.Background(), id)
	assert.ErrorIs(t, err, internal_type.ErrSessionNotFound)
	assert.Nil(t, h.store.payloadFor(id))
	assert.Equal(t, 0, h.keys.held())

	var deletions []string
	for _, op := range h.log.snapshot() {
		switch op {
		case "transcript-remove", "record-remove", "payload-remove", "key-delete":
			deletions = append(deletions, op)
		}
	}
	assert.Equal(t, []string{"transcript-remove", "record-remove", "payload-remove", "key-delete"}, deletions)
}

func TestDeleteActiveSessionRejected(t *testing.T) {
	h := newHarness(t)

	id, err := h.orchestrator.StartSession(context.Background(), StartOptions{})
	require.NoError(t, err)

	err = h.orchestrator.DeleteSession(context.Background(), id)
	assert.Error(t, err)

	// Still recording and stoppable.
	record, err := h.orchestrator.StopSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, record.ID)
}

func TestDeleteUnknownSession(t *testing.T) {
	h := newHarness(t)

	err := h.orchestrator.DeleteSession(context.Background(), "missing")
	assert.ErrorIs(t, err, internal_type.ErrSessionNotFound)
}

// --- Shutdown Tests ---

func TestShutdownStopsInFlightRecording(t *testing.T) {
	h := newHarness(t)

	id, err := h.orchestrator.StartSession(context.Background(), StartOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.orchestrator.Shutdown(ctx))

	stored := h.store.session(t, id)
	assert.Equal(t, internal_type.StatusCompleted, stored.Status)
	assert.True(t, stored.TranscriptAvailable)
}
