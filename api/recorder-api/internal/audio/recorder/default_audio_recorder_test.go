// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_recorder

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/rapidaai/scribe/pkg/commons"
)

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-recorder"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

func newTestRecorder(t *testing.T) *audioRecorder {
	t.Helper()
	rec, err := NewDefaultAudioRecorder(newTestLogger(t))
	if err != nil {
		t.Fatalf("failed to create recorder: %v", err)
	}
	return rec.(*audioRecorder)
}

func pcm(val byte, length int) []byte {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = val
	}
	return buf
}

func wavPCMData(wav []byte) []byte { return wav[44:] }

func TestRecordPlacesChunk(t *testing.T) {
	rec := newTestRecorder(t)
	data := pcm(0x01, 320)
	rec.Record(context.Background(), data)

	if len(rec.chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(rec.chunks))
	}
	if !bytes.Equal(rec.chunks[0].Data, data) {
		t.Errorf("data mismatch")
	}
}

func TestRecordEmptyDataIsIgnored(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()
	rec.Record(ctx, nil)
	rec.Record(ctx, []byte{})

	if len(rec.chunks) != 0 {
		t.Fatalf("expected 0 chunks, got %d", len(rec.chunks))
	}
}

func TestRecordCopiesData(t *testing.T) {
	rec := newTestRecorder(t)
	data := pcm(0xFF, 100)
	rec.Record(context.Background(), data)
	data[0] = 0x00
	if rec.chunks[0].Data[0] != 0xFF {
		t.Error("record must copy data")
	}
}

func TestBurstChunksPreserveOrder(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		rec.Record(ctx, pcm(byte(i+1), 320))
	}
	if len(rec.chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(rec.chunks))
	}
	// Burst delivery: the cursor paces each chunk directly after the previous
	// one, so consecutive chunks never overlap even at the same wall offset.
	for i, c := range rec.chunks {
		if c.Data[0] != byte(i+1) {
			t.Errorf("chunk %d: expected first byte %d, got %d", i, i+1, c.Data[0])
		}
		if c.ByteOffset != i*320 {
			t.Errorf("chunk %d: expected offset %d, got %d", i, i*320, c.ByteOffset)
		}
	}
}

func TestDuration(t *testing.T) {
	rec := newTestRecorder(t)
	if rec.Duration() != 0 {
		t.Errorf("expected zero duration before Start")
	}

	base := time.Now()
	rec.clock = func() time.Time { return base }
	rec.Start()
	rec.clock = func() time.Time { return base.Add(5 * time.Second) }

	if got := rec.Duration(); got != 5*time.Second {
		t.Errorf("expected 5s duration, got %v", got)
	}
}

func TestPersistEmptyReturnsError(t *testing.T) {
	rec := newTestRecorder(t)
	if _, err := rec.Persist(); err == nil {
		t.Fatal("expected error for empty recorder")
	}
}

func TestPersistProducesValidWAV(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()
	rec.Record(ctx, pcm(0x01, 3200))
	rec.Record(ctx, pcm(0x02, 6400))

	wav, err := rec.Persist()
	if err != nil {
		t.Fatalf("Persist error: %v", err)
	}
	if len(wav) < 44 {
		t.Fatalf("WAV too short")
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Errorf("WAV missing RIFF/WAVE header")
	}
	if sr := binary.LittleEndian.Uint32(wav[24:28]); sr != audioConfig.SampleRate {
		t.Errorf("sample rate: got %d", sr)
	}
	if got := len(wavPCMData(wav)); got != 3200+6400 {
		t.Errorf("expected %d PCM bytes, got %d", 3200+6400, got)
	}
}

func TestPersistSilenceFilling(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()

	// Anchor the timeline, record one frame immediately, then jump the clock
	// forward 10ms before a second frame: the gap must render as silence.
	base := time.Now()
	rec.clock = func() time.Time { return base }
	rec.Start()
	rec.Record(ctx, pcm(0x11, 100))

	gap := durationBytes(10 * time.Millisecond)
	rec.clock = func() time.Time { return base.Add(10 * time.Millisecond) }
	rec.Record(ctx, pcm(0x22, 200))

	wav, err := rec.Persist()
	if err != nil {
		t.Fatalf("Persist error: %v", err)
	}
	data := wavPCMData(wav)

	for i := 0; i < 100; i++ {
		if data[i] != 0x11 {
			t.Fatalf("byte %d: expected 0x11, got 0x%02x", i, data[i])
		}
	}
	for i := 100; i < gap; i++ {
		if data[i] != 0x00 {
			t.Fatalf("byte %d: expected silence, got 0x%02x", i, data[i])
		}
	}
	for i := gap; i < gap+200; i++ {
		if data[i] != 0x22 {
			t.Fatalf("byte %d: expected 0x22, got 0x%02x", i, data[i])
		}
	}
}

func TestPersistSpansFullSessionDuration(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()

	base := time.Now()
	rec.clock = func() time.Time { return base }
	rec.Start()
	rec.Record(ctx, pcm(0x01, 320))

	// Persist one second after start with only 320 audio bytes recorded: the
	// WAV spans the full second, trailing silence included.
	rec.clock = func() time.Time { return base.Add(time.Second) }
	wav, err := rec.Persist()
	if err != nil {
		t.Fatalf("Persist error: %v", err)
	}
	if got, want := len(wavPCMData(wav)), bytesPerSecond(); got != want {
		t.Errorf("expected %d PCM bytes for 1s session, got %d", want, got)
	}
}
