// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import "context"

// CaptureDevice produces the audio for one session at a time.
type CaptureDevice interface {
	// Open arms the device and returns the frame stream for this session.
	// A second Open while a stream is live fails.
	Open(ctx context.Context) (CaptureStream, error)
}

// CaptureStream delivers fixed-format LINEAR16 frames until closed. Frames are
// fanned out read-only: every consumer sees the same slice and none may
// mutate it.
type CaptureStream interface {
	// Frames is closed by Close after the last buffered frame is delivered,
	// so a draining reader never loses audio.
	Frames() <-chan []byte

	// Close stops delivery. Idempotent.
	Close(ctx context.Context) error
}
