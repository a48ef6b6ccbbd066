// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import (
	"context"
	"time"
)

type Recorder interface {
	// Start begins the recording timeline. All subsequent Record calls are
	// placed on a wall-clock timeline relative to this moment.
	Start()
	// Record places a raw audio frame on the timeline. The frame is copied;
	// the caller may reuse the slice.
	Record(context.Context, []byte) error
	// Duration is the elapsed timeline since Start.
	Duration() time.Duration
	// Persist renders the captured timeline as a WAV buffer, silence-filling
	// any gaps between frames.
	Persist() ([]byte, error)
}
