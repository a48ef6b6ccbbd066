// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_audio

// AudioConfig fixes the one wire format audio takes inside the recorder:
// every ingest path converts to it and every engine consumes it.
type AudioConfig struct {
	SampleRate uint32
	Channels   uint16
}

// RAPIDA_INTERNAL_AUDIO_CONFIG is 16 kHz mono LINEAR16, the format the speech
// engines are configured for.
var RAPIDA_INTERNAL_AUDIO_CONFIG = AudioConfig{
	SampleRate: 16000,
	Channels:   1,
}
