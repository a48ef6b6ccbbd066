// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package utils

// Header keys shared by every Rapida service surface. The recorder daemon uses
// HEADER_API_KEY to authenticate the desktop shell and forwards the source and
// environment headers to downstream sync targets.
const (
	HEADER_API_KEY         = "X-Api-Key"
	HEADER_AUTH_KEY        = "Authorization"
	HEADER_SOURCE_KEY      = "X-Client-Source"
	HEADER_ENVIRONMENT_KEY = "X-Rapida-Environment"
	HEADER_REGION_KEY      = "X-Rapida-Region"
)
