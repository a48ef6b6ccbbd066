// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import "context"

// SyncClient pushes a finished transcript to the external note store.
// Best-effort: the orchestrator runs it detached after a session completes
// and a failure never touches the session itself.
type SyncClient interface {
	Publish(ctx context.Context, title, text string, tags []string) error
}
