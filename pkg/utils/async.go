// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package utils

import (
	"context"
	"log"
	"runtime/debug"
)

// Go runs fn on its own goroutine with panic isolation: a panicking task must
// never take the process down with it. The context is consulted once up front;
// tasks that need cooperative cancellation watch it themselves.
func Go(ctx context.Context, fn func()) {
	if ctx != nil && ctx.Err() != nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("recovered panic in background task: %v\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}
