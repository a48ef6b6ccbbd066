// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_retention

import (
	"context"
	"time"

	internal_type "github.com/rapidaai/scribe/api/recorder-api/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
)

// SessionLister enumerates stored session records.
type SessionLister interface {
	LoadAll(ctx context.Context) ([]*internal_type.RecordingSession, error)
}

// SessionDeleter removes one session and everything it owns. The deleter is
// expected to refuse sessions that are still in flight; the sweeper treats
// that refusal like any other per-session failure.
type SessionDeleter interface {
	DeleteSession(ctx context.Context, id string) error
}

// Sweeper removes sessions that have passed their auto-delete date. Each pass
// is idempotent: a session that survives one sweep because of an error is
// simply picked up again by the next.
type Sweeper struct {
	logger   commons.Logger
	lister   SessionLister
	deleter  SessionDeleter
	interval time.Duration
	clock    func() time.Time
}

func NewSweeper(logger commons.Logger, lister SessionLister, deleter SessionDeleter, interval time.Duration) *Sweeper {
	return &Sweeper{
		logger:   logger,
		lister:   lister,
		deleter:  deleter,
		interval: interval,
		clock:    time.Now,
	}
}

// Run sweeps immediately, then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Infow("retention: sweeper running", "interval", s.interval.String())
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("retention: sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, failures := s.sweepOnce(ctx)
	for _, err := range failures {
		s.logger.Warnf("retention: %v", err)
	}
	if removed > 0 || len(failures) > 0 {
		s.logger.Infow("retention: sweep finished", "removed", removed, "failed", len(failures))
	}
}

// sweepOnce deletes every expired session it can and reports the ones it
// could not. One failing session never stops the rest of the pass.
func (s *Sweeper) sweepOnce(ctx context.Context) (int, []error) {
	sessions, err := s.lister.LoadAll(ctx)
	if err != nil {
		return 0, []error{err}
	}

	now := s.clock()
	removed := 0
	var failures []error
	for _, session := range sessions {
		if !session.Expired(now) {
			continue
		}
		if err := s.deleter.DeleteSession(ctx, session.ID); err != nil {
			failures = append(failures, &internal_type.SweepItemError{SessionID: session.ID, Err: err})
			continue
		}
		removed++
	}
	return removed, failures
}
