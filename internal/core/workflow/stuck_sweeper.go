// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package workflow defines the high-level business logic orchestrations.
// This file implements an opt-in watchdog for documents stranded in a
// non-terminal status. A run that dies without reaching its error boundary
// (process kill, platform timeout) leaves its document stuck; the sweeper
// periodically marks such documents as failed. It is disabled by default so
// the pipeline's externally observable semantics only change when an
// operator asks for it.
package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/clipmind/gcp-go-video-ingest/internal/core/model"
)

// sweeperStore is the slice of the video store the sweeper needs.
type sweeperStore interface {
	ListStuck(ctx context.Context, cutoff time.Time) ([]*model.VideoRecord, error)
	SetError(ctx context.Context, id string, message string) error
}

// StuckRecordSweeper periodically scans for video documents that have sat in
// a non-terminal status past a configured age and moves them to the error
// state.
type StuckRecordSweeper struct {
	store      sweeperStore
	interval   time.Duration
	stuckAfter time.Duration
}

// NewStuckRecordSweeper creates a sweeper. A non-positive interval produces
// a disabled sweeper whose Start is a no-op.
//
// Inputs:
//   - store: The video store.
//   - interval: How often to scan.
//   - stuckAfter: The age past which a non-terminal record counts as stuck.
//
// Outputs:
//   - *StuckRecordSweeper: The configured sweeper.
func NewStuckRecordSweeper(store sweeperStore, interval time.Duration, stuckAfter time.Duration) *StuckRecordSweeper {
	return &StuckRecordSweeper{store: store, interval: interval, stuckAfter: stuckAfter}
}

// Start launches the periodic scan in a background goroutine. Canceling the
// context stops it. Start returns immediately when the sweeper is disabled.
//
// Inputs:
//   - ctx: Controls the lifetime of the background loop.
func (s *StuckRecordSweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		slog.Info("stuck-record sweeper disabled")
		return
	}
	slog.Info("stuck-record sweeper enabled", "interval", s.interval, "stuckAfter", s.stuckAfter)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

// sweep performs one scan-and-mark pass. Failures on individual records are
// logged and do not stop the pass.
func (s *StuckRecordSweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.stuckAfter)
	records, err := s.store.ListStuck(ctx, cutoff)
	if err != nil {
		slog.Error("stuck-record scan failed", "error", err)
		return
	}
	for _, record := range records {
		message := "processing did not complete within the allowed time; last status: " + string(record.ProcessingStatus)
		if err := s.store.SetError(ctx, record.Id, message); err != nil {
			slog.Error("failed to mark stuck record", "video", record.Id, "error", err)
			continue
		}
		slog.Warn("marked stuck record as failed", "video", record.Id, "lastStatus", record.ProcessingStatus)
	}
}
