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

package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clipmind/gcp-go-video-ingest/internal/core/model"
	"github.com/stretchr/testify/assert"
)

type sweeperStoreStub struct {
	stuck    []*model.VideoRecord
	listErr  error
	setErr   error
	marked   []string
	messages []string
}

func (s *sweeperStoreStub) ListStuck(_ context.Context, _ time.Time) ([]*model.VideoRecord, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.stuck, nil
}

func (s *sweeperStoreStub) SetError(_ context.Context, id string, message string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.marked = append(s.marked, id)
	s.messages = append(s.messages, message)
	return nil
}

func TestSweepMarksStuckRecords(t *testing.T) {
	store := &sweeperStoreStub{
		stuck: []*model.VideoRecord{
			{Id: "a", ProcessingStatus: model.StatusTranscribing},
			{Id: "b", ProcessingStatus: model.StatusUploading},
		},
	}
	sweeper := NewStuckRecordSweeper(store, time.Minute, time.Hour)

	sweeper.sweep(context.Background())

	assert.Equal(t, []string{"a", "b"}, store.marked)
	assert.Contains(t, store.messages[0], string(model.StatusTranscribing))
}

func TestSweepToleratesScanFailure(t *testing.T) {
	store := &sweeperStoreStub{listErr: errors.New("index missing")}
	sweeper := NewStuckRecordSweeper(store, time.Minute, time.Hour)

	sweeper.sweep(context.Background())

	assert.Empty(t, store.marked)
}

func TestDisabledSweeperStartIsNoOp(t *testing.T) {
	store := &sweeperStoreStub{stuck: []*model.VideoRecord{{Id: "a"}}}
	sweeper := NewStuckRecordSweeper(store, 0, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper.Start(ctx)

	// No background loop was launched; nothing gets marked.
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, store.marked)
}
