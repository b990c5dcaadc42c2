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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that closes out a successful run by moving the document to the
// terminal `ready` state. After this write the pipeline makes no further
// mutations to the record.
package commands

import (
	"fmt"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/cor"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/model"
)

// FinalizeRecord is a command that marks the video document ready.
type FinalizeRecord struct {
	cor.BaseCommand
	store VideoStore
}

// NewFinalizeRecord is the constructor for the FinalizeRecord command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - store: The video document store.
//
// Outputs:
//   - *FinalizeRecord: A pointer to the newly instantiated command.
func NewFinalizeRecord(name string, store VideoStore) *FinalizeRecord {
	return &FinalizeRecord{BaseCommand: *cor.NewBaseCommand(name), store: store}
}

// Execute writes the terminal ready status.
//
// Inputs:
//   - context: The shared cor.Context.
func (c *FinalizeRecord) Execute(context cor.Context) {
	videoId := context.Get(cloud.GetVideoIdName()).(string)

	if err := c.store.SetStatus(context.GetContext(), videoId, model.StatusReady); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to finalize %s: %w", videoId, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), videoId)
}
