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
// command that creates the video's document in the store.
//
// Logic Flow:
//  1. Derive the video id deterministically from the object name, so
//     repeated finalize events for the same object address the same
//     document.
//  2. Write the full initial record with status `uploading`. This happens
//     before any call to the transcription or completion services.
//  3. Publish the id under a well-known context key. From this point on,
//     the workflow's error boundary can record failures on the document.
package commands

import (
	"fmt"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/cor"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/model"
)

// CreateVideoRecord is a command that writes the initial video document.
type CreateVideoRecord struct {
	cor.BaseCommand
	store VideoStore
}

// NewCreateVideoRecord is the constructor for the CreateVideoRecord command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - store: The video document store.
//
// Outputs:
//   - *CreateVideoRecord: A pointer to the newly instantiated command.
func NewCreateVideoRecord(name string, store VideoStore) *CreateVideoRecord {
	return &CreateVideoRecord{BaseCommand: *cor.NewBaseCommand(name), store: store}
}

// Execute derives the id and writes the initial document.
//
// Inputs:
//   - context: The shared cor.Context, holding the validated BlobRef.
func (c *CreateVideoRecord) Execute(context cor.Context) {
	ref := context.Get(c.GetInputParam()).(*cloud.BlobRef)

	id := model.VideoIDFromObjectName(ref.Name)
	if id == "" {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("cannot derive video id from object name %q", ref.Name))
		return
	}

	record := &model.VideoRecord{
		Id:               id,
		OriginalFileName: ref.Name,
		ContentType:      ref.ContentType,
		Size:             ref.Size,
		ProcessingStatus: model.StatusUploading,
	}
	if err := c.store.Create(context.GetContext(), record); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to create video record %s: %w", id, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	// The id is published for the error boundary as soon as the document
	// exists, so any later failure can land on it.
	context.Add(cloud.GetVideoIdName(), id)
	context.Add(c.GetOutputParam(), ref)
}
