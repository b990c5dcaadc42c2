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
// command that confirms a finalized object is actually a playable video.
//
// Logic Flow:
//  1. Take the BlobRef produced by the trigger reader.
//  2. Ask the object store for the object's authoritative metadata. The
//     content type claimed in the notification is not trusted.
//  3. If the content type does not have the video/ prefix, log the rejection
//     and produce no output. The run ends quietly and no document is ever
//     created for the upload.
//  4. Otherwise pass the refreshed BlobRef (now carrying the authoritative
//     content type and size) to the next command.
package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/cor"
)

// VideoContentTypePrefix is the content-type family accepted for ingestion.
const VideoContentTypePrefix = "video/"

// ValidateBlob is a command that gates the pipeline on the store's
// authoritative content type for the uploaded object.
type ValidateBlob struct {
	cor.BaseCommand
	inspector BlobInspector
}

// NewValidateBlob is the constructor for the ValidateBlob command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - inspector: The metadata source for stored objects.
//
// Outputs:
//   - *ValidateBlob: A pointer to the newly instantiated command.
func NewValidateBlob(name string, inspector BlobInspector) *ValidateBlob {
	return &ValidateBlob{BaseCommand: *cor.NewBaseCommand(name), inspector: inspector}
}

// Execute fetches object metadata and applies the content-type gate.
//
// Inputs:
//   - context: The shared cor.Context, holding the BlobRef from the trigger.
func (c *ValidateBlob) Execute(context cor.Context) {
	ref := context.Get(c.GetInputParam()).(*cloud.BlobRef)

	resolved, err := c.inspector.Inspect(context.GetContext(), ref.Bucket, ref.Name)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to inspect object %s/%s: %w", ref.Bucket, ref.Name, err))
		return
	}

	// Invalid uploads are silently ignored: no record, no alert. Producing
	// no output ends the chain at the next precondition check.
	if !strings.HasPrefix(resolved.ContentType, VideoContentTypePrefix) {
		slog.Info("rejecting non-video upload",
			"object", resolved.Name,
			"bucket", resolved.Bucket,
			"contentType", resolved.ContentType)
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cloud.GetBlobRefName(), resolved)
	context.Add(c.GetOutputParam(), resolved)
}
