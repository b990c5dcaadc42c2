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
// entry command of the ingestion workflow.
//
// Logic Flow:
// GCS publishes a detailed notification message to a Pub/Sub topic when an
// object is finalized. This command parses that message and reduces it to a
// lightweight BlobRef for the rest of the chain.
//
//  1. Receive the raw Pub/Sub message data as a JSON string from the context.
//  2. Unmarshal it into a cloud.GCSPubSubNotification.
//  3. If the object name is not under the videos/ prefix, produce no output
//     and no error. The chain's precondition checks then end the run
//     quietly; uploads outside the prefix are not this pipeline's business.
//  4. Otherwise place a BlobRef into the context for downstream commands.
package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/cor"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/model"
)

// TriggerToBlobRef is a command that parses a GCS Pub/Sub notification and
// extracts the file reference the rest of the chain operates on.
type TriggerToBlobRef struct {
	cor.BaseCommand
}

// NewTriggerToBlobRef is the constructor for the TriggerToBlobRef command.
//
// Inputs:
//   - name: A string name for this command instance.
//
// Outputs:
//   - *TriggerToBlobRef: A pointer to the newly instantiated command.
func NewTriggerToBlobRef(name string) *TriggerToBlobRef {
	return &TriggerToBlobRef{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute parses the notification payload from the input parameter.
//
// Inputs:
//   - context: The shared cor.Context, holding the raw message JSON.
func (c *TriggerToBlobRef) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	var out cloud.GCSPubSubNotification
	err := json.Unmarshal([]byte(in), &out)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}

	// Objects outside the videos/ prefix are ignored entirely. No output
	// means the next command's precondition fails and the run ends without
	// an error being recorded.
	if !strings.HasPrefix(out.Name, model.VideoPathPrefix) {
		slog.Info("ignoring object outside video prefix", "object", out.Name, "bucket", out.Bucket)
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)

	ref := &cloud.BlobRef{Bucket: out.Bucket, Name: out.Name, ContentType: out.ContentType}
	context.Add(cloud.GetBlobRefName(), ref)
	context.Add(c.GetOutputParam(), ref)
}
