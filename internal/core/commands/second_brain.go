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
// trailing command that copies enrichment results onto the denormalized
// second-brain entries owned by an external feature.
//
// This runs after the video is already `ready` and is best-effort in every
// direction: propagation failures are logged and never recorded on the
// chain context, so they cannot affect the video's terminal state.
package commands

import (
	"log/slog"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/cor"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/model"
)

// PropagateSecondBrain is a command that pushes quotes and the generated
// title to second-brain entries referencing the video.
type PropagateSecondBrain struct {
	cor.BaseCommand
	propagator QuotePropagator
}

// NewPropagateSecondBrain is the constructor for the PropagateSecondBrain
// command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - propagator: The denormalized-record updater.
//
// Outputs:
//   - *PropagateSecondBrain: A pointer to the newly instantiated command.
func NewPropagateSecondBrain(name string, propagator QuotePropagator) *PropagateSecondBrain {
	return &PropagateSecondBrain{BaseCommand: *cor.NewBaseCommand(name), propagator: propagator}
}

// Execute performs the best-effort propagation.
//
// Inputs:
//   - context: The shared cor.Context, holding the quotes and any generated
//     metadata under their well-known keys.
func (c *PropagateSecondBrain) Execute(context cor.Context) {
	videoId := context.Get(cloud.GetVideoIdName()).(string)

	quotes, _ := context.Get(GetQuotesName()).([]string)
	title := ""
	if metadata, ok := context.Get(GetGeneratedMetadataName()).(model.GeneratedMetadata); ok && metadata.Title != nil {
		title = *metadata.Title
	}

	count, err := c.propagator.Propagate(context.GetContext(), videoId, title, quotes)
	if err != nil {
		// Log-only: the video is already ready and stays that way.
		c.GetErrorCounter().Add(context.GetContext(), 1)
		slog.Warn("second-brain propagation failed", "video", videoId, "error", err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	if count > 0 {
		slog.Info("propagated enrichment to second-brain entries", "video", videoId, "entries", count)
	}
	context.Add(c.GetOutputParam(), videoId)
}
