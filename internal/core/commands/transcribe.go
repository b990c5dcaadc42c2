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
// command that turns the extracted audio into text.
//
// Logic Flow:
//  1. Submit the scratch audio file to the speech-to-text service. The call
//     is made exactly once; any failure is fatal for the run and leaves the
//     document without a transcript.
//  2. Persist the transcript. The status stays `transcribing`; once written
//     the transcript is never cleared, even if a later stage fails.
//  3. Pass the transcript text downstream for enrichment.
package commands

import (
	"fmt"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/cor"
)

// TranscribeAudio is a command that obtains and persists the transcript.
type TranscribeAudio struct {
	cor.BaseCommand
	transcriber Transcriber
	store       VideoStore
}

// NewTranscribeAudio is the constructor for the TranscribeAudio command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - transcriber: The speech-to-text client.
//   - store: The video document store.
//
// Outputs:
//   - *TranscribeAudio: A pointer to the newly instantiated command.
func NewTranscribeAudio(name string, transcriber Transcriber, store VideoStore) *TranscribeAudio {
	return &TranscribeAudio{
		BaseCommand: *cor.NewBaseCommand(name),
		transcriber: transcriber,
		store:       store,
	}
}

// Execute transcribes the audio file and persists the result.
//
// Inputs:
//   - context: The shared cor.Context, holding the scratch audio path.
func (c *TranscribeAudio) Execute(context cor.Context) {
	audioPath := context.Get(c.GetInputParam()).(string)
	videoId := context.Get(cloud.GetVideoIdName()).(string)

	transcript, err := c.transcriber.Transcribe(context.GetContext(), audioPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to transcribe %s: %w", videoId, err))
		return
	}

	if err := c.store.SetTranscript(context.GetContext(), videoId, transcript); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to persist transcript for %s: %w", videoId, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), transcript)
}
