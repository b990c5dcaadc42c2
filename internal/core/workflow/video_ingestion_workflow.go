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

// Package workflow defines the high-level business logic orchestrations,
// combining commands into coherent pipelines. This file implements the video
// ingestion workflow: finalized upload event in, enriched ready document out.
package workflow

import (
	"log/slog"
	"time"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/commands"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/cor"
)

// Dependencies bundles every external collaborator the ingestion chain
// touches. Production wiring fills it from the shared service clients; tests
// fill it with fakes.
type Dependencies struct {
	Store            commands.VideoStore
	Inspector        commands.BlobInspector
	Downloader       commands.BlobDownloader
	Signer           commands.URLSigner
	Transcriber      commands.Transcriber
	QuotesModel      commands.CompletionService
	TitleModel       commands.CompletionService
	DescriptionModel commands.CompletionService
	TagsModel        commands.CompletionService
	Propagator       commands.QuotePropagator
	Runner           commands.CommandRunner
	Templates        *cloud.PromptTemplates
	FFmpegPath       string
	ScratchDir       string
	SignedURLExpiry  time.Duration
	NumberOfWorkers  int
}

// VideoIngestionWorkflow orchestrates the processing of one uploaded video:
// validation, record creation, signed URL issue, download, audio extraction,
// transcription, quote extraction, metadata generation, finalization, and
// best-effort second-brain propagation.
//
// The workflow is triggered by a GCS Pub/Sub finalize notification and owns
// the run's two global guarantees: scratch files are removed whether the run
// succeeds or fails, and a failed run with an established document id ends
// with that document in the terminal error state.
type VideoIngestionWorkflow struct {
	cor.BaseCommand
	deps  Dependencies
	chain cor.Chain // The underlying chain of commands to be executed.
}

// Execute runs the ingestion chain and applies the two run-scoped policies.
//
// The deferred Close removes every scratch file registered during the run.
// After the chain completes, the single error boundary inspects the context:
// if any command recorded an error and a document id was established, the
// document is moved to the error state with the failure message; without an
// id the errors are logged only. Nothing is rethrown past this point.
//
// Inputs:
//   - context: The chain of responsibility context for this execution.
func (m *VideoIngestionWorkflow) Execute(context cor.Context) {
	defer context.Close()

	m.chain.Execute(context)

	if !context.HasErrors() {
		return
	}

	videoId, _ := context.Get(cloud.GetVideoIdName()).(string)
	message := ""
	for _, err := range context.GetErrors() {
		message = err.Error()
		break
	}

	if videoId == "" {
		slog.Error("ingestion run failed before a document was created", "error", message)
		return
	}
	if err := m.deps.Store.SetError(context.GetContext(), videoId, message); err != nil {
		slog.Error("failed to record error state", "video", videoId, "error", err, "cause", message)
	}
}

// initializeChain builds the sequence of commands that make up the
// ingestion pipeline. The chain stops at the first recorded error; stages
// whose failures must not stop the run (metadata generation, second-brain
// propagation) keep their failures off the context by construction.
func (m *VideoIngestionWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())

	// Step 1: Parse the Pub/Sub notification into a BlobRef. Objects outside
	// the videos/ prefix produce no output and end the run here.
	out.AddCommand(commands.NewTriggerToBlobRef("trigger-to-blob-ref"))

	// Step 2: Check the store's authoritative content type. Non-video
	// uploads are dropped silently; no document is ever created for them.
	out.AddCommand(commands.NewValidateBlob("validate-blob", m.deps.Inspector))

	// Step 3: Create the document with status `uploading`. This precedes
	// every network call to the transcription and completion services.
	out.AddCommand(commands.NewCreateVideoRecord("create-video-record", m.deps.Store))

	// Step 4: Issue and persist the signed playback URL.
	out.AddCommand(commands.NewIssueSignedURL("issue-signed-url", m.deps.Signer, m.deps.Store, m.deps.SignedURLExpiry))

	// Step 5: Stage the video in scratch space for the transcoder.
	out.AddCommand(commands.NewDownloadToScratch("download-to-scratch", m.deps.Downloader, m.deps.ScratchDir))

	// Step 6: Extract the compressed audio track with ffmpeg.
	out.AddCommand(commands.NewExtractAudio("extract-audio", m.deps.Runner, m.deps.Store, m.deps.FFmpegPath, m.deps.ScratchDir))

	// Step 7: Transcribe the audio and persist the transcript.
	out.AddCommand(commands.NewTranscribeAudio("transcribe-audio", m.deps.Transcriber, m.deps.Store))

	// Step 8: Extract and persist the quotes. Quotes are essential, so this
	// stage's failures are fatal for the run.
	out.AddCommand(commands.NewExtractQuotes("extract-quotes", m.deps.QuotesModel, m.deps.Store, m.deps.Templates.QuotesPrompt))

	// Step 9: Generate title, description and tags in parallel. Optional by
	// policy: failures are logged inside the command and the run continues.
	out.AddCommand(commands.NewGenerateMetadata(
		"generate-metadata",
		m.deps.TitleModel,
		m.deps.DescriptionModel,
		m.deps.TagsModel,
		m.deps.Templates,
		m.deps.Store,
		m.deps.NumberOfWorkers))

	// Step 10: Move the document to the terminal `ready` state.
	out.AddCommand(commands.NewFinalizeRecord("finalize-record", m.deps.Store))

	// Step 11: Best-effort copy of quotes/title onto second-brain entries.
	out.AddCommand(commands.NewPropagateSecondBrain("propagate-second-brain", m.deps.Propagator))

	m.chain = out
}

// NewVideoIngestionWorkflow is the constructor for the ingestion workflow.
//
// Inputs:
//   - name: The workflow name, used for tracing and metrics.
//   - deps: The collaborators the chain operates through.
//
// Outputs:
//   - *VideoIngestionWorkflow: A fully initialized workflow.
func NewVideoIngestionWorkflow(name string, deps Dependencies) *VideoIngestionWorkflow {
	pipeline := &VideoIngestionWorkflow{
		BaseCommand: *cor.NewBaseCommand(name),
		deps:        deps,
	}
	pipeline.initializeChain()
	return pipeline
}
