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
// Responsibility (COR) pattern's Command interface, one per stage of the
// video ingestion pipeline. This file declares the narrow interfaces the
// commands depend on. The cloud and services packages satisfy them with
// real clients; tests satisfy them with in-memory fakes.
package commands

import (
	"context"
	"time"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/model"
)

// VideoStore is the subset of the document store the pipeline writes
// through. Implemented by services.FirestoreVideoStore.
type VideoStore interface {
	Create(ctx context.Context, record *model.VideoRecord) error
	SetStatus(ctx context.Context, id string, status model.ProcessingStatus) error
	SetError(ctx context.Context, id string, message string) error
	SetSignedURL(ctx context.Context, id string, url string, expiration time.Time) error
	SetTranscript(ctx context.Context, id string, transcript string) error
	SetQuotes(ctx context.Context, id string, quotes []string) error
	SetGeneratedMetadata(ctx context.Context, id string, metadata model.GeneratedMetadata) error
}

// BlobInspector resolves an object reference to authoritative store
// metadata. Implemented by cloud.GCSBlobInspector.
type BlobInspector interface {
	Inspect(ctx context.Context, bucket string, name string) (*cloud.BlobRef, error)
}

// BlobDownloader streams an object's content to a local file. Implemented by
// cloud.GCSBlobDownloader.
type BlobDownloader interface {
	Download(ctx context.Context, blob *cloud.BlobRef, destPath string) error
}

// URLSigner issues time-limited read URLs for private objects. Implemented
// by cloud.GCSURLSigner.
type URLSigner interface {
	SignGetURL(ctx context.Context, blob *cloud.BlobRef, expires time.Duration) (string, time.Time, error)
}

// Transcriber converts a local audio file into plain text. Implemented by
// cloud.WhisperTranscriber.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// CompletionService generates text from a prompt. Implemented by
// cloud.QuotaAwareCompletionModel.
type CompletionService interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// QuotePropagator copies enrichment results onto external denormalized
// records. Implemented by services.FirestoreSecondBrainService.
type QuotePropagator interface {
	Propagate(ctx context.Context, videoId string, title string, quotes []string) (int, error)
}

// CommandRunner executes an external program to completion. The production
// implementation shells out; tests substitute a recorder so the audio
// extraction command can run without an ffmpeg binary.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}
