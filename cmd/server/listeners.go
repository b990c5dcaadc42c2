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

// Package main contains the logic for setting up and starting the Pub/Sub
// message listeners that initiate backend processing in response to storage
// events.
//
// Functions:
//   - SetupListeners: Builds the ingestion workflow from the shared clients
//     and attaches it to the video-uploads topic listener.
package main

import (
	"context"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/commands"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/services"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/workflow"
)

// VideoUploadsListener is the logical name of the subscription configuration
// that carries GCS finalize notifications for the video input bucket.
const VideoUploadsListener = "VideoUploads"

// SetupListeners configures and starts the background Pub/Sub listeners.
// It assembles the video ingestion workflow from the shared service clients
// and attaches it to the uploads topic listener.
//
// Inputs:
//   - config: The application's configuration.
//   - cloudClients: The initialized cloud service clients.
//   - ctx: The application's root context, which manages listener lifecycle.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, ctx context.Context) {
	deps := workflow.Dependencies{
		Store: services.NewFirestoreVideoStore(
			cloudClients.FirestoreClient, config.Firestore.VideosCollection),
		Inspector:  &cloud.GCSBlobInspector{Client: cloudClients.StorageClient},
		Downloader: &cloud.GCSBlobDownloader{Client: cloudClients.StorageClient},
		Signer: &cloud.GCSURLSigner{
			StorageClient: cloudClients.StorageClient,
			IAMClient:     cloudClients.IAMClient,
			SignerEmail:   config.Application.SignerServiceAccountEmail,
		},
		Transcriber:      cloudClients.Transcriber,
		QuotesModel:      cloudClients.CompletionModels["quotes"],
		TitleModel:       cloudClients.CompletionModels["title"],
		DescriptionModel: cloudClients.CompletionModels["description"],
		TagsModel:        cloudClients.CompletionModels["tags"],
		Propagator: services.NewFirestoreSecondBrainService(
			cloudClients.FirestoreClient, config.Firestore.SecondBrainCollection),
		Runner:          commands.ExecCommandRunner{},
		Templates:       &config.PromptTemplates,
		FFmpegPath:      config.Application.FFmpegPath,
		ScratchDir:      config.Storage.ScratchDir,
		SignedURLExpiry: cloud.ClampSignedURLExpiration(config.SignedURLs.ExpirationInDays),
		NumberOfWorkers: config.Application.ThreadPoolSize,
	}

	ingestion := workflow.NewVideoIngestionWorkflow("video-ingestion-pipeline", deps)
	cloudClients.PubSubListeners[VideoUploadsListener].SetCommand(ingestion)
	cloudClients.PubSubListeners[VideoUploadsListener].Listen(ctx)
}
