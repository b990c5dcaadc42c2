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

// Package cloud provides components for interacting with cloud services.
// This file initializes and holds all the client objects the application
// needs for external communication. It acts as a dependency injection
// container, creating a single shared `ServiceClients` struct that is passed
// throughout the application.
//
// Logic Flow:
//  1. `NewCloudServiceClients` is called at application startup with the
//     loaded configuration.
//  2. It initializes clients for Storage, Pub/Sub, Firestore, IAM
//     credentials, and the OpenAI-compatible API.
//  3. It builds the configured Pub/Sub listeners, completion model wrappers,
//     and the transcriber.
//  4. Everything is bundled into one ServiceClients struct used by the
//     workflows and API handlers.
//
// Structs:
//   - ServiceClients: Container for all initialized clients and wrappers.
//
// Functions:
//   - Close: Gracefully shuts down all client connections.
//   - NewCloudServiceClients: Factory that creates and configures the clients.
package cloud

import (
	"context"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	openai "github.com/sashabaranov/go-openai"
)

// ServiceClients is a central container for all the clients that interact
// with external services. This pattern is a form of dependency injection,
// making it easy to manage and share these connections across the
// application.
type ServiceClients struct {
	StorageClient    *storage.Client                       // Client for Google Cloud Storage (GCS).
	PubsubClient     *pubsub.Client                        // Client for Google Cloud Pub/Sub.
	FirestoreClient  *firestore.Client                     // Client for the Firestore document store.
	IAMClient        *credentials.IamCredentialsClient     // Client for IAM credentials, used to sign GCS URLs.
	OpenAIClient     *openai.Client                        // Client for the OpenAI-compatible speech and completion endpoints.
	PubSubListeners  map[string]*PubSubListener            // Active Pub/Sub listeners, keyed by a logical name from the config.
	CompletionModels map[string]*QuotaAwareCompletionModel // Configured completion models, keyed by a logical name.
	Transcriber      *WhisperTranscriber                   // The speech-to-text client.
}

// Close is a utility method to gracefully shut down all the active client
// connections. Connections are usually managed by the application's root
// context; this gives tests and controlled shutdowns an explicit release.
func (c *ServiceClients) Close() {
	_ = c.StorageClient.Close()
	_ = c.PubsubClient.Close()
	_ = c.FirestoreClient.Close()
	_ = c.IAMClient.Close()
}

// NewCloudServiceClients is a factory function that initializes all required
// service clients based on the provided configuration. It is the main entry
// point for setting up the application's external dependencies.
//
// The OpenAI-compatible API key is read from the OPENAI_API_KEY environment
// variable. A missing key produces a startup warning rather than an error:
// requests are not gated here and will fail at the service.
//
// Inputs:
//   - ctx: The root context.Context, which manages the clients' lifecycle.
//   - config: A pointer to the loaded application configuration.
//
// Outputs:
//   - *ServiceClients: A pointer to the fully initialized ServiceClients struct.
//   - error: An error if any of the clients fail to initialize.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	pc, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	fc, err := firestore.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	ic, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		return nil, err
	}

	apiKey := os.Getenv(EnvOpenAIAPIKey)
	if apiKey == "" {
		slog.Warn("no API key configured for speech and completion requests; they will fail until one is provided",
			"env", EnvOpenAIAPIKey)
	}
	openAIConfig := openai.DefaultConfig(apiKey)
	if config.Application.OpenAIBaseURL != "" {
		openAIConfig.BaseURL = config.Application.OpenAIBaseURL
	}
	oc := openai.NewClientWithConfig(openAIConfig)

	// Build a listener for every configured subscription. Commands are
	// attached later, once the workflows are assembled.
	subscriptions := make(map[string]*PubSubListener)
	for subKey := range config.TopicSubscriptions {
		values := config.TopicSubscriptions[subKey]
		actual, err := NewPubSubListener(pc, values.Name, nil)
		if err != nil {
			return nil, err
		}
		subscriptions[subKey] = actual
	}

	// Wrap every configured completion model with its rate limiter and
	// token counters.
	completionModels := make(map[string]*QuotaAwareCompletionModel)
	for cmKey := range config.CompletionModels {
		completionModels[cmKey] = NewQuotaAwareCompletionModel(oc, cmKey, config.CompletionModels[cmKey])
	}

	cloud = &ServiceClients{
		StorageClient:    sc,
		PubsubClient:     pc,
		FirestoreClient:  fc,
		IAMClient:        ic,
		OpenAIClient:     oc,
		PubSubListeners:  subscriptions,
		CompletionModels: completionModels,
		Transcriber:      NewWhisperTranscriber(oc, config.SpeechToText),
	}

	return cloud, err
}
