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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for Google Cloud services, the OpenAI-compatible model endpoints, Pub/Sub
// subscriptions, and prompt templates.
//
// Structs:
//   - Storage: Bucket and scratch directory settings.
//   - Firestore: Collection names for the document store.
//   - SignedURLs: Signed download URL policy.
//   - SpeechToText: Configuration for the transcription model.
//   - CompletionModel: Configuration for one chat-completion model.
//   - PromptTemplates: Text templates for the enrichment prompts.
//   - TopicSubscription: Configuration for a single Pub/Sub subscription.
//   - Sweeper: Configuration for the optional stuck-record sweeper.
//   - Config: The top-level aggregate loaded by LoadConfig.
//
// Functions:
//   - NewConfig: Constructor that initializes a Config with empty maps.
package cloud

// Storage represents the configuration for storage buckets and local scratch
// space used while a video is being processed.
type Storage struct {
	VideoInputBucket string `toml:"video_input_bucket"` // The bucket that receives uploaded videos under the "videos/" prefix.
	ScratchDir       string `toml:"scratch_dir"`        // Directory for per-run scratch files. Empty means the OS temp dir.
}

// Firestore represents the configuration for the document store.
type Firestore struct {
	VideosCollection      string `toml:"videos_collection"`       // Collection holding one document per video.
	SecondBrainCollection string `toml:"second_brain_collection"` // Collection id used by the collection-group query for denormalized entries.
}

// SignedURLs represents the policy for signed download URLs issued during
// ingestion. The expiration is expressed in days and clamped at issue time to
// stay below the signing backend's hard maximum of seven days.
type SignedURLs struct {
	ExpirationInDays int `toml:"expiration_in_days"`
}

// SpeechToText represents the configuration for the transcription model.
type SpeechToText struct {
	Model     string `toml:"model"`      // The transcription model name (e.g. "whisper-1").
	Language  string `toml:"language"`   // Optional ISO-639-1 hint passed with each request.
	RateLimit int    `toml:"rate_limit"` // Maximum transcription requests per second.
}

// CompletionModel represents the configuration for a single chat-completion
// model. Each enrichment concern (quotes, title, description, tags) is keyed
// to one of these by a logical name.
type CompletionModel struct {
	Model              string  `toml:"model"`               // The completion model name.
	SystemInstructions string  `toml:"system_instructions"` // Optional system message sent before the prompt.
	Temperature        float32 `toml:"temperature"`         // Sampling temperature.
	MaxTokens          int     `toml:"max_tokens"`          // Maximum tokens in the generated response.
	RateLimit          int     `toml:"rate_limit"`          // Maximum requests per second for this model.
}

// PromptTemplates holds the templates for the enrichment prompts. Each
// template receives the transcript through fmt.Sprintf.
type PromptTemplates struct {
	QuotesPrompt      string `toml:"quotes"`      // Template for extracting notable quotes.
	TitlePrompt       string `toml:"title"`       // Template for generating a short title.
	DescriptionPrompt string `toml:"description"` // Template for generating a summary description.
	TagsPrompt        string `toml:"tags"`        // Template for generating comma-separated tags.
}

// TopicSubscription represents the configuration for a Pub/Sub topic subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The name of the dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // The timeout for the subscription in seconds.
}

// Sweeper represents the configuration for the optional background job that
// marks long-stuck records as failed. An interval of zero disables it.
type Sweeper struct {
	SweepIntervalInSeconds int `toml:"sweep_interval_in_seconds"` // How often to scan. Zero disables the sweeper.
	StuckAfterSeconds      int `toml:"stuck_after_seconds"`       // Age at which a non-terminal record counts as stuck.
}

// Config represents the overall configuration for the application, loaded
// from TOML files. It acts as the root container for all other configuration
// structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name                      string `toml:"name"`                         // The name of the application.
		GoogleProjectId           string `toml:"google_project_id"`            // The Google Cloud project ID.
		GoogleLocation            string `toml:"location"`                     // The Google Cloud location.
		ThreadPoolSize            int    `toml:"thread_pool_size"`             // The size of the worker pool for the metadata fan-out.
		SignerServiceAccountEmail string `toml:"signer_service_account_email"` // The service account email used for signing GCS URLs.
		OpenAIBaseURL             string `toml:"openai_base_url"`              // Optional override for the OpenAI-compatible API endpoint.
		FFmpegPath                string `toml:"ffmpeg_path"`                  // The path to the ffmpeg executable.
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`             // Storage configuration.
	Firestore          Firestore                    `toml:"firestore"`           // Document store configuration.
	SignedURLs         SignedURLs                   `toml:"signed_urls"`         // Signed URL policy.
	SpeechToText       SpeechToText                 `toml:"speech_to_text"`      // Transcription model configuration.
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`    // Prompt templates configuration.
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // Pub/Sub subscriptions, keyed by a logical name (e.g. "VideoUploads").
	CompletionModels   map[string]CompletionModel   `toml:"completion_models"`   // Chat-completion models, keyed by a logical name (e.g. "quotes").
	Sweeper            Sweeper                      `toml:"sweeper"`             // Stuck-record sweeper configuration.
}

// NewConfig is a constructor function that creates a new, initialized Config
// instance. The maps must be initialized up front so the TOML decoder can
// populate them without nil map panics.
//
// Outputs:
//   - *Config: A pointer to a new Config struct with its map fields initialized.
func NewConfig() *Config {
	return &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		CompletionModels:   make(map[string]CompletionModel),
	}
}
