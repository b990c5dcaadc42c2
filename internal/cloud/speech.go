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
// This file wraps the speech-to-text endpoint. The transcription request is
// a multipart upload of the extracted audio file with a plain-text response
// format, made exactly once per pipeline run.
package cloud

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// WhisperTranscriber sends local audio files to the speech-to-text endpoint
// and returns the plain-text transcript.
type WhisperTranscriber struct {
	Client    *openai.Client // The shared OpenAI-compatible API client.
	Model     string         // The transcription model name (e.g. "whisper-1").
	Language  string         // Optional language hint; empty means auto-detect.
	RateLimit *rate.Limiter  // Limits request frequency.
}

// NewWhisperTranscriber creates a transcriber from its configuration block.
//
// Inputs:
//   - client: The shared *openai.Client.
//   - config: The speech-to-text configuration.
//
// Outputs:
//   - *WhisperTranscriber: A pointer to the newly created transcriber.
func NewWhisperTranscriber(client *openai.Client, config SpeechToText) *WhisperTranscriber {
	rateLimit := config.RateLimit
	if rateLimit <= 0 {
		rateLimit = 1
	}
	return &WhisperTranscriber{
		Client:    client,
		Model:     config.Model,
		Language:  config.Language,
		RateLimit: rate.NewLimiter(rate.Every(time.Second/1), rateLimit),
	}
}

// Transcribe uploads the audio file at the given path and returns the
// transcript as plain text. The call blocks until the rate limiter admits
// it, then executes exactly once; the caller owns the failure policy.
//
// Inputs:
//   - ctx: The context for the request.
//   - audioPath: Local filesystem path of the audio file to transcribe.
//
// Outputs:
//   - string: The transcript text.
//   - error: An error if the limiter wait or the API call fails.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if err := t.RateLimit.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}

	resp, err := t.Client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.Model,
		FilePath: audioPath,
		Language: t.Language,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		return "", fmt.Errorf("transcription request for %s: %w", audioPath, err)
	}
	return resp.Text, nil
}
