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
// command that issues the time-limited playback URL for the stored video.
//
// Logic Flow:
//  1. Issue a V4 signed GET URL for the blob, valid for the configured
//     duration (already clamped below the signing backend's maximum).
//  2. Persist the URL and its absolute expiry on the video document.
//  3. A signing failure is fatal for the run even though the pipeline's own
//     later stages download the blob directly rather than via this URL.
package commands

import (
	"fmt"
	"time"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/cor"
)

// IssueSignedURL is a command that creates and persists the signed read URL.
type IssueSignedURL struct {
	cor.BaseCommand
	signer  URLSigner
	store   VideoStore
	expires time.Duration
}

// NewIssueSignedURL is the constructor for the IssueSignedURL command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - signer: The URL signing backend.
//   - store: The video document store.
//   - expires: The validity window for issued URLs.
//
// Outputs:
//   - *IssueSignedURL: A pointer to the newly instantiated command.
func NewIssueSignedURL(name string, signer URLSigner, store VideoStore, expires time.Duration) *IssueSignedURL {
	return &IssueSignedURL{
		BaseCommand: *cor.NewBaseCommand(name),
		signer:      signer,
		store:       store,
		expires:     expires,
	}
}

// Execute signs the URL and persists it with its expiry.
//
// Inputs:
//   - context: The shared cor.Context, holding the validated BlobRef.
func (c *IssueSignedURL) Execute(context cor.Context) {
	ref := context.Get(c.GetInputParam()).(*cloud.BlobRef)
	videoId := context.Get(cloud.GetVideoIdName()).(string)

	url, expiration, err := c.signer.SignGetURL(context.GetContext(), ref, c.expires)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to sign URL for %s: %w", ref.Name, err))
		return
	}

	if err := c.store.SetSignedURL(context.GetContext(), videoId, url, expiration); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to persist signed URL for %s: %w", videoId, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), ref)
}
