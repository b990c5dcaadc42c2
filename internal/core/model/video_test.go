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

package model_test

import (
	"testing"

	"github.com/clipmind/gcp-go-video-ingest/internal/core/model"
	"github.com/zeebo/assert"
)

func TestVideoIDFromObjectName(t *testing.T) {
	assert.Equal(t, "abc123", model.VideoIDFromObjectName("videos/abc123.mp4"))
	assert.Equal(t, "abc123", model.VideoIDFromObjectName("videos/abc123.mov"))
	assert.Equal(t, "abc123", model.VideoIDFromObjectName("videos/abc123"))
	assert.Equal(t, "clip-7", model.VideoIDFromObjectName("videos/nested/clip-7.webm"))
}

func TestVideoIDFromObjectNameRejectsForeignPrefixes(t *testing.T) {
	assert.Equal(t, "", model.VideoIDFromObjectName("images/abc123.png"))
	assert.Equal(t, "", model.VideoIDFromObjectName("abc123.mp4"))
	assert.Equal(t, "", model.VideoIDFromObjectName(""))
	assert.Equal(t, "", model.VideoIDFromObjectName("videos/"))
}

func TestVideoIDFromObjectNameIsDeterministic(t *testing.T) {
	first := model.VideoIDFromObjectName("videos/abc123.mp4")
	second := model.VideoIDFromObjectName("videos/abc123.mp4")
	assert.Equal(t, first, second)
}

func TestProcessingStatusTerminality(t *testing.T) {
	assert.True(t, model.StatusReady.IsTerminal())
	assert.True(t, model.StatusError.IsTerminal())
	assert.False(t, model.StatusUploading.IsTerminal())
	assert.False(t, model.StatusTranscribing.IsTerminal())
	assert.False(t, model.StatusExtractingQuotes.IsTerminal())
	assert.False(t, model.StatusGeneratingMetadata.IsTerminal())
}

func TestGeneratedMetadataIsEmpty(t *testing.T) {
	assert.True(t, model.GeneratedMetadata{}.IsEmpty())

	title := "A title"
	assert.False(t, model.GeneratedMetadata{Title: &title}.IsEmpty())
	assert.False(t, model.GeneratedMetadata{Tags: []string{"a"}}.IsEmpty())
}
