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
// command that stages the video in local scratch space.
//
// Logic Flow:
// The downstream audio extraction shells out to ffmpeg, which needs a local
// file and can be particular about file extensions.
//
//  1. Build a deterministic scratch path from the video id and the object
//     name's extension. Deterministic paths mean a rerun for the same video
//     overwrites rather than accumulates.
//  2. Stream the blob to that path and register it for cleanup.
//  3. If the object name carried no extension, sniff the file's magic bytes
//     with the filetype library and rename so ffmpeg sees a proper suffix.
package commands

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/cor"
	"github.com/h2non/filetype"
)

// DownloadToScratch is a command that downloads the video blob to local
// scratch storage for the extraction stage.
type DownloadToScratch struct {
	cor.BaseCommand
	downloader BlobDownloader
	scratchDir string
}

// NewDownloadToScratch is the constructor for the DownloadToScratch command.
// An empty scratchDir falls back to the OS temp directory.
//
// Inputs:
//   - name: A string name for this command instance.
//   - downloader: The blob content source.
//   - scratchDir: Directory for per-run scratch files.
//
// Outputs:
//   - *DownloadToScratch: A pointer to the newly instantiated command.
func NewDownloadToScratch(name string, downloader BlobDownloader, scratchDir string) *DownloadToScratch {
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	return &DownloadToScratch{
		BaseCommand: *cor.NewBaseCommand(name),
		downloader:  downloader,
		scratchDir:  scratchDir,
	}
}

// Execute stages the blob locally and emits the scratch path.
//
// Inputs:
//   - context: The shared cor.Context, holding the validated BlobRef.
func (c *DownloadToScratch) Execute(context cor.Context) {
	ref := context.Get(c.GetInputParam()).(*cloud.BlobRef)
	videoId := context.Get(cloud.GetVideoIdName()).(string)

	destPath := filepath.Join(c.scratchDir, videoId+path.Ext(ref.Name))
	if err := c.downloader.Download(context.GetContext(), ref, destPath); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to download %s/%s: %w", ref.Bucket, ref.Name, err))
		return
	}
	context.AddTempFile(destPath)

	// ffmpeg probes more reliably with a real suffix. When the object name
	// carried none, sniff the container format from the magic bytes.
	if path.Ext(ref.Name) == "" {
		if kind, err := filetype.MatchFile(destPath); err == nil && kind != filetype.Unknown {
			typed := destPath + "." + kind.Extension
			if err := os.Rename(destPath, typed); err == nil {
				destPath = typed
				context.AddTempFile(typed)
			}
		}
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), destPath)
}
