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
// command that extracts the audio track from the staged video.
//
// Logic Flow:
//  1. Advance the document to `transcribing`. Everything from here to the
//     persisted transcript happens under that status.
//  2. Run ffmpeg over the scratch video: drop the video stream (-vn), mix
//     down to mono, and encode a compressed mp3 suitable for the
//     transcription endpoint's upload limits.
//  3. Register the audio file for cleanup and pass its path downstream.
//
// The ffmpeg invocation goes through the CommandRunner interface so tests
// can substitute a recorder for the real binary.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/cor"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/model"
)

// Constants used for the ffmpeg audio extraction.
const (
	// DefaultAudioExtractionArgs is a format string for the ffmpeg command.
	// -y: Overwrite output files without asking.
	// -hide_banner: Suppresses the printing of the ffmpeg banner.
	// -i %s: Specifies the input video file.
	// -vn: Drops the video stream entirely.
	// -ac 1: Mixes the audio down to a single channel.
	// -b:a 64k: Constrains the audio bitrate, keeping uploads small.
	// -f mp3 %s: Forces the mp3 container and names the output file.
	DefaultAudioExtractionArgs = "-y -hide_banner -i %s -vn -ac 1 -b:a 64k -f mp3 %s"
	AudioFileExtension         = ".mp3"
	CommandSeparator           = " "
)

// ExecCommandRunner is the production CommandRunner. It shells out and
// forwards stderr so ffmpeg diagnostics land in the process logs.
type ExecCommandRunner struct{}

// Run executes the named program and waits for it to finish.
func (ExecCommandRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// ExtractAudio is a command that transcodes the staged video to a
// compressed audio file via ffmpeg.
type ExtractAudio struct {
	cor.BaseCommand
	runner      CommandRunner
	store       VideoStore
	commandPath string // The path to the ffmpeg executable (e.g. "/usr/bin/ffmpeg").
	scratchDir  string
}

// NewExtractAudio is the constructor for the ExtractAudio command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - runner: Executes the external transcoder.
//   - store: The video document store, for the status transition.
//   - commandPath: The file system path to the ffmpeg executable.
//   - scratchDir: Directory for per-run scratch files; empty means os.TempDir.
//
// Outputs:
//   - *ExtractAudio: A pointer to the newly instantiated command.
func NewExtractAudio(name string, runner CommandRunner, store VideoStore, commandPath string, scratchDir string) *ExtractAudio {
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	return &ExtractAudio{
		BaseCommand: *cor.NewBaseCommand(name),
		runner:      runner,
		store:       store,
		commandPath: commandPath,
		scratchDir:  scratchDir,
	}
}

// Execute advances the status and runs the transcode.
//
// Inputs:
//   - context: The shared cor.Context, holding the scratch video path.
func (c *ExtractAudio) Execute(context cor.Context) {
	videoPath := context.Get(c.GetInputParam()).(string)
	videoId := context.Get(cloud.GetVideoIdName()).(string)

	if err := c.store.SetStatus(context.GetContext(), videoId, model.StatusTranscribing); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to set status for %s: %w", videoId, err))
		return
	}

	audioPath := filepath.Join(c.scratchDir, videoId+AudioFileExtension)
	args := fmt.Sprintf(DefaultAudioExtractionArgs, videoPath, audioPath)
	if err := c.runner.Run(context.GetContext(), c.commandPath, strings.Split(args, CommandSeparator)...); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("error running ffmpeg for %s: %w", videoId, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.AddTempFile(audioPath)
	context.Add(c.GetOutputParam(), audioPath)
}
