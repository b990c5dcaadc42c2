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
// command that generates the video's descriptive metadata.
//
// Logic Flow:
//  1. Build three independent completion jobs from the transcript: a short
//     title (~60 character guidance), a summary description (~200), and a
//     comma-separated tag list. The guidance lives in the prompt templates;
//     nothing is truncated here.
//  2. Fan the jobs out over a worker pool and wait for all of them.
//  3. Persist the successful subset in one partial update.
//
// This stage is deliberately non-fatal by construction: job failures are
// logged and simply leave their fields absent. Nothing is ever recorded on
// the chain context, so the run proceeds to `ready` regardless. The fatal
// and non-fatal halves of enrichment live in separate commands so the
// distinction is structural rather than inferred from error text.
package commands

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/cor"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/model"
)

// Metadata task names, used for job routing and log lines.
const (
	metadataTaskTitle       = "title"
	metadataTaskDescription = "description"
	metadataTaskTags        = "tags"
)

// ParseTags splits a comma-delimited completion into trimmed, non-empty tag
// strings.
//
// Inputs:
//   - text: The raw completion text.
//
// Outputs:
//   - []string: The parsed tags, in input order. Never nil.
func ParseTags(text string) []string {
	tags := make([]string, 0)
	for _, part := range strings.Split(text, ",") {
		tag := strings.TrimSpace(part)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// metadataJob is one completion request handed to the worker pool.
type metadataJob struct {
	task   string
	model  CompletionService
	prompt string
}

// metadataResult carries a worker's outcome back for aggregation.
type metadataResult struct {
	task  string
	value string
	err   error
}

// metadataWorker drains the jobs channel, running one completion per job.
func metadataWorker(ctx cor.Context, jobs <-chan *metadataJob, results chan<- *metadataResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range jobs {
		value, err := job.model.GenerateText(ctx.GetContext(), job.prompt)
		results <- &metadataResult{task: job.task, value: value, err: err}
	}
}

// GenerateMetadata is a command that derives title, description and tags
// from the transcript in parallel and persists whatever subset succeeds.
type GenerateMetadata struct {
	cor.BaseCommand
	titleModel       CompletionService
	descriptionModel CompletionService
	tagsModel        CompletionService
	templates        *cloud.PromptTemplates
	store            VideoStore
	numberOfWorkers  int
}

// NewGenerateMetadata is the constructor for the GenerateMetadata command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - titleModel, descriptionModel, tagsModel: Completion clients per task.
//     They may share one underlying model.
//   - templates: The prompt templates; each receives the transcript.
//   - store: The video document store.
//   - numberOfWorkers: The size of the worker pool for the fan-out.
//
// Outputs:
//   - *GenerateMetadata: A pointer to the newly instantiated command.
func NewGenerateMetadata(
	name string,
	titleModel CompletionService,
	descriptionModel CompletionService,
	tagsModel CompletionService,
	templates *cloud.PromptTemplates,
	store VideoStore,
	numberOfWorkers int) *GenerateMetadata {
	if numberOfWorkers <= 0 {
		numberOfWorkers = 3
	}
	return &GenerateMetadata{
		BaseCommand:      *cor.NewBaseCommand(name),
		titleModel:       titleModel,
		descriptionModel: descriptionModel,
		tagsModel:        tagsModel,
		templates:        templates,
		store:            store,
		numberOfWorkers:  numberOfWorkers,
	}
}

// Execute fans out the three completion jobs and persists the successes.
//
// Inputs:
//   - context: The shared cor.Context, holding the transcript text.
func (c *GenerateMetadata) Execute(context cor.Context) {
	transcript := context.Get(c.GetInputParam()).(string)
	videoId := context.Get(cloud.GetVideoIdName()).(string)

	allJobs := []*metadataJob{
		{task: metadataTaskTitle, model: c.titleModel, prompt: fmt.Sprintf(c.templates.TitlePrompt, transcript)},
		{task: metadataTaskDescription, model: c.descriptionModel, prompt: fmt.Sprintf(c.templates.DescriptionPrompt, transcript)},
		{task: metadataTaskTags, model: c.tagsModel, prompt: fmt.Sprintf(c.templates.TagsPrompt, transcript)},
	}

	var wg sync.WaitGroup
	jobs := make(chan *metadataJob, len(allJobs))
	results := make(chan *metadataResult, len(allJobs))

	for w := 1; w <= c.numberOfWorkers; w++ {
		wg.Add(1)
		go metadataWorker(context, jobs, results, &wg)
	}
	for _, job := range allJobs {
		jobs <- job
	}
	close(jobs)
	wg.Wait()
	close(results)

	var metadata model.GeneratedMetadata
	for r := range results {
		if r.err != nil {
			// Non-fatal: log and leave the field absent. The chain context
			// is never touched here.
			slog.Warn("metadata generation failed",
				"video", videoId,
				"task", r.task,
				"error", r.err)
			continue
		}
		switch r.task {
		case metadataTaskTitle:
			title := strings.TrimSpace(r.value)
			metadata.Title = &title
		case metadataTaskDescription:
			description := strings.TrimSpace(r.value)
			metadata.Description = &description
		case metadataTaskTags:
			metadata.Tags = ParseTags(r.value)
		}
	}

	if err := c.store.SetGeneratedMetadata(context.GetContext(), videoId, metadata); err != nil {
		// Persisting descriptive metadata is best-effort as well.
		slog.Warn("failed to persist generated metadata", "video", videoId, "error", err)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetGeneratedMetadataName(), metadata)
	context.Add(c.GetOutputParam(), transcript)
}

// GetGeneratedMetadataName returns the constant key under which the
// generated metadata is stored for downstream commands (the second-brain
// propagation reads the title from it).
//
// Outputs:
//   - string: A constant placeholder string "__GEN__METADATA__".
func GetGeneratedMetadataName() string {
	return "__GEN__METADATA__"
}
