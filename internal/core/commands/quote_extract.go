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
// command that derives notable quotes from the transcript.
//
// Logic Flow:
//  1. Advance the document to `extracting_quotes`.
//  2. Issue one completion request built from the quotes prompt template and
//     the transcript.
//  3. Parse the completion as a newline-delimited bullet list. Lines without
//     a list marker are discarded. An empty result is a valid outcome.
//  4. Persist the quotes and advance the document to `generating_metadata`.
//
// Quotes are essential: any failure here is recorded on the chain context
// and ends the run in the error state. The already-persisted transcript is
// never rolled back.
package commands

import (
	"fmt"
	"strings"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/cor"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/model"
)

// quoteMarkers are the list markers accepted at the start of a quote line.
var quoteMarkers = []string{"- ", "* ", "• "}

// ParseQuotes extracts quote strings from a completion's bullet-list text.
// Each line starting with a list marker contributes one quote, with the
// marker and surrounding whitespace stripped. Marker-less lines are dropped.
//
// Inputs:
//   - text: The raw completion text.
//
// Outputs:
//   - []string: The parsed quotes, in input order. Never nil.
func ParseQuotes(text string) []string {
	quotes := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, marker := range quoteMarkers {
			if strings.HasPrefix(trimmed, marker) {
				quote := strings.TrimSpace(strings.TrimPrefix(trimmed, marker))
				if quote != "" {
					quotes = append(quotes, quote)
				}
				break
			}
		}
	}
	return quotes
}

// ExtractQuotes is a command that generates and persists the video's quotes.
type ExtractQuotes struct {
	cor.BaseCommand
	completions    CompletionService
	store          VideoStore
	promptTemplate string // fmt template receiving the transcript.
}

// NewExtractQuotes is the constructor for the ExtractQuotes command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - completions: The text-completion client for the quotes model.
//   - store: The video document store.
//   - promptTemplate: The prompt template; the transcript is substituted in.
//
// Outputs:
//   - *ExtractQuotes: A pointer to the newly instantiated command.
func NewExtractQuotes(name string, completions CompletionService, store VideoStore, promptTemplate string) *ExtractQuotes {
	return &ExtractQuotes{
		BaseCommand:    *cor.NewBaseCommand(name),
		completions:    completions,
		store:          store,
		promptTemplate: promptTemplate,
	}
}

// Execute runs the quote extraction and its surrounding status transitions.
//
// Inputs:
//   - context: The shared cor.Context, holding the transcript text.
func (c *ExtractQuotes) Execute(context cor.Context) {
	transcript := context.Get(c.GetInputParam()).(string)
	videoId := context.Get(cloud.GetVideoIdName()).(string)

	if err := c.store.SetStatus(context.GetContext(), videoId, model.StatusExtractingQuotes); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to set status for %s: %w", videoId, err))
		return
	}

	completion, err := c.completions.GenerateText(context.GetContext(), fmt.Sprintf(c.promptTemplate, transcript))
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to extract quotes for %s: %w", videoId, err))
		return
	}

	quotes := ParseQuotes(completion)
	if err := c.store.SetQuotes(context.GetContext(), videoId, quotes); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to persist quotes for %s: %w", videoId, err))
		return
	}

	if err := c.store.SetStatus(context.GetContext(), videoId, model.StatusGeneratingMetadata); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to set status for %s: %w", videoId, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetQuotesName(), quotes)
	context.Add(c.GetOutputParam(), transcript)
}

// GetQuotesName returns the constant key under which the parsed quotes are
// stored for downstream commands (the second-brain propagation copies them
// onto external records).
//
// Outputs:
//   - string: A constant placeholder string "__QUOTES__".
func GetQuotesName() string {
	return "__QUOTES__"
}
