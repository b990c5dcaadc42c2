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

// Package model defines the core data structures for the application.
// This file defines the VideoRecord document, the processing status state
// machine, and the deterministic mapping from a storage object name to a
// video identifier.
//
// Logic Flow:
// A VideoRecord is created by the ingestion workflow when a valid video
// object is finalized in the storage bucket, and is then advanced through a
// linear sequence of statuses by partial-field updates. The record is keyed
// by an identifier derived from the object name rather than a generated id,
// so repeated finalize events for the same object always address the same
// document.
package model

import (
	"path"
	"strings"
	"time"
)

// ProcessingStatus enumerates the states of the ingestion state machine.
// The happy path is strictly monotonic:
//
//	uploading -> transcribing -> extracting_quotes -> generating_metadata -> ready
//
// Any non-terminal state may jump to error. Both ready and error are terminal.
type ProcessingStatus string

const (
	StatusUploading          ProcessingStatus = "uploading"
	StatusTranscribing       ProcessingStatus = "transcribing"
	StatusExtractingQuotes   ProcessingStatus = "extracting_quotes"
	StatusGeneratingMetadata ProcessingStatus = "generating_metadata"
	StatusReady              ProcessingStatus = "ready"
	StatusError              ProcessingStatus = "error"
)

// IsTerminal reports whether no further pipeline writes are permitted for a
// record in this status.
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusReady || s == StatusError
}

// VideoPathPrefix is the object-name prefix that marks an upload as a video
// ingestion trigger. Objects outside this prefix are ignored entirely.
const VideoPathPrefix = "videos/"

// VideoRecord is the per-video document persisted to the `videos` collection.
// All writes after the initial creation are partial-field updates performed
// by the ingestion workflow; the record is never deleted by this subsystem.
type VideoRecord struct {
	Id                 string           `firestore:"-" json:"id"`                                   // Document id, derived from the object name. Not stored as a field.
	OriginalFileName   string           `firestore:"originalFileName" json:"originalFileName"`      // Object name as uploaded, immutable.
	ContentType        string           `firestore:"contentType" json:"contentType"`                // Declared MIME type from blob metadata, immutable.
	Size               int64            `firestore:"size" json:"size"`                              // Object size in bytes at validation time, immutable.
	ProcessingStatus   ProcessingStatus `firestore:"processingStatus" json:"processingStatus"`      // Mutated only by the ingestion workflow.
	ProcessingError    string           `firestore:"processingError,omitempty" json:"processingError,omitempty"` // Set once, only on the transition to error.
	VideoURL           string           `firestore:"videoURL,omitempty" json:"videoURL,omitempty"`  // Signed read URL for playback-adjacent consumers.
	VideoURLExpiration time.Time        `firestore:"videoURLExpiration,omitempty" json:"videoURLExpiration,omitempty"` // Absolute expiry; authoritative, not informative.
	Transcript         string           `firestore:"transcript,omitempty" json:"transcript,omitempty"` // Set once after transcription, never cleared.
	Quotes             []string         `firestore:"quotes,omitempty" json:"quotes,omitempty"`      // Ordered; an empty list is a valid terminal value.
	AutoTitle          string           `firestore:"autoTitle,omitempty" json:"autoTitle,omitempty"`
	AutoDescription    string           `firestore:"autoDescription,omitempty" json:"autoDescription,omitempty"`
	AutoTags           []string         `firestore:"autoTags,omitempty" json:"autoTags,omitempty"`
	Title              string           `firestore:"title,omitempty" json:"title,omitempty"`             // Mirrors AutoTitle when metadata generation succeeds.
	Description        string           `firestore:"description,omitempty" json:"description,omitempty"` // Mirrors AutoDescription.
	Tags               []string         `firestore:"tags,omitempty" json:"tags,omitempty"`               // Mirrors AutoTags.
	UpdatedAt          time.Time        `firestore:"updatedAt,serverTimestamp" json:"updatedAt"`         // Server-assigned, refreshed on every mutation.
}

// VideoIDFromObjectName derives the stable video identifier from a storage
// object name. The uploader is trusted to have named the object with the
// intended identifier, so the derivation is purely mechanical: strip the
// `videos/` prefix and the file extension. The result is deterministic,
// which makes repeated finalize events for the same object idempotent at
// the document level.
//
// Inputs:
//   - objectName: The full object name, e.g. "videos/abc123.mp4".
//
// Outputs:
//   - string: The video id, e.g. "abc123". Empty when the name is not under
//     the videos/ prefix or carries no base name.
func VideoIDFromObjectName(objectName string) string {
	if !strings.HasPrefix(objectName, VideoPathPrefix) {
		return ""
	}
	base := path.Base(objectName)
	id := strings.TrimSuffix(base, path.Ext(base))
	if id == "" || id == "." || id == "/" {
		return ""
	}
	return id
}
