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
// This file holds the denormalized "second brain" entry owned by an external
// feature. The ingestion workflow only ever touches the Quotes and VideoTitle
// fields of these documents, as a best-effort side effect after a video
// reaches the ready state.
package model

// SecondBrainCollection is the collection id used for the collection-group
// query that finds entries scattered across per-user subcollections.
const SecondBrainCollection = "secondBrain"

// SecondBrainEntry is an external feature's per-user record that carries a
// denormalized copy of a video's quotes and title.
type SecondBrainEntry struct {
	VideoId    string   `firestore:"videoId" json:"videoId"`
	VideoTitle string   `firestore:"videoTitle,omitempty" json:"videoTitle,omitempty"`
	Quotes     []string `firestore:"quotes,omitempty" json:"quotes,omitempty"`
}
