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

// Package services provides the persistence layer between the ingestion
// workflow and the document store. This file implements the video record
// store on Firestore.
//
// Logic Flow:
// The workflow performs exactly one full document write per video (the
// initial create) and advances the record afterwards through partial-field
// updates. Every mutation refreshes the server-assigned updatedAt timestamp.
// Reads outside the pipeline (the status API, the sweeper) go through the
// same store.
package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/model"
	"google.golang.org/api/iterator"
)

// FirestoreVideoStore persists VideoRecord documents in a single Firestore
// collection, keyed by the derived video id.
type FirestoreVideoStore struct {
	Client     *firestore.Client
	Collection string // The collection name, e.g. "videos".
}

// NewFirestoreVideoStore creates a store bound to the given collection.
func NewFirestoreVideoStore(client *firestore.Client, collection string) *FirestoreVideoStore {
	return &FirestoreVideoStore{Client: client, Collection: collection}
}

func (s *FirestoreVideoStore) doc(id string) *firestore.DocumentRef {
	return s.Client.Collection(s.Collection).Doc(id)
}

// update applies a partial-field update and refreshes updatedAt in the same
// write. Every mutating method below funnels through here so no code path
// can forget the timestamp.
func (s *FirestoreVideoStore) update(ctx context.Context, id string, updates []firestore.Update) error {
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})
	if _, err := s.doc(id).Update(ctx, updates); err != nil {
		return fmt.Errorf("update video %s: %w", id, err)
	}
	return nil
}

// Create writes the full initial document for a video. This is the only full
// write the pipeline ever performs; the serverTimestamp tag on UpdatedAt
// fills in the timestamp.
//
// Inputs:
//   - ctx: The context for the write.
//   - record: The record to persist. Its Id field selects the document.
//
// Outputs:
//   - error: An error if the write fails.
func (s *FirestoreVideoStore) Create(ctx context.Context, record *model.VideoRecord) error {
	if _, err := s.doc(record.Id).Set(ctx, record); err != nil {
		return fmt.Errorf("create video %s: %w", record.Id, err)
	}
	return nil
}

// Get reads one video record by id.
//
// Outputs:
//   - *model.VideoRecord: The record with its Id field populated.
//   - error: An error if the document does not exist or the read fails.
func (s *FirestoreVideoStore) Get(ctx context.Context, id string) (*model.VideoRecord, error) {
	snap, err := s.doc(id).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w", id, err)
	}
	record := &model.VideoRecord{}
	if err := snap.DataTo(record); err != nil {
		return nil, fmt.Errorf("decode video %s: %w", id, err)
	}
	record.Id = snap.Ref.ID
	return record, nil
}

// SetStatus advances the record's processing status.
func (s *FirestoreVideoStore) SetStatus(ctx context.Context, id string, status model.ProcessingStatus) error {
	return s.update(ctx, id, []firestore.Update{
		{Path: "processingStatus", Value: status},
	})
}

// SetError moves the record to the terminal error state, recording the
// failure message. After this write the pipeline performs no further writes
// to the document.
func (s *FirestoreVideoStore) SetError(ctx context.Context, id string, message string) error {
	return s.update(ctx, id, []firestore.Update{
		{Path: "processingStatus", Value: model.StatusError},
		{Path: "processingError", Value: message},
	})
}

// SetSignedURL persists the signed playback URL and its absolute expiry.
func (s *FirestoreVideoStore) SetSignedURL(ctx context.Context, id string, url string, expiration time.Time) error {
	return s.update(ctx, id, []firestore.Update{
		{Path: "videoURL", Value: url},
		{Path: "videoURLExpiration", Value: expiration},
	})
}

// SetTranscript persists the transcript text. The processing status is not
// touched here: the transcript lands while the record is still in the
// transcribing state, so a later failure cannot erase it.
func (s *FirestoreVideoStore) SetTranscript(ctx context.Context, id string, transcript string) error {
	return s.update(ctx, id, []firestore.Update{
		{Path: "transcript", Value: transcript},
	})
}

// SetQuotes persists the extracted quotes. An empty slice is a valid result
// and is written as such.
func (s *FirestoreVideoStore) SetQuotes(ctx context.Context, id string, quotes []string) error {
	return s.update(ctx, id, []firestore.Update{
		{Path: "quotes", Value: quotes},
	})
}

// SetGeneratedMetadata persists the successful subset of the metadata
// fan-out in one partial update. Fields whose generation failed are nil and
// are left untouched on the document. Both the auto-prefixed provenance
// fields and the display fields are written.
func (s *FirestoreVideoStore) SetGeneratedMetadata(ctx context.Context, id string, metadata model.GeneratedMetadata) error {
	if metadata.IsEmpty() {
		return nil
	}
	updates := make([]firestore.Update, 0, 6)
	if metadata.Title != nil {
		updates = append(updates,
			firestore.Update{Path: "autoTitle", Value: *metadata.Title},
			firestore.Update{Path: "title", Value: *metadata.Title})
	}
	if metadata.Description != nil {
		updates = append(updates,
			firestore.Update{Path: "autoDescription", Value: *metadata.Description},
			firestore.Update{Path: "description", Value: *metadata.Description})
	}
	if metadata.Tags != nil {
		updates = append(updates,
			firestore.Update{Path: "autoTags", Value: metadata.Tags},
			firestore.Update{Path: "tags", Value: metadata.Tags})
	}
	return s.update(ctx, id, updates)
}

// ListStuck returns records sitting in a non-terminal status whose last
// mutation is older than the cutoff. Used by the optional sweeper.
//
// Inputs:
//   - ctx: The context for the query.
//   - cutoff: Records with updatedAt before this instant are returned.
//
// Outputs:
//   - []*model.VideoRecord: The stuck records, ids populated.
//   - error: An error if the query fails.
func (s *FirestoreVideoStore) ListStuck(ctx context.Context, cutoff time.Time) ([]*model.VideoRecord, error) {
	nonTerminal := []string{
		string(model.StatusUploading),
		string(model.StatusTranscribing),
		string(model.StatusExtractingQuotes),
		string(model.StatusGeneratingMetadata),
	}
	iter := s.Client.Collection(s.Collection).
		Where("processingStatus", "in", nonTerminal).
		Where("updatedAt", "<", cutoff).
		Documents(ctx)
	defer iter.Stop()

	var records []*model.VideoRecord
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list stuck videos: %w", err)
		}
		record := &model.VideoRecord{}
		if err := snap.DataTo(record); err != nil {
			return nil, fmt.Errorf("decode video %s: %w", snap.Ref.ID, err)
		}
		record.Id = snap.Ref.ID
		records = append(records, record)
	}
	return records, nil
}
