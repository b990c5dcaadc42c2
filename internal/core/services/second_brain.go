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
// workflow and the document store. This file implements the best-effort
// propagation of enrichment results into the denormalized "second brain"
// entries owned by an external feature.
//
// Logic Flow:
// Second-brain entries live in per-user subcollections, so a collection
// group query on the collection id is the only way to find every entry for
// a video. All matches are updated in a single batch so observers never see
// half-propagated state. The caller treats any failure here as log-only.
package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/model"
	"google.golang.org/api/iterator"
)

// FirestoreSecondBrainService updates denormalized video data in second
// brain entries across all users.
type FirestoreSecondBrainService struct {
	Client     *firestore.Client
	Collection string // The collection id for the group query, e.g. "secondBrain".
}

// NewFirestoreSecondBrainService creates a propagation service bound to the
// given collection id.
func NewFirestoreSecondBrainService(client *firestore.Client, collection string) *FirestoreSecondBrainService {
	return &FirestoreSecondBrainService{Client: client, Collection: collection}
}

// Propagate copies the video's quotes and title onto every second-brain
// entry that references it. Entries are located with a collection-group
// query and updated atomically in one write batch. Finding zero entries is
// a normal outcome, not an error.
//
// Inputs:
//   - ctx: The context for the query and the batch commit.
//   - videoId: The id of the enriched video.
//   - title: The video's generated title; empty leaves videoTitle untouched.
//   - quotes: The extracted quotes to copy onto each entry.
//
// Outputs:
//   - int: The number of entries updated.
//   - error: An error if the query or the batch commit fails.
func (s *FirestoreSecondBrainService) Propagate(ctx context.Context, videoId string, title string, quotes []string) (int, error) {
	iter := s.Client.CollectionGroup(s.Collection).
		Where("videoId", "==", videoId).
		Documents(ctx)
	defer iter.Stop()

	batch := s.Client.Batch()
	count := 0
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("query %s entries for video %s: %w", model.SecondBrainCollection, videoId, err)
		}
		updates := []firestore.Update{{Path: "quotes", Value: quotes}}
		if title != "" {
			updates = append(updates, firestore.Update{Path: "videoTitle", Value: title})
		}
		batch.Update(snap.Ref, updates)
		count++
	}

	if count == 0 {
		return 0, nil
	}
	if _, err := batch.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit propagation batch for video %s: %w", videoId, err)
	}
	return count, nil
}
