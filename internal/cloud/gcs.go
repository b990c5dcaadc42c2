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

// Package cloud contains data structures and utilities for interacting with
// Google Cloud services. This file defines the models related to Google
// Cloud Storage (GCS): the structure of GCS Pub/Sub event notifications and
// a simplified internal reference to a stored object.
package cloud

// GetBlobRefName returns the constant key under which commands in a workflow
// store and retrieve the BlobRef being processed.
//
// Outputs:
//   - string: A constant placeholder string "__BLOB__REF__".
func GetBlobRefName() string {
	return "__BLOB__REF__"
}

// GetVideoIdName returns the constant key under which commands store the
// derived video document id once it is established. The workflow's error
// boundary reads this key to decide whether a failure can be written back to
// the video's document.
//
// Outputs:
//   - string: A constant placeholder string "__VIDEO__ID__".
func GetVideoIdName() string {
	return "__VIDEO__ID__"
}

// GCSPubSubNotification is the structure that maps to the JSON message
// payload received from a Google Cloud Storage (GCS) Pub/Sub notification.
// When an object is finalized in a monitored bucket, GCS sends a message
// with this structure to the configured Pub/Sub topic.
type GCSPubSubNotification struct {
	Kind                    string                 `json:"kind"`                    // The kind of the object, typically "storage#object".
	ID                      string                 `json:"id"`                      // The full ID of the object, including bucket and generation.
	SelfLink                string                 `json:"selfLink"`                // The URI for this object.
	Name                    string                 `json:"name"`                    // The name of the object within the bucket.
	Bucket                  string                 `json:"bucket"`                  // The name of the bucket containing the object.
	Generation              string                 `json:"generation"`              // The generation number of the object's content.
	MetaGeneration          string                 `json:"metageneration"`          // The generation number of the object's metadata.
	ContentType             string                 `json:"contentType"`             // The MIME type of the object's content.
	TimeCreated             string                 `json:"timeCreated"`             // The creation time of the object.
	Updated                 string                 `json:"updated"`                 // The last modification time of the object.
	StorageClass            string                 `json:"storageClass"`            // The storage class of the object.
	TimeStorageClassUpdated string                 `json:"timeStorageClassUpdated"` // The time the storage class was last updated.
	Size                    string                 `json:"size"`                    // The size of the object in bytes.
	MD5Hash                 string                 `json:"md5Hash"`                 // The MD5 hash of the object's content.
	MediaLink               string                 `json:"mediaLink"`               // A link to download the object's content.
	MetaData                map[string]interface{} `json:"metadata"`                // User-provided metadata, if any.
	Crc32c                  string                 `json:"crc32c"`                  // The CRC32C checksum of the object's content.
	ETag                    string                 `json:"etag"`                    // The HTTP ETag of the object.
}

// BlobRef is a simplified, internal reference to a stored object. It distills
// the essential fields from the verbose GCSPubSubNotification into a
// lightweight struct that is easy to pass between commands in a workflow.
// ContentType and Size reflect the store's authoritative metadata once the
// blob has been inspected, not the values claimed in the trigger event.
type BlobRef struct {
	Bucket      string // The name of the bucket.
	Name        string // The object name, e.g. "videos/abc123.mp4".
	ContentType string // The MIME type of the object (e.g. "video/mp4").
	Size        int64  // The object size in bytes.
}
