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

// Package cloud provides components for interacting with Google Cloud services.
// This file implements the three blob-facing operations the ingestion
// pipeline needs against Google Cloud Storage: reading authoritative object
// metadata, streaming an object to a local scratch file, and issuing
// time-limited signed download URLs.
//
// Structs:
//   - GCSBlobInspector: Resolves a bucket/name pair to authoritative metadata.
//   - GCSBlobDownloader: Streams an object's content to a local file.
//   - GCSURLSigner: Issues V4 signed GET URLs via the IAM Credentials API.
package cloud

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
)

// MaxSignedURLExpiration is the longest validity the signing backend
// accepts. Configured expirations at or above this are clamped to one day
// less, keeping issued URLs strictly below the hard limit.
const MaxSignedURLExpiration = 7 * 24 * time.Hour

// ClampSignedURLExpiration converts a configured day count into a duration
// strictly below the signing backend's maximum. Non-positive day counts fall
// back to one day.
//
// Inputs:
//   - days: The configured expiration in days.
//
// Outputs:
//   - time.Duration: The clamped validity window.
func ClampSignedURLExpiration(days int) time.Duration {
	if days <= 0 {
		days = 1
	}
	d := time.Duration(days) * 24 * time.Hour
	if d >= MaxSignedURLExpiration {
		d = MaxSignedURLExpiration - 24*time.Hour
	}
	return d
}

// GCSBlobInspector resolves an object reference to the store's authoritative
// metadata. The pipeline validates content types against these attributes,
// never against the values claimed in the trigger event.
type GCSBlobInspector struct {
	Client *storage.Client
}

// Inspect fetches the object's attributes and returns a BlobRef populated
// with the authoritative content type and size.
//
// Inputs:
//   - ctx: The context for the request.
//   - bucket: The bucket name.
//   - name: The object name within the bucket.
//
// Outputs:
//   - *BlobRef: The resolved reference.
//   - error: An error if the object does not exist or the lookup fails.
func (i *GCSBlobInspector) Inspect(ctx context.Context, bucket string, name string) (*BlobRef, error) {
	attrs, err := i.Client.Bucket(bucket).Object(name).Attrs(ctx)
	if err != nil {
		return nil, fmt.Errorf("Bucket(%q).Object(%q).Attrs: %w", bucket, name, err)
	}
	return &BlobRef{
		Bucket:      bucket,
		Name:        name,
		ContentType: attrs.ContentType,
		Size:        attrs.Size,
	}, nil
}

// GCSBlobDownloader streams object content to local scratch files.
type GCSBlobDownloader struct {
	Client *storage.Client
}

// Download copies the object's content to the file at destPath, creating or
// truncating it. The destination is written with io.Copy so arbitrarily
// large videos stream through a fixed-size buffer.
//
// Inputs:
//   - ctx: The context for the request.
//   - blob: The reference of the object to download.
//   - destPath: Local filesystem path to write.
//
// Outputs:
//   - error: An error if the object reader, file creation, or copy fails.
func (d *GCSBlobDownloader) Download(ctx context.Context, blob *BlobRef, destPath string) error {
	reader, err := d.Client.Bucket(blob.Bucket).Object(blob.Name).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("Bucket(%q).Object(%q).NewReader: %w", blob.Bucket, blob.Name, err)
	}
	defer func() { _ = reader.Close() }()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create scratch file %s: %w", destPath, err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("copy %s/%s to %s: %w", blob.Bucket, blob.Name, destPath, err)
	}
	return nil
}

// GCSURLSigner issues V4 signed GET URLs for private objects. Signing uses
// the IAM Credentials API's SignBlob method under the configured service
// account, which works on GCP infrastructure without local key files.
type GCSURLSigner struct {
	StorageClient *storage.Client
	IAMClient     *credentials.IamCredentialsClient
	SignerEmail   string // The service account email that performs the signing.
}

// SignGetURL creates a time-limited, secure URL to read a private object.
// This lets clients stream video directly from the bucket without their own
// credentials.
//
// Inputs:
//   - ctx: The context for the signing request.
//   - blob: The reference of the object to expose.
//   - expires: The duration for which the URL will be valid.
//
// Outputs:
//   - string: The generated signed URL.
//   - time.Time: The instant at which the URL expires.
//   - error: An error if the signing call fails.
func (s *GCSURLSigner) SignGetURL(ctx context.Context, blob *BlobRef, expires time.Duration) (string, time.Time, error) {
	expiration := time.Now().Add(expires)

	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		GoogleAccessID: s.SignerEmail,
		Expires:        expiration,
		SignBytes: func(b []byte) ([]byte, error) {
			req := &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			}
			resp, err := s.IAMClient.SignBlob(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		},
	}

	u, err := s.StorageClient.Bucket(blob.Bucket).SignedURL(blob.Name, opts)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("Bucket(%q).Object(%q).SignedURL: %w", blob.Bucket, blob.Name, err)
	}
	return u, expiration, nil
}
