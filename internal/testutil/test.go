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

// Package test provides utility functions and mock data to support the
// application's test suite: a cached test configuration and canned GCS
// notification payloads for driving the ingestion chain.
package test

import (
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
)

// StateManager acts as a simple in-memory cache for the application
// configuration during test runs, so the TOML files load once per run.
type StateManager struct {
	config *cloud.Config
}

// state holds the singleton StateManager for the test run.
var state = &StateManager{}

// HandleErr fails the test when err is non-nil. Convenience to reduce
// boilerplate error checks in tests.
//
// Inputs:
//   - err: The error to check.
//   - t: The *testing.T object from the current test.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("Error reading config file: %v", err)
	}
}

// GetTestVideoUploadMessageText returns a hardcoded JSON string simulating
// the Pub/Sub notification GCS publishes when "videos/abc123.mp4" is
// finalized in the upload bucket. This is the canonical trigger for
// chain-level ingestion tests.
//
// Returns:
//   - A string containing the JSON payload of a GCS notification.
func GetTestVideoUploadMessageText() string {
	return GetTestUploadMessageText("videos/abc123.mp4", "video/mp4")
}

// GetTestUploadMessageText builds a notification payload for an arbitrary
// object name and content type, for tests that exercise the prefix and
// content-type gates.
//
// Inputs:
//   - name: The object name (e.g. "videos/abc123.mp4").
//   - contentType: The MIME type claimed in the notification.
//
// Returns:
//   - A string containing the JSON payload of a GCS notification.
func GetTestUploadMessageText(name string, contentType string) string {
	return fmt.Sprintf(`{
  "kind": "storage#object",
  "id": "clipmind-video-uploads-test/%[1]s/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/clipmind-video-uploads-test/o/%[1]s",
  "name": "%[1]s",
  "bucket": "clipmind-video-uploads-test",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "%[2]s",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2024-10-11T03:04:08.672Z",
  "size": "259348037",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/clipmind-video-uploads-test/o/%[1]s?generation=1728615848664286&alt=media",
  "metadata": { "touch": "18" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
}`, name, contentType)
}

// SetupOS configures the environment variables the configuration loader
// depends on, pointing it at the test overlay (.env.test.toml).
//
// Returns:
//   - An error if setting any environment variable fails.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration. The TOML
// files load once; subsequent calls return the cached struct.
//
// Returns:
//   - A pointer to the loaded and cached cloud.Config struct.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}
