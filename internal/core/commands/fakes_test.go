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

// In-memory fakes for the command ports. Each fake records what it was
// asked to do; failures are injected per method name so tests can fail any
// single stage.
package commands_test

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/clipmind/gcp-go-video-ingest/internal/cloud"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/cor"
	"github.com/clipmind/gcp-go-video-ingest/internal/core/model"
)

// newChainContext returns a chain context carrying a background Go context,
// which the command preconditions require.
func newChainContext() cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	return ctx
}

// fakeVideoStore is an in-memory VideoStore that logs every call in order.
type fakeVideoStore struct {
	mu         sync.Mutex
	calls      []string
	record     *model.VideoRecord
	statuses   []model.ProcessingStatus
	transcript string
	quotes     []string
	hasQuotes  bool
	metadata   model.GeneratedMetadata
	url        string
	urlExpiry  time.Time
	errMessage string
	failures   map[string]error
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{failures: make(map[string]error)}
}

func (s *fakeVideoStore) call(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	return s.failures[name]
}

func (s *fakeVideoStore) Create(_ context.Context, record *model.VideoRecord) error {
	if err := s.call("Create"); err != nil {
		return err
	}
	s.record = record
	return nil
}

func (s *fakeVideoStore) SetStatus(_ context.Context, _ string, status model.ProcessingStatus) error {
	if err := s.call("SetStatus"); err != nil {
		return err
	}
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *fakeVideoStore) SetError(_ context.Context, _ string, message string) error {
	if err := s.call("SetError"); err != nil {
		return err
	}
	s.statuses = append(s.statuses, model.StatusError)
	s.errMessage = message
	return nil
}

func (s *fakeVideoStore) SetSignedURL(_ context.Context, _ string, url string, expiration time.Time) error {
	if err := s.call("SetSignedURL"); err != nil {
		return err
	}
	s.url = url
	s.urlExpiry = expiration
	return nil
}

func (s *fakeVideoStore) SetTranscript(_ context.Context, _ string, transcript string) error {
	if err := s.call("SetTranscript"); err != nil {
		return err
	}
	s.transcript = transcript
	return nil
}

func (s *fakeVideoStore) SetQuotes(_ context.Context, _ string, quotes []string) error {
	if err := s.call("SetQuotes"); err != nil {
		return err
	}
	s.quotes = quotes
	s.hasQuotes = true
	return nil
}

func (s *fakeVideoStore) SetGeneratedMetadata(_ context.Context, _ string, metadata model.GeneratedMetadata) error {
	if err := s.call("SetGeneratedMetadata"); err != nil {
		return err
	}
	s.metadata = metadata
	return nil
}

func (s *fakeVideoStore) currentStatus() model.ProcessingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.statuses) == 0 {
		if s.record != nil {
			return s.record.ProcessingStatus
		}
		return ""
	}
	return s.statuses[len(s.statuses)-1]
}

// fakeBlobInspector returns canned metadata for any object.
type fakeBlobInspector struct {
	contentType string
	size        int64
	err         error
}

func (f *fakeBlobInspector) Inspect(_ context.Context, bucket string, name string) (*cloud.BlobRef, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &cloud.BlobRef{Bucket: bucket, Name: name, ContentType: f.contentType, Size: f.size}, nil
}

// fakeBlobDownloader writes canned bytes to the destination path.
type fakeBlobDownloader struct {
	content []byte
	err     error
	dest    string
}

func (f *fakeBlobDownloader) Download(_ context.Context, _ *cloud.BlobRef, destPath string) error {
	if f.err != nil {
		return f.err
	}
	f.dest = destPath
	return os.WriteFile(destPath, f.content, 0o644)
}

// fakeURLSigner hands out a fixed URL.
type fakeURLSigner struct {
	url string
	err error
}

func (f *fakeURLSigner) SignGetURL(_ context.Context, _ *cloud.BlobRef, expires time.Duration) (string, time.Time, error) {
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return f.url, time.Now().Add(expires), nil
}

// fakeTranscriber returns a fixed transcript and counts invocations.
type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

// fakeCompletion returns a fixed completion and counts invocations.
type fakeCompletion struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (f *fakeCompletion) GenerateText(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// fakePropagator records what was propagated.
type fakePropagator struct {
	count  int
	err    error
	title  string
	quotes []string
	called bool
}

func (f *fakePropagator) Propagate(_ context.Context, _ string, title string, quotes []string) (int, error) {
	f.called = true
	f.title = title
	f.quotes = quotes
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

// fakeCommandRunner records the invocation and creates the output file the
// real transcoder would have produced (the last argument).
type fakeCommandRunner struct {
	name string
	args []string
	err  error
}

func (f *fakeCommandRunner) Run(_ context.Context, name string, args ...string) error {
	f.name = name
	f.args = args
	if f.err != nil {
		return f.err
	}
	if len(args) > 0 {
		return os.WriteFile(args[len(args)-1], []byte("audio"), 0o644)
	}
	return nil
}
